// Command promo runs the voucher service as a Forge application.
package main

import (
	"log"
	"os"

	"github.com/xraph/forge"

	"github.com/xraph/promo/extension"
)

const defaultAddr = ":3000"

func main() {
	addr := os.Getenv("PROMO_HTTP_ADDR")
	if addr == "" {
		addr = defaultAddr
	}

	app := forge.New(
		forge.WithAppName("promo"),
		forge.WithAppVersion(extension.ExtensionVersion),
		forge.WithAppDescription(extension.ExtensionDescription),
		forge.WithHTTPAddress(addr),
		forge.WithExtensions(extension.New(extension.WithMetrics())),
	)

	if err := app.Run(); err != nil {
		log.Fatal(err)
	}
}
