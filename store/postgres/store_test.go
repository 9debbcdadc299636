package postgres_test

import (
	"context"
	"os"
	"testing"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"

	"github.com/xraph/promo/store"
	"github.com/xraph/promo/store/postgres"
	"github.com/xraph/promo/store/storetest"
)

// dsnEnv names a disposable database; the tests skip without it.
const dsnEnv = "PROMO_TEST_POSTGRES_DSN"

func TestStore(t *testing.T) {
	dsn := os.Getenv(dsnEnv)
	if dsn == "" {
		t.Skipf("%s not set", dsnEnv)
	}

	storetest.Run(t, func(t *testing.T) store.Store {
		t.Helper()
		drv := pgdriver.New()
		if err := drv.Open(context.Background(), dsn); err != nil {
			t.Fatalf("open postgres: %v", err)
		}
		db, err := grove.Open(drv)
		if err != nil {
			t.Fatalf("grove open: %v", err)
		}
		return postgres.New(db)
	})
}
