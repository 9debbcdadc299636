package mongo_test

import (
	"context"
	"os"
	"testing"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/promo/store"
	"github.com/xraph/promo/store/mongo"
	"github.com/xraph/promo/store/storetest"
)

// uriEnv names a replica set URI including the database, for example
// mongodb://localhost:27017/promo_test?replicaSet=rs0. The tests skip
// without it.
const uriEnv = "PROMO_TEST_MONGO_URI"

func TestStore(t *testing.T) {
	uri := os.Getenv(uriEnv)
	if uri == "" {
		t.Skipf("%s not set", uriEnv)
	}

	storetest.Run(t, func(t *testing.T) store.Store {
		t.Helper()
		drv := mongodriver.New()
		if err := drv.Open(context.Background(), uri); err != nil {
			t.Fatalf("open mongo: %v", err)
		}
		db, err := grove.Open(drv)
		if err != nil {
			t.Fatalf("grove open: %v", err)
		}
		return mongo.New(db)
	})
}
