package extension

import (
	"context"
	"fmt"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"
	"github.com/xraph/grove/drivers/pgdriver"
	"github.com/xraph/grove/drivers/sqlitedriver"
	"github.com/xraph/vessel"

	"github.com/xraph/promo/store"
	"github.com/xraph/promo/store/memory"
	"github.com/xraph/promo/store/mongo"
	"github.com/xraph/promo/store/postgres"
	"github.com/xraph/promo/store/sqlite"
)

// resolveStore picks the backing store: an explicit store first, then a
// grove.DB from the container, then a database opened from Driver/DSN, and
// finally the in-memory store.
func (e *Extension) resolveStore(ctx context.Context, c vessel.Vessel) (store.Store, error) {
	if e.store != nil {
		return e.store, nil
	}

	if e.useGrove || e.config.GroveDatabase != "" {
		db, err := injectGrove(c, e.config.GroveDatabase)
		if err != nil {
			return nil, err
		}
		return storeFor(db)
	}

	if e.config.Driver != "" {
		db, err := openGrove(ctx, e.config.Driver, e.config.DSN)
		if err != nil {
			return nil, err
		}
		return storeFor(db)
	}

	return memory.New(), nil
}

func injectGrove(c vessel.Vessel, name string) (*grove.DB, error) {
	var (
		db  *grove.DB
		err error
	)
	if name == "" {
		db, err = vessel.Inject[*grove.DB](c)
	} else {
		db, err = vessel.InjectNamed[*grove.DB](c, name)
	}
	if err != nil {
		return nil, fmt.Errorf("promo: resolve grove database %q: %w", name, err)
	}
	return db, nil
}

// openGrove connects the named driver and wraps it in a grove.DB.
func openGrove(ctx context.Context, driverName, dsn string) (*grove.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("promo: driver %q requires a dsn", driverName)
	}

	var drv grove.GroveDriver
	switch driverName {
	case "mongo", "mongodb":
		m := mongodriver.New()
		if err := m.Open(ctx, dsn); err != nil {
			return nil, err
		}
		drv = m
	case "postgres", "pg":
		pg := pgdriver.New()
		if err := pg.Open(ctx, dsn); err != nil {
			return nil, err
		}
		drv = pg
	case "sqlite":
		sdb := sqlitedriver.New()
		if err := sdb.Open(ctx, dsn); err != nil {
			return nil, err
		}
		drv = sdb
	default:
		return nil, fmt.Errorf("promo: unsupported driver %q", driverName)
	}

	return grove.Open(drv)
}

// storeFor builds the store matching the grove driver behind db.
func storeFor(db *grove.DB) (store.Store, error) {
	switch name := db.Driver().Name(); name {
	case "mongo":
		return mongo.New(db), nil
	case "pg":
		return postgres.New(db), nil
	case "sqlite":
		return sqlite.New(db), nil
	default:
		return nil, fmt.Errorf("promo: no store for grove driver %q", name)
	}
}
