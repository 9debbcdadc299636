package postgres

import (
	"context"

	// Registers the migrate executor for the driver.
	_ "github.com/xraph/grove/drivers/pgdriver/pgmigrate"
	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the promo store.
var Migrations = migrate.NewGroup("promo")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_promo_vouchers",
			Version: "20240101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS promo_vouchers (
    id          TEXT PRIMARY KEY,
    code        TEXT NOT NULL,
    event_id    TEXT NOT NULL,
    percent     BOOLEAN NOT NULL DEFAULT TRUE,
    amount      DOUBLE PRECISION NOT NULL,
    expire_date TEXT NOT NULL DEFAULT '',
    is_active   BOOLEAN NOT NULL DEFAULT TRUE,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_promo_vouchers_code ON promo_vouchers (code);
CREATE INDEX IF NOT EXISTS idx_promo_vouchers_event ON promo_vouchers (event_id, created_at);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS promo_vouchers`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_promo_voucher_sources",
			Version: "20240101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS promo_voucher_sources (
    id         TEXT PRIMARY KEY,
    event_id   TEXT NOT NULL,
    vouchers   TEXT[] NOT NULL DEFAULT '{}',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_promo_sources_event ON promo_voucher_sources (event_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS promo_voucher_sources`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_promo_clients",
			Version: "20240101000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS promo_clients (
    uid        TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    email      TEXT NOT NULL,
    address    TEXT NOT NULL,
    role       TEXT NOT NULL DEFAULT 'user',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_promo_clients_role ON promo_clients (role, created_at);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS promo_clients`)
				return err
			},
		},
	)
}
