package sqlite

import (
	"context"

	// Registers the migrate executor for the driver.
	_ "github.com/xraph/grove/drivers/sqlitedriver/sqlitemigrate"
	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the promo store (SQLite).
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
    percent     INTEGER NOT NULL DEFAULT 1,
    amount      REAL NOT NULL,
    expire_date TEXT NOT NULL DEFAULT '',
    is_active   INTEGER NOT NULL DEFAULT 1,
    created_at  TIMESTAMP NOT NULL DEFAULT (datetime('now')),
    updated_at  TIMESTAMP NOT NULL DEFAULT (datetime('now'))
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
    vouchers   TEXT NOT NULL DEFAULT '[]',
    created_at TIMESTAMP NOT NULL DEFAULT (datetime('now')),
    updated_at TIMESTAMP NOT NULL DEFAULT (datetime('now'))
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
    created_at TIMESTAMP NOT NULL DEFAULT (datetime('now')),
    updated_at TIMESTAMP NOT NULL DEFAULT (datetime('now'))
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
