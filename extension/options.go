package extension

import (
	"github.com/xraph/promo"
	"github.com/xraph/promo/plugin"
	"github.com/xraph/promo/store"
)

// Option configures the promo Forge extension.
type Option func(*Extension)

// WithStore sets the store for the promo engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithPromoOption passes a promo.Option through to the underlying engine.
func WithPromoOption(opt promo.Option) Option {
	return func(e *Extension) {
		e.promoOpts = append(e.promoOpts, opt)
	}
}

// WithPlugin registers a promo plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.promoOpts = append(e.promoOpts, promo.WithPlugin(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableRoutes prevents HTTP route registration.
func WithDisableRoutes() Option {
	return func(e *Extension) { e.config.DisableRoutes = true }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithBasePath sets the URL prefix for voucher and client routes.
func WithBasePath(path string) Option {
	return func(e *Extension) { e.config.BasePath = path }
}

// WithMaxVouchersPerEvent sets the per-event voucher quota.
func WithMaxVouchersPerEvent(n int) Option {
	return func(e *Extension) { e.config.MaxVouchersPerEvent = n }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}

// WithMetrics records issuance and client counts through the app's metrics.
func WithMetrics() Option {
	return func(e *Extension) { e.config.EnableMetrics = true }
}

// WithDriver opens a database from driver and dsn when no store or grove.DB
// is otherwise available. driver is one of "mongo", "postgres" or "sqlite".
func WithDriver(driver, dsn string) Option {
	return func(e *Extension) {
		e.config.Driver = driver
		e.config.DSN = dsn
	}
}

// WithGroveDatabase sets the name of the grove.DB to resolve from the DI container.
// The extension will auto-construct the appropriate store backend (postgres/sqlite/mongo)
// based on the grove driver type. Pass an empty string to use the default (unnamed) grove.DB.
func WithGroveDatabase(name string) Option {
	return func(e *Extension) {
		e.config.GroveDatabase = name
		e.useGrove = true
	}
}
