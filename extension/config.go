package extension

import "github.com/xraph/promo"

// Config holds the promo extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.promo" or "promo" keys).
type Config struct {
	// DisableRoutes prevents HTTP route registration.
	DisableRoutes bool `json:"disable_routes" mapstructure:"disable_routes" yaml:"disable_routes"`

	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// BasePath is the URL prefix for voucher and client routes (default: "/api").
	BasePath string `json:"base_path" mapstructure:"base_path" yaml:"base_path"`

	// MaxVouchersPerEvent is the per-event voucher quota (default: 10).
	MaxVouchersPerEvent int `json:"max_vouchers_per_event" mapstructure:"max_vouchers_per_event" yaml:"max_vouchers_per_event"`

	// GroveDatabase is the name of a grove.DB registered in the DI container.
	// When set, the extension resolves this named database and auto-constructs
	// the appropriate store based on the driver type (pg/sqlite/mongo).
	// When empty and WithGroveDatabase was called, the default (unnamed) DB is used.
	GroveDatabase string `json:"grove_database" mapstructure:"grove_database" yaml:"grove_database"`

	// Driver and DSN open a database directly when neither a store nor a
	// DI-registered grove.DB is available. Driver is one of "mongo",
	// "postgres" or "sqlite".
	Driver string `json:"driver" mapstructure:"driver" yaml:"driver"`
	DSN    string `json:"dsn" mapstructure:"dsn" yaml:"dsn"`

	// EnableMetrics registers the metrics plugin against the app's metrics.
	EnableMetrics bool `json:"enable_metrics" mapstructure:"enable_metrics" yaml:"enable_metrics"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BasePath:            "/api",
		MaxVouchersPerEvent: promo.DefaultMaxVouchersPerEvent,
	}
}

// MergeWithDefaults fills zero-valued fields with defaults.
func MergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.BasePath == "" {
		cfg.BasePath = defaults.BasePath
	}
	if cfg.MaxVouchersPerEvent <= 0 {
		cfg.MaxVouchersPerEvent = defaults.MaxVouchersPerEvent
	}
	return cfg
}

// MergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence for most fields; programmatic bool flags fill gaps.
func MergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	// Programmatic bool flags override when true.
	if programmaticConfig.DisableRoutes {
		yamlConfig.DisableRoutes = true
	}
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}
	if programmaticConfig.EnableMetrics {
		yamlConfig.EnableMetrics = true
	}

	// String fields: YAML takes precedence.
	if yamlConfig.BasePath == "" {
		yamlConfig.BasePath = programmaticConfig.BasePath
	}
	if yamlConfig.GroveDatabase == "" {
		yamlConfig.GroveDatabase = programmaticConfig.GroveDatabase
	}
	if yamlConfig.Driver == "" && yamlConfig.DSN == "" {
		yamlConfig.Driver = programmaticConfig.Driver
		yamlConfig.DSN = programmaticConfig.DSN
	}

	// Int fields: YAML takes precedence, programmatic fills gaps.
	if yamlConfig.MaxVouchersPerEvent == 0 {
		yamlConfig.MaxVouchersPerEvent = programmaticConfig.MaxVouchersPerEvent
	}

	yamlConfig.RequireConfig = programmaticConfig.RequireConfig

	// Fill remaining zeros with defaults.
	return MergeWithDefaults(yamlConfig)
}
