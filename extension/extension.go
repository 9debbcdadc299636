// Package extension provides the Forge extension adapter for promo.
//
// It implements the forge.Extension interface to integrate the voucher
// engine into a Forge application with store discovery, DI registration,
// route mounting and lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.promo" or "promo" keys.
package extension

import (
	"context"
	"errors"
	"log/slog"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	"github.com/xraph/promo"
	"github.com/xraph/promo/api"
	"github.com/xraph/promo/observability"
	"github.com/xraph/promo/store"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "promo"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Quota-bounded voucher issuance"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts promo as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config    Config
	engine    *promo.Promo
	store     store.Store
	promoOpts []promo.Option

	// useGrove resolves the default grove.DB even when GroveDatabase is empty.
	useGrove bool
}

// New creates a new promo Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying promo engine.
// This is nil until Register is called.
func (e *Extension) Engine() *promo.Promo { return e.engine }

// Config returns the resolved configuration.
func (e *Extension) Config() Config { return e.config }

// Register implements [forge.Extension]. It loads configuration, resolves
// the store, builds the engine, registers it in the DI container and
// mounts the HTTP routes.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	s, err := e.resolveStore(context.Background(), fapp.Container())
	if err != nil {
		return err
	}
	e.store = s

	e.engine = promo.New(e.store, e.buildPromoOpts()...)

	if err := vessel.Provide(fapp.Container(), func() (*promo.Promo, error) {
		return e.engine, nil
	}); err != nil {
		return err
	}

	if !e.config.DisableRoutes {
		if err := e.mountRoutes(fapp.Router()); err != nil {
			return err
		}
	}

	return nil
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("promo: extension not initialized")
	}

	if !e.config.DisableMigrate {
		if err := e.engine.Start(ctx); err != nil {
			return err
		}
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("promo: store not initialized")
	}
	return e.store.Ping(ctx)
}

// buildPromoOpts constructs promo.Option values from the resolved config.
func (e *Extension) buildPromoOpts() []promo.Option {
	opts := make([]promo.Option, 0, len(e.promoOpts)+2)

	opts = append(opts, promo.WithMaxVouchersPerEvent(e.config.MaxVouchersPerEvent))

	if e.config.EnableMetrics {
		if m := e.Metrics(); m != nil {
			opts = append(opts, promo.WithPlugin(observability.NewMetricsExtension(m)))
		}
	}

	// Append any pass-through promo options.
	return append(opts, e.promoOpts...)
}

// mountRoutes mounts the HTTP surface on the app router.
func (e *Extension) mountRoutes(r forge.Router) error {
	handler := api.NewRouter(api.NewHandler(e.engine, slog.Default()), e.config.BasePath)

	if err := r.Handle(e.config.BasePath, handler); err != nil {
		return err
	}
	if err := r.Handle("/index", handler); err != nil {
		return err
	}

	e.Logger().Info("promo: routes mounted",
		forge.F("base_path", e.config.BasePath),
	)
	return nil
}

// --- Config Loading ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("promo: configuration is required but not found in config files; " +
				"ensure 'extensions.promo' or 'promo' key exists in your config")
		}
		e.config = MergeWithDefaults(programmaticConfig)
	} else {
		e.config = MergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("promo: configuration loaded",
		forge.F("disable_routes", e.config.DisableRoutes),
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("base_path", e.config.BasePath),
		forge.F("max_vouchers_per_event", e.config.MaxVouchersPerEvent),
		forge.F("grove_database", e.config.GroveDatabase),
		forge.F("driver", e.config.Driver),
		forge.F("enable_metrics", e.config.EnableMetrics),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()

	for _, key := range []string{"extensions.promo", "promo"} {
		if !cm.IsSet(key) {
			continue
		}
		var cfg Config
		if err := cm.Bind(key, &cfg); err != nil {
			e.Logger().Warn("promo: failed to bind config",
				forge.F("key", key),
				forge.F("error", err.Error()),
			)
			continue
		}
		e.Logger().Debug("promo: loaded config from file",
			forge.F("key", key),
		)
		return cfg, true
	}

	return Config{}, false
}
