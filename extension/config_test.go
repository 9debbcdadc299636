package extension_test

import (
	"testing"

	"github.com/xraph/promo/extension"
)

func TestMergeWithDefaults(t *testing.T) {
	got := extension.MergeWithDefaults(extension.Config{})
	if got.BasePath != "/api" || got.MaxVouchersPerEvent != 10 {
		t.Errorf("unexpected defaults %+v", got)
	}

	got = extension.MergeWithDefaults(extension.Config{BasePath: "/v1", MaxVouchersPerEvent: 3})
	if got.BasePath != "/v1" || got.MaxVouchersPerEvent != 3 {
		t.Errorf("explicit values overwritten: %+v", got)
	}
}

func TestMergeConfigurations(t *testing.T) {
	tests := []struct {
		name    string
		yaml    extension.Config
		program extension.Config
		want    extension.Config
	}{
		{
			name:    "YAML wins for strings and ints",
			yaml:    extension.Config{BasePath: "/yaml", MaxVouchersPerEvent: 5, Driver: "sqlite", DSN: "file:a.db"},
			program: extension.Config{BasePath: "/code", MaxVouchersPerEvent: 7, Driver: "postgres", DSN: "postgres://x"},
			want:    extension.Config{BasePath: "/yaml", MaxVouchersPerEvent: 5, Driver: "sqlite", DSN: "file:a.db"},
		},
		{
			name:    "Programmatic fills gaps",
			yaml:    extension.Config{},
			program: extension.Config{BasePath: "/code", MaxVouchersPerEvent: 7, GroveDatabase: "main", Driver: "mongo", DSN: "mongodb://h/db"},
			want:    extension.Config{BasePath: "/code", MaxVouchersPerEvent: 7, GroveDatabase: "main", Driver: "mongo", DSN: "mongodb://h/db"},
		},
		{
			name:    "Programmatic flags override",
			yaml:    extension.Config{},
			program: extension.Config{DisableRoutes: true, DisableMigrate: true, EnableMetrics: true},
			want:    extension.Config{DisableRoutes: true, DisableMigrate: true, EnableMetrics: true, BasePath: "/api", MaxVouchersPerEvent: 10},
		},
		{
			name:    "YAML flags kept",
			yaml:    extension.Config{DisableRoutes: true},
			program: extension.Config{},
			want:    extension.Config{DisableRoutes: true, BasePath: "/api", MaxVouchersPerEvent: 10},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extension.MergeConfigurations(tt.yaml, tt.program); got != tt.want {
				t.Errorf("got %+v\nwant %+v", got, tt.want)
			}
		})
	}
}

func TestOptions(t *testing.T) {
	e := extension.New(
		extension.WithBasePath("/promo"),
		extension.WithMaxVouchersPerEvent(4),
		extension.WithDisableRoutes(),
		extension.WithMetrics(),
		extension.WithDriver("sqlite", "file::memory:"),
		extension.WithGroveDatabase("main"),
	)

	cfg := e.Config()
	if cfg.BasePath != "/promo" || cfg.MaxVouchersPerEvent != 4 || !cfg.DisableRoutes || !cfg.EnableMetrics {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.Driver != "sqlite" || cfg.DSN != "file::memory:" || cfg.GroveDatabase != "main" {
		t.Errorf("unexpected store config %+v", cfg)
	}
	if e.Name() != extension.ExtensionName {
		t.Errorf("name: got %q", e.Name())
	}
	if e.Engine() != nil {
		t.Error("engine should be nil before Register")
	}
}
