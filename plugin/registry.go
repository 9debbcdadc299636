package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/promo/client"
	"github.com/xraph/promo/id"
	"github.com/xraph/promo/source"
	"github.com/xraph/promo/voucher"
)

// DefaultHookTimeout bounds how long a single hook may run.
const DefaultHookTimeout = 5 * time.Second

// Registry manages all registered plugins and dispatches hooks to them.
// Hook implementations are discovered once, at registration.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger
	timeout time.Duration

	onInit           []OnInit
	onShutdown       []OnShutdown
	onVouchersIssued []OnVouchersIssued
	onIssueFailed    []OnIssueFailed
	onQuotaExceeded  []OnQuotaExceeded
	onClientCreated  []OnClientCreated
	onClientUpdated  []OnClientUpdated
	onClientDeleted  []OnClientDeleted
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:  slog.Default(),
		timeout: DefaultHookTimeout,
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// WithTimeout sets the per-hook timeout.
func (r *Registry) WithTimeout(d time.Duration) *Registry {
	r.timeout = d
	return r
}

// Register adds a plugin to the registry and caches its hooks.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	var hooks []string
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
		hooks = append(hooks, "OnInit")
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
		hooks = append(hooks, "OnShutdown")
	}
	if v, ok := p.(OnVouchersIssued); ok {
		r.onVouchersIssued = append(r.onVouchersIssued, v)
		hooks = append(hooks, "OnVouchersIssued")
	}
	if v, ok := p.(OnIssueFailed); ok {
		r.onIssueFailed = append(r.onIssueFailed, v)
		hooks = append(hooks, "OnIssueFailed")
	}
	if v, ok := p.(OnQuotaExceeded); ok {
		r.onQuotaExceeded = append(r.onQuotaExceeded, v)
		hooks = append(hooks, "OnQuotaExceeded")
	}
	if v, ok := p.(OnClientCreated); ok {
		r.onClientCreated = append(r.onClientCreated, v)
		hooks = append(hooks, "OnClientCreated")
	}
	if v, ok := p.(OnClientUpdated); ok {
		r.onClientUpdated = append(r.onClientUpdated, v)
		hooks = append(hooks, "OnClientUpdated")
	}
	if v, ok := p.(OnClientDeleted); ok {
		r.onClientDeleted = append(r.onClientDeleted, v)
		hooks = append(hooks, "OnClientDeleted")
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"hooks", hooks,
	)

	return nil
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit on every plugin that implements it.
func (r *Registry) EmitInit(ctx context.Context, engine any) {
	emit(ctx, r, "OnInit", snapshotOf(r, func() []OnInit { return r.onInit }), func(p OnInit) error {
		return p.OnInit(ctx, engine)
	})
}

// EmitShutdown calls OnShutdown on every plugin that implements it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	emit(ctx, r, "OnShutdown", snapshotOf(r, func() []OnShutdown { return r.onShutdown }), func(p OnShutdown) error {
		return p.OnShutdown(ctx)
	})
}

// EmitVouchersIssued emits a committed issuance.
func (r *Registry) EmitVouchersIssued(ctx context.Context, src *source.Source, issued []*voucher.Voucher) {
	emit(ctx, r, "OnVouchersIssued", snapshotOf(r, func() []OnVouchersIssued { return r.onVouchersIssued }), func(p OnVouchersIssued) error {
		return p.OnVouchersIssued(ctx, src, issued)
	})
}

// EmitIssueFailed emits a failed issuance.
func (r *Registry) EmitIssueFailed(ctx context.Context, eventID string, requested int, err error) {
	emit(ctx, r, "OnIssueFailed", snapshotOf(r, func() []OnIssueFailed { return r.onIssueFailed }), func(p OnIssueFailed) error {
		return p.OnIssueFailed(ctx, eventID, requested, err)
	})
}

// EmitQuotaExceeded emits a quota rejection.
func (r *Registry) EmitQuotaExceeded(ctx context.Context, eventID string, count, limit int) {
	emit(ctx, r, "OnQuotaExceeded", snapshotOf(r, func() []OnQuotaExceeded { return r.onQuotaExceeded }), func(p OnQuotaExceeded) error {
		return p.OnQuotaExceeded(ctx, eventID, count, limit)
	})
}

// EmitClientCreated emits a client creation.
func (r *Registry) EmitClientCreated(ctx context.Context, c *client.Client) {
	emit(ctx, r, "OnClientCreated", snapshotOf(r, func() []OnClientCreated { return r.onClientCreated }), func(p OnClientCreated) error {
		return p.OnClientCreated(ctx, c)
	})
}

// EmitClientUpdated emits a client email change.
func (r *Registry) EmitClientUpdated(ctx context.Context, uid id.ClientID, email string) {
	emit(ctx, r, "OnClientUpdated", snapshotOf(r, func() []OnClientUpdated { return r.onClientUpdated }), func(p OnClientUpdated) error {
		return p.OnClientUpdated(ctx, uid, email)
	})
}

// EmitClientDeleted emits a client deletion.
func (r *Registry) EmitClientDeleted(ctx context.Context, c *client.Client) {
	emit(ctx, r, "OnClientDeleted", snapshotOf(r, func() []OnClientDeleted { return r.onClientDeleted }), func(p OnClientDeleted) error {
		return p.OnClientDeleted(ctx, c)
	})
}

// snapshotOf reads a hook list under the read lock.
func snapshotOf[T any](r *Registry, get func() []T) []T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return get()
}

// emit calls fn for every hook, logging failures. A failing hook never
// affects the caller.
func emit[T Plugin](ctx context.Context, r *Registry, hook string, hooks []T, fn func(T) error) {
	for _, p := range hooks {
		if err := r.callWithTimeout(ctx, p.Name(), func() error { return fn(p) }); err != nil {
			r.logger.Warn("plugin "+hook+" failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins must never block issuance.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(r.timeout):
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
