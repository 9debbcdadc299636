// Package plugin provides the hook system for promo. A plugin implements
// Plugin plus any of the hook interfaces below; the Registry discovers the
// hooks at registration time and dispatches to them.
package plugin

import (
	"context"

	"github.com/xraph/promo/client"
	"github.com/xraph/promo/id"
	"github.com/xraph/promo/source"
	"github.com/xraph/promo/voucher"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the engine starts. engine is the *promo.Promo.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, engine any) error
}

// OnShutdown is called when the engine stops.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Issuance hooks
// ──────────────────────────────────────────────────

// OnVouchersIssued is called after an issuance transaction commits.
type OnVouchersIssued interface {
	Plugin
	OnVouchersIssued(ctx context.Context, src *source.Source, issued []*voucher.Voucher) error
}

// OnIssueFailed is called when an issuance transaction is rejected or
// rolled back, whatever the cause.
type OnIssueFailed interface {
	Plugin
	OnIssueFailed(ctx context.Context, eventID string, requested int, err error) error
}

// OnQuotaExceeded is called when an issuance would take an event past its
// quota. count is the ledger length the rejected batch would have produced.
type OnQuotaExceeded interface {
	Plugin
	OnQuotaExceeded(ctx context.Context, eventID string, count, limit int) error
}

// ──────────────────────────────────────────────────
// Client hooks
// ──────────────────────────────────────────────────

// OnClientCreated is called after a client is stored.
type OnClientCreated interface {
	Plugin
	OnClientCreated(ctx context.Context, c *client.Client) error
}

// OnClientUpdated is called after a client's email changes.
type OnClientUpdated interface {
	Plugin
	OnClientUpdated(ctx context.Context, uid id.ClientID, email string) error
}

// OnClientDeleted is called after a client is removed.
type OnClientDeleted interface {
	Plugin
	OnClientDeleted(ctx context.Context, c *client.Client) error
}
