// Package audithook bridges promo lifecycle events to an audit trail backend.
//
// It defines a local Recorder interface so the package stays free of any
// particular audit backend. Callers inject a RecorderFunc adapter at wiring
// time.
package audithook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/xraph/promo"
	"github.com/xraph/promo/client"
	"github.com/xraph/promo/id"
	"github.com/xraph/promo/plugin"
	"github.com/xraph/promo/source"
	"github.com/xraph/promo/voucher"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin           = (*Extension)(nil)
	_ plugin.OnVouchersIssued = (*Extension)(nil)
	_ plugin.OnIssueFailed    = (*Extension)(nil)
	_ plugin.OnQuotaExceeded  = (*Extension)(nil)
	_ plugin.OnClientCreated  = (*Extension)(nil)
	_ plugin.OnClientUpdated  = (*Extension)(nil)
	_ plugin.OnClientDeleted  = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a single audit trail entry.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges promo lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Issuance hooks
// ──────────────────────────────────────────────────

// OnVouchersIssued implements plugin.OnVouchersIssued.
func (e *Extension) OnVouchersIssued(ctx context.Context, src *source.Source, issued []*voucher.Voucher) error {
	return e.record(ctx, ActionVouchersIssued, SeverityInfo, OutcomeSuccess,
		ResourceVoucherSource, src.EventID, CategoryIssuance, nil,
		"event_id", src.EventID,
		"codes", voucher.Codes(issued),
		"total", src.Len(),
	)
}

// OnIssueFailed implements plugin.OnIssueFailed. Duplicates are warnings;
// anything that is neither a duplicate nor a quota rejection is an error.
func (e *Extension) OnIssueFailed(ctx context.Context, eventID string, requested int, err error) error {
	severity := SeverityError
	switch {
	case errors.Is(err, promo.ErrDuplicateCode), promo.IsQuotaError(err):
		severity = SeverityWarning
	}
	return e.record(ctx, ActionIssueFailed, severity, OutcomeFailure,
		ResourceVoucherSource, eventID, CategoryIssuance, err,
		"event_id", eventID,
		"requested", requested,
	)
}

// OnQuotaExceeded implements plugin.OnQuotaExceeded.
func (e *Extension) OnQuotaExceeded(ctx context.Context, eventID string, count, limit int) error {
	return e.record(ctx, ActionQuotaExceeded, SeverityWarning, OutcomeFailure,
		ResourceVoucherSource, eventID, CategoryAccess, nil,
		"event_id", eventID,
		"count", count,
		"limit", limit,
	)
}

// ──────────────────────────────────────────────────
// Client hooks
// ──────────────────────────────────────────────────

// OnClientCreated implements plugin.OnClientCreated.
func (e *Extension) OnClientCreated(ctx context.Context, c *client.Client) error {
	return e.record(ctx, ActionClientCreated, SeverityInfo, OutcomeSuccess,
		ResourceClient, c.UID.String(), CategoryAccount, nil,
		"role", c.Role,
	)
}

// OnClientUpdated implements plugin.OnClientUpdated.
func (e *Extension) OnClientUpdated(ctx context.Context, uid id.ClientID, _ string) error {
	return e.record(ctx, ActionClientUpdated, SeverityInfo, OutcomeSuccess,
		ResourceClient, uid.String(), CategoryAccount, nil,
		"field", "email",
	)
}

// OnClientDeleted implements plugin.OnClientDeleted.
func (e *Extension) OnClientDeleted(ctx context.Context, c *client.Client) error {
	return e.record(ctx, ActionClientDeleted, SeverityWarning, OutcomeSuccess,
		ResourceClient, c.UID.String(), CategoryAccount, nil,
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
// Recorder failures are logged, never returned.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = reason
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
