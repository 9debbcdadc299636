// Package observability provides a metrics plugin for promo that records
// issuance and client lifecycle counts via go-utils MetricFactory.
package observability

import (
	"context"
	"errors"

	"github.com/xraph/go-utils/metrics"

	"github.com/xraph/promo"
	"github.com/xraph/promo/client"
	"github.com/xraph/promo/id"
	"github.com/xraph/promo/plugin"
	"github.com/xraph/promo/source"
	"github.com/xraph/promo/voucher"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin           = (*MetricsExtension)(nil)
	_ plugin.OnInit           = (*MetricsExtension)(nil)
	_ plugin.OnVouchersIssued = (*MetricsExtension)(nil)
	_ plugin.OnIssueFailed    = (*MetricsExtension)(nil)
	_ plugin.OnQuotaExceeded  = (*MetricsExtension)(nil)
	_ plugin.OnClientCreated  = (*MetricsExtension)(nil)
	_ plugin.OnClientUpdated  = (*MetricsExtension)(nil)
	_ plugin.OnClientDeleted  = (*MetricsExtension)(nil)
)

// MetricsExtension records system-wide lifecycle metrics.
// Register it as a promo plugin to track issuance and client activity.
type MetricsExtension struct {
	// Issuance metrics
	BatchesIssued  metrics.Counter
	VouchersIssued metrics.Counter
	BatchSize      metrics.Histogram
	SourceFill     metrics.Histogram
	IssueFailed    metrics.Counter
	DuplicateCodes metrics.Counter
	QuotaExceeded  metrics.Counter

	// Client metrics
	ClientsCreated metrics.Counter
	ClientsUpdated metrics.Counter
	ClientsDeleted metrics.Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use app.Metrics() in forge extensions.
func NewMetricsExtension(factory metrics.MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		BatchesIssued:  factory.Counter("promo.issue.batches", metrics.WithDescription("committed issuance transactions")),
		VouchersIssued: factory.Counter("promo.issue.vouchers", metrics.WithDescription("vouchers created")),
		BatchSize:      factory.Histogram("promo.issue.batch_size", metrics.WithBuckets(1, 2, 5, 10, 25, 50)),
		SourceFill:     factory.Histogram("promo.source.codes", metrics.WithBuckets(1, 2, 5, 10, 25, 50)),
		IssueFailed:    factory.Counter("promo.issue.failed"),
		DuplicateCodes: factory.Counter("promo.issue.duplicate"),
		QuotaExceeded:  factory.Counter("promo.issue.quota_exceeded"),

		ClientsCreated: factory.Counter("promo.client.created"),
		ClientsUpdated: factory.Counter("promo.client.updated"),
		ClientsDeleted: factory.Counter("promo.client.deleted"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ any) error {
	return nil
}

// ──────────────────────────────────────────────────
// Issuance hooks
// ──────────────────────────────────────────────────

// OnVouchersIssued implements plugin.OnVouchersIssued.
func (m *MetricsExtension) OnVouchersIssued(_ context.Context, src *source.Source, issued []*voucher.Voucher) error {
	n := float64(len(issued))
	m.BatchesIssued.Inc()
	m.VouchersIssued.Add(n)
	m.BatchSize.Observe(n)
	if src != nil {
		m.SourceFill.Observe(float64(src.Len()))
	}
	return nil
}

// OnIssueFailed implements plugin.OnIssueFailed. Quota rejections are
// counted by OnQuotaExceeded as well.
func (m *MetricsExtension) OnIssueFailed(_ context.Context, _ string, _ int, err error) error {
	m.IssueFailed.Inc()
	if errors.Is(err, promo.ErrDuplicateCode) {
		m.DuplicateCodes.Inc()
	}
	return nil
}

// OnQuotaExceeded implements plugin.OnQuotaExceeded.
func (m *MetricsExtension) OnQuotaExceeded(_ context.Context, _ string, _, _ int) error {
	m.QuotaExceeded.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Client hooks
// ──────────────────────────────────────────────────

// OnClientCreated implements plugin.OnClientCreated.
func (m *MetricsExtension) OnClientCreated(_ context.Context, _ *client.Client) error {
	m.ClientsCreated.Inc()
	return nil
}

// OnClientUpdated implements plugin.OnClientUpdated.
func (m *MetricsExtension) OnClientUpdated(_ context.Context, _ id.ClientID, _ string) error {
	m.ClientsUpdated.Inc()
	return nil
}

// OnClientDeleted implements plugin.OnClientDeleted.
func (m *MetricsExtension) OnClientDeleted(_ context.Context, _ *client.Client) error {
	m.ClientsDeleted.Inc()
	return nil
}
