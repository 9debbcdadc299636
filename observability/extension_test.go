package observability_test

import (
	"context"
	"sync"
	"testing"

	"github.com/xraph/go-utils/metrics"

	"github.com/xraph/promo"
	"github.com/xraph/promo/observability"
	"github.com/xraph/promo/store/memory"
	"github.com/xraph/promo/voucher"
)

// recordingFactory hands out one mock per metric name so tests can read them back.
type recordingFactory struct {
	*metrics.MockMetrics

	mu         sync.Mutex
	counters   map[string]*metrics.MockCounter
	histograms map[string]*metrics.MockHistogram
}

func newRecordingFactory() *recordingFactory {
	f := &recordingFactory{
		MockMetrics: metrics.NewMockMetrics(),
		counters:    make(map[string]*metrics.MockCounter),
		histograms:  make(map[string]*metrics.MockHistogram),
	}
	f.CounterFunc = func(name string, _ ...metrics.MetricOption) metrics.Counter {
		f.mu.Lock()
		defer f.mu.Unlock()
		c := metrics.NewMockCounter()
		f.counters[name] = c
		return c
	}
	f.HistogramFunc = func(name string, _ ...metrics.MetricOption) metrics.Histogram {
		f.mu.Lock()
		defer f.mu.Unlock()
		h := metrics.NewMockHistogram()
		f.histograms[name] = h
		return h
	}
	return f
}

func (f *recordingFactory) counter(t *testing.T, name string) float64 {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.counters[name]
	if !ok {
		t.Fatalf("counter %q was never created", name)
	}
	return c.Value()
}

func TestMetricsExtensionCounts(t *testing.T) {
	ctx := context.Background()
	factory := newRecordingFactory()
	ext := observability.NewMetricsExtension(factory)

	p := promo.New(memory.New(),
		promo.WithPlugin(ext),
		promo.WithMaxVouchersPerEvent(3),
	)
	if err := p.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer func() { _ = p.Stop() }()

	in := func(codes ...string) []voucher.Input {
		out := make([]voucher.Input, len(codes))
		for i, c := range codes {
			out[i] = voucher.Input{Code: c, Amount: 5}
		}
		return out
	}

	if _, err := p.IssueVouchers(ctx, "E1", in("A1", "A2")); err != nil {
		t.Fatal(err)
	}
	if _, err := p.IssueVouchers(ctx, "E1", in("A3", "A4")); !promo.IsQuotaError(err) {
		t.Fatalf("expected quota error, got %v", err)
	}
	if _, err := p.IssueVouchers(ctx, "E2", in("A1")); err == nil {
		t.Fatal("expected duplicate error")
	}

	c, err := p.CreateClient(ctx, "Ada", "ada@example.com", "London")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.UpdateClientEmail(ctx, c.UID, "ada@example.org"); err != nil {
		t.Fatal(err)
	}
	if _, err := p.DeleteClient(ctx, c.UID); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		want float64
	}{
		{"promo.issue.batches", 1},
		{"promo.issue.vouchers", 2},
		{"promo.issue.failed", 2},
		{"promo.issue.duplicate", 1},
		{"promo.issue.quota_exceeded", 1},
		{"promo.client.created", 1},
		{"promo.client.updated", 1},
		{"promo.client.deleted", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := factory.counter(t, tt.name); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}

	factory.mu.Lock()
	defer factory.mu.Unlock()
	if h := factory.histograms["promo.issue.batch_size"]; h.Count() != 1 || h.Sum() != 2 {
		t.Errorf("batch_size: count=%d sum=%v, want 1/2", h.Count(), h.Sum())
	}
}

func TestMetricsExtensionName(t *testing.T) {
	ext := observability.NewMetricsExtension(metrics.NewMockMetrics())
	if ext.Name() != "observability-metrics" {
		t.Errorf("unexpected name %q", ext.Name())
	}
}
