package audithook_test

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"

	audithook "github.com/xraph/promo/audit_hook"

	"github.com/xraph/promo"
	"github.com/xraph/promo/store/memory"
	"github.com/xraph/promo/voucher"
)

type captured struct {
	mu     sync.Mutex
	events []*audithook.AuditEvent
}

func (c *captured) recorder() audithook.RecorderFunc {
	return func(_ context.Context, evt *audithook.AuditEvent) error {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.events = append(c.events, evt)
		return nil
	}
}

func (c *captured) actions() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.events))
	for i, e := range c.events {
		out[i] = e.Action
	}
	return out
}

func (c *captured) find(action string) *audithook.AuditEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.events {
		if e.Action == action {
			return e
		}
	}
	return nil
}

func engine(t *testing.T, ext *audithook.Extension) *promo.Promo {
	t.Helper()
	p := promo.New(memory.New(),
		promo.WithPlugin(ext),
		promo.WithMaxVouchersPerEvent(1),
	)
	if err := p.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = p.Stop() })
	return p
}

func TestAuditTrail(t *testing.T) {
	ctx := context.Background()
	rec := &captured{}
	p := engine(t, audithook.New(rec.recorder()))

	if _, err := p.IssueVouchers(ctx, "E1", []voucher.Input{{Code: "A1", Amount: 10}}); err != nil {
		t.Fatal(err)
	}
	if _, err := p.IssueVouchers(ctx, "E1", []voucher.Input{{Code: "A2", Amount: 10}}); !promo.IsQuotaError(err) {
		t.Fatalf("expected quota error, got %v", err)
	}
	c, err := p.CreateClient(ctx, "Ada", "ada@example.com", "London")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.DeleteClient(ctx, c.UID); err != nil {
		t.Fatal(err)
	}

	want := []string{
		audithook.ActionVouchersIssued,
		audithook.ActionQuotaExceeded,
		audithook.ActionIssueFailed,
		audithook.ActionClientCreated,
		audithook.ActionClientDeleted,
	}
	if got := rec.actions(); !slices.Equal(got, want) {
		t.Fatalf("actions: got %v, want %v", got, want)
	}

	issued := rec.find(audithook.ActionVouchersIssued)
	if issued.ResourceID != "E1" || issued.Outcome != audithook.OutcomeSuccess {
		t.Errorf("unexpected issued event %+v", issued)
	}
	if codes, _ := issued.Metadata["codes"].([]string); !slices.Equal(codes, []string{"A1"}) {
		t.Errorf("issued codes: got %v", issued.Metadata["codes"])
	}

	quota := rec.find(audithook.ActionQuotaExceeded)
	if quota.Metadata["count"] != 2 || quota.Metadata["limit"] != 1 {
		t.Errorf("quota metadata: %v", quota.Metadata)
	}

	failed := rec.find(audithook.ActionIssueFailed)
	if failed.Severity != audithook.SeverityWarning || failed.Reason == "" {
		t.Errorf("unexpected failed event %+v", failed)
	}

	created := rec.find(audithook.ActionClientCreated)
	if created.ResourceID != c.UID.String() {
		t.Errorf("client resource id: got %q, want %q", created.ResourceID, c.UID.String())
	}
}

func TestActionFilters(t *testing.T) {
	tests := []struct {
		name string
		opts []audithook.Option
		want []string
	}{
		{
			name: "Enabled only",
			opts: []audithook.Option{audithook.WithEnabledActions(audithook.ActionClientCreated)},
			want: []string{audithook.ActionClientCreated},
		},
		{
			name: "Disabled",
			opts: []audithook.Option{audithook.WithDisabledActions(audithook.ActionVouchersIssued)},
			want: []string{audithook.ActionClientCreated},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			rec := &captured{}
			p := engine(t, audithook.New(rec.recorder(), tt.opts...))

			if _, err := p.IssueVouchers(ctx, "E1", []voucher.Input{{Code: "A1"}}); err != nil {
				t.Fatal(err)
			}
			if _, err := p.CreateClient(ctx, "Ada", "ada@example.com", ""); err != nil {
				t.Fatal(err)
			}
			if got := rec.actions(); !slices.Equal(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRecorderFailureIsSwallowed(t *testing.T) {
	ext := audithook.New(audithook.RecorderFunc(func(context.Context, *audithook.AuditEvent) error {
		return errors.New("backend down")
	}))
	p := engine(t, ext)

	if _, err := p.IssueVouchers(context.Background(), "E1", []voucher.Input{{Code: "A1"}}); err != nil {
		t.Fatalf("recorder failure leaked into issuance: %v", err)
	}
}
