// Package storetest runs the store.Store behaviour every backend must share
// against a concrete backend. Backends call Run from their own tests.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/xraph/promo"
	"github.com/xraph/promo/store"
	"github.com/xraph/promo/voucher"
)

// Opener returns a fresh, unmigrated store. Stores over a shared database
// may keep earlier data: the suite namespaces every code and event id.
type Opener func(t *testing.T) store.Store

// Run exercises migration, issuance atomicity, the quota, code uniqueness
// and client CRUD against the store returned by open.
func Run(t *testing.T, open Opener) {
	t.Helper()

	tests := []struct {
		name string
		fn   func(t *testing.T, p *promo.Promo, s store.Store, ns func(string) string)
	}{
		{"Migrate is repeatable", testMigrate},
		{"Issue scenarios", testScenarios},
		{"Duplicate inside one batch", testDuplicateInBatch},
		{"Quota rollback leaves no vouchers", testQuotaRollback},
		{"Concurrent issuance keeps the quota", testConcurrent},
		{"Client lifecycle", testClients},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := open(t)
			p := promo.New(s)
			if err := p.Start(context.Background()); err != nil {
				t.Fatalf("start: %v", err)
			}
			t.Cleanup(func() { _ = p.Stop() })

			prefix := fmt.Sprintf("t%d-", time.Now().UnixNano())
			tt.fn(t, p, s, func(v string) string { return prefix + v })
		})
	}
}

func inputs(ns func(string) string, codes ...string) []voucher.Input {
	out := make([]voucher.Input, len(codes))
	for i, c := range codes {
		out[i] = voucher.Input{Code: ns(c), Amount: 10}
	}
	return out
}

func codeRange(prefix string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s%d", prefix, i)
	}
	return out
}

func testMigrate(t *testing.T, _ *promo.Promo, s store.Store, _ func(string) string) {
	ctx := context.Background()
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	if err := s.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func testScenarios(t *testing.T, p *promo.Promo, s store.Store, ns func(string) string) {
	ctx := context.Background()
	e1, e2 := ns("E1"), ns("E2")

	src, err := p.IssueVouchers(ctx, e1, inputs(ns, "A1"))
	if err != nil {
		t.Fatalf("E1 [A1]: %v", err)
	}
	if src.Len() != 1 || src.Vouchers[0] != ns("A1") {
		t.Fatalf("unexpected ledger %v", src.Vouchers)
	}

	_, err = p.IssueVouchers(ctx, e1, inputs(ns, codeRange("B", 10)...))
	var qe *promo.QuotaExceededError
	if !errors.As(err, &qe) || qe.Count != 11 {
		t.Fatalf("expected quota error with count 11, got %v", err)
	}

	src, err = s.GetSource(ctx, e1)
	if err != nil {
		t.Fatal(err)
	}
	if src.Len() != 1 {
		t.Errorf("ledger changed by rolled back call: %v", src.Vouchers)
	}

	_, err = p.IssueVouchers(ctx, e2, inputs(ns, "A1"))
	if !errors.Is(err, promo.ErrDuplicateCode) {
		t.Fatalf("expected ErrDuplicateCode, got %v", err)
	}
	if _, err := s.GetSource(ctx, e2); !errors.Is(err, promo.ErrSourceNotFound) {
		t.Errorf("expected no %s source, got %v", e2, err)
	}

	// Reads do not change state.
	first, _ := s.GetSource(ctx, e1)
	second, _ := s.GetSource(ctx, e1)
	if first.Len() != second.Len() {
		t.Error("repeated reads disagree")
	}
}

func testDuplicateInBatch(t *testing.T, p *promo.Promo, s store.Store, ns func(string) string) {
	ctx := context.Background()
	ev := ns("E1")

	_, err := p.IssueVouchers(ctx, ev, inputs(ns, "X1", "X2", "X1"))
	if !errors.Is(err, promo.ErrDuplicateCode) {
		t.Fatalf("expected ErrDuplicateCode, got %v", err)
	}
	if _, err := s.GetVoucher(ctx, ns("X2")); !errors.Is(err, promo.ErrVoucherNotFound) {
		t.Errorf("X2 survived a failed batch: %v", err)
	}
	if _, err := s.GetSource(ctx, ev); !errors.Is(err, promo.ErrSourceNotFound) {
		t.Errorf("expected no source, got %v", err)
	}
}

func testQuotaRollback(t *testing.T, p *promo.Promo, s store.Store, ns func(string) string) {
	ctx := context.Background()
	ev := ns("E1")

	if _, err := p.IssueVouchers(ctx, ev, inputs(ns, codeRange("A", 11)...)); !promo.IsQuotaError(err) {
		t.Fatalf("expected quota error, got %v", err)
	}

	vs, err := s.ListVouchers(ctx, voucher.ListOpts{EventID: ev})
	if err != nil {
		t.Fatal(err)
	}
	if len(vs) != 0 {
		t.Errorf("expected no vouchers after rollback, got %d", len(vs))
	}
	if _, err := s.GetSource(ctx, ev); !errors.Is(err, promo.ErrSourceNotFound) {
		t.Errorf("expected no source after rollback, got %v", err)
	}

	// Exactly the limit still fits.
	src, err := p.IssueVouchers(ctx, ev, inputs(ns, codeRange("A", 10)...))
	if err != nil {
		t.Fatal(err)
	}
	if src.Len() != promo.DefaultMaxVouchersPerEvent {
		t.Errorf("expected a full ledger, got %d", src.Len())
	}
}

// testConcurrent races single-code batches against one event whose source
// already exists. Backends that abort conflicting transactions report those
// as retryable.
func testConcurrent(t *testing.T, p *promo.Promo, s store.Store, ns func(string) string) {
	ctx := context.Background()
	ev := ns("E1")
	const n = 20

	if _, err := p.IssueVouchers(ctx, ev, inputs(ns, "seed")); err != nil {
		t.Fatal(err)
	}

	var (
		mu        sync.Mutex
		wg        sync.WaitGroup
		ok        = 1
		quota     int
		retryable int
	)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := p.IssueVouchers(ctx, ev, inputs(ns, fmt.Sprintf("C%d", i)))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case promo.IsQuotaError(err):
				quota++
			case promo.IsRetryable(err):
				retryable++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	limit := promo.DefaultMaxVouchersPerEvent
	if ok > limit {
		t.Fatalf("%d batches committed past a quota of %d", ok, limit)
	}
	if retryable == 0 && ok != limit {
		t.Errorf("expected %d commits, got %d (quota %d)", limit, ok, quota)
	}

	src, err := s.GetSource(ctx, ev)
	if err != nil {
		t.Fatal(err)
	}
	if src.Len() != ok {
		t.Errorf("ledger holds %d codes, %d batches committed", src.Len(), ok)
	}
	vs, err := s.ListVouchers(ctx, voucher.ListOpts{EventID: ev})
	if err != nil {
		t.Fatal(err)
	}
	if len(vs) != ok {
		t.Errorf("voucher store holds %d, ledger %d", len(vs), ok)
	}
}

func testClients(t *testing.T, p *promo.Promo, _ store.Store, _ func(string) string) {
	ctx := context.Background()

	c, err := p.CreateClient(ctx, "Ada", "ada@example.com", "London")
	if err != nil {
		t.Fatal(err)
	}

	got, err := p.GetClient(ctx, c.UID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Email != c.Email || got.Role != c.Role {
		t.Errorf("round trip mismatch: %+v", got)
	}

	modified, err := p.UpdateClientEmail(ctx, c.UID, "ada@example.org")
	if err != nil || !modified {
		t.Fatalf("update: modified=%v err=%v", modified, err)
	}
	modified, err = p.UpdateClientEmail(ctx, c.UID, "ada@example.org")
	if err != nil || modified {
		t.Fatalf("no-op update: modified=%v err=%v", modified, err)
	}

	deleted, err := p.DeleteClient(ctx, c.UID)
	if err != nil || deleted.UID.String() != c.UID.String() {
		t.Fatalf("delete: %v %v", deleted, err)
	}
	if _, err := p.DeleteClient(ctx, c.UID); !errors.Is(err, promo.ErrClientNotFound) {
		t.Errorf("second delete: %v", err)
	}
	if _, err := p.UpdateClientEmail(ctx, c.UID, "x@example.com"); !errors.Is(err, promo.ErrClientNotFound) {
		t.Errorf("update after delete: %v", err)
	}
}
