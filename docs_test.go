package promo_test

import (
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/xraph/promo"
	"github.com/xraph/promo/store/memory"
	"github.com/xraph/promo/voucher"
)

// TestDocumentationExamples keeps the package documentation honest.
func TestDocumentationExamples(t *testing.T) {
	t.Run("QuickStartExample", func(t *testing.T) {
		ctx := context.Background()

		p := promo.New(memory.New(),
			promo.WithLogger(slog.Default()),
		)
		if err := p.Start(ctx); err != nil {
			t.Fatal(err)
		}
		defer p.Stop()

		src, err := p.IssueVouchers(ctx, "spring-sale", []voucher.Input{
			{Code: "SPRING10", Amount: 10},
		})
		if err != nil {
			t.Fatal(err)
		}
		if src.Remaining(p.MaxVouchersPerEvent()) != promo.DefaultMaxVouchersPerEvent-1 {
			t.Errorf("unexpected remaining quota for %v", src.Vouchers)
		}

		_, err = p.IssueVouchers(ctx, "summer-sale", []voucher.Input{
			{Code: "SPRING10", Amount: 10},
		})
		if !promo.IsDuplicate(err) {
			t.Errorf("expected duplicate, got %v", err)
		}
	})
}

func ExamplePromo_IssueVouchers() {
	ctx := context.Background()
	p := promo.New(memory.New(), promo.WithMaxVouchersPerEvent(2))

	_, _ = p.IssueVouchers(ctx, "launch", []voucher.Input{{Code: "L1", Amount: 5}})
	_, err := p.IssueVouchers(ctx, "launch", []voucher.Input{
		{Code: "L2", Amount: 5},
		{Code: "L3", Amount: 5},
	})
	fmt.Println(promo.IsQuotaError(err))

	src, _ := p.GetSource(ctx, "launch")
	fmt.Println(src.Vouchers)
	// Output:
	// true
	// [L1]
}
