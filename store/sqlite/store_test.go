package sqlite_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"

	"github.com/xraph/promo"
	"github.com/xraph/promo/store"
	"github.com/xraph/promo/store/sqlite"
	"github.com/xraph/promo/store/storetest"
	"github.com/xraph/promo/voucher"
)

func open(t *testing.T) *sqlite.Store {
	t.Helper()
	ctx := context.Background()

	drv := sqlitedriver.New()
	if err := drv.Open(ctx, filepath.Join(t.TempDir(), "promo.db")); err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db, err := grove.Open(drv)
	if err != nil {
		t.Fatalf("grove open: %v", err)
	}
	return sqlite.New(db)
}

func migrated(t *testing.T) *sqlite.Store {
	t.Helper()
	s := open(t)
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return open(t) })
}

func TestInsertVouchersDuplicate(t *testing.T) {
	ctx := context.Background()
	s := migrated(t)

	in := []*voucher.Voucher{voucher.New("E1", voucher.Input{Code: "A1", Amount: 5})}
	if err := s.InsertVouchers(ctx, in); err != nil {
		t.Fatal(err)
	}

	again := []*voucher.Voucher{voucher.New("E2", voucher.Input{Code: "A1", Amount: 5})}
	if err := s.InsertVouchers(ctx, again); !errors.Is(err, promo.ErrDuplicateCode) {
		t.Fatalf("expected ErrDuplicateCode, got %v", err)
	}
}

func TestWithTxRollback(t *testing.T) {
	ctx := context.Background()
	s := migrated(t)
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(ctx context.Context) error {
		vs := []*voucher.Voucher{voucher.New("E1", voucher.Input{Code: "R1", Amount: 5})}
		if err := s.InsertVouchers(ctx, vs); err != nil {
			return err
		}
		if _, err := s.AppendCodes(ctx, "E1", []string{"R1"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fn error back, got %v", err)
	}

	if _, err := s.GetVoucher(ctx, "R1"); !errors.Is(err, promo.ErrVoucherNotFound) {
		t.Errorf("voucher survived rollback: %v", err)
	}
	if _, err := s.GetSource(ctx, "E1"); !errors.Is(err, promo.ErrSourceNotFound) {
		t.Errorf("source survived rollback: %v", err)
	}
}

func TestAppendCodesKeepsOrder(t *testing.T) {
	ctx := context.Background()
	s := migrated(t)

	if _, err := s.AppendCodes(ctx, "E1", []string{"A", "B"}); err != nil {
		t.Fatal(err)
	}
	src, err := s.AppendCodes(ctx, "E1", []string{"C"})
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"A", "B", "C"}
	if len(src.Vouchers) != len(want) {
		t.Fatalf("expected %v, got %v", want, src.Vouchers)
	}
	for i := range want {
		if src.Vouchers[i] != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], src.Vouchers[i])
		}
	}
}
