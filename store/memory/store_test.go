package memory_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/xraph/promo"
	"github.com/xraph/promo/client"
	"github.com/xraph/promo/store"
	"github.com/xraph/promo/store/memory"
	"github.com/xraph/promo/store/storetest"
	"github.com/xraph/promo/voucher"
)

func vouchers(eventID string, codes ...string) []*voucher.Voucher {
	out := make([]*voucher.Voucher, len(codes))
	for i, code := range codes {
		out[i] = voucher.New(eventID, voucher.Input{Code: code, Amount: 10})
	}
	return out
}

func TestStore(t *testing.T) {
	storetest.Run(t, func(*testing.T) store.Store { return memory.New() })
}

func TestWithTxCommit(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	err := s.WithTx(ctx, func(ctx context.Context) error {
		if err := s.InsertVouchers(ctx, vouchers("E1", "A1", "A2")); err != nil {
			return err
		}
		_, err := s.AppendCodes(ctx, "E1", []string{"A1", "A2"})
		return err
	})
	if err != nil {
		t.Fatalf("WithTx: %v", err)
	}

	src, err := s.GetSource(ctx, "E1")
	if err != nil {
		t.Fatalf("GetSource: %v", err)
	}
	if src.Len() != 2 {
		t.Errorf("expected 2 codes, got %v", src.Vouchers)
	}
	if _, err := s.GetVoucher(ctx, "A2"); err != nil {
		t.Errorf("GetVoucher: %v", err)
	}
}

func TestWithTxRollback(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(ctx context.Context) error {
		if err := s.InsertVouchers(ctx, vouchers("E1", "A1")); err != nil {
			return err
		}
		if _, err := s.AppendCodes(ctx, "E1", []string{"A1"}); err != nil {
			return err
		}

		// The transaction sees its own writes.
		if _, err := s.GetVoucher(ctx, "A1"); err != nil {
			t.Errorf("in-tx GetVoucher: %v", err)
		}
		// Outside readers do not.
		if _, err := s.GetVoucher(context.Background(), "A1"); !errors.Is(err, promo.ErrVoucherNotFound) {
			t.Errorf("uncommitted voucher visible outside tx: %v", err)
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fn error to be returned, got %v", err)
	}

	if _, err := s.GetSource(ctx, "E1"); !errors.Is(err, promo.ErrSourceNotFound) {
		t.Errorf("expected no source after rollback, got %v", err)
	}
	all, _ := s.ListVouchers(ctx, voucher.ListOpts{})
	if len(all) != 0 {
		t.Errorf("expected no vouchers after rollback, got %d", len(all))
	}
}

func TestInsertVouchersDuplicate(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		existing []string
		batch    []string
	}{
		{"Already stored", []string{"A1"}, []string{"B1", "A1"}},
		{"Within batch", nil, []string{"C1", "C1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := memory.New()
			if len(tt.existing) > 0 {
				if err := s.InsertVouchers(ctx, vouchers("E1", tt.existing...)); err != nil {
					t.Fatal(err)
				}
			}

			err := s.InsertVouchers(ctx, vouchers("E2", tt.batch...))
			if !errors.Is(err, promo.ErrDuplicateCode) {
				t.Fatalf("expected ErrDuplicateCode, got %v", err)
			}

			all, _ := s.ListVouchers(ctx, voucher.ListOpts{})
			if len(all) != len(tt.existing) {
				t.Errorf("batch partially inserted: %d vouchers stored", len(all))
			}
		})
	}
}

func TestListVouchersFilterAndPage(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	_ = s.InsertVouchers(ctx, vouchers("E1", "A1", "A2", "A3"))
	_ = s.InsertVouchers(ctx, vouchers("E2", "B1"))

	got, err := s.ListVouchers(ctx, voucher.ListOpts{EventID: "E1", Offset: 1, Limit: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Code != "A2" {
		t.Errorf("unexpected page: %+v", voucher.Codes(got))
	}

	got, _ = s.ListVouchers(ctx, voucher.ListOpts{Offset: 10})
	if len(got) != 0 {
		t.Errorf("expected empty page past the end, got %d", len(got))
	}
}

func TestClientCRUD(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	c := client.New("Ann", "ann@example.com", "1 Main St")
	if err := s.CreateClient(ctx, c); err != nil {
		t.Fatal(err)
	}

	modified, err := s.UpdateClientEmail(ctx, c.UID, "ann@example.org")
	if err != nil || !modified {
		t.Fatalf("UpdateClientEmail: modified=%v err=%v", modified, err)
	}
	modified, _ = s.UpdateClientEmail(ctx, c.UID, "ann@example.org")
	if modified {
		t.Error("same email should not count as modified")
	}

	got, err := s.GetClient(ctx, c.UID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Email != "ann@example.org" {
		t.Errorf("email not updated: %q", got.Email)
	}
	if c.Email != "ann@example.com" {
		t.Error("caller's value was mutated by the store")
	}

	deleted, err := s.DeleteClient(ctx, c.UID)
	if err != nil || deleted.UID != c.UID {
		t.Fatalf("DeleteClient: %v", err)
	}
	if _, err := s.DeleteClient(ctx, c.UID); !errors.Is(err, promo.ErrClientNotFound) {
		t.Errorf("expected ErrClientNotFound, got %v", err)
	}
	if list, _ := s.ListClients(ctx, client.ListOpts{}); len(list) != 0 {
		t.Errorf("expected no clients, got %d", len(list))
	}
}

func TestConcurrentAppend(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	const writers = 50
	var wg sync.WaitGroup
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			code := string(rune('a'+i%26)) + string(rune('A'+i/26))
			_, _ = s.AppendCodes(ctx, "E1", []string{code})
		}()
	}
	wg.Wait()

	src, err := s.GetSource(ctx, "E1")
	if err != nil {
		t.Fatal(err)
	}
	if src.Len() != writers {
		t.Errorf("lost appends: %d of %d", src.Len(), writers)
	}
}

func TestClosed(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	_ = s.Close()

	if err := s.Ping(ctx); !errors.Is(err, promo.ErrStoreClosed) {
		t.Errorf("Ping: expected ErrStoreClosed, got %v", err)
	}
	if err := s.InsertVouchers(ctx, vouchers("E1", "A1")); !errors.Is(err, promo.ErrStoreClosed) {
		t.Errorf("InsertVouchers: expected ErrStoreClosed, got %v", err)
	}
}
