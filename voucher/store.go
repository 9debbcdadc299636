package voucher

import "context"

// Store persists vouchers.
type Store interface {
	// InsertVouchers writes the batch atomically. A code that already exists
	// anywhere fails the whole batch with promo.ErrDuplicateCode.
	InsertVouchers(ctx context.Context, vs []*Voucher) error
	GetVoucher(ctx context.Context, code string) (*Voucher, error)
	ListVouchers(ctx context.Context, opts ListOpts) ([]*Voucher, error)
}

// ListOpts filters and pages ListVouchers. Zero values mean "all".
type ListOpts struct {
	EventID string
	Limit   int
	Offset  int
}
