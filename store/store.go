package store

import (
	"context"

	"github.com/xraph/promo/client"
	"github.com/xraph/promo/id"
	"github.com/xraph/promo/source"
	"github.com/xraph/promo/voucher"
)

// Store is the unified storage interface for all promo entities.
// Methods are declared explicitly rather than by embedding the entity
// store interfaces so each backend's surface is visible in one place.
type Store interface {
	// WithTx runs fn inside a single transaction. Store calls made with the
	// context passed to fn join that transaction. The transaction commits
	// when fn returns nil and rolls back otherwise; fn's error is returned
	// unchanged.
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error

	// Voucher methods
	InsertVouchers(ctx context.Context, vs []*voucher.Voucher) error
	GetVoucher(ctx context.Context, code string) (*voucher.Voucher, error)
	ListVouchers(ctx context.Context, opts voucher.ListOpts) ([]*voucher.Voucher, error)

	// Source methods
	AppendCodes(ctx context.Context, eventID string, codes []string) (*source.Source, error)
	GetSource(ctx context.Context, eventID string) (*source.Source, error)
	ListSources(ctx context.Context, opts source.ListOpts) ([]*source.Source, error)

	// Client methods
	CreateClient(ctx context.Context, c *client.Client) error
	GetClient(ctx context.Context, uid id.ClientID) (*client.Client, error)
	ListClients(ctx context.Context, opts client.ListOpts) ([]*client.Client, error)
	UpdateClientEmail(ctx context.Context, uid id.ClientID, email string) (bool, error)
	DeleteClient(ctx context.Context, uid id.ClientID) (*client.Client, error)

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

var (
	_ voucher.Store = Store(nil)
	_ source.Store  = Store(nil)
	_ client.Store  = Store(nil)
)
