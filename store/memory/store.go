// Package memory provides an in-process store. Transactions work on a
// private copy of the data set that replaces the committed one on success,
// so concurrent readers never observe a half-applied transaction.
package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/xraph/promo"
	"github.com/xraph/promo/client"
	"github.com/xraph/promo/id"
	"github.com/xraph/promo/source"
	"github.com/xraph/promo/store"
	"github.com/xraph/promo/voucher"
)

var _ store.Store = (*Store)(nil)

type Store struct {
	// mu guards committed and closed.
	mu        sync.RWMutex
	committed *dataset
	closed    bool

	// txMu admits one writer at a time.
	txMu sync.Mutex
}

func New() *Store {
	return &Store{committed: newDataset()}
}

type txKey struct{}

// WithTx runs fn against a working copy of the data set and publishes the
// copy when fn succeeds. Nested calls join the outer transaction.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*dataset); ok {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return promo.ErrStoreClosed
	}
	work := s.committed.clone()
	s.mu.RUnlock()

	if err := fn(context.WithValue(ctx, txKey{}, work)); err != nil {
		return err
	}

	s.mu.Lock()
	s.committed = work
	s.mu.Unlock()
	return nil
}

// read runs fn against the transaction's working copy when ctx carries one,
// or against the committed data set otherwise.
func (s *Store) read(ctx context.Context, fn func(d *dataset) error) error {
	if d, ok := ctx.Value(txKey{}).(*dataset); ok {
		return fn(d)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return promo.ErrStoreClosed
	}
	return fn(s.committed)
}

// write runs fn inside the caller's transaction, or in a transaction of
// its own.
func (s *Store) write(ctx context.Context, fn func(d *dataset) error) error {
	return s.WithTx(ctx, func(ctx context.Context) error {
		d, _ := ctx.Value(txKey{}).(*dataset) //nolint:errcheck // always set by WithTx
		return fn(d)
	})
}

// Voucher Store implementation
func (s *Store) InsertVouchers(ctx context.Context, vs []*voucher.Voucher) error {
	return s.write(ctx, func(d *dataset) error {
		batch := make(map[string]bool, len(vs))
		for _, v := range vs {
			if _, exists := d.voucherIdx[v.Code]; exists || batch[v.Code] {
				return duplicateCode(v.Code)
			}
			batch[v.Code] = true
		}
		for _, v := range vs {
			c := *v
			d.voucherIdx[v.Code] = len(d.vouchers)
			d.vouchers = append(d.vouchers, &c)
		}
		return nil
	})
}

func (s *Store) GetVoucher(ctx context.Context, code string) (*voucher.Voucher, error) {
	var out *voucher.Voucher
	err := s.read(ctx, func(d *dataset) error {
		i, ok := d.voucherIdx[code]
		if !ok {
			return promo.ErrVoucherNotFound
		}
		c := *d.vouchers[i]
		out = &c
		return nil
	})
	return out, err
}

func (s *Store) ListVouchers(ctx context.Context, opts voucher.ListOpts) ([]*voucher.Voucher, error) {
	result := make([]*voucher.Voucher, 0)
	err := s.read(ctx, func(d *dataset) error {
		for _, v := range d.vouchers {
			if opts.EventID == "" || v.EventID == opts.EventID {
				c := *v
				result = append(result, &c)
			}
		}
		return nil
	})
	return page(result, opts.Offset, opts.Limit), err
}

// Source Store implementation
func (s *Store) AppendCodes(ctx context.Context, eventID string, codes []string) (*source.Source, error) {
	var out *source.Source
	err := s.write(ctx, func(d *dataset) error {
		src, ok := d.sources[eventID]
		if !ok {
			src = source.New(eventID)
			d.sources[eventID] = src
			d.sourceOrder = append(d.sourceOrder, eventID)
		}
		src.Append(codes...)
		out = src.Clone()
		return nil
	})
	return out, err
}

func (s *Store) GetSource(ctx context.Context, eventID string) (*source.Source, error) {
	var out *source.Source
	err := s.read(ctx, func(d *dataset) error {
		src, ok := d.sources[eventID]
		if !ok {
			return promo.ErrSourceNotFound
		}
		out = src.Clone()
		return nil
	})
	return out, err
}

func (s *Store) ListSources(ctx context.Context, opts source.ListOpts) ([]*source.Source, error) {
	result := make([]*source.Source, 0)
	err := s.read(ctx, func(d *dataset) error {
		for _, eventID := range d.sourceOrder {
			result = append(result, d.sources[eventID].Clone())
		}
		return nil
	})
	return page(result, opts.Offset, opts.Limit), err
}

// Client Store implementation
func (s *Store) CreateClient(ctx context.Context, c *client.Client) error {
	return s.write(ctx, func(d *dataset) error {
		uid := c.UID.String()
		if _, exists := d.clients[uid]; exists {
			return promo.ValidationError{Field: "uid", Message: "already exists"}
		}
		cp := *c
		d.clients[uid] = &cp
		d.clientOrder = append(d.clientOrder, uid)
		return nil
	})
}

func (s *Store) GetClient(ctx context.Context, uid id.ClientID) (*client.Client, error) {
	var out *client.Client
	err := s.read(ctx, func(d *dataset) error {
		c, ok := d.clients[uid.String()]
		if !ok {
			return promo.ErrClientNotFound
		}
		cp := *c
		out = &cp
		return nil
	})
	return out, err
}

func (s *Store) ListClients(ctx context.Context, opts client.ListOpts) ([]*client.Client, error) {
	result := make([]*client.Client, 0)
	err := s.read(ctx, func(d *dataset) error {
		for _, uid := range d.clientOrder {
			c := d.clients[uid]
			if opts.Role == "" || c.Role == opts.Role {
				cp := *c
				result = append(result, &cp)
			}
		}
		return nil
	})
	return page(result, opts.Offset, opts.Limit), err
}

func (s *Store) UpdateClientEmail(ctx context.Context, uid id.ClientID, email string) (bool, error) {
	var modified bool
	err := s.write(ctx, func(d *dataset) error {
		c, ok := d.clients[uid.String()]
		if !ok {
			return promo.ErrClientNotFound
		}
		if c.Email == email {
			return nil
		}
		cp := *c
		cp.Email = email
		cp.Touch()
		d.clients[uid.String()] = &cp
		modified = true
		return nil
	})
	return modified, err
}

func (s *Store) DeleteClient(ctx context.Context, uid id.ClientID) (*client.Client, error) {
	var out *client.Client
	err := s.write(ctx, func(d *dataset) error {
		key := uid.String()
		c, ok := d.clients[key]
		if !ok {
			return promo.ErrClientNotFound
		}
		delete(d.clients, key)
		d.clientOrder = slices.DeleteFunc(d.clientOrder, func(k string) bool { return k == key })
		out = c
		return nil
	})
	return out, err
}

// Store management
func (s *Store) Migrate(_ context.Context) error {
	return nil // No migration needed for memory store
}

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return promo.ErrStoreClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// dataset is one consistent version of everything the store holds.
// Vouchers are never modified after insert and are shared between
// versions; sources and clients are copied on write.
type dataset struct {
	vouchers   []*voucher.Voucher
	voucherIdx map[string]int

	sources     map[string]*source.Source
	sourceOrder []string

	clients     map[string]*client.Client
	clientOrder []string
}

func newDataset() *dataset {
	return &dataset{
		voucherIdx: make(map[string]int),
		sources:    make(map[string]*source.Source),
		clients:    make(map[string]*client.Client),
	}
}

func (d *dataset) clone() *dataset {
	c := &dataset{
		vouchers:    slices.Clone(d.vouchers),
		voucherIdx:  maps.Clone(d.voucherIdx),
		sources:     make(map[string]*source.Source, len(d.sources)),
		sourceOrder: slices.Clone(d.sourceOrder),
		clients:     maps.Clone(d.clients),
		clientOrder: slices.Clone(d.clientOrder),
	}
	for k, src := range d.sources {
		c.sources[k] = src.Clone()
	}
	return c
}

// Helper functions
func duplicateCode(code string) error {
	return fmt.Errorf("%w: code %q already exists", promo.ErrDuplicateCode, code)
}

func page[T any](items []T, offset, limit int) []T {
	start := min(max(offset, 0), len(items))
	end := len(items)
	if limit > 0 && start+limit < end {
		end = start + limit
	}
	return items[start:end]
}
