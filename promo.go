package promo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/xraph/promo/client"
	"github.com/xraph/promo/id"
	"github.com/xraph/promo/plugin"
	"github.com/xraph/promo/source"
	"github.com/xraph/promo/store"
	"github.com/xraph/promo/voucher"
)

// DefaultMaxVouchersPerEvent is the number of vouchers a single event may
// hold across all issuance calls.
const DefaultMaxVouchersPerEvent = 10

// Promo is the voucher issuance engine.
type Promo struct {
	store   store.Store
	plugins *plugin.Registry
	logger  *slog.Logger

	maxVouchersPerEvent int
}

// New creates a new Promo instance.
func New(s store.Store, opts ...Option) *Promo {
	p := &Promo{
		store:               s,
		plugins:             plugin.NewRegistry(),
		logger:              slog.Default(),
		maxVouchersPerEvent: DefaultMaxVouchersPerEvent,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Option configures a Promo instance.
type Option func(*Promo)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Promo) {
		p.logger = logger
		p.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(pl plugin.Plugin) Option {
	return func(p *Promo) {
		_ = p.plugins.Register(pl) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithMaxVouchersPerEvent overrides the per-event quota. Values below one
// are ignored.
func WithMaxVouchersPerEvent(n int) Option {
	return func(p *Promo) {
		if n > 0 {
			p.maxVouchersPerEvent = n
		}
	}
}

// Store returns the underlying store.
func (p *Promo) Store() store.Store { return p.store }

// Plugins returns the plugin registry.
func (p *Promo) Plugins() *plugin.Registry { return p.plugins }

// MaxVouchersPerEvent returns the configured per-event quota.
func (p *Promo) MaxVouchersPerEvent() int { return p.maxVouchersPerEvent }

// Start migrates the store and initializes plugins.
func (p *Promo) Start(ctx context.Context) error {
	if err := p.store.Migrate(ctx); err != nil {
		return err
	}

	p.plugins.EmitInit(ctx, p)

	p.logger.Info("promo started",
		"max_vouchers_per_event", p.maxVouchersPerEvent,
		"plugins", p.plugins.Count(),
	)

	return nil
}

// Stop shuts down plugins and closes the store.
func (p *Promo) Stop() error {
	p.plugins.EmitShutdown(context.Background())
	return p.store.Close()
}

// ──────────────────────────────────────────────────
// Voucher issuance
// ──────────────────────────────────────────────────

// IssueVouchers creates every voucher in inputs for eventID and appends
// their codes to the event's source, as one transaction. Either all codes
// are issued or none are.
//
// The call fails with a ValidationError before touching the store when the
// input is malformed, with ErrDuplicateCode when any code already exists,
// and with a *QuotaExceededError when the event would end up holding more
// than the configured quota.
func (p *Promo) IssueVouchers(ctx context.Context, eventID string, inputs []voucher.Input) (*source.Source, error) {
	if err := validateIssue(eventID, inputs); err != nil {
		return nil, err
	}

	issued := make([]*voucher.Voucher, len(inputs))
	for i, in := range inputs {
		issued[i] = voucher.New(eventID, in)
	}

	var src *source.Source
	err := p.store.WithTx(ctx, func(ctx context.Context) error {
		if err := p.store.InsertVouchers(ctx, issued); err != nil {
			return err
		}

		updated, err := p.store.AppendCodes(ctx, eventID, voucher.Codes(issued))
		if err != nil {
			return err
		}

		if updated.Exceeds(p.maxVouchersPerEvent) {
			return &QuotaExceededError{
				EventID: eventID,
				Count:   updated.Len(),
				Limit:   p.maxVouchersPerEvent,
			}
		}

		src = updated
		return nil
	})
	if err != nil {
		p.issueFailed(ctx, eventID, len(inputs), err)
		return nil, err
	}

	p.plugins.EmitVouchersIssued(ctx, src, issued)

	p.logger.Debug("vouchers issued",
		"event_id", eventID,
		"issued", len(issued),
		"total", src.Len(),
	)

	return src, nil
}

func (p *Promo) issueFailed(ctx context.Context, eventID string, requested int, err error) {
	var qe *QuotaExceededError
	if errors.As(err, &qe) {
		p.plugins.EmitQuotaExceeded(ctx, eventID, qe.Count, qe.Limit)
	}
	p.plugins.EmitIssueFailed(ctx, eventID, requested, err)

	p.logger.Warn("voucher issuance rolled back",
		"event_id", eventID,
		"requested", requested,
		"error", err,
	)
}

func validateIssue(eventID string, inputs []voucher.Input) error {
	if strings.TrimSpace(eventID) == "" {
		return ValidationError{Field: "event_id", Message: "is required"}
	}
	if len(inputs) == 0 {
		return ValidationError{Field: "vouchers", Message: "must contain at least one voucher"}
	}

	var errs MultiError
	for i, in := range inputs {
		if strings.TrimSpace(in.Code) == "" {
			errs.Add(ValidationError{Field: fmt.Sprintf("vouchers[%d].code", i), Message: "is required"})
		}
		if math.IsNaN(in.Amount) || math.IsInf(in.Amount, 0) {
			errs.Add(ValidationError{Field: fmt.Sprintf("vouchers[%d].amount", i), Message: "must be a number"})
		}
	}
	return errs.First()
}

// GetVoucher returns the voucher with the given code.
func (p *Promo) GetVoucher(ctx context.Context, code string) (*voucher.Voucher, error) {
	return p.store.GetVoucher(ctx, code)
}

// ListVouchers returns issued vouchers in insertion order.
func (p *Promo) ListVouchers(ctx context.Context, opts voucher.ListOpts) ([]*voucher.Voucher, error) {
	return p.store.ListVouchers(ctx, opts)
}

// GetSource returns the voucher source of an event.
func (p *Promo) GetSource(ctx context.Context, eventID string) (*source.Source, error) {
	return p.store.GetSource(ctx, eventID)
}

// ListSources returns all voucher sources.
func (p *Promo) ListSources(ctx context.Context, opts source.ListOpts) ([]*source.Source, error) {
	return p.store.ListSources(ctx, opts)
}

// ──────────────────────────────────────────────────
// Client management
// ──────────────────────────────────────────────────

// CreateClient stores a new client with a freshly generated uid.
func (p *Promo) CreateClient(ctx context.Context, name, email, address string) (*client.Client, error) {
	c := client.New(name, email, address)
	if err := p.store.CreateClient(ctx, c); err != nil {
		return nil, err
	}

	p.plugins.EmitClientCreated(ctx, c)
	return c, nil
}

// GetClient retrieves a client by uid.
func (p *Promo) GetClient(ctx context.Context, uid id.ClientID) (*client.Client, error) {
	return p.store.GetClient(ctx, uid)
}

// ListClients returns all clients.
func (p *Promo) ListClients(ctx context.Context, opts client.ListOpts) ([]*client.Client, error) {
	return p.store.ListClients(ctx, opts)
}

// UpdateClientEmail changes the email of a client. It reports whether the
// stored value changed.
func (p *Promo) UpdateClientEmail(ctx context.Context, uid id.ClientID, email string) (bool, error) {
	modified, err := p.store.UpdateClientEmail(ctx, uid, email)
	if err != nil {
		return false, err
	}

	if modified {
		p.plugins.EmitClientUpdated(ctx, uid, email)
	}
	return modified, nil
}

// DeleteClient removes a client and returns it.
func (p *Promo) DeleteClient(ctx context.Context, uid id.ClientID) (*client.Client, error) {
	c, err := p.store.DeleteClient(ctx, uid)
	if err != nil {
		return nil, err
	}

	p.plugins.EmitClientDeleted(ctx, c)
	return c, nil
}
