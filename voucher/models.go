// Package voucher defines issued voucher codes and their storage contract.
package voucher

import (
	"time"

	"github.com/xraph/promo/id"
	"github.com/xraph/promo/types"
)

// Voucher is a single discount code tied to one event.
type Voucher struct {
	types.Entity
	ID         id.VoucherID `json:"id"`
	Code       string       `json:"code"`
	EventID    string       `json:"event_id"`
	Percent    bool         `json:"percent"`
	Amount     float64      `json:"amount"`
	ExpireDate string       `json:"expire_date"`
	IsActive   bool         `json:"is_active"`
}

// Input is one requested voucher in an issuance batch.
// A nil Percent means "not given" and takes the default (true).
type Input struct {
	Code       string  `json:"code"`
	Percent    *bool   `json:"percent,omitempty"`
	Amount     float64 `json:"amount"`
	ExpireDate string  `json:"expire_date,omitempty"`
}

// New builds a voucher for eventID from in, applying defaults.
func New(eventID string, in Input) *Voucher {
	percent := true
	if in.Percent != nil {
		percent = *in.Percent
	}

	return &Voucher{
		Entity:     types.NewEntity(),
		ID:         id.NewVoucherID(),
		Code:       in.Code,
		EventID:    eventID,
		Percent:    percent,
		Amount:     in.Amount,
		ExpireDate: in.ExpireDate,
		IsActive:   true,
	}
}

// Discount returns the discount terms of the voucher.
func (v *Voucher) Discount() types.Discount {
	return types.Discount{Percent: v.Percent, Amount: v.Amount}
}

// Expiry date layouts accepted in ExpireDate.
var expiryLayouts = []string{time.RFC3339, time.DateTime, time.DateOnly}

// ExpiresAt parses ExpireDate. ok is false when the voucher has no expiry or
// the date is not in a recognised layout.
func (v *Voucher) ExpiresAt() (t time.Time, ok bool) {
	if v.ExpireDate == "" {
		return time.Time{}, false
	}
	for _, layout := range expiryLayouts {
		if parsed, err := time.Parse(layout, v.ExpireDate); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// Expired reports whether the voucher has a parseable expiry before now.
func (v *Voucher) Expired(now time.Time) bool {
	t, ok := v.ExpiresAt()
	return ok && now.After(t)
}

// Codes returns the codes of vs in order.
func Codes(vs []*Voucher) []string {
	codes := make([]string, len(vs))
	for i, v := range vs {
		codes[i] = v.Code
	}
	return codes
}
