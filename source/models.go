// Package source defines the per-event voucher source, the ledger that
// records every code issued for an event and caps how many there may be.
package source

import (
	"slices"

	"github.com/xraph/promo/id"
	"github.com/xraph/promo/types"
)

// Source is the quota ledger entry for one event.
type Source struct {
	types.Entity
	ID       id.SourceID `json:"id"`
	EventID  string      `json:"event_id"`
	Vouchers []string    `json:"vouchers"`
}

// New returns an empty source for eventID.
func New(eventID string) *Source {
	return &Source{
		Entity:   types.NewEntity(),
		ID:       id.NewSourceID(),
		EventID:  eventID,
		Vouchers: []string{},
	}
}

// Len returns the number of codes issued so far.
func (s *Source) Len() int { return len(s.Vouchers) }

// Exceeds reports whether the source holds more than limit codes.
func (s *Source) Exceeds(limit int) bool { return len(s.Vouchers) > limit }

// Remaining returns how many more codes fit under limit.
func (s *Source) Remaining(limit int) int { return max(0, limit-len(s.Vouchers)) }

// Has reports whether code was issued under this source.
func (s *Source) Has(code string) bool { return slices.Contains(s.Vouchers, code) }

// Append adds codes to the end of the ledger and touches the entity.
func (s *Source) Append(codes ...string) {
	s.Vouchers = append(s.Vouchers, codes...)
	s.Touch()
}

// Clone returns a deep copy of s.
func (s *Source) Clone() *Source {
	c := *s
	c.Vouchers = slices.Clone(s.Vouchers)
	return &c
}
