package types

import (
	"math"
	"strconv"
)

// Discount describes what a voucher takes off a price.
//
// When Percent is true, Amount is a percentage of the price (10 = 10%).
// Otherwise Amount is a flat value in the same unit as the price.
//
// Examples:
//   - Percentage(15) takes 15% off
//   - Flat(5) takes 5 off
type Discount struct {
	Percent bool    `json:"percent"`
	Amount  float64 `json:"amount"`
}

// Percentage creates a percentage discount.
func Percentage(amount float64) Discount { return Discount{Percent: true, Amount: amount} }

// Flat creates a flat-value discount.
func Flat(amount float64) Discount { return Discount{Percent: false, Amount: amount} }

// IsZero returns true if the discount takes nothing off.
func (d Discount) IsZero() bool { return d.Amount == 0 }

// Off returns the amount taken off price. The result never exceeds price
// and is never negative.
func (d Discount) Off(price float64) float64 {
	if price <= 0 || d.Amount <= 0 {
		return 0
	}

	off := d.Amount
	if d.Percent {
		off = price * math.Min(d.Amount, 100) / 100
	}
	return math.Min(off, price)
}

// Apply returns price after the discount.
func (d Discount) Apply(price float64) float64 {
	return price - d.Off(price)
}

// String formats the discount for display ("15%" or "5").
func (d Discount) String() string {
	s := strconv.FormatFloat(d.Amount, 'f', -1, 64)
	if d.Percent {
		return s + "%"
	}
	return s
}
