package types

import (
	"testing"
	"time"
)

func TestDiscountApply(t *testing.T) {
	tests := []struct {
		name     string
		discount Discount
		price    float64
		want     float64
	}{
		{"Percent", Percentage(10), 200, 180},
		{"Percent over 100 caps at free", Percentage(150), 80, 0},
		{"Flat", Flat(5), 20, 15},
		{"Flat larger than price", Flat(50), 20, 0},
		{"Zero discount", Flat(0), 20, 20},
		{"Negative amount ignored", Flat(-5), 20, 20},
		{"Zero price", Percentage(50), 0, 0},
		{"Fractional percent", Percentage(12.5), 80, 70},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.discount.Apply(tt.price); got != tt.want {
				t.Errorf("Apply(%v): got %v, want %v", tt.price, got, tt.want)
			}
		})
	}
}

func TestDiscountString(t *testing.T) {
	tests := []struct {
		discount Discount
		want     string
	}{
		{Percentage(15), "15%"},
		{Percentage(12.5), "12.5%"},
		{Flat(5), "5"},
		{Flat(0.25), "0.25"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.discount.String(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDiscountIsZero(t *testing.T) {
	if !Flat(0).IsZero() {
		t.Error("Flat(0) should be zero")
	}
	if Percentage(1).IsZero() {
		t.Error("Percentage(1) should not be zero")
	}
}

func TestEntityTimestamps(t *testing.T) {
	e := NewEntity()
	if e.CreatedAt.IsZero() || !e.CreatedAt.Equal(e.UpdatedAt) {
		t.Fatalf("expected equal non-zero timestamps, got %v / %v", e.CreatedAt, e.UpdatedAt)
	}
	if e.CreatedAt.Location() != time.UTC {
		t.Errorf("expected UTC, got %v", e.CreatedAt.Location())
	}

	before := e.UpdatedAt
	time.Sleep(time.Millisecond)
	e.Touch()
	if !e.UpdatedAt.After(before) {
		t.Error("Touch should advance UpdatedAt")
	}
	if e.Age() < e.LastModified() {
		t.Error("Age should be at least LastModified")
	}
}
