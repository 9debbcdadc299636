package promo

import "github.com/xraph/promo/types"

// Re-export common types so callers don't have to import the types package.

// Entity is re-exported from types package.
type Entity = types.Entity

// Discount is re-exported from types package.
type Discount = types.Discount

// Re-export constructors
var (
	NewEntity  = types.NewEntity
	Percentage = types.Percentage
	Flat       = types.Flat
)
