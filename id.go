package promo

import "github.com/xraph/promo/id"

// ID is the primary identifier type for all promo entities.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix
