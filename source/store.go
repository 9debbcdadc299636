package source

import "context"

// Store persists voucher sources.
type Store interface {
	// AppendCodes appends codes to the source for eventID, creating it if it
	// does not exist, and returns the source as updated.
	AppendCodes(ctx context.Context, eventID string, codes []string) (*Source, error)
	GetSource(ctx context.Context, eventID string) (*Source, error)
	ListSources(ctx context.Context, opts ListOpts) ([]*Source, error)
}

// ListOpts pages ListSources.
type ListOpts struct {
	Limit  int
	Offset int
}
