package client

import (
	"context"

	"github.com/xraph/promo/id"
)

// Store persists clients.
type Store interface {
	CreateClient(ctx context.Context, c *Client) error
	GetClient(ctx context.Context, uid id.ClientID) (*Client, error)
	ListClients(ctx context.Context, opts ListOpts) ([]*Client, error)
	// UpdateClientEmail sets the email of the client. modified is false when
	// the client already had that email.
	UpdateClientEmail(ctx context.Context, uid id.ClientID, email string) (modified bool, err error)
	// DeleteClient removes the client and returns it as it was.
	DeleteClient(ctx context.Context, uid id.ClientID) (*Client, error)
}

// ListOpts filters and pages ListClients.
type ListOpts struct {
	Role   string
	Limit  int
	Offset int
}
