// Package client defines client records.
package client

import (
	"github.com/xraph/promo/id"
	"github.com/xraph/promo/types"
)

// RoleUser is the role given to clients that do not specify one.
const RoleUser = "user"

// Client is a customer record addressed by its uid.
type Client struct {
	types.Entity
	UID     id.ClientID `json:"uid"`
	Name    string      `json:"name"`
	Email   string      `json:"email"`
	Address string      `json:"address"`
	Role    string      `json:"role"`
}

// New builds a client with a freshly minted uid and the default role.
// The uid is generated on every call.
func New(name, email, address string) *Client {
	return &Client{
		Entity:  types.NewEntity(),
		UID:     id.NewClientID(),
		Name:    name,
		Email:   email,
		Address: address,
		Role:    RoleUser,
	}
}
