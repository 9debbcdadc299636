package postgres

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/promo/client"
	"github.com/xraph/promo/id"
	"github.com/xraph/promo/source"
	"github.com/xraph/promo/types"
	"github.com/xraph/promo/voucher"
)

// ==================== Voucher models ====================

type voucherModel struct {
	grove.BaseModel `grove:"table:promo_vouchers"`

	ID         string    `grove:"id,pk"`
	Code       string    `grove:"code"`
	EventID    string    `grove:"event_id"`
	Percent    bool      `grove:"percent"`
	Amount     float64   `grove:"amount"`
	ExpireDate string    `grove:"expire_date"`
	IsActive   bool      `grove:"is_active"`
	CreatedAt  time.Time `grove:"created_at"`
	UpdatedAt  time.Time `grove:"updated_at"`
}

func toVoucherModel(v *voucher.Voucher) voucherModel {
	return voucherModel{
		ID:         v.ID.String(),
		Code:       v.Code,
		EventID:    v.EventID,
		Percent:    v.Percent,
		Amount:     v.Amount,
		ExpireDate: v.ExpireDate,
		IsActive:   v.IsActive,
		CreatedAt:  v.CreatedAt,
		UpdatedAt:  v.UpdatedAt,
	}
}

func fromVoucherModel(m *voucherModel) (*voucher.Voucher, error) {
	vid, err := id.ParseVoucherID(m.ID)
	if err != nil {
		return nil, err
	}
	return &voucher.Voucher{
		Entity:     types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:         vid,
		Code:       m.Code,
		EventID:    m.EventID,
		Percent:    m.Percent,
		Amount:     m.Amount,
		ExpireDate: m.ExpireDate,
		IsActive:   m.IsActive,
	}, nil
}

// ==================== Source models ====================

type sourceModel struct {
	grove.BaseModel `grove:"table:promo_voucher_sources"`

	ID        string    `grove:"id,pk"`
	EventID   string    `grove:"event_id"`
	Vouchers  []string  `grove:"vouchers,type:text[]"`
	CreatedAt time.Time `grove:"created_at"`
	UpdatedAt time.Time `grove:"updated_at"`
}

func fromSourceModel(m *sourceModel) (*source.Source, error) {
	sid, err := id.ParseSourceID(m.ID)
	if err != nil {
		return nil, err
	}
	codes := m.Vouchers
	if codes == nil {
		codes = []string{}
	}
	return &source.Source{
		Entity:   types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:       sid,
		EventID:  m.EventID,
		Vouchers: codes,
	}, nil
}

// ==================== Client models ====================

type clientModel struct {
	grove.BaseModel `grove:"table:promo_clients"`

	UID       string    `grove:"uid,pk"`
	Name      string    `grove:"name"`
	Email     string    `grove:"email"`
	Address   string    `grove:"address"`
	Role      string    `grove:"role"`
	CreatedAt time.Time `grove:"created_at"`
	UpdatedAt time.Time `grove:"updated_at"`
}

func toClientModel(c *client.Client) *clientModel {
	return &clientModel{
		UID:       c.UID.String(),
		Name:      c.Name,
		Email:     c.Email,
		Address:   c.Address,
		Role:      c.Role,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func fromClientModel(m *clientModel) (*client.Client, error) {
	uid, err := id.ParseClientID(m.UID)
	if err != nil {
		return nil, err
	}
	return &client.Client{
		Entity:  types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		UID:     uid,
		Name:    m.Name,
		Email:   m.Email,
		Address: m.Address,
		Role:    m.Role,
	}, nil
}
