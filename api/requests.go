package api

import (
	"github.com/xraph/promo/voucher"
)

type voucherRequest struct {
	Code       string   `json:"code" validate:"required"`
	Percent    *bool    `json:"percent"`
	Amount     *float64 `json:"amount" validate:"required"`
	ExpireDate string   `json:"expire_date"`
}

type issueRequest struct {
	EventID  string           `json:"event_id" validate:"required"`
	Vouchers []voucherRequest `json:"vouchers" validate:"required,min=1,dive"`
}

func (r *issueRequest) inputs() []voucher.Input {
	out := make([]voucher.Input, len(r.Vouchers))
	for i, v := range r.Vouchers {
		out[i] = voucher.Input{
			Code:       v.Code,
			Percent:    v.Percent,
			Amount:     *v.Amount,
			ExpireDate: v.ExpireDate,
		}
	}
	return out
}

type createClientRequest struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Address string `json:"address" validate:"required"`
}

type updateClientRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type clientQuery struct {
	UID string `json:"uid" validate:"required"`
}

// UpdateResult reports how many clients an update matched and changed.
type UpdateResult struct {
	Matched  int `json:"matched"`
	Modified int `json:"modified"`
}
