package api

import (
	"errors"
	"net/http"

	"github.com/xraph/go-utils/errs"

	"github.com/xraph/promo"
)

// StatusQuotaExceeded is the non-standard status returned when an issuance
// would take an event past its voucher quota.
const StatusQuotaExceeded = 456

// Fixed response messages.
const (
	MsgOK             = "OK"
	// MsgQuotaExceeded is sent with StatusQuotaExceeded unchanged whatever
	// limit promo.WithMaxVouchersPerEvent sets.
	MsgQuotaExceeded  = "Exceed the limit of 10"
	MsgClientNotFound = "Could not find client by given uid"
	MsgClientNoUpdate = "Could not update client by given uid"
)

// messageError is an HTTP error whose body is the bare message string.
type messageError struct {
	code int
	msg  string
}

func (e *messageError) Error() string { return e.msg }
func (e *messageError) StatusCode() int { return e.code }
func (e *messageError) ResponseBody() any { return e.msg }

// ValidationFailure is the body written for a rejected request: the first
// failing field.
type ValidationFailure struct {
	Message string `json:"message"`
	Path    string `json:"path"`
	Type    string `json:"type"`
}

func (v *ValidationFailure) Error() string { return v.Message }
func (v *ValidationFailure) StatusCode() int { return http.StatusBadRequest }
func (v *ValidationFailure) ResponseBody() any { return v }

var (
	_ errs.HTTPError = (*messageError)(nil)
	_ errs.HTTPError = (*ValidationFailure)(nil)
)

// issueError maps an issuance failure onto its response.
func issueError(err error) errs.HTTPError {
	var ve promo.ValidationError
	if errors.As(err, &ve) {
		return &ValidationFailure{
			Message: "\"" + ve.Field + "\" " + ve.Message,
			Path:    ve.Field,
			Type:    "invalid",
		}
	}
	if errors.Is(err, promo.ErrQuotaExceeded) {
		return &messageError{code: StatusQuotaExceeded, msg: MsgQuotaExceeded}
	}
	// Duplicates and everything else carry the underlying message.
	return &messageError{code: http.StatusBadRequest, msg: err.Error()}
}
