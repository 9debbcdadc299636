package promo

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure scenarios.
var (
	// General errors
	ErrInvalidInput = errors.New("promo: invalid input")

	// Issuance errors
	ErrDuplicateCode = errors.New("promo: duplicate voucher code")
	ErrQuotaExceeded = errors.New("promo: voucher quota exceeded")

	// Lookup errors
	ErrVoucherNotFound = errors.New("promo: voucher not found")
	ErrSourceNotFound  = errors.New("promo: voucher source not found")
	ErrClientNotFound  = errors.New("promo: client not found")

	// Store errors
	ErrStoreClosed       = errors.New("promo: store is closed")
	ErrTransactionFailed = errors.New("promo: transaction failed")
)

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("promo: validation failed for %s: %s", e.Field, e.Message)
}

// Unwrap lets errors.Is match ErrInvalidInput.
func (e ValidationError) Unwrap() error { return ErrInvalidInput }

// QuotaExceededError reports an issuance that would take an event past its
// quota. Count is the ledger length the batch would have produced.
type QuotaExceededError struct {
	EventID string
	Count   int
	Limit   int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("promo: event %q would hold %d vouchers, limit is %d", e.EventID, e.Count, e.Limit)
}

func (e *QuotaExceededError) Unwrap() error { return ErrQuotaExceeded }

// MultiError represents multiple errors that occurred.
type MultiError struct {
	Errors []error
}

func (e MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "promo: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("promo: %d errors occurred", len(e.Errors))
}

// Unwrap exposes every collected error to errors.Is and errors.As.
func (e MultiError) Unwrap() []error { return e.Errors }

// Add adds an error to the multi-error.
func (e *MultiError) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors returns true if there are any errors.
func (e MultiError) HasErrors() bool {
	return len(e.Errors) > 0
}

// First returns the first error or nil.
func (e MultiError) First() error {
	if len(e.Errors) > 0 {
		return e.Errors[0]
	}
	return nil
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrVoucherNotFound) ||
		errors.Is(err, ErrSourceNotFound) ||
		errors.Is(err, ErrClientNotFound)
}

// IsQuotaError returns true if the error is a quota rejection.
func IsQuotaError(err error) bool {
	return errors.Is(err, ErrQuotaExceeded)
}

// IsDuplicate returns true if the error is a voucher code collision.
func IsDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicateCode)
}

// IsRetryable returns true if the error is transient and the caller may
// retry the whole operation. The engine itself never retries.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransactionFailed)
}
