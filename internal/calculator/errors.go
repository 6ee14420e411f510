package calculator

import "fmt"

// ErrorCode classifies calculator failures.
type ErrorCode string

const (
	// ErrorInvalidSplit means the split request itself is malformed: non-positive
	// amount, no participants, no positive ratio weight, and similar.
	ErrorInvalidSplit ErrorCode = "INVALID_SPLIT"
	// ErrorSplitMismatch means custom amounts do not add up to the expense amount.
	ErrorSplitMismatch ErrorCode = "SPLIT_MISMATCH"
	// ErrorImbalancedLedger means balances do not sum to zero, so some expense
	// upstream was persisted with splits that do not match its amount.
	ErrorImbalancedLedger ErrorCode = "IMBALANCED_LEDGER"
	// ErrorAmountOutOfRange means a balance is too large to settle in cents.
	ErrorAmountOutOfRange ErrorCode = "AMOUNT_OUT_OF_RANGE"
)

// DomainError is the error type returned by every calculator stage.
type DomainError struct {
	Code    ErrorCode
	Field   string
	Message string
}

// Error returns the formatted domain error string.
func (e DomainError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}

	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Field)
}

// Is matches any DomainError carrying the same code, so callers can write
// errors.Is(err, calculator.ErrInvalidSplit).
func (e DomainError) Is(target error) bool {
	t, ok := target.(DomainError)
	return ok && t.Code == e.Code
}

// Sentinels for errors.Is comparisons.
var (
	ErrInvalidSplit     = DomainError{Code: ErrorInvalidSplit, Message: "invalid split"}
	ErrSplitMismatch    = DomainError{Code: ErrorSplitMismatch, Message: "split does not add up"}
	ErrImbalancedLedger = DomainError{Code: ErrorImbalancedLedger, Message: "ledger is imbalanced"}
	ErrAmountOutOfRange = DomainError{Code: ErrorAmountOutOfRange, Message: "amount out of range"}
)

func newDomainError(code ErrorCode, field, message string) error {
	return DomainError{Code: code, Field: field, Message: message}
}
