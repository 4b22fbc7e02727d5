package domain

import "errors"

var (
	// ErrJarNotFound is returned when a referenced jar doesn't exist
	ErrJarNotFound = errors.New("jar not found")

	// ErrInsufficientFunds is returned when a withdrawal or transfer exceeds the jar's balance
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrCurrencyMismatch is returned when the two sides of a transfer hold different currencies
	ErrCurrencyMismatch = errors.New("currency mismatch between jars")

	// ErrSameJar is returned when a transfer names the same jar on both sides
	ErrSameJar = errors.New("charged and credited jar must differ")

	// ErrInvalidAmount is returned when an amount is not a positive monetary value
	ErrInvalidAmount = errors.New("invalid amount: must be positive")

	// ErrEmptyTitle is returned when an operation title is missing
	ErrEmptyTitle = errors.New("operation title is required")

	// ErrEmptyCurrency is returned when a jar is created without a currency
	ErrEmptyCurrency = errors.New("jar currency is required")
)

// IsIllegalOperation reports whether err is a business-rule rejection, as
// opposed to a not-found or storage failure. These are surfaced to the user
// as an explicit "Illegal operation." rejection.
func IsIllegalOperation(err error) bool {
	return errors.Is(err, ErrInsufficientFunds) ||
		errors.Is(err, ErrCurrencyMismatch) ||
		errors.Is(err, ErrSameJar)
}

// IsValidationFailure reports whether err is a malformed-input rejection that
// should never reach the entity logic.
func IsValidationFailure(err error) bool {
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrEmptyTitle) ||
		errors.Is(err, ErrEmptyCurrency)
}
