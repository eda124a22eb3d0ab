/*
errors.go - Centralized error types for the rating engine

PURPOSE:
  All validation error types in one place. Business refusal is NOT an
  error: a refused quote is a first-class CalculationResult with Refus set.
  Errors here mean the input could not be rated at all.

ERROR CATEGORIES:
  1. Normalization errors - missing required parameters, malformed values
  2. Input errors - unknown activity codes, share-policy violations
  3. Patch errors - unknown field path in a re-derivation request

USAGE:
  Callers can branch with errors.Is():

    if errors.Is(err, rating.ErrMissingRequiredParameter) { ... }

SEE ALSO:
  - normalize.go: raises normalization errors
  - patch.go: raises ErrUnknownFieldPath
*/
package rating

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrMissingRequiredParameter is returned when one of the required
	// inputs (turnover, headcount, activity list) is absent after defaulting.
	ErrMissingRequiredParameter = errors.New("missing required parameter")

	// ErrInvalidActivityCode is returned when a declared activity code has
	// no profile in the tariff book.
	ErrInvalidActivityCode = errors.New("invalid activity code")

	// ErrMalformedDate is returned when a date field cannot be parsed.
	ErrMalformedDate = errors.New("malformed date")

	// ErrInvalidActivityShares is returned when the activity list violates
	// the configured share policy (empty, over the bound, or a bad total).
	ErrInvalidActivityShares = errors.New("invalid activity shares")

	// ErrUnknownFieldPath is returned by Apply for an unrecognized path.
	ErrUnknownFieldPath = errors.New("unknown field path")

	// ErrTariffBookInvalid is returned when the injected tariff book fails
	// its load-time validation.
	ErrTariffBookInvalid = errors.New("invalid tariff book")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// MissingRequiredParameterError names the parameter that stayed absent
// after defaulting.
type MissingRequiredParameterError struct {
	Parameter string
}

func (e *MissingRequiredParameterError) Error() string {
	return fmt.Sprintf("missing required parameter %q", e.Parameter)
}

func (e *MissingRequiredParameterError) Unwrap() error {
	return ErrMissingRequiredParameter
}

// InvalidActivityCodeError carries the offending code.
type InvalidActivityCodeError struct {
	Code string
}

func (e *InvalidActivityCodeError) Error() string {
	return fmt.Sprintf("activity code %q has no tariff profile", e.Code)
}

func (e *InvalidActivityCodeError) Unwrap() error {
	return ErrInvalidActivityCode
}

// MalformedDateError carries the field and raw value that failed to parse.
type MalformedDateError struct {
	Field string
	Raw   string
}

func (e *MalformedDateError) Error() string {
	return fmt.Sprintf("field %q: cannot parse date %q", e.Field, e.Raw)
}

func (e *MalformedDateError) Unwrap() error {
	return ErrMalformedDate
}

// InvalidActivitySharesError explains which share rule was violated.
type InvalidActivitySharesError struct {
	Reason string
	Total  decimal.Decimal
}

func (e *InvalidActivitySharesError) Error() string {
	return fmt.Sprintf("invalid activity shares: %s (total %s%%)", e.Reason, e.Total)
}

func (e *InvalidActivitySharesError) Unwrap() error {
	return ErrInvalidActivityShares
}

// UnknownFieldPathError carries the rejected patch path.
type UnknownFieldPathError struct {
	Path string
}

func (e *UnknownFieldPathError) Error() string {
	return fmt.Sprintf("no patchable field at path %q", e.Path)
}

func (e *UnknownFieldPathError) Unwrap() error {
	return ErrUnknownFieldPath
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsValidation returns true if the error is due to invalid caller input,
// as opposed to a misconfigured tariff book.
func IsValidation(err error) bool {
	return errors.Is(err, ErrMissingRequiredParameter) ||
		errors.Is(err, ErrInvalidActivityCode) ||
		errors.Is(err, ErrMalformedDate) ||
		errors.Is(err, ErrInvalidActivityShares) ||
		errors.Is(err, ErrUnknownFieldPath)
}
