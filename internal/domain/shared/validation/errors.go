// Package validation holds the rejection taxonomy shared by the stay, pricing and
// booking rules. Every rejection carries a machine-readable reason code.
package validation

import (
	"errors"
	"fmt"
)

type Reason string

const (
	ReasonInvalidRange     Reason = "invalid_range"
	ReasonMissingField     Reason = "missing_field"
	ReasonInvalidField     Reason = "invalid_field"
	ReasonMinStayNotMet    Reason = "min_stay_not_met"
	ReasonDatesUnavailable Reason = "dates_unavailable"
	ReasonCheckInInPast    Reason = "check_in_in_past"
)

// ErrValidation matches every ValidationError via errors.Is.
var ErrValidation = errors.New("validation failed")

type ValidationError struct {
	Reason  Reason
	Field   string
	Message string
}

func New(reason Reason, field, message string) *ValidationError {
	return &ValidationError{Reason: reason, Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Reason, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// MinimumStayError is the ValidationError raised when a stay is shorter than the configured minimum.
type MinimumStayError struct {
	Minimum int
	Nights  int
}

func (e *MinimumStayError) Error() string {
	return fmt.Sprintf("%s: stay of %d nights is shorter than the %d night minimum", ReasonMinStayNotMet, e.Nights, e.Minimum)
}

func (e *MinimumStayError) Unwrap() error {
	return &ValidationError{
		Reason:  ReasonMinStayNotMet,
		Field:   "check_out",
		Message: fmt.Sprintf("minimum stay is %d nights", e.Minimum),
	}
}

// ReasonOf extracts the reason code of a validation failure, if err is one.
func ReasonOf(err error) (Reason, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Reason, true
	}
	return "", false
}
