package core

import (
	"errors"
	"fmt"
)

// ValidationError reports split parameters or payloads that break a business
// rule. Handlers surface it as a rejected request with the reason text.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// ArithmeticError reports a malformed currency value, e.g. more than two
// decimal places or a non-finite number.
type ArithmeticError struct {
	Reason string
}

func (e *ArithmeticError) Error() string {
	return e.Reason
}

func validationf(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

func arithmeticf(format string, args ...any) error {
	return &ArithmeticError{Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsArithmetic reports whether err is (or wraps) an ArithmeticError.
func IsArithmetic(err error) bool {
	var ae *ArithmeticError
	return errors.As(err, &ae)
}

var (
	ErrInvalidAmount    = &ArithmeticError{Reason: "invalid amount"}
	ErrEmptyDescription = &ValidationError{Reason: "empty description"}
	ErrNoParticipants   = &ValidationError{Reason: "expense needs at least one participant"}
)
