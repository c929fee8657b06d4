package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyProcessed is returned when a settlement targets an order that is no longer pending.
	ErrAlreadyProcessed error = &NotFoundError{Message: "order not found or already processed"}
	// ErrNotRefundable is returned when a refund targets an order without a completed payment.
	ErrNotRefundable error = &NotFoundError{Message: "order not found or not eligible for refund"}
	// ErrAlreadyExists indicates a uniqueness violation.
	ErrAlreadyExists = errors.New("already exists")
	// ErrForbidden is returned when the caller may not act on the resource.
	ErrForbidden = errors.New("access denied")
	// ErrUnauthorized is returned when no valid identity accompanies the request.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrGateway wraps failures of the payment gateway or malformed gateway payloads.
	ErrGateway = errors.New("payment gateway error")
	// ErrEmptyCart is returned when checking out a cart with no unpurchased items.
	ErrEmptyCart error = &ValidationError{Message: "cart is empty"}
)

// NotFoundError is a not-found condition with a caller-facing message.
// It matches ErrNotFound with errors.Is.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ValidationError reports malformed or missing input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Invalid builds a ValidationError with a formatted message.
func Invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is, or wraps, a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
