// Package apperr classifies checkout failures so callers can message them by kind.
package apperr

import (
	"errors"
	"fmt"
)

// Kind identifies the class of a failure.
type Kind int

const (
	KindInternal Kind = iota
	KindInvalidInput
	KindValidation
	KindCoupon
	KindPayment
	KindCancelled
	KindConflict
	KindPrecondition
	KindUnauthenticated
	KindUnavailable
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "INVALID_INPUT"
	case KindValidation:
		return "VALIDATION_ERROR"
	case KindCoupon:
		return "COUPON_REJECTED"
	case KindPayment:
		return "PAYMENT_ERROR"
	case KindCancelled:
		return "PAYMENT_CANCELLED"
	case KindConflict:
		return "SUBMISSION_IN_PROGRESS"
	case KindPrecondition:
		return "EMPTY_CART"
	case KindUnauthenticated:
		return "UNAUTHENTICATED"
	case KindUnavailable:
		return "SERVICE_UNAVAILABLE"
	case KindNotFound:
		return "NOT_FOUND"
	default:
		return "INTERNAL_ERROR"
	}
}

// Error carries a Kind, the operation that failed and a user-facing message.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	// Fields holds per-field messages for KindValidation.
	Fields map[string]string
	// Redirect is set for KindUnauthenticated.
	Redirect string
	Err      error
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	default:
		return e.Message
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New returns an Error of the given kind.
func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Wrap returns an Error of the given kind wrapping err.
func Wrap(kind Kind, op, message string, err error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Err: err}
}

// KindOf reports the Kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// MessageOf returns the user-facing message of err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
