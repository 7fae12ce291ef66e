package faults

import "errors"

type ErrorCategory string

const (
	ValidationError ErrorCategory = "ValidationError"
	TransportError  ErrorCategory = "TransportError"
	ServiceError    ErrorCategory = "ServiceError"
	DecodeError     ErrorCategory = "DecodeError"
	InternalError   ErrorCategory = "InternalError"
)

// TypedError attaches a category to a failure. When Message is empty the
// error text is the text of Cause, so callers see service messages verbatim.
type TypedError struct {
	Category ErrorCategory
	Message  string
	Cause    error
}

func (e *TypedError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Message != "" && e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return string(e.Category)
}

func (e *TypedError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func NewTypedError(category ErrorCategory, message string, cause error) *TypedError {
	return &TypedError{
		Category: category,
		Message:  message,
		Cause:    cause,
	}
}

func IsCategory(err error, category ErrorCategory) bool {
	return CategoryOf(err) == category
}

// CategoryOf returns the category of the outermost TypedError in err's chain,
// or an empty category when there is none.
func CategoryOf(err error) ErrorCategory {
	if err == nil {
		return ""
	}

	var typedErr *TypedError
	if !errors.As(err, &typedErr) {
		return ""
	}
	return typedErr.Category
}
