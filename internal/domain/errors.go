package domain

import "errors"

// ValidationError is returned when input fails a domain rule.
// Messages are human readable and field specific.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// NewValidationError builds a ValidationError with the given message.
func NewValidationError(msg string) *ValidationError {
	return &ValidationError{Message: msg}
}

// IsValidation reports whether err (or anything it wraps) is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

var (
	ErrEmailAlreadyExists = errors.New("Email already exists")
	ErrUserNotFound       = errors.New("User not found")

	ErrUserRejected = NewValidationError("User does not meet domain validation rules")
)
