package valueobject

import (
	"regexp"
	"strings"

	"github.com/oksasatya/go-hexagonal-users/internal/domain"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

var (
	ErrEmailEmpty   = domain.NewValidationError("Email address cannot be null or empty")
	ErrEmailInvalid = domain.NewValidationError("Invalid email address format")
)

// EmailAddress holds a lower-cased, trimmed address.
// Two addresses that differ only by case are equal.
type EmailAddress struct {
	value string
}

// NewEmailAddress checks raw against the address pattern. The pattern is
// applied to the input as given, so surrounding whitespace is rejected.
func NewEmailAddress(raw string) (EmailAddress, error) {
	if trimControl(raw) == "" {
		return EmailAddress{}, ErrEmailEmpty
	}
	if !emailPattern.MatchString(raw) {
		return EmailAddress{}, ErrEmailInvalid
	}
	return EmailAddress{value: NormalizeEmail(raw)}, nil
}

// NormalizeEmail applies the stored form of an address to arbitrary input,
// valid or not. Lookups by email use it so they agree with stored values.
func NormalizeEmail(raw string) string {
	return strings.ToLower(trimControl(raw))
}

func (e EmailAddress) Value() string  { return e.value }
func (e EmailAddress) String() string { return e.value }

// IsZero reports whether e was never constructed.
func (e EmailAddress) IsZero() bool { return e.value == "" }

func (e EmailAddress) Equals(other EmailAddress) bool { return e.value == other.value }
