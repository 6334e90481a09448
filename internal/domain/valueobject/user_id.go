package valueobject

import (
	"strconv"
	"strings"

	"github.com/oksasatya/go-hexagonal-users/internal/domain"
)

var (
	ErrUserIDNull     = domain.NewValidationError("User ID cannot be null")
	ErrUserIDNegative = domain.NewValidationError("User ID must be positive")
	ErrUserIDFormat   = domain.NewValidationError("User ID must be a number")
)

// UserID is a positive identifier assigned by the persistence layer.
type UserID struct {
	value int64
}

// NewUserID validates raw. A nil pointer means the id was not supplied.
func NewUserID(raw *int64) (UserID, error) {
	if raw == nil {
		return UserID{}, ErrUserIDNull
	}
	if *raw <= 0 {
		return UserID{}, ErrUserIDNegative
	}
	return UserID{value: *raw}, nil
}

// MustUserID is NewUserID for values already known to be valid, such as
// identifiers read back from storage. It panics on invalid input.
func MustUserID(v int64) UserID {
	id, err := NewUserID(&v)
	if err != nil {
		panic(err)
	}
	return id
}

// ParseUserID parses a decimal id from a path or query parameter.
func ParseUserID(s string) (UserID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return NewUserID(nil)
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return UserID{}, ErrUserIDFormat
	}
	return NewUserID(&v)
}

func (id UserID) Value() int64 { return id.value }

func (id UserID) String() string { return strconv.FormatInt(id.value, 10) }

func (id UserID) Equals(other UserID) bool { return id.value == other.value }
