package valueobject

import (
	"github.com/oksasatya/go-hexagonal-users/internal/domain"
)

const minNameLength = 2

var (
	ErrNameEmpty    = domain.NewValidationError("Name cannot be null or empty")
	ErrNameTooShort = domain.NewValidationError("Name must be at least 2 characters long")
)

// Name is a trimmed display name of at least two characters.
type Name struct {
	value string
}

// NewName validates raw and returns the trimmed Name. Only ASCII control
// characters and spaces are trimmed; length is counted in UTF-16 units.
func NewName(raw string) (Name, error) {
	v := trimControl(raw)
	if v == "" {
		return Name{}, ErrNameEmpty
	}
	if Length(v) < minNameLength {
		return Name{}, ErrNameTooShort
	}
	return Name{value: v}, nil
}

func (n Name) Value() string  { return n.value }
func (n Name) String() string { return n.value }

// IsZero reports whether n was never constructed.
func (n Name) IsZero() bool { return n.value == "" }

func (n Name) Equals(other Name) bool { return n.value == other.value }
