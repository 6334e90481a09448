package entity

import (
	"errors"
	"fmt"

	vo "github.com/oksasatya/go-hexagonal-users/internal/domain/valueobject"
)

var ErrIdentityAlreadyAssigned = errors.New("user identity already assigned")

// User is the aggregate root for the user domain.
//
// A User starts transient (no id) and becomes persisted only through
// Persisted or Restore, both of which return a new value. The id of a
// persisted User never changes.
type User struct {
	id    vo.UserID
	hasID bool
	name  vo.Name
	email vo.EmailAddress
}

// NewUser builds a transient user from already validated value objects.
func NewUser(name vo.Name, email vo.EmailAddress) *User {
	return &User{name: name, email: email}
}

// Restore rehydrates a persisted user, typically from storage.
func Restore(id vo.UserID, name vo.Name, email vo.EmailAddress) *User {
	return &User{id: id, hasID: true, name: name, email: email}
}

// Persisted returns a copy of u carrying id. The receiver is not modified.
func (u *User) Persisted(id vo.UserID) (*User, error) {
	if u.hasID {
		return nil, ErrIdentityAlreadyAssigned
	}
	return Restore(id, u.name, u.email), nil
}

// ID returns the identifier and whether one has been assigned.
func (u *User) ID() (vo.UserID, bool) { return u.id, u.hasID }

func (u *User) IsPersisted() bool { return u.hasID }

func (u *User) Name() vo.Name { return u.name }

func (u *User) Email() vo.EmailAddress { return u.email }

// Equals uses identity equality: the same pointer, or two persisted users
// sharing an id. A transient user equals only itself.
func (u *User) Equals(other *User) bool {
	if u == other {
		return true
	}
	if u == nil || other == nil {
		return false
	}
	return u.hasID && other.hasID && u.id.Equals(other.id)
}

func (u *User) String() string {
	id := "<none>"
	if u.hasID {
		id = u.id.String()
	}
	return fmt.Sprintf("User{id=%s, name=%s, email=%s}", id, u.name, u.email)
}
