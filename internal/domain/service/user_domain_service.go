package service

import (
	"github.com/oksasatya/go-hexagonal-users/internal/domain/entity"
	vo "github.com/oksasatya/go-hexagonal-users/internal/domain/valueobject"
)

// UserDomainService holds user rules that do not belong to a single value.
// It is stateless; the zero value is ready to use.
type UserDomainService struct{}

func NewUserDomainService() *UserDomainService { return &UserDomainService{} }

// CanCreateUserWithEmail reports whether a new user may take newEmail given
// the user currently holding a matching lookup, if any.
func (UserDomainService) CanCreateUserWithEmail(existing *entity.User, newEmail vo.EmailAddress) bool {
	if existing == nil {
		return true
	}
	return !existing.Email().Equals(newEmail)
}

// IsUserValidForOperations gates persistence: name and email must be set
// and the name must have at least two characters.
func (UserDomainService) IsUserValidForOperations(u *entity.User) bool {
	if u == nil {
		return false
	}
	return !u.Name().IsZero() &&
		!u.Email().IsZero() &&
		vo.Length(u.Name().Value()) >= 2
}
