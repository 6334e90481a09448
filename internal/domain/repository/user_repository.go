package repository

import (
	"context"

	"github.com/oksasatya/go-hexagonal-users/internal/domain/entity"
	vo "github.com/oksasatya/go-hexagonal-users/internal/domain/valueobject"
)

// UserRepository is the persistence port for users.
//
// Save returns the stored representation (with an id for new users) and
// must not modify its argument. FindByID returns (nil, nil) when no user
// exists. Implementations that enforce email uniqueness report a clash as
// domain.ErrEmailAlreadyExists.
type UserRepository interface {
	Save(ctx context.Context, u *entity.User) (*entity.User, error)
	FindByID(ctx context.Context, id vo.UserID) (*entity.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}
