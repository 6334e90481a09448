package application

import (
	"context"

	"github.com/oksasatya/go-hexagonal-users/internal/domain/entity"
	vo "github.com/oksasatya/go-hexagonal-users/internal/domain/valueobject"
)

// CreateUserUseCase registers a new user.
type CreateUserUseCase interface {
	CreateUser(ctx context.Context, name, email string) (*entity.User, error)
}

// GetUserUseCase fetches a user by id.
type GetUserUseCase interface {
	GetUser(ctx context.Context, id vo.UserID) (*entity.User, error)
}

// Notifier is the outbound notification port.
type Notifier interface {
	SendWelcomeEmail(ctx context.Context, email, name string) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, email, name string) error

func (f NotifierFunc) SendWelcomeEmail(ctx context.Context, email, name string) error {
	return f(ctx, email, name)
}

// UserRules decides whether a built user may be persisted.
// *service.UserDomainService satisfies it.
type UserRules interface {
	IsUserValidForOperations(u *entity.User) bool
}

// UserHit is one search result.
type UserHit struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Searcher looks users up in a secondary index.
type Searcher interface {
	SearchUsers(ctx context.Context, q string, size int) ([]UserHit, error)
}
