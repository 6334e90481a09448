package event

import (
	"context"
	"time"

	"github.com/oksasatya/go-hexagonal-users/internal/domain/entity"
)

// UserCreated is raised once a user has been persisted.
type UserCreated struct {
	user       *entity.User
	occurredAt time.Time
}

func NewUserCreated(u *entity.User) UserCreated {
	return UserCreated{user: u, occurredAt: time.Now().UTC()}
}

func (e UserCreated) User() *entity.User    { return e.user }
func (e UserCreated) OccurredAt() time.Time { return e.occurredAt }

// Hook receives created events. Nothing publishes them yet; the default
// hook drops them.
type Hook interface {
	UserCreated(ctx context.Context, e UserCreated)
}

type HookFunc func(ctx context.Context, e UserCreated)

func (f HookFunc) UserCreated(ctx context.Context, e UserCreated) { f(ctx, e) }

// Noop discards every event.
var Noop Hook = HookFunc(func(context.Context, UserCreated) {})
