package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/oksasatya/go-hexagonal-users/internal/domain"
	"github.com/oksasatya/go-hexagonal-users/internal/domain/entity"
	"github.com/oksasatya/go-hexagonal-users/internal/domain/event"
	repo "github.com/oksasatya/go-hexagonal-users/internal/domain/repository"
	domainsvc "github.com/oksasatya/go-hexagonal-users/internal/domain/service"
	vo "github.com/oksasatya/go-hexagonal-users/internal/domain/valueobject"
)

// NotificationError reports that a user was saved but the welcome email
// could not be handed off. The user returned alongside it is persisted.
type NotificationError struct {
	Err error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("user created but welcome email failed: %v", e.Err)
}

func (e *NotificationError) Unwrap() error { return e.Err }

// IsNotificationFailure reports whether err came from the welcome step.
func IsNotificationFailure(err error) bool {
	var ne *NotificationError
	return errors.As(err, &ne)
}

type Service struct {
	Repo     repo.UserRepository
	Notifier Notifier
	Domain   UserRules
	Events   event.Hook
	Search   Searcher
}

var (
	_ UserRules         = (*domainsvc.UserDomainService)(nil)
	_ CreateUserUseCase = (*Service)(nil)
	_ GetUserUseCase    = (*Service)(nil)
)

func NewService(repo repo.UserRepository, notifier Notifier, rules UserRules) *Service {
	if rules == nil {
		rules = domainsvc.NewUserDomainService()
	}
	return &Service{
		Repo:     repo,
		Notifier: notifier,
		Domain:   rules,
		Events:   event.Noop,
	}
}

// CreateUser registers a user and sends the welcome email.
//
// The uniqueness check runs on the raw email before normalisation. Value
// object errors are returned as they are. If the notifier fails after the
// save, the saved user is returned together with a *NotificationError.
func (s *Service) CreateUser(ctx context.Context, name, email string) (*entity.User, error) {
	exists, err := s.Repo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrEmailAlreadyExists
	}

	addr, err := vo.NewEmailAddress(email)
	if err != nil {
		return nil, err
	}
	n, err := vo.NewName(name)
	if err != nil {
		return nil, err
	}
	u := entity.NewUser(n, addr)

	if !s.Domain.IsUserValidForOperations(u) {
		return nil, domain.ErrUserRejected
	}

	saved, err := s.Repo.Save(ctx, u)
	if err != nil {
		return nil, err
	}

	if err := s.Notifier.SendWelcomeEmail(ctx, saved.Email().Value(), saved.Name().Value()); err != nil {
		return saved, &NotificationError{Err: err}
	}

	if s.Events != nil {
		s.Events.UserCreated(ctx, event.NewUserCreated(saved))
	}
	return saved, nil
}

// GetUser returns the user with the given id or domain.ErrUserNotFound.
func (s *Service) GetUser(ctx context.Context, id vo.UserID) (*entity.User, error) {
	u, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

// SearchUsers runs a free-text lookup over indexed users. Without a
// configured Searcher it returns an empty result.
func (s *Service) SearchUsers(ctx context.Context, q string, size int) ([]UserHit, error) {
	if s.Search == nil {
		return []UserHit{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	return s.Search.SearchUsers(ctx, q, size)
}
