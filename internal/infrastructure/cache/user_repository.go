package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-hexagonal-users/internal/domain/entity"
	"github.com/oksasatya/go-hexagonal-users/internal/domain/repository"
	vo "github.com/oksasatya/go-hexagonal-users/internal/domain/valueobject"
)

// UserRepository is a read-through Redis cache in front of another
// repository. Only FindByID is cached; Save refreshes the entry. Redis
// errors are logged and the call falls through to the wrapped repository.
type UserRepository struct {
	next   repository.UserRepository
	codec  userCodec
	logger *logrus.Logger
}

func NewUserRepository(next repository.UserRepository, rdb *redis.Client, ttl time.Duration, logger *logrus.Logger) *UserRepository {
	return &UserRepository{next: next, codec: userCodec{rdb: rdb, ttl: ttl}, logger: logger}
}

func (r *UserRepository) Save(ctx context.Context, u *entity.User) (*entity.User, error) {
	saved, err := r.next.Save(ctx, u)
	if err != nil {
		return nil, err
	}
	r.store(ctx, saved)
	return saved, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id vo.UserID) (*entity.User, error) {
	c, found, err := r.codec.get(ctx, id)
	if err != nil {
		r.warn(err, id, "user cache read failed")
	}
	if found {
		if u, derr := fromCache(c); derr == nil {
			return u, nil
		}
		_ = r.codec.del(ctx, id)
	}

	u, err := r.next.FindByID(ctx, id)
	if err != nil || u == nil {
		return u, err
	}
	r.store(ctx, u)
	return u, nil
}

// ExistsByEmail is never cached; it backs the uniqueness check.
func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.next.ExistsByEmail(ctx, email)
}

func (r *UserRepository) store(ctx context.Context, u *entity.User) {
	id, ok := u.ID()
	if !ok {
		return
	}
	c := cachedUser{ID: id.Value(), Name: u.Name().Value(), Email: u.Email().Value()}
	if err := r.codec.set(ctx, c); err != nil {
		r.warn(err, id, "user cache write failed")
	}
}

func (r *UserRepository) warn(err error, id vo.UserID, msg string) {
	if r.logger != nil {
		r.logger.WithError(err).WithField("user_id", id.String()).Warn(msg)
	}
}

func fromCache(c cachedUser) (*entity.User, error) {
	id, err := vo.NewUserID(&c.ID)
	if err != nil {
		return nil, err
	}
	n, err := vo.NewName(c.Name)
	if err != nil {
		return nil, err
	}
	e, err := vo.NewEmailAddress(c.Email)
	if err != nil {
		return nil, err
	}
	return entity.Restore(id, n, e), nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
