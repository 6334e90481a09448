package memory

import (
	"context"
	"sync"

	"github.com/oksasatya/go-hexagonal-users/internal/domain"
	"github.com/oksasatya/go-hexagonal-users/internal/domain/entity"
	"github.com/oksasatya/go-hexagonal-users/internal/domain/repository"
	vo "github.com/oksasatya/go-hexagonal-users/internal/domain/valueobject"
)

// UserRepository keeps users in process memory. Ids are assigned from a
// counter starting at 1 and emails are unique (case-insensitive).
type UserRepository struct {
	mu      sync.RWMutex
	nextID  int64
	byID    map[int64]*entity.User
	byEmail map[string]int64
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		nextID:  1,
		byID:    make(map[int64]*entity.User),
		byEmail: make(map[string]int64),
	}
}

func (r *UserRepository) Save(_ context.Context, u *entity.User) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	email := u.Email().Value()
	if id, ok := u.ID(); ok {
		if owner, taken := r.byEmail[email]; taken && owner != id.Value() {
			return nil, domain.ErrEmailAlreadyExists
		}
		if prev, ok := r.byID[id.Value()]; ok {
			delete(r.byEmail, prev.Email().Value())
		}
		stored := entity.Restore(id, u.Name(), u.Email())
		r.byID[id.Value()] = stored
		r.byEmail[email] = id.Value()
		return stored, nil
	}

	if _, taken := r.byEmail[email]; taken {
		return nil, domain.ErrEmailAlreadyExists
	}
	id := vo.MustUserID(r.nextID)
	r.nextID++
	stored, err := u.Persisted(id)
	if err != nil {
		return nil, err
	}
	r.byID[id.Value()] = stored
	r.byEmail[email] = id.Value()
	return stored, nil
}

func (r *UserRepository) FindByID(_ context.Context, id vo.UserID) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id.Value()]
	if !ok {
		return nil, nil
	}
	return u, nil
}

func (r *UserRepository) ExistsByEmail(_ context.Context, email string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byEmail[vo.NormalizeEmail(email)]
	return ok, nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
