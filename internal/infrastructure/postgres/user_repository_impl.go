package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/oksasatya/go-hexagonal-users/internal/domain"
	"github.com/oksasatya/go-hexagonal-users/internal/domain/entity"
	"github.com/oksasatya/go-hexagonal-users/internal/domain/repository"
	vo "github.com/oksasatya/go-hexagonal-users/internal/domain/valueobject"
)

// uniqueViolation is the SQLSTATE Postgres reports for a duplicate key.
const uniqueViolation = "23505"

// DBTX is the subset of pgxpool.Pool (and pgx.Tx) the repository needs.
type DBTX interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Save(ctx context.Context, u *entity.User) (*entity.User, error) {
	var (
		id          int64
		name, email string
		err         error
	)
	if existing, ok := u.ID(); ok {
		err = r.db.QueryRow(ctx, `
			UPDATE users
			SET name = $1, email = $2, updated_at = now()
			WHERE id = $3
			RETURNING id, name, email
		`, u.Name().Value(), u.Email().Value(), existing.Value()).Scan(&id, &name, &email)
	} else {
		err = r.db.QueryRow(ctx, `
			INSERT INTO users (name, email)
			VALUES ($1, $2)
			RETURNING id, name, email
		`, u.Name().Value(), u.Email().Value()).Scan(&id, &name, &email)
	}
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, domain.ErrEmailAlreadyExists
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("save user: %w", err)
	}
	return toDomain(id, name, email)
}

func (r *UserRepository) FindByID(ctx context.Context, id vo.UserID) (*entity.User, error) {
	var (
		rid         int64
		name, email string
	)
	err := r.db.QueryRow(ctx, `
		SELECT id, name, email
		FROM users
		WHERE id = $1
	`, id.Value()).Scan(&rid, &name, &email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find user %s: %w", id, err)
	}
	return toDomain(rid, name, email)
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)
	`, vo.NormalizeEmail(email)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("exists by email: %w", err)
	}
	return exists, nil
}

// toDomain maps a row back to the aggregate. Stored values were validated
// on the way in, so a failure here means the table was edited by hand.
func toDomain(id int64, name, email string) (*entity.User, error) {
	uid, err := vo.NewUserID(&id)
	if err != nil {
		return nil, fmt.Errorf("corrupt user row %d: %w", id, err)
	}
	n, err := vo.NewName(name)
	if err != nil {
		return nil, fmt.Errorf("corrupt user row %d: %w", id, err)
	}
	e, err := vo.NewEmailAddress(email)
	if err != nil {
		return nil, fmt.Errorf("corrupt user row %d: %w", id, err)
	}
	return entity.Restore(uid, n, e), nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
