package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-hexagonal-users/internal/domain"
	"github.com/oksasatya/go-hexagonal-users/internal/domain/entity"
	"github.com/oksasatya/go-hexagonal-users/internal/domain/event"
	vo "github.com/oksasatya/go-hexagonal-users/internal/domain/valueobject"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Save(ctx context.Context, u *entity.User) (*entity.User, error) {
	args := m.Called(ctx, u)
	saved, _ := args.Get(0).(*entity.User)
	return saved, args.Error(1)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id vo.UserID) (*entity.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*entity.User)
	return u, args.Error(1)
}

func (m *MockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendWelcomeEmail(ctx context.Context, email, name string) error {
	return m.Called(ctx, email, name).Error(0)
}

type stubSearcher struct {
	gotQ    string
	gotSize int
	hits    []UserHit
	err     error
}

func (s *stubSearcher) SearchUsers(_ context.Context, q string, size int) ([]UserHit, error) {
	s.gotQ, s.gotSize = q, size
	return s.hits, s.err
}

func persisted(t *testing.T, id int64, name, email string) *entity.User {
	t.Helper()
	n, err := vo.NewName(name)
	require.NoError(t, err)
	e, err := vo.NewEmailAddress(email)
	require.NoError(t, err)
	return entity.Restore(vo.MustUserID(id), n, e)
}

func transientMatching(name, email string) interface{} {
	return mock.MatchedBy(func(u *entity.User) bool {
		return u != nil && !u.IsPersisted() &&
			u.Name().Value() == name && u.Email().Value() == email
	})
}

func TestCreateUser_Success(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserRepository)
	notifier := new(MockNotifier)

	saved := persisted(t, 1, "John Doe", "john@example.com")
	repo.On("ExistsByEmail", ctx, "john@example.com").Return(false, nil).Once()
	repo.On("Save", ctx, transientMatching("John Doe", "john@example.com")).Return(saved, nil).Once()
	notifier.On("SendWelcomeEmail", ctx, "john@example.com", "John Doe").Return(nil).Once()

	var events []event.UserCreated
	svc := NewService(repo, notifier, nil)
	svc.Events = event.HookFunc(func(_ context.Context, e event.UserCreated) { events = append(events, e) })

	u, err := svc.CreateUser(ctx, "John Doe", "john@example.com")
	require.NoError(t, err)

	id, ok := u.ID()
	require.True(t, ok)
	assert.Equal(t, int64(1), id.Value())
	assert.Equal(t, "John Doe", u.Name().Value())
	assert.Equal(t, "john@example.com", u.Email().Value())

	require.Len(t, events, 1)
	assert.Same(t, saved, events[0].User())

	repo.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestCreateUser_NormalizesBeforeSaveAndNotify(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserRepository)
	notifier := new(MockNotifier)

	repo.On("ExistsByEmail", ctx, "John@Example.COM").Return(false, nil).Once()
	repo.On("Save", ctx, transientMatching("John Doe", "john@example.com")).
		Return(persisted(t, 7, "John Doe", "john@example.com"), nil).Once()
	notifier.On("SendWelcomeEmail", ctx, "john@example.com", "John Doe").Return(nil).Once()

	_, err := NewService(repo, notifier, nil).CreateUser(ctx, "  John Doe  ", "John@Example.COM")
	require.NoError(t, err)

	repo.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserRepository)
	notifier := new(MockNotifier)

	repo.On("ExistsByEmail", ctx, "john@example.com").Return(true, nil).Once()

	u, err := NewService(repo, notifier, nil).CreateUser(ctx, "John Doe", "john@example.com")
	assert.Nil(t, u)
	assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)
	assert.EqualError(t, err, "Email already exists")

	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	notifier.AssertNotCalled(t, "SendWelcomeEmail", mock.Anything, mock.Anything, mock.Anything)
}

type rulesFunc func(u *entity.User) bool

func (f rulesFunc) IsUserValidForOperations(u *entity.User) bool { return f(u) }

func TestCreateUser_RejectedByRules(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserRepository)
	notifier := new(MockNotifier)

	repo.On("ExistsByEmail", ctx, "john@example.com").Return(false, nil).Once()

	var checked *entity.User
	rules := rulesFunc(func(u *entity.User) bool {
		checked = u
		return false
	})

	var events []event.UserCreated
	svc := NewService(repo, notifier, rules)
	svc.Events = event.HookFunc(func(_ context.Context, e event.UserCreated) { events = append(events, e) })

	u, err := svc.CreateUser(ctx, "John Doe", "john@example.com")
	assert.Nil(t, u)
	assert.ErrorIs(t, err, domain.ErrUserRejected)
	require.NotNil(t, checked)
	assert.False(t, checked.IsPersisted())
	assert.Empty(t, events)

	repo.AssertExpectations(t)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	notifier.AssertNotCalled(t, "SendWelcomeEmail", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateUser_InvalidInput(t *testing.T) {
	cases := []struct {
		name    string
		inName  string
		inEmail string
		want    string
	}{
		{"short name", "J", "john@example.com", "Name must be at least 2 characters long"},
		{"blank name", "   ", "john@example.com", "Name cannot be null or empty"},
		{"bad email", "John Doe", "not-an-email", "Invalid email address format"},
		{"empty email", "John Doe", "", "Email address cannot be null or empty"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			repo := new(MockUserRepository)
			notifier := new(MockNotifier)
			repo.On("ExistsByEmail", ctx, tc.inEmail).Return(false, nil).Once()

			u, err := NewService(repo, notifier, nil).CreateUser(ctx, tc.inName, tc.inEmail)
			assert.Nil(t, u)
			require.Error(t, err)
			assert.True(t, domain.IsValidation(err))
			assert.EqualError(t, err, tc.want)

			repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
			notifier.AssertNotCalled(t, "SendWelcomeEmail", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestCreateUser_RepositoryErrors(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("connection reset")

	t.Run("exists check", func(t *testing.T) {
		repo := new(MockUserRepository)
		repo.On("ExistsByEmail", ctx, "john@example.com").Return(false, boom).Once()

		_, err := NewService(repo, new(MockNotifier), nil).CreateUser(ctx, "John Doe", "john@example.com")
		assert.ErrorIs(t, err, boom)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("save", func(t *testing.T) {
		repo := new(MockUserRepository)
		notifier := new(MockNotifier)
		repo.On("ExistsByEmail", ctx, "john@example.com").Return(false, nil).Once()
		repo.On("Save", ctx, mock.Anything).Return(nil, boom).Once()

		u, err := NewService(repo, notifier, nil).CreateUser(ctx, "John Doe", "john@example.com")
		assert.Nil(t, u)
		assert.ErrorIs(t, err, boom)
		notifier.AssertNotCalled(t, "SendWelcomeEmail", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("race on unique constraint", func(t *testing.T) {
		repo := new(MockUserRepository)
		repo.On("ExistsByEmail", ctx, "john@example.com").Return(false, nil).Once()
		repo.On("Save", ctx, mock.Anything).Return(nil, domain.ErrEmailAlreadyExists).Once()

		_, err := NewService(repo, new(MockNotifier), nil).CreateUser(ctx, "John Doe", "john@example.com")
		assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)
	})
}

func TestCreateUser_NotificationFailureKeepsUser(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserRepository)
	notifier := new(MockNotifier)
	boom := errors.New("queue down")

	saved := persisted(t, 3, "Jane Roe", "jane@example.com")
	repo.On("ExistsByEmail", ctx, "jane@example.com").Return(false, nil).Once()
	repo.On("Save", ctx, mock.Anything).Return(saved, nil).Once()
	notifier.On("SendWelcomeEmail", ctx, "jane@example.com", "Jane Roe").Return(boom).Once()

	fired := false
	svc := NewService(repo, notifier, nil)
	svc.Events = event.HookFunc(func(context.Context, event.UserCreated) { fired = true })

	u, err := svc.CreateUser(ctx, "Jane Roe", "jane@example.com")
	require.Error(t, err)
	assert.Same(t, saved, u)
	assert.True(t, IsNotificationFailure(err))
	assert.ErrorIs(t, err, boom)
	assert.False(t, fired, "event fires only after a successful notification")
}

func TestGetUser(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		repo := new(MockUserRepository)
		want := persisted(t, 1, "John Doe", "john@example.com")
		repo.On("FindByID", ctx, vo.MustUserID(1)).Return(want, nil).Once()

		got, err := NewService(repo, new(MockNotifier), nil).GetUser(ctx, vo.MustUserID(1))
		require.NoError(t, err)
		assert.Same(t, want, got)
	})

	t.Run("missing", func(t *testing.T) {
		repo := new(MockUserRepository)
		repo.On("FindByID", ctx, vo.MustUserID(999)).Return(nil, nil).Once()

		got, err := NewService(repo, new(MockNotifier), nil).GetUser(ctx, vo.MustUserID(999))
		assert.Nil(t, got)
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
		assert.EqualError(t, err, "User not found")
	})

	t.Run("repository error", func(t *testing.T) {
		repo := new(MockUserRepository)
		boom := errors.New("timeout")
		repo.On("FindByID", ctx, vo.MustUserID(2)).Return(nil, boom).Once()

		_, err := NewService(repo, new(MockNotifier), nil).GetUser(ctx, vo.MustUserID(2))
		assert.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, domain.ErrUserNotFound)
	})
}

func TestSearchUsers(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled", func(t *testing.T) {
		hits, err := NewService(new(MockUserRepository), new(MockNotifier), nil).SearchUsers(ctx, "john", 5)
		require.NoError(t, err)
		assert.Empty(t, hits)
		assert.NotNil(t, hits)
	})

	t.Run("size clamped", func(t *testing.T) {
		for _, size := range []int{0, -1, 51} {
			s := &stubSearcher{}
			svc := NewService(new(MockUserRepository), new(MockNotifier), nil)
			svc.Search = s
			_, err := svc.SearchUsers(ctx, "john", size)
			require.NoError(t, err)
			assert.Equal(t, 10, s.gotSize, "size %d", size)
		}
	})

	t.Run("passes through", func(t *testing.T) {
		s := &stubSearcher{hits: []UserHit{{ID: 1, Name: "John Doe", Email: "john@example.com"}}}
		svc := NewService(new(MockUserRepository), new(MockNotifier), nil)
		svc.Search = s
		hits, err := svc.SearchUsers(ctx, "john", 25)
		require.NoError(t, err)
		assert.Equal(t, "john", s.gotQ)
		assert.Equal(t, 25, s.gotSize)
		assert.Equal(t, s.hits, hits)
	})
}
