package memory

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-hexagonal-users/internal/domain"
	"github.com/oksasatya/go-hexagonal-users/internal/domain/entity"
	vo "github.com/oksasatya/go-hexagonal-users/internal/domain/valueobject"
)

func newUser(t testing.TB, name, email string) *entity.User {
	t.Helper()
	n, err := vo.NewName(name)
	require.NoError(t, err)
	e, err := vo.NewEmailAddress(email)
	require.NoError(t, err)
	return entity.NewUser(n, e)
}

func TestSaveAssignsSequentialIDs(t *testing.T) {
	ctx := context.Background()
	r := NewUserRepository()

	a, err := r.Save(ctx, newUser(t, "Ann", "ann@example.com"))
	require.NoError(t, err)
	b, err := r.Save(ctx, newUser(t, "Bob", "bob@example.com"))
	require.NoError(t, err)

	ida, _ := a.ID()
	idb, _ := b.ID()
	assert.Equal(t, int64(1), ida.Value())
	assert.Equal(t, int64(2), idb.Value())

	got, err := r.FindByID(ctx, ida)
	require.NoError(t, err)
	assert.True(t, got.Equals(a))
	assert.Equal(t, "ann@example.com", got.Email().Value())
}

func TestFindByIDMissing(t *testing.T) {
	u, err := NewUserRepository().FindByID(context.Background(), vo.MustUserID(42))
	assert.NoError(t, err)
	assert.Nil(t, u)
}

func TestExistsByEmailNormalizes(t *testing.T) {
	ctx := context.Background()
	r := NewUserRepository()
	_, err := r.Save(ctx, newUser(t, "Ann", "Ann@Example.com"))
	require.NoError(t, err)

	for _, q := range []string{"ann@example.com", "ANN@EXAMPLE.COM", "  ann@example.com "} {
		ok, err := r.ExistsByEmail(ctx, q)
		require.NoError(t, err)
		assert.True(t, ok, q)
	}
	ok, err := r.ExistsByEmail(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSaveRejectsDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	r := NewUserRepository()
	_, err := r.Save(ctx, newUser(t, "Ann", "ann@example.com"))
	require.NoError(t, err)

	_, err = r.Save(ctx, newUser(t, "Other Ann", "ANN@example.com"))
	assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)
}

func TestSaveUpdatesPersistedUser(t *testing.T) {
	ctx := context.Background()
	r := NewUserRepository()
	ann, err := r.Save(ctx, newUser(t, "Ann", "ann@example.com"))
	require.NoError(t, err)
	_, err = r.Save(ctx, newUser(t, "Bob", "bob@example.com"))
	require.NoError(t, err)

	id, _ := ann.ID()
	n, _ := vo.NewName("Ann Smith")
	e, _ := vo.NewEmailAddress("ann.smith@example.com")
	updated, err := r.Save(ctx, entity.Restore(id, n, e))
	require.NoError(t, err)
	assert.True(t, updated.Equals(ann))

	old, _ := r.ExistsByEmail(ctx, "ann@example.com")
	assert.False(t, old, "previous email is released")

	clash := entity.Restore(id, n, mustEmail(t, "bob@example.com"))
	_, err = r.Save(ctx, clash)
	assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)
}

func TestConcurrentSavesKeepEmailsUnique(t *testing.T) {
	ctx := context.Background()
	r := NewUserRepository()

	const workers = 32
	var (
		wg  sync.WaitGroup
		ok  atomic.Int32
		dup atomic.Int32
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := r.Save(ctx, newUser(t, fmt.Sprintf("User %d", i), "same@example.com"))
			switch {
			case err == nil:
				ok.Add(1)
			case err == domain.ErrEmailAlreadyExists:
				dup.Add(1)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), ok.Load())
	assert.Equal(t, int32(workers-1), dup.Load())
}

func mustEmail(t *testing.T, s string) vo.EmailAddress {
	t.Helper()
	e, err := vo.NewEmailAddress(s)
	require.NoError(t, err)
	return e
}
