package user

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUser(id, email string) *User {
	return New(id, "User "+id, email, "hash", avatarBase, time.Now())
}

func TestMemoryStore_InsertAndFind(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Insert(ctx, newUser("1", "a@x.com")))

	byEmail, err := s.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "1", byEmail.ID)

	byID, err := s.FindByID(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", byID.Email)

	_, err = s.FindByEmail(ctx, "A@x.com")
	assert.ErrorIs(t, err, ErrNotFound, "emails are case-sensitive")

	_, err = s.FindByID(ctx, "2")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Insert(ctx, newUser("1", "a@x.com")))

	u, err := s.FindByID(ctx, "1")
	require.NoError(t, err)
	u.Name = "mutated"

	again, err := s.FindByID(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "User 1", again.Name)
}

func TestMemoryStore_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Insert(ctx, newUser("1", "a@x.com")))
	assert.ErrorIs(t, s.Insert(ctx, newUser("2", "a@x.com")), ErrDuplicateEmail)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMemoryStore_ConcurrentInsertSameEmail(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	const workers = 32
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded, duplicates := 0, 0

	for i := range workers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := s.Insert(ctx, newUser(fmt.Sprintf("id-%d", i), "race@x.com"))

			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
			} else if assert.ErrorIs(t, err, ErrDuplicateEmail) {
				duplicates++
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, workers-1, duplicates)

	n, _ := s.Count(ctx)
	assert.Equal(t, 1, n)
}

func TestMemoryStore_UpdateProfile(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Insert(ctx, newUser("1", "a@x.com")))
	require.NoError(t, s.Insert(ctx, newUser("2", "b@x.com")))

	before, _ := s.FindByID(ctx, "1")

	got, err := s.UpdateProfile(ctx, "1", ProfileFields{Name: "A", Email: "c@x.com", Membership: MembershipPremium})
	require.NoError(t, err)
	assert.Equal(t, MembershipPremium, got.Membership)
	assert.Equal(t, before.CreatedAt, got.CreatedAt, "CreatedAt is immutable")

	found, err := s.FindByEmail(ctx, "c@x.com")
	require.NoError(t, err)
	assert.Equal(t, "1", found.ID)

	_, err = s.FindByEmail(ctx, "a@x.com")
	assert.ErrorIs(t, err, ErrNotFound, "old email is released")

	got, err = s.UpdateProfile(ctx, "1", ProfileFields{Name: "A", Email: "c@x.com"})
	require.NoError(t, err)
	assert.Equal(t, MembershipPremium, got.Membership, "empty membership keeps the tier")

	_, err = s.UpdateProfile(ctx, "1", ProfileFields{Name: "A", Email: "b@x.com"})
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	_, err = s.UpdateProfile(ctx, "9", ProfileFields{Name: "Z", Email: "z@x.com"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_FieldScopedUpdatesDoNotClobber(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Insert(ctx, newUser("1", "a@x.com")))

	_, err := s.UpdateAvatar(ctx, "1", "https://cdn.example.com/new.png")
	require.NoError(t, err)

	got, err := s.UpdateProfile(ctx, "1", ProfileFields{Name: "Renamed", Email: "a@x.com"})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/new.png", got.Avatar)

	_, err = s.UpdateAvatar(ctx, "9", "https://cdn.example.com/x.png")
	assert.ErrorIs(t, err, ErrNotFound)
}
