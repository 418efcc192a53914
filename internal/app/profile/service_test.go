package profile

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"userdash/internal/app/user"
)

func seed(t *testing.T, store *user.MemoryStore, id, email string) *user.User {
	t.Helper()
	u := user.New(id, "Ann", email, "hash", "https://ui-avatars.com/api/", time.Now())
	require.NoError(t, store.Insert(context.Background(), u))
	return u
}

func TestGetProfile(t *testing.T) {
	store := user.NewMemoryStore()
	seed(t, store, "u1", "ann@x.com")
	svc := NewService(store)

	p, err := svc.GetProfile(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "ann@x.com", p.Email)

	_, err = svc.GetProfile(context.Background(), "gone")
	assert.ErrorIs(t, err, user.ErrNotFound)
}

func TestUpdateProfile_RoundTrip(t *testing.T) {
	store := user.NewMemoryStore()
	orig := seed(t, store, "u1", "ann@x.com")
	svc := NewService(store)
	ctx := context.Background()

	updated, err := svc.UpdateProfile(ctx, "u1", Update{Name: "Ann B", Email: "annb@x.com", Membership: user.MembershipPremium})
	require.NoError(t, err)

	got, err := svc.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, updated, got)
	assert.Equal(t, "Ann B", got.Name)
	assert.Equal(t, "annb@x.com", got.Email)
	assert.Equal(t, user.MembershipPremium, got.Membership)
	assert.Equal(t, orig.Avatar, got.Avatar, "avatar is not derived from the name")
	assert.Equal(t, orig.ID, got.ID)
}

func TestUpdateProfile_OmittedMembershipIsKept(t *testing.T) {
	store := user.NewMemoryStore()
	seed(t, store, "u1", "ann@x.com")
	svc := NewService(store)
	ctx := context.Background()

	_, err := svc.UpdateProfile(ctx, "u1", Update{Name: "Ann", Email: "ann@x.com", Membership: user.MembershipEnterprise})
	require.NoError(t, err)

	got, err := svc.UpdateProfile(ctx, "u1", Update{Name: "Ann", Email: "ann@x.com"})
	require.NoError(t, err)
	assert.Equal(t, user.MembershipEnterprise, got.Membership)
}

func TestUpdateProfile_Errors(t *testing.T) {
	store := user.NewMemoryStore()
	seed(t, store, "u1", "ann@x.com")
	seed(t, store, "u2", "bob@x.com")
	svc := NewService(store)
	ctx := context.Background()

	_, err := svc.UpdateProfile(ctx, "u1", Update{Name: "", Email: "ann@x.com"})
	assert.ErrorAs(t, err, new(*user.ValidationError))

	_, err = svc.UpdateProfile(ctx, "u1", Update{Name: "Ann", Email: ""})
	assert.ErrorAs(t, err, new(*user.ValidationError))

	_, err = svc.UpdateProfile(ctx, "u1", Update{Name: "Ann", Email: "ann@x.com", Membership: "Gold"})
	assert.ErrorAs(t, err, new(*user.ValidationError))

	_, err = svc.UpdateProfile(ctx, "u1", Update{Name: "Ann", Email: "bob@x.com"})
	assert.ErrorIs(t, err, user.ErrDuplicateEmail)

	_, err = svc.UpdateProfile(ctx, "missing", Update{Name: "Ann", Email: "new@x.com"})
	assert.ErrorIs(t, err, user.ErrNotFound)

	got, err := svc.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "ann@x.com", got.Email, "failed updates leave the record intact")
}

func TestUpdateProfile_KeepOwnEmail(t *testing.T) {
	store := user.NewMemoryStore()
	seed(t, store, "u1", "ann@x.com")
	svc := NewService(store)

	_, err := svc.UpdateProfile(context.Background(), "u1", Update{Name: "Annie", Email: "ann@x.com"})
	assert.NoError(t, err)
}

func TestSetAvatar(t *testing.T) {
	store := user.NewMemoryStore()
	seed(t, store, "u1", "ann@x.com")
	svc := NewService(store)
	ctx := context.Background()

	_, err := svc.SetAvatar(ctx, "u1", "")
	assert.ErrorAs(t, err, new(*user.ValidationError))

	p, err := svc.SetAvatar(ctx, "u1", "https://cdn.example.com/ann.png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/ann.png", p.Avatar)

	_, err = svc.SetAvatar(ctx, "missing", "https://cdn.example.com/x.png")
	assert.ErrorIs(t, err, user.ErrNotFound)
}

// interleavingStore runs before() just ahead of each profile write, standing in
// for a request that lands concurrently.
type interleavingStore struct {
	*user.MemoryStore
	before func()
}

func (s *interleavingStore) UpdateProfile(ctx context.Context, id string, f user.ProfileFields) (*user.User, error) {
	if s.before != nil {
		s.before()
	}
	return s.MemoryStore.UpdateProfile(ctx, id, f)
}

func TestUpdateProfile_KeepsConcurrentAvatarChange(t *testing.T) {
	mem := user.NewMemoryStore()
	seed(t, mem, "u1", "ann@x.com")
	store := &interleavingStore{MemoryStore: mem}
	svc := NewService(store)
	ctx := context.Background()

	store.before = func() {
		_, err := svc.SetAvatar(ctx, "u1", "https://cdn.example.com/new.png")
		require.NoError(t, err)
	}

	updated, err := svc.UpdateProfile(ctx, "u1", Update{Name: "Ann B", Email: "ann@x.com"})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/new.png", updated.Avatar)

	got, err := svc.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/new.png", got.Avatar)
	assert.Equal(t, "Ann B", got.Name)
}
