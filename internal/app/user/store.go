package user

import (
	"context"
	"time"
)

// ProfileFields are the user-editable account fields. An empty Membership
// keeps the stored tier.
type ProfileFields struct {
	Name       string
	Email      string
	Membership Membership
}

// Store persists accounts. Implementations enforce email uniqueness
// themselves; callers never check-then-insert.
type Store interface {
	// FindByEmail returns ErrNotFound when no account uses email.
	FindByEmail(ctx context.Context, email string) (*User, error)

	// FindByID returns ErrNotFound when id is unknown.
	FindByID(ctx context.Context, id string) (*User, error)

	// Insert stores u, failing with ErrDuplicateEmail if the email is taken.
	Insert(ctx context.Context, u *User) error

	// UpdateProfile writes only the fields in f to account id and returns
	// the stored result. ErrNotFound, ErrDuplicateEmail.
	UpdateProfile(ctx context.Context, id string, f ProfileFields) (*User, error)

	// UpdateAvatar sets only the avatar of id and returns the stored result.
	UpdateAvatar(ctx context.Context, id, avatar string) (*User, error)

	// UpdateLastLogin sets only the last-login timestamp of id.
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error

	// Count returns the number of stored accounts.
	Count(ctx context.Context) (int, error)
}
