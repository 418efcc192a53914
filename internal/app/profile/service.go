/*
Package profile reads and edits the mutable fields of the caller's account.

The avatar is caller-supplied: registration sets a placeholder once, SetAvatar
replaces it, and UpdateProfile never touches it.
*/
package profile

import (
	"context"

	"userdash/internal/app/user"
	"userdash/internal/pkg/logx"
)

// Update carries the fields accepted by UpdateProfile. An empty Membership
// keeps the stored tier.
type Update struct {
	Name       string
	Email      string
	Membership user.Membership
}

type Service struct {
	users user.Store
}

func NewService(users user.Store) *Service {
	return &Service{users: users}
}

// GetProfile returns the caller's public projection.
func (s *Service) GetProfile(ctx context.Context, callerID string) (user.Public, error) {
	u, err := s.users.FindByID(ctx, callerID)
	if err != nil {
		return user.Public{}, err
	}
	return u.Public(), nil
}

// UpdateProfile overwrites name and email and, when given, membership.
func (s *Service) UpdateProfile(ctx context.Context, callerID string, in Update) (user.Public, error) {
	name, err := user.NormalizeName(in.Name)
	if err != nil {
		return user.Public{}, err
	}

	email, err := user.NormalizeEmail(in.Email)
	if err != nil {
		return user.Public{}, err
	}

	if in.Membership != "" && !in.Membership.Valid() {
		return user.Public{}, user.Invalid("membership", "must be Basic, Premium or Enterprise")
	}

	u, err := s.users.UpdateProfile(ctx, callerID, user.ProfileFields{
		Name:       name,
		Email:      email,
		Membership: in.Membership,
	})
	if err != nil {
		return user.Public{}, err
	}

	logx.Info("profile updated", "user_id", u.ID)
	return u.Public(), nil
}

// SetAvatar replaces the caller's avatar URL.
func (s *Service) SetAvatar(ctx context.Context, callerID, avatarURL string) (user.Public, error) {
	avatarURL, err := user.ValidateAvatarURL(avatarURL)
	if err != nil {
		return user.Public{}, err
	}

	u, err := s.users.UpdateAvatar(ctx, callerID, avatarURL)
	if err != nil {
		return user.Public{}, err
	}

	return u.Public(), nil
}
