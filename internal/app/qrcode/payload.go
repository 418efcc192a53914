package qrcode

import (
	"time"

	"userdash/internal/app/user"
)

// PublicPayload is what an anonymous viewer of someone's code gets.
type PublicPayload struct {
	Name       string          `json:"name"`
	Email      string          `json:"email"`
	Membership user.Membership `json:"membership"`
}

// SelfPayload is encoded when a user generates their own code.
type SelfPayload struct {
	UserID      string          `json:"userId"`
	Name        string          `json:"name"`
	Email       string          `json:"email"`
	Membership  user.Membership `json:"membership"`
	ProfileURL  string          `json:"profileUrl"`
	GeneratedAt string          `json:"generatedAt"`
}

// BuildPublic projects u onto the public payload.
func BuildPublic(u *user.User) PublicPayload {
	return PublicPayload{
		Name:       u.Name,
		Email:      u.Email,
		Membership: u.Membership,
	}
}

// BuildSelf projects u onto the self-service payload. profileBase must not
// end with a slash.
func BuildSelf(u *user.User, profileBase string, at time.Time) SelfPayload {
	return SelfPayload{
		UserID:      u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Membership:  u.Membership,
		ProfileURL:  profileBase + "/user/" + u.ID,
		GeneratedAt: at.UTC().Format(time.RFC3339),
	}
}
