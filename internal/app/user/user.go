/*
Package user holds the account entity of the dashboard and the storage contract for it.

A User is created once at registration and later mutated by login (LastLogin)
and profile edits. Outward-facing code only ever sees the Public projection,
which has no password field.
*/
package user

import (
	"net/url"
	"time"
)

// Membership is the subscription tier of an account.
type Membership string

const (
	MembershipBasic      Membership = "Basic"
	MembershipPremium    Membership = "Premium"
	MembershipEnterprise Membership = "Enterprise"
)

// Valid reports whether m is one of the known tiers.
func (m Membership) Valid() bool {
	switch m {
	case MembershipBasic, MembershipPremium, MembershipEnterprise:
		return true
	}
	return false
}

// User is a stored account.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string `json:"-"`
	Avatar       string
	Membership   Membership
	LastLogin    *time.Time
	CreatedAt    time.Time
}

// New builds an account with the default avatar and Basic membership.
func New(id, name, email, passwordHash, avatarBaseURL string, now time.Time) *User {
	return &User{
		ID:           id,
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Avatar:       PlaceholderAvatar(avatarBaseURL, name),
		Membership:   MembershipBasic,
		CreatedAt:    now.UTC(),
	}
}

// PlaceholderAvatar returns the generated avatar image URL for name.
// The result is a pure function of its inputs.
func PlaceholderAvatar(baseURL, name string) string {
	return baseURL + "?name=" + url.QueryEscape(name) + "&background=007bff"
}

// Public is the client-safe projection of a User.
type Public struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	Avatar     string     `json:"avatar"`
	Membership Membership `json:"membership"`
	CreatedAt  time.Time  `json:"createdAt"`
	LastLogin  *time.Time `json:"lastLogin,omitempty"`
}

// Public returns the projection of u safe to send to clients.
func (u *User) Public() Public {
	return Public{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Avatar:     u.Avatar,
		Membership: u.Membership,
		CreatedAt:  u.CreatedAt,
		LastLogin:  u.LastLogin,
	}
}

// Clone returns a deep copy of u.
func (u *User) Clone() *User {
	c := *u
	if u.LastLogin != nil {
		t := *u.LastLogin
		c.LastLogin = &t
	}
	return &c
}
