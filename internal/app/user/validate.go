package user

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"
)

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const (
	maxNameLength  = 100
	maxEmailLength = 254

	MinPasswordLength = 6
	// MaxPasswordBytes is the bcrypt input limit.
	MaxPasswordBytes = 72
)

// NormalizeName trims name and checks it is present and not too long.
func NormalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", Invalid("name", "is required")
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return "", Invalid("name", "is too long")
	}
	return name, nil
}

// NormalizeEmail trims email and checks its shape. Case is preserved.
func NormalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", Invalid("email", "is required")
	}
	if len(email) > maxEmailLength || !emailRegex.MatchString(email) {
		return "", Invalid("email", "is not a valid address")
	}
	return email, nil
}

// ValidatePassword checks a new password's length.
func ValidatePassword(password string) error {
	if password == "" {
		return Invalid("password", "is required")
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return Invalid("password", "must be at least 6 characters")
	}
	if len(password) > MaxPasswordBytes {
		return Invalid("password", "must be at most 72 bytes")
	}
	return nil
}

// ValidateAvatarURL accepts absolute http and https URLs only.
func ValidateAvatarURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", Invalid("avatarUrl", "is required")
	}

	u, err := url.ParseRequestURI(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", Invalid("avatarUrl", "must be an absolute http(s) URL")
	}
	return raw, nil
}
