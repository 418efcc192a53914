/*
Package auth registers accounts, verifies credentials and validates bearer tokens.
*/
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"userdash/internal/app/user"
	"userdash/internal/pkg/auth/jwt"
	"userdash/internal/pkg/logx"
)

// ErrInvalidCredentials is returned by Login for an unknown email and for a
// wrong password alike.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Result is returned by Register and Login.
type Result struct {
	Token string
	User  user.Public
}

// Options tunes the Service.
type Options struct {
	BcryptCost    int
	AvatarBaseURL string
}

type Service struct {
	users         user.Store
	signer        *jwt.Signer
	cost          int
	avatarBaseURL string
	dummyHash     []byte

	now   func() time.Time
	newID func() string
}

// NewService wires the service to its store and token signer.
func NewService(users user.Store, signer *jwt.Signer, opts Options) (*Service, error) {
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}

	// Compared against when the email is unknown so both failure paths cost one bcrypt run.
	dummyHash, err := bcrypt.GenerateFromPassword([]byte("userdash-dummy-password"), opts.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare dummy hash: %w", err)
	}

	return &Service{
		users:         users,
		signer:        signer,
		cost:          opts.BcryptCost,
		avatarBaseURL: opts.AvatarBaseURL,
		dummyHash:     dummyHash,
		now:           time.Now,
		newID:         uuid.NewString,
	}, nil
}

// Register creates an account and signs the caller in.
func (s *Service) Register(ctx context.Context, name, email, password string) (*Result, error) {
	name, err := user.NormalizeName(name)
	if err != nil {
		return nil, err
	}

	email, err = user.NormalizeEmail(email)
	if err != nil {
		return nil, err
	}

	if err := user.ValidatePassword(password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := user.New(s.newID(), name, email, string(hash), s.avatarBaseURL, s.now())

	if err := s.users.Insert(ctx, u); err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			logx.Warn("registration conflict: email already exists", "user_id", u.ID)
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	token, err := s.signer.GenerateToken(u.ID)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	logx.Info("user registered", "user_id", u.ID)

	return &Result{Token: token, User: u.Public()}, nil
}

// Login verifies email and password, records the login time and issues a token.
func (s *Service) Login(ctx context.Context, email, password string) (*Result, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, user.Invalid("email and password", "are required")
	}

	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, user.ErrNotFound) {
			return nil, fmt.Errorf("find user: %w", err)
		}
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		logx.Debug("login: unknown email")
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		logx.Debug("login: password mismatch", "user_id", u.ID)
		return nil, ErrInvalidCredentials
	}

	now := s.now().UTC()
	u.LastLogin = &now
	if err := s.users.UpdateLastLogin(ctx, u.ID, now); err != nil {
		logx.Error(err, "login: failed to update last login", "user_id", u.ID)
	}

	token, err := s.signer.GenerateToken(u.ID)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &Result{Token: token, User: u.Public()}, nil
}

// Authenticate returns the caller id carried by token. It reads no state.
func (s *Service) Authenticate(token string) (string, error) {
	payload, err := s.signer.ParseToken(token)
	if err != nil {
		return "", err
	}
	return payload.UserID, nil
}
