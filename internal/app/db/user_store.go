package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"userdash/internal/app/user"
)

// DBTX is the subset of pgxpool.Pool used by UserStore; a pgx.Tx also satisfies it.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// UserStore is the PostgreSQL implementation of user.Store.
type UserStore struct {
	db DBTX
}

var _ user.Store = (*UserStore)(nil)

func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{db: pool}
}

const userColumns = `id, name, email, password_hash, avatar, membership, last_login_at, created_at`

func scanUser(row pgx.Row) (*user.User, error) {
	var (
		u          user.User
		id         uuid.UUID
		membership string
	)

	err := row.Scan(&id, &u.Name, &u.Email, &u.PasswordHash, &u.Avatar, &membership, &u.LastLogin, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrNotFound
		}
		return nil, err
	}

	u.ID = id.String()
	u.Membership = user.Membership(membership)
	return &u, nil
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	u, err := scanUser(s.db.QueryRow(ctx, query, email))
	if err != nil && !errors.Is(err, user.ErrNotFound) {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return u, err
}

// FindByID treats ids that are not UUIDs as unknown.
func (s *UserStore) FindByID(ctx context.Context, id string) (*user.User, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, user.ErrNotFound
	}

	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	u, err := scanUser(s.db.QueryRow(ctx, query, uid))
	if err != nil && !errors.Is(err, user.ErrNotFound) {
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return u, err
}

func (s *UserStore) Insert(ctx context.Context, u *user.User) error {
	uid, err := uuid.Parse(u.ID)
	if err != nil {
		return fmt.Errorf("insert user: invalid id %q: %w", u.ID, err)
	}

	const query = `
		INSERT INTO users (id, name, email, password_hash, avatar, membership, last_login_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = s.db.Exec(ctx, query,
		uid,
		u.Name,
		u.Email,
		u.PasswordHash,
		u.Avatar,
		string(u.Membership),
		u.LastLogin,
		u.CreatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return user.ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *UserStore) UpdateProfile(ctx context.Context, id string, f user.ProfileFields) (*user.User, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, user.ErrNotFound
	}

	const query = `
		UPDATE users
		SET name = $2, email = $3, membership = COALESCE(NULLIF($4, ''), membership)
		WHERE id = $1
		RETURNING ` + userColumns

	u, err := scanUser(s.db.QueryRow(ctx, query, uid, f.Name, f.Email, string(f.Membership)))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, err
		}
		if IsUniqueViolation(err) {
			return nil, user.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return u, nil
}

func (s *UserStore) UpdateAvatar(ctx context.Context, id, avatar string) (*user.User, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, user.ErrNotFound
	}

	const query = `UPDATE users SET avatar = $2 WHERE id = $1 RETURNING ` + userColumns

	u, err := scanUser(s.db.QueryRow(ctx, query, uid, avatar))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update avatar: %w", err)
	}
	return u, nil
}

func (s *UserStore) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return user.ErrNotFound
	}

	tag, err := s.db.Exec(ctx, `UPDATE users SET last_login_at = $2 WHERE id = $1`, uid, at)
	if err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrNotFound
	}
	return nil
}

func (s *UserStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}
