package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/aakamshpm/unicode/internal/domain"
	apperrors "github.com/aakamshpm/unicode/pkg/errors"
)

// DB is the subset of pgxpool.Pool used by the repositories. pgxmock's pool
// interface satisfies it, so tests run against a mock without a database.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// UserRepository implements repository.UserRepository using PostgreSQL.
type UserRepository struct {
	db DB
}

// NewUserRepository creates a new PostgreSQL-backed user repository.
func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user into the database.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	query := `
		INSERT INTO users (id, email, username, display_name, avatar_url, auth_provider, password_hash, role, easy_solved, medium_solved, hard_solved, created_at, last_login_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := r.db.Exec(ctx, query,
		u.ID,
		u.Email,
		u.Username,
		u.DisplayName,
		u.AvatarURL,
		u.AuthProvider,
		u.PasswordHash,
		u.Role,
		u.EasySolved,
		u.MediumSolved,
		u.HardSolved,
		u.CreatedAt,
		u.LastLoginAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			if strings.Contains(err.Error(), "users_username_key") {
				return apperrors.UsernameTaken(u.Username)
			}
			return apperrors.AlreadyExists("user", "email", u.Email)
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by their ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `
		SELECT id, email, username, display_name, avatar_url, auth_provider, password_hash, role, easy_solved, medium_solved, hard_solved, created_at, last_login_at
		FROM users
		WHERE id = $1`

	return r.scanUser(ctx, query, id)
}

// GetByEmail retrieves a user by their email address.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `
		SELECT id, email, username, display_name, avatar_url, auth_provider, password_hash, role, easy_solved, medium_solved, hard_solved, created_at, last_login_at
		FROM users
		WHERE email = $1`

	return r.scanUser(ctx, query, email)
}

// GetByUsername retrieves a user by their username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := `
		SELECT id, email, username, display_name, avatar_url, auth_provider, password_hash, role, easy_solved, medium_solved, hard_solved, created_at, last_login_at
		FROM users
		WHERE username = $1`

	return r.scanUser(ctx, query, username)
}

// IsUsernameAvailable reports whether no user holds the given username.
func (r *UserRepository) IsUsernameAvailable(ctx context.Context, username string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`

	var taken bool
	if err := r.db.QueryRow(ctx, query, username).Scan(&taken); err != nil {
		return false, fmt.Errorf("check username: %w", err)
	}

	return !taken, nil
}

// UpdateLastLogin records the time of the user's most recent login.
func (r *UserRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE users SET last_login_at = $1 WHERE id = $2`

	ct, err := r.db.Exec(ctx, query, at, id)
	if err != nil {
		return fmt.Errorf("update last login: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("user", id)
	}

	return nil
}

// scanUser is a helper that executes a query expected to return a single user row.
func (r *UserRepository) scanUser(ctx context.Context, query string, args ...any) (*domain.User, error) {
	var u domain.User

	err := r.db.QueryRow(ctx, query, args...).Scan(
		&u.ID,
		&u.Email,
		&u.Username,
		&u.DisplayName,
		&u.AvatarURL,
		&u.AuthProvider,
		&u.PasswordHash,
		&u.Role,
		&u.EasySolved,
		&u.MediumSolved,
		&u.HardSolved,
		&u.CreatedAt,
		&u.LastLoginAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	return &u, nil
}

// isUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
