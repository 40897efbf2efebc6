package repository

import (
	"context"
	"time"

	"github.com/aakamshpm/unicode/internal/domain"
)

// UserRepository defines the interface for user persistence operations.
type UserRepository interface {
	// Create inserts a new user into the store.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique identifier.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by their email address.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// GetByUsername retrieves a user by their username.
	GetByUsername(ctx context.Context, username string) (*domain.User, error)

	// IsUsernameAvailable reports whether no user holds the given username.
	IsUsernameAvailable(ctx context.Context, username string) (bool, error)

	// UpdateLastLogin records the time of the user's most recent login.
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
}

// SessionStore defines the interface for session, refresh and pending
// registration records. Records expire on their own; the per-user index
// sets may briefly reference expired records, so readers must treat a
// missing record referenced by a set as already gone.
type SessionStore interface {
	// PutSession stores a session record owned by userID with the given TTL
	// and adds it to the user's session index.
	PutSession(ctx context.Context, sessionID, userID string, ttl time.Duration) error

	// GetSession returns the owning user id of a session, or
	// errors.ErrNotFound if the session does not exist or has expired.
	GetSession(ctx context.Context, sessionID string) (string, error)

	// DeleteSession removes a session record and its index entry.
	DeleteSession(ctx context.Context, sessionID, userID string) error

	// PutRefresh stores a refresh record owned by userID with the given TTL
	// and adds it to the user's refresh index.
	PutRefresh(ctx context.Context, refreshID, userID string, ttl time.Duration) error

	// GetRefresh returns the owning user id of a refresh record, or
	// errors.ErrNotFound if the record does not exist or has expired.
	GetRefresh(ctx context.Context, refreshID string) (string, error)

	// RefreshTTL returns the remaining lifetime of a refresh record. A zero
	// or negative duration means the record is gone.
	RefreshTTL(ctx context.Context, refreshID string) (time.Duration, error)

	// DeleteRefresh removes a refresh record and its index entry.
	DeleteRefresh(ctx context.Context, refreshID, userID string) error

	// DeleteAllForUser removes every session and refresh record owned by the
	// user along with both index sets.
	DeleteAllForUser(ctx context.Context, userID string) error

	// PutPendingProfile stores an OAuth profile keyed by tempToken with the
	// given TTL, replacing any pending registration for the same email.
	PutPendingProfile(ctx context.Context, tempToken string, profile *domain.OAuthProfile, ttl time.Duration) error

	// GetPendingProfile returns the profile stored under tempToken, or
	// errors.ErrNotFound if it does not exist or has expired.
	GetPendingProfile(ctx context.Context, tempToken string) (*domain.OAuthProfile, error)

	// DeletePendingProfile removes a pending registration and its email index.
	DeletePendingProfile(ctx context.Context, tempToken string) error
}
