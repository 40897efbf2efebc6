package redissession

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aakamshpm/unicode/internal/domain"
	apperrors "github.com/aakamshpm/unicode/pkg/errors"
)

// Key prefixes. A session or refresh record maps its id to the owning user;
// the user_* sets index a user's live ids for bulk revocation. The oauth_email
// index maps an email to its one pending registration token.
const (
	sessionPrefix      = "session:"
	refreshPrefix      = "refresh:"
	userSessionsPrefix = "user_sessions:"
	userRefreshPrefix  = "user_refresh:"
	pendingPrefix      = "oauth:"
	pendingEmailPrefix = "oauth_email:"
)

// Store implements repository.SessionStore using Redis.
//
// Writes put the primary record before its index entry, so a crash between
// the two leaves at worst an unindexed record that expires on its own. Index
// sets may therefore briefly reference records that are already gone; readers
// go through the record key and never trust the set alone.
type Store struct {
	client   *redis.Client
	indexTTL time.Duration
}

// NewStore creates a Redis-backed session store. indexTTL bounds the lifetime
// of the per-user index sets and should be at least the refresh token expiry.
func NewStore(client *redis.Client, indexTTL time.Duration) *Store {
	return &Store{
		client:   client,
		indexTTL: indexTTL,
	}
}

// PutSession stores a session record and indexes it under the owning user.
func (s *Store) PutSession(ctx context.Context, sessionID, userID string, ttl time.Duration) error {
	if err := s.client.Set(ctx, sessionPrefix+sessionID, userID, ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}

	indexKey := userSessionsPrefix + userID
	if err := s.client.SAdd(ctx, indexKey, sessionID).Err(); err != nil {
		return fmt.Errorf("redis index session: %w", err)
	}
	if err := s.client.Expire(ctx, indexKey, s.indexTTL).Err(); err != nil {
		return fmt.Errorf("redis expire session index: %w", err)
	}

	return nil
}

// GetSession returns the user id owning the session.
func (s *Store) GetSession(ctx context.Context, sessionID string) (string, error) {
	userID, err := s.client.Get(ctx, sessionPrefix+sessionID).Result()
	if err != nil {
		if err == redis.Nil {
			return "", apperrors.NotFound("session", sessionID)
		}
		return "", fmt.Errorf("redis get session: %w", err)
	}
	return userID, nil
}

// DeleteSession removes a session record and its index entry.
func (s *Store) DeleteSession(ctx context.Context, sessionID, userID string) error {
	if err := s.client.Del(ctx, sessionPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("redis del session: %w", err)
	}
	if err := s.client.SRem(ctx, userSessionsPrefix+userID, sessionID).Err(); err != nil {
		return fmt.Errorf("redis unindex session: %w", err)
	}
	return nil
}

// PutRefresh stores a refresh record and indexes it under the owning user.
func (s *Store) PutRefresh(ctx context.Context, refreshID, userID string, ttl time.Duration) error {
	if err := s.client.Set(ctx, refreshPrefix+refreshID, userID, ttl).Err(); err != nil {
		return fmt.Errorf("redis set refresh: %w", err)
	}

	indexKey := userRefreshPrefix + userID
	if err := s.client.SAdd(ctx, indexKey, refreshID).Err(); err != nil {
		return fmt.Errorf("redis index refresh: %w", err)
	}
	if err := s.client.Expire(ctx, indexKey, s.indexTTL).Err(); err != nil {
		return fmt.Errorf("redis expire refresh index: %w", err)
	}

	return nil
}

// GetRefresh returns the user id owning the refresh record.
func (s *Store) GetRefresh(ctx context.Context, refreshID string) (string, error) {
	userID, err := s.client.Get(ctx, refreshPrefix+refreshID).Result()
	if err != nil {
		if err == redis.Nil {
			return "", apperrors.NotFound("refresh", refreshID)
		}
		return "", fmt.Errorf("redis get refresh: %w", err)
	}
	return userID, nil
}

// RefreshTTL returns the remaining lifetime of a refresh record. Redis reports
// a negative duration for missing or non-expiring keys; callers treat anything
// non-positive as gone.
func (s *Store) RefreshTTL(ctx context.Context, refreshID string) (time.Duration, error) {
	ttl, err := s.client.TTL(ctx, refreshPrefix+refreshID).Result()
	if err != nil {
		return 0, fmt.Errorf("redis ttl refresh: %w", err)
	}
	return ttl, nil
}

// DeleteRefresh removes a refresh record and its index entry.
func (s *Store) DeleteRefresh(ctx context.Context, refreshID, userID string) error {
	if err := s.client.Del(ctx, refreshPrefix+refreshID).Err(); err != nil {
		return fmt.Errorf("redis del refresh: %w", err)
	}
	if err := s.client.SRem(ctx, userRefreshPrefix+userID, refreshID).Err(); err != nil {
		return fmt.Errorf("redis unindex refresh: %w", err)
	}
	return nil
}

// DeleteAllForUser removes every session and refresh record the user owns,
// then both index sets.
func (s *Store) DeleteAllForUser(ctx context.Context, userID string) error {
	sessionsKey := userSessionsPrefix + userID
	refreshKey := userRefreshPrefix + userID

	sessionIDs, err := s.client.SMembers(ctx, sessionsKey).Result()
	if err != nil {
		return fmt.Errorf("redis members sessions: %w", err)
	}
	refreshIDs, err := s.client.SMembers(ctx, refreshKey).Result()
	if err != nil {
		return fmt.Errorf("redis members refresh: %w", err)
	}

	keys := make([]string, 0, len(sessionIDs)+len(refreshIDs)+2)
	for _, id := range sessionIDs {
		keys = append(keys, sessionPrefix+id)
	}
	for _, id := range refreshIDs {
		keys = append(keys, refreshPrefix+id)
	}
	keys = append(keys, sessionsKey, refreshKey)

	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del user records: %w", err)
	}

	return nil
}

// PutPendingProfile stores an OAuth profile under tempToken. Any earlier
// pending registration for the same email is removed first, so at most one
// temp token per email is live at a time.
func (s *Store) PutPendingProfile(ctx context.Context, tempToken string, profile *domain.OAuthProfile, ttl time.Duration) error {
	emailKey := pendingEmailPrefix + profile.Email

	prev, err := s.client.Get(ctx, emailKey).Result()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("redis get pending email index: %w", err)
	}
	if prev != "" {
		if err := s.client.Del(ctx, pendingPrefix+prev).Err(); err != nil {
			return fmt.Errorf("redis del stale pending: %w", err)
		}
	}

	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("marshal pending profile: %w", err)
	}

	if err := s.client.Set(ctx, pendingPrefix+tempToken, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set pending: %w", err)
	}
	if err := s.client.Set(ctx, emailKey, tempToken, ttl).Err(); err != nil {
		return fmt.Errorf("redis set pending email index: %w", err)
	}

	return nil
}

// GetPendingProfile returns the profile stored under tempToken.
func (s *Store) GetPendingProfile(ctx context.Context, tempToken string) (*domain.OAuthProfile, error) {
	data, err := s.client.Get(ctx, pendingPrefix+tempToken).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, apperrors.NotFound("pending registration", tempToken)
		}
		return nil, fmt.Errorf("redis get pending: %w", err)
	}

	var profile domain.OAuthProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("unmarshal pending profile: %w", err)
	}

	return &profile, nil
}

// DeletePendingProfile removes a pending registration and its email index.
func (s *Store) DeletePendingProfile(ctx context.Context, tempToken string) error {
	profile, err := s.GetPendingProfile(ctx, tempToken)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil
		}
		return err
	}

	if err := s.client.Del(ctx, pendingPrefix+tempToken).Err(); err != nil {
		return fmt.Errorf("redis del pending: %w", err)
	}
	if err := s.client.Del(ctx, pendingEmailPrefix+profile.Email).Err(); err != nil {
		return fmt.Errorf("redis del pending email index: %w", err)
	}

	return nil
}
