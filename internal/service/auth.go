package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/aakamshpm/unicode/internal/auth"
	"github.com/aakamshpm/unicode/internal/domain"
	"github.com/aakamshpm/unicode/internal/event"
	"github.com/aakamshpm/unicode/internal/repository"
	apperrors "github.com/aakamshpm/unicode/pkg/errors"
	"github.com/aakamshpm/unicode/pkg/middleware"
)

// Options holds the token lifetimes governing session issuance.
type Options struct {
	AccessExpiry    time.Duration
	RefreshExpiry   time.Duration
	GracePeriod     time.Duration
	TempTokenExpiry time.Duration
}

// AuthService implements the session and credential lifecycle: OAuth signup,
// token issuance, sliding-window refresh and revocation.
type AuthService struct {
	users    repository.UserRepository
	sessions repository.SessionStore
	codec    *auth.TokenCodec
	producer *event.Producer
	logger   *slog.Logger
	opts     Options
}

// NewAuthService creates a new auth service.
func NewAuthService(
	users repository.UserRepository,
	sessions repository.SessionStore,
	codec *auth.TokenCodec,
	producer *event.Producer,
	logger *slog.Logger,
	opts Options,
) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		codec:    codec,
		producer: producer,
		logger:   logger,
		opts:     opts,
	}
}

// CallbackResult is the outcome of an OAuth callback. Either the profile
// matched an existing account and Tokens holds a live session, or the user is
// new and TempToken must be redeemed via CompleteRegistration.
type CallbackResult struct {
	NewUser   bool
	User      *domain.User
	Tokens    *domain.TokenPair
	TempToken string
}

// RefreshResult is the outcome of a refresh. RefreshToken is only set when
// the old token was inside the grace window and the whole pair was renewed.
type RefreshResult struct {
	AccessToken  string
	RefreshToken string
	Renewed      bool
}

// HandleOAuthCallback processes a verified OAuth profile. Existing accounts
// get a session immediately; unknown emails get a short-lived temp token that
// parks the profile until the user picks a username.
func (s *AuthService) HandleOAuthCallback(ctx context.Context, profile *domain.OAuthProfile) (*CallbackResult, error) {
	if profile.Email == "" {
		return nil, apperrors.MissingEmail()
	}

	user, err := s.users.GetByEmail(ctx, profile.Email)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("lookup user by email: %w", err)
	}

	if user != nil {
		tokens, err := s.CreateSession(ctx, user)
		if err != nil {
			return nil, err
		}

		if err := s.users.UpdateLastLogin(ctx, user.ID, time.Now().UTC()); err != nil {
			s.logger.ErrorContext(ctx, "failed to record last login",
				slog.String("user_id", user.ID),
				slog.String("error", err.Error()),
			)
		}

		if err := s.producer.PublishUserLoggedIn(ctx, user); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish user.logged_in event",
				slog.String("user_id", user.ID),
				slog.String("error", err.Error()),
			)
		}

		s.logger.InfoContext(ctx, "user logged in via oauth",
			slog.String("user_id", user.ID),
		)

		return &CallbackResult{User: user, Tokens: tokens}, nil
	}

	tempToken := uuid.New().String()
	if err := s.sessions.PutPendingProfile(ctx, tempToken, profile, s.opts.TempTokenExpiry); err != nil {
		return nil, apperrors.StoreUnavailable(err)
	}

	s.logger.InfoContext(ctx, "new oauth signup started",
		slog.String("email", profile.Email),
	)

	return &CallbackResult{NewUser: true, TempToken: tempToken}, nil
}

// CompleteRegistration redeems a temp token with the chosen username and
// creates the account plus its first session.
func (s *AuthService) CompleteRegistration(ctx context.Context, tempToken, username string) (*domain.User, *domain.TokenPair, error) {
	if tempToken == "" {
		return nil, nil, apperrors.RegistrationExpired()
	}
	if username == "" {
		return nil, nil, apperrors.InvalidInput("username is required")
	}

	profile, err := s.sessions.GetPendingProfile(ctx, tempToken)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil, apperrors.RegistrationExpired()
		}
		return nil, nil, apperrors.StoreUnavailable(err)
	}

	available, err := s.users.IsUsernameAvailable(ctx, username)
	if err != nil {
		return nil, nil, fmt.Errorf("check username: %w", err)
	}
	if !available {
		return nil, nil, apperrors.UsernameTaken(username)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New().String(),
		Email:        profile.Email,
		Username:     username,
		DisplayName:  profile.DisplayName,
		AvatarURL:    profile.AvatarURL,
		AuthProvider: domain.ProviderGitHub,
		Role:         domain.RoleUser,
		CreatedAt:    now,
		LastLoginAt:  now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, nil, err
	}

	// The token is single-use: consume it before issuing the session.
	if err := s.sessions.DeletePendingProfile(ctx, tempToken); err != nil {
		s.logger.ErrorContext(ctx, "failed to consume registration token",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	tokens, err := s.CreateSession(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	if err := s.producer.PublishUserRegistered(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.registered event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user registered",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)

	return user, tokens, nil
}

// CreateSession mints a fresh session and refresh record for the user and
// signs the corresponding token pair.
func (s *AuthService) CreateSession(ctx context.Context, user *domain.User) (*domain.TokenPair, error) {
	sessionID := uuid.New().String()
	refreshID := uuid.New().String()

	if err := s.sessions.PutSession(ctx, sessionID, user.ID, s.opts.AccessExpiry); err != nil {
		return nil, apperrors.StoreUnavailable(err)
	}
	if err := s.sessions.PutRefresh(ctx, refreshID, user.ID, s.opts.RefreshExpiry); err != nil {
		return nil, apperrors.StoreUnavailable(err)
	}

	accessToken, err := s.codec.SignAccess(user.ID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refreshToken, err := s.codec.SignRefresh(user.ID, refreshID)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// RefreshAccessToken exchanges a valid refresh token for a new access token.
// While the refresh record has more than the grace period left, only a new
// session and access token are minted and the refresh token stays as is. Once
// the record enters the grace window the whole pair is renewed, sliding the
// refresh horizon forward for active users.
func (s *AuthService) RefreshAccessToken(ctx context.Context, refreshToken string) (*RefreshResult, error) {
	claims, err := s.codec.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, apperrors.InvalidRefresh()
	}

	userID, err := s.sessions.GetRefresh(ctx, claims.RefreshID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.InvalidRefresh()
		}
		return nil, apperrors.StoreUnavailable(err)
	}
	if userID != claims.Subject {
		return nil, apperrors.InvalidRefresh()
	}

	ttl, err := s.sessions.RefreshTTL(ctx, claims.RefreshID)
	if err != nil {
		return nil, apperrors.StoreUnavailable(err)
	}
	if ttl <= 0 {
		return nil, apperrors.InvalidRefresh()
	}

	if ttl <= s.opts.GracePeriod {
		user, err := s.users.GetByID(ctx, userID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, apperrors.InvalidRefresh()
			}
			return nil, fmt.Errorf("get user for renewal: %w", err)
		}

		if err := s.sessions.DeleteRefresh(ctx, claims.RefreshID, userID); err != nil {
			return nil, apperrors.StoreUnavailable(err)
		}

		tokens, err := s.CreateSession(ctx, user)
		if err != nil {
			return nil, err
		}

		s.logger.InfoContext(ctx, "refresh token renewed within grace window",
			slog.String("user_id", userID),
		)

		return &RefreshResult{
			AccessToken:  tokens.AccessToken,
			RefreshToken: tokens.RefreshToken,
			Renewed:      true,
		}, nil
	}

	sessionID := uuid.New().String()
	if err := s.sessions.PutSession(ctx, sessionID, userID, s.opts.AccessExpiry); err != nil {
		return nil, apperrors.StoreUnavailable(err)
	}

	accessToken, err := s.codec.SignAccess(userID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	return &RefreshResult{AccessToken: accessToken}, nil
}

// Logout revokes the session and refresh record carried by the presented
// tokens. Unparseable tokens are skipped so logout never fails on stale
// credentials; only store outages surface as errors.
func (s *AuthService) Logout(ctx context.Context, accessToken, refreshToken string) error {
	if accessToken != "" {
		// Expired tokens still identify the session to revoke, so the
		// unverified decode is intentional.
		if claims, err := s.codec.UnsafeDecodeAccess(accessToken); err == nil && claims.SessionID != "" {
			if err := s.sessions.DeleteSession(ctx, claims.SessionID, claims.Subject); err != nil {
				return apperrors.StoreUnavailable(err)
			}
		}
	}

	if refreshToken != "" {
		if claims, err := s.codec.VerifyRefresh(refreshToken); err == nil {
			if err := s.sessions.DeleteRefresh(ctx, claims.RefreshID, claims.Subject); err != nil {
				return apperrors.StoreUnavailable(err)
			}
		}
	}

	return nil
}

// LogoutAll revokes every session and refresh record owned by the user.
func (s *AuthService) LogoutAll(ctx context.Context, userID string) error {
	if err := s.sessions.DeleteAllForUser(ctx, userID); err != nil {
		return apperrors.StoreUnavailable(err)
	}

	if err := s.producer.PublishSessionRevokedAll(ctx, userID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish session.revoked_all event",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "all sessions revoked",
		slog.String("user_id", userID),
	)

	return nil
}

// ValidateAccessToken verifies an access token and confirms its session still
// exists in the store. A cryptographically valid token whose session record is
// gone has been revoked.
func (s *AuthService) ValidateAccessToken(ctx context.Context, token string) (*middleware.Claims, error) {
	claims, err := s.codec.VerifyAccess(token)
	if err != nil {
		return nil, apperrors.InvalidToken()
	}

	userID, err := s.sessions.GetSession(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.SessionRevoked()
		}
		return nil, apperrors.StoreUnavailable(err)
	}
	if userID != claims.Subject {
		return nil, apperrors.SessionRevoked()
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.SessionRevoked()
		}
		return nil, fmt.Errorf("get user for validation: %w", err)
	}

	return &middleware.Claims{
		UserID:    user.ID,
		SessionID: claims.SessionID,
		Role:      user.Role,
	}, nil
}

// GetUser returns the user identified by id.
func (s *AuthService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("user", id)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}
