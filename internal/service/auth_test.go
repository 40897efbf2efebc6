package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/aakamshpm/unicode/internal/auth"
	"github.com/aakamshpm/unicode/internal/domain"
	"github.com/aakamshpm/unicode/internal/event"
	apperrors "github.com/aakamshpm/unicode/pkg/errors"
	pkgkafka "github.com/aakamshpm/unicode/pkg/kafka"
)

// --- Mock User Repository ---

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) IsUsernameAvailable(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

func (m *mockUserRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

// --- Mock Session Store ---

type mockSessionStore struct {
	mock.Mock
}

func (m *mockSessionStore) PutSession(ctx context.Context, sessionID, userID string, ttl time.Duration) error {
	args := m.Called(ctx, sessionID, userID, ttl)
	return args.Error(0)
}

func (m *mockSessionStore) GetSession(ctx context.Context, sessionID string) (string, error) {
	args := m.Called(ctx, sessionID)
	return args.String(0), args.Error(1)
}

func (m *mockSessionStore) DeleteSession(ctx context.Context, sessionID, userID string) error {
	args := m.Called(ctx, sessionID, userID)
	return args.Error(0)
}

func (m *mockSessionStore) PutRefresh(ctx context.Context, refreshID, userID string, ttl time.Duration) error {
	args := m.Called(ctx, refreshID, userID, ttl)
	return args.Error(0)
}

func (m *mockSessionStore) GetRefresh(ctx context.Context, refreshID string) (string, error) {
	args := m.Called(ctx, refreshID)
	return args.String(0), args.Error(1)
}

func (m *mockSessionStore) RefreshTTL(ctx context.Context, refreshID string) (time.Duration, error) {
	args := m.Called(ctx, refreshID)
	return args.Get(0).(time.Duration), args.Error(1)
}

func (m *mockSessionStore) DeleteRefresh(ctx context.Context, refreshID, userID string) error {
	args := m.Called(ctx, refreshID, userID)
	return args.Error(0)
}

func (m *mockSessionStore) DeleteAllForUser(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *mockSessionStore) PutPendingProfile(ctx context.Context, tempToken string, profile *domain.OAuthProfile, ttl time.Duration) error {
	args := m.Called(ctx, tempToken, profile, ttl)
	return args.Error(0)
}

func (m *mockSessionStore) GetPendingProfile(ctx context.Context, tempToken string) (*domain.OAuthProfile, error) {
	args := m.Called(ctx, tempToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OAuthProfile), args.Error(1)
}

func (m *mockSessionStore) DeletePendingProfile(ctx context.Context, tempToken string) error {
	args := m.Called(ctx, tempToken)
	return args.Error(0)
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestCodec() *auth.TokenCodec {
	return auth.NewTokenCodec("test-access-secret", "test-refresh-secret", 15*time.Minute, 168*time.Hour)
}

func newTestEventProducer() *event.Producer {
	logger := newTestLogger()
	kafkaCfg := pkgkafka.DefaultProducerConfig([]string{"localhost:9092"})
	kafkaProducer := pkgkafka.NewProducer(kafkaCfg, logger)
	return event.NewProducer(kafkaProducer, logger)
}

func testOptions() Options {
	return Options{
		AccessExpiry:    15 * time.Minute,
		RefreshExpiry:   168 * time.Hour,
		GracePeriod:     24 * time.Hour,
		TempTokenExpiry: 5 * time.Minute,
	}
}

func newTestService(users *mockUserRepository, sessions *mockSessionStore) *AuthService {
	return NewAuthService(users, sessions, newTestCodec(), newTestEventProducer(), newTestLogger(), testOptions())
}

func testUser() *domain.User {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.User{
		ID:           "user-1",
		Email:        "dev@example.com",
		Username:     "dev_codes",
		DisplayName:  "Dev Example",
		AvatarURL:    "https://avatars.example.com/dev.png",
		AuthProvider: domain.ProviderGitHub,
		Role:         domain.RoleUser,
		CreatedAt:    now,
		LastLoginAt:  now,
	}
}

func testProfile() *domain.OAuthProfile {
	return &domain.OAuthProfile{
		Email:       "dev@example.com",
		DisplayName: "Dev Example",
		AvatarURL:   "https://avatars.example.com/dev.png",
	}
}

// --- HandleOAuthCallback ---

func TestHandleOAuthCallback_MissingEmail(t *testing.T) {
	users := new(mockUserRepository)
	sessions := new(mockSessionStore)
	svc := newTestService(users, sessions)

	result, err := svc.HandleOAuthCallback(context.Background(), &domain.OAuthProfile{DisplayName: "No Email"})

	assert.Nil(t, result)
	require.Error(t, err)
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "MISSING_EMAIL", appErr.Code)
	users.AssertNotCalled(t, "GetByEmail")
	sessions.AssertNotCalled(t, "PutPendingProfile")
}

func TestHandleOAuthCallback_ExistingUser(t *testing.T) {
	users := new(mockUserRepository)
	sessions := new(mockSessionStore)
	svc := newTestService(users, sessions)
	ctx := context.Background()
	user := testUser()

	users.On("GetByEmail", ctx, user.Email).Return(user, nil)
	sessions.On("PutSession", ctx, mock.AnythingOfType("string"), user.ID, 15*time.Minute).Return(nil)
	sessions.On("PutRefresh", ctx, mock.AnythingOfType("string"), user.ID, 168*time.Hour).Return(nil)
	users.On("UpdateLastLogin", ctx, user.ID, mock.AnythingOfType("time.Time")).Return(nil)

	result, err := svc.HandleOAuthCallback(ctx, testProfile())

	require.NoError(t, err)
	assert.False(t, result.NewUser)
	assert.Empty(t, result.TempToken)
	require.NotNil(t, result.Tokens)

	// The issued access token verifies and names the user.
	claims, err := newTestCodec().VerifyAccess(result.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.Subject)
	assert.NotEmpty(t, claims.SessionID)

	users.AssertExpectations(t)
	sessions.AssertExpectations(t)
}

func TestHandleOAuthCallback_NewUser(t *testing.T) {
	users := new(mockUserRepository)
	sessions := new(mockSessionStore)
	svc := newTestService(users, sessions)
	ctx := context.Background()
	profile := testProfile()

	users.On("GetByEmail", ctx, profile.Email).Return(nil, apperrors.ErrNotFound)
	sessions.On("PutPendingProfile", ctx, mock.AnythingOfType("string"), profile, 5*time.Minute).Return(nil)

	result, err := svc.HandleOAuthCallback(ctx, profile)

	require.NoError(t, err)
	assert.True(t, result.NewUser)
	assert.NotEmpty(t, result.TempToken)
	assert.Nil(t, result.Tokens)
	sessions.AssertNotCalled(t, "PutSession")
	sessions.AssertExpectations(t)
}

func TestHandleOAuthCallback_StoreDown(t *testing.T) {
	users := new(mockUserRepository)
	sessions := new(mockSessionStore)
	svc := newTestService(users, sessions)
	ctx := context.Background()
	profile := testProfile()

	users.On("GetByEmail", ctx, profile.Email).Return(nil, apperrors.ErrNotFound)
	sessions.On("PutPendingProfile", ctx, mock.AnythingOfType("string"), profile, 5*time.Minute).
		Return(fmt.Errorf("redis set pending: connection refused"))

	result, err := svc.HandleOAuthCallback(ctx, profile)

	assert.Nil(t, result)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrServiceUnavail))
}

// --- CompleteRegistration ---

func TestCompleteRegistration_Success(t *testing.T) {
	users := new(mockUserRepository)
	sessions := new(mockSessionStore)
	svc := newTestService(users, sessions)
	ctx := context.Background()
	profile := testProfile()

	sessions.On("GetPendingProfile", ctx, "temp-1").Return(profile, nil)
	users.On("IsUsernameAvailable", ctx, "dev_codes").Return(true, nil)
	users.On("Create", ctx, mock.AnythingOfType("*domain.User")).Return(nil)
	sessions.On("DeletePendingProfile", ctx, "temp-1").Return(nil)
	sessions.On("PutSession", ctx, mock.AnythingOfType("string"), mock.AnythingOfType("string"), 15*time.Minute).Return(nil)
	sessions.On("PutRefresh", ctx, mock.AnythingOfType("string"), mock.AnythingOfType("string"), 168*time.Hour).Return(nil)

	user, tokens, err := svc.CompleteRegistration(ctx, "temp-1", "dev_codes")

	require.NoError(t, err)
	require.NotNil(t, user)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, profile.Email, user.Email)
	assert.Equal(t, "dev_codes", user.Username)
	assert.Equal(t, profile.DisplayName, user.DisplayName)
	assert.Equal(t, profile.AvatarURL, user.AvatarURL)
	assert.Equal(t, domain.ProviderGitHub, user.AuthProvider)
	assert.Equal(t, domain.RoleUser, user.Role)
	require.NotNil(t, tokens)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)

	users.AssertExpectations(t)
	sessions.AssertExpectations(t)
}

func TestCompleteRegistration_ExpiredToken(t *testing.T) {
	users := new(mockUserRepository)
	sessions := new(mockSessionStore)
	svc := newTestService(users, sessions)
	ctx := context.Background()

	sessions.On("GetPendingProfile", ctx, "temp-stale").Return(nil, apperrors.ErrNotFound)

	user, tokens, err := svc.CompleteRegistration(ctx, "temp-stale", "dev_codes")

	assert.Nil(t, user)
	assert.Nil(t, tokens)
	require.Error(t, err)
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "REGISTRATION_EXPIRED", appErr.Code)
	users.AssertNotCalled(t, "Create")
}

func TestCompleteRegistration_EmptyToken(t *testing.T) {
	users := new(mockUserRepository)
	sessions := new(mockSessionStore)
	svc := newTestService(users, sessions)

	_, _, err := svc.CompleteRegistration(context.Background(), "", "dev_codes")

	require.Error(t, err)
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "REGISTRATION_EXPIRED", appErr.Code)
	sessions.AssertNotCalled(t, "GetPendingProfile")
}

func TestCompleteRegistration_EmptyUsername(t *testing.T) {
	users := new(mockUserRepository)
	sessions := new(mockSessionStore)
	svc := newTestService(users, sessions)

	_, _, err := svc.CompleteRegistration(context.Background(), "temp-1", "")

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
	sessions.AssertNotCalled(t, "GetPendingProfile")
}

func TestCompleteRegistration_UsernameTaken(t *testing.T) {
	users := new(mockUserRepository)
	sessions := new(mockSessionStore)
	svc := newTestService(users, sessions)
	ctx := context.Background()

	sessions.On("GetPendingProfile", ctx, "temp-1").Return(testProfile(), nil)
	users.On("IsUsernameAvailable", ctx, "taken_name").Return(false, nil)

	_, _, err := svc.CompleteRegistration(ctx, "temp-1", "taken_name")

	require.Error(t, err)
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "USERNAME_TAKEN", appErr.Code)
	// The losing attempt must not consume the token; the user can retry
	// with another name.
	sessions.AssertNotCalled(t, "DeletePendingProfile")
	users.AssertNotCalled(t, "Create")
}

// --- CreateSession ---

func TestCreateSession_TokensMatchStoredRecords(t *testing.T) {
	users := new(mockUserRepository)
	sessions := new(mockSessionStore)
	svc := newTestService(users, sessions)
	ctx := context.Background()
	user := testUser()

	var storedSessionID, storedRefreshID string
	sessions.On("PutSession", ctx, mock.AnythingOfType("string"), user.ID, 15*time.Minute).
		Run(func(args mock.Arguments) { storedSessionID = args.String(1) }).
		Return(nil)
	sessions.On("PutRefresh", ctx, mock.AnythingOfType("string"), user.ID, 168*time.Hour).
		Run(func(args mock.Arguments) { storedRefreshID = args.String(1) }).
		Return(nil)

	tokens, err := svc.CreateSession(ctx, user)

	require.NoError(t, err)

	codec := newTestCodec()
	accessClaims, err := codec.VerifyAccess(tokens.AccessToken)
	require.NoError(t, err)
	refreshClaims, err := codec.VerifyRefresh(tokens.RefreshToken)
	require.NoError(t, err)

	assert.Equal(t, storedSessionID, accessClaims.SessionID)
	assert.Equal(t, storedRefreshID, refreshClaims.RefreshID)
	assert.Equal(t, user.ID, accessClaims.Subject)
	assert.Equal(t, user.ID, refreshClaims.Subject)
	assert.NotEqual(t, storedSessionID, storedRefreshID)
}

func TestCreateSession_StoreDown(t *testing.T) {
	users := new(mockUserRepository)
	sessions := new(mockSessionStore)
	svc := newTestService(users, sessions)
	ctx := context.Background()

	sessions.On("PutSession", ctx, mock.AnythingOfType("string"), "user-1", 15*time.Minute).
		Return(fmt.Errorf("redis set session: connection refused"))

	tokens, err := svc.CreateSession(ctx, testUser())

	assert.Nil(t, tokens)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrServiceUnavail))
}

// --- RefreshAccessToken ---

func TestRefreshAccessToken_OutsideGraceWindow(t *testing.T) {
	users := new(mockUserRepository)
	sessions := new(mockSessionStore)
	svc := newTestService(users, sessions)
	ctx := context.Background()

	refreshToken, err := newTestCodec().SignRefresh("user-1", "ref-1")
	require.NoError(t, err)

	sessions.On("GetRefresh", ctx, "ref-1").Return("user-1", nil)
	sessions.On("RefreshTTL", ctx, "ref-1").Return(100*time.Hour, nil)
	sessions.On("PutSession", ctx, mock.AnythingOfType("string"), "user-1", 15*time.Minute).Return(nil)

	result, err := svc.RefreshAccessToken(ctx, refreshToken)

	require.NoError(t, err)
	assert.False(t, result.Renewed)
	assert.Empty(t, result.RefreshToken)
	require.NotEmpty(t, result.AccessToken)

	claims, err := newTestCodec().VerifyAccess(result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)

	// The refresh record stays untouched outside the grace window.
	sessions.AssertNotCalled(t, "DeleteRefresh")
	sessions.AssertNotCalled(t, "PutRefresh")
}

func TestRefreshAccessToken_InsideGraceWindow(t *testing.T) {
	users := new(mockUserRepository)
	sessions := new(mockSessionStore)
	svc := newTestService(users, sessions)
	ctx := context.Background()
	user := testUser()

	refreshToken, err := newTestCodec().SignRefresh(user.ID, "ref-old")
	require.NoError(t, err)

	sessions.On("GetRefresh", ctx, "ref-old").Return(user.ID, nil)
	sessions.On("RefreshTTL", ctx, "ref-old").Return(2*time.Hour, nil)
	users.On("GetByID", ctx, user.ID).Return(user, nil)
	sessions.On("DeleteRefresh", ctx, "ref-old", user.ID).Return(nil)
	sessions.On("PutSession", ctx, mock.AnythingOfType("string"), user.ID, 15*time.Minute).Return(nil)
	sessions.On("PutRefresh", ctx, mock.AnythingOfType("string"), user.ID, 168*time.Hour).Return(nil)

	result, err := svc.RefreshAccessToken(ctx, refreshToken)

	require.NoError(t, err)
	assert.True(t, result.Renewed)
	require.NotEmpty(t, result.AccessToken)
	require.NotEmpty(t, result.RefreshToken)

	// The renewed refresh token carries a fresh record id.
	claims, err := newTestCodec().VerifyRefresh(result.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, "ref-old", claims.RefreshID)

	sessions.AssertExpectations(t)
}

func TestRefreshAccessToken_ExactlyAtGraceBoundary(t *testing.T) {
	users := new(mockUserRepository)
	sessions := new(mockSessionStore)
	svc := newTestService(users, sessions)
	ctx := context.Background()
	user := testUser()

	refreshToken, err := newTestCodec().SignRefresh(user.ID, "ref-1")
	require.NoError(t, err)

	// TTL equal to the grace period renews.
	sessions.On("GetRefresh", ctx, "ref-1").Return(user.ID, nil)
	sessions.On("RefreshTTL", ctx, "ref-1").Return(24*time.Hour, nil)
	users.On("GetByID", ctx, user.ID).Return(user, nil)
	sessions.On("DeleteRefresh", ctx, "ref-1", user.ID).Return(nil)
	sessions.On("PutSession", ctx, mock.AnythingOfType("string"), user.ID, 15*time.Minute).Return(nil)
	sessions.On("PutRefresh", ctx, mock.AnythingOfType("string"), user.ID, 168*time.Hour).Return(nil)

	result, err := svc.RefreshAccessToken(ctx, refreshToken)

	require.NoError(t, err)
	assert.True(t, result.Renewed)
}

func TestRefreshAccessToken_UnknownRecord(t *testing.T) {
	users := new(mockUserRepository)
	sessions := new(mockSessionStore)
	svc := newTestService(users, sessions)
	ctx := context.Background()

	refreshToken, err := newTestCodec().SignRefresh("user-1", "ref-gone")
	require.NoError(t, err)

	sessions.On("GetRefresh", ctx, "ref-gone").Return("", apperrors.ErrNotFound)

	result, err := svc.RefreshAccessToken(ctx, refreshToken)

	assert.Nil(t, result)
	require.Error(t, err)
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "INVALID_REFRESH", appErr.Code)
}

func TestRefreshAccessToken_BadSignature(t *testing.T) {
	users := new(mockUserRepository)
	sessions := new(mockSessionStore)
	svc := newTestService(users, sessions)

	forged := auth.NewTokenCodec("test-access-secret", "wrong-refresh-secret", 15*time.Minute, 168*time.Hour)
	refreshToken, err := forged.SignRefresh("user-1", "ref-1")
	require.NoError(t, err)

	result, err := svc.RefreshAccessToken(context.Background(), refreshToken)

	assert.Nil(t, result)
	require.Error(t, err)
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "INVALID_REFRESH", appErr.Code)
	sessions.AssertNotCalled(t, "GetRefresh")
}

func TestRefreshAccessToken_SubjectMismatch(t *testing.T) {
	users := new(mockUserRepository)
	sessions := new(mockSessionStore)
	svc := newTestService(users, sessions)
	ctx := context.Background()

	refreshToken, err := newTestCodec().SignRefresh("user-1", "ref-1")
	require.NoError(t, err)

	// The record belongs to somebody else.
	sessions.On("GetRefresh", ctx, "ref-1").Return("user-2", nil)

	result, err := svc.RefreshAccessToken(ctx, refreshToken)

	assert.Nil(t, result)
	require.Error(t, err)
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "INVALID_REFRESH", appErr.Code)
}

func TestRefreshAccessToken_StoreDown(t *testing.T) {
	users := new(mockUserRepository)
	sessions := new(mockSessionStore)
	svc := newTestService(users, sessions)
	ctx := context.Background()

	refreshToken, err := newTestCodec().SignRefresh("user-1", "ref-1")
	require.NoError(t, err)

	sessions.On("GetRefresh", ctx, "ref-1").Return("", fmt.Errorf("redis get refresh: connection refused"))

	result, err := svc.RefreshAccessToken(ctx, refreshToken)

	assert.Nil(t, result)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrServiceUnavail))
}

// --- Logout ---

func TestLogout_RevokesBothRecords(t *testing.T) {
	users := new(mockUserRepository)
	sessions := new(mockSessionStore)
	svc := newTestService(users, sessions)
	ctx := context.Background()

	codec := newTestCodec()
	accessToken, err := codec.SignAccess("user-1", "sess-1")
	require.NoError(t, err)
	refreshToken, err := codec.SignRefresh("user-1", "ref-1")
	require.NoError(t, err)

	sessions.On("DeleteSession", ctx, "sess-1", "user-1").Return(nil)
	sessions.On("DeleteRefresh", ctx, "ref-1", "user-1").Return(nil)

	err = svc.Logout(ctx, accessToken, refreshToken)

	assert.NoError(t, err)
	sessions.AssertExpectations(t)
}

func TestLogout_ExpiredAccessTokenStillRevokes(t *testing.T) {
	users := new(mockUserRepository)
	sessions := new(mockSessionStore)
	svc := newTestService(users, sessions)
	ctx := context.Background()

	// Sign an already-expired access token with the right secret.
	expired := auth.NewTokenCodec("test-access-secret", "test-refresh-secret", -1*time.Minute, 168*time.Hour)
	accessToken, err := expired.SignAccess("user-1", "sess-1")
	require.NoError(t, err)

	sessions.On("DeleteSession", ctx, "sess-1", "user-1").Return(nil)

	err = svc.Logout(ctx, accessToken, "")

	assert.NoError(t, err)
	sessions.AssertExpectations(t)
}

func TestLogout_GarbageTokens(t *testing.T) {
	users := new(mockUserRepository)
	sessions := new(mockSessionStore)
	svc := newTestService(users, sessions)

	err := svc.Logout(context.Background(), "not-a-jwt", "also-not-a-jwt")

	assert.NoError(t, err)
	sessions.AssertNotCalled(t, "DeleteSession")
	sessions.AssertNotCalled(t, "DeleteRefresh")
}

func TestLogout_StoreDown(t *testing.T) {
	users := new(mockUserRepository)
	sessions := new(mockSessionStore)
	svc := newTestService(users, sessions)
	ctx := context.Background()

	accessToken, err := newTestCodec().SignAccess("user-1", "sess-1")
	require.NoError(t, err)

	sessions.On("DeleteSession", ctx, "sess-1", "user-1").
		Return(fmt.Errorf("redis del session: connection refused"))

	err = svc.Logout(ctx, accessToken, "")

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrServiceUnavail))
}

// --- LogoutAll ---

func TestLogoutAll(t *testing.T) {
	users := new(mockUserRepository)
	sessions := new(mockSessionStore)
	svc := newTestService(users, sessions)
	ctx := context.Background()

	sessions.On("DeleteAllForUser", ctx, "user-1").Return(nil)

	err := svc.LogoutAll(ctx, "user-1")

	assert.NoError(t, err)
	sessions.AssertExpectations(t)
}

func TestLogoutAll_StoreDown(t *testing.T) {
	users := new(mockUserRepository)
	sessions := new(mockSessionStore)
	svc := newTestService(users, sessions)
	ctx := context.Background()

	sessions.On("DeleteAllForUser", ctx, "user-1").
		Return(fmt.Errorf("redis del user records: connection refused"))

	err := svc.LogoutAll(ctx, "user-1")

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrServiceUnavail))
}

// --- ValidateAccessToken ---

func TestValidateAccessToken_Valid(t *testing.T) {
	users := new(mockUserRepository)
	sessions := new(mockSessionStore)
	svc := newTestService(users, sessions)
	ctx := context.Background()
	user := testUser()

	accessToken, err := newTestCodec().SignAccess(user.ID, "sess-1")
	require.NoError(t, err)

	sessions.On("GetSession", ctx, "sess-1").Return(user.ID, nil)
	users.On("GetByID", ctx, user.ID).Return(user, nil)

	claims, err := svc.ValidateAccessToken(ctx, accessToken)

	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "sess-1", claims.SessionID)
	assert.Equal(t, domain.RoleUser, claims.Role)
}

func TestValidateAccessToken_RevokedSession(t *testing.T) {
	users := new(mockUserRepository)
	sessions := new(mockSessionStore)
	svc := newTestService(users, sessions)
	ctx := context.Background()

	accessToken, err := newTestCodec().SignAccess("user-1", "sess-gone")
	require.NoError(t, err)

	sessions.On("GetSession", ctx, "sess-gone").Return("", apperrors.ErrNotFound)

	claims, err := svc.ValidateAccessToken(ctx, accessToken)

	assert.Nil(t, claims)
	require.Error(t, err)
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "SESSION_REVOKED", appErr.Code)
}

func TestValidateAccessToken_SubjectMismatch(t *testing.T) {
	users := new(mockUserRepository)
	sessions := new(mockSessionStore)
	svc := newTestService(users, sessions)
	ctx := context.Background()

	accessToken, err := newTestCodec().SignAccess("user-1", "sess-1")
	require.NoError(t, err)

	sessions.On("GetSession", ctx, "sess-1").Return("user-2", nil)

	claims, err := svc.ValidateAccessToken(ctx, accessToken)

	assert.Nil(t, claims)
	require.Error(t, err)
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "SESSION_REVOKED", appErr.Code)
}

func TestValidateAccessToken_BadToken(t *testing.T) {
	users := new(mockUserRepository)
	sessions := new(mockSessionStore)
	svc := newTestService(users, sessions)

	claims, err := svc.ValidateAccessToken(context.Background(), "not-a-jwt")

	assert.Nil(t, claims)
	require.Error(t, err)
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "INVALID_TOKEN", appErr.Code)
	sessions.AssertNotCalled(t, "GetSession")
}

func TestValidateAccessToken_StoreDown(t *testing.T) {
	users := new(mockUserRepository)
	sessions := new(mockSessionStore)
	svc := newTestService(users, sessions)
	ctx := context.Background()

	accessToken, err := newTestCodec().SignAccess("user-1", "sess-1")
	require.NoError(t, err)

	sessions.On("GetSession", ctx, "sess-1").Return("", fmt.Errorf("redis get session: connection refused"))

	claims, err := svc.ValidateAccessToken(ctx, accessToken)

	assert.Nil(t, claims)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrServiceUnavail))
}
