package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setEnvs is a helper that sets multiple env vars for the test's duration.
func setEnvs(t *testing.T, envs map[string]string) {
	t.Helper()
	for k, v := range envs {
		t.Setenv(k, v)
	}
}

func strongSecret(seed string) string {
	return seed + strings.Repeat("x", 32)
}

func TestLoad_Defaults(t *testing.T) {
	setEnvs(t, map[string]string{
		"ENVIRONMENT": "development",
	})

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Environment)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, 8001, cfg.HTTPPort)
	assert.Equal(t, 15*time.Minute, cfg.JWTAccessExpiry)
	assert.Equal(t, 168*time.Hour, cfg.JWTRefreshExpiry)
	assert.Equal(t, 24*time.Hour, cfg.RefreshGracePeriod)
	assert.Equal(t, 5*time.Minute, cfg.TempTokenExpiry)
}

func TestLoad_Development_AcceptsDefaultSecrets(t *testing.T) {
	setEnvs(t, map[string]string{
		"ENVIRONMENT": "development",
	})

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "change-this-to-a-secure-secret", cfg.JWTAccessSecret)
	assert.Equal(t, "change-this-to-another-secret", cfg.JWTRefreshSecret)
}

func TestLoad_Production_RejectsDefaultSecrets(t *testing.T) {
	setEnvs(t, map[string]string{
		"ENVIRONMENT": "production",
	})

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be explicitly set")
}

func TestLoad_Production_RejectsShortSecret(t *testing.T) {
	setEnvs(t, map[string]string{
		"ENVIRONMENT":        "production",
		"JWT_ACCESS_SECRET":  "short",
		"JWT_REFRESH_SECRET": strongSecret("refresh"),
	})

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 32 characters")
}

func TestLoad_Production_RejectsSharedSecret(t *testing.T) {
	shared := strongSecret("shared")
	setEnvs(t, map[string]string{
		"ENVIRONMENT":        "production",
		"JWT_ACCESS_SECRET":  shared,
		"JWT_REFRESH_SECRET": shared,
	})

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must differ")
}

func TestLoad_Production_AcceptsStrongSecrets(t *testing.T) {
	setEnvs(t, map[string]string{
		"ENVIRONMENT":        "production",
		"JWT_ACCESS_SECRET":  strongSecret("access"),
		"JWT_REFRESH_SECRET": strongSecret("refresh"),
	})

	cfg, err := Load()

	require.NoError(t, err)
	assert.False(t, cfg.IsDevelopment())
}

func TestLoad_RejectsGraceLongerThanRefresh(t *testing.T) {
	setEnvs(t, map[string]string{
		"ENVIRONMENT":              "development",
		"JWT_REFRESH_TOKEN_EXPIRY": "12h",
		"REFRESH_GRACE_PERIOD":     "24h",
	})

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "grace period")
}

func TestLoad_RejectsInvalidPort(t *testing.T) {
	setEnvs(t, map[string]string{
		"ENVIRONMENT":    "development",
		"AUTH_HTTP_PORT": "0",
	})

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid HTTP port")
}

func TestPostgresDSN(t *testing.T) {
	setEnvs(t, map[string]string{
		"ENVIRONMENT":       "development",
		"POSTGRES_HOST":     "db.internal",
		"POSTGRES_PORT":     "5433",
		"POSTGRES_USER":     "svc",
		"POSTGRES_PASSWORD": "pw",
		"AUTH_DB_NAME":      "auth",
		"POSTGRES_SSL_MODE": "require",
	})

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://svc:pw@db.internal:5433/auth?sslmode=require", cfg.PostgresDSN())
}
