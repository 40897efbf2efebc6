package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "unicode-auth"

// AccessClaims are the JWT claims carried by an access token. SessionID
// correlates the token with its revocable store record.
type AccessClaims struct {
	SessionID string `json:"session_id"`
	jwt.RegisteredClaims
}

// RefreshClaims are the JWT claims carried by a refresh token. RefreshID
// correlates the token with its revocable store record.
type RefreshClaims struct {
	RefreshID string `json:"refresh_id"`
	jwt.RegisteredClaims
}

// TokenCodec signs and verifies access and refresh tokens. The two classes
// use independent secrets and lifetimes, so a refresh token presented as an
// access token (or vice versa) always fails verification.
type TokenCodec struct {
	accessSecret  []byte
	refreshSecret []byte
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

// NewTokenCodec creates a codec with the given per-class secrets and expiries.
func NewTokenCodec(accessSecret, refreshSecret string, accessExpiry, refreshExpiry time.Duration) *TokenCodec {
	return &TokenCodec{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
	}
}

// SignAccess creates a signed access token for the given user and session.
func (c *TokenCodec) SignAccess(userID, sessionID string) (string, error) {
	now := time.Now().UTC()
	claims := &AccessClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.accessExpiry)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.accessSecret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}

	return signed, nil
}

// SignRefresh creates a signed refresh token for the given user and refresh id.
func (c *TokenCodec) SignRefresh(userID, refreshID string) (string, error) {
	now := time.Now().UTC()
	claims := &RefreshClaims{
		RefreshID: refreshID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.refreshExpiry)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.refreshSecret)
	if err != nil {
		return "", fmt.Errorf("sign refresh token: %w", err)
	}

	return signed, nil
}

// VerifyAccess parses and validates an access token, returning its claims.
func (c *TokenCodec) VerifyAccess(tokenString string) (*AccessClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AccessClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return c.accessSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse access token: %w", err)
	}

	claims, ok := token.Claims.(*AccessClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid access token claims")
	}

	return claims, nil
}

// VerifyRefresh parses and validates a refresh token, returning its claims.
func (c *TokenCodec) VerifyRefresh(tokenString string) (*RefreshClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &RefreshClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return c.refreshSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse refresh token: %w", err)
	}

	claims, ok := token.Claims.(*RefreshClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid refresh token claims")
	}

	return claims, nil
}

// UnsafeDecodeAccess extracts the claims of an access token without verifying
// the signature. Only for tokens this process just signed, e.g. to read the
// session id back out of a freshly issued token.
func (c *TokenCodec) UnsafeDecodeAccess(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return nil, fmt.Errorf("decode access token: %w", err)
	}
	return claims, nil
}
