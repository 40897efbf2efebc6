package domain

import (
	"time"
)

// User represents a registered user in the platform.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	DisplayName  string    `json:"display_name,omitempty"`
	AvatarURL    string    `json:"avatar_url,omitempty"`
	AuthProvider string    `json:"auth_provider"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	EasySolved   int       `json:"easy_solved"`
	MediumSolved int       `json:"medium_solved"`
	HardSolved   int       `json:"hard_solved"`
	CreatedAt    time.Time `json:"created_at"`
	LastLoginAt  time.Time `json:"last_login_at"`
}

// IsAdmin reports whether the user holds the admin role. Admins manage
// problems but do not solve them.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// TokenPair holds a signed access and refresh token pair.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
