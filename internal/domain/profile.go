package domain

// OAuthProfile is the identity assertion resolved from the external OAuth
// provider. AvatarURL is genuinely optional; Email may be empty when the
// provider account has no public email, which callers must reject.
type OAuthProfile struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}
