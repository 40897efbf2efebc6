package http

import (
	"net/http"
	"time"
)

// Cookie names used by the auth transport. Tokens travel as HttpOnly cookies
// so browser scripts never see them.
const (
	accessTokenCookie  = "access_token"
	refreshTokenCookie = "refresh_token"
	tempTokenCookie    = "temp_token"
	oauthStateCookie   = "oauth_state"
)

// authRoutePath scopes the refresh and temp token cookies to the auth routes
// so they are not sent with every API call.
const authRoutePath = "/api/auth"

// CookieConfig controls the attributes of the cookies the handlers issue.
// Secure is off only in development, where the frontend runs on plain http.
type CookieConfig struct {
	Secure        bool
	AccessMaxAge  time.Duration
	RefreshMaxAge time.Duration
	TempMaxAge    time.Duration
}

func (c CookieConfig) base(name, value, path string, maxAge time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (c CookieConfig) accessCookie(token string) *http.Cookie {
	return c.base(accessTokenCookie, token, "/", c.AccessMaxAge)
}

func (c CookieConfig) refreshCookie(token string) *http.Cookie {
	return c.base(refreshTokenCookie, token, authRoutePath, c.RefreshMaxAge)
}

func (c CookieConfig) tempCookie(token string) *http.Cookie {
	return c.base(tempTokenCookie, token, authRoutePath, c.TempMaxAge)
}

func (c CookieConfig) stateCookie(state string) *http.Cookie {
	return c.base(oauthStateCookie, state, authRoutePath, 10*time.Minute)
}

// clear returns an expired copy of the named cookie so browsers drop it.
func (c CookieConfig) clear(name, path string) *http.Cookie {
	cookie := c.base(name, "", path, 0)
	cookie.MaxAge = -1
	return cookie
}

func (c CookieConfig) setAuthCookies(w http.ResponseWriter, accessToken, refreshToken string) {
	http.SetCookie(w, c.accessCookie(accessToken))
	http.SetCookie(w, c.refreshCookie(refreshToken))
}

func (c CookieConfig) clearAuthCookies(w http.ResponseWriter) {
	http.SetCookie(w, c.clear(accessTokenCookie, "/"))
	http.SetCookie(w, c.clear(refreshTokenCookie, authRoutePath))
}

func cookieValue(r *http.Request, name string) string {
	if cookie, err := r.Cookie(name); err == nil {
		return cookie.Value
	}
	return ""
}
