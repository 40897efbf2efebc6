package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/aakamshpm/unicode/internal/oauth"
	"github.com/aakamshpm/unicode/internal/service"
	apperrors "github.com/aakamshpm/unicode/pkg/errors"
	"github.com/aakamshpm/unicode/pkg/httputil"
	"github.com/aakamshpm/unicode/pkg/middleware"
	"github.com/aakamshpm/unicode/pkg/validator"
)

// AuthHandler handles HTTP requests for the auth endpoints. Tokens are
// carried in HttpOnly cookies; browser flows end in redirects back to the
// frontend, API flows in JSON.
type AuthHandler struct {
	service     *service.AuthService
	github      *oauth.GitHubClient
	cookies     CookieConfig
	frontendURL string
	logger      *slog.Logger
}

// NewAuthHandler creates a new auth HTTP handler.
func NewAuthHandler(
	svc *service.AuthService,
	github *oauth.GitHubClient,
	cookies CookieConfig,
	frontendURL string,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		service:     svc,
		github:      github,
		cookies:     cookies,
		frontendURL: frontendURL,
		logger:      logger,
	}
}

// --- Request DTOs ---

// CompleteSignupRequest is the JSON request body for completing registration.
type CompleteSignupRequest struct {
	Username string `json:"username" validate:"required,min=3,max=30,username"`
}

// --- Handlers ---

// GitHubLogin handles GET /api/auth/github. It parks an anti-forgery state in
// a cookie and sends the browser to GitHub's authorization page.
func (h *AuthHandler) GitHubLogin(w http.ResponseWriter, r *http.Request) {
	state := uuid.New().String()
	http.SetCookie(w, h.cookies.stateCookie(state))
	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// GitHubCallback handles GET /api/auth/github/callback. Existing accounts get
// session cookies and land on the frontend; new accounts get a temp token
// cookie and land on the signup completion page.
func (h *AuthHandler) GitHubCallback(w http.ResponseWriter, r *http.Request) {
	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.WarnContext(r.Context(), "oauth authorization denied",
			slog.String("error", errParam),
		)
		h.redirectWithError(w, r, "oauth_denied")
		return
	}

	state := r.URL.Query().Get("state")
	code := r.URL.Query().Get("code")
	if state == "" || code == "" || state != cookieValue(r, oauthStateCookie) {
		h.redirectWithError(w, r, "oauth_failed")
		return
	}
	http.SetCookie(w, h.cookies.clear(oauthStateCookie, authRoutePath))

	profile, err := h.github.FetchProfile(r.Context(), code)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "github profile fetch failed",
			slog.String("error", err.Error()),
		)
		h.redirectWithError(w, r, "oauth_failed")
		return
	}

	result, err := h.service.HandleOAuthCallback(r.Context(), profile)
	if err != nil {
		h.logger.WarnContext(r.Context(), "oauth callback rejected",
			slog.String("error", err.Error()),
		)
		if errors.Is(err, apperrors.ErrInvalidInput) {
			h.redirectWithError(w, r, "missing_email")
		} else {
			h.redirectWithError(w, r, "oauth_failed")
		}
		return
	}

	if result.NewUser {
		http.SetCookie(w, h.cookies.tempCookie(result.TempToken))
		http.Redirect(w, r, h.frontendURL+"/auth/complete-signup", http.StatusTemporaryRedirect)
		return
	}

	h.cookies.setAuthCookies(w, result.Tokens.AccessToken, result.Tokens.RefreshToken)
	http.Redirect(w, r, h.frontendURL+"/auth/callback?status=success", http.StatusTemporaryRedirect)
}

// CompleteSignup handles POST /api/auth/complete-signup. The temp token rides
// on its cookie; the chosen username comes in the body.
func (h *AuthHandler) CompleteSignup(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req CompleteSignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	tempToken := cookieValue(r, tempTokenCookie)

	user, tokens, err := h.service.CompleteRegistration(r.Context(), tempToken, req.Username)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	http.SetCookie(w, h.cookies.clear(tempTokenCookie, authRoutePath))
	h.cookies.setAuthCookies(w, tokens.AccessToken, tokens.RefreshToken)

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: user})
}

// Refresh handles POST /api/auth/refresh. A new access cookie is always set;
// the refresh cookie is replaced only when the record was renewed inside the
// grace window.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	refreshToken := cookieValue(r, refreshTokenCookie)
	if refreshToken == "" {
		httputil.WriteJSON(w, http.StatusUnauthorized, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_REFRESH", Message: "missing refresh token"},
		})
		return
	}

	result, err := h.service.RefreshAccessToken(r.Context(), refreshToken)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	http.SetCookie(w, h.cookies.accessCookie(result.AccessToken))
	if result.Renewed {
		http.SetCookie(w, h.cookies.refreshCookie(result.RefreshToken))
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: map[string]bool{"renewed": result.Renewed},
	})
}

// Logout handles POST /api/auth/logout. It revokes whatever token cookies the
// request carries and clears them either way.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	accessToken := cookieValue(r, accessTokenCookie)
	refreshToken := cookieValue(r, refreshTokenCookie)

	if err := h.service.Logout(r.Context(), accessToken, refreshToken); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.cookies.clearAuthCookies(w)
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: map[string]string{"message": "logged out"},
	})
}

// LogoutAll handles POST /api/auth/logout-all. Requires authentication; it
// revokes every session of the calling user.
func (h *AuthHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	if err := h.service.LogoutAll(r.Context(), userID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.cookies.clearAuthCookies(w)
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: map[string]string{"message": "all sessions revoked"},
	})
}

// Me handles GET /api/auth/me. Returns the authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	user, err := h.service.GetUser(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: user})
}

// GetUser handles GET /api/auth/users/{id}. Admin-only lookup of any account.
func (h *AuthHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: user})
}

func (h *AuthHandler) redirectWithError(w http.ResponseWriter, r *http.Request, code string) {
	http.Redirect(w, r, h.frontendURL+"/login?error="+url.QueryEscape(code), http.StatusTemporaryRedirect)
}
