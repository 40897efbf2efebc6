package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aakamshpm/unicode/internal/domain"
	"github.com/aakamshpm/unicode/internal/service"
	"github.com/aakamshpm/unicode/pkg/health"
	"github.com/aakamshpm/unicode/pkg/middleware"
)

// NewRouter creates a chi router with all auth service routes registered.
func NewRouter(
	authHandler *AuthHandler,
	authService *service.AuthService,
	healthHandler *health.Handler,
	logger *slog.Logger,
	corsConfig middleware.CORSConfig,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(corsConfig))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("auth"))
	r.Use(middleware.Tracing("auth"))
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	r.Route("/api/auth", func(r chi.Router) {
		// Browser-facing OAuth flow
		r.Get("/github", authHandler.GitHubLogin)
		r.Get("/github/callback", authHandler.GitHubCallback)

		// Public JSON endpoints
		r.Group(func(r chi.Router) {
			r.Use(ContentTypeJSON)

			r.Post("/complete-signup", authHandler.CompleteSignup)
			r.Post("/refresh", authHandler.Refresh)
			r.Post("/logout", authHandler.Logout)
		})

		// Authenticated endpoints
		r.Group(func(r chi.Router) {
			r.Use(ContentTypeJSON)
			r.Use(middleware.Auth(authService.ValidateAccessToken))

			r.Get("/me", authHandler.Me)
			r.Post("/logout-all", authHandler.LogoutAll)

			// Admin-only surface
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(domain.RoleAdmin))

				r.Get("/users/{id}", authHandler.GetUser)
			})
		})
	})

	return r
}
