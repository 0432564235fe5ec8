package routes

import (
	"log/slog"
	"net/http"

	"github.com/BradenHooton/taskdesk/internal/auth"
	"github.com/BradenHooton/taskdesk/internal/config"
	"github.com/BradenHooton/taskdesk/internal/handlers"
	"github.com/BradenHooton/taskdesk/internal/middleware"
	pkghttp "github.com/BradenHooton/taskdesk/pkg/http"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Refresh and logout are cheaper to abuse than login, so they get a tighter fixed limit
const tokenEndpointsPerMinute = 5

// Dependencies bundles what the router needs to mount every endpoint
type Dependencies struct {
	AuthHandler   *handlers.AuthHandler
	HealthHandler *handlers.HealthHandler
	TaskHandler   *handlers.TaskHandler
	TokenManager  *auth.TokenManager
	Users         auth.UserRepository
	IPConfig      *pkghttp.IPConfig
	Logger        *slog.Logger
}

// NewRouter builds the application router with the hardening middleware stack
func NewRouter(cfg *config.Config, deps Dependencies) http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(middleware.SecureLogger(deps.Logger))
	router.Use(chimiddleware.Recoverer)

	if cfg.Server.IsProduction() && cfg.Server.HTTPSRedirectEnabled {
		router.Use(middleware.HTTPSRedirect())
	}
	if len(cfg.Server.TrustedHosts) > 0 {
		router.Use(middleware.TrustedHosts(cfg.Server.TrustedHosts))
	}
	if cfg.Server.SecurityHeadersEnabled {
		router.Use(middleware.SecurityHeaders(middleware.SecurityHeadersConfig{
			Production:     cfg.Server.IsProduction(),
			ReferrerPolicy: cfg.Server.ReferrerPolicy,
			HSTSMaxAge:     cfg.Server.HSTSMaxAge,
		}))
	}
	router.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.Server.AllowedOrigins)))

	RegisterRoutes(router, cfg, deps)
	return router
}

// RegisterRoutes mounts health, auth and task endpoints on router
func RegisterRoutes(router chi.Router, cfg *config.Config, deps Dependencies) {
	router.Get("/health", deps.HealthHandler.Live)
	router.Get("/health/live", deps.HealthHandler.Live)
	router.Get("/health/ready", deps.HealthHandler.Ready)

	credentialLimit := limiter(cfg, cfg.Auth.RateLimitAuthPerMinute, deps.IPConfig)
	tokenLimit := limiter(cfg, tokenEndpointsPerMinute, deps.IPConfig)

	router.Route("/auth", func(r chi.Router) {
		r.With(credentialLimit).Post("/register", deps.AuthHandler.Register)
		r.With(credentialLimit).Post("/login", deps.AuthHandler.Login)
		r.With(tokenLimit).Post("/refresh", deps.AuthHandler.Refresh)
		r.With(tokenLimit).Post("/logout", deps.AuthHandler.Logout)

		r.Group(func(r chi.Router) {
			r.Use(auth.AuthMiddleware(deps.TokenManager, deps.Users, deps.Logger))
			r.Get("/me", deps.AuthHandler.Me)
		})
	})

	router.Route("/tasks", func(r chi.Router) {
		r.Use(auth.AuthMiddleware(deps.TokenManager, deps.Users, deps.Logger))
		r.Post("/", deps.TaskHandler.Create)
		r.Get("/", deps.TaskHandler.List)
		r.Get("/{id}", deps.TaskHandler.Get)
		r.Patch("/{id}", deps.TaskHandler.Update)
	})
}

func limiter(cfg *config.Config, perMinute int, ipConfig *pkghttp.IPConfig) func(http.Handler) http.Handler {
	if !cfg.Auth.RateLimitEnabled || perMinute <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return middleware.RateLimitByIP(middleware.RateLimitConfig{
		RequestsPerMinute: perMinute,
		IPConfig:          ipConfig,
	})
}
