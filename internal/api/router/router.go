package router

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/connectcom-support/internal/auth"
	httpmiddleware "github.com/wolfman30/connectcom-support/internal/http/middleware"
	"github.com/wolfman30/connectcom-support/internal/webchat"
	"github.com/wolfman30/connectcom-support/pkg/logging"
)

// HealthCheck reports whether a dependency is usable.
type HealthCheck func(ctx context.Context) error

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	Chat               *webchat.Handler
	Verifier           *auth.Verifier
	RateLimiter        *httpmiddleware.RateLimiter
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
	// Checks are run by /health; any failure reports "degraded".
	Checks map[string]HealthCheck
}

// New creates the chi router for the support chat API.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Group(func(public chi.Router) {
		public.Get("/health", healthHandler(cfg.Checks))
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	if cfg.Chat != nil {
		r.Group(func(chatRoutes chi.Router) {
			chatRoutes.Use(httpmiddleware.Credentials(cfg.Verifier, cfg.Logger))
			if cfg.RateLimiter != nil {
				chatRoutes.Use(httpmiddleware.RateLimit(cfg.RateLimiter))
			}
			cfg.Chat.Routes(chatRoutes)
		})
	}

	return r
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		resp := map[string]string{"status": "ok"}
		for name, check := range checks {
			if err := check(r.Context()); err != nil {
				status = http.StatusServiceUnavailable
				resp["status"] = "degraded"
				resp[name] = err.Error()
				continue
			}
			resp[name] = "ok"
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(resp)
	}
}
