// Package router assembles the HTTP surface: public auth/health/metrics
// endpoints and the JWT-protected admin API.
package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/studiobelle/agenda/internal/appointments"
	"github.com/studiobelle/agenda/internal/auth"
	"github.com/studiobelle/agenda/internal/customers"
	"github.com/studiobelle/agenda/internal/finance"
	httpmiddleware "github.com/studiobelle/agenda/internal/http/middleware"
	"github.com/studiobelle/agenda/internal/procedures"
	"github.com/studiobelle/agenda/internal/suggest"
	"github.com/studiobelle/agenda/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger              *logging.Logger
	AuthHandler         *auth.Handler
	ProceduresHandler   *procedures.Handler
	CustomersHandler    *customers.Handler
	AppointmentsHandler *appointments.Handler
	FinanceHandler      *finance.Handler
	SuggestHandler      *suggest.Handler
	MetricsHandler      http.Handler
	AdminAuthSecret     string
	CORSAllowedOrigins  []string
}

// New creates the chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints.
	r.Group(func(public chi.Router) {
		public.Get("/health", healthCheck)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.AuthHandler != nil {
			public.With(httpmiddleware.RateLimit(1, 5)).Post("/auth/login", cfg.AuthHandler.Login)
		}
	})

	// Admin API, JWT-protected.
	r.Route("/api", func(api chi.Router) {
		api.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
		if cfg.ProceduresHandler != nil {
			api.Mount("/procedures", cfg.ProceduresHandler.Routes())
		}
		if cfg.CustomersHandler != nil {
			api.Mount("/customers", cfg.CustomersHandler.Routes())
		}
		if cfg.AppointmentsHandler != nil {
			api.Mount("/appointments", cfg.AppointmentsHandler.Routes())
		}
		if cfg.FinanceHandler != nil {
			api.Mount("/finance", cfg.FinanceHandler.Routes())
		}
		if cfg.SuggestHandler != nil {
			api.Mount("/suggest", cfg.SuggestHandler.Routes())
		}
	})

	return r
}

func healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
