package web

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/ulisescolosimo/scraping-alquileres/internal/core/port"
)

type ServerConfig struct {
	Port                string
	ListingsRequireAuth bool
	CORSAllowedOrigins  []string
}

// Handlers groups everything the router dispatches to.
type Handlers struct {
	Pages    *PageHandler
	Auth     *AuthHandler
	Events   *EventsHandler
	API      *PropertyAPIHandler
	Sessions *SessionMiddleware
}

type Server struct {
	httpServer *http.Server
	logger     port.LoggerPort
}

// NewRouter wires the routes and middleware of the web front end.
func NewRouter(cfg ServerConfig, h Handlers, baseLogger port.LoggerPort) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP, LoggerMiddleware(baseLogger), middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/static/*", http.StripPrefix("/static/", StaticFiles()))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.CORSAllowedOrigins,
			AllowedMethods: []string{"GET", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Trace-ID"},
			ExposedHeaders: []string{"X-Trace-ID"},
			MaxAge:         300,
		}))
		r.Get("/properties", h.API.ListProperties)
		r.Get("/properties/{propertyID}", h.API.GetProperty)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.Sessions.Handler)

		r.Get("/", h.Pages.Home)
		r.Get("/login", h.Auth.LoginForm)
		r.Post("/login", h.Auth.Login)
		r.Get("/register", h.Auth.RegisterForm)
		r.Post("/register", h.Auth.Register)
		r.Post("/logout", h.Auth.Logout)
		r.Get("/auth/events", h.Events.Subscribe)
		r.Get("/properties/{propertyID}", h.Pages.PropertyDetail)

		r.Group(func(r chi.Router) {
			if cfg.ListingsRequireAuth {
				r.Use(RequireUser(pathLogin))
			}
			r.Get("/properties", h.Pages.ListProperties)
		})
	})

	r.NotFound(h.Sessions.Handler(http.HandlerFunc(h.Pages.NotFound)).ServeHTTP)

	return r
}

func NewServer(cfg ServerConfig, h Handlers, baseLogger port.LoggerPort) *Server {
	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           NewRouter(cfg, h, baseLogger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	// SSE streams would otherwise hold Shutdown until its deadline
	httpServer.RegisterOnShutdown(h.Events.Close)

	return &Server{
		httpServer: httpServer,
		logger:     baseLogger,
	}
}

func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server", port.Fields{"address": s.httpServer.Addr})
	return s.httpServer.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping HTTP server...", nil)
	return s.httpServer.Shutdown(ctx)
}
