package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"theaterops/theater-api/internal/auth"
	"theaterops/theater-api/internal/authz"
	"theaterops/theater-api/internal/config"
	"theaterops/theater-api/internal/theater"
)

type Authenticator interface {
	Authenticate(jar auth.CookieJar) auth.Outcome
	Login(ctx context.Context, username, password string) (auth.Principal, string, error)
	SessionCookie(value string) *http.Cookie
	Logout(jar auth.CookieJar) *http.Cookie
}

type TheaterService interface {
	List(ctx context.Context) ([]theater.Theater, error)
	Get(ctx context.Context, id int) (theater.Theater, error)
	Authorize(ctx context.Context, p *auth.Principal, action authz.Action, id int) (theater.Theater, error)
	Create(ctx context.Context, p *auth.Principal, in theater.Input) (theater.Theater, error)
	Update(ctx context.Context, p *auth.Principal, id int, in theater.Input) (theater.Theater, error)
	Delete(ctx context.Context, p *auth.Principal, id int) error
}

type AuditLogger interface {
	Log(actor, action, target, outcome, detail string) error
}

type Deps struct {
	Auth     Authenticator
	Theaters TheaterService
	Audit    AuditLogger
	Logger   zerolog.Logger
	// Ready reports whether backing stores are reachable. Nil means always
	// ready.
	Ready       func(ctx context.Context) error
	CORSOrigins []string
}

type Server struct {
	httpServer *http.Server
}

func New(cfg config.HTTPConfig, deps Deps) *Server {
	if deps.CORSOrigins == nil {
		deps.CORSOrigins = cfg.CORSAllowedOrigins
	}
	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.Addr,
			Handler:      NewHandler(deps),
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  60 * time.Second,
		},
	}
}

func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(requestLogger(deps.Logger))
	r.Use(middleware.Recoverer)
	if len(deps.CORSOrigins) > 0 {
		r.Use(cors.Handler(corsOptions(deps.CORSOrigins)))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if deps.Ready != nil {
			if err := deps.Ready(r.Context()); err != nil {
				loggerFrom(r).Warn().Err(err).Msg("readiness check failed")
				writeError(w, http.StatusServiceUnavailable, "not ready")
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})

	r.Route("/api", func(r chi.Router) {
		if deps.Auth != nil {
			r.Use(withPrincipal(deps.Auth))
		}
		r.Route("/authentication", func(r chi.Router) {
			registerAuthHandlers(r, deps)
		})
		r.Route("/theaters", func(r chi.Router) {
			registerTheaterHandlers(r, deps)
		})
	})

	return r
}

func corsOptions(origins []string) cors.Options {
	return cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Location", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}
}

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
