package httpserver

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"theaterops/theater-api/internal/auth"
	"theaterops/theater-api/internal/logutil"
)

type (
	ctxKey byte
)

const (
	requestIDKey ctxKey = iota + 1
	principalKey
)

// requestLogger assigns a request id, stores a request-scoped logger in the
// context and writes one access log line per request.
func requestLogger(base zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := strings.TrimSpace(r.Header.Get("X-Request-Id"))
			if reqID == "" {
				reqID = uuid.NewString()
			}
			w.Header().Set("X-Request-Id", reqID)

			logger := base.With().Str("request_id", reqID).Logger()
			ctx := context.WithValue(r.Context(), requestIDKey, reqID)
			ctx = logutil.WithLogger(ctx, logger)
			r = r.WithContext(ctx)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			logger.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", status).
				Int("bytes", ww.BytesWritten()).
				Str("remote", clientIP(r)).
				Dur("duration", time.Since(start)).
				Msg("request")
		})
	}
}

// withPrincipal resolves the session cookie once per request. Rejected
// cookies are treated as anonymous.
func withPrincipal(a Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			outcome := a.Authenticate(r)
			if outcome.Kind == auth.Rejected {
				loggerFrom(r).Debug().Err(outcome.Err).Msg("session cookie rejected")
			}
			if p := outcome.Principal(); p != nil {
				r = r.WithContext(context.WithValue(r.Context(), principalKey, p))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func principalFrom(r *http.Request) *auth.Principal {
	p, _ := r.Context().Value(principalKey).(*auth.Principal)
	return p
}

func loggerFrom(r *http.Request) *zerolog.Logger {
	l := logutil.GetOrDefault(r.Context())
	return &l
}

func requestIDFromContext(ctx context.Context) string {
	s, _ := ctx.Value(requestIDKey).(string)
	return s
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}
