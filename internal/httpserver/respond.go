package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"theaterops/theater-api/internal/auth"
	"theaterops/theater-api/internal/theater"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps theater service errors to responses. Unexpected
// errors are logged and reported without detail.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *theater.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":  "validation failed",
			"fields": verr.Fields,
		})
	case errors.Is(err, theater.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid theater input")
	case errors.Is(err, theater.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, "authentication required")
	case errors.Is(err, theater.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, theater.ErrNotFound):
		writeError(w, http.StatusNotFound, "theater not found")
	default:
		loggerFrom(r).Error().Err(err).Msg("theater request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func actorName(p *auth.Principal) string {
	if p == nil {
		return "anonymous"
	}
	return p.Username
}

func auditReq(a AuditLogger, r *http.Request, actor, action, target, outcome, detail string) {
	parts := []string{
		"rid=" + requestIDFromContext(r.Context()),
		"ip=" + clientIP(r),
	}
	if ua := strings.TrimSpace(r.UserAgent()); ua != "" {
		parts = append(parts, "ua="+ua)
	}
	if strings.TrimSpace(detail) != "" {
		parts = append(parts, "detail="+strings.TrimSpace(detail))
	}
	auditSafe(a, r, actor, action, target, outcome, strings.Join(parts, " | "))
}

func auditSafe(a AuditLogger, r *http.Request, actor, action, target, outcome, detail string) {
	if a == nil {
		return
	}
	if err := a.Log(actor, action, target, outcome, detail); err != nil {
		loggerFrom(r).Warn().Err(err).Str("action", action).Msg("audit write failed")
	}
}
