package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"theaterops/theater-api/internal/audit"
	"theaterops/theater-api/internal/auth"
)

type loginRequest struct {
	Username string `json:"userName"`
	Password string `json:"password"`
}

func registerAuthHandlers(r chi.Router, deps Deps) {
	r.Post("/login", func(w http.ResponseWriter, r *http.Request) {
		if deps.Auth == nil {
			writeError(w, http.StatusServiceUnavailable, "auth service unavailable")
			return
		}

		// Every failure is reported the same way so the response does not
		// reveal whether the username exists.
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "login failed")
			return
		}
		p, value, err := deps.Auth.Login(r.Context(), req.Username, req.Password)
		if err != nil {
			if !errors.Is(err, auth.ErrInvalidCredentials) {
				loggerFrom(r).Error().Err(err).Msg("login failed")
			}
			auditReq(deps.Audit, r, req.Username, "auth.login", "", audit.OutcomeFailure, "invalid credentials")
			writeError(w, http.StatusBadRequest, "login failed")
			return
		}

		http.SetCookie(w, deps.Auth.SessionCookie(value))
		auditReq(deps.Audit, r, p.Username, "auth.login", "", audit.OutcomeSuccess, "")
		writeJSON(w, http.StatusOK, p)
	})

	r.Get("/me", func(w http.ResponseWriter, r *http.Request) {
		p := principalFrom(r)
		if p == nil {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		writeJSON(w, http.StatusOK, p)
	})

	r.Post("/logout", func(w http.ResponseWriter, r *http.Request) {
		if deps.Auth != nil {
			if c := deps.Auth.Logout(r); c != nil {
				http.SetCookie(w, c)
				auditReq(deps.Audit, r, actorName(principalFrom(r)), "auth.logout", "", audit.OutcomeSuccess, "")
			}
		}
		w.WriteHeader(http.StatusOK)
	})
}
