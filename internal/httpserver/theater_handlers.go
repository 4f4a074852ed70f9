package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"theaterops/theater-api/internal/audit"
	"theaterops/theater-api/internal/authz"
	"theaterops/theater-api/internal/theater"
)

var errBadID = errors.New("invalid theater id")

func registerTheaterHandlers(r chi.Router, deps Deps) {
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if deps.Theaters == nil {
				writeError(w, http.StatusServiceUnavailable, "theater service unavailable")
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		list, err := deps.Theaters.List(r.Context())
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	})

	r.Get("/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, err := theaterID(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		t, err := deps.Theaters.Get(r.Context(), id)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, t)
	})

	r.Post("/", func(w http.ResponseWriter, r *http.Request) {
		p := principalFrom(r)
		in, err := decodeInput(r)
		if err != nil {
			if _, authErr := deps.Theaters.Authorize(r.Context(), p, authz.Create, 0); authErr != nil {
				auditTheater(deps.Audit, r, "theater.create", "", authErr)
				writeServiceError(w, r, authErr)
				return
			}
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		t, err := deps.Theaters.Create(r.Context(), p, in)
		if err != nil {
			auditTheater(deps.Audit, r, "theater.create", "", err)
			writeServiceError(w, r, err)
			return
		}
		auditTheater(deps.Audit, r, "theater.create", theaterTarget(t.ID), nil)
		w.Header().Set("Location", fmt.Sprintf("/api/theaters/%d", t.ID))
		writeJSON(w, http.StatusCreated, t)
	})

	r.Put("/{id}", func(w http.ResponseWriter, r *http.Request) {
		p := principalFrom(r)
		if p == nil {
			writeServiceError(w, r, theater.ErrUnauthenticated)
			return
		}
		id, err := theaterID(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		in, err := decodeInput(r)
		if err != nil {
			if _, authErr := deps.Theaters.Authorize(r.Context(), p, authz.Update, id); authErr != nil {
				auditTheater(deps.Audit, r, "theater.update", theaterTarget(id), authErr)
				writeServiceError(w, r, authErr)
				return
			}
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		t, err := deps.Theaters.Update(r.Context(), p, id, in)
		if err != nil {
			auditTheater(deps.Audit, r, "theater.update", theaterTarget(id), err)
			writeServiceError(w, r, err)
			return
		}
		auditTheater(deps.Audit, r, "theater.update", theaterTarget(id), nil)
		writeJSON(w, http.StatusOK, t)
	})

	r.Delete("/{id}", func(w http.ResponseWriter, r *http.Request) {
		p := principalFrom(r)
		if p == nil {
			writeServiceError(w, r, theater.ErrUnauthenticated)
			return
		}
		id, err := theaterID(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := deps.Theaters.Delete(r.Context(), p, id); err != nil {
			auditTheater(deps.Audit, r, "theater.delete", theaterTarget(id), err)
			writeServiceError(w, r, err)
			return
		}
		auditTheater(deps.Audit, r, "theater.delete", theaterTarget(id), nil)
		w.WriteHeader(http.StatusOK)
	})
}

func theaterID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		return 0, errBadID
	}
	return id, nil
}

func decodeInput(r *http.Request) (theater.Input, error) {
	var in theater.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		return theater.Input{}, err
	}
	return in, nil
}

func theaterTarget(id int) string {
	if id <= 0 {
		return ""
	}
	return "theater:" + strconv.Itoa(id)
}

// auditTheater records a mutation attempt. Client errors other than
// authorization failures are not audited.
func auditTheater(a AuditLogger, r *http.Request, action, target string, err error) {
	actor := actorName(principalFrom(r))
	switch {
	case err == nil:
		auditReq(a, r, actor, action, target, audit.OutcomeSuccess, "")
	case errors.Is(err, theater.ErrUnauthenticated), errors.Is(err, theater.ErrForbidden):
		auditReq(a, r, actor, action, target, audit.OutcomeDenied, err.Error())
	case !theater.IsClientError(err):
		auditReq(a, r, actor, action, target, audit.OutcomeFailure, err.Error())
	}
}
