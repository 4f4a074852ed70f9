package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/steinfletcher/apitest"
	jsonpath "github.com/steinfletcher/apitest-jsonpath"

	"theaterops/theater-api/internal/auth"
	"theaterops/theater-api/internal/authz"
	"theaterops/theater-api/internal/theater"
)

const (
	adminCookie = "1%3Bgalkadi%3BAdmin"
	bobCookie   = "2%3Bbob%3BUser"
	sueCookie   = "3%3Bsue%3BUser"
)

type recordedEvent struct {
	actor, action, target, outcome string
}

type fakeAudit struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (f *fakeAudit) Log(actor, action, target, outcome, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedEvent{actor: actor, action: action, target: target, outcome: outcome})
	return nil
}

func (f *fakeAudit) last() recordedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.events) == 0 {
		return recordedEvent{}
	}
	return f.events[len(f.events)-1]
}

func newTestHandler(t *testing.T) (http.Handler, *fakeAudit) {
	t.Helper()
	ctx := context.Background()

	dir, err := auth.NewDirectory(auth.DefaultAccounts()...)
	if err != nil {
		t.Fatalf("NewDirectory() error: %v", err)
	}
	validator, err := auth.NewCredentialValidator(dir)
	if err != nil {
		t.Fatalf("NewCredentialValidator() error: %v", err)
	}
	authn, err := auth.NewAuthenticator(validator, auth.AuthenticatorConfig{})
	if err != nil {
		t.Fatalf("NewAuthenticator() error: %v", err)
	}

	store := theater.NewMemoryStore()
	if _, err := theater.Seed(ctx, store, dir); err != nil {
		t.Fatalf("Seed() error: %v", err)
	}
	svc, err := theater.NewService(store, dir)
	if err != nil {
		t.Fatalf("NewService() error: %v", err)
	}

	a := &fakeAudit{}
	return NewHandler(Deps{
		Auth:     authn,
		Theaters: svc,
		Audit:    a,
		Logger:   zerolog.Nop(),
	}), a
}

func TestHealthAndReadiness(t *testing.T) {
	h, _ := newTestHandler(t)
	apitest.Handler(h).Get("/healthz").Expect(t).Status(http.StatusOK).End()
	apitest.Handler(h).Get("/readyz").Expect(t).Status(http.StatusOK).End()

	notReady := NewHandler(Deps{
		Logger: zerolog.Nop(),
		Ready:  func(context.Context) error { return errors.New("db down") },
	})
	apitest.Handler(notReady).Get("/readyz").Expect(t).Status(http.StatusServiceUnavailable).End()
}

func TestRequestIDHeader(t *testing.T) {
	h, _ := newTestHandler(t)
	apitest.Handler(h).
		Get("/healthz").
		Header("X-Request-Id", "abc-123").
		Expect(t).
		Header("X-Request-Id", "abc-123").
		Status(http.StatusOK).
		End()
	apitest.Handler(h).Get("/healthz").Expect(t).HeaderPresent("X-Request-Id").End()
}

func TestLogin(t *testing.T) {
	h, a := newTestHandler(t)

	res := apitest.New().
		Handler(h).
		Post("/api/authentication/login").
		JSON(`{"userName":"GALKADI","password":"Test123!"}`).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal("$.id", float64(1))).
		Assert(jsonpath.Equal("$.userName", "galkadi")).
		Assert(jsonpath.Contains("$.roles", "Admin")).
		CookiePresent(auth.DefaultCookieName).
		End()

	var session *http.Cookie
	for _, c := range res.Response.Cookies() {
		if c.Name == auth.DefaultCookieName {
			session = c
		}
	}
	if session == nil {
		t.Fatalf("expected session cookie")
	}
	if session.Value != adminCookie {
		t.Fatalf("expected cookie value %q, got %q", adminCookie, session.Value)
	}
	if !session.HttpOnly || session.Path != "/" {
		t.Fatalf("unexpected cookie attributes: %+v", session)
	}
	if ev := a.last(); ev.action != "auth.login" || ev.outcome != "success" {
		t.Fatalf("unexpected audit event: %+v", ev)
	}
}

func TestLoginFailuresAreGeneric(t *testing.T) {
	h, a := newTestHandler(t)

	for _, body := range []string{
		`{"userName":"galkadi","password":"wrong"}`,
		`{"userName":"nobody","password":"Test123!"}`,
		`{not json`,
	} {
		apitest.New().
			Handler(h).
			Post("/api/authentication/login").
			Body(body).
			Header("Content-Type", "application/json").
			Expect(t).
			Status(http.StatusBadRequest).
			Body(`{"error":"login failed"}`).
			CookieNotPresent(auth.DefaultCookieName).
			End()
	}
	if ev := a.last(); ev.outcome != "failure" {
		t.Fatalf("expected failed login to be audited, got %+v", ev)
	}
}

func TestMe(t *testing.T) {
	h, _ := newTestHandler(t)

	apitest.Handler(h).Get("/api/authentication/me").Expect(t).Status(http.StatusUnauthorized).End()
	apitest.Handler(h).
		Get("/api/authentication/me").
		Cookie(auth.DefaultCookieName, "not-a-session").
		Expect(t).
		Status(http.StatusUnauthorized).
		End()
	apitest.Handler(h).
		Get("/api/authentication/me").
		Cookie(auth.DefaultCookieName, bobCookie).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal("$.userName", "bob")).
		Assert(jsonpath.Equal("$.id", float64(2))).
		End()
}

func TestLogout(t *testing.T) {
	h, _ := newTestHandler(t)

	res := apitest.Handler(h).
		Post("/api/authentication/logout").
		Cookie(auth.DefaultCookieName, bobCookie).
		Expect(t).
		Status(http.StatusOK).
		End()
	cleared := false
	for _, c := range res.Response.Cookies() {
		if c.Name == auth.DefaultCookieName && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Fatalf("expected clearing cookie in logout response")
	}

	apitest.Handler(h).
		Post("/api/authentication/logout").
		Expect(t).
		Status(http.StatusOK).
		CookieNotPresent(auth.DefaultCookieName).
		End()
}

func TestTheaterReadsArePublic(t *testing.T) {
	h, _ := newTestHandler(t)

	apitest.Handler(h).
		Get("/api/theaters").
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Len("$", 4)).
		Assert(jsonpath.Equal("$[0].name", "AMC Palace 10")).
		Assert(jsonpath.Equal("$[0].managerId", float64(2))).
		End()
	apitest.Handler(h).
		Get("/api/theaters/2").
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal("$.seatCount", float64(200))).
		End()
	apitest.Handler(h).Get("/api/theaters/99").Expect(t).Status(http.StatusNotFound).End()
	apitest.Handler(h).Get("/api/theaters/abc").Expect(t).Status(http.StatusBadRequest).End()
}

func TestCreateTheater(t *testing.T) {
	h, a := newTestHandler(t)
	body := `{"name":"Starlight","address":"5 Sky Way","seatCount":90,"managerId":3}`

	apitest.Handler(h).Post("/api/theaters").JSON(body).Expect(t).Status(http.StatusUnauthorized).End()
	apitest.Handler(h).
		Post("/api/theaters").
		Cookie(auth.DefaultCookieName, bobCookie).
		JSON(body).
		Expect(t).
		Status(http.StatusForbidden).
		End()
	if ev := a.last(); ev.action != "theater.create" || ev.outcome != "denied" {
		t.Fatalf("expected denied create audit, got %+v", ev)
	}

	apitest.Handler(h).
		Post("/api/theaters").
		Cookie(auth.DefaultCookieName, bobCookie).
		Body(`{broken`).
		Expect(t).
		Status(http.StatusForbidden).
		End()

	apitest.Handler(h).
		Post("/api/theaters").
		Cookie(auth.DefaultCookieName, adminCookie).
		JSON(`{"name":"","address":"x","seatCount":0}`).
		Expect(t).
		Status(http.StatusBadRequest).
		Assert(jsonpath.Equal("$.error", "validation failed")).
		Assert(jsonpath.Present("$.fields.name")).
		Assert(jsonpath.Present("$.fields.seatCount")).
		End()

	apitest.Handler(h).
		Post("/api/theaters").
		Cookie(auth.DefaultCookieName, adminCookie).
		JSON(`{"name":"Starlight","address":"5 Sky Way","seatCount":90,"managerId":77}`).
		Expect(t).
		Status(http.StatusBadRequest).
		Assert(jsonpath.Present("$.fields.managerId")).
		End()

	apitest.Handler(h).
		Post("/api/theaters").
		Cookie(auth.DefaultCookieName, adminCookie).
		JSON(body).
		Expect(t).
		Status(http.StatusCreated).
		Header("Location", "/api/theaters/5").
		Assert(jsonpath.Equal("$.id", float64(5))).
		Assert(jsonpath.Equal("$.managerId", float64(3))).
		End()
	if ev := a.last(); ev.actor != "galkadi" || ev.target != "theater:5" || ev.outcome != "success" {
		t.Fatalf("unexpected create audit: %+v", ev)
	}
}

func TestUpdateTheater(t *testing.T) {
	h, _ := newTestHandler(t)
	body := `{"name":"AMC Palace 12","address":"123 Main St","seatCount":180}`

	apitest.Handler(h).Put("/api/theaters/99").JSON(body).Expect(t).Status(http.StatusUnauthorized).End()
	apitest.Handler(h).
		Put("/api/theaters/99").
		Cookie(auth.DefaultCookieName, bobCookie).
		JSON(body).
		Expect(t).
		Status(http.StatusNotFound).
		End()
	apitest.Handler(h).
		Put("/api/theaters/1").
		Cookie(auth.DefaultCookieName, sueCookie).
		JSON(body).
		Expect(t).
		Status(http.StatusForbidden).
		End()
	apitest.Handler(h).
		Put("/api/theaters/1").
		Cookie(auth.DefaultCookieName, bobCookie).
		JSON(`{"name":"","address":"","seatCount":-1}`).
		Expect(t).
		Status(http.StatusBadRequest).
		End()
	apitest.Handler(h).
		Put("/api/theaters/1").
		Cookie(auth.DefaultCookieName, bobCookie).
		Body(`[]`).
		Expect(t).
		Status(http.StatusBadRequest).
		Body(`{"error":"invalid request body"}`).
		End()
	apitest.Handler(h).
		Put("/api/theaters/1").
		Cookie(auth.DefaultCookieName, bobCookie).
		JSON(body).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal("$.name", "AMC Palace 12")).
		Assert(jsonpath.Equal("$.managerId", float64(2))).
		End()
	apitest.Handler(h).
		Put("/api/theaters/1").
		Cookie(auth.DefaultCookieName, bobCookie).
		JSON(`{"name":"AMC Palace 12","address":"123 Main St","seatCount":180,"managerId":3}`).
		Expect(t).
		Status(http.StatusForbidden).
		End()
	apitest.Handler(h).
		Put("/api/theaters/2").
		Cookie(auth.DefaultCookieName, adminCookie).
		JSON(`{"name":"Regal Cinema","address":"456 Elm St","seatCount":210,"managerId":3}`).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal("$.managerId", float64(3))).
		End()
}

func TestDeleteTheater(t *testing.T) {
	h, a := newTestHandler(t)

	apitest.Handler(h).Delete("/api/theaters/1").Expect(t).Status(http.StatusUnauthorized).End()
	apitest.Handler(h).
		Delete("/api/theaters/1").
		Cookie(auth.DefaultCookieName, bobCookie).
		Expect(t).
		Status(http.StatusForbidden).
		End()
	apitest.Handler(h).
		Delete("/api/theaters/1").
		Cookie(auth.DefaultCookieName, adminCookie).
		Expect(t).
		Status(http.StatusOK).
		End()
	if ev := a.last(); ev.action != "theater.delete" || ev.target != "theater:1" || ev.outcome != "success" {
		t.Fatalf("unexpected delete audit: %+v", ev)
	}
	apitest.Handler(h).
		Delete("/api/theaters/1").
		Cookie(auth.DefaultCookieName, adminCookie).
		Expect(t).
		Status(http.StatusNotFound).
		End()
}

type failingTheaterService struct {
	err error
}

func (f failingTheaterService) List(context.Context) ([]theater.Theater, error) {
	return nil, f.err
}

func (f failingTheaterService) Get(context.Context, int) (theater.Theater, error) {
	return theater.Theater{}, f.err
}

func (f failingTheaterService) Authorize(context.Context, *auth.Principal, authz.Action, int) (theater.Theater, error) {
	return theater.Theater{}, f.err
}

func (f failingTheaterService) Create(context.Context, *auth.Principal, theater.Input) (theater.Theater, error) {
	return theater.Theater{}, f.err
}

func (f failingTheaterService) Update(context.Context, *auth.Principal, int, theater.Input) (theater.Theater, error) {
	return theater.Theater{}, f.err
}

func (f failingTheaterService) Delete(context.Context, *auth.Principal, int) error {
	return f.err
}

func TestUnexpectedErrorsAreHidden(t *testing.T) {
	h := NewHandler(Deps{
		Theaters: failingTheaterService{err: errors.New("pq: connection refused")},
		Logger:   zerolog.Nop(),
	})

	req := httptest.NewRequest(http.MethodGet, "/api/theaters", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if strings.Contains(body["error"], "pq") {
		t.Fatalf("internal error leaked: %q", body["error"])
	}
}

func TestCORSPreflight(t *testing.T) {
	h := NewHandler(Deps{
		Logger:      zerolog.Nop(),
		CORSOrigins: []string{"http://localhost:5173"},
	})

	req := httptest.NewRequest(http.MethodOptions, "/api/theaters", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("expected allowed origin header, got %q", got)
	}
	if got := rr.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Fatalf("expected credentials to be allowed, got %q", got)
	}
}
