package integration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	_ "github.com/lib/pq"

	"theaterops/theater-api/internal/auth"
	"theaterops/theater-api/internal/theater"
)

func openTestPostgres(t *testing.T) *sql.DB {
	t.Helper()

	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set; skipping Postgres integration tests")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("sql.Open() error: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})

	if err := db.Ping(); err != nil {
		t.Fatalf("db.Ping() error: %v", err)
	}
	return db
}

func TestPostgresAccountLogin(t *testing.T) {
	ctx := context.Background()
	db := openTestPostgres(t)

	store, err := auth.NewPostgresAccountStore(db)
	if err != nil {
		t.Fatalf("NewPostgresAccountStore() error: %v", err)
	}

	id := int(time.Now().UnixNano()%1_000_000) + 1_000_000
	username := fmt.Sprintf("itest_user_%d", id)
	if err := store.PutAccount(ctx, auth.Account{ID: id, Username: username, Password: "Password123!", Roles: []string{auth.RoleUser}}); err != nil {
		t.Fatalf("PutAccount() error: %v", err)
	}
	t.Cleanup(func() {
		_, _ = db.Exec("DELETE FROM accounts WHERE id = $1", id)
	})

	validator, err := auth.NewCredentialValidator(store)
	if err != nil {
		t.Fatalf("NewCredentialValidator() error: %v", err)
	}
	authn, err := auth.NewAuthenticator(validator, auth.AuthenticatorConfig{})
	if err != nil {
		t.Fatalf("NewAuthenticator() error: %v", err)
	}

	p, value, err := authn.Login(ctx, username, "Password123!")
	if err != nil {
		t.Fatalf("Login() error: %v", err)
	}
	if p.ID != id {
		t.Fatalf("expected principal id %d, got %d", id, p.ID)
	}
	want := fmt.Sprintf("%d;%s;User", id, username)
	if value != want {
		t.Fatalf("expected cookie value %q, got %q", want, value)
	}
	if _, _, err := authn.Login(ctx, username, "nope"); !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	exists, err := store.AccountExists(ctx, id)
	if err != nil || !exists {
		t.Fatalf("AccountExists() = %v, %v", exists, err)
	}
}

func TestPostgresTheaterCRUD(t *testing.T) {
	ctx := context.Background()
	db := openTestPostgres(t)

	store, err := theater.NewPGStore(db)
	if err != nil {
		t.Fatalf("NewPGStore() error: %v", err)
	}

	manager := 2
	created, err := store.SaveTheater(ctx, theater.Theater{
		Name:      fmt.Sprintf("itest_theater_%d", time.Now().UnixNano()),
		Address:   "1 Integration Way",
		SeatCount: 42,
		ManagerID: &manager,
	})
	if err != nil {
		t.Fatalf("SaveTheater() insert error: %v", err)
	}
	t.Cleanup(func() {
		_, _ = db.Exec("DELETE FROM theaters WHERE id = $1", created.ID)
	})
	if created.ID <= 0 {
		t.Fatalf("expected generated id, got %d", created.ID)
	}

	created.SeatCount = 43
	created.ManagerID = nil
	if _, err := store.SaveTheater(ctx, created); err != nil {
		t.Fatalf("SaveTheater() update error: %v", err)
	}
	got, err := store.FindTheaterByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("FindTheaterByID() error: %v", err)
	}
	if got.SeatCount != 43 || got.ManagerID != nil {
		t.Fatalf("unexpected theater after update: %+v", got)
	}

	if err := store.DeleteTheater(ctx, created.ID); err != nil {
		t.Fatalf("DeleteTheater() error: %v", err)
	}
	if _, err := store.FindTheaterByID(ctx, created.ID); !errors.Is(err, theater.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}
