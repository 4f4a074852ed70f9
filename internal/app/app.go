package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog"

	"theaterops/theater-api/internal/audit"
	"theaterops/theater-api/internal/auth"
	"theaterops/theater-api/internal/config"
	"theaterops/theater-api/internal/httpserver"
	"theaterops/theater-api/internal/logutil"
	"theaterops/theater-api/internal/theater"
)

type App struct {
	cfg    config.Config
	log    zerolog.Logger
	stores *Stores
	audit  *audit.Logger
	server *httpserver.Server
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	logger := logutil.GetOrDefault(ctx)

	stores, err := OpenStores(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.SeedDemoData {
		if err := SeedDemoData(ctx, stores); err != nil {
			_ = stores.Close()
			return nil, err
		}
	}

	validator, err := auth.NewCredentialValidator(stores.Accounts)
	if err != nil {
		_ = stores.Close()
		return nil, fmt.Errorf("create credential validator: %w", err)
	}
	authenticator, err := auth.NewAuthenticator(validator, auth.AuthenticatorConfig{
		CookieName:   cfg.Auth.CookieName,
		SecureCookie: cfg.Auth.SecureCookie,
	})
	if err != nil {
		_ = stores.Close()
		return nil, fmt.Errorf("create authenticator: %w", err)
	}
	theaters, err := theater.NewService(stores.Theaters, stores.Accounts)
	if err != nil {
		_ = stores.Close()
		return nil, fmt.Errorf("create theater service: %w", err)
	}
	auditLogger := audit.NewLogger(cfg.AuditLogFile)

	server := httpserver.New(cfg.HTTP, httpserver.Deps{
		Auth:     authenticator,
		Theaters: theaters,
		Audit:    auditLogger,
		Logger:   logger,
		Ready:    stores.Ping,
	})

	return &App{
		cfg:    cfg,
		log:    logger,
		stores: stores,
		audit:  auditLogger,
		server: server,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	defer func() {
		_ = a.audit.Close()
		if err := a.stores.Close(); err != nil {
			a.log.Warn().Err(err).Msg("close stores")
		}
	}()

	errCh := make(chan error, 1)

	go func() {
		a.log.Info().Str("addr", a.cfg.HTTP.Addr).Msg("http server starting")
		errCh <- a.server.Start()
	}()

	select {
	case <-ctx.Done():
		a.log.Info().Msg("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server exited: %w", err)
	}
}

// Stores bundles the persistence backends selected by the configuration:
// Postgres when DATABASE_URL is set, JSON state files otherwise.
type Stores struct {
	Accounts auth.AccountStore
	Theaters theater.Store
	db       *sql.DB
}

func OpenStores(ctx context.Context, cfg config.Config) (*Stores, error) {
	logger := logutil.GetOrDefault(ctx)

	if cfg.DatabaseURL == "" {
		accounts, err := auth.NewFileAccountStore(cfg.AccountStateFile)
		if err != nil {
			return nil, fmt.Errorf("create account store: %w", err)
		}
		theaters, err := theater.NewMemoryStoreWithFile(cfg.TheaterStateFile)
		if err != nil {
			return nil, fmt.Errorf("create theater store: %w", err)
		}
		logger.Info().
			Str("accounts", cfg.AccountStateFile).
			Str("theaters", cfg.TheaterStateFile).
			Msg("using file-backed stores")
		return &Stores{Accounts: accounts, Theaters: theaters}, nil
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	accounts, err := auth.NewPostgresAccountStore(db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create postgres account store: %w", err)
	}
	theaters, err := theater.NewPGStore(db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create postgres theater store: %w", err)
	}
	logger.Info().Msg("using postgres stores")
	return &Stores{Accounts: accounts, Theaters: theaters, db: db}, nil
}

func (s *Stores) Ping(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	return s.db.PingContext(ctx)
}

func (s *Stores) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SeedDemoData writes the default accounts and the demo theaters into empty
// stores. Accounts go first because the demo theaters reference bob.
func SeedDemoData(ctx context.Context, stores *Stores) error {
	logger := logutil.GetOrDefault(ctx)

	n, err := auth.SeedAccounts(ctx, stores.Accounts, auth.DefaultAccounts())
	if err != nil {
		return fmt.Errorf("seed accounts: %w", err)
	}
	if n > 0 {
		logger.Info().Int("count", n).Msg("seeded accounts")
	}

	n, err = theater.Seed(ctx, stores.Theaters, stores.Accounts)
	if err != nil {
		return fmt.Errorf("seed theaters: %w", err)
	}
	if n > 0 {
		logger.Info().Int("count", n).Msg("seeded theaters")
	}
	return nil
}
