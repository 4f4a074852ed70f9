package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTP             HTTPConfig
	DatabaseURL      string
	Auth             AuthConfig
	Log              LogConfig
	TheaterStateFile string
	AccountStateFile string
	AuditLogFile     string
	SeedDemoData     bool
}

type HTTPConfig struct {
	Addr               string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	ShutdownTimeout    time.Duration
	CORSAllowedOrigins []string
}

type AuthConfig struct {
	CookieName   string
	SecureCookie bool
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (Config, error) {
	cfg := Config{
		HTTP: HTTPConfig{
			Addr:               getEnv("HTTP_ADDR", ":8080"),
			ReadTimeout:        time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SEC", 10)) * time.Second,
			WriteTimeout:       time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SEC", 15)) * time.Second,
			ShutdownTimeout:    time.Duration(getEnvInt("HTTP_SHUTDOWN_TIMEOUT_SEC", 20)) * time.Second,
			CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS"),
		},
		DatabaseURL: getEnv("DATABASE_URL", ""),
		Auth: AuthConfig{
			CookieName:   getEnv("AUTH_COOKIE_NAME", "AuthCookie"),
			SecureCookie: getEnvBool("AUTH_COOKIE_SECURE", false),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: strings.ToLower(getEnv("LOG_FORMAT", "json")),
		},
		TheaterStateFile: getEnv("THEATER_STATE_FILE", "./data/theaters.json"),
		AccountStateFile: getEnv("ACCOUNT_STATE_FILE", "./data/accounts.json"),
		AuditLogFile:     getEnv("AUDIT_LOG_FILE", "./data/audit.log"),
		SeedDemoData:     getEnvBool("SEED_DEMO_DATA", true),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate is exported so that command-line overrides can be checked after
// they are applied on top of the environment.
func (cfg Config) Validate() error {
	if cfg.HTTP.Addr == "" {
		return fmt.Errorf("HTTP_ADDR must not be empty")
	}
	if cfg.HTTP.ReadTimeout <= 0 {
		return fmt.Errorf("HTTP_READ_TIMEOUT_SEC must be > 0")
	}
	if cfg.HTTP.WriteTimeout <= 0 {
		return fmt.Errorf("HTTP_WRITE_TIMEOUT_SEC must be > 0")
	}
	if cfg.HTTP.ShutdownTimeout <= 0 {
		return fmt.Errorf("HTTP_SHUTDOWN_TIMEOUT_SEC must be > 0")
	}
	if cfg.Auth.CookieName == "" || strings.ContainsAny(cfg.Auth.CookieName, " ;,=") {
		return fmt.Errorf("AUTH_COOKIE_NAME must be a valid cookie name")
	}
	if cfg.Log.Format != "json" && cfg.Log.Format != "console" {
		return fmt.Errorf("LOG_FORMAT must be json or console")
	}
	if cfg.DatabaseURL == "" {
		if cfg.TheaterStateFile == "" {
			return fmt.Errorf("THEATER_STATE_FILE must not be empty without DATABASE_URL")
		}
		if cfg.AccountStateFile == "" {
			return fmt.Errorf("ACCOUNT_STATE_FILE must not be empty without DATABASE_URL")
		}
	}
	return nil
}

func getEnv(key, fallback string) string {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback
	}
	return val
}

func getEnvInt(key string, fallback int) int {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return b
}

func getEnvList(key string) []string {
	val := getEnv(key, "")
	if val == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
