package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"theaterops/theater-api/internal/config"
	"theaterops/theater-api/internal/logutil"
)

func main() {
	app := &cli.App{
		Name:  "theaterd",
		Usage: "Theater management API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Minimum log level (trace, debug, info, warn, error)",
				Value:   "info",
				EnvVars: []string{"LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "Log output format (json or console)",
				Value:   "json",
				EnvVars: []string{"LOG_FORMAT"},
			},
		},
		Before: func(c *cli.Context) error {
			logger, err := logutil.New(os.Stderr, c.String("log-level"), c.String("log-format"))
			if err != nil {
				return err
			}
			log.Logger = logger
			c.Context = logutil.WithLogger(c.Context, logger)
			return nil
		},
		Commands: []*cli.Command{
			serveCmd(),
			seedCmd(),
			accountsCmd(),
			waitDBCmd(),
		},
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Error().Err(err).Msg("theaterd failed")
		cancel()
		os.Exit(1)
	}
}

// loadConfig reads the environment and applies the global flags on top.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	cfg.Log.Level = c.String("log-level")
	cfg.Log.Format = strings.ToLower(c.String("log-format"))
	return cfg, cfg.Validate()
}
