package main

import (
	"time"

	"github.com/urfave/cli/v2"

	"theaterops/theater-api/internal/app"
)

func waitDBCmd() *cli.Command {
	return &cli.Command{
		Name:  "wait-db",
		Usage: "Block until Postgres accepts connections",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "dsn",
				Usage:    "Postgres connection string",
				EnvVars:  []string{"DATABASE_URL", "TEST_POSTGRES_DSN"},
				Required: true,
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Give up after this long",
				Value: 60 * time.Second,
			},
			&cli.DurationFlag{
				Name:  "interval",
				Usage: "Delay between attempts",
				Value: 2 * time.Second,
			},
		},
		Action: func(c *cli.Context) error {
			return app.WaitForDB(c.Context, c.String("dsn"), c.Duration("timeout"), c.Duration("interval"))
		},
	}
}
