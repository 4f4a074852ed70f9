package main

import (
	"github.com/urfave/cli/v2"

	"theaterops/theater-api/internal/app"
)

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Address to listen on (overrides HTTP_ADDR)",
			},
			&cli.BoolFlag{
				Name:  "no-seed",
				Usage: "Do not seed demo accounts and theaters on startup",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			if addr := c.String("addr"); addr != "" {
				cfg.HTTP.Addr = addr
			}
			if c.Bool("no-seed") {
				cfg.SeedDemoData = false
			}

			a, err := app.New(c.Context, cfg)
			if err != nil {
				return err
			}
			return a.Run(c.Context)
		},
	}
}
