package main

import (
	"github.com/urfave/cli/v2"

	"theaterops/theater-api/internal/app"
)

func seedCmd() *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "Write the demo accounts and theaters into empty stores",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			stores, err := app.OpenStores(c.Context, cfg)
			if err != nil {
				return err
			}
			defer stores.Close()
			return app.SeedDemoData(c.Context, stores)
		},
	}
}
