package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"theaterops/theater-api/internal/app"
)

func accountsCmd() *cli.Command {
	return &cli.Command{
		Name:  "accounts",
		Usage: "Inspect the account directory",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List accounts and their roles",
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

					accounts, err := stores.Accounts.ListAccounts(c.Context)
					if err != nil {
						return err
					}
					w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
					fmt.Fprintln(w, "ID\tUSERNAME\tROLES")
					for _, a := range accounts {
						fmt.Fprintf(w, "%d\t%s\t%s\n", a.ID, a.Username, strings.Join(a.Roles, ","))
					}
					return w.Flush()
				},
			},
		},
	}
}
