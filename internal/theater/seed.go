package theater

import (
	"context"
	"fmt"

	"theaterops/theater-api/internal/auth"
)

const demoManager = "bob"

// Seed inserts the demo theaters when the store is empty. It returns the
// number of theaters written.
func Seed(ctx context.Context, store Store, accounts auth.AccountStore) (int, error) {
	existing, err := store.ListTheaters(ctx)
	if err != nil {
		return 0, fmt.Errorf("list theaters: %w", err)
	}
	if len(existing) > 0 {
		return 0, nil
	}

	manager, err := accounts.FindAccountByUsername(ctx, demoManager)
	if err != nil {
		return 0, fmt.Errorf("find demo manager %q: %w", demoManager, err)
	}
	bob := manager.ID

	demo := []Theater{
		{Name: "AMC Palace 10", Address: "123 Main St, Springfield", SeatCount: 150, ManagerID: &bob},
		{Name: "Regal Cinema", Address: "456 Elm St, Shelbyville", SeatCount: 200},
		{Name: "Grand Theater", Address: "789 Broadway Ave, Metropolis", SeatCount: 300, ManagerID: &bob},
		{Name: "Vintage Drive-In", Address: "101 Retro Rd, Smallville", SeatCount: 75},
	}
	for _, t := range demo {
		if _, err := store.SaveTheater(ctx, t); err != nil {
			return 0, fmt.Errorf("seed theater %q: %w", t.Name, err)
		}
	}
	return len(demo), nil
}
