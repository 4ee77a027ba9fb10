package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/criclink/criclink/go/internal/dbconfig"
	"github.com/criclink/criclink/go/internal/grounds"
	"github.com/criclink/criclink/go/internal/outbox"
	"github.com/criclink/criclink/go/internal/sqlutil"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// seedGround is one entry of the JSON snapshot.
type seedGround struct {
	OwnerID uuid.UUID `json:"owner_id"`
	grounds.CreateGroundRequest
}

func main() {
	ctx := context.Background()
	path := "go/internal/assets/grounds.json"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	// 1) Load the JSON snapshot
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read JSON: %v\n", err)
		os.Exit(1)
	}
	var seeds []seedGround
	if err := json.Unmarshal(data, &seeds); err != nil {
		fmt.Fprintf(os.Stderr, "unmarshal JSON: %v\n", err)
		os.Exit(1)
	}

	// 2) Connect using shared dbconfig
	cfg, err := dbconfig.NewConfigFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "read database env: %v\n", err)
		os.Exit(1)
	}
	pool, err := cfg.OpenPool(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()
	if err := dbconfig.Migrate(ctx, pool); err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}

	// Going through the app keeps validation and ground.created events.
	clock := clockwork.NewRealClock()
	repo := grounds.NewPostgresRepository(pool)
	app := grounds.NewApp(repo, sqlutil.NewTransactor(pool), outbox.NewApp(outbox.NewPgxRepository(pool), clock), clock)

	// 3) Insert grounds an owner does not have yet, and count
	var (
		total    = len(seeds)
		inserted int
		skipped  int
		errs     int
	)

	existing := make(map[uuid.UUID]map[string]bool)
	for _, s := range seeds {
		names, ok := existing[s.OwnerID]
		if !ok {
			owned, err := repo.ListGroundsByOwner(ctx, s.OwnerID)
			if err != nil {
				fmt.Fprintf(os.Stderr, "error listing grounds of %s: %v\n", s.OwnerID, err)
				errs++
				continue
			}
			names = make(map[string]bool, len(owned))
			for _, g := range owned {
				names[g.Name] = true
			}
			existing[s.OwnerID] = names
		}
		if names[s.Name] {
			skipped++
			continue
		}

		if _, err := app.CreateGround(ctx, s.OwnerID, s.CreateGroundRequest); err != nil {
			fmt.Fprintf(os.Stderr, "error inserting ground %q: %v\n", s.Name, err)
			errs++
			continue
		}
		names[s.Name] = true
		inserted++
	}

	// 4) Print summary
	fmt.Printf(
		"Grounds seed complete: %d total, %d inserted, %d skipped, %d errors\n",
		total, inserted, skipped, errs,
	)
}
