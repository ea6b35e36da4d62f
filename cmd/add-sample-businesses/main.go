// Command add-sample-businesses seeds the directory with sample listings.
// Listings whose name already exists are skipped.
package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sylvester-francis/atcc-interview-test/internal/config"
	"github.com/sylvester-francis/atcc-interview-test/internal/database"
	"github.com/sylvester-francis/atcc-interview-test/internal/logging"
	"github.com/sylvester-francis/atcc-interview-test/internal/model"
	"github.com/sylvester-francis/atcc-interview-test/internal/repository"
	"github.com/sylvester-francis/atcc-interview-test/internal/setup"
)

func main() {
	cfg := config.Load()
	logging.Setup(cfg.LogLevel, "console")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.Open(ctx, cfg.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("database: connect")
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("database: migrate")
	}

	// Listings are attributed to the first admin when there is one.
	var addedBy string
	admins, _, err := repository.NewUserRepo(db).List(ctx, repository.UserFilter{Role: model.RoleAdmin, Page: repository.Page{PerPage: 1}})
	if err != nil {
		log.Fatal().Err(err).Msg("look up admin")
	}
	if len(admins) > 0 {
		addedBy = admins[0].ID
	}

	res, err := setup.SeedBusinesses(ctx, repository.NewBusinessRepo(db), addedBy)
	if err != nil {
		log.Fatal().Err(err).Msg("seed businesses")
	}
	for _, name := range res.Added {
		fmt.Printf("  added:   %s\n", name)
	}
	for _, name := range res.Skipped {
		fmt.Printf("  skipped: %s (already exists)\n", name)
	}
	fmt.Printf("Added %d sample businesses, skipped %d\n", len(res.Added), len(res.Skipped))
}
