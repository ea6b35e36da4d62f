// Command create-admin creates the first admin account from ADMIN_EMAIL,
// ADMIN_USERNAME and ADMIN_PASSWORD. It does nothing when an admin exists.
package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sylvester-francis/atcc-interview-test/internal/config"
	"github.com/sylvester-francis/atcc-interview-test/internal/database"
	"github.com/sylvester-francis/atcc-interview-test/internal/logging"
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

	res, err := setup.CreateAdmin(ctx, repository.NewUserRepo(db), setup.Admin{
		Email:    cfg.AdminEmail,
		Username: cfg.AdminUsername,
		Password: cfg.AdminPassword,
		Cost:     cfg.BcryptCost,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("create admin")
	}
	if !res.Created {
		fmt.Printf("Admin user already exists: %s\n", res.User.Email)
		return
	}
	fmt.Println("Admin user created")
	fmt.Printf("  Email:    %s\n", res.User.Email)
	fmt.Printf("  Username: %s\n", res.User.Username)
	if res.Password != "" {
		fmt.Printf("  Password: %s\n", res.Password)
		fmt.Println("Store this password now; it is not shown again.")
	}
}
