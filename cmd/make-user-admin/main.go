// Command make-user-admin promotes an existing account to the admin role.
//
//	make-user-admin <email>
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sylvester-francis/atcc-interview-test/internal/config"
	"github.com/sylvester-francis/atcc-interview-test/internal/database"
	"github.com/sylvester-francis/atcc-interview-test/internal/logging"
	"github.com/sylvester-francis/atcc-interview-test/internal/repository"
	"github.com/sylvester-francis/atcc-interview-test/internal/setup"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: make-user-admin <email>")
		os.Exit(2)
	}
	email := os.Args[1]

	cfg := config.Load()
	logging.Setup(cfg.LogLevel, "console")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.Open(ctx, cfg.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("database: connect")
	}
	defer db.Close()

	u, err := setup.Promote(ctx, repository.NewUserRepo(db), email)
	if errors.Is(err, repository.ErrNotFound) {
		fmt.Fprintf(os.Stderr, "No user found with email: %s\n", email)
		os.Exit(1)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("promote")
	}
	fmt.Printf("%s (%s) is now an admin\n", u.Username, u.Email)
}
