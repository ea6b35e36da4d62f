// Package setup bootstraps a fresh install: the first admin account, admin
// promotion and the sample directory listings. The admin commands and the
// /setup routes share it, and every step is safe to run twice.
package setup

import (
	"context"
	"errors"
	"fmt"

	"github.com/sylvester-francis/atcc-interview-test/internal/model"
	"github.com/sylvester-francis/atcc-interview-test/internal/repository"
	"github.com/sylvester-francis/atcc-interview-test/internal/utils"
)

// DefaultAdminEmail is used when ADMIN_EMAIL is not set.
const DefaultAdminEmail = "admin@atcccanada.ca"

type UserStore interface {
	Create(ctx context.Context, u *model.User, password string, cost int) error
	List(ctx context.Context, f repository.UserFilter) ([]model.User, int, error)
	PromoteByEmail(ctx context.Context, email string) (*model.User, error)
}

type BusinessStore interface {
	ExistsByName(ctx context.Context, name string) (bool, error)
	Create(ctx context.Context, b *model.Business) error
}

// Admin describes the account CreateAdmin makes.
type Admin struct {
	Email    string
	Username string
	Password string
	Cost     int
}

// AdminResult reports what CreateAdmin did. Password is only set when it
// was generated and must be shown to the operator once.
type AdminResult struct {
	User     model.User
	Created  bool
	Password string
}

// CreateAdmin creates the first admin unless any admin already exists. A
// blank password is replaced with a random one.
func CreateAdmin(ctx context.Context, users UserStore, a Admin) (AdminResult, error) {
	existing, n, err := users.List(ctx, repository.UserFilter{Role: model.RoleAdmin, Page: repository.Page{PerPage: 1}})
	if err != nil {
		return AdminResult{}, fmt.Errorf("look up admins: %w", err)
	}
	if n > 0 && len(existing) > 0 {
		return AdminResult{User: existing[0]}, nil
	}

	if a.Email == "" {
		a.Email = DefaultAdminEmail
	}
	if a.Username == "" {
		a.Username = "admin"
	}
	var generated string
	if a.Password == "" {
		if generated, err = utils.RandomHex(8); err != nil {
			return AdminResult{}, err
		}
		a.Password = generated
	}

	u := model.User{
		Username:  a.Username,
		Email:     a.Email,
		FirstName: "Admin",
		LastName:  "User",
		Role:      model.RoleAdmin,
		IsActive:  true,
	}
	if err := users.Create(ctx, &u, a.Password, a.Cost); err != nil {
		return AdminResult{}, fmt.Errorf("create admin: %w", err)
	}
	return AdminResult{User: u, Created: true, Password: generated}, nil
}

// Promote makes the user with email an active admin. Unknown emails yield
// repository.ErrNotFound.
func Promote(ctx context.Context, users UserStore, email string) (*model.User, error) {
	if email == "" {
		return nil, errors.New("email is required")
	}
	return users.PromoteByEmail(ctx, email)
}

// SeedResult lists the sample listings by outcome.
type SeedResult struct {
	Added   []string `json:"added"`
	Skipped []string `json:"skipped"`
}

// SeedBusinesses inserts every sample listing whose name is not taken yet.
func SeedBusinesses(ctx context.Context, store BusinessStore, addedBy string) (SeedResult, error) {
	res := SeedResult{Added: []string{}, Skipped: []string{}}
	for _, b := range SampleBusinesses() {
		exists, err := store.ExistsByName(ctx, b.BusinessName)
		if err != nil {
			return res, err
		}
		if exists {
			res.Skipped = append(res.Skipped, b.BusinessName)
			continue
		}
		b.AddedBy = addedBy
		if err := store.Create(ctx, &b); err != nil {
			return res, fmt.Errorf("seed %q: %w", b.BusinessName, err)
		}
		res.Added = append(res.Added, b.BusinessName)
	}
	return res, nil
}
