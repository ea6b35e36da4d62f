// Package repofake provides in-memory stand-ins for the MySQL repositories
// so handlers can be tested without a database. Every method copies rows
// in and out, like a real round trip would.
package repofake

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sylvester-francis/atcc-interview-test/internal/model"
	"github.com/sylvester-francis/atcc-interview-test/internal/repository"
	"github.com/sylvester-francis/atcc-interview-test/internal/utils"
)

type Users struct {
	mu   sync.Mutex
	rows map[string]*model.User
	seq  int
	// Err, when set, is returned by every call.
	Err error
}

func NewUsers() *Users { return &Users{rows: map[string]*model.User{}} }

func (f *Users) Create(_ context.Context, u *model.User, password string, cost int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	u.BeforeSave()
	for _, r := range f.rows {
		if r.Email == u.Email {
			return repository.ErrEmailExists
		}
		if r.Username == u.Username {
			return repository.ErrUsernameExists
		}
	}
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return err
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.PasswordHash = hash
	// created_at has second resolution in MySQL; a sequence keeps the
	// newest-first order stable here.
	f.seq++
	u.CreatedAt = timeAt(f.seq)
	u.UpdatedAt = u.CreatedAt
	cp := *u
	f.rows[u.ID] = &cp
	return nil
}

func (f *Users) GetByEmail(_ context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	for _, r := range f.rows {
		if r.Email == email {
			cp := *r
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *Users) GetByID(_ context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	r, ok := f.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *Users) ExistsByEmailOrUsername(_ context.Context, email, username string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, r := range f.rows {
		if r.Email == email || r.Username == strings.TrimSpace(username) {
			return true, nil
		}
	}
	return false, f.Err
}

func (f *Users) List(_ context.Context, flt repository.UserFilter) ([]model.User, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, 0, f.Err
	}
	var all []model.User
	for _, r := range f.rows {
		if flt.Role != "" && r.Role != flt.Role {
			continue
		}
		if flt.Active != nil && r.IsActive != *flt.Active {
			continue
		}
		all = append(all, *r)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	lo, hi := flt.Window(15, len(all))
	return all[lo:hi], len(all), nil
}

func (f *Users) UpdateRole(_ context.Context, id, role string) error {
	return f.mutate(id, func(u *model.User) { u.Role = role })
}

func (f *Users) PromoteByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := f.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	err = f.mutate(u.ID, func(r *model.User) {
		r.Role = model.RoleAdmin
		r.IsActive = true
	})
	if err != nil {
		return nil, err
	}
	return f.GetByID(ctx, u.ID)
}

func (f *Users) ToggleActive(_ context.Context, id string) (bool, error) {
	var active bool
	err := f.mutate(id, func(u *model.User) {
		u.IsActive = !u.IsActive
		active = u.IsActive
	})
	return active, err
}

func (f *Users) SetPassword(_ context.Context, id, password string, cost int) error {
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return err
	}
	return f.mutate(id, func(u *model.User) { u.PasswordHash = hash })
}

func (f *Users) TouchLastLogin(_ context.Context, id string, at time.Time) error {
	return f.mutate(id, func(u *model.User) {
		t := at.UTC()
		u.LastLogin = &t
	})
}

func (f *Users) mutate(id string, fn func(*model.User)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	r, ok := f.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	fn(r)
	return nil
}

// timeAt turns an insert sequence into a creation time so newest-first
// ordering is deterministic.
func timeAt(seq int) time.Time { return time.Unix(int64(seq), 0).UTC() }
