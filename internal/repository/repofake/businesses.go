package repofake

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/sylvester-francis/atcc-interview-test/internal/model"
	"github.com/sylvester-francis/atcc-interview-test/internal/repository"
	"github.com/sylvester-francis/atcc-interview-test/internal/validation"
)

type Businesses struct {
	mu   sync.Mutex
	rows map[string]*model.Business
	seq  int
}

func NewBusinesses() *Businesses { return &Businesses{rows: map[string]*model.Business{}} }

func (f *Businesses) Create(_ context.Context, b *model.Business) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	b.BeforeSave()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	b.CreatedAt = timeAt(f.seq)
	cp := *b
	f.rows[b.ID] = &cp
	return nil
}

func (f *Businesses) Update(_ context.Context, b *model.Business) error {
	b.BeforeSave()
	f.mu.Lock()
	defer f.mu.Unlock()
	old, ok := f.rows[b.ID]
	if !ok {
		return repository.ErrNotFound
	}
	cp := *b
	cp.CreatedAt = old.CreatedAt
	f.rows[b.ID] = &cp
	return nil
}

func (f *Businesses) GetByID(_ context.Context, id string) (*model.Business, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *Businesses) GetActiveByID(ctx context.Context, id string) (*model.Business, error) {
	b, err := f.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !b.IsActive {
		return nil, repository.ErrNotFound
	}
	return b, nil
}

func (f *Businesses) ExistsByName(_ context.Context, name string) (bool, error) {
	name = strings.TrimSpace(name)
	return len(f.filter(func(b *model.Business) bool { return b.BusinessName == name })) > 0, nil
}

func (f *Businesses) ListActive(_ context.Context, flt repository.DirectoryFilter) ([]model.Business, int, error) {
	city, byCity := validation.SafeRegex(flt.City)
	search, searching := validation.SafeRegex(flt.Search)
	all := f.filter(func(b *model.Business) bool {
		switch {
		case !b.IsActive:
			return false
		case flt.Category != "" && b.Category != flt.Category:
			return false
		case byCity && !city.MatchString(b.Location.City):
			return false
		case flt.Province != "" && b.Location.Province != flt.Province:
			return false
		case searching && !search.MatchString(b.BusinessName) && !search.MatchString(b.Description):
			return false
		}
		return true
	})
	sortListing(all)
	lo, hi := flt.Window(20, len(all))
	return all[lo:hi], len(all), nil
}

func (f *Businesses) Related(_ context.Context, b *model.Business, n int) ([]model.Business, error) {
	all := f.filter(func(r *model.Business) bool {
		return r.IsActive && r.Category == b.Category && r.ID != b.ID
	})
	sortListing(all)
	return head(all, n), nil
}

func (f *Businesses) ListAll(_ context.Context, p repository.Page) ([]model.Business, int, error) {
	all := f.filter(func(*model.Business) bool { return true })
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	lo, hi := p.Window(15, len(all))
	return all[lo:hi], len(all), nil
}

func (f *Businesses) Facets(_ context.Context) (repository.DirectoryFacets, error) {
	cats, cities, provs := map[string]bool{}, map[string]bool{}, map[string]bool{}
	for _, b := range f.filter(func(b *model.Business) bool { return b.IsActive }) {
		cats[b.Category] = true
		cities[b.Location.City] = true
		provs[b.Location.Province] = true
	}
	return repository.DirectoryFacets{
		Categories: keys(cats),
		Cities:     keys(cities),
		Provinces:  keys(provs),
	}, nil
}

func (f *Businesses) ToggleActive(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[id]
	if !ok {
		return false, repository.ErrNotFound
	}
	r.IsActive = !r.IsActive
	return r.IsActive, nil
}

func (f *Businesses) Count(_ context.Context, addedBy string) (int, error) {
	return len(f.filter(func(b *model.Business) bool { return addedBy == "" || b.AddedBy == addedBy })), nil
}

func (f *Businesses) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.rows, id)
	return nil
}

func (f *Businesses) filter(keep func(*model.Business) bool) []model.Business {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Business{}
	for _, r := range f.rows {
		if keep(r) {
			out = append(out, *r)
		}
	}
	return out
}

func sortListing(bs []model.Business) {
	sort.Slice(bs, func(i, j int) bool {
		if bs[i].IsFeatured != bs[j].IsFeatured {
			return bs[i].IsFeatured
		}
		return bs[i].BusinessName < bs[j].BusinessName
	})
}

// keys returns the non-empty keys, sorted like SELECT DISTINCT ... ORDER BY.
func keys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		if k != "" {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
