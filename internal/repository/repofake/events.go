package repofake

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sylvester-francis/atcc-interview-test/internal/model"
	"github.com/sylvester-francis/atcc-interview-test/internal/repository"
)

type Events struct {
	mu   sync.Mutex
	rows map[string]*model.Event
	Now  func() time.Time
}

func NewEvents() *Events {
	return &Events{rows: map[string]*model.Event{}, Now: time.Now}
}

func (f *Events) Create(_ context.Context, e *model.Event) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	e.BeforeSave(f.Now())
	f.mu.Lock()
	defer f.mu.Unlock()
	e.CreatedAt = f.Now().UTC()
	cp := *e
	f.rows[e.ID] = &cp
	return nil
}

func (f *Events) Update(_ context.Context, e *model.Event) error {
	e.BeforeSave(f.Now())
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[e.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *e
	f.rows[e.ID] = &cp
	return nil
}

func (f *Events) GetByID(_ context.Context, id string) (*model.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *Events) Upcoming(_ context.Context, category string, n int) ([]model.Event, error) {
	now := f.Now()
	all := f.filter(func(e *model.Event) bool {
		return !e.StartDate.Before(now) && (category == "" || e.Category == category)
	})
	sort.Slice(all, func(i, j int) bool { return all[i].StartDate.Before(all[j].StartDate) })
	return head(all, n), nil
}

func (f *Events) Past(_ context.Context, category string, n int) ([]model.Event, error) {
	now := f.Now()
	all := f.filter(func(e *model.Event) bool {
		return e.EndDate.Before(now) && (category == "" || e.Category == category)
	})
	sort.Slice(all, func(i, j int) bool { return all[i].StartDate.After(all[j].StartDate) })
	return head(all, n), nil
}

func (f *Events) Related(_ context.Context, e *model.Event, n int) ([]model.Event, error) {
	now := f.Now()
	all := f.filter(func(r *model.Event) bool {
		return r.Category == e.Category && r.ID != e.ID && !r.StartDate.Before(now)
	})
	sort.Slice(all, func(i, j int) bool { return all[i].StartDate.Before(all[j].StartDate) })
	return head(all, n), nil
}

func (f *Events) List(_ context.Context, p repository.Page) ([]model.Event, int, error) {
	all := f.filter(func(*model.Event) bool { return true })
	sort.Slice(all, func(i, j int) bool { return all[i].StartDate.After(all[j].StartDate) })
	lo, hi := p.Window(20, len(all))
	return all[lo:hi], len(all), nil
}

func (f *Events) Count(_ context.Context, organizerID string) (int, error) {
	return len(f.filter(func(e *model.Event) bool { return organizerID == "" || e.OrganizerID == organizerID })), nil
}

func (f *Events) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.rows, id)
	return nil
}

func (f *Events) filter(keep func(*model.Event) bool) []model.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Event{}
	for _, r := range f.rows {
		if keep(r) {
			out = append(out, *r)
		}
	}
	return out
}

func head[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}
