package repofake

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sylvester-francis/atcc-interview-test/internal/model"
	"github.com/sylvester-francis/atcc-interview-test/internal/repository"
	"github.com/sylvester-francis/atcc-interview-test/internal/validation"
)

// Blogs runs the same save path as the MySQL repository, including the
// slug retry, against a map that enforces slug uniqueness.
type Blogs struct {
	mu   sync.Mutex
	rows map[string]*model.Blog
	seq  int
	Now  func() time.Time
}

func NewBlogs() *Blogs {
	return &Blogs{rows: map[string]*model.Blog{}, Now: time.Now}
}

func (f *Blogs) SlugTaken(_ context.Context, slug, excludeID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, r := range f.rows {
		if r.Slug == slug && id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (f *Blogs) Create(ctx context.Context, b *model.Blog) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return repository.SaveBlog(ctx, b, f.Now(), f.SlugTaken, f.insert)
}

func (f *Blogs) Update(ctx context.Context, b *model.Blog) error {
	return repository.SaveBlog(ctx, b, f.Now(), f.SlugTaken, f.update)
}

func (f *Blogs) insert(_ context.Context, b *model.Blog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.slugFree(b); err != nil {
		return err
	}
	f.seq++
	b.CreatedAt = timeAt(f.seq)
	b.UpdatedAt = b.CreatedAt
	cp := *b
	f.rows[b.ID] = &cp
	return nil
}

func (f *Blogs) update(_ context.Context, b *model.Blog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	old, ok := f.rows[b.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if err := f.slugFree(b); err != nil {
		return err
	}
	cp := *b
	cp.CreatedAt, cp.Views = old.CreatedAt, old.Views
	f.rows[b.ID] = &cp
	return nil
}

// slugFree mimics the unique index error text the driver reports.
func (f *Blogs) slugFree(b *model.Blog) error {
	for id, r := range f.rows {
		if r.Slug == b.Slug && id != b.ID {
			return fmt.Errorf("Error 1062 (23000): Duplicate entry '%s' for key 'blogs.uq_blogs_slug'", b.Slug)
		}
	}
	return nil
}

func (f *Blogs) GetByID(_ context.Context, id string) (*model.Blog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *Blogs) GetPublishedBySlug(_ context.Context, slug string) (*model.Blog, error) {
	all := f.filter(func(b *model.Blog) bool { return b.Slug == slug && b.IsPublished() })
	if len(all) == 0 {
		return nil, repository.ErrNotFound
	}
	return &all[0], nil
}

func (f *Blogs) IncrementViews(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.rows[id]; ok {
		r.Views++
	}
	return nil
}

func (f *Blogs) ListPublished(_ context.Context, flt repository.BlogFilter) ([]model.Blog, int, error) {
	re, searching := validation.SafeRegex(flt.Search)
	all := f.filter(func(b *model.Blog) bool {
		if !b.IsPublished() || (flt.Category != "" && b.Category != flt.Category) {
			return false
		}
		return !searching || re.MatchString(b.Title) || re.MatchString(b.Content)
	})
	sortPublished(all)
	lo, hi := flt.Window(12, len(all))
	return all[lo:hi], len(all), nil
}

func (f *Blogs) Related(_ context.Context, b *model.Blog, n int) ([]model.Blog, error) {
	all := f.filter(func(r *model.Blog) bool {
		return r.IsPublished() && r.Category == b.Category && r.ID != b.ID
	})
	sortPublished(all)
	if len(all) > n {
		all = all[:n]
	}
	return all, nil
}

func (f *Blogs) ListForAdmin(_ context.Context, authorID string, p repository.Page) ([]model.Blog, int, error) {
	all := f.filter(func(b *model.Blog) bool { return authorID == "" || b.AuthorID == authorID })
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	lo, hi := p.Window(10, len(all))
	return all[lo:hi], len(all), nil
}

func (f *Blogs) Stats(_ context.Context, authorID string) (repository.BlogStats, error) {
	var s repository.BlogStats
	for _, b := range f.filter(func(b *model.Blog) bool { return authorID == "" || b.AuthorID == authorID }) {
		s.Total++
		switch b.Status {
		case model.BlogPublished:
			s.Published++
		case model.BlogDraft:
			s.Drafts++
		}
	}
	return s, nil
}

func (f *Blogs) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.rows, id)
	return nil
}

func (f *Blogs) filter(keep func(*model.Blog) bool) []model.Blog {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Blog{}
	for _, r := range f.rows {
		if keep(r) {
			out = append(out, *r)
		}
	}
	return out
}

func sortPublished(bs []model.Blog) {
	sort.Slice(bs, func(i, j int) bool {
		a, b := bs[i].PublishedAt, bs[j].PublishedAt
		if a == nil || b == nil {
			return b == nil && a != nil
		}
		if a.Equal(*b) {
			return bs[i].CreatedAt.After(bs[j].CreatedAt)
		}
		return a.After(*b)
	})
}
