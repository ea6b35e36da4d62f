package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sylvester-francis/atcc-interview-test/internal/model"
	"github.com/sylvester-francis/atcc-interview-test/internal/validation"
)

// slugAttempts bounds how often a write is retried after losing a slug
// race to a concurrent writer.
const slugAttempts = 5

const blogColumns = `b.id,b.title,b.slug,b.content,b.excerpt,b.author_id,
	COALESCE(TRIM(CONCAT(u.first_name,' ',u.last_name)),''),
	b.featured_image,b.tags,b.category,b.status,b.published_at,b.views,b.created_at,b.updated_at`

const blogFrom = " FROM blogs b LEFT JOIN users u ON u.id = b.author_id "

type BlogRepo struct {
	DB  *sql.DB
	Now func() time.Time
}

func NewBlogRepo(db *sql.DB) *BlogRepo { return &BlogRepo{DB: db, Now: time.Now} }

// BlogFilter narrows the public post list. Search is matched literally.
type BlogFilter struct {
	Category string
	Search   string
	Page
}

// BlogStats are the dashboard counters.
type BlogStats struct {
	Total     int `json:"total"`
	Published int `json:"published"`
	Drafts    int `json:"drafts"`
}

// SlugTaken reports whether another post already uses slug.
func (r *BlogRepo) SlugTaken(ctx context.Context, slug, excludeID string) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx, "SELECT 1 FROM blogs WHERE slug=? AND id<>? LIMIT 1", slug, excludeID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// Create runs the blog hooks and inserts b, filling its ID.
func (r *BlogRepo) Create(ctx context.Context, b *model.Blog) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return SaveBlog(ctx, b, r.Now(), r.SlugTaken, r.insert)
}

// Update runs the blog hooks and rewrites b. A cleared slug is derived
// again from the title.
func (r *BlogRepo) Update(ctx context.Context, b *model.Blog) error {
	return SaveBlog(ctx, b, r.Now(), r.SlugTaken, r.update)
}

// SaveBlog applies b.BeforeSave and hands b to write. When write fails on
// the slug unique key and the slug was derived here, the slug is derived
// again, which moves past the row that won the race. An explicit slug is
// never rewritten.
func SaveBlog(ctx context.Context, b *model.Blog, now time.Time, taken model.SlugTaken, write func(context.Context, *model.Blog) error) error {
	derived := b.Slug == ""
	for attempt := 1; attempt <= slugAttempts; attempt++ {
		if err := b.BeforeSave(ctx, now, taken); err != nil {
			return err
		}
		err := write(ctx, b)
		key, dup := duplicateKey(err)
		switch {
		case !dup, !strings.Contains(key, "slug"):
			return err
		case !derived:
			return ErrSlugConflict
		}
		log.Warn().Str("slug", b.Slug).Int("attempt", attempt).Msg("blog: slug taken concurrently, retrying")
		b.Slug = ""
	}
	return ErrSlugConflict
}

func (r *BlogRepo) insert(ctx context.Context, b *model.Blog) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO blogs (id,title,slug,content,excerpt,author_id,featured_image,tags,category,status,published_at)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		b.ID, b.Title, b.Slug, b.Content, b.Excerpt, b.AuthorID, b.FeaturedImage,
		model.JoinTags(b.Tags), b.Category, b.Status, b.PublishedAt)
	return err
}

func (r *BlogRepo) update(ctx context.Context, b *model.Blog) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE blogs SET title=?,slug=?,content=?,excerpt=?,featured_image=?,tags=?,category=?,status=?,published_at=?
		 WHERE id=?`,
		b.Title, b.Slug, b.Content, b.Excerpt, b.FeaturedImage,
		model.JoinTags(b.Tags), b.Category, b.Status, b.PublishedAt, b.ID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		if _, err := r.GetByID(ctx, b.ID); err != nil {
			return err
		}
	}
	return nil
}

// GetByID returns any post regardless of status.
func (r *BlogRepo) GetByID(ctx context.Context, id string) (*model.Blog, error) {
	return r.getOne(ctx, "SELECT "+blogColumns+blogFrom+"WHERE b.id=? LIMIT 1", id)
}

// GetPublishedBySlug returns a published post.
func (r *BlogRepo) GetPublishedBySlug(ctx context.Context, slug string) (*model.Blog, error) {
	return r.getOne(ctx, "SELECT "+blogColumns+blogFrom+"WHERE b.slug=? AND b.status=? LIMIT 1", slug, model.BlogPublished)
}

// IncrementViews adds one view to post id.
func (r *BlogRepo) IncrementViews(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE blogs SET views = views + 1 WHERE id=?", id)
	return err
}

// ListPublished returns published posts, newest first. The search term
// goes through the safe pattern builder before reaching REGEXP.
func (r *BlogRepo) ListPublished(ctx context.Context, f BlogFilter) ([]model.Blog, int, error) {
	where := []string{"b.status=?"}
	args := []any{model.BlogPublished}
	if f.Category != "" {
		where = append(where, "b.category=?")
		args = append(args, f.Category)
	}
	if pat, ok := validation.SQLPattern(f.Search); ok {
		where = append(where, "(b.title REGEXP ? OR b.content REGEXP ?)")
		args = append(args, pat, pat)
	}
	return r.list(ctx, strings.Join(where, " AND "), "b.published_at DESC", args, f.Page, 12)
}

// Related returns up to n other published posts of the same category.
func (r *BlogRepo) Related(ctx context.Context, b *model.Blog, n int) ([]model.Blog, error) {
	out, _, err := r.list(ctx, "b.status=? AND b.category=? AND b.id<>?", "b.published_at DESC",
		[]any{model.BlogPublished, b.Category, b.ID}, Page{PerPage: n}, n)
	return out, err
}

// ListForAdmin returns posts of authorID, or of everyone when authorID is
// empty, newest first.
func (r *BlogRepo) ListForAdmin(ctx context.Context, authorID string, p Page) ([]model.Blog, int, error) {
	cond, args := authorScope(authorID)
	return r.list(ctx, cond, "b.created_at DESC", args, p, 10)
}

// Stats counts posts of authorID, or all posts when authorID is empty.
func (r *BlogRepo) Stats(ctx context.Context, authorID string) (BlogStats, error) {
	cond, args := authorScope(authorID)
	var s BlogStats
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COALESCE(SUM(b.status='published'),0),
		        COALESCE(SUM(b.status='draft'),0)
		 FROM blogs b WHERE `+cond, args...).Scan(&s.Total, &s.Published, &s.Drafts)
	return s, err
}

// Delete removes post id.
func (r *BlogRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM blogs WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func authorScope(authorID string) (string, []any) {
	if authorID == "" {
		return "1=1", nil
	}
	return "b.author_id=?", []any{authorID}
}

func (r *BlogRepo) list(ctx context.Context, cond, order string, args []any, p Page, def int) ([]model.Blog, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM blogs b WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	limit := p.limit(def)
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+blogColumns+blogFrom+"WHERE "+cond+" ORDER BY "+order+" LIMIT ? OFFSET ?",
		append(append([]any{}, args...), limit, p.offset(def))...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.Blog, 0, limit)
	for rows.Next() {
		b, err := scanBlog(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *b)
	}
	return out, total, rows.Err()
}

func (r *BlogRepo) getOne(ctx context.Context, query string, args ...any) (*model.Blog, error) {
	b, err := scanBlog(r.DB.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return b, err
}

func scanBlog(s scanner) (*model.Blog, error) {
	var (
		b         model.Blog
		tags      string
		published sql.NullTime
	)
	if err := s.Scan(&b.ID, &b.Title, &b.Slug, &b.Content, &b.Excerpt, &b.AuthorID, &b.AuthorName,
		&b.FeaturedImage, &tags, &b.Category, &b.Status, &published, &b.Views, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	b.Tags = model.ParseTags(tags)
	if published.Valid {
		t := published.Time
		b.PublishedAt = &t
	}
	return &b, nil
}
