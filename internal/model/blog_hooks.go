package model

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sylvester-francis/atcc-interview-test/internal/validation"
)

const (
	// ExcerptRunes is how much content a derived excerpt keeps.
	ExcerptRunes = 200
	// MaxExcerptRunes caps any excerpt, derived or typed.
	MaxExcerptRunes = 300
	// fallbackSlug is used when a title has no ASCII letters or digits.
	fallbackSlug = "post"
	// maxSlugSuffix bounds the collision search.
	maxSlugSuffix = 1000
)

// ErrSlugExhausted means no free suffix was found below maxSlugSuffix.
var ErrSlugExhausted = errors.New("no free slug suffix")

// SlugTaken reports whether slug belongs to an entity other than excludeID.
type SlugTaken func(ctx context.Context, slug, excludeID string) (bool, error)

var (
	slugStrip  = regexp.MustCompile(`[^a-z0-9 -]`)
	slugSpace  = regexp.MustCompile(`\s+`)
	slugHyphen = regexp.MustCompile(`-+`)
)

// Slugify lower-cases the title, keeps [a-z0-9 -], turns whitespace runs
// into single hyphens, collapses hyphen runs and trims edge hyphens.
func Slugify(title string) string {
	s := strings.ToLower(title)
	s = slugStrip.ReplaceAllString(s, "")
	s = slugSpace.ReplaceAllString(s, "-")
	s = slugHyphen.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// UniqueSlug returns base, or base-1, base-2 ... whichever taken reports as
// free first. The check and the later write are not atomic; callers must
// handle a duplicate key on insert.
func UniqueSlug(ctx context.Context, base, excludeID string, taken SlugTaken) (string, error) {
	candidate := base
	for n := 1; n <= maxSlugSuffix; n++ {
		busy, err := taken(ctx, candidate, excludeID)
		if err != nil {
			return "", err
		}
		if !busy {
			return candidate, nil
		}
		candidate = base + "-" + strconv.Itoa(n)
	}
	return "", ErrSlugExhausted
}

// DeriveExcerpt takes the first ExcerptRunes runes of the content as plain
// text and appends "..." when something was cut.
func DeriveExcerpt(content string) string {
	text := strings.Join(strings.Fields(validation.StripHTML(content)), " ")
	if utf8.RuneCountInString(text) <= ExcerptRunes {
		return text
	}
	r := []rune(text)
	return strings.TrimSpace(string(r[:ExcerptRunes])) + "..."
}

// BeforeSave runs right before a blog row is written.
func (b *Blog) BeforeSave(ctx context.Context, now time.Time, taken SlugTaken) error {
	b.Title = strings.TrimSpace(b.Title)
	b.Tags = NormalizeTags(b.Tags)
	if b.Category == "" {
		b.Category = DefaultBlogCategory
	}
	if b.Status == "" {
		b.Status = BlogDraft
	}

	if b.Slug == "" && b.Title != "" {
		base := Slugify(b.Title)
		if base == "" {
			base = fallbackSlug
		}
		slug, err := UniqueSlug(ctx, base, b.ID, taken)
		if err != nil {
			return err
		}
		b.Slug = slug
	}

	if b.Status == BlogPublished && b.PublishedAt == nil {
		t := now.UTC()
		b.PublishedAt = &t
	}

	if strings.TrimSpace(b.Excerpt) == "" && b.Content != "" {
		b.Excerpt = DeriveExcerpt(b.Content)
	}
	if utf8.RuneCountInString(b.Excerpt) > MaxExcerptRunes {
		b.Excerpt = string([]rune(b.Excerpt)[:MaxExcerptRunes])
	}
	return nil
}
