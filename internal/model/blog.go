package model

import "time"

// Blog categories and statuses.
var (
	BlogCategories = []string{"community", "events", "culture", "news", "announcements"}
	BlogStatuses   = []string{BlogDraft, BlogPublished, BlogArchived}
)

const (
	BlogDraft     = "draft"
	BlogPublished = "published"
	BlogArchived  = "archived"

	DefaultBlogCategory = "community"
)

// Blog is a post written by an author. Slug, PublishedAt and Excerpt are
// derived in BeforeSave when left empty.
type Blog struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Slug          string     `json:"slug"`
	Content       string     `json:"content"`
	Excerpt       string     `json:"excerpt"`
	AuthorID      string     `json:"authorId"`
	AuthorName    string     `json:"authorName,omitempty"` // joined from users on reads
	FeaturedImage string     `json:"featuredImage,omitempty"`
	Tags          []string   `json:"tags"`
	Category      string     `json:"category"`
	Status        string     `json:"status"`
	PublishedAt   *time.Time `json:"publishedAt,omitempty"`
	Views         int        `json:"views"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

func (b Blog) IsPublished() bool { return b.Status == BlogPublished }
