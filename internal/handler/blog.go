package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/sylvester-francis/atcc-interview-test/internal/model"
	"github.com/sylvester-francis/atcc-interview-test/internal/repository"
	"github.com/sylvester-francis/atcc-interview-test/internal/validation"
	"github.com/sylvester-francis/atcc-interview-test/internal/view"
)

const (
	blogsPerPage      = 12
	adminBlogsPerPage = 10
	relatedPosts      = 3
)

// BlogHandler serves the public blog and the post management screens.
type BlogHandler struct {
	Blogs BlogStore
	Cache Purger
}

func NewBlogHandler(b BlogStore, cache Purger) *BlogHandler {
	return &BlogHandler{Blogs: b, Cache: cache}
}

type blogReq struct {
	Title         string  `json:"title" form:"title"`
	Slug          *string `json:"slug" form:"slug"`
	Content       string  `json:"content" form:"content"`
	Excerpt       string  `json:"excerpt" form:"excerpt"`
	Tags          string  `json:"tags" form:"tags"`
	Category      string  `json:"category" form:"category"`
	Status        string  `json:"status" form:"status"`
	FeaturedImage string  `json:"featuredImage" form:"featuredImage"`
}

func (r *blogReq) clean() validation.Errors {
	r.Title = validation.CleanText(r.Title)
	r.Content = strings.TrimSpace(r.Content)
	r.Excerpt = validation.CleanText(r.Excerpt)
	r.Category = strings.TrimSpace(r.Category)
	r.Status = strings.TrimSpace(r.Status)
	r.FeaturedImage = strings.TrimSpace(r.FeaturedImage)

	errs := validation.NewErrors()
	errs.Length("title", r.Title, 1, 200)
	errs.Length("content", r.Content, 10, 50000)
	errs.Length("excerpt", r.Excerpt, 0, 500)
	errs.OneOf("category", r.Category, model.BlogCategories, false)
	errs.OneOf("status", r.Status, model.BlogStatuses, false)
	return errs
}

// apply copies the form onto b. A slug is only taken when sent; an empty
// one asks for a new slug derived from the title.
func (r *blogReq) apply(b *model.Blog) {
	b.Title = r.Title
	b.Content = r.Content
	b.Excerpt = r.Excerpt
	b.Tags = model.ParseTags(r.Tags)
	b.Category = r.Category
	b.Status = r.Status
	b.FeaturedImage = r.FeaturedImage
	if r.Slug != nil {
		b.Slug = model.Slugify(*r.Slug)
	}
}

// Index lists published posts.
func (h *BlogHandler) Index(c echo.Context) error {
	p := pageParam(c, blogsPerPage)
	f := repository.BlogFilter{
		Category: c.QueryParam("category"),
		Search:   c.QueryParam("search"),
		Page:     p,
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	blogs, total, err := h.Blogs.ListPublished(ctx, f)
	if err != nil {
		return serverError(c, err, "blog: list failed")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"blogs":      blogs,
		"pagination": paginate(p, total),
		"categories": model.BlogCategories,
		"category":   f.Category,
		"search":     f.Search,
	})
}

// Show returns one published post, counts the view and adds related posts.
func (h *BlogHandler) Show(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	b, err := h.Blogs.GetPublishedBySlug(ctx, c.Param("slug"))
	if err != nil {
		return storeError(c, err, "blog: load failed")
	}
	if err := h.Blogs.IncrementViews(ctx, b.ID); err != nil {
		log.Warn().Err(err).Str("blog_id", b.ID).Msg("blog: view not counted")
	} else {
		b.Views++
	}
	related, err := h.Blogs.Related(ctx, b, relatedPosts)
	if err != nil {
		return serverError(c, err, "blog: related failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"blog": b, "related": related})
}

// AdminList lists posts for the management screen. Only admins see posts
// of other authors.
func (h *BlogHandler) AdminList(c echo.Context) error {
	u := currentUser(c)
	if u == nil {
		return view.Forbidden(c)
	}
	p := pageParam(c, adminBlogsPerPage)
	ctx, cancel := reqCtx(c)
	defer cancel()

	blogs, total, err := h.Blogs.ListForAdmin(ctx, ownerScope(u), p)
	if err != nil {
		return serverError(c, err, "admin blogs: list failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"blogs": blogs, "pagination": paginate(p, total)})
}

// Create adds a post owned by the current user.
func (h *BlogHandler) Create(c echo.Context) error {
	u := currentUser(c)
	if u == nil {
		return view.Forbidden(c)
	}
	var req blogReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if errs := req.clean(); !errs.OK() {
		return validationFailed(c, errs)
	}

	b := model.Blog{AuthorID: u.ID}
	req.apply(&b)

	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Blogs.Create(ctx, &b); err != nil {
		return storeError(c, err, "blog: create failed")
	}
	purge(ctx, h.Cache)
	log.Info().Str("blog_id", b.ID).Str("slug", b.Slug).Str("user_id", u.ID).Msg("blog: created")
	return c.JSON(http.StatusCreated, echo.Map{"blog": b, "redirect": "/admin/blogs"})
}

// Get returns a post for editing.
func (h *BlogHandler) Get(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	b, err := h.owned(ctx, c)
	if err != nil {
		return storeError(c, err, "blog: load failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"blog": b})
}

// Update rewrites a post.
func (h *BlogHandler) Update(c echo.Context) error {
	var req blogReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if errs := req.clean(); !errs.OK() {
		return validationFailed(c, errs)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	b, err := h.owned(ctx, c)
	if err != nil {
		return storeError(c, err, "blog: load failed")
	}

	req.apply(b)
	if err := h.Blogs.Update(ctx, b); err != nil {
		return storeError(c, err, "blog: update failed")
	}
	purge(ctx, h.Cache)
	log.Info().Str("blog_id", b.ID).Msg("blog: updated")
	return c.JSON(http.StatusOK, echo.Map{"blog": b, "redirect": "/admin/blogs"})
}

// Delete removes a post. Editors may only delete their own.
func (h *BlogHandler) Delete(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	b, err := h.owned(ctx, c)
	if err != nil {
		return storeError(c, err, "blog: load failed")
	}
	if err := h.Blogs.Delete(ctx, b.ID); err != nil {
		return storeError(c, err, "blog: delete failed")
	}
	purge(ctx, h.Cache)
	log.Info().Str("blog_id", b.ID).Msg("blog: deleted")
	return c.JSON(http.StatusOK, echo.Map{"success": true, "redirect": "/admin/blogs"})
}

// owned loads the :id post when the current user may manage it. A post of
// another author reads as not found for non-admins.
func (h *BlogHandler) owned(ctx context.Context, c echo.Context) (*model.Blog, error) {
	u := currentUser(c)
	if u == nil {
		return nil, repository.ErrForbidden
	}
	b, err := h.Blogs.GetByID(ctx, c.Param("id"))
	if err != nil {
		return nil, err
	}
	if scope := ownerScope(u); scope != "" && b.AuthorID != scope {
		return nil, repository.ErrNotFound
	}
	return b, nil
}

// ownerScope is the author filter for u: empty for admins, else u's id.
func ownerScope(u *model.User) string {
	if u.Role == model.RoleAdmin {
		return ""
	}
	return u.ID
}
