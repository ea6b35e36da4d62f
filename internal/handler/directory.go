package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/sylvester-francis/atcc-interview-test/internal/model"
	"github.com/sylvester-francis/atcc-interview-test/internal/repository"
	"github.com/sylvester-francis/atcc-interview-test/internal/validation"
	"github.com/sylvester-francis/atcc-interview-test/internal/view"
)

const (
	listingsPerPage      = 20
	adminListingsPerPage = 15
	relatedListings      = 4
	firstYearEstablished = 1800
)

// DirectoryHandler serves the business directory and its management.
type DirectoryHandler struct {
	Businesses BusinessStore
	Cache      Purger
	Now        func() time.Time
}

func NewDirectoryHandler(b BusinessStore, cache Purger) *DirectoryHandler {
	return &DirectoryHandler{Businesses: b, Cache: cache, Now: time.Now}
}

type businessReq struct {
	BusinessName    string                    `json:"businessName" form:"businessName"`
	OwnerFirstName  string                    `json:"ownerFirstName" form:"ownerFirstName"`
	OwnerLastName   string                    `json:"ownerLastName" form:"ownerLastName"`
	Phone           string                    `json:"phone" form:"phone"`
	Email           string                    `json:"email" form:"email"`
	Website         string                    `json:"website" form:"website"`
	Address         string                    `json:"address" form:"address"`
	City            string                    `json:"city" form:"city"`
	Province        string                    `json:"province" form:"province"`
	PostalCode      string                    `json:"postalCode" form:"postalCode"`
	Category        string                    `json:"category" form:"category"`
	Description     string                    `json:"description" form:"description"`
	Services        string                    `json:"services" form:"services"`
	Logo            string                    `json:"logo" form:"logo"`
	YearEstablished json.Number               `json:"yearEstablished" form:"yearEstablished"`
	BusinessHours   map[string]model.DayHours `json:"businessHours" form:"-"`
	Facebook        string                    `json:"facebook" form:"facebook"`
	Instagram       string                    `json:"instagram" form:"instagram"`
	Twitter         string                    `json:"twitter" form:"twitter"`
	LinkedIn        string                    `json:"linkedin" form:"linkedin"`
	IsFeatured      bool                      `json:"isFeatured" form:"isFeatured"`
}

// toBusiness validates the form and copies it onto b.
func (r *businessReq) toBusiness(b *model.Business, year int) validation.Errors {
	name := validation.CleanText(r.BusinessName)
	first := validation.CleanText(r.OwnerFirstName)
	last := validation.CleanText(r.OwnerLastName)
	desc := validation.CleanText(r.Description)
	email := validation.NormalizeEmail(r.Email)
	website := strings.TrimSpace(r.Website)
	province := validation.CleanText(r.Province)
	category := strings.TrimSpace(r.Category)

	errs := validation.NewErrors()
	errs.Length("businessName", name, 1, 100)
	errs.Length("ownerFirstName", first, 1, 50)
	errs.Length("ownerLastName", last, 1, 50)
	errs.OneOf("category", category, model.BusinessCategories, true)
	errs.Length("description", desc, 0, 500)
	errs.Email("email", email, false)
	errs.Phone("phone", r.Phone, false)
	errs.Website("website", website)
	errs.Length("province", province, 1, 0)

	var established *int
	if s := r.YearEstablished.String(); s != "" {
		n, err := r.YearEstablished.Int64()
		if err != nil || n < firstYearEstablished || int(n) > year {
			errs.Add("yearEstablished", "Please provide a valid year")
		} else {
			v := int(n)
			established = &v
		}
	}
	if !errs.OK() {
		return errs
	}

	b.BusinessName = name
	b.Owner = model.Owner{FirstName: first, LastName: last}
	b.Contact = model.ContactInfo{Phone: strings.TrimSpace(r.Phone), Email: email, Website: website}
	b.Location = model.Location{
		Address:    validation.CleanText(r.Address),
		City:       validation.CleanText(r.City),
		Province:   province,
		PostalCode: validation.CleanText(r.PostalCode),
	}
	b.Category = category
	b.Description = desc
	b.Services = strings.Split(validation.CleanText(r.Services), ",")
	b.Logo = strings.TrimSpace(r.Logo)
	b.YearEstablished = established
	if r.BusinessHours != nil {
		b.BusinessHours = r.BusinessHours
	}
	b.SocialMedia = model.SocialMedia{
		Facebook:  strings.TrimSpace(r.Facebook),
		Instagram: strings.TrimSpace(r.Instagram),
		Twitter:   strings.TrimSpace(r.Twitter),
		LinkedIn:  strings.TrimSpace(r.LinkedIn),
	}
	b.IsFeatured = r.IsFeatured
	return errs
}

// Index lists active listings with the filter facets.
func (h *DirectoryHandler) Index(c echo.Context) error {
	p := pageParam(c, listingsPerPage)
	f := repository.DirectoryFilter{
		Category: categoryParam(c, model.BusinessCategories),
		City:     c.QueryParam("city"),
		Province: c.QueryParam("province"),
		Search:   c.QueryParam("search"),
		Page:     p,
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	listings, total, err := h.Businesses.ListActive(ctx, f)
	if err != nil {
		return serverError(c, err, "directory: list failed")
	}
	facets, err := h.Businesses.Facets(ctx)
	if err != nil {
		return serverError(c, err, "directory: facets failed")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"businesses": listings,
		"pagination": paginate(p, total),
		"filters":    facets,
		"selected": echo.Map{
			"category": f.Category,
			"city":     f.City,
			"province": f.Province,
			"search":   f.Search,
		},
	})
}

// Show returns an active listing and others in its category.
func (h *DirectoryHandler) Show(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	b, err := h.Businesses.GetActiveByID(ctx, c.Param("id"))
	if err != nil {
		return storeError(c, err, "directory: load failed")
	}
	related, err := h.Businesses.Related(ctx, b, relatedListings)
	if err != nil {
		return serverError(c, err, "directory: related failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"business": b, "related": related})
}

func (h *DirectoryHandler) Manage(c echo.Context) error {
	p := pageParam(c, adminListingsPerPage)
	ctx, cancel := reqCtx(c)
	defer cancel()

	listings, total, err := h.Businesses.ListAll(ctx, p)
	if err != nil {
		return serverError(c, err, "directory: admin list failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"businesses": listings, "pagination": paginate(p, total)})
}

func (h *DirectoryHandler) Create(c echo.Context) error {
	u := currentUser(c)
	if u == nil {
		return view.Forbidden(c)
	}
	var req businessReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	b := model.Business{AddedBy: u.ID, IsActive: true}
	if errs := req.toBusiness(&b, h.Now().Year()); !errs.OK() {
		return validationFailed(c, errs)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Businesses.Create(ctx, &b); err != nil {
		return serverError(c, err, "directory: create failed")
	}
	purge(ctx, h.Cache)
	log.Info().Str("business_id", b.ID).Msg("directory: created")
	return c.JSON(http.StatusCreated, echo.Map{"business": b, "redirect": "/directory/admin/manage"})
}

func (h *DirectoryHandler) Get(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	b, err := h.Businesses.GetByID(ctx, c.Param("id"))
	if err != nil {
		return storeError(c, err, "directory: load failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"business": b})
}

func (h *DirectoryHandler) Update(c echo.Context) error {
	var req businessReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	b, err := h.Businesses.GetByID(ctx, c.Param("id"))
	if err != nil {
		return storeError(c, err, "directory: load failed")
	}
	if errs := req.toBusiness(b, h.Now().Year()); !errs.OK() {
		return validationFailed(c, errs)
	}
	if err := h.Businesses.Update(ctx, b); err != nil {
		return storeError(c, err, "directory: update failed")
	}
	purge(ctx, h.Cache)
	log.Info().Str("business_id", b.ID).Msg("directory: updated")
	return c.JSON(http.StatusOK, echo.Map{"business": b, "redirect": "/directory/admin/manage"})
}

func (h *DirectoryHandler) ToggleStatus(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	active, err := h.Businesses.ToggleActive(ctx, c.Param("id"))
	if err != nil {
		return storeError(c, err, "directory: toggle failed")
	}
	purge(ctx, h.Cache)
	return c.JSON(http.StatusOK, echo.Map{"success": true, "isActive": active})
}

func (h *DirectoryHandler) Delete(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	id := c.Param("id")
	if err := h.Businesses.Delete(ctx, id); err != nil {
		return storeError(c, err, "directory: delete failed")
	}
	purge(ctx, h.Cache)
	log.Info().Str("business_id", id).Msg("directory: deleted")
	return c.JSON(http.StatusOK, echo.Map{"success": true, "redirect": "/directory/admin/manage"})
}
