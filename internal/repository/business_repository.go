package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/sylvester-francis/atcc-interview-test/internal/model"
	"github.com/sylvester-francis/atcc-interview-test/internal/validation"
)

const businessColumns = `id,business_name,owner_first_name,owner_last_name,phone,email,website,address,city,province,
	postal_code,category,description,services,logo,business_hours,year_established,social_media,is_active,is_featured,
	COALESCE(added_by,''),created_at,updated_at`

type BusinessRepo struct{ DB *sql.DB }

func NewBusinessRepo(db *sql.DB) *BusinessRepo { return &BusinessRepo{DB: db} }

// DirectoryFilter narrows the public directory. City and Search are
// matched literally and case-insensitively.
type DirectoryFilter struct {
	Category string
	City     string
	Province string
	Search   string
	Page
}

// DirectoryFacets are the distinct values offered as filters.
type DirectoryFacets struct {
	Categories []string `json:"categories"`
	Cities     []string `json:"cities"`
	Provinces  []string `json:"provinces"`
}

func (r *BusinessRepo) Create(ctx context.Context, b *model.Business) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	b.BeforeSave()
	hours, social, err := businessJSON(b)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx,
		`INSERT INTO businesses (id,business_name,owner_first_name,owner_last_name,phone,email,website,address,city,
		  province,postal_code,category,description,services,logo,business_hours,year_established,social_media,
		  is_active,is_featured,added_by)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		b.ID, b.BusinessName, b.Owner.FirstName, b.Owner.LastName, b.Contact.Phone, b.Contact.Email, b.Contact.Website,
		b.Location.Address, b.Location.City, b.Location.Province, b.Location.PostalCode, b.Category, b.Description,
		strings.Join(b.Services, ","), b.Logo, hours, b.YearEstablished, social, b.IsActive, b.IsFeatured, nullable(b.AddedBy))
	return err
}

func (r *BusinessRepo) Update(ctx context.Context, b *model.Business) error {
	b.BeforeSave()
	hours, social, err := businessJSON(b)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx,
		`UPDATE businesses SET business_name=?,owner_first_name=?,owner_last_name=?,phone=?,email=?,website=?,address=?,
		  city=?,province=?,postal_code=?,category=?,description=?,services=?,logo=?,business_hours=?,year_established=?,
		  social_media=?,is_active=?,is_featured=?
		 WHERE id=?`,
		b.BusinessName, b.Owner.FirstName, b.Owner.LastName, b.Contact.Phone, b.Contact.Email, b.Contact.Website,
		b.Location.Address, b.Location.City, b.Location.Province, b.Location.PostalCode, b.Category, b.Description,
		strings.Join(b.Services, ","), b.Logo, hours, b.YearEstablished, social, b.IsActive, b.IsFeatured, b.ID)
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

// GetByID returns a listing whether active or not.
func (r *BusinessRepo) GetByID(ctx context.Context, id string) (*model.Business, error) {
	return r.getOne(ctx, "SELECT "+businessColumns+" FROM businesses WHERE id=? LIMIT 1", id)
}

// GetActiveByID hides deactivated listings from the public.
func (r *BusinessRepo) GetActiveByID(ctx context.Context, id string) (*model.Business, error) {
	return r.getOne(ctx, "SELECT "+businessColumns+" FROM businesses WHERE id=? AND is_active=1 LIMIT 1", id)
}

// ExistsByName reports whether a listing with this exact name exists.
func (r *BusinessRepo) ExistsByName(ctx context.Context, name string) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx, "SELECT 1 FROM businesses WHERE business_name=? LIMIT 1", strings.TrimSpace(name)).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// ListActive returns active listings, featured first then by name.
func (r *BusinessRepo) ListActive(ctx context.Context, f DirectoryFilter) ([]model.Business, int, error) {
	where := []string{"is_active=1"}
	args := []any{}
	if f.Category != "" {
		where = append(where, "category=?")
		args = append(args, f.Category)
	}
	if pat, ok := validation.SQLPattern(f.City); ok {
		where = append(where, "city REGEXP ?")
		args = append(args, pat)
	}
	if f.Province != "" {
		where = append(where, "province=?")
		args = append(args, f.Province)
	}
	if pat, ok := validation.SQLPattern(f.Search); ok {
		where = append(where, "(business_name REGEXP ? OR description REGEXP ?)")
		args = append(args, pat, pat)
	}
	return r.list(ctx, strings.Join(where, " AND "), "is_featured DESC, business_name ASC", args, f.Page, 20)
}

// Related returns up to n other active listings of the same category.
func (r *BusinessRepo) Related(ctx context.Context, b *model.Business, n int) ([]model.Business, error) {
	out, _, err := r.list(ctx, "is_active=1 AND category=? AND id<>?", "is_featured DESC, business_name ASC",
		[]any{b.Category, b.ID}, Page{PerPage: n}, n)
	return out, err
}

// ListAll returns every listing for the admin screen, newest first.
func (r *BusinessRepo) ListAll(ctx context.Context, p Page) ([]model.Business, int, error) {
	return r.list(ctx, "1=1", "created_at DESC", nil, p, 15)
}

// Facets collects the distinct categories, cities and provinces of active
// listings.
func (r *BusinessRepo) Facets(ctx context.Context) (DirectoryFacets, error) {
	var f DirectoryFacets
	var err error
	if f.Categories, err = r.distinct(ctx, "category"); err != nil {
		return f, err
	}
	if f.Cities, err = r.distinct(ctx, "city"); err != nil {
		return f, err
	}
	f.Provinces, err = r.distinct(ctx, "province")
	return f, err
}

// ToggleActive flips is_active and returns the new value.
func (r *BusinessRepo) ToggleActive(ctx context.Context, id string) (bool, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	var active bool
	err = tx.QueryRowContext(ctx, "SELECT is_active FROM businesses WHERE id=? FOR UPDATE", id).Scan(&active)
	if errors.Is(err, sql.ErrNoRows) {
		return false, ErrNotFound
	}
	if err != nil {
		return false, err
	}
	if _, err := tx.ExecContext(ctx, "UPDATE businesses SET is_active=? WHERE id=?", !active, id); err != nil {
		return false, err
	}
	return !active, tx.Commit()
}

// Count counts listings added by addedBy, or all when empty.
func (r *BusinessRepo) Count(ctx context.Context, addedBy string) (int, error) {
	q, args := "SELECT COUNT(*) FROM businesses", []any{}
	if addedBy != "" {
		q += " WHERE added_by=?"
		args = append(args, addedBy)
	}
	var n int
	err := r.DB.QueryRowContext(ctx, q, args...).Scan(&n)
	return n, err
}

func (r *BusinessRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM businesses WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// distinct lists the non-empty values of a whitelisted column.
func (r *BusinessRepo) distinct(ctx context.Context, column string) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT DISTINCT "+column+" FROM businesses WHERE is_active=1 AND "+column+"<>'' ORDER BY "+column)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *BusinessRepo) list(ctx context.Context, cond, order string, args []any, p Page, def int) ([]model.Business, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM businesses WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	limit := p.limit(def)
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+businessColumns+" FROM businesses WHERE "+cond+" ORDER BY "+order+" LIMIT ? OFFSET ?",
		append(append([]any{}, args...), limit, p.offset(def))...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.Business, 0, limit)
	for rows.Next() {
		b, err := scanBusiness(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *b)
	}
	return out, total, rows.Err()
}

func (r *BusinessRepo) getOne(ctx context.Context, query string, args ...any) (*model.Business, error) {
	b, err := scanBusiness(r.DB.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return b, err
}

func businessJSON(b *model.Business) (hours, social []byte, err error) {
	if len(b.BusinessHours) > 0 {
		if hours, err = json.Marshal(b.BusinessHours); err != nil {
			return nil, nil, err
		}
	}
	if social, err = json.Marshal(b.SocialMedia); err != nil {
		return nil, nil, err
	}
	return hours, social, nil
}

func scanBusiness(s scanner) (*model.Business, error) {
	var (
		b        model.Business
		services string
		hours    []byte
		social   []byte
		year     sql.NullInt64
	)
	if err := s.Scan(&b.ID, &b.BusinessName, &b.Owner.FirstName, &b.Owner.LastName,
		&b.Contact.Phone, &b.Contact.Email, &b.Contact.Website,
		&b.Location.Address, &b.Location.City, &b.Location.Province, &b.Location.PostalCode,
		&b.Category, &b.Description, &services, &b.Logo, &hours, &year, &social,
		&b.IsActive, &b.IsFeatured, &b.AddedBy, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	b.Services = []string{}
	for _, s := range strings.Split(services, ",") {
		if s = strings.TrimSpace(s); s != "" {
			b.Services = append(b.Services, s)
		}
	}
	if len(hours) > 0 {
		if err := json.Unmarshal(hours, &b.BusinessHours); err != nil {
			return nil, err
		}
	}
	if len(social) > 0 {
		if err := json.Unmarshal(social, &b.SocialMedia); err != nil {
			return nil, err
		}
	}
	if year.Valid {
		y := int(year.Int64)
		b.YearEstablished = &y
	}
	return &b, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
