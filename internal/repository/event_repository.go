package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/sylvester-francis/atcc-interview-test/internal/model"
)

const eventColumns = `e.id,e.title,e.description,e.start_date,e.end_date,e.address,e.city,e.province,e.postal_code,
	e.category,e.organizer_id,COALESCE(TRIM(CONCAT(u.first_name,' ',u.last_name)),''),e.featured_image,
	e.ticket_price_cents,e.max_attendees,e.registration_required,e.registration_deadline,e.status,e.tags,
	e.external_link,e.contact_email,e.contact_phone,e.created_at,e.updated_at`

const eventFrom = " FROM events e LEFT JOIN users u ON u.id = e.organizer_id "

type EventRepo struct {
	DB  *sql.DB
	Now func() time.Time
}

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{DB: db, Now: time.Now} }

// Create derives the status and inserts e, filling its ID.
func (r *EventRepo) Create(ctx context.Context, e *model.Event) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	e.BeforeSave(r.Now())
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO events (id,title,description,start_date,end_date,address,city,province,postal_code,category,
		  organizer_id,featured_image,ticket_price_cents,max_attendees,registration_required,registration_deadline,
		  status,tags,external_link,contact_email,contact_phone)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		e.ID, e.Title, e.Description, e.StartDate.UTC(), e.EndDate.UTC(),
		e.Location.Address, e.Location.City, e.Location.Province, e.Location.PostalCode, e.Category,
		e.OrganizerID, e.FeaturedImage, e.TicketPriceCents, e.MaxAttendees, e.RegistrationRequired,
		e.RegistrationDeadline, e.Status, model.JoinTags(e.Tags), e.ExternalLink, e.ContactEmail, e.ContactPhone)
	return err
}

// Update derives the status again and rewrites e.
func (r *EventRepo) Update(ctx context.Context, e *model.Event) error {
	e.BeforeSave(r.Now())
	res, err := r.DB.ExecContext(ctx,
		`UPDATE events SET title=?,description=?,start_date=?,end_date=?,address=?,city=?,province=?,postal_code=?,
		  category=?,featured_image=?,ticket_price_cents=?,max_attendees=?,registration_required=?,
		  registration_deadline=?,status=?,tags=?,external_link=?,contact_email=?,contact_phone=?
		 WHERE id=?`,
		e.Title, e.Description, e.StartDate.UTC(), e.EndDate.UTC(),
		e.Location.Address, e.Location.City, e.Location.Province, e.Location.PostalCode,
		e.Category, e.FeaturedImage, e.TicketPriceCents, e.MaxAttendees, e.RegistrationRequired,
		e.RegistrationDeadline, e.Status, model.JoinTags(e.Tags), e.ExternalLink, e.ContactEmail, e.ContactPhone, e.ID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		if _, err := r.GetByID(ctx, e.ID); err != nil {
			return err
		}
	}
	return nil
}

func (r *EventRepo) GetByID(ctx context.Context, id string) (*model.Event, error) {
	e, err := scanEvent(r.DB.QueryRowContext(ctx, "SELECT "+eventColumns+eventFrom+"WHERE e.id=? LIMIT 1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return e, err
}

// Upcoming returns up to n events starting from now on, soonest first.
func (r *EventRepo) Upcoming(ctx context.Context, category string, n int) ([]model.Event, error) {
	cond, args := "e.start_date >= ?", []any{r.Now().UTC()}
	if category != "" {
		cond += " AND e.category=?"
		args = append(args, category)
	}
	out, _, err := r.list(ctx, cond, "e.start_date ASC", args, Page{PerPage: n}, n)
	return out, err
}

// Past returns up to n finished events, most recent first.
func (r *EventRepo) Past(ctx context.Context, category string, n int) ([]model.Event, error) {
	cond, args := "e.end_date < ?", []any{r.Now().UTC()}
	if category != "" {
		cond += " AND e.category=?"
		args = append(args, category)
	}
	out, _, err := r.list(ctx, cond, "e.start_date DESC", args, Page{PerPage: n}, n)
	return out, err
}

// Related returns up to n other upcoming events of the same category.
func (r *EventRepo) Related(ctx context.Context, e *model.Event, n int) ([]model.Event, error) {
	out, _, err := r.list(ctx, "e.category=? AND e.id<>? AND e.start_date >= ?", "e.start_date ASC",
		[]any{e.Category, e.ID, r.Now().UTC()}, Page{PerPage: n}, n)
	return out, err
}

// List returns every event for the admin screen, latest start first.
func (r *EventRepo) List(ctx context.Context, p Page) ([]model.Event, int, error) {
	return r.list(ctx, "1=1", "e.start_date DESC", nil, p, 20)
}

// Count counts events organized by organizerID, or all when empty.
func (r *EventRepo) Count(ctx context.Context, organizerID string) (int, error) {
	q, args := "SELECT COUNT(*) FROM events", []any{}
	if organizerID != "" {
		q += " WHERE organizer_id=?"
		args = append(args, organizerID)
	}
	var n int
	err := r.DB.QueryRowContext(ctx, q, args...).Scan(&n)
	return n, err
}

func (r *EventRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM events WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *EventRepo) list(ctx context.Context, cond, order string, args []any, p Page, def int) ([]model.Event, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM events e WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	limit := p.limit(def)
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+eventColumns+eventFrom+"WHERE "+cond+" ORDER BY "+order+" LIMIT ? OFFSET ?",
		append(append([]any{}, args...), limit, p.offset(def))...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.Event, 0, limit)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *e)
	}
	return out, total, rows.Err()
}

func scanEvent(s scanner) (*model.Event, error) {
	var (
		e        model.Event
		maxAtt   sql.NullInt64
		deadline sql.NullTime
		tags     string
	)
	if err := s.Scan(&e.ID, &e.Title, &e.Description, &e.StartDate, &e.EndDate,
		&e.Location.Address, &e.Location.City, &e.Location.Province, &e.Location.PostalCode,
		&e.Category, &e.OrganizerID, &e.OrganizerName, &e.FeaturedImage,
		&e.TicketPriceCents, &maxAtt, &e.RegistrationRequired, &deadline, &e.Status, &tags,
		&e.ExternalLink, &e.ContactEmail, &e.ContactPhone, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	if maxAtt.Valid {
		n := int(maxAtt.Int64)
		e.MaxAttendees = &n
	}
	if deadline.Valid {
		t := deadline.Time
		e.RegistrationDeadline = &t
	}
	e.Tags = model.ParseTags(tags)
	return &e, nil
}
