// This file holds persistence for open day events.  The attendee
// ledger lives in a JSON column on the event row, so a registration or
// cancellation is a read-modify-write of a single row.  Mutations go
// through GetForUpdateTx + SaveLedgerTx inside one transaction: the
// FOR UPDATE row lock is what stops two concurrent registrations from
// both seeing a free seat and overshooting capacity.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/studenthub/outreach-api/internal/model"
)

// OpenDayRepo manages persistence for open day events.
type OpenDayRepo struct{ db *sql.DB }

func NewOpenDayRepo(db *sql.DB) *OpenDayRepo { return &OpenDayRepo{db: db} }

// DB exposes the underlying sql.DB so handlers can begin transactions
// spanning load and save of an event row.
func (r *OpenDayRepo) DB() *sql.DB { return r.db }

// OpenDayFilter narrows List results.  Zero values mean "no filter".
type OpenDayFilter struct {
	UpcomingOnly bool
	EventType    string
	Search       string
	Page         int
	Limit        int
}

const openDayCols = `id, event_name, description, date, location, capacity, registered_count,
	registration_deadline, is_registration_open, event_type, virtual_link, tags, created_by,
	attendees, created_at, updated_at`

type rowScanner interface{ Scan(dest ...any) error }

func scanOpenDay(row rowScanner) (model.OpenDay, error) {
	var (
		o           model.OpenDay
		deadline    sql.NullTime
		virtualLink sql.NullString
		tagsJSON    []byte
		attJSON     []byte
	)
	err := row.Scan(&o.ID, &o.EventName, &o.Description, &o.Date, &o.Location, &o.Capacity,
		&o.RegisteredCount, &deadline, &o.IsRegistrationOpen, &o.EventType, &virtualLink,
		&tagsJSON, &o.CreatedBy, &attJSON, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return o, err
	}
	if deadline.Valid {
		t := deadline.Time
		o.RegistrationDeadline = &t
	}
	if virtualLink.Valid {
		s := virtualLink.String
		o.VirtualLink = &s
	}
	if len(tagsJSON) > 0 {
		_ = json.Unmarshal(tagsJSON, &o.Tags)
	}
	if len(attJSON) > 0 {
		_ = json.Unmarshal(attJSON, &o.Attendees)
	}
	if o.Tags == nil {
		o.Tags = []string{}
	}
	if o.Attendees == nil {
		o.Attendees = []model.Attendee{}
	}
	return o, nil
}

// Create inserts a new event and populates the generated ID and
// DB-default timestamps on the given OpenDay.
func (r *OpenDayRepo) Create(ctx context.Context, o *model.OpenDay) error {
	tagsJSON, err := json.Marshal(o.Tags)
	if err != nil {
		return err
	}
	attJSON, err := json.Marshal(o.Attendees)
	if err != nil {
		return err
	}
	const q = `INSERT INTO open_days
		(event_name, description, date, location, capacity, registered_count,
		 registration_deadline, is_registration_open, event_type, virtual_link, tags, created_by, attendees)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`
	res, err := r.db.ExecContext(ctx, q,
		o.EventName, o.Description, o.Date.UTC(), o.Location, o.Capacity, o.RegisteredCount,
		nullTime(o.RegistrationDeadline), o.IsRegistrationOpen, o.EventType,
		nullString(o.VirtualLink), tagsJSON, o.CreatedBy, attJSON)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	o.ID = uint64(id)
	got, err := r.GetByID(ctx, o.ID)
	if err != nil {
		return err
	}
	*o = got
	return nil
}

// GetByID fetches a single event.
func (r *OpenDayRepo) GetByID(ctx context.Context, id uint64) (model.OpenDay, error) {
	o, err := scanOpenDay(r.db.QueryRowContext(ctx,
		"SELECT "+openDayCols+" FROM open_days WHERE id=? LIMIT 1", id))
	if err == sql.ErrNoRows {
		return o, ErrOpenDayNotFound
	}
	return o, err
}

// GetForUpdateTx fetches an event inside tx holding a row lock until
// the transaction ends.  Registration and cancellation must load the
// event through this method.
func (r *OpenDayRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (model.OpenDay, error) {
	o, err := scanOpenDay(tx.QueryRowContext(ctx,
		"SELECT "+openDayCols+" FROM open_days WHERE id=? FOR UPDATE", id))
	if err == sql.ErrNoRows {
		return o, ErrOpenDayNotFound
	}
	return o, err
}

// SaveLedgerTx persists the attendee ledger and the derived counter in
// the caller's transaction.  The counter is taken from the model, which
// recomputed it from the ledger before this call.
func (r *OpenDayRepo) SaveLedgerTx(ctx context.Context, tx *sql.Tx, o *model.OpenDay) error {
	attJSON, err := json.Marshal(o.Attendees)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		"UPDATE open_days SET attendees=?, registered_count=? WHERE id=?",
		attJSON, o.RegisteredCount, o.ID)
	return err
}

// Update writes mutable event fields.  Attendees and registered_count
// are deliberately excluded: the ledger only changes through the
// registration workflow.
func (r *OpenDayRepo) Update(ctx context.Context, o *model.OpenDay) error {
	tagsJSON, err := json.Marshal(o.Tags)
	if err != nil {
		return err
	}
	const q = `UPDATE open_days SET
		event_name=?, description=?, date=?, location=?, capacity=?,
		registration_deadline=?, is_registration_open=?, event_type=?, virtual_link=?, tags=?
		WHERE id=?`
	_, err = r.db.ExecContext(ctx, q,
		o.EventName, o.Description, o.Date.UTC(), o.Location, o.Capacity,
		nullTime(o.RegistrationDeadline), o.IsRegistrationOpen, o.EventType,
		nullString(o.VirtualLink), tagsJSON, o.ID)
	return err
}

// Delete removes an event.  Deletion is blocked while active
// registrations exist; the check and the delete run in one transaction
// so a concurrent registration cannot slip in between.
func (r *OpenDayRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	o, err := r.GetForUpdateTx(ctx, tx, id)
	if err != nil {
		return err
	}
	if o.RecountRegistered() > 0 {
		return ErrHasAttendees
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM open_days WHERE id=?", id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// List returns a filtered, paginated page of events plus the total row
// count for the filter.
func (r *OpenDayRepo) List(ctx context.Context, f OpenDayFilter) ([]model.OpenDay, int, error) {
	where := []string{"1=1"}
	args := []any{}
	if f.UpcomingOnly {
		where = append(where, "date > NOW()", "is_registration_open = true")
	}
	if f.EventType != "" {
		where = append(where, "event_type = ?")
		args = append(args, f.EventType)
	}
	if f.Search != "" {
		where = append(where, "(event_name LIKE ? OR description LIKE ? OR location LIKE ?)")
		like := "%" + f.Search + "%"
		args = append(args, like, like, like)
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM open_days WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	if f.Limit <= 0 {
		f.Limit = 10
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	offset := (f.Page - 1) * f.Limit
	q := "SELECT " + openDayCols + " FROM open_days WHERE " + cond + " ORDER BY date ASC LIMIT ? OFFSET ?"
	rows, err := r.db.QueryContext(ctx, q, append(args, f.Limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out, err := collectOpenDays(rows)
	return out, total, err
}

// Upcoming returns future events with open registration, soonest first.
func (r *OpenDayRepo) Upcoming(ctx context.Context, limit int) ([]model.OpenDay, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+openDayCols+" FROM open_days WHERE date > NOW() AND is_registration_open = true ORDER BY date ASC LIMIT ?",
		limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOpenDays(rows)
}

// ByDateRange returns events whose date falls inside [start, end],
// ascending.  Range validation (start < end) happens in the handler
// before this is called.
func (r *OpenDayRepo) ByDateRange(ctx context.Context, start, end time.Time) ([]model.OpenDay, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+openDayCols+" FROM open_days WHERE date BETWEEN ? AND ? ORDER BY date ASC",
		start.UTC(), end.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOpenDays(rows)
}

// AvailableForRegistration returns future, open events with seats left.
func (r *OpenDayRepo) AvailableForRegistration(ctx context.Context) ([]model.OpenDay, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+openDayCols+" FROM open_days WHERE date > NOW() AND is_registration_open = true AND registered_count < capacity ORDER BY date ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOpenDays(rows)
}

// RegisteredFor returns events where the ledger holds an active
// registration for the given student, soonest first.
func (r *OpenDayRepo) RegisteredFor(ctx context.Context, userID uint64) ([]model.OpenDay, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+openDayCols+` FROM open_days
		 WHERE JSON_CONTAINS(attendees, JSON_OBJECT('user_id', CAST(? AS UNSIGNED), 'attendance_status', 'registered'))
		 ORDER BY date ASC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOpenDays(rows)
}

func collectOpenDays(rows *sql.Rows) ([]model.OpenDay, error) {
	out := []model.OpenDay{}
	for rows.Next() {
		o, err := scanOpenDay(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
