package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/event-attendance/internal/model"
)

// EventRepo provides organizer-side persistence for events.  The
// admission core reads events through Store; this repository serves the
// event-management surface (create, update, cancel, listing).  All
// timestamp fields are stored in UTC.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo returns a new EventRepo bound to the given database.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// EventRecord carries the writable fields of an event row.  Stored phase
// writes are restricted to DRAFT, PUBLISHED and CANCELLED here; the
// COMPLETED value is written only by the phase write-back in the
// admission core.
type EventRecord struct {
	ID               uint64
	OrganizerID      uint64
	Title            string
	Description      *string
	Phase            string
	StartsAt         time.Time
	EndsAt           *time.Time
	ResponseDeadline *time.Time
	Capacity         *uint32
	WaitlistEnabled  bool
}

// Create inserts a new event and populates the generated ID.
func (r *EventRepo) Create(ctx context.Context, rec *EventRecord) error {
	const q = `INSERT INTO events
               (organizer_id, title, description, phase, starts_at, ends_at,
                response_deadline, capacity, waitlist_enabled)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		rec.OrganizerID, rec.Title, rec.Description, rec.Phase, rec.StartsAt.UTC(),
		nullTime(rec.EndsAt), nullTime(rec.ResponseDeadline), nullCap(rec.Capacity),
		rec.WaitlistEnabled,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rec.ID = uint64(id)
	return nil
}

// GetByID fetches a single event.
func (r *EventRepo) GetByID(ctx context.Context, eventID uint64) (*model.Event, error) {
	const q = `SELECT ` + eventColumns + ` FROM events WHERE id = ?`
	return scanEvent(r.db.QueryRowContext(ctx, q, eventID))
}

// Update rewrites the mutable fields of an event owned by the caller.
// Returns ErrForbidden when the event belongs to another organizer.
func (r *EventRepo) Update(ctx context.Context, rec *EventRecord) error {
	ownerID, err := r.organizerOf(ctx, rec.ID)
	if err != nil {
		return err
	}
	if ownerID != rec.OrganizerID {
		return ErrForbidden
	}
	const q = `UPDATE events SET title = ?, description = ?, starts_at = ?, ends_at = ?,
               response_deadline = ?, capacity = ?, waitlist_enabled = ?
               WHERE id = ?`
	_, err = r.db.ExecContext(ctx, q,
		rec.Title, rec.Description, rec.StartsAt.UTC(), nullTime(rec.EndsAt),
		nullTime(rec.ResponseDeadline), nullCap(rec.Capacity), rec.WaitlistEnabled,
		rec.ID,
	)
	return err
}

// SetStoredPhase moves an event between organizer-writable phases
// (DRAFT/PUBLISHED/CANCELLED) after verifying ownership.
func (r *EventRepo) SetStoredPhase(ctx context.Context, eventID, organizerID uint64, phase string) error {
	ownerID, err := r.organizerOf(ctx, eventID)
	if err != nil {
		return err
	}
	if ownerID != organizerID {
		return ErrForbidden
	}
	_, err = r.db.ExecContext(ctx, `UPDATE events SET phase = ? WHERE id = ?`, phase, eventID)
	return err
}

// Delete removes an event that is still a draft.  Events in any other
// stored phase may already have attendance state and return ErrConflict.
func (r *EventRepo) Delete(ctx context.Context, eventID, organizerID uint64) error {
	ownerID, err := r.organizerOf(ctx, eventID)
	if err != nil {
		return err
	}
	if ownerID != organizerID {
		return ErrForbidden
	}
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM events WHERE id = ? AND phase = ?`, eventID, model.PhaseDraft)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}

// ListByOrganizer returns all events belonging to the organizer, newest
// start first.
func (r *EventRepo) ListByOrganizer(ctx context.Context, organizerID uint64) ([]model.Event, error) {
	const q = `SELECT ` + eventColumns + ` FROM events WHERE organizer_id = ?
               ORDER BY starts_at DESC`
	return r.list(ctx, q, organizerID)
}

// ListUpcoming returns non-draft events that start after the given
// instant, soonest first.  Draft events are only visible to their
// organizer.
func (r *EventRepo) ListUpcoming(ctx context.Context, after time.Time) ([]model.Event, error) {
	const q = `SELECT ` + eventColumns + ` FROM events
               WHERE phase <> ? AND starts_at > ?
               ORDER BY starts_at`
	return r.list(ctx, q, model.PhaseDraft, after.UTC())
}

func (r *EventRepo) list(ctx context.Context, query string, args ...interface{}) ([]model.Event, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	events := make([]model.Event, 0)
	for rows.Next() {
		var (
			e           model.Event
			description sql.NullString
			endsAt      sql.NullTime
			deadline    sql.NullTime
			capacity    sql.NullInt64
		)
		if err := rows.Scan(
			&e.ID, &e.OrganizerID, &e.Title, &description, &e.Phase, &e.StartsAt,
			&endsAt, &deadline, &capacity, &e.WaitlistEnabled, &e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, err
		}
		e.StartsAt = e.StartsAt.UTC()
		if description.Valid {
			d := description.String
			e.Description = &d
		}
		if endsAt.Valid {
			t := endsAt.Time.UTC()
			e.EndsAt = &t
		}
		if deadline.Valid {
			t := deadline.Time.UTC()
			e.ResponseDeadline = &t
		}
		if capacity.Valid {
			c := uint32(capacity.Int64)
			e.Capacity = &c
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

func (r *EventRepo) organizerOf(ctx context.Context, eventID uint64) (uint64, error) {
	var ownerID uint64
	err := r.db.QueryRowContext(ctx,
		`SELECT organizer_id FROM events WHERE id = ?`, eventID).Scan(&ownerID)
	return ownerID, err
}

func nullTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func nullCap(c *uint32) interface{} {
	if c == nil {
		return nil
	}
	return *c
}
