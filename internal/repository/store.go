package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/event-attendance/internal/model"
	"github.com/iliyamo/event-attendance/internal/service"
)

// Store is the MySQL implementation of the admission core's store
// contract (service.Store).  All timestamps are stored and compared in
// UTC.  The admission core's cross-step invariants rest on two
// mechanisms here: GetEventForUpdate locks the event row for the rest of
// the transaction, serializing capacity decisions, and SetOffer is a
// conditional update that re-checks eligibility in the WHERE clause.
type Store struct {
	db *sql.DB
}

// NewStore returns a Store bound to the given database.
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

var _ service.Store = (*Store)(nil)

// DB exposes the underlying handle for wiring other repositories.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, s.db, fn)
}

func (s *Store) q(ctx context.Context) runner {
	if tx := txFromContext(ctx); tx != nil {
		return tx
	}
	return s.db
}

const eventColumns = `id, organizer_id, title, description, phase, starts_at, ends_at,
       response_deadline, capacity, waitlist_enabled, created_at, updated_at`

func scanEvent(row *sql.Row) (*model.Event, error) {
	var (
		e           model.Event
		description sql.NullString
		endsAt      sql.NullTime
		deadline    sql.NullTime
		capacity    sql.NullInt64
	)
	err := row.Scan(
		&e.ID, &e.OrganizerID, &e.Title, &description, &e.Phase, &e.StartsAt,
		&endsAt, &deadline, &capacity, &e.WaitlistEnabled, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, service.ErrEventNotFound
		}
		return nil, err
	}
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
	e.StartsAt = e.StartsAt.UTC()
	return &e, nil
}

func (s *Store) GetEvent(ctx context.Context, eventID uint64) (*model.Event, error) {
	const q = `SELECT ` + eventColumns + ` FROM events WHERE id = ?`
	return scanEvent(s.q(ctx).QueryRowContext(ctx, q, eventID))
}

// GetEventForUpdate locks the event row until the surrounding
// transaction commits.  Must be called inside WithTx.
func (s *Store) GetEventForUpdate(ctx context.Context, eventID uint64) (*model.Event, error) {
	const q = `SELECT ` + eventColumns + ` FROM events WHERE id = ? FOR UPDATE`
	return scanEvent(s.q(ctx).QueryRowContext(ctx, q, eventID))
}

// UpdateEventPhase writes the stored phase only while it still holds its
// previous value.  Losing the race to another writer affects zero rows,
// which keeps the completed write-back idempotent across processes.
func (s *Store) UpdateEventPhase(ctx context.Context, eventID uint64, from, to string) error {
	const q = `UPDATE events SET phase = ? WHERE id = ? AND phase = ?`
	_, err := s.q(ctx).ExecContext(ctx, q, to, eventID, from)
	return err
}

func (s *Store) CountConfirmed(ctx context.Context, eventID uint64) (int, error) {
	const q = `SELECT COUNT(*) FROM attendances WHERE event_id = ? AND response = ?`
	var n int
	if err := s.q(ctx).QueryRowContext(ctx, q, eventID, model.ResponseConfirmed).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *Store) GetAttendance(ctx context.Context, eventID, userID uint64) (*model.Attendance, error) {
	const q = `SELECT id, event_id, user_id, response, created_at, updated_at
               FROM attendances WHERE event_id = ? AND user_id = ?`
	var a model.Attendance
	err := s.q(ctx).QueryRowContext(ctx, q, eventID, userID).Scan(
		&a.ID, &a.EventID, &a.UserID, &a.Response, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

// UpsertAttendance creates or updates the single record for the
// (event, user) pair; the pair is unique in the table.
func (s *Store) UpsertAttendance(ctx context.Context, eventID, userID uint64, response string) error {
	const q = `INSERT INTO attendances (event_id, user_id, response) VALUES (?, ?, ?)
               ON DUPLICATE KEY UPDATE response = VALUES(response)`
	_, err := s.q(ctx).ExecContext(ctx, q, eventID, userID, response)
	return err
}

func (s *Store) DeleteAttendance(ctx context.Context, eventID, userID uint64) (bool, error) {
	const q = `DELETE FROM attendances WHERE event_id = ? AND user_id = ?`
	res, err := s.q(ctx).ExecContext(ctx, q, eventID, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

const entryColumns = `id, event_id, user_id, joined_at, offered_at, offer_expires_at`

func scanEntry(row *sql.Row) (*model.WaitlistEntry, error) {
	var (
		e         model.WaitlistEntry
		offeredAt sql.NullTime
		expiresAt sql.NullTime
	)
	err := row.Scan(&e.ID, &e.EventID, &e.UserID, &e.JoinedAt, &offeredAt, &expiresAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	e.JoinedAt = e.JoinedAt.UTC()
	if offeredAt.Valid {
		t := offeredAt.Time.UTC()
		e.OfferedAt = &t
	}
	if expiresAt.Valid {
		t := expiresAt.Time.UTC()
		e.OfferExpiresAt = &t
	}
	return &e, nil
}

func (s *Store) GetWaitlistEntry(ctx context.Context, eventID, userID uint64) (*model.WaitlistEntry, error) {
	const q = `SELECT ` + entryColumns + ` FROM waitlist_entries WHERE event_id = ? AND user_id = ?`
	return scanEntry(s.q(ctx).QueryRowContext(ctx, q, eventID, userID))
}

func (s *Store) CreateWaitlistEntry(ctx context.Context, eventID, userID uint64, joinedAt time.Time) (*model.WaitlistEntry, error) {
	const q = `INSERT INTO waitlist_entries (event_id, user_id, joined_at) VALUES (?, ?, ?)`
	res, err := s.q(ctx).ExecContext(ctx, q, eventID, userID, joinedAt.UTC())
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &model.WaitlistEntry{
		ID:       uint64(id),
		EventID:  eventID,
		UserID:   userID,
		JoinedAt: joinedAt.UTC(),
	}, nil
}

// CountEarlier counts entries ordered before the given one.  joined_at
// carries microsecond precision so ties are rare; when they occur the
// entry ID breaks them, keeping the order total and stable.
func (s *Store) CountEarlier(ctx context.Context, entry *model.WaitlistEntry) (int, error) {
	const q = `SELECT COUNT(*) FROM waitlist_entries
               WHERE event_id = ? AND (joined_at < ? OR (joined_at = ? AND id < ?))`
	joined := entry.JoinedAt.UTC()
	var n int
	if err := s.q(ctx).QueryRowContext(ctx, q, entry.EventID, joined, joined, entry.ID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *Store) DeleteWaitlistEntry(ctx context.Context, entryID uint64) (bool, error) {
	const q = `DELETE FROM waitlist_entries WHERE id = ?`
	res, err := s.q(ctx).ExecContext(ctx, q, entryID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// NextEligible returns the earliest entry that was never offered or
// whose offer lapsed at or before now, locking it for the transaction so
// a concurrently joining entrant cannot slip ahead of it mid-update.
// Must be called inside WithTx.
func (s *Store) NextEligible(ctx context.Context, eventID uint64, now time.Time) (*model.WaitlistEntry, error) {
	const q = `SELECT ` + entryColumns + ` FROM waitlist_entries
               WHERE event_id = ? AND (offered_at IS NULL OR offer_expires_at <= ?)
               ORDER BY joined_at, id LIMIT 1 FOR UPDATE`
	return scanEntry(s.q(ctx).QueryRowContext(ctx, q, eventID, now.UTC()))
}

// SetOffer stamps the offer fields keyed by entry identity.  The WHERE
// clause repeats the eligibility condition, so a promoter that lost the
// race matches zero rows instead of double-offering.
func (s *Store) SetOffer(ctx context.Context, entryID uint64, offeredAt, expiresAt, now time.Time) (bool, error) {
	const q = `UPDATE waitlist_entries SET offered_at = ?, offer_expires_at = ?
               WHERE id = ? AND (offered_at IS NULL OR offer_expires_at <= ?)`
	res, err := s.q(ctx).ExecContext(ctx, q, offeredAt.UTC(), expiresAt.UTC(), entryID, now.UTC())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
