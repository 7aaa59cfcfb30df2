package service

import (
	"context"
	"time"

	"github.com/iliyamo/event-attendance/internal/model"
)

// Store is the durable-state contract the admission core runs against.
// The MySQL implementation lives in internal/repository.  WithTx runs fn
// inside a single transaction; every other method participates in the
// surrounding transaction when one is present in the context.
//
// GetEventForUpdate must lock the event row for the remainder of the
// transaction so that capacity checks and the writes that depend on them
// are serialized across concurrent requests.
type Store interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error

	GetEvent(ctx context.Context, eventID uint64) (*model.Event, error)
	GetEventForUpdate(ctx context.Context, eventID uint64) (*model.Event, error)
	// UpdateEventPhase writes the stored phase only when the current value
	// still matches from, making repeated write-backs safe.
	UpdateEventPhase(ctx context.Context, eventID uint64, from, to string) error

	CountConfirmed(ctx context.Context, eventID uint64) (int, error)
	// GetAttendance returns nil when no record exists for the pair.
	GetAttendance(ctx context.Context, eventID, userID uint64) (*model.Attendance, error)
	UpsertAttendance(ctx context.Context, eventID, userID uint64, response string) error
	// DeleteAttendance removes the record and reports whether one existed.
	DeleteAttendance(ctx context.Context, eventID, userID uint64) (bool, error)

	// GetWaitlistEntry returns nil when the user holds no entry.
	GetWaitlistEntry(ctx context.Context, eventID, userID uint64) (*model.WaitlistEntry, error)
	CreateWaitlistEntry(ctx context.Context, eventID, userID uint64, joinedAt time.Time) (*model.WaitlistEntry, error)
	// CountEarlier counts entries for the event ordered before the given
	// entry; ties on joined_at are broken by entry ID.
	CountEarlier(ctx context.Context, entry *model.WaitlistEntry) (int, error)
	// DeleteWaitlistEntry reports whether a row was actually removed.
	DeleteWaitlistEntry(ctx context.Context, entryID uint64) (bool, error)

	// NextEligible returns the entry with the earliest joined_at among
	// entries that were never offered or whose offer expired at or before
	// now, locking it for the transaction.  Returns nil when none exists.
	NextEligible(ctx context.Context, eventID uint64, now time.Time) (*model.WaitlistEntry, error)
	// SetOffer stamps the offer fields as a conditional update keyed by the
	// entry ID: the write applies only while the entry is still eligible
	// (no offer, or offer expired at or before now).  Reports whether the
	// row matched.
	SetOffer(ctx context.Context, entryID uint64, offeredAt, expiresAt, now time.Time) (bool, error)
}
