package service

import (
	"context"

	"github.com/iliyamo/event-attendance/internal/clock"
	"github.com/iliyamo/event-attendance/internal/model"
)

// WaitlistService manages the ordered queue of users waiting on a full
// event.  Position is always recomputed from committed state; FIFO order
// is defined by the committed joined_at timestamp, with the entry ID as
// a stable tie-break.
type WaitlistService struct {
	store Store
	clock clock.Clock
}

// NewWaitlistService constructs a WaitlistService.
func NewWaitlistService(store Store, clk clock.Clock) *WaitlistService {
	return &WaitlistService{store: store, clock: clk}
}

// Join adds the user to the event's waitlist.  Preconditions are checked
// in order, each with its own sentinel: the event must be effectively
// PUBLISHED, the waitlist enabled, a capacity configured (a waitlist is
// meaningless without a bound), the user neither confirmed nor already
// queued, and the event actually full.  When capacity remains, joining
// is refused with ErrAdmissionAvailable because the admission call, not
// the queue, is the entry point for available capacity.
func (s *WaitlistService) Join(ctx context.Context, eventID, userID uint64) (*model.WaitlistEntry, error) {
	now := s.clock.Now()
	var entry *model.WaitlistEntry
	err := s.store.WithTx(ctx, func(txCtx context.Context) error {
		e, err := s.store.GetEventForUpdate(txCtx, eventID)
		if err != nil {
			return err
		}
		if err := requirePublished(txCtx, s.store, e, now); err != nil {
			return err
		}
		if !e.WaitlistEnabled {
			return ErrWaitlistDisabled
		}
		if e.Capacity == nil {
			return ErrNoCapacityLimit
		}
		att, err := s.store.GetAttendance(txCtx, eventID, userID)
		if err != nil {
			return err
		}
		if att != nil && att.Response == model.ResponseConfirmed {
			return ErrAlreadyConfirmed
		}
		existing, err := s.store.GetWaitlistEntry(txCtx, eventID, userID)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrAlreadyQueued
		}
		confirmed, err := s.store.CountConfirmed(txCtx, eventID)
		if err != nil {
			return err
		}
		if confirmed < int(*e.Capacity) {
			return ErrAdmissionAvailable
		}
		entry, err = s.store.CreateWaitlistEntry(txCtx, eventID, userID, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Position returns the user's dense 1-based rank on the event's
// waitlist: one plus the count of entries that joined earlier.  It is
// computed from committed state on every call, never cached.
func (s *WaitlistService) Position(ctx context.Context, eventID, userID uint64) (int, *model.WaitlistEntry, error) {
	entry, err := s.store.GetWaitlistEntry(ctx, eventID, userID)
	if err != nil {
		return 0, nil, err
	}
	if entry == nil {
		return 0, nil, ErrNotQueued
	}
	earlier, err := s.store.CountEarlier(ctx, entry)
	if err != nil {
		return 0, nil, err
	}
	return earlier + 1, entry, nil
}

// Leave removes the user's entry.  A queued user never occupied
// capacity, so leaving does not trigger promotion.
func (s *WaitlistService) Leave(ctx context.Context, eventID, userID uint64) error {
	return s.store.WithTx(ctx, func(txCtx context.Context) error {
		entry, err := s.store.GetWaitlistEntry(txCtx, eventID, userID)
		if err != nil {
			return err
		}
		if entry == nil {
			return ErrNotQueued
		}
		_, err = s.store.DeleteWaitlistEntry(txCtx, entry.ID)
		return err
	})
}
