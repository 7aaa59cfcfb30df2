package service

import (
	"context"
	"log"

	"github.com/iliyamo/event-attendance/internal/clock"
	"github.com/iliyamo/event-attendance/internal/model"
)

// ConfirmationService converts an accepted offer into a confirmed
// attendance record, re-validating capacity at commit time.
type ConfirmationService struct {
	store      Store
	clock      clock.Clock
	promotions *PromotionService
}

// NewConfirmationService constructs a ConfirmationService.  The
// promotion service is invoked to advance the queue when an expired
// offer is discovered.
func NewConfirmationService(store Store, clk clock.Clock, promotions *PromotionService) *ConfirmationService {
	return &ConfirmationService{store: store, clock: clk, promotions: promotions}
}

// Confirm accepts the user's standing offer.
//
// The event must be effectively PUBLISHED and the user must hold an
// entry with a recorded offer.  An expired offer deletes the entry,
// re-runs promotion for the next eligible user and rejects with
// ErrOfferExpired (the caller may rejoin the queue).  A live offer
// re-checks the confirmed count against capacity under the event row
// lock, closing the window in which other admissions may have consumed
// the slot; when nothing remains the entry is left intact and the call
// rejects with ErrSlotFilled.  On success the attendance upsert and the
// entry deletion commit as one transaction, so no concurrent reader can
// observe the user both confirmed and queued.
func (s *ConfirmationService) Confirm(ctx context.Context, eventID, userID uint64) error {
	now := s.clock.Now()
	expired := false
	err := s.store.WithTx(ctx, func(txCtx context.Context) error {
		e, err := s.store.GetEventForUpdate(txCtx, eventID)
		if err != nil {
			return err
		}
		if err := requirePublished(txCtx, s.store, e, now); err != nil {
			return err
		}
		entry, err := s.store.GetWaitlistEntry(txCtx, eventID, userID)
		if err != nil {
			return err
		}
		if entry == nil {
			return ErrNotQueued
		}
		if !entry.HasOffer() {
			return ErrNoOffer
		}
		if entry.OfferExpired(now) {
			// The deletion must commit, so the rejection is raised after
			// the transaction instead of rolling it back.
			removed, err := s.store.DeleteWaitlistEntry(txCtx, entry.ID)
			if err != nil {
				return err
			}
			if !removed {
				return ErrIntegrity
			}
			expired = true
			return nil
		}
		if e.Capacity != nil {
			confirmed, err := s.store.CountConfirmed(txCtx, eventID)
			if err != nil {
				return err
			}
			if confirmed >= int(*e.Capacity) {
				return ErrSlotFilled
			}
		}
		if err := s.store.UpsertAttendance(txCtx, eventID, userID, model.ResponseConfirmed); err != nil {
			return err
		}
		removed, err := s.store.DeleteWaitlistEntry(txCtx, entry.ID)
		if err != nil {
			return err
		}
		if !removed {
			return ErrIntegrity
		}
		return nil
	})
	if err != nil {
		return err
	}
	if expired {
		if _, perr := s.promotions.PromoteNext(ctx, eventID); perr != nil {
			log.Printf("confirmation: promote after expired offer on event %d failed: %v", eventID, perr)
		}
		return ErrOfferExpired
	}
	return nil
}
