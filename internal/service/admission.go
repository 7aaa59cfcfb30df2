package service

import (
	"context"
	"log"

	"github.com/iliyamo/event-attendance/internal/clock"
	"github.com/iliyamo/event-attendance/internal/model"
)

// VacancyNotifier receives a message whenever a confirmed slot is
// vacated.  The vacancy consumer reacts by running the promotion engine,
// which keeps the cross-subsystem trigger explicit instead of a side
// effect buried in the RSVP path.
type VacancyNotifier interface {
	SlotVacated(ctx context.Context, eventID, userID uint64) error
}

// AdmissionService decides whether a YES response is admitted directly,
// must queue, or is rejected.  It also applies response changes and
// raises the vacancy notification when a confirmed slot frees up.
type AdmissionService struct {
	store     Store
	clock     clock.Clock
	vacancies VacancyNotifier
}

// NewAdmissionService constructs an AdmissionService.  vacancies may be
// nil when no promotion trigger is wired (tests, offline tools).
func NewAdmissionService(store Store, clk clock.Clock, vacancies VacancyNotifier) *AdmissionService {
	return &AdmissionService{store: store, clock: clk, vacancies: vacancies}
}

// RequestAdmission handles a YES response for the given user.
//
// The event must be effectively PUBLISHED; any other phase rejects with
// that phase's sentinel.  Unlimited-capacity events admit uncondition-
// ally.  Otherwise the confirmed count is compared against capacity
// under the event row lock, so the check and the attendance write are a
// single atomic step and the confirmed count can never exceed capacity.
// At capacity, the caller is told to join the waitlist when one exists
// (ErrMustJoinWaitlist; joining is a deliberate second call, not an
// automatic fallback) or rejected with ErrEventFull when none does.
func (s *AdmissionService) RequestAdmission(ctx context.Context, eventID, userID uint64) error {
	now := s.clock.Now()
	return s.store.WithTx(ctx, func(txCtx context.Context) error {
		e, err := s.store.GetEventForUpdate(txCtx, eventID)
		if err != nil {
			return err
		}
		if err := requirePublished(txCtx, s.store, e, now); err != nil {
			return err
		}
		if e.Capacity != nil {
			confirmed, err := s.store.CountConfirmed(txCtx, eventID)
			if err != nil {
				return err
			}
			if confirmed >= int(*e.Capacity) {
				if e.WaitlistEnabled {
					return ErrMustJoinWaitlist
				}
				return ErrEventFull
			}
		}
		return s.store.UpsertAttendance(txCtx, eventID, userID, model.ResponseConfirmed)
	})
}

// ChangeResponse applies a DECLINED or TENTATIVE response.  When the
// change vacates a previously confirmed slot, a vacancy message is
// published after commit so the promotion engine can offer the slot to
// the waitlist.  Publishing is fire-and-forget: a delivery failure is
// logged, never surfaced, since the next vacancy re-triggers promotion.
func (s *AdmissionService) ChangeResponse(ctx context.Context, eventID, userID uint64, response string) error {
	if response != model.ResponseDeclined && response != model.ResponseTentative {
		return ErrInvalidResponse
	}
	now := s.clock.Now()
	vacated := false
	err := s.store.WithTx(ctx, func(txCtx context.Context) error {
		e, err := s.store.GetEventForUpdate(txCtx, eventID)
		if err != nil {
			return err
		}
		effective := resolvePhase(txCtx, s.store, e, now)
		switch effective {
		case model.PhaseDraft, model.PhaseCancelled, model.PhaseCompleted:
			return phaseConflict(effective)
		}
		prev, err := s.store.GetAttendance(txCtx, eventID, userID)
		if err != nil {
			return err
		}
		vacated = prev != nil && prev.Response == model.ResponseConfirmed
		return s.store.UpsertAttendance(txCtx, eventID, userID, response)
	})
	if err != nil {
		return err
	}
	if vacated && s.vacancies != nil {
		if nerr := s.vacancies.SlotVacated(ctx, eventID, userID); nerr != nil {
			log.Printf("admission: vacancy notify for event %d failed: %v", eventID, nerr)
		}
	}
	return nil
}

// Withdraw removes the user's attendance record entirely, raising the
// vacancy notification when the removed record was confirmed.
func (s *AdmissionService) Withdraw(ctx context.Context, eventID, userID uint64) error {
	vacated := false
	err := s.store.WithTx(ctx, func(txCtx context.Context) error {
		prev, err := s.store.GetAttendance(txCtx, eventID, userID)
		if err != nil {
			return err
		}
		if prev == nil {
			return ErrNoResponse
		}
		vacated = prev.Response == model.ResponseConfirmed
		removed, err := s.store.DeleteAttendance(txCtx, eventID, userID)
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
	if vacated && s.vacancies != nil {
		if nerr := s.vacancies.SlotVacated(ctx, eventID, userID); nerr != nil {
			log.Printf("admission: vacancy notify for event %d failed: %v", eventID, nerr)
		}
	}
	return nil
}
