// Package service implements the attendance admission core: deciding
// whether a response is admitted directly or queued, ordering the
// waitlist, promoting queued users when slots free up and converting
// accepted offers into confirmed attendance.  All cross-step invariants
// (capacity versus confirmed count, one entry per user, atomic offer
// acceptance) are enforced through store transactions, never through
// in-memory state, since requests may be served by independent processes.
package service

import (
	"errors"

	"github.com/iliyamo/event-attendance/internal/model"
)

// Phase conflicts: the event is not in the phase the operation requires.
// Each forbidding phase gets its own sentinel so callers can surface the
// concrete violation.
var (
	ErrEventDraft     = errors.New("event is a draft")
	ErrEventCancelled = errors.New("event is cancelled")
	ErrEventClosed    = errors.New("event responses are closed")
	ErrEventOngoing   = errors.New("event is already ongoing")
	ErrEventCompleted = errors.New("event is completed")
)

// Precondition violations.
var (
	ErrAlreadyConfirmed   = errors.New("already confirmed for this event")
	ErrAlreadyQueued      = errors.New("already on the waitlist")
	ErrNotQueued          = errors.New("not on the waitlist")
	ErrWaitlistDisabled   = errors.New("waitlist is not enabled for this event")
	ErrNoCapacityLimit    = errors.New("event has no capacity limit")
	ErrAdmissionAvailable = errors.New("capacity is available, request admission directly")
	ErrInvalidResponse    = errors.New("invalid response value")
	ErrNoResponse         = errors.New("no attendance record to withdraw")
)

// Admission outcomes for a full event.
var (
	ErrMustJoinWaitlist = errors.New("event is full, join the waitlist")
	ErrEventFull        = errors.New("event is full and has no waitlist")
)

// Offer-state and capacity-race rejections raised during confirmation.
var (
	ErrNoOffer      = errors.New("no offer has been made yet")
	ErrOfferExpired = errors.New("offer has expired")
	ErrSlotFilled   = errors.New("slot was filled before confirmation")
)

// ErrEventNotFound is returned by the store when the event does not exist.
var ErrEventNotFound = errors.New("event not found")

// ErrIntegrity signals a partial completion of an operation the store
// guarantees to be atomic.  It is an internal fault, never retried.
var ErrIntegrity = errors.New("store integrity fault")

// phaseConflict maps an effective phase to its rejection sentinel.  Only
// called with phases other than PUBLISHED.
func phaseConflict(effective string) error {
	switch effective {
	case model.PhaseDraft:
		return ErrEventDraft
	case model.PhaseCancelled:
		return ErrEventCancelled
	case model.PhaseClosed:
		return ErrEventClosed
	case model.PhaseOngoing:
		return ErrEventOngoing
	case model.PhaseCompleted:
		return ErrEventCompleted
	default:
		return ErrEventNotFound
	}
}
