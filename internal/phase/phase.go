// Package phase derives an event's current lifecycle stage from its stored
// phase and timestamps.  Nothing here touches the database: Resolve is a
// pure function invoked on every read, and CompletedTransition computes the
// single write-back the caller may persist.  The stored phase column is
// trusted only for DRAFT and CANCELLED; every other stage is recomputed so
// that no scheduled job is needed to move events through their lifecycle.
package phase

import (
	"time"

	"github.com/iliyamo/event-attendance/internal/model"
)

// DefaultDuration is assumed for events without an explicit end time.
const DefaultDuration = 3 * time.Hour

// effectiveEnd returns the instant at which the event is over.
func effectiveEnd(startsAt time.Time, endsAt *time.Time) time.Time {
	if endsAt != nil {
		return *endsAt
	}
	return startsAt.Add(DefaultDuration)
}

// Resolve maps the stored phase and timestamps to the effective phase at
// the given instant.  Precedence, first match wins:
//
//  1. stored DRAFT      – draft events have no time logic.
//  2. stored CANCELLED  – terminal; time never overrides it.
//  3. end ≤ now         – COMPLETED (end = EndsAt, or StartsAt + DefaultDuration).
//  4. start ≤ now < end – ONGOING (an event in progress is never merely closed).
//  5. deadline ≤ now    – CLOSED (responses no longer accepted).
//  6. otherwise         – PUBLISHED.
func Resolve(e *model.Event, now time.Time) string {
	if e.Phase == model.PhaseDraft {
		return model.PhaseDraft
	}
	if e.Phase == model.PhaseCancelled {
		return model.PhaseCancelled
	}
	end := effectiveEnd(e.StartsAt, e.EndsAt)
	if !end.After(now) {
		return model.PhaseCompleted
	}
	if !e.StartsAt.After(now) {
		return model.PhaseOngoing
	}
	if e.ResponseDeadline != nil && !e.ResponseDeadline.After(now) {
		return model.PhaseClosed
	}
	return model.PhasePublished
}

// CompletedTransition returns the phase value that should be written back
// to storage, if any.  It returns (COMPLETED, true) exactly when the
// effective phase is COMPLETED but the stored phase is not yet COMPLETED;
// in every other case it returns ("", false).  Repeated invocation after
// the write is safe: once the stored phase is COMPLETED nothing further is
// returned, so callers never produce double side effects.
func CompletedTransition(e *model.Event, now time.Time) (string, bool) {
	if e.Phase == model.PhaseCompleted {
		return "", false
	}
	if Resolve(e, now) == model.PhaseCompleted {
		return model.PhaseCompleted, true
	}
	return "", false
}
