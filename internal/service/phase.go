package service

import (
	"context"
	"log"
	"time"

	"github.com/iliyamo/event-attendance/internal/model"
	"github.com/iliyamo/event-attendance/internal/phase"
)

// resolvePhase computes the effective phase and performs the one-shot
// COMPLETED write-back when the resolver reports one.  The write is
// conditional on the stored phase still holding its previous value, so
// losing the race to another process leaves exactly one persisted
// transition.  A failed write-back is logged and ignored: the effective
// phase is already correct for the caller and the next read retries.
func resolvePhase(ctx context.Context, store Store, e *model.Event, now time.Time) string {
	effective := phase.Resolve(e, now)
	if to, ok := phase.CompletedTransition(e, now); ok {
		if err := store.UpdateEventPhase(ctx, e.ID, e.Phase, to); err != nil {
			log.Printf("phase: persist completed for event %d failed: %v", e.ID, err)
		}
	}
	return effective
}

// requirePublished rejects with the phase-conflict sentinel for the
// event's effective phase unless it is PUBLISHED.
func requirePublished(ctx context.Context, store Store, e *model.Event, now time.Time) error {
	if effective := resolvePhase(ctx, store, e, now); effective != model.PhasePublished {
		return phaseConflict(effective)
	}
	return nil
}
