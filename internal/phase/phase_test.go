package phase

import (
	"testing"
	"time"

	"github.com/iliyamo/event-attendance/internal/model"
)

func ptr(t time.Time) *time.Time { return &t }

func TestResolve(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name  string
		event model.Event
		want  string
	}{
		{
			name:  "draft ignores all time logic",
			event: model.Event{Phase: model.PhaseDraft, StartsAt: now.Add(-48 * time.Hour)},
			want:  model.PhaseDraft,
		},
		{
			name:  "cancelled is terminal even before start",
			event: model.Event{Phase: model.PhaseCancelled, StartsAt: now.Add(24 * time.Hour)},
			want:  model.PhaseCancelled,
		},
		{
			name:  "cancelled is terminal even after end",
			event: model.Event{Phase: model.PhaseCancelled, StartsAt: now.Add(-48 * time.Hour)},
			want:  model.PhaseCancelled,
		},
		{
			name: "completed when explicit end has passed",
			event: model.Event{
				Phase:    model.PhasePublished,
				StartsAt: now.Add(-4 * time.Hour),
				EndsAt:   ptr(now.Add(-time.Minute)),
			},
			want: model.PhaseCompleted,
		},
		{
			name: "completed by default duration when no end time",
			event: model.Event{
				Phase:    model.PhasePublished,
				StartsAt: now.Add(-3*time.Hour - time.Second),
			},
			want: model.PhaseCompleted,
		},
		{
			name: "ongoing between start and end",
			event: model.Event{
				Phase:    model.PhasePublished,
				StartsAt: now.Add(-time.Hour),
				EndsAt:   ptr(now.Add(time.Hour)),
			},
			want: model.PhaseOngoing,
		},
		{
			name: "ongoing overrides a passed response deadline",
			event: model.Event{
				Phase:            model.PhasePublished,
				StartsAt:         now.Add(-time.Hour),
				EndsAt:           ptr(now.Add(time.Hour)),
				ResponseDeadline: ptr(now.Add(-2 * time.Hour)),
			},
			want: model.PhaseOngoing,
		},
		{
			name: "completed overrides both ongoing and closed",
			event: model.Event{
				Phase:            model.PhasePublished,
				StartsAt:         now.Add(-5 * time.Hour),
				ResponseDeadline: ptr(now.Add(-6 * time.Hour)),
			},
			want: model.PhaseCompleted,
		},
		{
			name: "closed when deadline passed before start",
			event: model.Event{
				Phase:            model.PhasePublished,
				StartsAt:         now.Add(24 * time.Hour),
				ResponseDeadline: ptr(now.Add(-time.Minute)),
			},
			want: model.PhaseClosed,
		},
		{
			name: "published before deadline and start",
			event: model.Event{
				Phase:            model.PhasePublished,
				StartsAt:         now.Add(24 * time.Hour),
				ResponseDeadline: ptr(now.Add(12 * time.Hour)),
			},
			want: model.PhasePublished,
		},
		{
			name:  "published without deadline before start",
			event: model.Event{Phase: model.PhasePublished, StartsAt: now.Add(time.Hour)},
			want:  model.PhasePublished,
		},
		{
			name:  "exactly at start is ongoing",
			event: model.Event{Phase: model.PhasePublished, StartsAt: now},
			want:  model.PhaseOngoing,
		},
		{
			name: "exactly at end is completed",
			event: model.Event{
				Phase:    model.PhasePublished,
				StartsAt: now.Add(-2 * time.Hour),
				EndsAt:   ptr(now),
			},
			want: model.PhaseCompleted,
		},
		{
			name: "exactly at deadline is closed",
			event: model.Event{
				Phase:            model.PhasePublished,
				StartsAt:         now.Add(time.Hour),
				ResponseDeadline: ptr(now),
			},
			want: model.PhaseClosed,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := Resolve(&tc.event, now)
			if got != tc.want {
				t.Fatalf("Resolve() = %s, want %s", got, tc.want)
			}
			// Identical inputs must always yield identical output.
			if again := Resolve(&tc.event, now); again != got {
				t.Fatalf("Resolve() not deterministic: %s then %s", got, again)
			}
		})
	}
}

func TestCompletedTransition(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	t.Run("fires once when event has ended", func(t *testing.T) {
		e := model.Event{Phase: model.PhasePublished, StartsAt: now.Add(-6 * time.Hour)}
		got, ok := CompletedTransition(&e, now)
		if !ok || got != model.PhaseCompleted {
			t.Fatalf("CompletedTransition() = (%q, %v), want (COMPLETED, true)", got, ok)
		}
		// Simulate the persistence write; a second call must be a no-op.
		e.Phase = model.PhaseCompleted
		if got, ok := CompletedTransition(&e, now); ok || got != "" {
			t.Fatalf("second CompletedTransition() = (%q, %v), want no-op", got, ok)
		}
	})

	t.Run("does not fire for running event", func(t *testing.T) {
		e := model.Event{Phase: model.PhasePublished, StartsAt: now.Add(-time.Hour), EndsAt: ptr(now.Add(time.Hour))}
		if got, ok := CompletedTransition(&e, now); ok || got != "" {
			t.Fatalf("CompletedTransition() = (%q, %v), want no-op", got, ok)
		}
	})

	t.Run("does not fire for cancelled event past its end", func(t *testing.T) {
		e := model.Event{Phase: model.PhaseCancelled, StartsAt: now.Add(-48 * time.Hour)}
		if got, ok := CompletedTransition(&e, now); ok || got != "" {
			t.Fatalf("CompletedTransition() = (%q, %v), want no-op", got, ok)
		}
	})

	t.Run("does not fire for draft past its end", func(t *testing.T) {
		e := model.Event{Phase: model.PhaseDraft, StartsAt: now.Add(-48 * time.Hour)}
		if got, ok := CompletedTransition(&e, now); ok || got != "" {
			t.Fatalf("CompletedTransition() = (%q, %v), want no-op", got, ok)
		}
	})
}
