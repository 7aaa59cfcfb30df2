package service

import (
	"context"
	"testing"
	"time"

	"github.com/iliyamo/event-attendance/internal/clock"
	"github.com/iliyamo/event-attendance/internal/model"
)

var testNow = time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

func cap32(n uint32) *uint32 { return &n }

// publishedEvent returns a published event starting tomorrow.
func publishedEvent(id uint64, capacity *uint32, waitlist bool) model.Event {
	return model.Event{
		ID:              id,
		OrganizerID:     1,
		Phase:           model.PhasePublished,
		StartsAt:        testNow.Add(24 * time.Hour),
		Capacity:        capacity,
		WaitlistEnabled: waitlist,
	}
}

func TestAdmissionService_RequestAdmission(t *testing.T) {
	t.Parallel()

	t.Run("admits unconditionally without capacity", func(t *testing.T) {
		store := newFakeStore(publishedEvent(1, nil, false))
		svc := NewAdmissionService(store, clock.NewFixed(testNow), nil)

		for user := uint64(10); user < 20; user++ {
			if err := svc.RequestAdmission(context.Background(), 1, user); err != nil {
				t.Fatalf("expected admission for user %d, got %v", user, err)
			}
		}
		if n, _ := store.CountConfirmed(context.Background(), 1); n != 10 {
			t.Fatalf("expected 10 confirmed, got %d", n)
		}
	})

	t.Run("admits while capacity remains", func(t *testing.T) {
		store := newFakeStore(publishedEvent(1, cap32(2), true))
		svc := NewAdmissionService(store, clock.NewFixed(testNow), nil)

		if err := svc.RequestAdmission(context.Background(), 1, 10); err != nil {
			t.Fatalf("first admission: %v", err)
		}
		if err := svc.RequestAdmission(context.Background(), 1, 11); err != nil {
			t.Fatalf("second admission: %v", err)
		}
	})

	t.Run("signals must-queue at capacity with waitlist", func(t *testing.T) {
		store := newFakeStore(publishedEvent(1, cap32(1), true))
		svc := NewAdmissionService(store, clock.NewFixed(testNow), nil)

		if err := svc.RequestAdmission(context.Background(), 1, 10); err != nil {
			t.Fatalf("first admission: %v", err)
		}
		if err := svc.RequestAdmission(context.Background(), 1, 11); err != ErrMustJoinWaitlist {
			t.Fatalf("expected ErrMustJoinWaitlist, got %v", err)
		}
		// The rejected request must not have touched attendance state.
		if n, _ := store.CountConfirmed(context.Background(), 1); n != 1 {
			t.Fatalf("expected 1 confirmed, got %d", n)
		}
	})

	t.Run("rejects at capacity without waitlist", func(t *testing.T) {
		store := newFakeStore(publishedEvent(1, cap32(1), false))
		svc := NewAdmissionService(store, clock.NewFixed(testNow), nil)

		if err := svc.RequestAdmission(context.Background(), 1, 10); err != nil {
			t.Fatalf("first admission: %v", err)
		}
		if err := svc.RequestAdmission(context.Background(), 1, 11); err != ErrEventFull {
			t.Fatalf("expected ErrEventFull, got %v", err)
		}
	})

	t.Run("rejects each non-published phase with its own error", func(t *testing.T) {
		cases := []struct {
			name  string
			event model.Event
			want  error
		}{
			{
				name:  "draft",
				event: model.Event{ID: 1, Phase: model.PhaseDraft, StartsAt: testNow.Add(time.Hour)},
				want:  ErrEventDraft,
			},
			{
				name:  "cancelled regardless of future start",
				event: model.Event{ID: 1, Phase: model.PhaseCancelled, StartsAt: testNow.Add(time.Hour)},
				want:  ErrEventCancelled,
			},
			{
				name: "closed past deadline",
				event: func() model.Event {
					deadline := testNow.Add(-time.Hour)
					return model.Event{ID: 1, Phase: model.PhasePublished, StartsAt: testNow.Add(time.Hour), ResponseDeadline: &deadline}
				}(),
				want: ErrEventClosed,
			},
			{
				name:  "ongoing",
				event: model.Event{ID: 1, Phase: model.PhasePublished, StartsAt: testNow.Add(-time.Hour)},
				want:  ErrEventOngoing,
			},
			{
				name:  "completed",
				event: model.Event{ID: 1, Phase: model.PhasePublished, StartsAt: testNow.Add(-24 * time.Hour)},
				want:  ErrEventCompleted,
			},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				store := newFakeStore(tc.event)
				svc := NewAdmissionService(store, clock.NewFixed(testNow), nil)
				if err := svc.RequestAdmission(context.Background(), 1, 10); err != tc.want {
					t.Fatalf("expected %v, got %v", tc.want, err)
				}
			})
		}
	})

	t.Run("persists completed phase once on discovery", func(t *testing.T) {
		store := newFakeStore(model.Event{ID: 1, Phase: model.PhasePublished, StartsAt: testNow.Add(-24 * time.Hour)})
		svc := NewAdmissionService(store, clock.NewFixed(testNow), nil)

		_ = svc.RequestAdmission(context.Background(), 1, 10)
		_ = svc.RequestAdmission(context.Background(), 1, 11)
		if store.phaseWrites != 1 {
			t.Fatalf("expected exactly one phase write-back, got %d", store.phaseWrites)
		}
		if store.events[1].Phase != model.PhaseCompleted {
			t.Fatalf("expected stored phase COMPLETED, got %s", store.events[1].Phase)
		}
	})
}

func TestAdmissionService_ChangeResponse(t *testing.T) {
	t.Parallel()

	t.Run("vacating a confirmed slot notifies", func(t *testing.T) {
		store := newFakeStore(publishedEvent(1, cap32(1), true))
		notifier := &fakeNotifier{}
		svc := NewAdmissionService(store, clock.NewFixed(testNow), notifier)

		if err := svc.RequestAdmission(context.Background(), 1, 10); err != nil {
			t.Fatalf("admission: %v", err)
		}
		if err := svc.ChangeResponse(context.Background(), 1, 10, model.ResponseDeclined); err != nil {
			t.Fatalf("decline: %v", err)
		}
		if len(notifier.vacancies) != 1 {
			t.Fatalf("expected 1 vacancy notification, got %d", len(notifier.vacancies))
		}
		if n, _ := store.CountConfirmed(context.Background(), 1); n != 0 {
			t.Fatalf("expected 0 confirmed after decline, got %d", n)
		}
	})

	t.Run("declining without a confirmed slot does not notify", func(t *testing.T) {
		store := newFakeStore(publishedEvent(1, cap32(1), true))
		notifier := &fakeNotifier{}
		svc := NewAdmissionService(store, clock.NewFixed(testNow), notifier)

		if err := svc.ChangeResponse(context.Background(), 1, 10, model.ResponseTentative); err != nil {
			t.Fatalf("tentative: %v", err)
		}
		if len(notifier.vacancies) != 0 {
			t.Fatalf("expected no vacancy notification, got %d", len(notifier.vacancies))
		}
	})

	t.Run("rejects unknown response values", func(t *testing.T) {
		store := newFakeStore(publishedEvent(1, nil, false))
		svc := NewAdmissionService(store, clock.NewFixed(testNow), nil)
		if err := svc.ChangeResponse(context.Background(), 1, 10, "MAYBE"); err != ErrInvalidResponse {
			t.Fatalf("expected ErrInvalidResponse, got %v", err)
		}
	})
}

func TestAdmissionService_Withdraw(t *testing.T) {
	t.Parallel()

	store := newFakeStore(publishedEvent(1, cap32(1), true))
	notifier := &fakeNotifier{}
	svc := NewAdmissionService(store, clock.NewFixed(testNow), notifier)

	if err := svc.Withdraw(context.Background(), 1, 10); err != ErrNoResponse {
		t.Fatalf("expected ErrNoResponse, got %v", err)
	}
	if err := svc.RequestAdmission(context.Background(), 1, 10); err != nil {
		t.Fatalf("admission: %v", err)
	}
	if err := svc.Withdraw(context.Background(), 1, 10); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if len(notifier.vacancies) != 1 {
		t.Fatalf("expected 1 vacancy notification, got %d", len(notifier.vacancies))
	}
}
