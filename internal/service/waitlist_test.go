package service

import (
	"context"
	"testing"
	"time"

	"github.com/iliyamo/event-attendance/internal/clock"
	"github.com/iliyamo/event-attendance/internal/model"
)

func TestWaitlistService_Join(t *testing.T) {
	t.Parallel()

	fullEvent := func() *fakeStore {
		store := newFakeStore(publishedEvent(1, cap32(1), true))
		store.attendances = append(store.attendances, model.Attendance{
			ID: 100, EventID: 1, UserID: 10, Response: model.ResponseConfirmed,
		})
		return store
	}

	t.Run("joins a full event", func(t *testing.T) {
		store := fullEvent()
		svc := NewWaitlistService(store, clock.NewFixed(testNow))

		entry, err := svc.Join(context.Background(), 1, 11)
		if err != nil {
			t.Fatalf("join: %v", err)
		}
		if entry.EventID != 1 || entry.UserID != 11 {
			t.Fatalf("unexpected entry %+v", entry)
		}
		if !entry.JoinedAt.Equal(testNow) {
			t.Fatalf("expected joined_at %v, got %v", testNow, entry.JoinedAt)
		}
		if entry.HasOffer() {
			t.Fatalf("fresh entry must not carry an offer")
		}
	})

	t.Run("refuses when capacity is still available", func(t *testing.T) {
		store := newFakeStore(publishedEvent(1, cap32(2), true))
		store.attendances = append(store.attendances, model.Attendance{
			ID: 100, EventID: 1, UserID: 10, Response: model.ResponseConfirmed,
		})
		svc := NewWaitlistService(store, clock.NewFixed(testNow))

		if _, err := svc.Join(context.Background(), 1, 11); err != ErrAdmissionAvailable {
			t.Fatalf("expected ErrAdmissionAvailable, got %v", err)
		}
		// Once the second slot fills, joining is accepted.
		store.attendances = append(store.attendances, model.Attendance{
			ID: 101, EventID: 1, UserID: 12, Response: model.ResponseConfirmed,
		})
		if _, err := svc.Join(context.Background(), 1, 11); err != nil {
			t.Fatalf("join after filling: %v", err)
		}
	})

	t.Run("precondition errors are distinct", func(t *testing.T) {
		t.Run("waitlist disabled", func(t *testing.T) {
			store := newFakeStore(publishedEvent(1, cap32(1), false))
			svc := NewWaitlistService(store, clock.NewFixed(testNow))
			if _, err := svc.Join(context.Background(), 1, 11); err != ErrWaitlistDisabled {
				t.Fatalf("expected ErrWaitlistDisabled, got %v", err)
			}
		})
		t.Run("no capacity limit", func(t *testing.T) {
			store := newFakeStore(publishedEvent(1, nil, true))
			svc := NewWaitlistService(store, clock.NewFixed(testNow))
			if _, err := svc.Join(context.Background(), 1, 11); err != ErrNoCapacityLimit {
				t.Fatalf("expected ErrNoCapacityLimit, got %v", err)
			}
		})
		t.Run("already confirmed", func(t *testing.T) {
			store := fullEvent()
			svc := NewWaitlistService(store, clock.NewFixed(testNow))
			if _, err := svc.Join(context.Background(), 1, 10); err != ErrAlreadyConfirmed {
				t.Fatalf("expected ErrAlreadyConfirmed, got %v", err)
			}
		})
		t.Run("already queued", func(t *testing.T) {
			store := fullEvent()
			svc := NewWaitlistService(store, clock.NewFixed(testNow))
			if _, err := svc.Join(context.Background(), 1, 11); err != nil {
				t.Fatalf("first join: %v", err)
			}
			if _, err := svc.Join(context.Background(), 1, 11); err != ErrAlreadyQueued {
				t.Fatalf("expected ErrAlreadyQueued, got %v", err)
			}
		})
		t.Run("cancelled event", func(t *testing.T) {
			store := newFakeStore(model.Event{ID: 1, Phase: model.PhaseCancelled, StartsAt: testNow.Add(time.Hour), Capacity: cap32(1), WaitlistEnabled: true})
			svc := NewWaitlistService(store, clock.NewFixed(testNow))
			if _, err := svc.Join(context.Background(), 1, 11); err != ErrEventCancelled {
				t.Fatalf("expected ErrEventCancelled, got %v", err)
			}
		})
	})
}

func TestWaitlistService_Position(t *testing.T) {
	t.Parallel()

	store := newFakeStore(publishedEvent(1, cap32(1), true))
	store.attendances = append(store.attendances, model.Attendance{
		ID: 100, EventID: 1, UserID: 10, Response: model.ResponseConfirmed,
	})

	// Join three users a second apart so positions follow join order.
	for i, user := range []uint64{11, 12, 13} {
		svc := NewWaitlistService(store, clock.NewFixed(testNow.Add(time.Duration(i)*time.Second)))
		if _, err := svc.Join(context.Background(), 1, user); err != nil {
			t.Fatalf("join user %d: %v", user, err)
		}
	}

	svc := NewWaitlistService(store, clock.NewFixed(testNow))
	for i, user := range []uint64{11, 12, 13} {
		pos, _, err := svc.Position(context.Background(), 1, user)
		if err != nil {
			t.Fatalf("position user %d: %v", user, err)
		}
		if pos != i+1 {
			t.Fatalf("expected user %d at position %d, got %d", user, i+1, pos)
		}
	}

	if _, _, err := svc.Position(context.Background(), 1, 99); err != ErrNotQueued {
		t.Fatalf("expected ErrNotQueued, got %v", err)
	}

	// Positions stay dense after the head leaves.
	if err := svc.Leave(context.Background(), 1, 11); err != nil {
		t.Fatalf("leave: %v", err)
	}
	pos, _, err := svc.Position(context.Background(), 1, 12)
	if err != nil || pos != 1 {
		t.Fatalf("expected user 12 at position 1 after head left, got %d (%v)", pos, err)
	}
}

func TestWaitlistService_Leave(t *testing.T) {
	t.Parallel()

	store := newFakeStore(publishedEvent(1, cap32(1), true))
	store.attendances = append(store.attendances, model.Attendance{
		ID: 100, EventID: 1, UserID: 10, Response: model.ResponseConfirmed,
	})
	svc := NewWaitlistService(store, clock.NewFixed(testNow))

	if err := svc.Leave(context.Background(), 1, 11); err != ErrNotQueued {
		t.Fatalf("expected ErrNotQueued, got %v", err)
	}
	if _, err := svc.Join(context.Background(), 1, 11); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := svc.Leave(context.Background(), 1, 11); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if len(store.entries) != 0 {
		t.Fatalf("expected empty waitlist, got %d entries", len(store.entries))
	}
}
