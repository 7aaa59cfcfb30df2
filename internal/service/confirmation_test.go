package service

import (
	"context"
	"testing"
	"time"

	"github.com/iliyamo/event-attendance/internal/clock"
	"github.com/iliyamo/event-attendance/internal/model"
)

func confirmationStack(store *fakeStore, clk clock.Clock) (*ConfirmationService, *fakeNotifier) {
	notifier := &fakeNotifier{}
	promotions := NewPromotionService(store, clk, notifier)
	return NewConfirmationService(store, clk, promotions), notifier
}

// Full lifecycle: A admitted, B queued, A's slot vacated, B offered and
// confirming before expiry.
func TestConfirmationService_Lifecycle(t *testing.T) {
	t.Parallel()

	store := newFakeStore(publishedEvent(1, cap32(1), true))
	clk := clock.NewFixed(testNow)
	notifier := &fakeNotifier{}
	promotions := NewPromotionService(store, clk, notifier)
	admission := NewAdmissionService(store, clk, nil)
	waitlist := NewWaitlistService(store, clk)
	confirmation := NewConfirmationService(store, clk, promotions)

	if err := admission.RequestAdmission(context.Background(), 1, 10); err != nil {
		t.Fatalf("admit A: %v", err)
	}
	if err := admission.RequestAdmission(context.Background(), 1, 11); err != ErrMustJoinWaitlist {
		t.Fatalf("expected ErrMustJoinWaitlist for B, got %v", err)
	}
	if _, err := waitlist.Join(context.Background(), 1, 11); err != nil {
		t.Fatalf("B join: %v", err)
	}
	pos, _, err := waitlist.Position(context.Background(), 1, 11)
	if err != nil || pos != 1 {
		t.Fatalf("expected B at position 1, got %d (%v)", pos, err)
	}

	// A's record is removed (external RSVP change) and the freed slot is
	// promoted.
	if _, err := store.DeleteAttendance(context.Background(), 1, 10); err != nil {
		t.Fatalf("remove A: %v", err)
	}
	offered, err := promotions.PromoteNext(context.Background(), 1)
	if err != nil || offered == nil || offered.UserID != 11 {
		t.Fatalf("expected offer to B, got %+v (%v)", offered, err)
	}

	if err := confirmation.Confirm(context.Background(), 1, 11); err != nil {
		t.Fatalf("B confirm: %v", err)
	}
	att, _ := store.GetAttendance(context.Background(), 1, 11)
	if att == nil || att.Response != model.ResponseConfirmed {
		t.Fatalf("expected B confirmed, got %+v", att)
	}
	if len(store.entries) != 0 {
		t.Fatalf("expected empty waitlist after confirmation, got %d entries", len(store.entries))
	}
	if n, _ := store.CountConfirmed(context.Background(), 1); n != 1 {
		t.Fatalf("expected confirmed count 1, got %d", n)
	}
}

func TestConfirmationService_Confirm(t *testing.T) {
	t.Parallel()

	t.Run("rejects when not queued", func(t *testing.T) {
		store := newFakeStore(publishedEvent(1, cap32(1), true))
		svc, _ := confirmationStack(store, clock.NewFixed(testNow))
		if err := svc.Confirm(context.Background(), 1, 11); err != ErrNotQueued {
			t.Fatalf("expected ErrNotQueued, got %v", err)
		}
	})

	t.Run("rejects without an offer", func(t *testing.T) {
		store := queuedStore(11)
		svc, _ := confirmationStack(store, clock.NewFixed(testNow))
		if err := svc.Confirm(context.Background(), 1, 11); err != ErrNoOffer {
			t.Fatalf("expected ErrNoOffer, got %v", err)
		}
		if len(store.entries) != 1 {
			t.Fatalf("entry must survive a no-offer rejection")
		}
	})

	t.Run("expired offer deletes the entry and re-promotes", func(t *testing.T) {
		store := queuedStore(11)
		promoteClk := clock.NewFixed(testNow)
		promotions := NewPromotionService(store, promoteClk, nil)
		if _, err := promotions.PromoteNext(context.Background(), 1); err != nil {
			t.Fatalf("promote: %v", err)
		}

		// Confirmation arrives a day too late.
		late := clock.NewFixed(testNow.Add(DefaultOfferTTL + time.Minute))
		svc, _ := confirmationStack(store, late)
		if err := svc.Confirm(context.Background(), 1, 11); err != ErrOfferExpired {
			t.Fatalf("expected ErrOfferExpired, got %v", err)
		}
		// No third person joined, so the re-evaluated queue stays empty.
		if len(store.entries) != 0 {
			t.Fatalf("expected entry deleted, got %d entries", len(store.entries))
		}
		if att, _ := store.GetAttendance(context.Background(), 1, 11); att != nil {
			t.Fatalf("expired confirmation must not create attendance, got %+v", att)
		}
	})

	t.Run("expired offer advances the queue to the next entry", func(t *testing.T) {
		store := queuedStore(11, 12)
		promotions := NewPromotionService(store, clock.NewFixed(testNow), nil)
		if _, err := promotions.PromoteNext(context.Background(), 1); err != nil {
			t.Fatalf("promote: %v", err)
		}

		late := clock.NewFixed(testNow.Add(DefaultOfferTTL + time.Minute))
		svc, notifier := confirmationStack(store, late)
		if err := svc.Confirm(context.Background(), 1, 11); err != ErrOfferExpired {
			t.Fatalf("expected ErrOfferExpired, got %v", err)
		}
		if len(store.entries) != 1 || store.entries[0].UserID != 12 {
			t.Fatalf("expected user 12 to remain queued, got %+v", store.entries)
		}
		if !store.entries[0].HasOffer() {
			t.Fatalf("expected a fresh offer for user 12")
		}
		if len(notifier.offers) != 1 || notifier.offers[0].UserID != 12 {
			t.Fatalf("expected offer notification for user 12, got %+v", notifier.offers)
		}
	})

	t.Run("slot filled leaves entry intact", func(t *testing.T) {
		store := queuedStore(11)
		promotions := NewPromotionService(store, clock.NewFixed(testNow), nil)
		if _, err := promotions.PromoteNext(context.Background(), 1); err != nil {
			t.Fatalf("promote: %v", err)
		}
		// Another admission consumes the slot between offer and confirm.
		store.attendances = append(store.attendances, model.Attendance{
			ID: 300, EventID: 1, UserID: 20, Response: model.ResponseConfirmed,
		})

		svc, _ := confirmationStack(store, clock.NewFixed(testNow.Add(time.Hour)))
		if err := svc.Confirm(context.Background(), 1, 11); err != ErrSlotFilled {
			t.Fatalf("expected ErrSlotFilled, got %v", err)
		}
		if len(store.entries) != 1 {
			t.Fatalf("entry must survive a slot-filled rejection")
		}
		if att, _ := store.GetAttendance(context.Background(), 1, 11); att != nil {
			t.Fatalf("slot-filled confirmation must not create attendance")
		}
	})

	t.Run("phase conflict rejects before touching the entry", func(t *testing.T) {
		store := queuedStore(11)
		store.events[1].Phase = model.PhaseCancelled
		svc, _ := confirmationStack(store, clock.NewFixed(testNow))
		if err := svc.Confirm(context.Background(), 1, 11); err != ErrEventCancelled {
			t.Fatalf("expected ErrEventCancelled, got %v", err)
		}
		if len(store.entries) != 1 {
			t.Fatalf("entry must survive a phase-conflict rejection")
		}
	})
}
