package service

import (
	"context"
	"testing"
	"time"

	"github.com/iliyamo/event-attendance/internal/clock"
	"github.com/iliyamo/event-attendance/internal/model"
)

func queuedStore(joins ...uint64) *fakeStore {
	store := newFakeStore(publishedEvent(1, cap32(1), true))
	for i, user := range joins {
		store.entries = append(store.entries, model.WaitlistEntry{
			ID:       uint64(200 + i),
			EventID:  1,
			UserID:   user,
			JoinedAt: testNow.Add(time.Duration(i) * time.Second),
		})
	}
	return store
}

func TestPromotionService_PromoteNext(t *testing.T) {
	t.Parallel()

	t.Run("offers to the earliest entry and notifies", func(t *testing.T) {
		store := queuedStore(11, 12, 13)
		notifier := &fakeNotifier{}
		svc := NewPromotionService(store, clock.NewFixed(testNow), notifier)

		offered, err := svc.PromoteNext(context.Background(), 1)
		if err != nil {
			t.Fatalf("promote: %v", err)
		}
		if offered == nil || offered.UserID != 11 {
			t.Fatalf("expected offer to user 11, got %+v", offered)
		}
		if offered.OfferedAt == nil || !offered.OfferedAt.Equal(testNow) {
			t.Fatalf("expected offered_at %v, got %v", testNow, offered.OfferedAt)
		}
		if offered.OfferExpiresAt == nil || !offered.OfferExpiresAt.Equal(testNow.Add(DefaultOfferTTL)) {
			t.Fatalf("expected expiry %v, got %v", testNow.Add(DefaultOfferTTL), offered.OfferExpiresAt)
		}
		if len(notifier.offers) != 1 || notifier.offers[0].UserID != 11 {
			t.Fatalf("expected one offer notification for user 11, got %+v", notifier.offers)
		}
	})

	t.Run("skips an entry with a live offer", func(t *testing.T) {
		store := queuedStore(11, 12)
		svc := NewPromotionService(store, clock.NewFixed(testNow), nil)

		if _, err := svc.PromoteNext(context.Background(), 1); err != nil {
			t.Fatalf("first promote: %v", err)
		}
		offered, err := svc.PromoteNext(context.Background(), 1)
		if err != nil {
			t.Fatalf("second promote: %v", err)
		}
		if offered == nil || offered.UserID != 12 {
			t.Fatalf("expected second slot offered to user 12, got %+v", offered)
		}
	})

	t.Run("re-offers the same entry once its offer expires", func(t *testing.T) {
		store := queuedStore(11, 12)
		svc := NewPromotionService(store, clock.NewFixed(testNow), nil)
		if _, err := svc.PromoteNext(context.Background(), 1); err != nil {
			t.Fatalf("promote: %v", err)
		}

		// A day later the unanswered offer has lapsed; the earliest entry
		// is selected again rather than the queue advancing past it.
		later := clock.NewFixed(testNow.Add(DefaultOfferTTL))
		svc = NewPromotionService(store, later, nil)
		offered, err := svc.PromoteNext(context.Background(), 1)
		if err != nil {
			t.Fatalf("re-promote: %v", err)
		}
		if offered == nil || offered.UserID != 11 {
			t.Fatalf("expected user 11 re-offered, got %+v", offered)
		}
	})

	t.Run("returns nil on an empty waitlist", func(t *testing.T) {
		store := newFakeStore(publishedEvent(1, cap32(1), true))
		notifier := &fakeNotifier{}
		svc := NewPromotionService(store, clock.NewFixed(testNow), notifier)

		offered, err := svc.PromoteNext(context.Background(), 1)
		if err != nil {
			t.Fatalf("promote: %v", err)
		}
		if offered != nil {
			t.Fatalf("expected no offer, got %+v", offered)
		}
		if len(notifier.offers) != 0 {
			t.Fatalf("expected no notification, got %d", len(notifier.offers))
		}
	})

	t.Run("lost conditional update offers nothing", func(t *testing.T) {
		// Simulate a racing promoter claiming the entry between selection
		// and the conditional write by pre-stamping a live offer.
		store := queuedStore(11)
		racing := testNow.Add(time.Millisecond)
		expires := racing.Add(DefaultOfferTTL)
		store.entries[0].OfferedAt = &racing
		store.entries[0].OfferExpiresAt = &expires

		notifier := &fakeNotifier{}
		svc := NewPromotionService(store, clock.NewFixed(testNow), notifier)
		offered, err := svc.PromoteNext(context.Background(), 1)
		if err != nil {
			t.Fatalf("promote: %v", err)
		}
		if offered != nil || len(notifier.offers) != 0 {
			t.Fatalf("expected no double offer, got %+v / %d notifications", offered, len(notifier.offers))
		}
	})

	t.Run("honours a shortened offer window", func(t *testing.T) {
		store := queuedStore(11)
		svc := NewPromotionService(store, clock.NewFixed(testNow), nil, WithOfferTTL(time.Hour))
		offered, err := svc.PromoteNext(context.Background(), 1)
		if err != nil {
			t.Fatalf("promote: %v", err)
		}
		if !offered.OfferExpiresAt.Equal(testNow.Add(time.Hour)) {
			t.Fatalf("expected 1h expiry, got %v", offered.OfferExpiresAt)
		}
	})
}
