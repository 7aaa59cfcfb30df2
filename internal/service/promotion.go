package service

import (
	"context"
	"log"
	"time"

	"github.com/iliyamo/event-attendance/internal/clock"
	"github.com/iliyamo/event-attendance/internal/model"
)

// DefaultOfferTTL is how long an offered user has to confirm.  The
// window is a soft, lazily-checked timeout: it is evaluated when a
// confirmation is attempted or when promotion runs again, never by a
// background sweep.
const DefaultOfferTTL = 24 * time.Hour

// OfferNotice describes a promotion offer for the delivery subsystem.
type OfferNotice struct {
	EventID   uint64
	UserID    uint64
	OfferedAt time.Time
	ExpiresAt time.Time
}

// OfferNotifier requests delivery of an offer notification.  Delivery is
// an external collaborator's responsibility; the promotion engine only
// records the offer and requests delivery.
type OfferNotifier interface {
	OfferExtended(ctx context.Context, n OfferNotice) error
}

// PromotionService selects the next waiting user when a confirmed slot
// is vacated and opens a time-boxed confirmation offer.
type PromotionService struct {
	store    Store
	clock    clock.Clock
	notifier OfferNotifier
	offerTTL time.Duration
}

// NewPromotionService constructs a PromotionService.  notifier may be
// nil when no delivery is wired.
func NewPromotionService(store Store, clk clock.Clock, notifier OfferNotifier, opts ...PromotionOption) *PromotionService {
	svc := &PromotionService{store: store, clock: clk, notifier: notifier, offerTTL: DefaultOfferTTL}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type PromotionOption func(*PromotionService)

// WithOfferTTL overrides the default confirmation window.
func WithOfferTTL(d time.Duration) PromotionOption {
	return func(s *PromotionService) {
		if d > 0 {
			s.offerTTL = d
		}
	}
}

// PromoteNext offers a freed slot to the event's earliest eligible
// waitlist entry.  Eligible means never offered, or carrying an offer
// whose expiry has passed.  The earliest entry is therefore re-selected
// after its own offer lapses instead of the queue skipping to the next
// user; the entry leaves the queue only when its holder leaves or
// attempts a confirmation that turns out expired.
//
// Selection and the offer write happen in one transaction, and the
// write is a conditional update keyed by the entry ID that re-checks
// eligibility, so two promoters racing on two vacated slots cannot
// double-offer the same entry.  Returns the offered entry, or nil when
// the waitlist has no eligible entry (an empty result is not an error).
func (s *PromotionService) PromoteNext(ctx context.Context, eventID uint64) (*model.WaitlistEntry, error) {
	now := s.clock.Now()
	expiresAt := now.Add(s.offerTTL)
	var offered *model.WaitlistEntry
	err := s.store.WithTx(ctx, func(txCtx context.Context) error {
		entry, err := s.store.NextEligible(txCtx, eventID, now)
		if err != nil {
			return err
		}
		if entry == nil {
			return nil
		}
		matched, err := s.store.SetOffer(txCtx, entry.ID, now, expiresAt, now)
		if err != nil {
			return err
		}
		if !matched {
			// A concurrent promoter claimed the entry first.
			return nil
		}
		entry.OfferedAt = &now
		entry.OfferExpiresAt = &expiresAt
		offered = entry
		return nil
	})
	if err != nil {
		return nil, err
	}
	if offered != nil && s.notifier != nil {
		notice := OfferNotice{
			EventID:   offered.EventID,
			UserID:    offered.UserID,
			OfferedAt: now,
			ExpiresAt: expiresAt,
		}
		if nerr := s.notifier.OfferExtended(ctx, notice); nerr != nil {
			log.Printf("promotion: offer notify for event %d user %d failed: %v", offered.EventID, offered.UserID, nerr)
		}
	}
	return offered, nil
}
