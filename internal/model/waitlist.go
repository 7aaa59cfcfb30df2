package model

import "time"

// WaitlistEntry is a waiting position for a user on a full event.  A user
// holds at most one entry per event, and never an entry and a CONFIRMED
// attendance record at the same time; the transition from one to the
// other happens atomically in the confirmation transaction.
//
// JoinedAt defines FIFO order.  When the promotion engine selects an
// entry it stamps OfferedAt and OfferExpiresAt; an expired offer makes
// the entry eligible for selection again.  Entries are deleted on
// voluntary leave, on successful confirmation, or when an expired offer
// is discovered during a confirmation attempt.
//
// Fields:
//  ID             – primary key identifier (tie-break for equal JoinedAt).
//  EventID        – event the user is waiting on.
//  UserID         – waiting user.
//  JoinedAt       – when the entry was created; FIFO order key.
//  OfferedAt      – when a slot was last offered (nil = never offered).
//  OfferExpiresAt – when the standing offer lapses (nil = no offer).
type WaitlistEntry struct {
    ID             uint64     // waitlist_entries.id
    EventID        uint64     // waitlist_entries.event_id
    UserID         uint64     // waitlist_entries.user_id
    JoinedAt       time.Time  // waitlist_entries.joined_at
    OfferedAt      *time.Time // waitlist_entries.offered_at (nullable)
    OfferExpiresAt *time.Time // waitlist_entries.offer_expires_at (nullable)
}

// HasOffer reports whether the entry carries a recorded offer.
func (e *WaitlistEntry) HasOffer() bool {
    return e.OfferedAt != nil && e.OfferExpiresAt != nil
}

// OfferExpired reports whether the entry's offer has lapsed at the given
// instant.  An entry without an offer is not expired.
func (e *WaitlistEntry) OfferExpired(now time.Time) bool {
    return e.HasOffer() && !e.OfferExpiresAt.After(now)
}
