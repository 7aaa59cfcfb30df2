// Package queue defines message payloads exchanged over the message broker
// together with the publisher and the background consumers.
package queue

// WaitlistOfferMessage is published when the promotion engine extends a
// confirmation offer to a queued user.  It carries enough information for
// the delivery subsystem to notify the user without querying the primary
// database.  Delivery itself is not this service's concern.
type WaitlistOfferMessage struct {
	EventID   uint64 `json:"event_id"`
	UserID    uint64 `json:"user_id"`
	OfferedAt string `json:"offered_at"`
	ExpiresAt string `json:"expires_at"`
}

// AttendanceVacatedMessage is published when a confirmed attendance
// record is removed or downgraded.  The vacancy consumer reacts by
// running the promotion engine for the event, which keeps the
// RSVP-to-promotion trigger an explicit message instead of a hidden
// side effect.
type AttendanceVacatedMessage struct {
	EventID   uint64 `json:"event_id"`
	UserID    uint64 `json:"user_id"`
	VacatedAt string `json:"vacated_at"`
}

// Queue names shared by publisher and consumers; both sides declare the
// queues durably and idempotently.
const (
	OfferQueueName   = "waitlist.offer"
	VacancyQueueName = "attendance.vacated"
)
