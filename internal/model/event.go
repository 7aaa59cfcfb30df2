package model

import "time"

// Stored phase values for an event.  Only DRAFT, PUBLISHED and CANCELLED
// may be written by organizers; COMPLETED is written exactly once by the
// phase resolver when the event's end time passes.  Every other lifecycle
// value (CLOSED, ONGOING) is derived from timestamps and never stored.
const (
    PhaseDraft     = "DRAFT"
    PhasePublished = "PUBLISHED"
    PhaseClosed    = "CLOSED"
    PhaseOngoing   = "ONGOING"
    PhaseCompleted = "COMPLETED"
    PhaseCancelled = "CANCELLED"
)

// Event represents a scheduled gathering with an optional attendance
// capacity.  It corresponds to a row in the `events` table.  The stored
// Phase column is authoritative only for DRAFT and CANCELLED (and the
// one-shot COMPLETED write); the current lifecycle stage must always be
// recomputed from the timestamps via the phase package.
//
// Fields:
//  ID               – primary key identifier.
//  OrganizerID      – user ID of the event organizer.
//  Title            – event title.
//  Description      – optional longer description.
//  Phase            – stored phase (see constants above).
//  StartsAt         – when the event begins.
//  EndsAt           – when the event ends (nil means StartsAt + default duration).
//  ResponseDeadline – last instant at which responses are accepted (nil = none).
//  Capacity         – maximum confirmed attendees (nil = unlimited).
//  WaitlistEnabled  – whether a waitlist opens once capacity is reached.
//  CreatedAt        – creation timestamp.
//  UpdatedAt        – last update timestamp.
type Event struct {
    ID               uint64     // events.id
    OrganizerID      uint64     // events.organizer_id
    Title            string     // events.title
    Description      *string    // events.description (nullable)
    Phase            string     // events.phase
    StartsAt         time.Time  // events.starts_at
    EndsAt           *time.Time // events.ends_at (nullable)
    ResponseDeadline *time.Time // events.response_deadline (nullable)
    Capacity         *uint32    // events.capacity (nullable, nil = unlimited)
    WaitlistEnabled  bool       // events.waitlist_enabled
    CreatedAt        time.Time  // events.created_at
    UpdatedAt        time.Time  // events.updated_at
}
