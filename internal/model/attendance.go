package model

import "time"

// Response values for an attendance record.
const (
    ResponseConfirmed = "CONFIRMED"
    ResponseDeclined  = "DECLINED"
    ResponseTentative = "TENTATIVE"
)

// Attendance records a user's response to an event.  At most one record
// exists per (event, user) pair; the pair is unique in the `attendances`
// table.  Only CONFIRMED responses count against an event's capacity.
//
// Fields:
//  ID        – primary key identifier.
//  EventID   – event being responded to.
//  UserID    – responding user.
//  Response  – one of CONFIRMED, DECLINED, TENTATIVE.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Attendance struct {
    ID        uint64    // attendances.id
    EventID   uint64    // attendances.event_id
    UserID    uint64    // attendances.user_id
    Response  string    // attendances.response
    CreatedAt time.Time // attendances.created_at
    UpdatedAt time.Time // attendances.updated_at
}
