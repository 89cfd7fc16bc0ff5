package model

import (
	"errors"
	"time"
)

// Event type values for the open_days.event_type enum column.
const (
	EventTypeVirtual  = "virtual"
	EventTypePhysical = "physical"
	EventTypeHybrid   = "hybrid"
)

// DefaultCapacity is applied when an event is created without an
// explicit capacity.
const DefaultCapacity = 100

// Attendance statuses for ledger entries.
const (
	AttendanceRegistered = "registered"
	AttendanceCancelled  = "cancelled"
)

// Workflow errors returned by Register and Cancel.  Handlers translate
// them into HTTP responses: ErrAlreadyRegistered maps to 409, the
// others to 400.
var (
	ErrAlreadyRegistered  = errors.New("user is already registered for this event")
	ErrRegistrationClosed = errors.New("registration is not available for this event")
	ErrNotRegistered      = errors.New("user is not registered for this event")
)

// Attendee is one entry in an event's attendee ledger.  Entries are
// never removed: cancellation flips the status and keeps the record
// for audit.  UserName is denormalized at registration time.
type Attendee struct {
	UserID       uint64    `json:"user_id"`
	UserName     string    `json:"user_name"`
	RegisteredAt time.Time `json:"registered_at"`
	Status       string    `json:"attendance_status"`
}

// OpenDay mirrors the 'open_days' table.  Attendees is the ledger of
// registration records, stored as a JSON column; RegisteredCount is a
// derived counter that must always equal the number of ledger entries
// in status "registered".  Mutating operations call RecountRegistered
// explicitly; there is no hidden recomputation hook.
type OpenDay struct {
	ID                   uint64     // open_days.id
	EventName            string     // open_days.event_name
	Description          string     // open_days.description
	Date                 time.Time  // open_days.date
	Location             string     // open_days.location
	Capacity             int        // open_days.capacity (>= 1)
	RegisteredCount      int        // open_days.registered_count (derived)
	RegistrationDeadline *time.Time // open_days.registration_deadline (nullable, <= Date)
	IsRegistrationOpen   bool       // open_days.is_registration_open
	EventType            string     // open_days.event_type
	VirtualLink          *string    // open_days.virtual_link (nullable)
	Tags                 []string   // open_days.tags (JSON)
	CreatedBy            uint64     // open_days.created_by
	Attendees            []Attendee // open_days.attendees (JSON ledger)
	CreatedAt            time.Time  // open_days.created_at
	UpdatedAt            time.Time  // open_days.updated_at
}

// IsFull reports whether the derived counter has reached capacity.
func (o *OpenDay) IsFull() bool {
	return o.RegisteredCount >= o.Capacity
}

// RemainingCapacity never goes negative, even if capacity was lowered
// below the current registration count by an admin edit.
func (o *OpenDay) RemainingCapacity() int {
	if r := o.Capacity - o.RegisteredCount; r > 0 {
		return r
	}
	return 0
}

// CanRegister evaluates the capacity policy at asOf.  All four gates
// must hold: registration open, seats left, deadline not passed
// (inclusive), event not started (exclusive).  The predicate is pure
// and must be re-evaluated at the instant of registration, inside the
// same transaction that persists the result.
func (o *OpenDay) CanRegister(asOf time.Time) bool {
	if !o.IsRegistrationOpen {
		return false
	}
	if o.IsFull() {
		return false
	}
	if o.RegistrationDeadline != nil && asOf.After(*o.RegistrationDeadline) {
		return false
	}
	return asOf.Before(o.Date)
}

// findAttendee returns the index of the ledger entry for userID, or -1.
// At most one entry per user exists because registration reuses a
// cancelled entry instead of appending a second one.
func (o *OpenDay) findAttendee(userID uint64) int {
	for i := range o.Attendees {
		if o.Attendees[i].UserID == userID {
			return i
		}
	}
	return -1
}

// Register runs the registration workflow against the in-memory
// ledger.  The duplicate check deliberately runs before the capacity
// check so that a user already holding a seat on a full event sees
// ErrAlreadyRegistered rather than ErrRegistrationClosed.  A cancelled
// entry is reactivated in place with a fresh timestamp.  The derived
// counter is recomputed before returning; the caller persists the
// event atomically.
func (o *OpenDay) Register(userID uint64, userName string, now time.Time) error {
	idx := o.findAttendee(userID)
	if idx >= 0 && o.Attendees[idx].Status == AttendanceRegistered {
		return ErrAlreadyRegistered
	}
	if !o.CanRegister(now) {
		return ErrRegistrationClosed
	}
	if userName == "" {
		userName = "Unknown"
	}
	entry := Attendee{
		UserID:       userID,
		UserName:     userName,
		RegisteredAt: now.UTC(),
		Status:       AttendanceRegistered,
	}
	if idx >= 0 {
		o.Attendees[idx] = entry
	} else {
		o.Attendees = append(o.Attendees, entry)
	}
	o.RegisteredCount = o.RecountRegistered()
	return nil
}

// Cancel flips an active registration to cancelled.  The ledger entry
// is retained and the derived counter recomputed.
func (o *OpenDay) Cancel(userID uint64) error {
	idx := o.findAttendee(userID)
	if idx < 0 || o.Attendees[idx].Status != AttendanceRegistered {
		return ErrNotRegistered
	}
	o.Attendees[idx].Status = AttendanceCancelled
	o.RegisteredCount = o.RecountRegistered()
	return nil
}

// RecountRegistered derives the registration count from the ledger.
// It is the single source of truth for registered_count; every
// mutating operation calls it before persisting.
func (o *OpenDay) RecountRegistered() int {
	n := 0
	for i := range o.Attendees {
		if o.Attendees[i].Status == AttendanceRegistered {
			n++
		}
	}
	return n
}

// ValidEventType reports whether t is one of the closed enum values.
func ValidEventType(t string) bool {
	switch t {
	case EventTypeVirtual, EventTypePhysical, EventTypeHybrid:
		return true
	}
	return false
}
