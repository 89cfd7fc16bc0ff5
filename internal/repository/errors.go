// Package repository defines sentinel errors shared across the data
// access layer.  Handlers compare against these with errors.Is and map
// them onto HTTP status codes: ErrEmailExists -> 409, the not-found
// values -> 404, ErrHasAttendees -> 400.
package repository

import "errors"

// ErrEmailExists is returned when a student registration collides with
// an existing email address.
var ErrEmailExists = errors.New("email already exists")

// ErrStudentNotFound indicates a student row was not located.
var ErrStudentNotFound = errors.New("student not found")

// ErrOpenDayNotFound indicates an open day event was not located.
var ErrOpenDayNotFound = errors.New("open day event not found")

// ErrPodcastNotFound indicates a podcast row was not located.
var ErrPodcastNotFound = errors.New("podcast not found")

// ErrHasAttendees blocks deletion of an event that still has active
// registrations.
var ErrHasAttendees = errors.New("event has registered attendees")
