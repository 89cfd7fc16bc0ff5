package model

import "time"

// Eligibility bounds for open-day registration.  Students must be
// between sixteen and eighteen years old inclusive at the moment the
// check runs.
const (
	MinEligibleAge = 16
	MaxEligibleAge = 18
)

// Student mirrors the 'students' table.  Age is never stored: it is
// derived from DateOfBirth each time it is needed, because eligibility
// drifts as real time passes.  IsEligible is persisted as a cached
// value but must be recomputed whenever the date of birth changes or
// eligibility is queried for a long-lived record.
type Student struct {
	ID           uint64    // students.id
	FullName     string    // students.full_name
	Email        string    // students.email (unique, lowercased)
	DateOfBirth  time.Time // students.date_of_birth (DATE)
	PasswordHash string    // students.password_hash (bcrypt)
	Role         Role      // students.role
	IsEligible   bool      // students.is_eligible (derived)
	CreatedAt    time.Time // students.created_at
	UpdatedAt    time.Time // students.updated_at
}

// ComputeAge returns the exact age in whole years at asOf: the
// calendar-year difference, minus one when asOf falls before the
// birthday in asOf's year.
func ComputeAge(dob, asOf time.Time) int {
	age := asOf.Year() - dob.Year()
	if asOf.Month() < dob.Month() ||
		(asOf.Month() == dob.Month() && asOf.Day() < dob.Day()) {
		age--
	}
	return age
}

// IsEligibleAge reports whether an age falls inside the outreach
// programme's target range.
func IsEligibleAge(age int) bool {
	return age >= MinEligibleAge && age <= MaxEligibleAge
}

// Age computes the student's age at asOf.
func (s *Student) Age(asOf time.Time) int {
	return ComputeAge(s.DateOfBirth, asOf)
}

// CheckEligibility recomputes eligibility from the date of birth at
// asOf.  Callers persist the result; nothing recomputes it implicitly.
func (s *Student) CheckEligibility(asOf time.Time) bool {
	return IsEligibleAge(s.Age(asOf))
}
