package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestComputeAge(t *testing.T) {
	asOf := date(2026, time.June, 15)

	tests := []struct {
		name string
		dob  time.Time
		want int
	}{
		{"birthday already passed this year", date(2009, time.March, 1), 17},
		{"birthday later this year", date(2009, time.September, 1), 16},
		{"birthday today", date(2009, time.June, 15), 17},
		{"birthday tomorrow", date(2009, time.June, 16), 16},
		{"same month earlier day", date(2009, time.June, 10), 17},
		{"born this year", date(2026, time.January, 1), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeAge(tt.dob, asOf))
		})
	}
}

func TestIsEligibleAge(t *testing.T) {
	assert.False(t, IsEligibleAge(15))
	assert.True(t, IsEligibleAge(16))
	assert.True(t, IsEligibleAge(17))
	assert.True(t, IsEligibleAge(18))
	assert.False(t, IsEligibleAge(19))
}

func TestCheckEligibilityTracksDateOfBirth(t *testing.T) {
	now := time.Now().UTC()

	s := Student{DateOfBirth: now.AddDate(-17, 0, 0)}
	assert.True(t, s.CheckEligibility(now), "a 17 year old is eligible")

	// Shifting the date of birth two years back makes the student 19
	// and eligibility must flip on recomputation.
	s.DateOfBirth = now.AddDate(-19, 0, 0)
	assert.False(t, s.CheckEligibility(now), "a 19 year old is not eligible")
}

func TestEligibilityDecaysWithTime(t *testing.T) {
	dob := date(2008, time.January, 10)

	at18 := date(2026, time.June, 1)
	assert.True(t, IsEligibleAge(ComputeAge(dob, at18)))

	// Same student one year later: aged out.
	at19 := date(2027, time.June, 1)
	assert.False(t, IsEligibleAge(ComputeAge(dob, at19)))
}
