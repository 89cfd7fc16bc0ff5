package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	for raw, want := range map[string]Role{
		"student":  RoleStudent,
		"admin":    RoleAdmin,
		" ADMIN ":  RoleAdmin,
		"Student":  RoleStudent,
	} {
		got, ok := ParseRole(raw)
		assert.True(t, ok, raw)
		assert.Equal(t, want, got)
	}

	for _, raw := range []string{"", "root", "superuser", "students"} {
		_, ok := ParseRole(raw)
		assert.False(t, ok, raw)
	}
}
