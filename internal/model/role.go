package model

import "strings"

// Role is the closed set of account roles.  Authorization decisions
// match exhaustively against these values; unknown strings never pass.
type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

// ParseRole normalizes a raw role string.  Anything outside the closed
// set reports ok=false so callers can reject it explicitly instead of
// comparing free-form strings.
func ParseRole(raw string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleStudent:
		return RoleStudent, true
	case RoleAdmin:
		return RoleAdmin, true
	}
	return "", false
}

// String returns the role's wire value.
func (r Role) String() string { return string(r) }
