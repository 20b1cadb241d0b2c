package models

import "time"

type AccountRole string

const (
	RoleOps    AccountRole = "OPS"
	RoleClient AccountRole = "CLIENT"
)

// ValidRole reports whether role is one of the two roles accounts can be
// created with. Roles are immutable after creation.
func ValidRole(role AccountRole) bool {
	return role == RoleOps || role == RoleClient
}

type Account struct {
	ID           string
	Email        string
	PasswordHash []byte
	Role         AccountRole
	IsVerified   bool
	CreatedAt    time.Time
}

// Session is the bearer credential behind an API auth token. Sessions do
// not expire; they disappear only when explicitly revoked.
type Session struct {
	ID        string
	AccountID string
	CreatedAt time.Time
}
