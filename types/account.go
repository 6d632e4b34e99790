package types

import "time"

// Role is the authorization level of an account.
type Role string

// Supported roles.
const (
	// RoleAdmin manages counsellor accounts. Admins are never gated
	// by approval status.
	RoleAdmin Role = "admin"

	// RoleCounsellor handles requests, students and sessions. A
	// counsellor must be approved before using protected operations.
	RoleCounsellor Role = "counsellor"
)

// Valid reports whether the role is one of the supported values.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleCounsellor
}

// AccountStatus is the approval state of a counsellor account.
type AccountStatus string

// Supported account statuses.
const (
	// StatusPending is the initial state after self-registration.
	StatusPending AccountStatus = "pending"

	// StatusApproved grants access to protected operations.
	StatusApproved AccountStatus = "approved"

	// StatusBlocked revokes access regardless of any issued token.
	StatusBlocked AccountStatus = "blocked"
)

// Valid reports whether the status is one of the supported values.
func (s AccountStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusBlocked:
		return true
	}
	return false
}

// Account represents a human operator (admin or counsellor).
type Account struct {
	// ID is the unique identifier of the account.
	ID int `json:"id" db:"id"`

	// Email is the unique login address, stored lowercased.
	Email string `json:"email" db:"email"`

	// Name is the operator's display name.
	Name string `json:"name" db:"name"`

	// Role indicates the account's authorization level.
	Role Role `json:"role" db:"role"`

	// Status is the approval state. Admins are always approved.
	Status AccountStatus `json:"status" db:"status"`

	// PasswordHash stores the bcrypt hash of the password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// CreatedAt is the timestamp when the account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent change.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
