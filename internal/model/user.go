package model

import (
	"errors"
	"time"
)

// User is a system account that can log in (distinct from the Rep records
// claims are filed for).
type User struct {
	ID           ID         `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	ContactNo    string     `json:"contact_no"`
	PasswordHash string     `json:"-"`
	Role         string     `json:"type"`
	IsActive     bool       `json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

// Roles.
const (
	RoleAdmin   = "Admin"
	RoleRep     = "Rep"
	RoleFactory = "Factory"
)

// MinPasswordLength is the shortest password accepted for an account.
const MinPasswordLength = 6

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleRep, RoleFactory:
		return true
	}
	return false
}

// ValidatePassword checks a new password against the account policy.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return errors.New("password must be at least 6 characters")
	}
	if len(password) > 72 {
		return errors.New("password must be at most 72 bytes")
	}
	return nil
}
