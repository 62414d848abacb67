package model

import (
	"strings"
	"time"

	"github.com/frankkinuthian/lms-v3/pkg/errors"
)

// Role identifies what a user is allowed to do on the platform.
type Role string

const (
	RoleStudent    Role = "student"
	RoleInstructor Role = "instructor"
	RoleAdmin      Role = "admin"
)

// IsValid reports whether the role is one of the known values.
func (r Role) IsValid() bool {
	switch r {
	case RoleStudent, RoleInstructor, RoleAdmin:
		return true
	}
	return false
}

// User is a platform account. Users are soft-deleted by flipping IsActive;
// the item is never removed so enrollments and transactions keep a valid
// referent.
type User struct {
	UserID         string
	Email          string
	FullName       string
	Role           Role
	HashedPassword string
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time

	// Extra holds attributes written by newer schema versions. The codec
	// carries them through writes untouched.
	Extra map[string]interface{}
}

// Type implements Entity.
func (u *User) Type() EntityType { return EntityTypeUser }

// EmailGuard reserves an email address for one user. It is created in the
// same transaction as the user profile with an existence guard, which is
// what enforces global email uniqueness.
type EmailGuard struct {
	Email     string
	UserID    string
	CreatedAt time.Time
	UpdatedAt time.Time

	Extra map[string]interface{}
}

// Type implements Entity.
func (g *EmailGuard) Type() EntityType { return EntityTypeEmailGuard }

// Validate implements Entity.
func (g *EmailGuard) Validate() error {
	if g.Email == "" {
		return errors.NewInvalidIdentityError("emailGuard", "email")
	}
	if g.UserID == "" {
		return errors.NewInvalidIdentityError("emailGuard", "userId")
	}
	return nil
}

// Validate implements Entity.
func (u *User) Validate() error {
	if u.UserID == "" {
		return errors.NewInvalidIdentityError("user", "userId")
	}
	if u.Email == "" || !strings.Contains(u.Email, "@") {
		return errors.NewValidationError("user email must be a valid address")
	}
	if !u.Role.IsValid() {
		return errors.NewValidationError("user role must be student, instructor or admin")
	}
	return nil
}
