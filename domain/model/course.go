package model

import (
	"time"

	"github.com/frankkinuthian/lms-v3/pkg/errors"
)

// Course is a sellable unit of content owned by an instructor and filed under
// exactly one category. EnrollmentCount is maintained by the enrollment
// transaction, never written directly by callers.
type Course struct {
	CourseID        string
	InstructorID    string
	CategoryID      string
	Title           string
	Description     string
	Price           float64
	IsPublished     bool
	EnrollmentCount int
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Extra map[string]interface{}
}

// Type implements Entity.
func (c *Course) Type() EntityType { return EntityTypeCourse }

// Validate implements Entity.
func (c *Course) Validate() error {
	if c.CourseID == "" {
		return errors.NewInvalidIdentityError("course", "courseId")
	}
	if c.InstructorID == "" {
		return errors.NewValidationError("course requires an instructor")
	}
	if c.CategoryID == "" {
		return errors.NewValidationError("course requires a category")
	}
	if c.Title == "" {
		return errors.NewValidationError("course title must not be empty")
	}
	if c.Price < 0 {
		return errors.NewValidationError("course price must not be negative")
	}
	return nil
}

// IsFree reports whether enrolling requires no payment reference.
func (c *Course) IsFree() bool { return c.Price == 0 }
