package model

import (
	"time"

	"github.com/frankkinuthian/lms-v3/pkg/errors"
)

// Enrollment ties a user to a course they purchased or joined. Identity is
// the (userId, courseId) pair; the store enforces at most one item per pair.
type Enrollment struct {
	UserID             string
	CourseID           string
	TransactionID      string // empty for free courses
	ProgressPercentage float64
	IsCompleted        bool
	CreatedAt          time.Time
	UpdatedAt          time.Time

	Extra map[string]interface{}
}

// Type implements Entity.
func (e *Enrollment) Type() EntityType { return EntityTypeEnrollment }

// Validate implements Entity.
func (e *Enrollment) Validate() error {
	if e.UserID == "" {
		return errors.NewInvalidIdentityError("enrollment", "userId")
	}
	if e.CourseID == "" {
		return errors.NewInvalidIdentityError("enrollment", "courseId")
	}
	if e.ProgressPercentage < 0 || e.ProgressPercentage > 100 {
		return errors.NewValidationError("enrollment progress must be between 0 and 100")
	}
	return nil
}

// LessonProgress tracks a user's time and completion state on one lesson.
// Identity is the (userId, lessonId) pair.
type LessonProgress struct {
	UserID           string
	LessonID         string
	CourseID         string
	TimeSpentSeconds int
	IsCompleted      bool
	CreatedAt        time.Time
	UpdatedAt        time.Time

	Extra map[string]interface{}
}

// Type implements Entity.
func (p *LessonProgress) Type() EntityType { return EntityTypeLessonProgress }

// Validate implements Entity.
func (p *LessonProgress) Validate() error {
	if p.UserID == "" {
		return errors.NewInvalidIdentityError("lessonProgress", "userId")
	}
	if p.LessonID == "" {
		return errors.NewInvalidIdentityError("lessonProgress", "lessonId")
	}
	if p.TimeSpentSeconds < 0 {
		return errors.NewValidationError("lesson progress timeSpent must not be negative")
	}
	return nil
}
