package model

import (
	"time"

	"github.com/frankkinuthian/lms-v3/pkg/errors"
)

// MaxLessonOrderIndex bounds the orderIndex so its zero-padded form in the
// sort key always sorts numerically.
const MaxLessonOrderIndex = 99999

// Lesson is a single piece of course content. OrderIndex is unique within a
// course and drives the lesson listing order; the sequence may be sparse.
type Lesson struct {
	LessonID        string
	CourseID        string
	Title           string
	OrderIndex      int
	DurationSeconds int
	VideoURL        string
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Extra map[string]interface{}
}

// Type implements Entity.
func (l *Lesson) Type() EntityType { return EntityTypeLesson }

// Validate implements Entity.
func (l *Lesson) Validate() error {
	if l.LessonID == "" {
		return errors.NewInvalidIdentityError("lesson", "lessonId")
	}
	if l.CourseID == "" {
		return errors.NewInvalidIdentityError("lesson", "courseId")
	}
	if l.Title == "" {
		return errors.NewValidationError("lesson title must not be empty")
	}
	if l.OrderIndex < 0 || l.OrderIndex > MaxLessonOrderIndex {
		return errors.NewValidationError("lesson orderIndex out of range")
	}
	if l.DurationSeconds < 0 {
		return errors.NewValidationError("lesson duration must not be negative")
	}
	return nil
}
