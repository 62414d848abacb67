package model

import "time"

// Event type names published on the platform bus.
const (
	EventUserRegistered                  = "lms.user.registered"
	EventEnrollmentCompleted             = "lms.enrollment.completed"
	EventCourseDeleted                   = "lms.course.deleted"
	EventCheckoutReconciliationRequested = "lms.checkout.reconciliation_requested"
)

// DomainEvent is implemented by every event the platform publishes.
type DomainEvent interface {
	EventType() string
	OccurredAt() time.Time
}

type eventBase struct {
	Timestamp time.Time `json:"timestamp"`
}

func (e eventBase) OccurredAt() time.Time { return e.Timestamp }

// UserRegistered is published after a new account is committed.
type UserRegistered struct {
	eventBase
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
}

// NewUserRegistered creates the event with the current timestamp.
func NewUserRegistered(userID, email string, role Role) UserRegistered {
	return UserRegistered{
		eventBase: eventBase{Timestamp: time.Now().UTC()},
		UserID:    userID,
		Email:     email,
		Role:      role,
	}
}

// EventType implements DomainEvent.
func (UserRegistered) EventType() string { return EventUserRegistered }

// EnrollmentCompleted is published after a user is atomically enrolled in a
// course, whether via checkout or a free enrollment.
type EnrollmentCompleted struct {
	eventBase
	UserID        string  `json:"userId"`
	CourseID      string  `json:"courseId"`
	TransactionID string  `json:"transactionId,omitempty"`
	Amount        float64 `json:"amount"`
}

// NewEnrollmentCompleted creates the event with the current timestamp.
func NewEnrollmentCompleted(userID, courseID, transactionID string, amount float64) EnrollmentCompleted {
	return EnrollmentCompleted{
		eventBase:     eventBase{Timestamp: time.Now().UTC()},
		UserID:        userID,
		CourseID:      courseID,
		TransactionID: transactionID,
		Amount:        amount,
	}
}

// EventType implements DomainEvent.
func (EnrollmentCompleted) EventType() string { return EventEnrollmentCompleted }

// CourseDeleted is published after a course and its lessons are removed.
type CourseDeleted struct {
	eventBase
	CourseID     string `json:"courseId"`
	InstructorID string `json:"instructorId"`
}

// NewCourseDeleted creates the event with the current timestamp.
func NewCourseDeleted(courseID, instructorID string) CourseDeleted {
	return CourseDeleted{
		eventBase:    eventBase{Timestamp: time.Now().UTC()},
		CourseID:     courseID,
		InstructorID: instructorID,
	}
}

// EventType implements DomainEvent.
func (CourseDeleted) EventType() string { return EventCourseDeleted }

// CheckoutReconciliationRequested is published when completing a checkout
// fails after its payment succeeded, leaving the transaction record pending.
// A downstream worker re-drives the enrollment or refunds the payment; the
// access layer itself never compensates automatically.
type CheckoutReconciliationRequested struct {
	eventBase
	TransactionID string `json:"transactionId"`
	UserID        string `json:"userId"`
	CourseID      string `json:"courseId"`
	Reason        string `json:"reason"`
}

// NewCheckoutReconciliationRequested creates the event with the current
// timestamp.
func NewCheckoutReconciliationRequested(transactionID, userID, courseID, reason string) CheckoutReconciliationRequested {
	return CheckoutReconciliationRequested{
		eventBase:     eventBase{Timestamp: time.Now().UTC()},
		TransactionID: transactionID,
		UserID:        userID,
		CourseID:      courseID,
		Reason:        reason,
	}
}

// EventType implements DomainEvent.
func (CheckoutReconciliationRequested) EventType() string {
	return EventCheckoutReconciliationRequested
}
