package model

import (
	"time"

	"github.com/frankkinuthian/lms-v3/pkg/errors"
)

// TransactionStatus is the lifecycle state of a purchase record.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
	TransactionStatusRefunded  TransactionStatus = "refunded"
)

// IsValid reports whether the status is one of the known values.
func (s TransactionStatus) IsValid() bool {
	switch s {
	case TransactionStatusPending, TransactionStatusCompleted, TransactionStatusFailed, TransactionStatusRefunded:
		return true
	}
	return false
}

// Transaction is a purchase record. Amount snapshots the course price at the
// time of checkout; it is never re-derived from the course afterwards.
type Transaction struct {
	TransactionID string
	UserID        string
	CourseID      string
	Amount        float64
	Status        TransactionStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Extra map[string]interface{}
}

// Type implements Entity.
func (t *Transaction) Type() EntityType { return EntityTypeTransaction }

// Validate implements Entity.
func (t *Transaction) Validate() error {
	if t.TransactionID == "" {
		return errors.NewInvalidIdentityError("transaction", "transactionId")
	}
	if t.UserID == "" {
		return errors.NewValidationError("transaction requires a user")
	}
	if t.CourseID == "" {
		return errors.NewValidationError("transaction requires a course")
	}
	if t.Amount < 0 {
		return errors.NewValidationError("transaction amount must not be negative")
	}
	if !t.Status.IsValid() {
		return errors.NewValidationError("transaction status is not a known value")
	}
	return nil
}
