package catalog

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"go.uber.org/zap"

	"github.com/frankkinuthian/lms-v3/domain/model"
	dynamo "github.com/frankkinuthian/lms-v3/infrastructure/persistence/dynamodb"
	"github.com/frankkinuthian/lms-v3/pkg/errors"
)

// BeginCheckout opens a purchase by recording a pending transaction whose
// amount snapshots the course price at this moment. Later price changes do
// not affect a checkout already begun.
func (s *Service) BeginCheckout(ctx context.Context, userID, courseID string) (*model.Transaction, error) {
	user, err := s.GetUserProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, errors.NewConstraintViolationError("deactivated users cannot begin checkout")
	}

	course, err := s.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if !course.IsPublished {
		return nil, errors.NewConstraintViolationError("course is not open for enrollment")
	}
	if course.IsFree() {
		return nil, errors.NewConstraintViolationError("free courses do not require checkout")
	}

	if _, err := s.GetEnrollment(ctx, userID, courseID); err == nil {
		return nil, errors.NewConstraintViolationError("user is already enrolled in this course")
	} else if !errors.IsNotFound(err) {
		return nil, err
	}

	tx := &model.Transaction{
		TransactionID: s.newID(),
		UserID:        userID,
		CourseID:      courseID,
		Amount:        course.Price,
		Status:        model.TransactionStatusPending,
	}
	if err := tx.Validate(); err != nil {
		return nil, err
	}

	if err := s.store.PutItem(ctx, tx, dynamo.WithCreateGuard()); err != nil {
		return nil, err
	}

	s.logger.Info("checkout begun",
		zap.String("transactionId", tx.TransactionID),
		zap.String("userId", userID),
		zap.String("courseId", courseID),
		zap.Float64("amount", tx.Amount))
	return tx, nil
}

// CompleteCheckout settles a pending transaction: in one atomic commit the
// transaction flips to completed, the enrollment is created and the course's
// enrollment count grows by one. Completing a transaction that is not
// pending, or whose enrollment already exists, fails without writing
// anything.
//
// When the commit cannot be applied because the store is unavailable, the
// transaction record stays pending and a reconciliation event is published;
// nothing is rolled back automatically, so payment evidence survives for a
// manual or downstream re-drive.
func (s *Service) CompleteCheckout(ctx context.Context, transactionID string) (*model.Enrollment, error) {
	tx, err := s.GetTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if tx.Status != model.TransactionStatusPending {
		return nil, errors.NewConstraintViolationError("transaction is not pending")
	}

	txKey, err := dynamo.TransactionKey(transactionID)
	if err != nil {
		return nil, err
	}
	courseKey, err := dynamo.CourseKey(tx.CourseID)
	if err != nil {
		return nil, err
	}

	enrollment := &model.Enrollment{
		UserID:        tx.UserID,
		CourseID:      tx.CourseID,
		TransactionID: tx.TransactionID,
	}
	if err := enrollment.Validate(); err != nil {
		return nil, err
	}

	now := s.clock().UTC().Format(time.RFC3339Nano)
	ws := dynamo.NewWriteSet().
		Update(txKey,
			expression.Set(expression.Name("Status"), expression.Value(string(model.TransactionStatusCompleted))).
				Set(expression.Name("UpdatedAt"), expression.Value(now)),
			expression.Equal(expression.Name("Status"), expression.Value(string(model.TransactionStatusPending)))).
		Create(enrollment).
		Update(courseKey,
			expression.Add(expression.Name("EnrollmentCount"), expression.Value(1)).
				Set(expression.Name("UpdatedAt"), expression.Value(now)),
			courseExistsCondition())

	if err := s.store.TransactWrite(ctx, ws); err != nil {
		if errors.IsStoreUnavailable(err) {
			s.logger.Error("checkout completion exhausted retries, requesting reconciliation",
				zap.String("transactionId", transactionID),
				zap.Error(err))
			s.publish(ctx, model.NewCheckoutReconciliationRequested(
				tx.TransactionID, tx.UserID, tx.CourseID, "enrollment commit unavailable"))
		}
		if errors.IsConstraintViolation(err) {
			return nil, errors.NewConstraintViolationError("checkout cannot be completed")
		}
		return nil, err
	}

	s.logger.Info("checkout completed",
		zap.String("transactionId", transactionID),
		zap.String("userId", tx.UserID),
		zap.String("courseId", tx.CourseID))
	s.publish(ctx, model.NewEnrollmentCompleted(tx.UserID, tx.CourseID, tx.TransactionID, tx.Amount))

	return enrollment, nil
}

// FailCheckout marks a pending transaction failed, releasing the purchase
// without creating an enrollment.
func (s *Service) FailCheckout(ctx context.Context, transactionID string) error {
	txKey, err := dynamo.TransactionKey(transactionID)
	if err != nil {
		return err
	}

	err = s.store.UpdateItem(ctx, txKey,
		expression.Set(expression.Name("Status"), expression.Value(string(model.TransactionStatusFailed))).
			Set(expression.Name("UpdatedAt"), expression.Value(s.clock().UTC().Format(time.RFC3339Nano))),
		expression.Equal(expression.Name("Status"), expression.Value(string(model.TransactionStatusPending))))
	if err != nil {
		if errors.IsConstraintViolation(err) {
			return errors.NewConstraintViolationError("transaction is not pending")
		}
		return err
	}

	s.logger.Info("checkout failed", zap.String("transactionId", transactionID))
	return nil
}

// GetTransaction reads one transaction by identifier.
func (s *Service) GetTransaction(ctx context.Context, transactionID string) (*model.Transaction, error) {
	key, err := dynamo.TransactionKey(transactionID)
	if err != nil {
		return nil, err
	}
	entity, err := s.store.GetByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	tx, ok := entity.(*model.Transaction)
	if !ok {
		return nil, errors.NewMalformedItemError("item at transaction key is not a transaction")
	}
	return tx, nil
}

// TransactionListPage is one page of a user's transactions in creation order.
type TransactionListPage struct {
	Transactions []*model.Transaction
	NextCursor   string
}

// ListUserTransactions pages through a user's payment history, oldest first.
// Creation time is embedded in the index sort key, so the order costs no
// client-side sort.
func (s *Service) ListUserTransactions(ctx context.Context, userID string, page dynamo.PageRequest) (TransactionListPage, error) {
	if userID == "" {
		return TransactionListPage{}, errors.NewInvalidIdentityError("transaction", "userId")
	}

	result, err := s.store.ScanSecondaryIndex(ctx, dynamo.PrefixUser+userID, dynamo.PrefixTransaction, page)
	if err != nil {
		return TransactionListPage{}, err
	}

	out := TransactionListPage{NextCursor: result.NextCursor}
	for _, entity := range result.Entities {
		tx, ok := entity.(*model.Transaction)
		if !ok {
			return TransactionListPage{}, errors.NewMalformedItemError("item in transaction listing is not a transaction")
		}
		out.Transactions = append(out.Transactions, tx)
	}
	return out, nil
}
