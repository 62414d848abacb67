package catalog

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frankkinuthian/lms-v3/domain/model"
	dynamo "github.com/frankkinuthian/lms-v3/infrastructure/persistence/dynamodb"
	"github.com/frankkinuthian/lms-v3/pkg/errors"
)

func pendingTransaction(id string, amount float64) *model.Transaction {
	return &model.Transaction{
		TransactionID: id,
		UserID:        "u1",
		CourseID:      "c1",
		Amount:        amount,
		Status:        model.TransactionStatusPending,
		CreatedAt:     fixedNow,
	}
}

func TestBeginCheckout_SnapshotsCoursePrice(t *testing.T) {
	store := newStubStore().seed(
		activeStudent("u1", "s@example.com"),
		publishedCourse("c1", "cat1", 49.99),
	)
	svc, _ := newTestService(store)

	tx, err := svc.BeginCheckout(context.Background(), "u1", "c1")

	require.NoError(t, err)
	assert.Equal(t, "id-1", tx.TransactionID)
	assert.Equal(t, 49.99, tx.Amount)
	assert.Equal(t, model.TransactionStatusPending, tx.Status)

	// A later price change must not affect the checkout already begun.
	course, err := svc.GetCourse(context.Background(), "c1")
	require.NoError(t, err)
	course.Price = 99.99
	assert.Equal(t, 49.99, tx.Amount)
}

func TestBeginCheckout_FreeCourse(t *testing.T) {
	store := newStubStore().seed(
		activeStudent("u1", "s@example.com"),
		publishedCourse("c1", "cat1", 0),
	)
	svc, _ := newTestService(store)

	_, err := svc.BeginCheckout(context.Background(), "u1", "c1")

	require.Error(t, err)
	assert.True(t, errors.IsConstraintViolation(err))
	assert.Contains(t, err.Error(), "free courses")
}

func TestBeginCheckout_AlreadyEnrolled(t *testing.T) {
	store := newStubStore().seed(
		activeStudent("u1", "s@example.com"),
		publishedCourse("c1", "cat1", 49.99),
		&model.Enrollment{UserID: "u1", CourseID: "c1"},
	)
	svc, _ := newTestService(store)

	_, err := svc.BeginCheckout(context.Background(), "u1", "c1")

	require.Error(t, err)
	assert.True(t, errors.IsConstraintViolation(err))
	assert.Contains(t, err.Error(), "already enrolled")
}

func TestCompleteCheckout_Success(t *testing.T) {
	store := newStubStore().seed(
		publishedCourse("c1", "cat1", 49.99),
		pendingTransaction("t1", 49.99),
	)
	svc, pub := newTestService(store)

	enrollment, err := svc.CompleteCheckout(context.Background(), "t1")

	require.NoError(t, err)
	assert.Equal(t, "u1", enrollment.UserID)
	assert.Equal(t, "t1", enrollment.TransactionID)

	// Status flip, enrollment create and counter bump commit atomically.
	require.Len(t, store.writeSets, 1)
	assert.Equal(t, 3, store.writeSets[0].Len())
	assert.Equal(t, []string{model.EventEnrollmentCompleted}, pub.eventTypes())
}

func TestCompleteCheckout_NotPending(t *testing.T) {
	tx := pendingTransaction("t1", 49.99)
	tx.Status = model.TransactionStatusCompleted
	store := newStubStore().seed(tx)
	svc, _ := newTestService(store)

	_, err := svc.CompleteCheckout(context.Background(), "t1")

	require.Error(t, err)
	assert.True(t, errors.IsConstraintViolation(err))
	assert.Contains(t, err.Error(), "not pending")
	assert.Empty(t, store.writeSets)
}

// A commit that cannot reach the store leaves the transaction pending and
// asks for reconciliation instead of rolling anything back.
func TestCompleteCheckout_StoreUnavailableRequestsReconciliation(t *testing.T) {
	store := newStubStore().seed(
		publishedCourse("c1", "cat1", 49.99),
		pendingTransaction("t1", 49.99),
	)
	store.transactErr = errors.NewStoreUnavailableError("TransactWrite", stderrors.New("throttled"))
	svc, pub := newTestService(store)

	_, err := svc.CompleteCheckout(context.Background(), "t1")

	require.Error(t, err)
	assert.True(t, errors.IsStoreUnavailable(err))
	assert.Equal(t, []string{model.EventCheckoutReconciliationRequested}, pub.eventTypes())

	tx, getErr := svc.GetTransaction(context.Background(), "t1")
	require.NoError(t, getErr)
	assert.Equal(t, model.TransactionStatusPending, tx.Status)
}

func TestCompleteCheckout_GuardFailure(t *testing.T) {
	store := newStubStore().seed(
		publishedCourse("c1", "cat1", 49.99),
		pendingTransaction("t1", 49.99),
	)
	store.transactErr = errors.NewConstraintViolationError("a transaction guard failed")
	svc, pub := newTestService(store)

	_, err := svc.CompleteCheckout(context.Background(), "t1")

	require.Error(t, err)
	assert.True(t, errors.IsConstraintViolation(err))
	assert.Contains(t, err.Error(), "cannot be completed")
	assert.Empty(t, pub.events)
}

func TestFailCheckout(t *testing.T) {
	store := newStubStore().seed(pendingTransaction("t1", 49.99))
	svc, _ := newTestService(store)

	err := svc.FailCheckout(context.Background(), "t1")

	require.NoError(t, err)
	require.Len(t, store.updates, 1)
	assert.Equal(t, "TRANSACTION#t1", store.updates[0].PK)
}

func TestFailCheckout_NotPending(t *testing.T) {
	store := newStubStore()
	store.updateErr = errors.NewConstraintViolationError("update condition failed")
	svc, _ := newTestService(store)

	err := svc.FailCheckout(context.Background(), "t1")

	require.Error(t, err)
	assert.True(t, errors.IsConstraintViolation(err))
	assert.Contains(t, err.Error(), "not pending")
}

func TestListUserTransactions_OldestFirst(t *testing.T) {
	older := pendingTransaction("t-old", 10)
	older.CreatedAt = fixedNow.Add(-48 * time.Hour)
	newer := pendingTransaction("t-new", 20)
	newer.CourseID = "c2"

	store := newStubStore().seed(newer, older)
	svc, _ := newTestService(store)

	page, err := svc.ListUserTransactions(context.Background(), "u1", dynamo.PageRequest{})

	require.NoError(t, err)
	var ids []string
	for _, tx := range page.Transactions {
		ids = append(ids, tx.TransactionID)
	}
	assert.Equal(t, []string{"t-old", "t-new"}, ids)
}
