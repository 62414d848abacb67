package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frankkinuthian/lms-v3/domain/model"
	dynamo "github.com/frankkinuthian/lms-v3/infrastructure/persistence/dynamodb"
	"github.com/frankkinuthian/lms-v3/pkg/errors"
)

func TestEnrollUserInCourse_FreeCourse(t *testing.T) {
	store := newStubStore().seed(
		activeStudent("u1", "s@example.com"),
		publishedCourse("c1", "cat1", 0),
	)
	svc, pub := newTestService(store)

	enrollment, err := svc.EnrollUserInCourse(context.Background(), "u1", "c1")

	require.NoError(t, err)
	assert.Equal(t, "u1", enrollment.UserID)
	assert.Equal(t, "c1", enrollment.CourseID)
	assert.Empty(t, enrollment.TransactionID)

	// Enrollment create plus course counter bump, atomically.
	require.Len(t, store.writeSets, 1)
	assert.Equal(t, 2, store.writeSets[0].Len())
	assert.Equal(t, []string{model.EventEnrollmentCompleted}, pub.eventTypes())
}

func TestEnrollUserInCourse_DeactivatedUser(t *testing.T) {
	user := activeStudent("u1", "s@example.com")
	user.IsActive = false
	store := newStubStore().seed(user, publishedCourse("c1", "cat1", 0))
	svc, _ := newTestService(store)

	_, err := svc.EnrollUserInCourse(context.Background(), "u1", "c1")

	require.Error(t, err)
	assert.True(t, errors.IsConstraintViolation(err))
	assert.Empty(t, store.writeSets)
}

func TestEnrollUserInCourse_UnpublishedCourse(t *testing.T) {
	course := publishedCourse("c1", "cat1", 0)
	course.IsPublished = false
	store := newStubStore().seed(activeStudent("u1", "s@example.com"), course)
	svc, _ := newTestService(store)

	_, err := svc.EnrollUserInCourse(context.Background(), "u1", "c1")

	require.Error(t, err)
	assert.True(t, errors.IsConstraintViolation(err))
}

func TestEnrollUserInCourse_DuplicateEnrollment(t *testing.T) {
	store := newStubStore().seed(
		activeStudent("u1", "s@example.com"),
		publishedCourse("c1", "cat1", 0),
	)
	store.transactErr = errors.NewConstraintViolationError("a transaction guard failed")
	svc, pub := newTestService(store)

	_, err := svc.EnrollUserInCourse(context.Background(), "u1", "c1")

	require.Error(t, err)
	assert.True(t, errors.IsConstraintViolation(err))
	assert.Contains(t, err.Error(), "already enrolled")
	assert.Empty(t, pub.events)
}

func TestListUserEnrollments(t *testing.T) {
	store := newStubStore().seed(
		&model.Enrollment{UserID: "u1", CourseID: "c2"},
		&model.Enrollment{UserID: "u1", CourseID: "c1"},
		&model.Enrollment{UserID: "u2", CourseID: "c1"},
	)
	svc, _ := newTestService(store)

	page, err := svc.ListUserEnrollments(context.Background(), "u1", dynamo.PageRequest{})

	require.NoError(t, err)
	var ids []string
	for _, e := range page.Enrollments {
		ids = append(ids, e.CourseID)
	}
	assert.Equal(t, []string{"c1", "c2"}, ids)
}

func TestRecordLessonProgress_UpdatesRollup(t *testing.T) {
	store := newStubStore().seed(
		publishedCourse("c1", "cat1", 0),
		&model.Lesson{LessonID: "l1", CourseID: "c1", Title: "One", OrderIndex: 1},
		&model.Lesson{LessonID: "l2", CourseID: "c1", Title: "Two", OrderIndex: 2},
		&model.Enrollment{UserID: "u1", CourseID: "c1"},
	)
	svc, _ := newTestService(store)

	progress, err := svc.RecordLessonProgress(context.Background(), RecordLessonProgressInput{
		UserID:           "u1",
		LessonID:         "l1",
		TimeSpentSeconds: 300,
		IsCompleted:      true,
	})

	require.NoError(t, err)
	assert.Equal(t, "c1", progress.CourseID)
	assert.True(t, progress.IsCompleted)

	// Progress upsert and enrollment rollup land in one transaction.
	require.Len(t, store.writeSets, 1)
	assert.Equal(t, 2, store.writeSets[0].Len())
}

func TestRecordLessonProgress_NotEnrolled(t *testing.T) {
	store := newStubStore().seed(
		publishedCourse("c1", "cat1", 0),
		&model.Lesson{LessonID: "l1", CourseID: "c1", Title: "One", OrderIndex: 1},
	)
	store.transactErr = errors.NewConstraintViolationError("a transaction guard failed")
	svc, _ := newTestService(store)

	_, err := svc.RecordLessonProgress(context.Background(), RecordLessonProgressInput{
		UserID:      "u1",
		LessonID:    "l1",
		IsCompleted: true,
	})

	require.Error(t, err)
	assert.True(t, errors.IsConstraintViolation(err))
	assert.Contains(t, err.Error(), "not enrolled")
}

func TestRecordLessonProgress_UnknownLesson(t *testing.T) {
	svc, _ := newTestService(newStubStore())

	_, err := svc.RecordLessonProgress(context.Background(), RecordLessonProgressInput{
		UserID:   "u1",
		LessonID: "ghost",
	})

	assert.True(t, errors.IsNotFound(err))
}
