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

func TestAddLesson_Success(t *testing.T) {
	store := newStubStore().seed(publishedCourse("c1", "cat1", 10))
	svc, _ := newTestService(store)

	lesson, err := svc.AddLesson(context.Background(), AddLessonInput{
		CourseID:        "c1",
		Title:           "Intro",
		OrderIndex:      1,
		DurationSeconds: 600,
		VideoURL:        "https://cdn.example.com/v/1",
	})

	require.NoError(t, err)
	assert.Equal(t, "id-1", lesson.LessonID)
	assert.Equal(t, 1, lesson.OrderIndex)
	assert.Len(t, store.puts, 1)
}

func TestAddLesson_DuplicateOrderPosition(t *testing.T) {
	store := newStubStore().seed(
		publishedCourse("c1", "cat1", 10),
		&model.Lesson{LessonID: "l1", CourseID: "c1", Title: "Taken", OrderIndex: 1},
	)
	svc, _ := newTestService(store)

	_, err := svc.AddLesson(context.Background(), AddLessonInput{
		CourseID:   "c1",
		Title:      "Usurper",
		OrderIndex: 1,
	})

	require.Error(t, err)
	assert.True(t, errors.IsConstraintViolation(err))
	assert.Contains(t, err.Error(), "order position")
}

func TestAddLesson_MissingCourse(t *testing.T) {
	svc, _ := newTestService(newStubStore())

	_, err := svc.AddLesson(context.Background(), AddLessonInput{
		CourseID:   "ghost",
		Title:      "Nope",
		OrderIndex: 1,
	})

	assert.True(t, errors.IsNotFound(err))
}

func TestAddLesson_OrderIndexOutOfRange(t *testing.T) {
	store := newStubStore().seed(publishedCourse("c1", "cat1", 10))
	svc, _ := newTestService(store)

	_, err := svc.AddLesson(context.Background(), AddLessonInput{
		CourseID:   "c1",
		Title:      "Too Far",
		OrderIndex: model.MaxLessonOrderIndex + 1,
	})

	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestGetLesson(t *testing.T) {
	store := newStubStore().seed(
		&model.Lesson{LessonID: "l1", CourseID: "c1", Title: "Intro", OrderIndex: 1},
	)
	svc, _ := newTestService(store)

	lesson, err := svc.GetLesson(context.Background(), "l1")

	require.NoError(t, err)
	assert.Equal(t, "c1", lesson.CourseID)
}

func TestGetLesson_NotFound(t *testing.T) {
	svc, _ := newTestService(newStubStore())

	_, err := svc.GetLesson(context.Background(), "ghost")

	assert.True(t, errors.IsNotFound(err))
}

func TestListCourseLessons_InCourseOrder(t *testing.T) {
	store := newStubStore().seed(
		&model.Lesson{LessonID: "l-b", CourseID: "c1", Title: "Second", OrderIndex: 2},
		&model.Lesson{LessonID: "l-a", CourseID: "c1", Title: "First", OrderIndex: 1},
		&model.Lesson{LessonID: "l-c", CourseID: "c1", Title: "Tenth", OrderIndex: 10},
		&model.Lesson{LessonID: "l-x", CourseID: "c2", Title: "Other", OrderIndex: 1},
	)
	svc, _ := newTestService(store)

	page, err := svc.ListCourseLessons(context.Background(), "c1", dynamo.PageRequest{})

	require.NoError(t, err)
	var order []int
	for _, l := range page.Lessons {
		order = append(order, l.OrderIndex)
	}
	assert.Equal(t, []int{1, 2, 10}, order)
}
