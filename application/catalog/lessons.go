package catalog

import (
	"context"

	"go.uber.org/zap"

	"github.com/frankkinuthian/lms-v3/domain/model"
	dynamo "github.com/frankkinuthian/lms-v3/infrastructure/persistence/dynamodb"
	"github.com/frankkinuthian/lms-v3/pkg/errors"
)

// AddLessonInput carries the fields needed to append a lesson to a course.
type AddLessonInput struct {
	CourseID        string
	Title           string
	OrderIndex      int
	DurationSeconds int
	VideoURL        string
}

// AddLesson inserts a lesson at an order position. The position is part of
// the lesson's physical key, so a second lesson at the same position in the
// same course is rejected as a ConstraintViolation.
func (s *Service) AddLesson(ctx context.Context, input AddLessonInput) (*model.Lesson, error) {
	if _, err := s.GetCourse(ctx, input.CourseID); err != nil {
		return nil, err
	}

	lesson := &model.Lesson{
		LessonID:        s.newID(),
		CourseID:        input.CourseID,
		Title:           input.Title,
		OrderIndex:      input.OrderIndex,
		DurationSeconds: input.DurationSeconds,
		VideoURL:        input.VideoURL,
	}
	if err := lesson.Validate(); err != nil {
		return nil, err
	}

	if err := s.store.PutItem(ctx, lesson, dynamo.WithCreateGuard()); err != nil {
		if errors.IsConstraintViolation(err) {
			return nil, errors.NewConstraintViolationError("a lesson already occupies that order position")
		}
		return nil, err
	}

	s.logger.Info("lesson added",
		zap.String("courseId", input.CourseID),
		zap.String("lessonId", lesson.LessonID),
		zap.Int("orderIndex", input.OrderIndex))
	return lesson, nil
}

// GetLesson resolves a lesson by its identifier through the secondary index.
func (s *Service) GetLesson(ctx context.Context, lessonID string) (*model.Lesson, error) {
	if lessonID == "" {
		return nil, errors.NewInvalidIdentityError("lesson", "lessonId")
	}

	page, err := s.store.ScanSecondaryIndex(ctx, dynamo.PrefixLesson+lessonID, "", dynamo.PageRequest{Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(page.Entities) == 0 {
		return nil, errors.NewNotFoundError("lesson")
	}
	lesson, ok := page.Entities[0].(*model.Lesson)
	if !ok {
		return nil, errors.NewMalformedItemError("item at lesson index entry is not a lesson")
	}
	return lesson, nil
}

// LessonListPage is one page of a course's lessons in course order.
type LessonListPage struct {
	Lessons    []*model.Lesson
	NextCursor string
}

// ListCourseLessons pages through a course's lessons. The zero-padded order
// position in the sort key means ascending key order is course order; no
// client-side sort happens here.
func (s *Service) ListCourseLessons(ctx context.Context, courseID string, page dynamo.PageRequest) (LessonListPage, error) {
	if courseID == "" {
		return LessonListPage{}, errors.NewInvalidIdentityError("lesson", "courseId")
	}

	result, err := s.store.ScanPrefix(ctx, dynamo.PrefixCourse+courseID, dynamo.PrefixLesson, page)
	if err != nil {
		return LessonListPage{}, err
	}

	out := LessonListPage{NextCursor: result.NextCursor}
	for _, entity := range result.Entities {
		lesson, ok := entity.(*model.Lesson)
		if !ok {
			return LessonListPage{}, errors.NewMalformedItemError("item in lesson listing is not a lesson")
		}
		out.Lessons = append(out.Lessons, lesson)
	}
	return out, nil
}
