package catalog

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"go.uber.org/zap"

	"github.com/frankkinuthian/lms-v3/domain/model"
	dynamo "github.com/frankkinuthian/lms-v3/infrastructure/persistence/dynamodb"
	"github.com/frankkinuthian/lms-v3/pkg/errors"
)

// CreateCourseInput carries the fields needed to open a course.
type CreateCourseInput struct {
	InstructorID string
	CategoryID   string
	Title        string
	Description  string
	Price        float64
}

// CreateCourse creates an unpublished course. The instructor and category
// must both exist; the category reference is what places the course in the
// secondary index.
func (s *Service) CreateCourse(ctx context.Context, input CreateCourseInput) (*model.Course, error) {
	instructor, err := s.GetUserProfile(ctx, input.InstructorID)
	if err != nil {
		return nil, err
	}
	if instructor.Role != model.RoleInstructor && instructor.Role != model.RoleAdmin {
		return nil, errors.NewConstraintViolationError("course owner must be an instructor")
	}
	if _, err := s.GetCategory(ctx, input.CategoryID); err != nil {
		return nil, err
	}

	course := &model.Course{
		CourseID:     s.newID(),
		InstructorID: input.InstructorID,
		CategoryID:   input.CategoryID,
		Title:        input.Title,
		Description:  input.Description,
		Price:        input.Price,
		IsPublished:  false,
	}
	if err := course.Validate(); err != nil {
		return nil, err
	}

	if err := s.store.PutItem(ctx, course, dynamo.WithCreateGuard()); err != nil {
		return nil, err
	}

	s.logger.Info("course created",
		zap.String("courseId", course.CourseID),
		zap.String("instructorId", course.InstructorID))
	return course, nil
}

// GetCourse reads one course by identifier.
func (s *Service) GetCourse(ctx context.Context, courseID string) (*model.Course, error) {
	key, err := dynamo.CourseKey(courseID)
	if err != nil {
		return nil, err
	}
	entity, err := s.store.GetByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	course, ok := entity.(*model.Course)
	if !ok {
		return nil, errors.NewMalformedItemError("item at course key is not a course")
	}
	return course, nil
}

// PublishCourse makes a course visible for enrollment. A course needs at
// least one lesson before it can be published.
func (s *Service) PublishCourse(ctx context.Context, courseID string) (*model.Course, error) {
	course, err := s.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course.IsPublished {
		return course, nil
	}

	lessons, err := s.ListCourseLessons(ctx, courseID, dynamo.PageRequest{Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(lessons.Lessons) == 0 {
		return nil, errors.NewConstraintViolationError("course cannot be published without lessons")
	}

	course.IsPublished = true
	if err := s.store.PutItem(ctx, course); err != nil {
		return nil, err
	}

	s.logger.Info("course published", zap.String("courseId", courseID))
	return course, nil
}

// CourseListPage is one page of courses.
type CourseListPage struct {
	Courses    []*model.Course
	NextCursor string
}

// ListCoursesByCategory pages through the courses filed directly under a
// category, via the category's index partition.
func (s *Service) ListCoursesByCategory(ctx context.Context, categoryID string, page dynamo.PageRequest) (CourseListPage, error) {
	if categoryID == "" {
		return CourseListPage{}, errors.NewInvalidIdentityError("category", "categoryId")
	}

	result, err := s.store.ScanSecondaryIndex(ctx, dynamo.PrefixCategory+categoryID, dynamo.PrefixCourse, page)
	if err != nil {
		return CourseListPage{}, err
	}

	out := CourseListPage{NextCursor: result.NextCursor}
	for _, entity := range result.Entities {
		course, ok := entity.(*model.Course)
		if !ok {
			return CourseListPage{}, errors.NewMalformedItemError("item in category course listing is not a course")
		}
		out.Courses = append(out.Courses, course)
	}
	return out, nil
}

// DeleteCourse removes a course and all its lessons. The lessons share the
// course's partition, so each batch of removals commits atomically; the
// course item itself goes last so a crash mid-delete leaves a findable,
// re-drivable course rather than orphaned lessons.
func (s *Service) DeleteCourse(ctx context.Context, courseID string) error {
	course, err := s.GetCourse(ctx, courseID)
	if err != nil {
		return err
	}

	cursor := ""
	for {
		page, err := s.store.ScanPrefix(ctx, dynamo.PrefixCourse+courseID, dynamo.PrefixLesson,
			dynamo.PageRequest{Limit: dynamo.MaxPageSize, Cursor: cursor})
		if err != nil {
			return err
		}
		if len(page.Entities) > 0 {
			ws := dynamo.NewWriteSet()
			for _, entity := range page.Entities {
				lesson, ok := entity.(*model.Lesson)
				if !ok {
					return errors.NewMalformedItemError("item in lesson listing is not a lesson")
				}
				key, err := dynamo.LessonKey(lesson.CourseID, lesson.OrderIndex)
				if err != nil {
					return err
				}
				ws.Delete(key)
			}
			if err := s.store.TransactWrite(ctx, ws); err != nil {
				return err
			}
		}
		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	key, err := dynamo.CourseKey(courseID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteItem(ctx, key); err != nil {
		return err
	}

	s.logger.Info("course deleted", zap.String("courseId", courseID))
	s.publish(ctx, model.NewCourseDeleted(courseID, course.InstructorID))
	return nil
}

// courseExistsCondition guards transactional writes that depend on the
// course still being present and published.
func courseExistsCondition() expression.ConditionBuilder {
	return expression.AttributeExists(expression.Name("PK")).
		And(expression.Equal(expression.Name("IsPublished"), expression.Value(true)))
}
