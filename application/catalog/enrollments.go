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

// EnrollUserInCourse enrolls a user in a free course directly, or runs both
// checkout phases for a paid one. Paid enrollments that need an out-of-band
// payment step should call BeginCheckout and CompleteCheckout themselves.
func (s *Service) EnrollUserInCourse(ctx context.Context, userID, courseID string) (*model.Enrollment, error) {
	user, err := s.GetUserProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, errors.NewConstraintViolationError("deactivated users cannot enroll")
	}

	course, err := s.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if !course.IsPublished {
		return nil, errors.NewConstraintViolationError("course is not open for enrollment")
	}

	if course.IsFree() {
		return s.commitEnrollment(ctx, userID, courseID, "", 0)
	}

	tx, err := s.BeginCheckout(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	return s.CompleteCheckout(ctx, tx.TransactionID)
}

// commitEnrollment writes the enrollment and bumps the course's enrollment
// count in one transaction. The create guard on the enrollment key is what
// makes the (user, course) pair unique; the condition on the course pins it
// still existing and published at commit time.
func (s *Service) commitEnrollment(ctx context.Context, userID, courseID, transactionID string, amount float64) (*model.Enrollment, error) {
	enrollment := &model.Enrollment{
		UserID:        userID,
		CourseID:      courseID,
		TransactionID: transactionID,
	}
	if err := enrollment.Validate(); err != nil {
		return nil, err
	}

	courseKey, err := dynamo.CourseKey(courseID)
	if err != nil {
		return nil, err
	}

	ws := dynamo.NewWriteSet().
		Create(enrollment).
		Update(courseKey,
			expression.Add(expression.Name("EnrollmentCount"), expression.Value(1)).
				Set(expression.Name("UpdatedAt"), expression.Value(s.clock().UTC().Format(time.RFC3339Nano))),
			courseExistsCondition())

	if err := s.store.TransactWrite(ctx, ws); err != nil {
		if errors.IsConstraintViolation(err) {
			return nil, errors.NewConstraintViolationError("user is already enrolled in this course")
		}
		return nil, err
	}

	s.logger.Info("enrollment committed",
		zap.String("userId", userID),
		zap.String("courseId", courseID),
		zap.String("transactionId", transactionID))
	s.publish(ctx, model.NewEnrollmentCompleted(userID, courseID, transactionID, amount))

	return enrollment, nil
}

// GetEnrollment reads one enrollment by its (user, course) pair.
func (s *Service) GetEnrollment(ctx context.Context, userID, courseID string) (*model.Enrollment, error) {
	key, err := dynamo.EnrollmentKey(userID, courseID)
	if err != nil {
		return nil, err
	}
	entity, err := s.store.GetByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	enrollment, ok := entity.(*model.Enrollment)
	if !ok {
		return nil, errors.NewMalformedItemError("item at enrollment key is not an enrollment")
	}
	return enrollment, nil
}

// EnrollmentListPage is one page of a user's enrollments.
type EnrollmentListPage struct {
	Enrollments []*model.Enrollment
	NextCursor  string
}

// ListUserEnrollments pages through a user's enrollments, ordered by course
// identifier.
func (s *Service) ListUserEnrollments(ctx context.Context, userID string, page dynamo.PageRequest) (EnrollmentListPage, error) {
	if userID == "" {
		return EnrollmentListPage{}, errors.NewInvalidIdentityError("enrollment", "userId")
	}

	result, err := s.store.ScanPrefix(ctx, dynamo.PrefixUser+userID, dynamo.PrefixEnrollment, page)
	if err != nil {
		return EnrollmentListPage{}, err
	}

	out := EnrollmentListPage{NextCursor: result.NextCursor}
	for _, entity := range result.Entities {
		enrollment, ok := entity.(*model.Enrollment)
		if !ok {
			return EnrollmentListPage{}, errors.NewMalformedItemError("item in enrollment listing is not an enrollment")
		}
		out.Enrollments = append(out.Enrollments, enrollment)
	}
	return out, nil
}

// RecordLessonProgressInput carries one progress observation.
type RecordLessonProgressInput struct {
	UserID           string
	LessonID         string
	TimeSpentSeconds int
	IsCompleted      bool
}

// RecordLessonProgress upserts the user's progress on a lesson and refreshes
// the owning enrollment's rollup in the same transaction. The enrollment must
// already exist; progress against a course the user never enrolled in is a
// constraint violation.
func (s *Service) RecordLessonProgress(ctx context.Context, input RecordLessonProgressInput) (*model.LessonProgress, error) {
	lesson, err := s.GetLesson(ctx, input.LessonID)
	if err != nil {
		return nil, err
	}

	enrollmentKey, err := dynamo.EnrollmentKey(input.UserID, lesson.CourseID)
	if err != nil {
		return nil, err
	}

	progress := &model.LessonProgress{
		UserID:           input.UserID,
		LessonID:         input.LessonID,
		CourseID:         lesson.CourseID,
		TimeSpentSeconds: input.TimeSpentSeconds,
		IsCompleted:      input.IsCompleted,
	}
	if err := progress.Validate(); err != nil {
		return nil, err
	}

	percentage, completed, err := s.courseProgress(ctx, input.UserID, lesson, input.IsCompleted)
	if err != nil {
		return nil, err
	}

	ws := dynamo.NewWriteSet().
		Put(progress).
		Update(enrollmentKey,
			expression.Set(expression.Name("ProgressPercentage"), expression.Value(percentage)).
				Set(expression.Name("IsCompleted"), expression.Value(completed)).
				Set(expression.Name("UpdatedAt"), expression.Value(s.clock().UTC().Format(time.RFC3339Nano))),
			expression.AttributeExists(expression.Name("PK")))

	if err := s.store.TransactWrite(ctx, ws); err != nil {
		if errors.IsConstraintViolation(err) {
			return nil, errors.NewConstraintViolationError("user is not enrolled in the lesson's course")
		}
		return nil, err
	}

	return progress, nil
}

// courseProgress recomputes the enrollment rollup from the lesson count and
// the user's completed progress items in the course's partition.
func (s *Service) courseProgress(ctx context.Context, userID string, lesson *model.Lesson, completingNow bool) (float64, bool, error) {
	total := 0
	cursor := ""
	for {
		page, err := s.ListCourseLessons(ctx, lesson.CourseID, dynamo.PageRequest{Limit: dynamo.MaxPageSize, Cursor: cursor})
		if err != nil {
			return 0, false, err
		}
		total += len(page.Lessons)
		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}
	if total == 0 {
		return 0, false, nil
	}

	done := 0
	cursor = ""
	for {
		result, err := s.store.ScanPrefix(ctx, dynamo.PrefixUser+userID, dynamo.PrefixProgress,
			dynamo.PageRequest{Limit: dynamo.MaxPageSize, Cursor: cursor})
		if err != nil {
			return 0, false, err
		}
		for _, entity := range result.Entities {
			p, ok := entity.(*model.LessonProgress)
			if !ok {
				return 0, false, errors.NewMalformedItemError("item in progress listing is not lesson progress")
			}
			if p.CourseID != lesson.CourseID || !p.IsCompleted {
				continue
			}
			if p.LessonID == lesson.LessonID {
				continue
			}
			done++
		}
		if result.NextCursor == "" {
			break
		}
		cursor = result.NextCursor
	}
	if completingNow {
		done++
	}
	if done > total {
		done = total
	}

	percentage := float64(done) / float64(total) * 100
	return percentage, done == total, nil
}
