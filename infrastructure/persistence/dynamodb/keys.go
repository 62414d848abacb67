package dynamodb

import (
	"fmt"
	"time"

	"github.com/frankkinuthian/lms-v3/domain/model"
	"github.com/frankkinuthian/lms-v3/pkg/errors"
)

// Physical key prefixes. These are part of the persisted representation
// contract: changing one is a breaking migration requiring a data backfill.
const (
	PrefixUser        = "USER#"
	PrefixEmail       = "EMAIL#"
	PrefixCourse      = "COURSE#"
	PrefixLesson      = "LESSON#"
	PrefixEnrollment  = "ENROLLMENT#"
	PrefixProgress    = "PROGRESS#"
	PrefixTransaction = "TRANSACTION#"
	PrefixCategory    = "CATEGORY#"

	// Fixed sort keys for single-item partitions.
	SortProfile  = "PROFILE"
	SortMetadata = "METADATA"
	SortUnique   = "UNIQUE"
)

// ItemKey addresses one physical item in the table.
type ItemKey struct {
	PK string
	SK string
}

// IndexKey is the optional secondary-index key pair carried on an item.
// Empty fields mean the item does not appear in the index.
type IndexKey struct {
	GSI1PK string
	GSI1SK string
}

// UserKey returns the primary key for a user profile item.
func UserKey(userID string) (ItemKey, error) {
	if userID == "" {
		return ItemKey{}, errors.NewInvalidIdentityError("user", "userId")
	}
	return ItemKey{PK: PrefixUser + userID, SK: SortProfile}, nil
}

// EmailGuardKey returns the key of the item that reserves an email address.
// Creating it with an existence guard inside the same transaction as the
// user profile is what enforces global email uniqueness.
func EmailGuardKey(email string) (ItemKey, error) {
	if email == "" {
		return ItemKey{}, errors.NewInvalidIdentityError("emailGuard", "email")
	}
	return ItemKey{PK: PrefixEmail + email, SK: SortUnique}, nil
}

// CourseKey returns the primary key for a course metadata item.
func CourseKey(courseID string) (ItemKey, error) {
	if courseID == "" {
		return ItemKey{}, errors.NewInvalidIdentityError("course", "courseId")
	}
	return ItemKey{PK: PrefixCourse + courseID, SK: SortMetadata}, nil
}

// LessonKey returns the primary key for a lesson item. The orderIndex is
// zero-padded so ascending sort-key order is ascending lesson order, and so
// an existence guard on this key enforces per-course orderIndex uniqueness.
func LessonKey(courseID string, orderIndex int) (ItemKey, error) {
	if courseID == "" {
		return ItemKey{}, errors.NewInvalidIdentityError("lesson", "courseId")
	}
	if orderIndex < 0 || orderIndex > model.MaxLessonOrderIndex {
		return ItemKey{}, errors.NewInvalidIdentityError("lesson", "orderIndex")
	}
	return ItemKey{
		PK: PrefixCourse + courseID,
		SK: fmt.Sprintf("%s%05d", PrefixLesson, orderIndex),
	}, nil
}

// EnrollmentKey returns the primary key for an enrollment item. Keying the
// item on the (userId, courseId) pair is what makes the pair unique.
func EnrollmentKey(userID, courseID string) (ItemKey, error) {
	if userID == "" {
		return ItemKey{}, errors.NewInvalidIdentityError("enrollment", "userId")
	}
	if courseID == "" {
		return ItemKey{}, errors.NewInvalidIdentityError("enrollment", "courseId")
	}
	return ItemKey{PK: PrefixUser + userID, SK: PrefixEnrollment + courseID}, nil
}

// LessonProgressKey returns the primary key for a lesson progress item.
func LessonProgressKey(userID, lessonID string) (ItemKey, error) {
	if userID == "" {
		return ItemKey{}, errors.NewInvalidIdentityError("lessonProgress", "userId")
	}
	if lessonID == "" {
		return ItemKey{}, errors.NewInvalidIdentityError("lessonProgress", "lessonId")
	}
	return ItemKey{PK: PrefixUser + userID, SK: PrefixProgress + lessonID}, nil
}

// TransactionKey returns the primary key for a transaction item.
func TransactionKey(transactionID string) (ItemKey, error) {
	if transactionID == "" {
		return ItemKey{}, errors.NewInvalidIdentityError("transaction", "transactionId")
	}
	return ItemKey{PK: PrefixTransaction + transactionID, SK: SortMetadata}, nil
}

// CategoryKey returns the primary key for a category item.
func CategoryKey(categoryID string) (ItemKey, error) {
	if categoryID == "" {
		return ItemKey{}, errors.NewInvalidIdentityError("category", "categoryId")
	}
	return ItemKey{PK: PrefixCategory + categoryID, SK: SortMetadata}, nil
}

// KeyFor derives the primary and secondary keys for any entity. The
// secondary key is always derived from a different attribute than the
// primary key, which is what gives the GSI its cross-cutting access
// patterns: user by email, courses by category, lesson by id, transactions
// by user, subcategories by parent.
func KeyFor(e model.Entity) (ItemKey, IndexKey, error) {
	switch v := e.(type) {
	case *model.User:
		key, err := UserKey(v.UserID)
		if err != nil {
			return ItemKey{}, IndexKey{}, err
		}
		if v.Email == "" {
			return ItemKey{}, IndexKey{}, errors.NewInvalidIdentityError("user", "email")
		}
		return key, IndexKey{
			GSI1PK: PrefixEmail + v.Email,
			GSI1SK: PrefixUser + v.UserID,
		}, nil

	case *model.EmailGuard:
		key, err := EmailGuardKey(v.Email)
		if err != nil {
			return ItemKey{}, IndexKey{}, err
		}
		if v.UserID == "" {
			return ItemKey{}, IndexKey{}, errors.NewInvalidIdentityError("emailGuard", "userId")
		}
		return key, IndexKey{}, nil

	case *model.Course:
		key, err := CourseKey(v.CourseID)
		if err != nil {
			return ItemKey{}, IndexKey{}, err
		}
		if v.CategoryID == "" {
			return ItemKey{}, IndexKey{}, errors.NewInvalidIdentityError("course", "categoryId")
		}
		return key, IndexKey{
			GSI1PK: PrefixCategory + v.CategoryID,
			GSI1SK: PrefixCourse + v.CourseID,
		}, nil

	case *model.Lesson:
		key, err := LessonKey(v.CourseID, v.OrderIndex)
		if err != nil {
			return ItemKey{}, IndexKey{}, err
		}
		if v.LessonID == "" {
			return ItemKey{}, IndexKey{}, errors.NewInvalidIdentityError("lesson", "lessonId")
		}
		return key, IndexKey{
			GSI1PK: PrefixLesson + v.LessonID,
			GSI1SK: PrefixCourse + v.CourseID,
		}, nil

	case *model.Enrollment:
		key, err := EnrollmentKey(v.UserID, v.CourseID)
		if err != nil {
			return ItemKey{}, IndexKey{}, err
		}
		return key, IndexKey{}, nil

	case *model.LessonProgress:
		key, err := LessonProgressKey(v.UserID, v.LessonID)
		if err != nil {
			return ItemKey{}, IndexKey{}, err
		}
		return key, IndexKey{}, nil

	case *model.Transaction:
		key, err := TransactionKey(v.TransactionID)
		if err != nil {
			return ItemKey{}, IndexKey{}, err
		}
		if v.UserID == "" {
			return ItemKey{}, IndexKey{}, errors.NewInvalidIdentityError("transaction", "userId")
		}
		return key, IndexKey{
			GSI1PK: PrefixUser + v.UserID,
			GSI1SK: transactionSortKey(v.CreatedAt, v.TransactionID),
		}, nil

	case *model.Category:
		key, err := CategoryKey(v.CategoryID)
		if err != nil {
			return ItemKey{}, IndexKey{}, err
		}
		idx := IndexKey{}
		if v.ParentCategoryID != "" {
			idx.GSI1PK = PrefixCategory + v.ParentCategoryID
			idx.GSI1SK = PrefixCategory + v.CategoryID
		}
		return key, idx, nil

	default:
		return ItemKey{}, IndexKey{}, errors.NewUnknownEntityTypeError(string(e.Type()))
	}
}

// transactionSortKey orders a user's transactions by creation time in the
// secondary index. Identifiers break ties between same-instant writes.
func transactionSortKey(createdAt time.Time, transactionID string) string {
	return fmt.Sprintf("%s%s#%s", PrefixTransaction, createdAt.UTC().Format(time.RFC3339Nano), transactionID)
}
