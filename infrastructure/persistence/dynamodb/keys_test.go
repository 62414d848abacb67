package dynamodb

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frankkinuthian/lms-v3/domain/model"
	"github.com/frankkinuthian/lms-v3/pkg/errors"
)

func TestUserKey(t *testing.T) {
	key, err := UserKey("u1")

	require.NoError(t, err)
	assert.Equal(t, "USER#u1", key.PK)
	assert.Equal(t, "PROFILE", key.SK)
}

func TestUserKey_EmptyID(t *testing.T) {
	_, err := UserKey("")

	require.Error(t, err)
	assert.True(t, errors.IsInvalidIdentity(err))
}

func TestEmailGuardKey(t *testing.T) {
	key, err := EmailGuardKey("a@b.com")

	require.NoError(t, err)
	assert.Equal(t, "EMAIL#a@b.com", key.PK)
	assert.Equal(t, "UNIQUE", key.SK)
}

func TestLessonKey_ZeroPadding(t *testing.T) {
	key, err := LessonKey("c1", 3)

	require.NoError(t, err)
	assert.Equal(t, "COURSE#c1", key.PK)
	assert.Equal(t, "LESSON#00003", key.SK)
}

// Lesson sort keys must sort in numeric order even though the comparison is
// lexicographic. Without the padding, lesson 10 would land between 1 and 2.
func TestLessonKey_SortOrderIsNumeric(t *testing.T) {
	indices := []int{100, 2, 10, 1, 99999}

	sks := make([]string, 0, len(indices))
	for _, i := range indices {
		key, err := LessonKey("c1", i)
		require.NoError(t, err)
		sks = append(sks, key.SK)
	}
	sort.Strings(sks)

	assert.Equal(t, []string{
		"LESSON#00001",
		"LESSON#00002",
		"LESSON#00010",
		"LESSON#00100",
		"LESSON#99999",
	}, sks)
}

func TestLessonKey_OrderIndexOutOfRange(t *testing.T) {
	_, err := LessonKey("c1", -1)
	assert.True(t, errors.IsInvalidIdentity(err))

	_, err = LessonKey("c1", model.MaxLessonOrderIndex+1)
	assert.True(t, errors.IsInvalidIdentity(err))
}

func TestEnrollmentKey(t *testing.T) {
	key, err := EnrollmentKey("u1", "c1")

	require.NoError(t, err)
	assert.Equal(t, "USER#u1", key.PK)
	assert.Equal(t, "ENROLLMENT#c1", key.SK)

	_, err = EnrollmentKey("", "c1")
	assert.True(t, errors.IsInvalidIdentity(err))

	_, err = EnrollmentKey("u1", "")
	assert.True(t, errors.IsInvalidIdentity(err))
}

func TestLessonProgressKey(t *testing.T) {
	key, err := LessonProgressKey("u1", "l1")

	require.NoError(t, err)
	assert.Equal(t, "USER#u1", key.PK)
	assert.Equal(t, "PROGRESS#l1", key.SK)
}

// Two different identities must never collide on the same physical key, even
// when the raw identifier strings are equal.
func TestKeys_NoCrossTypeCollisions(t *testing.T) {
	id := "same-id"

	userKey, err := UserKey(id)
	require.NoError(t, err)
	courseKey, err := CourseKey(id)
	require.NoError(t, err)
	txKey, err := TransactionKey(id)
	require.NoError(t, err)
	catKey, err := CategoryKey(id)
	require.NoError(t, err)
	guardKey, err := EmailGuardKey(id)
	require.NoError(t, err)

	seen := map[ItemKey]bool{}
	for _, key := range []ItemKey{userKey, courseKey, txKey, catKey, guardKey} {
		assert.False(t, seen[key], "duplicate key %+v", key)
		seen[key] = true
	}
}

func TestKeyFor_User(t *testing.T) {
	user := &model.User{UserID: "u1", Email: "a@b.com", Role: model.RoleStudent}

	key, idx, err := KeyFor(user)

	require.NoError(t, err)
	assert.Equal(t, ItemKey{PK: "USER#u1", SK: "PROFILE"}, key)
	assert.Equal(t, IndexKey{GSI1PK: "EMAIL#a@b.com", GSI1SK: "USER#u1"}, idx)
}

func TestKeyFor_EmailGuardHasNoIndexEntry(t *testing.T) {
	guard := &model.EmailGuard{Email: "a@b.com", UserID: "u1"}

	key, idx, err := KeyFor(guard)

	require.NoError(t, err)
	assert.Equal(t, ItemKey{PK: "EMAIL#a@b.com", SK: "UNIQUE"}, key)
	assert.Equal(t, IndexKey{}, idx)
}

func TestKeyFor_Course(t *testing.T) {
	course := &model.Course{CourseID: "c1", InstructorID: "i1", CategoryID: "cat1", Title: "Go"}

	key, idx, err := KeyFor(course)

	require.NoError(t, err)
	assert.Equal(t, ItemKey{PK: "COURSE#c1", SK: "METADATA"}, key)
	assert.Equal(t, IndexKey{GSI1PK: "CATEGORY#cat1", GSI1SK: "COURSE#c1"}, idx)
}

func TestKeyFor_Lesson(t *testing.T) {
	lesson := &model.Lesson{LessonID: "l1", CourseID: "c1", Title: "Intro", OrderIndex: 7}

	key, idx, err := KeyFor(lesson)

	require.NoError(t, err)
	assert.Equal(t, ItemKey{PK: "COURSE#c1", SK: "LESSON#00007"}, key)
	assert.Equal(t, IndexKey{GSI1PK: "LESSON#l1", GSI1SK: "COURSE#c1"}, idx)
}

func TestKeyFor_TransactionIndexOrdersByCreation(t *testing.T) {
	earlier := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	later := earlier.Add(time.Hour)

	_, idx1, err := KeyFor(&model.Transaction{
		TransactionID: "t1", UserID: "u1", CourseID: "c1",
		Amount: 10, Status: model.TransactionStatusPending, CreatedAt: earlier,
	})
	require.NoError(t, err)
	_, idx2, err := KeyFor(&model.Transaction{
		TransactionID: "t2", UserID: "u1", CourseID: "c2",
		Amount: 10, Status: model.TransactionStatusPending, CreatedAt: later,
	})
	require.NoError(t, err)

	assert.Equal(t, "USER#u1", idx1.GSI1PK)
	assert.Equal(t, idx1.GSI1PK, idx2.GSI1PK)
	assert.Less(t, idx1.GSI1SK, idx2.GSI1SK)
}

func TestKeyFor_RootCategoryHasNoIndexEntry(t *testing.T) {
	_, idx, err := KeyFor(&model.Category{CategoryID: "cat1", Name: "Root"})

	require.NoError(t, err)
	assert.Equal(t, IndexKey{}, idx)
}

func TestKeyFor_ChildCategoryIndexedUnderParent(t *testing.T) {
	_, idx, err := KeyFor(&model.Category{CategoryID: "cat2", Name: "Child", ParentCategoryID: "cat1"})

	require.NoError(t, err)
	assert.Equal(t, IndexKey{GSI1PK: "CATEGORY#cat1", GSI1SK: "CATEGORY#cat2"}, idx)
}

func TestKeyFor_MissingIdentityFields(t *testing.T) {
	cases := []struct {
		name   string
		entity model.Entity
	}{
		{"user without email", &model.User{UserID: "u1"}},
		{"guard without user", &model.EmailGuard{Email: "a@b.com"}},
		{"course without category", &model.Course{CourseID: "c1"}},
		{"lesson without id", &model.Lesson{CourseID: "c1", OrderIndex: 1}},
		{"transaction without user", &model.Transaction{TransactionID: "t1"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := KeyFor(tc.entity)
			assert.True(t, errors.IsInvalidIdentity(err))
		})
	}
}
