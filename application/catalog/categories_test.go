package catalog

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frankkinuthian/lms-v3/domain/model"
	dynamo "github.com/frankkinuthian/lms-v3/infrastructure/persistence/dynamodb"
	"github.com/frankkinuthian/lms-v3/pkg/errors"
)

func category(id, parentID string) *model.Category {
	return &model.Category{CategoryID: id, Name: "Category " + id, ParentCategoryID: parentID}
}

func TestCreateCategory_Root(t *testing.T) {
	store := newStubStore()
	svc, _ := newTestService(store)

	cat, err := svc.CreateCategory(context.Background(), CreateCategoryInput{Name: "Programming"})

	require.NoError(t, err)
	assert.Equal(t, "id-1", cat.CategoryID)
	assert.True(t, cat.IsRoot())
}

func TestCreateCategory_UnderParent(t *testing.T) {
	store := newStubStore().seed(category("root", ""))
	svc, _ := newTestService(store)

	cat, err := svc.CreateCategory(context.Background(), CreateCategoryInput{
		Name:             "Go",
		ParentCategoryID: "root",
	})

	require.NoError(t, err)
	assert.Equal(t, "root", cat.ParentCategoryID)
}

func TestCreateCategory_MissingParent(t *testing.T) {
	svc, _ := newTestService(newStubStore())

	_, err := svc.CreateCategory(context.Background(), CreateCategoryInput{
		Name:             "Orphan",
		ParentCategoryID: "ghost",
	})

	assert.True(t, errors.IsNotFound(err))
}

func TestCreateCategory_ParentChainTooDeep(t *testing.T) {
	store := newStubStore()
	parent := ""
	deepest := ""
	for i := 0; i <= model.MaxCategoryDepth; i++ {
		id := fmt.Sprintf("cat-%d", i)
		store.seed(category(id, parent))
		parent = id
		deepest = id
	}
	svc, _ := newTestService(store)

	_, err := svc.CreateCategory(context.Background(), CreateCategoryInput{
		Name:             "One Too Many",
		ParentCategoryID: deepest,
	})

	require.Error(t, err)
	assert.True(t, errors.IsConstraintViolation(err))
	assert.Contains(t, err.Error(), "too deep or cyclic")
}

func TestReparentCategory_Success(t *testing.T) {
	store := newStubStore().seed(category("a", ""), category("b", ""))
	svc, _ := newTestService(store)

	moved, err := svc.ReparentCategory(context.Background(), "b", "a")

	require.NoError(t, err)
	assert.Equal(t, "a", moved.ParentCategoryID)
	assert.Len(t, store.puts, 1)
}

func TestReparentCategory_ToRoot(t *testing.T) {
	store := newStubStore().seed(category("a", ""), category("b", "a"))
	svc, _ := newTestService(store)

	moved, err := svc.ReparentCategory(context.Background(), "b", "")

	require.NoError(t, err)
	assert.True(t, moved.IsRoot())
}

func TestReparentCategory_SelfParent(t *testing.T) {
	store := newStubStore().seed(category("a", ""))
	svc, _ := newTestService(store)

	_, err := svc.ReparentCategory(context.Background(), "a", "a")

	require.Error(t, err)
	assert.True(t, errors.IsConstraintViolation(err))
}

// Moving a under its own descendant would close a cycle in the tree.
func TestReparentCategory_CycleRejected(t *testing.T) {
	store := newStubStore().seed(
		category("a", ""),
		category("b", "a"),
		category("c", "b"),
	)
	svc, _ := newTestService(store)

	_, err := svc.ReparentCategory(context.Background(), "a", "c")

	require.Error(t, err)
	assert.True(t, errors.IsConstraintViolation(err))
	assert.Contains(t, err.Error(), "cycle")
	assert.Empty(t, store.puts)
}

func TestListSubcategories(t *testing.T) {
	store := newStubStore().seed(
		category("root", ""),
		category("b", "root"),
		category("a", "root"),
		category("other", ""),
	)
	svc, _ := newTestService(store)

	page, err := svc.ListSubcategories(context.Background(), "root", dynamo.PageRequest{})

	require.NoError(t, err)
	var ids []string
	for _, c := range page.Categories {
		ids = append(ids, c.CategoryID)
	}
	assert.Equal(t, []string{"a", "b"}, ids)
}

func TestDeleteCategory_BlockedByCourses(t *testing.T) {
	store := newStubStore().seed(
		category("cat1", ""),
		publishedCourse("c1", "cat1", 10),
	)
	svc, _ := newTestService(store)

	err := svc.DeleteCategory(context.Background(), "cat1", false)

	require.Error(t, err)
	assert.True(t, errors.IsConstraintViolation(err))
	assert.Contains(t, err.Error(), "courses")
	assert.Empty(t, store.deletes)
}

func TestDeleteCategory_BlockedBySubcategoriesWithoutCascade(t *testing.T) {
	store := newStubStore().seed(category("root", ""), category("child", "root"))
	svc, _ := newTestService(store)

	err := svc.DeleteCategory(context.Background(), "root", false)

	require.Error(t, err)
	assert.True(t, errors.IsConstraintViolation(err))
	assert.Empty(t, store.deletes)
}

func TestDeleteCategory_CascadeRemovesSubtree(t *testing.T) {
	store := newStubStore().seed(
		category("root", ""),
		category("child", "root"),
		category("grandchild", "child"),
	)
	svc, _ := newTestService(store)

	err := svc.DeleteCategory(context.Background(), "root", true)

	require.NoError(t, err)
	assert.Empty(t, store.entities)

	// Children go before parents.
	var order []string
	for _, key := range store.deletes {
		order = append(order, key.PK)
	}
	assert.Equal(t, []string{"CATEGORY#grandchild", "CATEGORY#child", "CATEGORY#root"}, order)
}

func TestDeleteCategory_CascadeBlockedByCoursesInSubtree(t *testing.T) {
	store := newStubStore().seed(
		category("root", ""),
		category("child", "root"),
		publishedCourse("c1", "child", 10),
	)
	svc, _ := newTestService(store)

	err := svc.DeleteCategory(context.Background(), "root", true)

	require.Error(t, err)
	assert.True(t, errors.IsConstraintViolation(err))
	assert.Contains(t, store.entities, mustCategoryKey(t, "child"))
}

func mustCategoryKey(t *testing.T, id string) dynamo.ItemKey {
	t.Helper()
	key, err := dynamo.CategoryKey(id)
	require.NoError(t, err)
	return key
}
