package catalog

import (
	"context"

	"go.uber.org/zap"

	"github.com/frankkinuthian/lms-v3/domain/model"
	dynamo "github.com/frankkinuthian/lms-v3/infrastructure/persistence/dynamodb"
	"github.com/frankkinuthian/lms-v3/pkg/errors"
)

// CreateCategoryInput carries the fields needed to add a taxonomy node.
type CreateCategoryInput struct {
	Name             string
	ParentCategoryID string
}

// CreateCategory adds a category, optionally under a parent. The parent must
// exist and sit within the depth bound.
func (s *Service) CreateCategory(ctx context.Context, input CreateCategoryInput) (*model.Category, error) {
	if input.ParentCategoryID != "" {
		if err := s.checkParentChain(ctx, input.ParentCategoryID, ""); err != nil {
			return nil, err
		}
	}

	category := &model.Category{
		CategoryID:       s.newID(),
		Name:             input.Name,
		ParentCategoryID: input.ParentCategoryID,
	}
	if err := category.Validate(); err != nil {
		return nil, err
	}

	if err := s.store.PutItem(ctx, category, dynamo.WithCreateGuard()); err != nil {
		return nil, err
	}

	s.logger.Info("category created",
		zap.String("categoryId", category.CategoryID),
		zap.String("parentCategoryId", input.ParentCategoryID))
	return category, nil
}

// GetCategory reads one category by identifier.
func (s *Service) GetCategory(ctx context.Context, categoryID string) (*model.Category, error) {
	key, err := dynamo.CategoryKey(categoryID)
	if err != nil {
		return nil, err
	}
	entity, err := s.store.GetByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	category, ok := entity.(*model.Category)
	if !ok {
		return nil, errors.NewMalformedItemError("item at category key is not a category")
	}
	return category, nil
}

// ReparentCategory moves a category under a new parent, or to the root when
// newParentID is empty. The new parent's chain is walked upward first; if the
// walk meets the category being moved the move would close a cycle and is
// rejected.
func (s *Service) ReparentCategory(ctx context.Context, categoryID, newParentID string) (*model.Category, error) {
	category, err := s.GetCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	if newParentID == categoryID {
		return nil, errors.NewConstraintViolationError("category cannot be its own parent")
	}
	if newParentID != "" {
		if err := s.checkParentChain(ctx, newParentID, categoryID); err != nil {
			return nil, err
		}
	}

	category.ParentCategoryID = newParentID
	if err := s.store.PutItem(ctx, category); err != nil {
		return nil, err
	}

	s.logger.Info("category reparented",
		zap.String("categoryId", categoryID),
		zap.String("parentCategoryId", newParentID))
	return category, nil
}

// checkParentChain walks upward from startID, verifying each ancestor exists,
// that forbiddenID never appears, and that the chain stays within the depth
// bound. A chain longer than the bound is treated as a cycle.
func (s *Service) checkParentChain(ctx context.Context, startID, forbiddenID string) error {
	current := startID
	for depth := 0; current != ""; depth++ {
		if depth >= model.MaxCategoryDepth {
			return errors.NewConstraintViolationError("category parent chain is too deep or cyclic")
		}
		if current == forbiddenID {
			return errors.NewConstraintViolationError("move would create a category cycle")
		}
		parent, err := s.GetCategory(ctx, current)
		if err != nil {
			return err
		}
		current = parent.ParentCategoryID
	}
	return nil
}

// CategoryListPage is one page of categories.
type CategoryListPage struct {
	Categories []*model.Category
	NextCursor string
}

// ListSubcategories pages through the direct children of a category.
func (s *Service) ListSubcategories(ctx context.Context, parentID string, page dynamo.PageRequest) (CategoryListPage, error) {
	if parentID == "" {
		return CategoryListPage{}, errors.NewInvalidIdentityError("category", "parentCategoryId")
	}

	result, err := s.store.ScanSecondaryIndex(ctx, dynamo.PrefixCategory+parentID, dynamo.PrefixCategory, page)
	if err != nil {
		return CategoryListPage{}, err
	}

	out := CategoryListPage{NextCursor: result.NextCursor}
	for _, entity := range result.Entities {
		category, ok := entity.(*model.Category)
		if !ok {
			return CategoryListPage{}, errors.NewMalformedItemError("item in subcategory listing is not a category")
		}
		out.Categories = append(out.Categories, category)
	}
	return out, nil
}

// DeleteCategory removes a category. A category still referenced by courses
// cannot be deleted. One with subcategories is rejected unless cascade is
// set, in which case the subtree is removed depth-first; courses anywhere in
// the subtree still block the delete.
func (s *Service) DeleteCategory(ctx context.Context, categoryID string, cascade bool) error {
	if _, err := s.GetCategory(ctx, categoryID); err != nil {
		return err
	}

	courses, err := s.ListCoursesByCategory(ctx, categoryID, dynamo.PageRequest{Limit: 1})
	if err != nil {
		return err
	}
	if len(courses.Courses) > 0 {
		return errors.NewConstraintViolationError("category still has courses")
	}

	children, err := s.ListSubcategories(ctx, categoryID, dynamo.PageRequest{Limit: 1})
	if err != nil {
		return err
	}
	if len(children.Categories) > 0 {
		if !cascade {
			return errors.NewConstraintViolationError("category still has subcategories")
		}
		if err := s.deleteSubtree(ctx, categoryID, 0); err != nil {
			return err
		}
	}

	key, err := dynamo.CategoryKey(categoryID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteItem(ctx, key); err != nil {
		return err
	}

	s.logger.Info("category deleted",
		zap.String("categoryId", categoryID),
		zap.Bool("cascade", cascade))
	return nil
}

// deleteSubtree removes every descendant of categoryID, children before
// parents so a crash mid-way never orphans a subtree from the index.
func (s *Service) deleteSubtree(ctx context.Context, categoryID string, depth int) error {
	if depth >= model.MaxCategoryDepth {
		return errors.NewConstraintViolationError("category parent chain is too deep or cyclic")
	}

	cursor := ""
	for {
		page, err := s.ListSubcategories(ctx, categoryID, dynamo.PageRequest{Limit: dynamo.MaxPageSize, Cursor: cursor})
		if err != nil {
			return err
		}
		for _, child := range page.Categories {
			courses, err := s.ListCoursesByCategory(ctx, child.CategoryID, dynamo.PageRequest{Limit: 1})
			if err != nil {
				return err
			}
			if len(courses.Courses) > 0 {
				return errors.NewConstraintViolationError("category subtree still has courses")
			}
			if err := s.deleteSubtree(ctx, child.CategoryID, depth+1); err != nil {
				return err
			}
			key, err := dynamo.CategoryKey(child.CategoryID)
			if err != nil {
				return err
			}
			if err := s.store.DeleteItem(ctx, key); err != nil {
				return err
			}
		}
		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}
	return nil
}
