package model

import (
	"time"

	"github.com/frankkinuthian/lms-v3/pkg/errors"
)

// MaxCategoryDepth bounds the parent chain walk when a category is created
// or re-parented. A chain longer than this is treated as a cycle.
const MaxCategoryDepth = 16

// Category is a node in the course taxonomy tree. A root category has an
// empty ParentCategoryID. The tree is acyclic; the catalog service walks the
// parent chain on every reparenting write to enforce that.
type Category struct {
	CategoryID       string
	Name             string
	ParentCategoryID string
	CreatedAt        time.Time
	UpdatedAt        time.Time

	Extra map[string]interface{}
}

// Type implements Entity.
func (c *Category) Type() EntityType { return EntityTypeCategory }

// Validate implements Entity.
func (c *Category) Validate() error {
	if c.CategoryID == "" {
		return errors.NewInvalidIdentityError("category", "categoryId")
	}
	if c.Name == "" {
		return errors.NewValidationError("category name must not be empty")
	}
	if c.ParentCategoryID == c.CategoryID && c.CategoryID != "" {
		return errors.NewConstraintViolationError("category cannot be its own parent")
	}
	return nil
}

// IsRoot reports whether the category has no parent.
func (c *Category) IsRoot() bool { return c.ParentCategoryID == "" }
