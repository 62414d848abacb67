package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/frankkinuthian/lms-v3/application/catalog"
	"github.com/frankkinuthian/lms-v3/domain/model"
	dynamo "github.com/frankkinuthian/lms-v3/infrastructure/persistence/dynamodb"
	"github.com/frankkinuthian/lms-v3/pkg/common"
	"github.com/frankkinuthian/lms-v3/pkg/utils"
)

// CategoryHandler handles taxonomy HTTP requests.
type CategoryHandler struct {
	service *catalog.Service
	logger  *zap.Logger
}

// NewCategoryHandler creates a new category handler
func NewCategoryHandler(service *catalog.Service, logger *zap.Logger) *CategoryHandler {
	return &CategoryHandler{
		service: service,
		logger:  logger,
	}
}

// CreateCategoryRequest represents the request body for creating a category
type CreateCategoryRequest struct {
	Name             string `json:"name" validate:"required,min=1,max=100"`
	ParentCategoryID string `json:"parentCategoryId,omitempty"`
}

// ReparentCategoryRequest represents the request body for moving a category
type ReparentCategoryRequest struct {
	ParentCategoryID string `json:"parentCategoryId"`
}

// CategoryResponse is the wire shape of a category.
type CategoryResponse struct {
	CategoryID       string `json:"categoryId"`
	Name             string `json:"name"`
	ParentCategoryID string `json:"parentCategoryId,omitempty"`
}

func toCategoryResponse(c *model.Category) CategoryResponse {
	return CategoryResponse{
		CategoryID:       c.CategoryID,
		Name:             c.Name,
		ParentCategoryID: c.ParentCategoryID,
	}
}

// CreateCategory handles POST /categories
func (h *CategoryHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CreateCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	category, err := h.service.CreateCategory(r.Context(), catalog.CreateCategoryInput{
		Name:             req.Name,
		ParentCategoryID: req.ParentCategoryID,
	})
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusCreated, toCategoryResponse(category))
}

// GetCategory handles GET /categories/{categoryID}
func (h *CategoryHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	categoryID := chi.URLParam(r, "categoryID")

	category, err := h.service.GetCategory(r.Context(), categoryID)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, toCategoryResponse(category))
}

// ReparentCategory handles PUT /categories/{categoryID}/parent
func (h *CategoryHandler) ReparentCategory(w http.ResponseWriter, r *http.Request) {
	categoryID := chi.URLParam(r, "categoryID")

	var req ReparentCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body: "+err.Error())
		return
	}

	category, err := h.service.ReparentCategory(r.Context(), categoryID, req.ParentCategoryID)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, toCategoryResponse(category))
}

// ListSubcategories handles GET /categories/{categoryID}/subcategories
func (h *CategoryHandler) ListSubcategories(w http.ResponseWriter, r *http.Request) {
	categoryID := chi.URLParam(r, "categoryID")
	params := common.ExtractPaginationParams(r)

	page, err := h.service.ListSubcategories(r.Context(), categoryID, dynamo.PageRequest{
		Limit:  params.Limit,
		Cursor: params.Cursor,
	})
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	items := make([]CategoryResponse, 0, len(page.Categories))
	for _, c := range page.Categories {
		items = append(items, toCategoryResponse(c))
	}

	common.RespondPage(w, http.StatusOK, items, &common.PageCursor{
		Limit:      params.Limit,
		NextCursor: page.NextCursor,
	})
}

// ListCourses handles GET /categories/{categoryID}/courses
func (h *CategoryHandler) ListCourses(w http.ResponseWriter, r *http.Request) {
	categoryID := chi.URLParam(r, "categoryID")
	params := common.ExtractPaginationParams(r)

	page, err := h.service.ListCoursesByCategory(r.Context(), categoryID, dynamo.PageRequest{
		Limit:  params.Limit,
		Cursor: params.Cursor,
	})
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	items := make([]CourseResponse, 0, len(page.Courses))
	for _, c := range page.Courses {
		items = append(items, toCourseResponse(c))
	}

	common.RespondPage(w, http.StatusOK, items, &common.PageCursor{
		Limit:      params.Limit,
		NextCursor: page.NextCursor,
	})
}

// DeleteCategory handles DELETE /categories/{categoryID}
func (h *CategoryHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	categoryID := chi.URLParam(r, "categoryID")
	cascade := r.URL.Query().Get("cascade") == "true"

	if err := h.service.DeleteCategory(r.Context(), categoryID, cascade); err != nil {
		common.RespondAppError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
