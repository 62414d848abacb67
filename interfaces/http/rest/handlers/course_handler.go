package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/frankkinuthian/lms-v3/application/catalog"
	"github.com/frankkinuthian/lms-v3/domain/model"
	dynamo "github.com/frankkinuthian/lms-v3/infrastructure/persistence/dynamodb"
	"github.com/frankkinuthian/lms-v3/pkg/auth"
	"github.com/frankkinuthian/lms-v3/pkg/common"
	"github.com/frankkinuthian/lms-v3/pkg/utils"
)

const timeFormat = time.RFC3339

// CourseHandler handles course and lesson HTTP requests.
type CourseHandler struct {
	service *catalog.Service
	logger  *zap.Logger
}

// NewCourseHandler creates a new course handler
func NewCourseHandler(service *catalog.Service, logger *zap.Logger) *CourseHandler {
	return &CourseHandler{
		service: service,
		logger:  logger,
	}
}

// CreateCourseRequest represents the request body for creating a course
type CreateCourseRequest struct {
	CategoryID  string  `json:"categoryId" validate:"required"`
	Title       string  `json:"title" validate:"required,min=1,max=200"`
	Description string  `json:"description,omitempty" validate:"omitempty,max=5000"`
	Price       float64 `json:"price" validate:"gte=0"`
}

// CourseResponse is the wire shape of a course.
type CourseResponse struct {
	CourseID        string  `json:"courseId"`
	InstructorID    string  `json:"instructorId"`
	CategoryID      string  `json:"categoryId"`
	Title           string  `json:"title"`
	Description     string  `json:"description,omitempty"`
	Price           float64 `json:"price"`
	IsPublished     bool    `json:"isPublished"`
	EnrollmentCount int     `json:"enrollmentCount"`
	CreatedAt       string  `json:"createdAt"`
	UpdatedAt       string  `json:"updatedAt"`
}

func toCourseResponse(c *model.Course) CourseResponse {
	return CourseResponse{
		CourseID:        c.CourseID,
		InstructorID:    c.InstructorID,
		CategoryID:      c.CategoryID,
		Title:           c.Title,
		Description:     c.Description,
		Price:           c.Price,
		IsPublished:     c.IsPublished,
		EnrollmentCount: c.EnrollmentCount,
		CreatedAt:       c.CreatedAt.Format(timeFormat),
		UpdatedAt:       c.UpdatedAt.Format(timeFormat),
	}
}

// LessonResponse is the wire shape of a lesson.
type LessonResponse struct {
	LessonID        string `json:"lessonId"`
	CourseID        string `json:"courseId"`
	Title           string `json:"title"`
	OrderIndex      int    `json:"orderIndex"`
	DurationSeconds int    `json:"durationSeconds,omitempty"`
	VideoURL        string `json:"videoUrl,omitempty"`
}

func toLessonResponse(l *model.Lesson) LessonResponse {
	return LessonResponse{
		LessonID:        l.LessonID,
		CourseID:        l.CourseID,
		Title:           l.Title,
		OrderIndex:      l.OrderIndex,
		DurationSeconds: l.DurationSeconds,
		VideoURL:        l.VideoURL,
	}
}

// CreateCourse handles POST /courses
func (h *CourseHandler) CreateCourse(w http.ResponseWriter, r *http.Request) {
	var req CreateCourseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized")
		return
	}

	course, err := h.service.CreateCourse(r.Context(), catalog.CreateCourseInput{
		InstructorID: userCtx.UserID,
		CategoryID:   req.CategoryID,
		Title:        req.Title,
		Description:  req.Description,
		Price:        req.Price,
	})
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusCreated, toCourseResponse(course))
}

// GetCourse handles GET /courses/{courseID}
func (h *CourseHandler) GetCourse(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseID")

	course, err := h.service.GetCourse(r.Context(), courseID)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, toCourseResponse(course))
}

// PublishCourse handles POST /courses/{courseID}/publish
func (h *CourseHandler) PublishCourse(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseID")

	course, err := h.service.PublishCourse(r.Context(), courseID)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, toCourseResponse(course))
}

// DeleteCourse handles DELETE /courses/{courseID}
func (h *CourseHandler) DeleteCourse(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseID")

	if err := h.service.DeleteCourse(r.Context(), courseID); err != nil {
		common.RespondAppError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AddLessonRequest represents the request body for adding a lesson
type AddLessonRequest struct {
	Title           string `json:"title" validate:"required,min=1,max=200"`
	OrderIndex      int    `json:"orderIndex" validate:"gte=0,lte=99999"`
	DurationSeconds int    `json:"durationSeconds,omitempty" validate:"omitempty,gte=0"`
	VideoURL        string `json:"videoUrl,omitempty" validate:"omitempty,url"`
}

// AddLesson handles POST /courses/{courseID}/lessons
func (h *CourseHandler) AddLesson(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseID")

	var req AddLessonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	lesson, err := h.service.AddLesson(r.Context(), catalog.AddLessonInput{
		CourseID:        courseID,
		Title:           req.Title,
		OrderIndex:      req.OrderIndex,
		DurationSeconds: req.DurationSeconds,
		VideoURL:        req.VideoURL,
	})
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusCreated, toLessonResponse(lesson))
}

// ListLessons handles GET /courses/{courseID}/lessons
func (h *CourseHandler) ListLessons(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseID")
	params := common.ExtractPaginationParams(r)

	page, err := h.service.ListCourseLessons(r.Context(), courseID, dynamo.PageRequest{
		Limit:  params.Limit,
		Cursor: params.Cursor,
	})
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	items := make([]LessonResponse, 0, len(page.Lessons))
	for _, l := range page.Lessons {
		items = append(items, toLessonResponse(l))
	}

	common.RespondPage(w, http.StatusOK, items, &common.PageCursor{
		Limit:      params.Limit,
		NextCursor: page.NextCursor,
	})
}

// GetLesson handles GET /lessons/{lessonID}
func (h *CourseHandler) GetLesson(w http.ResponseWriter, r *http.Request) {
	lessonID := chi.URLParam(r, "lessonID")

	lesson, err := h.service.GetLesson(r.Context(), lessonID)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, toLessonResponse(lesson))
}
