package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/frankkinuthian/lms-v3/application/catalog"
	"github.com/frankkinuthian/lms-v3/domain/model"
	"github.com/frankkinuthian/lms-v3/pkg/auth"
	"github.com/frankkinuthian/lms-v3/pkg/common"
	"github.com/frankkinuthian/lms-v3/pkg/utils"
)

// EnrollmentHandler handles enrollment, checkout and progress requests.
type EnrollmentHandler struct {
	service *catalog.Service
	logger  *zap.Logger
}

// NewEnrollmentHandler creates a new enrollment handler
func NewEnrollmentHandler(service *catalog.Service, logger *zap.Logger) *EnrollmentHandler {
	return &EnrollmentHandler{
		service: service,
		logger:  logger,
	}
}

// EnrollmentResponse is the wire shape of an enrollment.
type EnrollmentResponse struct {
	UserID             string  `json:"userId"`
	CourseID           string  `json:"courseId"`
	TransactionID      string  `json:"transactionId,omitempty"`
	ProgressPercentage float64 `json:"progressPercentage"`
	IsCompleted        bool    `json:"isCompleted"`
	CreatedAt          string  `json:"createdAt"`
}

func toEnrollmentResponse(e *model.Enrollment) EnrollmentResponse {
	return EnrollmentResponse{
		UserID:             e.UserID,
		CourseID:           e.CourseID,
		TransactionID:      e.TransactionID,
		ProgressPercentage: e.ProgressPercentage,
		IsCompleted:        e.IsCompleted,
		CreatedAt:          e.CreatedAt.Format(timeFormat),
	}
}

// TransactionResponse is the wire shape of a payment transaction.
type TransactionResponse struct {
	TransactionID string  `json:"transactionId"`
	UserID        string  `json:"userId"`
	CourseID      string  `json:"courseId"`
	Amount        float64 `json:"amount"`
	Status        string  `json:"status"`
	CreatedAt     string  `json:"createdAt"`
	UpdatedAt     string  `json:"updatedAt"`
}

func toTransactionResponse(t *model.Transaction) TransactionResponse {
	return TransactionResponse{
		TransactionID: t.TransactionID,
		UserID:        t.UserID,
		CourseID:      t.CourseID,
		Amount:        t.Amount,
		Status:        string(t.Status),
		CreatedAt:     t.CreatedAt.Format(timeFormat),
		UpdatedAt:     t.UpdatedAt.Format(timeFormat),
	}
}

// Enroll handles POST /courses/{courseID}/enroll
func (h *EnrollmentHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseID")

	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized")
		return
	}

	enrollment, err := h.service.EnrollUserInCourse(r.Context(), userCtx.UserID, courseID)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusCreated, toEnrollmentResponse(enrollment))
}

// BeginCheckoutRequest represents the request body for opening a checkout
type BeginCheckoutRequest struct {
	CourseID string `json:"courseId" validate:"required"`
}

// BeginCheckout handles POST /checkout
func (h *EnrollmentHandler) BeginCheckout(w http.ResponseWriter, r *http.Request) {
	var req BeginCheckoutRequest
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

	tx, err := h.service.BeginCheckout(r.Context(), userCtx.UserID, req.CourseID)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusCreated, toTransactionResponse(tx))
}

// CompleteCheckout handles POST /checkout/{transactionID}/complete
func (h *EnrollmentHandler) CompleteCheckout(w http.ResponseWriter, r *http.Request) {
	transactionID := chi.URLParam(r, "transactionID")

	enrollment, err := h.service.CompleteCheckout(r.Context(), transactionID)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, toEnrollmentResponse(enrollment))
}

// FailCheckout handles POST /checkout/{transactionID}/fail
func (h *EnrollmentHandler) FailCheckout(w http.ResponseWriter, r *http.Request) {
	transactionID := chi.URLParam(r, "transactionID")

	if err := h.service.FailCheckout(r.Context(), transactionID); err != nil {
		common.RespondAppError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RecordProgressRequest represents the request body for recording progress
type RecordProgressRequest struct {
	TimeSpentSeconds int  `json:"timeSpentSeconds" validate:"gte=0"`
	IsCompleted      bool `json:"isCompleted"`
}

// RecordProgress handles POST /lessons/{lessonID}/progress
func (h *EnrollmentHandler) RecordProgress(w http.ResponseWriter, r *http.Request) {
	lessonID := chi.URLParam(r, "lessonID")

	var req RecordProgressRequest
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

	progress, err := h.service.RecordLessonProgress(r.Context(), catalog.RecordLessonProgressInput{
		UserID:           userCtx.UserID,
		LessonID:         lessonID,
		TimeSpentSeconds: req.TimeSpentSeconds,
		IsCompleted:      req.IsCompleted,
	})
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"userId":           progress.UserID,
		"lessonId":         progress.LessonID,
		"courseId":         progress.CourseID,
		"timeSpentSeconds": progress.TimeSpentSeconds,
		"isCompleted":      progress.IsCompleted,
	})
}
