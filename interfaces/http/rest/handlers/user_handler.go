package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/frankkinuthian/lms-v3/application/catalog"
	"github.com/frankkinuthian/lms-v3/domain/model"
	dynamo "github.com/frankkinuthian/lms-v3/infrastructure/persistence/dynamodb"
	"github.com/frankkinuthian/lms-v3/pkg/auth"
	"github.com/frankkinuthian/lms-v3/pkg/common"
	"github.com/frankkinuthian/lms-v3/pkg/utils"
)

// UserHandler handles account-related HTTP requests.
type UserHandler struct {
	service *catalog.Service
	logger  *zap.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(service *catalog.Service, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		logger:  logger,
	}
}

// RegisterUserRequest represents the request body for registering an account
type RegisterUserRequest struct {
	Email          string `json:"email" validate:"required,email"`
	FullName       string `json:"fullName" validate:"required,min=1,max=200"`
	Role           string `json:"role,omitempty" validate:"omitempty,oneof=student instructor admin"`
	HashedPassword string `json:"hashedPassword" validate:"required"`
}

// UserResponse is the wire shape of a user profile. The password hash never
// leaves the service.
type UserResponse struct {
	UserID    string `json:"userId"`
	Email     string `json:"email"`
	FullName  string `json:"fullName"`
	Role      string `json:"role"`
	IsActive  bool   `json:"isActive"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

func toUserResponse(u *model.User) UserResponse {
	return UserResponse{
		UserID:    u.UserID,
		Email:     u.Email,
		FullName:  u.FullName,
		Role:      string(u.Role),
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt.Format(timeFormat),
		UpdatedAt: u.UpdatedAt.Format(timeFormat),
	}
}

// RegisterUser handles POST /users
func (h *UserHandler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req RegisterUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	role := model.Role(req.Role)
	if req.Role == "" {
		role = model.RoleStudent
	}

	user, err := h.service.RegisterUser(r.Context(), catalog.RegisterUserInput{
		Email:          req.Email,
		FullName:       req.FullName,
		Role:           role,
		HashedPassword: req.HashedPassword,
	})
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusCreated, toUserResponse(user))
}

// GetUser handles GET /users/{userID}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	user, err := h.service.GetUserProfile(r.Context(), userID)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, toUserResponse(user))
}

// GetCurrentUser handles GET /users/me
func (h *UserHandler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized")
		return
	}

	user, err := h.service.GetUserProfile(r.Context(), userCtx.UserID)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, toUserResponse(user))
}

// DeactivateUser handles DELETE /users/{userID}
func (h *UserHandler) DeactivateUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	user, err := h.service.DeactivateUser(r.Context(), userID)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, toUserResponse(user))
}

// ListEnrollments handles GET /users/{userID}/enrollments
func (h *UserHandler) ListEnrollments(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	params := common.ExtractPaginationParams(r)

	page, err := h.service.ListUserEnrollments(r.Context(), userID, dynamo.PageRequest{
		Limit:  params.Limit,
		Cursor: params.Cursor,
	})
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	items := make([]EnrollmentResponse, 0, len(page.Enrollments))
	for _, e := range page.Enrollments {
		items = append(items, toEnrollmentResponse(e))
	}

	common.RespondPage(w, http.StatusOK, items, &common.PageCursor{
		Limit:      params.Limit,
		NextCursor: page.NextCursor,
	})
}

// ListTransactions handles GET /users/{userID}/transactions
func (h *UserHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	params := common.ExtractPaginationParams(r)

	page, err := h.service.ListUserTransactions(r.Context(), userID, dynamo.PageRequest{
		Limit:  params.Limit,
		Cursor: params.Cursor,
	})
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	items := make([]TransactionResponse, 0, len(page.Transactions))
	for _, tx := range page.Transactions {
		items = append(items, toTransactionResponse(tx))
	}

	common.RespondPage(w, http.StatusOK, items, &common.PageCursor{
		Limit:      params.Limit,
		NextCursor: page.NextCursor,
	})
}
