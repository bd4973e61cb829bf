package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Sakshi-Mishra77/Smart-city-new/internal/middleware"
	"github.com/Sakshi-Mishra77/Smart-city-new/internal/model"
	"github.com/Sakshi-Mishra77/Smart-city-new/internal/service"
)

type userService interface {
	GetProfile(userID uuid.UUID) (*model.User, error)
	UpdateProfile(userID uuid.UUID, req *model.UpdateProfileRequest) (*model.User, error)
	ListWorkers(actor *service.Claims) ([]model.WorkerSummary, error)
	CreateManagedOfficial(actor *service.Claims, req *model.CreateManagedOfficialRequest) (*model.User, error)
	ListManagedOfficials(actor *service.Claims) ([]model.ManagedOfficialSummary, error)
}

type UserHandler struct {
	users userService
}

func NewUserHandler(users userService) *UserHandler {
	return &UserHandler{users: users}
}

// Handles GET /api/users/profile
func (h *UserHandler) GetProfile(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)

	user, err := h.users.GetProfile(claims.UserID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, user)
}

// Handles PUT /api/users/profile
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)

	var req model.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.users.UpdateProfile(claims.UserID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, user)
}

// Handles GET /api/users/workers
func (h *UserHandler) ListWorkers(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)

	workers, err := h.users.ListWorkers(claims)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, gin.H{"workers": workers, "total": len(workers)})
}

// Handles POST /api/users/managed-officials
func (h *UserHandler) CreateManagedOfficial(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)

	var req model.CreateManagedOfficialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.users.CreateManagedOfficial(claims, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondCreated(c, user)
}

// Handles GET /api/users/managed-officials
func (h *UserHandler) ListManagedOfficials(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)

	officials, err := h.users.ListManagedOfficials(claims)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, gin.H{"officials": officials, "total": len(officials)})
}
