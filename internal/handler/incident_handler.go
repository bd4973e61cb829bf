package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Sakshi-Mishra77/Smart-city-new/internal/middleware"
	"github.com/Sakshi-Mishra77/Smart-city-new/internal/model"
	"github.com/Sakshi-Mishra77/Smart-city-new/internal/service"
)

type incidentService interface {
	Create(actor *service.Claims, req *model.CreateIncidentRequest) (*model.Incident, error)
	List(actor *service.Claims, status, category string) ([]*model.Incident, error)
	Get(actor *service.Claims, id uuid.UUID) (*model.Incident, error)
	Update(actor *service.Claims, id uuid.UUID, req *model.UpdateIncidentRequest) (*model.Incident, error)
	Delete(actor *service.Claims, id uuid.UUID) error
	Stats(actor *service.Claims) (*model.IncidentStats, error)
}

type IncidentHandler struct {
	incidents incidentService
}

func NewIncidentHandler(incidents incidentService) *IncidentHandler {
	return &IncidentHandler{incidents: incidents}
}

// Handles POST /api/issues
func (h *IncidentHandler) Create(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)

	var req model.CreateIncidentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	incident, err := h.incidents.Create(claims, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondCreated(c, incident)
}

// Handles GET /api/issues
func (h *IncidentHandler) List(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)

	incidents, err := h.incidents.List(claims, c.Query("status"), c.Query("category"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if incidents == nil {
		incidents = []*model.Incident{}
	}

	respondOK(c, gin.H{"issues": incidents, "total": len(incidents)})
}

// Handles GET /api/issues/stats
func (h *IncidentHandler) Stats(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)

	stats, err := h.incidents.Stats(claims)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, stats)
}

// Handles GET /api/issues/:id
func (h *IncidentHandler) Get(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid issue id")
		return
	}

	incident, err := h.incidents.Get(claims, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, incident)
}

// Handles PUT /api/issues/:id
func (h *IncidentHandler) Update(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid issue id")
		return
	}

	var req model.UpdateIncidentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	incident, err := h.incidents.Update(claims, id, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, incident)
}

// Handles DELETE /api/issues/:id
func (h *IncidentHandler) Delete(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid issue id")
		return
	}

	if err := h.incidents.Delete(claims, id); err != nil {
		respondServiceError(c, err)
		return
	}

	respondMessage(c, "Issue deleted")
}
