package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Sakshi-Mishra77/Smart-city-new/internal/lifecycle"
	"github.com/Sakshi-Mishra77/Smart-city-new/internal/middleware"
	"github.com/Sakshi-Mishra77/Smart-city-new/internal/model"
	"github.com/Sakshi-Mishra77/Smart-city-new/internal/service"
)

type ticketService interface {
	List(actor *service.Claims, status string) ([]*model.Ticket, error)
	Get(actor *service.Claims, id uuid.UUID) (*model.Ticket, []lifecycle.Action, error)
	UpdateStatus(actor *service.Claims, id uuid.UUID, req *model.UpdateTicketStatusRequest) (*model.Ticket, error)
	Assign(actor *service.Claims, id uuid.UUID, req *model.AssignTicketRequest) (*model.Ticket, error)
	ProgressUpdate(actor *service.Claims, id uuid.UUID, req *model.ProgressUpdateRequest) (*model.Ticket, error)
	Logbook(actor *service.Claims, id uuid.UUID) ([]model.LogEntry, error)
	Stats(actor *service.Claims) (*model.TicketStats, error)
}

type TicketHandler struct {
	tickets ticketService
}

func NewTicketHandler(tickets ticketService) *TicketHandler {
	return &TicketHandler{tickets: tickets}
}

// Handles GET /api/tickets
func (h *TicketHandler) List(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)

	tickets, err := h.tickets.List(claims, c.Query("status"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if tickets == nil {
		tickets = []*model.Ticket{}
	}

	respondOK(c, gin.H{"tickets": tickets, "total": len(tickets)})
}

// Handles GET /api/tickets/stats
func (h *TicketHandler) Stats(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)

	stats, err := h.tickets.Stats(claims)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, stats)
}

// Handles GET /api/tickets/:id. The response carries the actions the caller
// may take, so clients render exactly the controls the backend will accept.
func (h *TicketHandler) Get(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid ticket id")
		return
	}

	ticket, actions, err := h.tickets.Get(claims, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if actions == nil {
		actions = []lifecycle.Action{}
	}

	respondOK(c, gin.H{"ticket": ticket, "allowedActions": actions})
}

// Handles PATCH /api/tickets/:id/status
func (h *TicketHandler) UpdateStatus(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid ticket id")
		return
	}

	var req model.UpdateTicketStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	ticket, err := h.tickets.UpdateStatus(claims, id, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, ticket)
}

// Handles POST /api/tickets/:id/assign
func (h *TicketHandler) Assign(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid ticket id")
		return
	}

	var req model.AssignTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	ticket, err := h.tickets.Assign(claims, id, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, ticket)
}

// Handles POST /api/tickets/:id/progress-update
func (h *TicketHandler) ProgressUpdate(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid ticket id")
		return
	}

	var req model.ProgressUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	ticket, err := h.tickets.ProgressUpdate(claims, id, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, ticket)
}

// Handles GET /api/tickets/:id/logbook
func (h *TicketHandler) Logbook(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid ticket id")
		return
	}

	entries, err := h.tickets.Logbook(claims, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if entries == nil {
		entries = []model.LogEntry{}
	}

	respondOK(c, gin.H{"entries": entries, "total": len(entries)})
}
