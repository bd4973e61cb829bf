package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Sakshi-Mishra77/Smart-city-new/internal/errs"
	"github.com/Sakshi-Mishra77/Smart-city-new/internal/model"
)

const EventIncidentCreated = "incident.created"

type incidentStore interface {
	Create(incident *model.Incident) error
	FindByID(id uuid.UUID) (*model.Incident, error)
	FindAll(status, category string, reporterID *uuid.UUID) ([]*model.Incident, error)
	Update(id uuid.UUID, req *model.UpdateIncidentRequest) error
	Delete(id uuid.UUID) error
	SetTicketID(id, ticketID uuid.UUID) error
	GetStats(reporterID *uuid.UUID) (*model.IncidentStats, error)
}

type ticketCreator interface {
	Create(ticket *model.Ticket) error
}

type eventPublisher interface {
	Create(routingKey string, payload interface{}) error
}

type IncidentService struct {
	incidents incidentStore
	tickets   ticketCreator
	outbox    eventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

func NewIncidentService(incidents incidentStore, tickets ticketCreator, outbox eventPublisher, logger *zap.Logger) *IncidentService {
	return &IncidentService{
		incidents: incidents,
		tickets:   tickets,
		outbox:    outbox,
		logger:    logger,
		now:       time.Now,
	}
}

// Create files a citizen incident and opens its paired work ticket. The
// ticket carries the incident's facts so official views never need a join.
func (s *IncidentService) Create(actor *Claims, req *model.CreateIncidentRequest) (*model.Incident, error) {
	hasCoordinates := req.Latitude != nil && req.Longitude != nil
	if req.Location == "" && !hasCoordinates {
		return nil, errs.Invalid("Location or coordinates are required")
	}
	if req.Latitude != nil && (*req.Latitude < -90 || *req.Latitude > 90) {
		return nil, errs.Invalid("Latitude must be between -90 and 90")
	}
	if req.Longitude != nil && (*req.Longitude < -180 || *req.Longitude > 180) {
		return nil, errs.Invalid("Longitude must be between -180 and 180")
	}
	location := req.Location
	if location == "" {
		location = fmt.Sprintf("%v, %v", *req.Latitude, *req.Longitude)
	}

	now := s.now()
	incident := &model.Incident{
		ID:          uuid.New(),
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Status:      model.StatusOpen,
		Location:    location,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Images:      req.Images,
		ReportedBy:  actor.Name,
		ReporterID:  &actor.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if actor.Email != "" {
		incident.ReporterEmail = &actor.Email
	}

	// Officials set priority by hand; citizen reports get a scored one.
	if actor.UserType != model.TypeOfficial {
		priority := EstimatePriority(req.Title, req.Description, req.Category, location)
		incident.Priority = &priority
	}

	if err := s.incidents.Create(incident); err != nil {
		return nil, err
	}

	ticket := &model.Ticket{
		ID:           uuid.New(),
		IncidentID:   incident.ID,
		Title:        incident.Title,
		Description:  incident.Description,
		Category:     incident.Category,
		Status:       model.StatusOpen,
		Priority:     incident.Priority,
		Location:     incident.Location,
		Latitude:     incident.Latitude,
		Longitude:    incident.Longitude,
		ReporterID:   incident.ReporterID,
		ReporterName: &incident.ReportedBy,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if incident.ReporterEmail != nil {
		ticket.ReporterEmail = incident.ReporterEmail
	}
	if err := s.tickets.Create(ticket); err != nil {
		return nil, err
	}
	if err := s.incidents.SetTicketID(incident.ID, ticket.ID); err != nil {
		return nil, err
	}
	incident.TicketID = &ticket.ID

	event := map[string]any{
		"messageId":  uuid.New().String(),
		"incidentId": incident.ID.String(),
		"ticketId":   ticket.ID.String(),
		"title":      incident.Title,
		"category":   incident.Category,
		"reporterId": actor.UserID.String(),
		"occurredAt": now.UTC().Format(time.RFC3339),
	}
	if err := s.outbox.Create(EventIncidentCreated, event); err != nil {
		s.logger.Warn("incident event enqueue failed", zap.Error(err))
	}

	s.logger.Info("incident created",
		zap.String("incident_id", incident.ID.String()),
		zap.String("ticket_id", ticket.ID.String()),
		zap.String("category", incident.Category),
	)

	return incident, nil
}

// List scopes results by actor: citizens see their own incidents, officials
// see all.
func (s *IncidentService) List(actor *Claims, status, category string) ([]*model.Incident, error) {
	status = normalizeFilter(status)
	if actor.UserType == model.TypeCitizen {
		return s.incidents.FindAll(status, category, &actor.UserID)
	}
	return s.incidents.FindAll(status, category, nil)
}

func (s *IncidentService) Get(actor *Claims, id uuid.UUID) (*model.Incident, error) {
	incident, err := s.incidents.FindByID(id)
	if err != nil {
		return nil, err
	}
	if actor.UserType == model.TypeCitizen {
		if incident.ReporterID == nil || *incident.ReporterID != actor.UserID {
			return nil, errs.Denied("You can only view your own incidents")
		}
	}
	return incident, nil
}

// Update edits incident fields. Citizens may edit only their own open
// incidents; officials may edit any.
func (s *IncidentService) Update(actor *Claims, id uuid.UUID, req *model.UpdateIncidentRequest) (*model.Incident, error) {
	incident, err := s.incidents.FindByID(id)
	if err != nil {
		return nil, err
	}

	if actor.UserType == model.TypeCitizen {
		if incident.ReporterID == nil || *incident.ReporterID != actor.UserID {
			return nil, errs.Denied("You can only edit your own incidents")
		}
		if incident.Status != model.StatusOpen {
			return nil, errs.Denied("Incidents can only be edited while open")
		}
		// Citizens cannot push status or priority.
		req.Status = nil
		req.Priority = nil
	}

	if err := s.incidents.Update(id, req); err != nil {
		return nil, err
	}
	return s.incidents.FindByID(id)
}

// Delete removes an incident. Head supervisor only.
func (s *IncidentService) Delete(actor *Claims, id uuid.UUID) error {
	if actor.UserType != model.TypeHeadSupervisor {
		return errs.Denied("Only the head supervisor can delete incidents")
	}
	return s.incidents.Delete(id)
}

func (s *IncidentService) Stats(actor *Claims) (*model.IncidentStats, error) {
	if actor.UserType == model.TypeCitizen {
		return s.incidents.GetStats(&actor.UserID)
	}
	return s.incidents.GetStats(nil)
}

func normalizeFilter(status string) string {
	switch status {
	case "pending_review", "under_review":
		return "pending"
	}
	return status
}
