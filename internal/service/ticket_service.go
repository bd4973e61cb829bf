package service

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Sakshi-Mishra77/Smart-city-new/internal/errs"
	"github.com/Sakshi-Mishra77/Smart-city-new/internal/lifecycle"
	"github.com/Sakshi-Mishra77/Smart-city-new/internal/model"
)

// Routing keys for ticket events flowing through the outbox.
const (
	EventTicketStatusUpdated   = "ticket.status.updated"
	EventTicketAssigned        = "ticket.assigned"
	EventTicketProgressUpdated = "ticket.progress.updated"
	EventTicketReopened        = "ticket.reopened"
)

type ticketStore interface {
	BeginTx() (*sql.Tx, error)
	FindByID(id uuid.UUID) (*model.Ticket, error)
	FindByIDForUpdate(tx *sql.Tx, id uuid.UUID) (*model.Ticket, error)
	FindAll(status string) ([]*model.Ticket, error)
	FindForWorker(workerID uuid.UUID, status string) ([]*model.Ticket, error)
	FindForInspector(inspectorID uuid.UUID, status string) ([]*model.Ticket, error)
	SaveLifecycleTx(tx *sql.Tx, t *model.Ticket) error
	SaveAssignmentTx(tx *sql.Tx, t *model.Ticket) error
	SaveProgressTx(tx *sql.Tx, t *model.Ticket) error
	GetStats() (*model.TicketStats, error)
}

type logStore interface {
	AppendTx(tx *sql.Tx, entry *model.LogEntry) error
	ListByTicket(ticketID uuid.UUID) ([]model.LogEntry, error)
}

type outboxStore interface {
	CreateInTransaction(tx *sql.Tx, routingKey string, payload interface{}) error
}

type incidentStatusStore interface {
	UpdateStatusTx(tx *sql.Tx, id uuid.UUID, status model.IncidentStatus) error
}

type workerLookup interface {
	FindByID(id uuid.UUID) (*model.User, error)
}

type TicketService struct {
	tickets   ticketStore
	logs      logStore
	outbox    outboxStore
	incidents incidentStatusStore
	users     workerLookup
	logger    *zap.Logger
	now       func() time.Time
}

func NewTicketService(tickets ticketStore, logs logStore, outbox outboxStore,
	incidents incidentStatusStore, users workerLookup, logger *zap.Logger) *TicketService {
	return &TicketService{
		tickets:   tickets,
		logs:      logs,
		outbox:    outbox,
		incidents: incidents,
		users:     users,
		logger:    logger,
		now:       time.Now,
	}
}

// EffectiveRole maps the actor onto the role the rule table understands.
// Head supervisors hold supervisor rights everywhere.
func EffectiveRole(claims *Claims) model.OfficialRole {
	if claims.UserType == model.TypeHeadSupervisor {
		return model.RoleSupervisor
	}
	return claims.OfficialRole
}

// List returns tickets scoped to what the actor's role may see.
func (s *TicketService) List(actor *Claims, status string) ([]*model.Ticket, error) {
	if !model.IsOfficialAccount(actor.UserType) {
		return nil, errs.Denied("Only officials can view tickets")
	}
	if status != "" {
		status = string(lifecycle.NormalizeStatus(status))
	}
	switch EffectiveRole(actor) {
	case model.RoleWorker:
		return s.tickets.FindForWorker(actor.UserID, status)
	case model.RoleFieldInspector:
		return s.tickets.FindForInspector(actor.UserID, status)
	case model.RoleDepartment, model.RoleSupervisor:
		return s.tickets.FindAll(status)
	}
	return nil, errs.Denied("Only officials can view tickets")
}

// Get returns the ticket together with the actions the actor may take on it.
func (s *TicketService) Get(actor *Claims, id uuid.UUID) (*model.Ticket, []lifecycle.Action, error) {
	if !model.IsOfficialAccount(actor.UserType) {
		return nil, nil, errs.Denied("Only officials can view tickets")
	}
	ticket, err := s.tickets.FindByID(id)
	if err != nil {
		return nil, nil, err
	}
	actions := lifecycle.AllowedActions(EffectiveRole(actor), ticket, actor.UserID)
	return ticket, actions, nil
}

// UpdateStatus runs one vetted status transition. The ticket update, its log
// entry and the outbox event commit in a single transaction.
func (s *TicketService) UpdateStatus(actor *Claims, id uuid.UUID, req *model.UpdateTicketStatusRequest) (*model.Ticket, error) {
	role := EffectiveRole(actor)
	target := lifecycle.NormalizeStatus(strings.ToLower(strings.TrimSpace(req.Status)))

	tx, err := s.tickets.BeginTx()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	ticket, err := s.tickets.FindByIDForUpdate(tx, id)
	if err != nil {
		return nil, err
	}

	change, err := lifecycle.PlanStatusChange(role, ticket, target)
	if err != nil {
		return nil, err
	}

	now := s.now()
	previous := ticket.Status
	ticket.Status = change.To
	incidentStatus := change.To

	var action string
	var routingKey string
	switch change.Kind {
	case lifecycle.KindResolve:
		action = "ticket_resolved_by_" + string(role)
		routingKey = EventTicketStatusUpdated
		ticket.ReopenedBy = nil
		ticket.ReopenWarning = nil
	case lifecycle.KindVerify:
		action = "ticket_verified_by_" + string(role)
		routingKey = EventTicketStatusUpdated
		ticket.ReopenWarning = nil
		// The public incident stays actionable while crews keep working.
		incidentStatus = model.StatusInProgress
	case lifecycle.KindReopen:
		action = "ticket_reopened_by_department"
		routingKey = EventTicketReopened
		ticket.ProgressPercent = 0
		ticket.ProgressSummary = ""
		ticket.ProgressUpdatedAt = nil
		ticket.ReopenedBy = &model.ReopenedBy{
			ID:        actor.UserID,
			Name:      actor.Name,
			Timestamp: now,
		}
		ticket.ReopenWarning = &model.ReopenWarning{
			Message:        fmt.Sprintf("This ticket was reopened by %s. Previous resolution was rejected.", actor.Name),
			IssuedAt:       now,
			DepartmentName: actor.Name,
		}
	default:
		action = "ticket_status_updated"
		routingKey = EventTicketStatusUpdated
		ticket.ReopenWarning = nil
	}

	if err := s.tickets.SaveLifecycleTx(tx, ticket); err != nil {
		return nil, err
	}
	if err := s.incidents.UpdateStatusTx(tx, ticket.IncidentID, incidentStatus); err != nil {
		return nil, err
	}

	details := map[string]any{
		"from": string(previous),
		"to":   string(change.To),
	}
	if req.Notes != "" {
		details["notes"] = req.Notes
	}
	if err := s.appendLog(tx, ticket, actor, action, details); err != nil {
		return nil, err
	}

	event := s.ticketEvent(ticket, actor, action)
	event["previousStatus"] = string(previous)
	if err := s.outbox.CreateInTransaction(tx, routingKey, event); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.logger.Info("ticket status updated",
		zap.String("ticket_id", ticket.ID.String()),
		zap.String("from", string(previous)),
		zap.String("to", string(change.To)),
		zap.String("actor_role", string(role)),
	)

	return s.tickets.FindByID(id)
}

// Assign replaces the ticket's assignee list with the requested workers.
func (s *TicketService) Assign(actor *Claims, id uuid.UUID, req *model.AssignTicketRequest) (*model.Ticket, error) {
	role := EffectiveRole(actor)

	workerIDs := req.WorkerIDList()
	if len(workerIDs) == 0 {
		return nil, errs.Invalid("At least one worker is required")
	}

	tx, err := s.tickets.BeginTx()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	ticket, err := s.tickets.FindByIDForUpdate(tx, id)
	if err != nil {
		return nil, err
	}

	if err := lifecycle.CanAssign(role, ticket); err != nil {
		return nil, err
	}

	now := s.now()
	previousAssigned := make(map[uuid.UUID]time.Time, len(ticket.Assignees))
	for _, a := range ticket.Assignees {
		previousAssigned[a.WorkerID] = a.AssignedAt
	}

	var assignees []model.Assignee
	var names []string
	for _, raw := range workerIDs {
		workerID, err := uuid.Parse(raw)
		if err != nil {
			return nil, errs.Invalid("Invalid worker id")
		}
		worker, err := s.users.FindByID(workerID)
		if err != nil {
			return nil, errs.Invalid("Worker not found")
		}
		if worker.OfficialRole != model.RoleWorker {
			return nil, errs.Invalid("Selected user is not a worker")
		}
		assignee := model.Assignee{
			WorkerID:   worker.ID,
			Name:       worker.Name,
			AssignedAt: now,
		}
		if at, ok := previousAssigned[worker.ID]; ok {
			assignee.AssignedAt = at
		}
		if worker.Phone != nil {
			assignee.Phone = *worker.Phone
		}
		if worker.Email != nil {
			assignee.Email = *worker.Email
		}
		if worker.WorkerSpecialization != nil {
			assignee.WorkerSpecialization = *worker.WorkerSpecialization
		}
		assignees = append(assignees, assignee)
		names = append(names, worker.Name)
	}

	ticket.Assignees = assignees
	assignedTo := names[0]
	if len(names) > 1 {
		assignedTo = fmt.Sprintf("%s +%d more", names[0], len(names)-1)
	}
	ticket.AssignedTo = &assignedTo
	ticket.AssignedByID = &actor.UserID
	ticket.AssignedByName = &actor.Name
	ticket.AssignedAt = &now

	if err := s.tickets.SaveAssignmentTx(tx, ticket); err != nil {
		return nil, err
	}

	action := "worker_assigned_by_supervisor"
	if role == model.RoleDepartment {
		action = "worker_assigned_by_department"
	}

	details := map[string]any{
		"workers": names,
	}
	if req.Notes != "" {
		details["notes"] = req.Notes
	}
	if err := s.appendLog(tx, ticket, actor, action, details); err != nil {
		return nil, err
	}

	event := s.ticketEvent(ticket, actor, action)
	event["workerIds"] = workerIDs
	if err := s.outbox.CreateInTransaction(tx, EventTicketAssigned, event); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.logger.Info("ticket assigned",
		zap.String("ticket_id", ticket.ID.String()),
		zap.Int("worker_count", len(assignees)),
	)

	return s.tickets.FindByID(id)
}

// ProgressUpdate records a field update from a worker or inspector, advancing
// the heuristic completion percentage and auto-moving fresh tickets into
// in_progress.
func (s *TicketService) ProgressUpdate(actor *Claims, id uuid.UUID, req *model.ProgressUpdateRequest) (*model.Ticket, error) {
	role := EffectiveRole(actor)
	text := strings.TrimSpace(req.UpdateText)
	if len(text) < 5 {
		return nil, errs.Invalid("Progress update must be at least 5 characters")
	}

	tx, err := s.tickets.BeginTx()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	ticket, err := s.tickets.FindByIDForUpdate(tx, id)
	if err != nil {
		return nil, err
	}

	if err := lifecycle.CanProgressUpdate(role, ticket, actor.UserID); err != nil {
		return nil, err
	}

	now := s.now()
	if role == model.RoleFieldInspector && ticket.FieldInspectorID == nil {
		ticket.FieldInspectorID = &actor.UserID
		ticket.FieldInspectorName = &actor.Name
	}

	ticket.ProgressPercent = EstimateProgress(text, ticket.ProgressPercent)
	ticket.ProgressSummary = text
	ticket.ProgressUpdatedAt = &now
	if role == model.RoleFieldInspector {
		ticket.LastInspectorUpdateAt = &now
	} else {
		ticket.LastWorkerUpdateAt = &now
	}
	if ticket.Status == model.StatusOpen || ticket.Status == model.StatusPending {
		ticket.Status = model.StatusInProgress
	}

	if err := s.tickets.SaveProgressTx(tx, ticket); err != nil {
		return nil, err
	}
	if err := s.incidents.UpdateStatusTx(tx, ticket.IncidentID, ticket.Status); err != nil {
		return nil, err
	}

	action := "worker_progress_update"
	if role == model.RoleFieldInspector {
		action = "field_inspector_progress_update"
	}
	details := map[string]any{
		"updateText":      text,
		"progressPercent": ticket.ProgressPercent,
	}
	if err := s.appendLog(tx, ticket, actor, action, details); err != nil {
		return nil, err
	}

	event := s.ticketEvent(ticket, actor, action)
	event["progressPercent"] = ticket.ProgressPercent
	if err := s.outbox.CreateInTransaction(tx, EventTicketProgressUpdated, event); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return s.tickets.FindByID(id)
}

// Logbook returns the ticket's audit trail. Department eyes only.
func (s *TicketService) Logbook(actor *Claims, id uuid.UUID) ([]model.LogEntry, error) {
	if EffectiveRole(actor) != model.RoleDepartment {
		return nil, errs.Denied("Only department can view the ticket logbook")
	}
	if _, err := s.tickets.FindByID(id); err != nil {
		return nil, err
	}
	return s.logs.ListByTicket(id)
}

func (s *TicketService) Stats(actor *Claims) (*model.TicketStats, error) {
	if !model.IsOfficialAccount(actor.UserType) {
		return nil, errs.Denied("Only officials can view ticket statistics")
	}
	return s.tickets.GetStats()
}

func (s *TicketService) appendLog(tx *sql.Tx, ticket *model.Ticket, actor *Claims, action string, details map[string]any) error {
	entry := &model.LogEntry{
		ID:                uuid.New(),
		TicketID:          ticket.ID,
		IncidentID:        &ticket.IncidentID,
		Action:            action,
		ActorUserID:       actor.UserID,
		ActorName:         actor.Name,
		ActorOfficialRole: EffectiveRole(actor),
		Details:           details,
		CreatedAt:         s.now(),
	}
	return s.logs.AppendTx(tx, entry)
}

func (s *TicketService) ticketEvent(ticket *model.Ticket, actor *Claims, action string) map[string]any {
	event := map[string]any{
		"messageId":  uuid.New().String(),
		"ticketId":   ticket.ID.String(),
		"incidentId": ticket.IncidentID.String(),
		"title":      ticket.Title,
		"status":     string(ticket.Status),
		"action":     action,
		"actorId":    actor.UserID.String(),
		"actorName":  actor.Name,
		"occurredAt": s.now().UTC().Format(time.RFC3339),
	}
	if ticket.ReporterID != nil {
		event["reporterId"] = ticket.ReporterID.String()
	}
	return event
}
