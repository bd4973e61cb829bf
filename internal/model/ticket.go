package model

import (
	"time"

	"github.com/google/uuid"
)

// Assignee is the canonical representation of "who is assigned". Legacy
// single-worker fields on the assign request are folded into this shape at
// the handler boundary and never stored.
type Assignee struct {
	WorkerID             uuid.UUID `json:"workerId"`
	Name                 string    `json:"name"`
	Phone                string    `json:"phone,omitempty"`
	Email                string    `json:"email,omitempty"`
	WorkerSpecialization string    `json:"workerSpecialization,omitempty"`
	AssignedAt           time.Time `json:"assignedAt"`
}

// ReopenedBy records which department officer returned a resolved ticket to
// active status. Its presence marks the ticket as a reopened case.
type ReopenedBy struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Timestamp time.Time `json:"timestamp"`
}

// ReopenWarning is the banner payload downstream roles see on a reopened
// ticket until the department resolves it again.
type ReopenWarning struct {
	Message        string    `json:"message"`
	IssuedAt       time.Time `json:"issuedAt"`
	DepartmentName string    `json:"departmentName"`
}

type Ticket struct {
	ID                    uuid.UUID      `json:"id"`
	IncidentID            uuid.UUID      `json:"incidentId"`
	Title                 string         `json:"title"`
	Description           string         `json:"description"`
	Category              string         `json:"category"`
	Status                IncidentStatus `json:"status"`
	Priority              *Priority      `json:"priority,omitempty"`
	Location              string         `json:"location"`
	Latitude              *float64       `json:"latitude,omitempty"`
	Longitude             *float64       `json:"longitude,omitempty"`
	ReporterID            *uuid.UUID     `json:"reporterId,omitempty"`
	ReporterName          *string        `json:"reporterName,omitempty"`
	ReporterEmail         *string        `json:"-"`
	ReporterPhone         *string        `json:"-"`
	AssignedTo            *string        `json:"assignedTo,omitempty"`
	Assignees             []Assignee     `json:"assignees,omitempty"`
	AssignedByID          *uuid.UUID     `json:"assignedById,omitempty"`
	AssignedByName        *string        `json:"assignedByName,omitempty"`
	AssignedAt            *time.Time     `json:"assignedAt,omitempty"`
	FieldInspectorID      *uuid.UUID     `json:"fieldInspectorId,omitempty"`
	FieldInspectorName    *string        `json:"fieldInspectorName,omitempty"`
	ProgressPercent       int            `json:"progressPercent"`
	ProgressSummary       string         `json:"progressSummary,omitempty"`
	ProgressUpdatedAt     *time.Time     `json:"progressUpdatedAt,omitempty"`
	LastInspectorUpdateAt *time.Time     `json:"lastInspectorUpdateAt,omitempty"`
	LastWorkerUpdateAt    *time.Time     `json:"lastWorkerUpdateAt,omitempty"`
	ReopenedBy            *ReopenedBy    `json:"reopenedBy,omitempty"`
	ReopenWarning         *ReopenWarning `json:"reopenWarning,omitempty"`
	CreatedAt             time.Time      `json:"createdAt"`
	UpdatedAt             time.Time      `json:"updatedAt"`
}

// IsReopenedCase reports whether the ticket carries reopen metadata, which
// switches resolve/verify/assign rights over to the department.
func (t *Ticket) IsReopenedCase() bool {
	return t.ReopenedBy != nil || t.ReopenWarning != nil
}

// HasAssignee reports whether the given user is among the ticket's assignees.
func (t *Ticket) HasAssignee(userID uuid.UUID) bool {
	for _, a := range t.Assignees {
		if a.WorkerID == userID {
			return true
		}
	}
	return false
}

type UpdateTicketStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Notes  string `json:"notes"`
}

type AssignTicketRequest struct {
	WorkerID  string   `json:"workerId"`
	WorkerIDs []string `json:"workerIds"`
	Notes     string   `json:"notes"`
}

// WorkerIDList merges the legacy single-worker field with the list form,
// preserving order and dropping duplicates and blanks.
func (r *AssignTicketRequest) WorkerIDList() []string {
	seen := make(map[string]bool)
	var ordered []string
	appendID := func(value string) {
		if value == "" || seen[value] {
			return
		}
		seen[value] = true
		ordered = append(ordered, value)
	}
	appendID(r.WorkerID)
	for _, id := range r.WorkerIDs {
		appendID(id)
	}
	return ordered
}

type ProgressUpdateRequest struct {
	UpdateText string `json:"updateText" binding:"required"`
}

type TicketStats struct {
	TotalTickets   int     `json:"totalTickets"`
	OpenTickets    int     `json:"openTickets"`
	PendingTickets int     `json:"pendingTickets"`
	InProgress     int     `json:"inProgress"`
	ResolvedToday  int     `json:"resolvedToday"`
	ResolutionRate float64 `json:"resolutionRate"`
}

// LogEntry is an immutable audit record, one per state-changing ticket action.
type LogEntry struct {
	ID                uuid.UUID      `json:"id"`
	TicketID          uuid.UUID      `json:"ticketId"`
	IncidentID        *uuid.UUID     `json:"incidentId,omitempty"`
	Action            string         `json:"action"`
	ActorUserID       uuid.UUID      `json:"actorUserId"`
	ActorName         string         `json:"actorName"`
	ActorOfficialRole OfficialRole   `json:"actorOfficialRole,omitempty"`
	Details           map[string]any `json:"details,omitempty"`
	CreatedAt         time.Time      `json:"createdAt"`
}

type Notification struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	TicketID  *uuid.UUID `json:"ticket_id,omitempty"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	IsRead    bool       `json:"is_read"`
	CreatedAt time.Time  `json:"created_at"`
}

type NotificationList struct {
	Notifications []Notification `json:"notifications"`
	UnreadCount   int            `json:"unread_count"`
}
