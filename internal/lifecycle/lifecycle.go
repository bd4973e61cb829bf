// Package lifecycle is the ticket state machine: pure rules mapping
// (ticket state, actor role, action) to allowed/denied, shared by every
// handler that mutates a ticket. The backend is the single authority for
// these rules; clients only mirror them to decide which buttons to show.
package lifecycle

import (
	"github.com/google/uuid"

	"github.com/Sakshi-Mishra77/Smart-city-new/internal/model"
)

type Action string

const (
	ActionAssign         Action = "assign"
	ActionProgressUpdate Action = "progress_update"
	ActionResolve        Action = "resolve"
	ActionVerify         Action = "verify"
	ActionReopen         Action = "reopen"
)

// ChangeKind classifies a requested status change so callers can pick the
// matching side effects (log action, reopen metadata, warning clearing).
type ChangeKind string

const (
	KindResolve ChangeKind = "resolve"
	KindVerify  ChangeKind = "verify"
	KindReopen  ChangeKind = "reopen"
	KindPlain   ChangeKind = "plain"
)

// RuleError is a denied transition. Its message is surfaced verbatim to the
// caller.
type RuleError struct {
	Message string
}

func (e *RuleError) Error() string { return e.Message }

func deny(message string) error { return &RuleError{Message: message} }

// Denial messages. Handlers return these with a 403.
const (
	msgRejectedClosed      = "Rejected tickets cannot be modified"
	msgResolveRole         = "Only department or supervisor can mark tickets resolved"
	msgResolveReopened     = "Supervisor can only resolve new (not reopened) tickets"
	msgResolveVerified     = "Only department can resolve a verified ticket"
	msgAlreadyResolved     = "Ticket is already resolved"
	msgReopenRole          = "Only department can reopen resolved tickets"
	msgReopenNotResolved   = "Only resolved tickets can be reopened"
	msgVerifyRole          = "Only supervisor can verify tickets. Department can verify reopened tickets only"
	msgVerifyNoAssignee    = "Ticket must have at least one assigned worker before verification"
	msgAlreadyVerified     = "Ticket is already verified"
	msgVerifyResolved      = "Resolved tickets cannot be verified"
	msgPlainStatusRole     = "Only department or supervisor can set this status"
	msgAssignRole          = "Only supervisor can assign workers. Department can assign on reopened tickets only"
	msgAssignLocked        = "Worker assignment is locked once a ticket is verified or resolved"
	msgProgressRole        = "Only field inspectors and workers can submit progress updates"
	msgProgressNotAssigned = "Ticket is not assigned to you"
	msgProgressResolved    = "Resolved tickets cannot receive progress updates"
)

// CanAssign reports whether role may (re)assign workers on the ticket.
// Supervisors assign freely until the ticket is verified or resolved; after
// that only a department reopen unlocks assignment, and on a reopened case
// assignment belongs to the department.
func CanAssign(role model.OfficialRole, t *model.Ticket) error {
	if t.Status == model.StatusRejected {
		return deny(msgRejectedClosed)
	}
	switch role {
	case model.RoleSupervisor:
		if t.Status == model.StatusVerified || t.Status == model.StatusResolved {
			return deny(msgAssignLocked)
		}
		return nil
	case model.RoleDepartment:
		if !t.IsReopenedCase() {
			return deny(msgAssignRole)
		}
		if t.Status == model.StatusVerified || t.Status == model.StatusResolved {
			return deny(msgAssignLocked)
		}
		return nil
	}
	return deny(msgAssignRole)
}

// CanResolve: department may resolve any non-resolved ticket; a supervisor
// only a ticket that is neither reopened nor already verified.
func CanResolve(role model.OfficialRole, t *model.Ticket) error {
	if t.Status == model.StatusRejected {
		return deny(msgRejectedClosed)
	}
	if t.Status == model.StatusResolved {
		return deny(msgAlreadyResolved)
	}
	switch role {
	case model.RoleDepartment:
		return nil
	case model.RoleSupervisor:
		if t.IsReopenedCase() {
			return deny(msgResolveReopened)
		}
		if t.Status == model.StatusVerified {
			return deny(msgResolveVerified)
		}
		return nil
	}
	return deny(msgResolveRole)
}

// CanVerify: supervisor verifies in the normal flow; once a case is reopened
// by the department, verification is the department's exclusive right until
// it resolves the ticket again. A ticket needs at least one assignee.
func CanVerify(role model.OfficialRole, t *model.Ticket) error {
	if t.Status == model.StatusRejected {
		return deny(msgRejectedClosed)
	}
	if t.Status == model.StatusResolved {
		return deny(msgVerifyResolved)
	}
	if t.Status == model.StatusVerified {
		return deny(msgAlreadyVerified)
	}
	reopened := t.IsReopenedCase()
	allowed := (role == model.RoleSupervisor && !reopened) ||
		(role == model.RoleDepartment && reopened)
	if !allowed {
		return deny(msgVerifyRole)
	}
	if len(t.Assignees) == 0 {
		return deny(msgVerifyNoAssignee)
	}
	return nil
}

// CanReopen: only the department, and only from resolved.
func CanReopen(role model.OfficialRole, t *model.Ticket) error {
	if t.Status == model.StatusRejected {
		return deny(msgRejectedClosed)
	}
	if role != model.RoleDepartment {
		return deny(msgReopenRole)
	}
	if t.Status != model.StatusResolved {
		return deny(msgReopenNotResolved)
	}
	return nil
}

// CanProgressUpdate: field inspectors and workers only. A worker must be on
// the assignee list; an inspector may claim an unclaimed ticket or update one
// already theirs. Resolved and rejected tickets are closed to updates.
func CanProgressUpdate(role model.OfficialRole, t *model.Ticket, actorID uuid.UUID) error {
	if t.Status == model.StatusRejected {
		return deny(msgRejectedClosed)
	}
	if t.Status == model.StatusResolved {
		return deny(msgProgressResolved)
	}
	switch role {
	case model.RoleWorker:
		if !t.HasAssignee(actorID) {
			return deny(msgProgressNotAssigned)
		}
		return nil
	case model.RoleFieldInspector:
		if t.FieldInspectorID != nil && *t.FieldInspectorID != actorID {
			return deny(msgProgressNotAssigned)
		}
		return nil
	}
	return deny(msgProgressRole)
}

// StatusChange is a vetted status transition.
type StatusChange struct {
	Kind ChangeKind
	To   model.IncidentStatus
}

// PlanStatusChange validates a requested target status against the rule
// table and classifies it. "rejected" is never reachable through the ticket
// API; it is set only by incident intake moderation.
func PlanStatusChange(role model.OfficialRole, t *model.Ticket, target model.IncidentStatus) (StatusChange, error) {
	switch target {
	case model.StatusResolved:
		if err := CanResolve(role, t); err != nil {
			return StatusChange{}, err
		}
		return StatusChange{Kind: KindResolve, To: target}, nil
	case model.StatusVerified:
		if err := CanVerify(role, t); err != nil {
			return StatusChange{}, err
		}
		return StatusChange{Kind: KindVerify, To: target}, nil
	case model.StatusOpen:
		if t.Status == model.StatusResolved {
			if err := CanReopen(role, t); err != nil {
				return StatusChange{}, err
			}
			return StatusChange{Kind: KindReopen, To: target}, nil
		}
		fallthrough
	case model.StatusPending, model.StatusInProgress:
		if t.Status == model.StatusRejected {
			return StatusChange{}, deny(msgRejectedClosed)
		}
		if role != model.RoleDepartment && role != model.RoleSupervisor {
			return StatusChange{}, deny(msgPlainStatusRole)
		}
		return StatusChange{Kind: KindPlain, To: target}, nil
	}
	return StatusChange{}, deny("Invalid status")
}

// AllowedActions returns exactly the actions the rule table permits for this
// role on this ticket, in stable order.
func AllowedActions(role model.OfficialRole, t *model.Ticket, actorID uuid.UUID) []Action {
	var actions []Action
	if CanAssign(role, t) == nil {
		actions = append(actions, ActionAssign)
	}
	if CanProgressUpdate(role, t, actorID) == nil {
		actions = append(actions, ActionProgressUpdate)
	}
	if CanResolve(role, t) == nil {
		actions = append(actions, ActionResolve)
	}
	if CanVerify(role, t) == nil {
		actions = append(actions, ActionVerify)
	}
	if CanReopen(role, t) == nil {
		actions = append(actions, ActionReopen)
	}
	return actions
}

// NormalizeStatus folds legacy aliases onto the canonical status set.
func NormalizeStatus(value string) model.IncidentStatus {
	switch value {
	case "pending_review", "under_review":
		return model.StatusPending
	}
	return model.IncidentStatus(value)
}
