package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/Sakshi-Mishra77/Smart-city-new/internal/errs"
	"github.com/Sakshi-Mishra77/Smart-city-new/internal/model"
)

const ticketColumns = `id, incident_id, title, description, category, status, priority,
		location, latitude, longitude, reporter_id, reporter_name, reporter_email,
		reporter_phone, assigned_to, assignees, assigned_by_id, assigned_by_name,
		assigned_at, field_inspector_id, field_inspector_name, progress_percent,
		progress_summary, progress_updated_at, last_inspector_update_at,
		last_worker_update_at, reopened_by, reopen_warning, created_at, updated_at`

type TicketRepository struct {
	db *sql.DB
}

func NewTicketRepository(db *sql.DB) *TicketRepository {
	return &TicketRepository{db: db}
}

func (r *TicketRepository) BeginTx() (*sql.Tx, error) {
	return r.db.Begin()
}

func (r *TicketRepository) Create(ticket *model.Ticket) error {
	assignees, err := json.Marshal(ticket.Assignees)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO tickets (id, incident_id, title, description, category, status, priority,
			location, latitude, longitude, reporter_id, reporter_name, reporter_email,
			reporter_phone, assignees, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`
	_, err = r.db.Exec(query,
		ticket.ID,
		ticket.IncidentID,
		ticket.Title,
		ticket.Description,
		ticket.Category,
		ticket.Status,
		ticket.Priority,
		ticket.Location,
		ticket.Latitude,
		ticket.Longitude,
		ticket.ReporterID,
		ticket.ReporterName,
		ticket.ReporterEmail,
		ticket.ReporterPhone,
		assignees,
		ticket.CreatedAt,
		ticket.UpdatedAt,
	)
	return err
}

func scanTicket(row interface{ Scan(...any) error }) (*model.Ticket, error) {
	t := &model.Ticket{}
	var priority sql.NullString
	var lat, lng sql.NullFloat64
	var reporterID, fieldInspectorID, assignedByID sql.NullString
	var reporterName, reporterEmail, reporterPhone sql.NullString
	var assignedTo, assignedByName, fieldInspectorName sql.NullString
	var assignedAt, progressUpdatedAt, lastInspectorAt, lastWorkerAt sql.NullTime
	var assignees, reopenedBy, reopenWarning []byte

	err := row.Scan(
		&t.ID,
		&t.IncidentID,
		&t.Title,
		&t.Description,
		&t.Category,
		&t.Status,
		&priority,
		&t.Location,
		&lat,
		&lng,
		&reporterID,
		&reporterName,
		&reporterEmail,
		&reporterPhone,
		&assignedTo,
		&assignees,
		&assignedByID,
		&assignedByName,
		&assignedAt,
		&fieldInspectorID,
		&fieldInspectorName,
		&t.ProgressPercent,
		&t.ProgressSummary,
		&progressUpdatedAt,
		&lastInspectorAt,
		&lastWorkerAt,
		&reopenedBy,
		&reopenWarning,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}

	if priority.Valid {
		p := model.Priority(priority.String)
		t.Priority = &p
	}
	if lat.Valid {
		t.Latitude = &lat.Float64
	}
	if lng.Valid {
		t.Longitude = &lng.Float64
	}
	if reporterID.Valid {
		if uid, err := uuid.Parse(reporterID.String); err == nil {
			t.ReporterID = &uid
		}
	}
	if reporterName.Valid {
		t.ReporterName = &reporterName.String
	}
	if reporterEmail.Valid {
		t.ReporterEmail = &reporterEmail.String
	}
	if reporterPhone.Valid {
		t.ReporterPhone = &reporterPhone.String
	}
	if assignedTo.Valid {
		t.AssignedTo = &assignedTo.String
	}
	if assignedByID.Valid {
		if uid, err := uuid.Parse(assignedByID.String); err == nil {
			t.AssignedByID = &uid
		}
	}
	if assignedByName.Valid {
		t.AssignedByName = &assignedByName.String
	}
	if assignedAt.Valid {
		t.AssignedAt = &assignedAt.Time
	}
	if fieldInspectorID.Valid {
		if uid, err := uuid.Parse(fieldInspectorID.String); err == nil {
			t.FieldInspectorID = &uid
		}
	}
	if fieldInspectorName.Valid {
		t.FieldInspectorName = &fieldInspectorName.String
	}
	if progressUpdatedAt.Valid {
		t.ProgressUpdatedAt = &progressUpdatedAt.Time
	}
	if lastInspectorAt.Valid {
		t.LastInspectorUpdateAt = &lastInspectorAt.Time
	}
	if lastWorkerAt.Valid {
		t.LastWorkerUpdateAt = &lastWorkerAt.Time
	}
	if len(assignees) > 0 {
		if err := json.Unmarshal(assignees, &t.Assignees); err != nil {
			return nil, err
		}
	}
	if len(reopenedBy) > 0 {
		if err := json.Unmarshal(reopenedBy, &t.ReopenedBy); err != nil {
			return nil, err
		}
	}
	if len(reopenWarning) > 0 {
		if err := json.Unmarshal(reopenWarning, &t.ReopenWarning); err != nil {
			return nil, err
		}
	}

	return t, nil
}

func (r *TicketRepository) FindByID(id uuid.UUID) (*model.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id = $1`
	return scanTicket(r.db.QueryRow(query, id))
}

// FindByIDForUpdate locks the ticket row for the duration of the transaction
// so concurrent transitions serialize on it.
func (r *TicketRepository) FindByIDForUpdate(tx *sql.Tx, id uuid.UUID) (*model.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id = $1 FOR UPDATE`
	return scanTicket(tx.QueryRow(query, id))
}

func (r *TicketRepository) FindAll(status string) ([]*model.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets`
	var args []interface{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`
	return r.queryTickets(query, args...)
}

// FindForWorker returns tickets where the worker appears in the assignee list.
func (r *TicketRepository) FindForWorker(workerID uuid.UUID, status string) ([]*model.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets
		WHERE assignees @> jsonb_build_array(jsonb_build_object('workerId', $1::text))`
	args := []interface{}{workerID.String()}
	if status != "" {
		args = append(args, status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += ` ORDER BY created_at DESC`
	return r.queryTickets(query, args...)
}

// FindForInspector returns the inspector's own tickets plus unclaimed active
// ones they could pick up.
func (r *TicketRepository) FindForInspector(inspectorID uuid.UUID, status string) ([]*model.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets
		WHERE (field_inspector_id = $1
			OR (field_inspector_id IS NULL AND status IN ('open', 'pending', 'in_progress')))`
	args := []interface{}{inspectorID}
	if status != "" {
		args = append(args, status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += ` ORDER BY created_at DESC`
	return r.queryTickets(query, args...)
}

func (r *TicketRepository) queryTickets(query string, args ...interface{}) ([]*model.Ticket, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickets []*model.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}

	return tickets, rows.Err()
}

// SaveLifecycleTx persists the status and reopen/progress columns a status
// transition may touch, from the in-memory ticket.
func (r *TicketRepository) SaveLifecycleTx(tx *sql.Tx, t *model.Ticket) error {
	reopenedBy, err := marshalNullable(t.ReopenedBy)
	if err != nil {
		return err
	}
	reopenWarning, err := marshalNullable(t.ReopenWarning)
	if err != nil {
		return err
	}
	query := `
		UPDATE tickets
		SET status = $2,
		    reopened_by = $3,
		    reopen_warning = $4,
		    progress_percent = $5,
		    progress_summary = $6,
		    progress_updated_at = $7,
		    updated_at = NOW()
		WHERE id = $1
	`
	result, err := tx.Exec(query, t.ID, t.Status, reopenedBy, reopenWarning,
		t.ProgressPercent, t.ProgressSummary, t.ProgressUpdatedAt)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// SaveAssignmentTx persists the assignee list and assignment metadata.
func (r *TicketRepository) SaveAssignmentTx(tx *sql.Tx, t *model.Ticket) error {
	assignees, err := json.Marshal(t.Assignees)
	if err != nil {
		return err
	}
	query := `
		UPDATE tickets
		SET status = $2,
		    assignees = $3,
		    assigned_to = $4,
		    assigned_by_id = $5,
		    assigned_by_name = $6,
		    assigned_at = $7,
		    updated_at = NOW()
		WHERE id = $1
	`
	result, err := tx.Exec(query, t.ID, t.Status, assignees,
		t.AssignedTo, t.AssignedByID, t.AssignedByName, t.AssignedAt)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// SaveProgressTx persists a progress update, including the inspector claim
// when a field inspector posts on an unclaimed ticket.
func (r *TicketRepository) SaveProgressTx(tx *sql.Tx, t *model.Ticket) error {
	query := `
		UPDATE tickets
		SET status = $2,
		    progress_percent = $3,
		    progress_summary = $4,
		    progress_updated_at = $5,
		    last_inspector_update_at = $6,
		    last_worker_update_at = $7,
		    field_inspector_id = $8,
		    field_inspector_name = $9,
		    updated_at = NOW()
		WHERE id = $1
	`
	result, err := tx.Exec(query, t.ID, t.Status, t.ProgressPercent, t.ProgressSummary,
		t.ProgressUpdatedAt, t.LastInspectorUpdateAt, t.LastWorkerUpdateAt,
		t.FieldInspectorID, t.FieldInspectorName)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (r *TicketRepository) GetStats() (*model.TicketStats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'open'),
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'in_progress'),
			COUNT(*) FILTER (WHERE status IN ('resolved', 'verified') AND updated_at >= date_trunc('day', NOW())),
			COUNT(*) FILTER (WHERE status IN ('resolved', 'verified'))
		FROM tickets
	`
	stats := &model.TicketStats{}
	var resolvedTotal int
	err := r.db.QueryRow(query).Scan(
		&stats.TotalTickets,
		&stats.OpenTickets,
		&stats.PendingTickets,
		&stats.InProgress,
		&stats.ResolvedToday,
		&resolvedTotal,
	)
	if err != nil {
		return nil, err
	}
	if stats.TotalTickets > 0 {
		stats.ResolutionRate = float64(resolvedTotal) / float64(stats.TotalTickets) * 100
	}
	return stats, nil
}

func marshalNullable(v interface{}) (interface{}, error) {
	switch value := v.(type) {
	case *model.ReopenedBy:
		if value == nil {
			return nil, nil
		}
	case *model.ReopenWarning:
		if value == nil {
			return nil, nil
		}
	}
	return json.Marshal(v)
}
