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

const incidentColumns = `id, title, description, category, status, priority, location,
		latitude, longitude, images, reported_by, reporter_id, reporter_email,
		reporter_phone, ticket_id, created_at, updated_at`

type IncidentRepository struct {
	db *sql.DB
}

func NewIncidentRepository(db *sql.DB) *IncidentRepository {
	return &IncidentRepository{db: db}
}

func (r *IncidentRepository) Create(incident *model.Incident) error {
	images, err := json.Marshal(incident.Images)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO incidents (id, title, description, category, status, priority, location,
			latitude, longitude, images, reported_by, reporter_id, reporter_email,
			reporter_phone, ticket_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`
	_, err = r.db.Exec(query,
		incident.ID,
		incident.Title,
		incident.Description,
		incident.Category,
		incident.Status,
		incident.Priority,
		incident.Location,
		incident.Latitude,
		incident.Longitude,
		images,
		incident.ReportedBy,
		incident.ReporterID,
		incident.ReporterEmail,
		incident.ReporterPhone,
		incident.TicketID,
		incident.CreatedAt,
		incident.UpdatedAt,
	)
	return err
}

func scanIncident(row interface{ Scan(...any) error }) (*model.Incident, error) {
	incident := &model.Incident{}
	var priority, email, phone sql.NullString
	var lat, lng sql.NullFloat64
	var reporterID, ticketID sql.NullString
	var images []byte

	err := row.Scan(
		&incident.ID,
		&incident.Title,
		&incident.Description,
		&incident.Category,
		&incident.Status,
		&priority,
		&incident.Location,
		&lat,
		&lng,
		&images,
		&incident.ReportedBy,
		&reporterID,
		&email,
		&phone,
		&ticketID,
		&incident.CreatedAt,
		&incident.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}

	if priority.Valid {
		p := model.Priority(priority.String)
		incident.Priority = &p
	}
	if lat.Valid {
		incident.Latitude = &lat.Float64
	}
	if lng.Valid {
		incident.Longitude = &lng.Float64
	}
	if email.Valid {
		incident.ReporterEmail = &email.String
	}
	if phone.Valid {
		incident.ReporterPhone = &phone.String
	}
	if reporterID.Valid {
		if uid, err := uuid.Parse(reporterID.String); err == nil {
			incident.ReporterID = &uid
		}
	}
	if ticketID.Valid {
		if uid, err := uuid.Parse(ticketID.String); err == nil {
			incident.TicketID = &uid
		}
	}
	if len(images) > 0 {
		if err := json.Unmarshal(images, &incident.Images); err != nil {
			return nil, err
		}
	}

	return incident, nil
}

func (r *IncidentRepository) FindByID(id uuid.UUID) (*model.Incident, error) {
	query := `SELECT ` + incidentColumns + ` FROM incidents WHERE id = $1`
	return scanIncident(r.db.QueryRow(query, id))
}

// FindAll returns incidents newest first, optionally filtered by status,
// category or reporter.
func (r *IncidentRepository) FindAll(status, category string, reporterID *uuid.UUID) ([]*model.Incident, error) {
	query := `SELECT ` + incidentColumns + ` FROM incidents WHERE 1=1`
	var args []interface{}

	if status != "" {
		args = append(args, status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if category != "" {
		args = append(args, category)
		query += fmt.Sprintf(" AND category = $%d", len(args))
	}
	if reporterID != nil {
		args = append(args, *reporterID)
		query += fmt.Sprintf(" AND reporter_id = $%d", len(args))
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var incidents []*model.Incident
	for rows.Next() {
		incident, err := scanIncident(rows)
		if err != nil {
			return nil, err
		}
		incidents = append(incidents, incident)
	}

	return incidents, rows.Err()
}

func (r *IncidentRepository) Update(id uuid.UUID, req *model.UpdateIncidentRequest) error {
	query := `
		UPDATE incidents
		SET title = COALESCE($2, title),
		    description = COALESCE($3, description),
		    category = COALESCE($4, category),
		    status = COALESCE($5, status),
		    priority = COALESCE($6, priority),
		    location = COALESCE($7, location),
		    latitude = COALESCE($8, latitude),
		    longitude = COALESCE($9, longitude),
		    updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.db.Exec(query, id,
		req.Title, req.Description, req.Category, req.Status,
		req.Priority, req.Location, req.Latitude, req.Longitude)
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

func (r *IncidentRepository) UpdateStatus(id uuid.UUID, status model.IncidentStatus) error {
	query := `UPDATE incidents SET status = $2, updated_at = NOW() WHERE id = $1`
	result, err := r.db.Exec(query, id, status)
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

func (r *IncidentRepository) UpdateStatusTx(tx *sql.Tx, id uuid.UUID, status model.IncidentStatus) error {
	query := `UPDATE incidents SET status = $2, updated_at = NOW() WHERE id = $1`
	_, err := tx.Exec(query, id, status)
	return err
}

func (r *IncidentRepository) SetTicketID(id, ticketID uuid.UUID) error {
	query := `UPDATE incidents SET ticket_id = $2, updated_at = NOW() WHERE id = $1`
	_, err := r.db.Exec(query, id, ticketID)
	return err
}

func (r *IncidentRepository) Delete(id uuid.UUID) error {
	query := `DELETE FROM incidents WHERE id = $1`
	result, err := r.db.Exec(query, id)
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

func (r *IncidentRepository) GetStats(reporterID *uuid.UUID) (*model.IncidentStats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'open'),
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'in_progress'),
			COUNT(*) FILTER (WHERE status IN ('resolved', 'verified'))
		FROM incidents
	`
	var args []interface{}
	if reporterID != nil {
		query += ` WHERE reporter_id = $1`
		args = append(args, *reporterID)
	}

	stats := &model.IncidentStats{}
	err := r.db.QueryRow(query, args...).Scan(
		&stats.Total,
		&stats.Open,
		&stats.Pending,
		&stats.InProgress,
		&stats.Resolved,
	)
	if err != nil {
		return nil, err
	}
	return stats, nil
}
