package repository

import (
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/Sakshi-Mishra77/Smart-city-new/internal/model"
)

type LogRepository struct {
	db *sql.DB
}

func NewLogRepository(db *sql.DB) *LogRepository {
	return &LogRepository{db: db}
}

// AppendTx writes the log entry inside the same transaction as the ticket
// change it records.
func (r *LogRepository) AppendTx(tx *sql.Tx, entry *model.LogEntry) error {
	details, err := json.Marshal(entry.Details)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO ticket_logs (id, ticket_id, incident_id, action, actor_user_id,
			actor_name, actor_official_role, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	var role *string
	if entry.ActorOfficialRole != "" {
		value := string(entry.ActorOfficialRole)
		role = &value
	}
	_, err = tx.Exec(query,
		entry.ID,
		entry.TicketID,
		entry.IncidentID,
		entry.Action,
		entry.ActorUserID,
		entry.ActorName,
		role,
		details,
		entry.CreatedAt,
	)
	return err
}

// ListByTicket returns the ticket's audit trail newest first.
func (r *LogRepository) ListByTicket(ticketID uuid.UUID) ([]model.LogEntry, error) {
	query := `
		SELECT id, ticket_id, incident_id, action, actor_user_id, actor_name,
			actor_official_role, details, created_at
		FROM ticket_logs
		WHERE ticket_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.LogEntry
	for rows.Next() {
		var e model.LogEntry
		var incidentID sql.NullString
		var role sql.NullString
		var details []byte

		err := rows.Scan(
			&e.ID,
			&e.TicketID,
			&incidentID,
			&e.Action,
			&e.ActorUserID,
			&e.ActorName,
			&role,
			&details,
			&e.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		if incidentID.Valid {
			if uid, err := uuid.Parse(incidentID.String); err == nil {
				e.IncidentID = &uid
			}
		}
		if role.Valid {
			e.ActorOfficialRole = model.OfficialRole(role.String)
		}
		if len(details) > 0 {
			if err := json.Unmarshal(details, &e.Details); err != nil {
				return nil, err
			}
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}
