package repository

import (
	"database/sql"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/Sakshi-Mishra77/Smart-city-new/internal/errs"
	"github.com/Sakshi-Mishra77/Smart-city-new/internal/model"
)

type NotificationRepository struct {
	db *sql.DB
}

func NewNotificationRepository(db *sql.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(notification *model.Notification) error {
	query := `
		INSERT INTO notifications (id, user_id, ticket_id, title, message, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.Exec(query,
		notification.ID,
		notification.UserID,
		notification.TicketID,
		notification.Title,
		notification.Message,
		notification.IsRead,
		notification.CreatedAt,
	)
	return err
}

func (r *NotificationRepository) GetByUserID(userID uuid.UUID) ([]model.Notification, error) {
	query := `
		SELECT id, user_id, ticket_id, title, message, is_read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT 50
	`
	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []model.Notification
	for rows.Next() {
		var n model.Notification
		var ticketID sql.NullString
		err := rows.Scan(
			&n.ID,
			&n.UserID,
			&ticketID,
			&n.Title,
			&n.Message,
			&n.IsRead,
			&n.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		if ticketID.Valid {
			uid, _ := uuid.Parse(ticketID.String)
			n.TicketID = &uid
		}
		notifications = append(notifications, n)
	}

	return notifications, rows.Err()
}

func (r *NotificationRepository) GetUnreadCount(userID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = FALSE`
	var count int
	err := r.db.QueryRow(query, userID).Scan(&count)
	return count, err
}

func (r *NotificationRepository) MarkAsRead(notificationID, userID uuid.UUID) error {
	query := `UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`
	result, err := r.db.Exec(query, notificationID, userID)
	if err != nil {
		return err
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (r *NotificationRepository) MarkAllAsRead(userID uuid.UUID) error {
	query := `UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND is_read = FALSE`
	_, err := r.db.Exec(query, userID)
	return err
}

// IsMessageProcessed checks the consumer dedup table so redelivered broker
// messages do not produce duplicate notifications.
func (r *NotificationRepository) IsMessageProcessed(messageID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM processed_messages WHERE message_id = $1)`
	var exists bool
	err := r.db.QueryRow(query, messageID).Scan(&exists)
	return exists, err
}

func (r *NotificationRepository) MarkMessageProcessed(messageID string) error {
	query := `
		INSERT INTO processed_messages (message_id, processed_at)
		VALUES ($1, NOW())
		ON CONFLICT (message_id) DO NOTHING
	`
	_, err := r.db.Exec(query, messageID)
	return err
}
