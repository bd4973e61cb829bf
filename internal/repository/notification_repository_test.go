package repository

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sakshi-Mishra77/Smart-city-new/internal/errs"
)

func TestNotificationMarkAsReadScopedToOwner(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	notificationID := uuid.New()
	userID := uuid.New()

	// Somebody else's notification affects zero rows.
	mock.ExpectExec(`UPDATE notifications`).
		WithArgs(notificationID, userID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewNotificationRepository(db)
	err = repo.MarkAsRead(notificationID, userID)
	assert.ErrorIs(t, err, errs.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationMarkMessageProcessedIdempotent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	// ON CONFLICT DO NOTHING makes a duplicate a no-op, not an error.
	mock.ExpectExec(`INSERT INTO processed_messages`).
		WithArgs("msg-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewNotificationRepository(db)
	require.NoError(t, repo.MarkMessageProcessed("msg-1"))
}

func TestNotificationUnreadCount(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	userID := uuid.New()
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM notifications`).
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	repo := NewNotificationRepository(db)
	count, err := repo.GetUnreadCount(userID)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}
