package repository

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sakshi-Mishra77/Smart-city-new/internal/errs"
	"github.com/Sakshi-Mishra77/Smart-city-new/internal/model"
)

var userCols = []string{
	"id", "name", "email", "phone", "password_hash", "user_type", "official_role",
	"department", "worker_specialization", "address", "pincode", "two_factor_enabled",
	"email_verified", "created_by_department_id", "created_at", "updated_at",
}

func userRow(id uuid.UUID, now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows(userCols).AddRow(
		id, "Wawan Worker", "wawan@example.com", "+628111111111", "hash",
		"official", "worker", nil, "electrical", nil, nil, false, false, nil, now, now,
	)
}

func TestUserRepositoryFindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	id := uuid.New()
	now := time.Now()
	mock.ExpectQuery(`SELECT (.+) FROM users WHERE id = \$1`).
		WithArgs(id).
		WillReturnRows(userRow(id, now))

	repo := NewUserRepository(db)
	user, err := repo.FindByID(id)
	require.NoError(t, err)

	assert.Equal(t, id, user.ID)
	assert.Equal(t, model.TypeOfficial, user.UserType)
	assert.Equal(t, model.RoleWorker, user.OfficialRole)
	require.NotNil(t, user.WorkerSpecialization)
	assert.Equal(t, "electrical", *user.WorkerSpecialization)
	assert.Nil(t, user.Department)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryFindByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT (.+) FROM users WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows(userCols))

	repo := NewUserRepository(db)
	_, err = repo.FindByID(uuid.New())
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestUserRepositoryEmailExists(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("wawan@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	repo := NewUserRepository(db)
	exists, err := repo.EmailExists("wawan@example.com")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestUserRepositoryUpdatePasswordNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`UPDATE users SET password_hash`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewUserRepository(db)
	err = repo.UpdatePassword(uuid.New(), "newhash")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}
