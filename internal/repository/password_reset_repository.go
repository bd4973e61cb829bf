package repository

import (
	"database/sql"

	_ "github.com/lib/pq"

	"github.com/Sakshi-Mishra77/Smart-city-new/internal/errs"
	"github.com/Sakshi-Mishra77/Smart-city-new/internal/model"
)

type PasswordResetRepository struct {
	db *sql.DB
}

func NewPasswordResetRepository(db *sql.DB) *PasswordResetRepository {
	return &PasswordResetRepository{db: db}
}

func (r *PasswordResetRepository) Create(reset *model.PasswordReset) error {
	query := `
		INSERT INTO password_resets (token, email, used, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.Exec(query,
		reset.Token,
		reset.Email,
		reset.Used,
		reset.ExpiresAt,
		reset.CreatedAt,
	)
	return err
}

func (r *PasswordResetRepository) FindByToken(token string) (*model.PasswordReset, error) {
	query := `
		SELECT token, email, used, expires_at, created_at, used_at
		FROM password_resets WHERE token = $1
	`
	reset := &model.PasswordReset{}
	var usedAt sql.NullTime
	err := r.db.QueryRow(query, token).Scan(
		&reset.Token,
		&reset.Email,
		&reset.Used,
		&reset.ExpiresAt,
		&reset.CreatedAt,
		&usedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	if usedAt.Valid {
		reset.UsedAt = &usedAt.Time
	}
	return reset, nil
}

func (r *PasswordResetRepository) MarkUsed(token string) error {
	query := `UPDATE password_resets SET used = true, used_at = NOW() WHERE token = $1`
	result, err := r.db.Exec(query, token)
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

// InvalidateForEmail retires any outstanding reset tokens before issuing a
// fresh one.
func (r *PasswordResetRepository) InvalidateForEmail(email string) error {
	query := `UPDATE password_resets SET used = true, used_at = NOW() WHERE lower(email) = lower($1) AND used = false`
	_, err := r.db.Exec(query, email)
	return err
}
