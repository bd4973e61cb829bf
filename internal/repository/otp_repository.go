package repository

import (
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/Sakshi-Mishra77/Smart-city-new/internal/errs"
	"github.com/Sakshi-Mishra77/Smart-city-new/internal/model"
)

type OtpRepository struct {
	db *sql.DB
}

func NewOtpRepository(db *sql.DB) *OtpRepository {
	return &OtpRepository{db: db}
}

func (r *OtpRepository) Create(challenge *model.OtpChallenge) error {
	channels, err := json.Marshal(challenge.Channels)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO otp_challenges (id, user_id, purpose, otp_hash, attempts, used,
			channels, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = r.db.Exec(query,
		challenge.ID,
		challenge.UserID,
		challenge.Purpose,
		challenge.OtpHash,
		challenge.Attempts,
		challenge.Used,
		channels,
		challenge.CreatedAt,
		challenge.ExpiresAt,
	)
	return err
}

func scanChallenge(row interface{ Scan(...any) error }) (*model.OtpChallenge, error) {
	c := &model.OtpChallenge{}
	var channels []byte
	err := row.Scan(
		&c.ID,
		&c.UserID,
		&c.Purpose,
		&c.OtpHash,
		&c.Attempts,
		&c.Used,
		&channels,
		&c.CreatedAt,
		&c.ExpiresAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	if len(channels) > 0 {
		if err := json.Unmarshal(channels, &c.Channels); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (r *OtpRepository) FindByID(id string) (*model.OtpChallenge, error) {
	query := `
		SELECT id, user_id, purpose, otp_hash, attempts, used, channels, created_at, expires_at
		FROM otp_challenges WHERE id = $1
	`
	return scanChallenge(r.db.QueryRow(query, id))
}

// LatestActive returns the newest unused, unexpired challenge for the user
// and purpose, for resend throttling.
func (r *OtpRepository) LatestActive(userID uuid.UUID, purpose string) (*model.OtpChallenge, error) {
	query := `
		SELECT id, user_id, purpose, otp_hash, attempts, used, channels, created_at, expires_at
		FROM otp_challenges
		WHERE user_id = $1 AND purpose = $2 AND used = false AND expires_at > NOW()
		ORDER BY created_at DESC
		LIMIT 1
	`
	return scanChallenge(r.db.QueryRow(query, userID, purpose))
}

// InvalidateActive marks every outstanding challenge for the user and purpose
// as used, so a new challenge supersedes them.
func (r *OtpRepository) InvalidateActive(userID uuid.UUID, purpose string) error {
	query := `
		UPDATE otp_challenges SET used = true
		WHERE user_id = $1 AND purpose = $2 AND used = false
	`
	_, err := r.db.Exec(query, userID, purpose)
	return err
}

func (r *OtpRepository) IncrementAttempts(id string) (int, error) {
	query := `
		UPDATE otp_challenges SET attempts = attempts + 1
		WHERE id = $1
		RETURNING attempts
	`
	var attempts int
	err := r.db.QueryRow(query, id).Scan(&attempts)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, errs.ErrNotFound
		}
		return 0, err
	}
	return attempts, nil
}

func (r *OtpRepository) MarkUsed(id string) error {
	query := `UPDATE otp_challenges SET used = true WHERE id = $1`
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

// DeleteExpired removes challenges past expiry, run periodically.
func (r *OtpRepository) DeleteExpired() (int64, error) {
	query := `DELETE FROM otp_challenges WHERE expires_at < NOW()`
	result, err := r.db.Exec(query)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
