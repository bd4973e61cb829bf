package repository

import (
	"database/sql"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/Sakshi-Mishra77/Smart-city-new/internal/errs"
	"github.com/Sakshi-Mishra77/Smart-city-new/internal/model"
)

const userColumns = `id, name, email, phone, password_hash, user_type, official_role,
		department, worker_specialization, address, pincode, two_factor_enabled,
		email_verified, created_by_department_id, created_at, updated_at`

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(user *model.User) error {
	query := `
		INSERT INTO users (id, name, email, phone, password_hash, user_type, official_role,
			department, worker_specialization, address, pincode, two_factor_enabled,
			email_verified, created_by_department_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	var role *string
	if user.OfficialRole != "" {
		value := string(user.OfficialRole)
		role = &value
	}
	_, err := r.db.Exec(query,
		user.ID,
		user.Name,
		user.Email,
		user.Phone,
		user.PasswordHash,
		user.UserType,
		role,
		user.Department,
		user.WorkerSpecialization,
		user.Address,
		user.Pincode,
		user.TwoFactorEnabled,
		user.EmailVerified,
		user.CreatedByDepartmentID,
		user.CreatedAt,
		user.UpdatedAt,
	)
	return err
}

func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	user := &model.User{}
	var email, phone, role, dept, spec, address, pincode sql.NullString
	var createdBy sql.NullString

	err := row.Scan(
		&user.ID,
		&user.Name,
		&email,
		&phone,
		&user.PasswordHash,
		&user.UserType,
		&role,
		&dept,
		&spec,
		&address,
		&pincode,
		&user.TwoFactorEnabled,
		&user.EmailVerified,
		&createdBy,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}

	if email.Valid {
		user.Email = &email.String
	}
	if phone.Valid {
		user.Phone = &phone.String
	}
	if role.Valid {
		user.OfficialRole = model.OfficialRole(role.String)
	}
	if dept.Valid {
		user.Department = &dept.String
	}
	if spec.Valid {
		user.WorkerSpecialization = &spec.String
	}
	if address.Valid {
		user.Address = &address.String
	}
	if pincode.Valid {
		user.Pincode = &pincode.String
	}
	if createdBy.Valid {
		uid, err := uuid.Parse(createdBy.String)
		if err == nil {
			user.CreatedByDepartmentID = &uid
		}
	}

	return user, nil
}

func (r *UserRepository) FindByID(id uuid.UUID) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRow(query, id))
}

func (r *UserRepository) FindByEmail(email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`
	return scanUser(r.db.QueryRow(query, email))
}

func (r *UserRepository) FindByPhone(phone string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE phone = $1`
	return scanUser(r.db.QueryRow(query, phone))
}

func (r *UserRepository) EmailExists(email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE lower(email) = lower($1))`
	var exists bool
	err := r.db.QueryRow(query, email).Scan(&exists)
	return exists, err
}

func (r *UserRepository) PhoneExists(phone string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE phone = $1)`
	var exists bool
	err := r.db.QueryRow(query, phone).Scan(&exists)
	return exists, err
}

func (r *UserRepository) UpdateProfile(id uuid.UUID, req *model.UpdateProfileRequest) error {
	query := `
		UPDATE users
		SET name = COALESCE($2, name),
		    phone = COALESCE($3, phone),
		    email = COALESCE($4, email),
		    address = COALESCE($5, address),
		    pincode = COALESCE($6, pincode),
		    updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.db.Exec(query, id, req.Name, req.Phone, req.Email, req.Address, req.Pincode)
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

func (r *UserRepository) UpdatePassword(id uuid.UUID, passwordHash string) error {
	query := `UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`
	result, err := r.db.Exec(query, id, passwordHash)
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

func (r *UserRepository) UpdatePasswordByEmail(email, passwordHash string) error {
	query := `UPDATE users SET password_hash = $2, updated_at = NOW() WHERE lower(email) = lower($1)`
	result, err := r.db.Exec(query, email, passwordHash)
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

func (r *UserRepository) SetTwoFactorEnabled(id uuid.UUID, enabled bool) error {
	query := `UPDATE users SET two_factor_enabled = $2, updated_at = NOW() WHERE id = $1`
	result, err := r.db.Exec(query, id, enabled)
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

// FindWorkers returns all worker accounts, for the supervisor assignment view.
func (r *UserRepository) FindWorkers() ([]model.WorkerSummary, error) {
	query := `
		SELECT id, name, phone, email, official_role, worker_specialization
		FROM users
		WHERE user_type = 'official' AND official_role = 'worker'
		ORDER BY name ASC
	`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var workers []model.WorkerSummary
	for rows.Next() {
		var w model.WorkerSummary
		var phone, email, spec sql.NullString
		if err := rows.Scan(&w.ID, &w.Name, &phone, &email, &w.OfficialRole, &spec); err != nil {
			return nil, err
		}
		if phone.Valid {
			w.Phone = &phone.String
		}
		if email.Valid {
			w.Email = &email.String
		}
		if spec.Valid {
			w.WorkerSpecialization = spec.String
		}
		workers = append(workers, w)
	}

	return workers, rows.Err()
}

// FindManagedOfficials returns the official accounts a department officer created.
func (r *UserRepository) FindManagedOfficials(departmentID uuid.UUID) ([]model.ManagedOfficialSummary, error) {
	query := `
		SELECT id, name, email, phone, official_role, department, created_at
		FROM users
		WHERE created_by_department_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(query, departmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var officials []model.ManagedOfficialSummary
	for rows.Next() {
		var o model.ManagedOfficialSummary
		var email, phone, dept sql.NullString
		if err := rows.Scan(&o.ID, &o.Name, &email, &phone, &o.OfficialRole, &dept, &o.CreatedAt); err != nil {
			return nil, err
		}
		if email.Valid {
			o.Email = &email.String
		}
		if phone.Valid {
			o.Phone = &phone.String
		}
		if dept.Valid {
			o.Department = &dept.String
		}
		officials = append(officials, o)
	}

	return officials, rows.Err()
}
