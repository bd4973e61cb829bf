package service

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Sakshi-Mishra77/Smart-city-new/internal/errs"
	"github.com/Sakshi-Mishra77/Smart-city-new/internal/model"
)

type profileStore interface {
	Create(user *model.User) error
	FindByID(id uuid.UUID) (*model.User, error)
	EmailExists(email string) (bool, error)
	PhoneExists(phone string) (bool, error)
	UpdateProfile(id uuid.UUID, req *model.UpdateProfileRequest) error
	FindWorkers() ([]model.WorkerSummary, error)
	FindManagedOfficials(departmentID uuid.UUID) ([]model.ManagedOfficialSummary, error)
}

type UserService struct {
	users profileStore
}

func NewUserService(users profileStore) *UserService {
	return &UserService{users: users}
}

func (s *UserService) GetProfile(userID uuid.UUID) (*model.User, error) {
	return s.users.FindByID(userID)
}

func (s *UserService) UpdateProfile(userID uuid.UUID, req *model.UpdateProfileRequest) (*model.User, error) {
	if req.Email != nil && *req.Email != "" {
		exists, err := s.users.EmailExists(*req.Email)
		if err != nil {
			return nil, err
		}
		current, err := s.users.FindByID(userID)
		if err != nil {
			return nil, err
		}
		if exists && (current.Email == nil || *current.Email != *req.Email) {
			return nil, errs.Invalid("Email already registered")
		}
	}
	if err := s.users.UpdateProfile(userID, req); err != nil {
		return nil, err
	}
	return s.users.FindByID(userID)
}

// ListWorkers returns the worker pool for the supervisor assignment picker.
func (s *UserService) ListWorkers(actor *Claims) ([]model.WorkerSummary, error) {
	if !model.IsOfficialAccount(actor.UserType) {
		return nil, errs.Denied("Only officials can list workers")
	}
	workers, err := s.users.FindWorkers()
	if err != nil {
		return nil, err
	}
	if workers == nil {
		workers = []model.WorkerSummary{}
	}
	return workers, nil
}

// CreateManagedOfficial lets a department officer provision supervisor and
// inspector accounts under its wing.
func (s *UserService) CreateManagedOfficial(actor *Claims, req *model.CreateManagedOfficialRequest) (*model.User, error) {
	if EffectiveRole(actor) != model.RoleDepartment {
		return nil, errs.Denied("Only department can create official accounts")
	}

	role := model.NormalizeOfficialRole(req.OfficialRole)
	if role != model.RoleSupervisor && role != model.RoleFieldInspector {
		return nil, errs.Invalid("Department can only create supervisor and field inspector accounts")
	}

	exists, err := s.users.EmailExists(req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errs.Invalid("Email already registered")
	}
	if req.Phone != "" {
		exists, err := s.users.PhoneExists(req.Phone)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, errs.Invalid("Phone already registered")
		}
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &model.User{
		ID:                    uuid.New(),
		Name:                  req.Name,
		Email:                 &req.Email,
		PasswordHash:          string(hashedPassword),
		UserType:              model.TypeOfficial,
		OfficialRole:          role,
		CreatedByDepartmentID: &actor.UserID,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if req.Phone != "" {
		user.Phone = &req.Phone
	}
	if req.Address != "" {
		user.Address = &req.Address
	}
	if req.Pincode != "" {
		user.Pincode = &req.Pincode
	}

	if err := s.users.Create(user); err != nil {
		return nil, err
	}
	return user, nil
}

// ListManagedOfficials returns the accounts the department officer created.
func (s *UserService) ListManagedOfficials(actor *Claims) ([]model.ManagedOfficialSummary, error) {
	if EffectiveRole(actor) != model.RoleDepartment {
		return nil, errs.Denied("Only department can list managed officials")
	}
	officials, err := s.users.FindManagedOfficials(actor.UserID)
	if err != nil {
		return nil, err
	}
	if officials == nil {
		officials = []model.ManagedOfficialSummary{}
	}
	return officials, nil
}
