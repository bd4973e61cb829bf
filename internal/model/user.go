package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type UserType string

const (
	TypeCitizen        UserType = "citizen"
	TypeOfficial       UserType = "official"
	TypeHeadSupervisor UserType = "head_supervisor"
)

type OfficialRole string

const (
	RoleDepartment     OfficialRole = "department"
	RoleSupervisor     OfficialRole = "supervisor"
	RoleFieldInspector OfficialRole = "field_inspector"
	RoleWorker         OfficialRole = "worker"
)

// NormalizeOfficialRole maps free-form role text ("Field Inspector",
// "field-inspector") onto the canonical role constants. Returns "" when the
// value is not a known official role.
func NormalizeOfficialRole(value string) OfficialRole {
	normalized := strings.ToLower(strings.TrimSpace(value))
	normalized = strings.NewReplacer("-", "_", " ", "_").Replace(normalized)
	switch OfficialRole(normalized) {
	case RoleDepartment, RoleSupervisor, RoleFieldInspector, RoleWorker:
		return OfficialRole(normalized)
	}
	return ""
}

// IsOfficialAccount reports whether a user type belongs to the official side
// of the portal (officials and head supervisors share the official routes).
func IsOfficialAccount(t UserType) bool {
	return t == TypeOfficial || t == TypeHeadSupervisor
}

type User struct {
	ID                    uuid.UUID    `json:"id"`
	Name                  string       `json:"name"`
	Email                 *string      `json:"email,omitempty"`
	Phone                 *string      `json:"phone,omitempty"`
	PasswordHash          string       `json:"-"`
	UserType              UserType     `json:"userType"`
	OfficialRole          OfficialRole `json:"officialRole,omitempty"`
	Department            *string      `json:"department,omitempty"`
	WorkerSpecialization  *string      `json:"workerSpecialization,omitempty"`
	Address               *string      `json:"address,omitempty"`
	Pincode               *string      `json:"pincode,omitempty"`
	TwoFactorEnabled      bool         `json:"twoFactorEnabled"`
	EmailVerified         bool         `json:"emailVerified"`
	CreatedByDepartmentID *uuid.UUID   `json:"createdByDepartmentId,omitempty"`
	CreatedAt             time.Time    `json:"createdAt"`
	UpdatedAt             time.Time    `json:"updatedAt"`
}

// Identifier returns the best human-readable handle for the user.
func (u *User) Identifier() string {
	if u.Name != "" {
		return u.Name
	}
	if u.Email != nil && *u.Email != "" {
		return *u.Email
	}
	if u.Phone != nil && *u.Phone != "" {
		return *u.Phone
	}
	return u.ID.String()
}

type RegisterRequest struct {
	Name                 string `json:"name" binding:"required"`
	Email                string `json:"email"`
	Phone                string `json:"phone"`
	Password             string `json:"password" binding:"required,min=6"`
	UserType             string `json:"userType" binding:"required"`
	Address              string `json:"address"`
	Pincode              string `json:"pincode"`
	OfficialRole         string `json:"officialRole"`
	WorkerSpecialization string `json:"workerSpecialization"`
}

type LoginRequest struct {
	Email                string `json:"email"`
	Phone                string `json:"phone"`
	Password             string `json:"password" binding:"required"`
	ExpectedUserType     string `json:"expectedUserType"`
	ExpectedOfficialRole string `json:"expectedOfficialRole"`
}

type UpdateProfileRequest struct {
	Name    *string `json:"name"`
	Phone   *string `json:"phone"`
	Email   *string `json:"email"`
	Address *string `json:"address"`
	Pincode *string `json:"pincode"`
}

type CreateManagedOfficialRequest struct {
	Name         string `json:"name" binding:"required"`
	Email        string `json:"email" binding:"required"`
	Phone        string `json:"phone"`
	Password     string `json:"password" binding:"required,min=6"`
	OfficialRole string `json:"officialRole" binding:"required"`
	Address      string `json:"address"`
	Pincode      string `json:"pincode"`
}

// WorkerSummary is the trimmed worker listing the supervisor assignment view
// consumes.
type WorkerSummary struct {
	ID                   uuid.UUID `json:"id"`
	Name                 string    `json:"name"`
	Phone                *string   `json:"phone,omitempty"`
	Email                *string   `json:"email,omitempty"`
	OfficialRole         string    `json:"officialRole"`
	WorkerSpecialization string    `json:"workerSpecialization"`
}

type ManagedOfficialSummary struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        *string   `json:"email,omitempty"`
	Phone        *string   `json:"phone,omitempty"`
	OfficialRole string    `json:"officialRole"`
	Department   *string   `json:"department,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}
