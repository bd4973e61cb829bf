package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sakshi-Mishra77/Smart-city-new/internal/errs"
	"github.com/Sakshi-Mishra77/Smart-city-new/internal/model"
)

type fakeProfileStore struct {
	*fakeUserStore
	managedFor *uuid.UUID
}

func (f *fakeProfileStore) UpdateProfile(id uuid.UUID, req *model.UpdateProfileRequest) error {
	u, ok := f.users[id]
	if !ok {
		return errs.ErrNotFound
	}
	if req.Name != nil {
		u.Name = *req.Name
	}
	if req.Email != nil {
		u.Email = req.Email
	}
	return nil
}

func (f *fakeProfileStore) FindWorkers() ([]model.WorkerSummary, error) {
	var out []model.WorkerSummary
	for _, u := range f.users {
		if u.UserType == model.TypeOfficial && u.OfficialRole == model.RoleWorker {
			out = append(out, model.WorkerSummary{ID: u.ID, Name: u.Name})
		}
	}
	return out, nil
}

func (f *fakeProfileStore) FindManagedOfficials(departmentID uuid.UUID) ([]model.ManagedOfficialSummary, error) {
	f.managedFor = &departmentID
	var out []model.ManagedOfficialSummary
	for _, u := range f.users {
		if u.CreatedByDepartmentID != nil && *u.CreatedByDepartmentID == departmentID {
			out = append(out, model.ManagedOfficialSummary{ID: u.ID, Name: u.Name})
		}
	}
	return out, nil
}

func TestUpdateProfileRejectsTakenEmail(t *testing.T) {
	me := citizenUser(t, "me@example.com", "pass")
	other := citizenUser(t, "taken@example.com", "pass")
	store := &fakeProfileStore{fakeUserStore: newFakeUserStore(me, other)}
	svc := NewUserService(store)

	taken := "taken@example.com"
	_, err := svc.UpdateProfile(me.ID, &model.UpdateProfileRequest{Email: &taken})
	assert.ErrorIs(t, err, errs.ErrInvalidInput)

	// Re-submitting your own email is fine.
	same := "me@example.com"
	updated, err := svc.UpdateProfile(me.ID, &model.UpdateProfileRequest{Email: &same})
	require.NoError(t, err)
	assert.Equal(t, "me@example.com", *updated.Email)
}

func TestListWorkersOfficialsOnly(t *testing.T) {
	worker := citizenUser(t, "worker@example.com", "pass")
	worker.UserType = model.TypeOfficial
	worker.OfficialRole = model.RoleWorker
	store := &fakeProfileStore{fakeUserStore: newFakeUserStore(worker)}
	svc := NewUserService(store)

	_, err := svc.ListWorkers(&Claims{UserType: model.TypeCitizen})
	assert.ErrorIs(t, err, errs.ErrAccessDenied)

	workers, err := svc.ListWorkers(&Claims{UserType: model.TypeOfficial, OfficialRole: model.RoleSupervisor})
	require.NoError(t, err)
	assert.Len(t, workers, 1)
}

func TestCreateManagedOfficial(t *testing.T) {
	store := &fakeProfileStore{fakeUserStore: newFakeUserStore()}
	svc := NewUserService(store)
	department := departmentClaims()

	// Supervisors cannot provision accounts.
	_, err := svc.CreateManagedOfficial(supervisorClaims(), &model.CreateManagedOfficialRequest{
		Name: "Ina", Email: "ina@example.com", Password: "pass-word", OfficialRole: "field_inspector",
	})
	assert.ErrorIs(t, err, errs.ErrAccessDenied)

	// Departments cannot mint more departments.
	_, err = svc.CreateManagedOfficial(department, &model.CreateManagedOfficialRequest{
		Name: "Rogue", Email: "rogue@example.com", Password: "pass-word", OfficialRole: "department",
	})
	assert.ErrorIs(t, err, errs.ErrInvalidInput)

	created, err := svc.CreateManagedOfficial(department, &model.CreateManagedOfficialRequest{
		Name: "Ina Inspector", Email: "ina@example.com", Password: "pass-word", OfficialRole: "field_inspector",
	})
	require.NoError(t, err)
	assert.Equal(t, model.RoleFieldInspector, created.OfficialRole)
	require.NotNil(t, created.CreatedByDepartmentID)
	assert.Equal(t, department.UserID, *created.CreatedByDepartmentID)

	supervisor, err := svc.CreateManagedOfficial(department, &model.CreateManagedOfficialRequest{
		Name: "Sam Supervisor", Email: "sam@example.com", Password: "pass-word", OfficialRole: "supervisor",
	})
	require.NoError(t, err)
	assert.Equal(t, model.RoleSupervisor, supervisor.OfficialRole)

	officials, err := svc.ListManagedOfficials(department)
	require.NoError(t, err)
	assert.Len(t, officials, 2)

	// Another department sees none of them.
	officials, err = svc.ListManagedOfficials(departmentClaims())
	require.NoError(t, err)
	assert.Empty(t, officials)
}
