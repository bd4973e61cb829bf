package service

import (
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Sakshi-Mishra77/Smart-city-new/internal/errs"
	"github.com/Sakshi-Mishra77/Smart-city-new/internal/lifecycle"
	"github.com/Sakshi-Mishra77/Smart-city-new/internal/model"
)

// fakeTicketStore keeps one ticket in memory and hands out real *sql.Tx
// handles backed by sqlmock so commit/rollback behaviour is observable.
type fakeTicketStore struct {
	db     *sql.DB
	ticket *model.Ticket

	savedLifecycle *model.Ticket
	savedAssign    *model.Ticket
	savedProgress  *model.Ticket
}

func (f *fakeTicketStore) BeginTx() (*sql.Tx, error) { return f.db.Begin() }

func (f *fakeTicketStore) FindByID(id uuid.UUID) (*model.Ticket, error) {
	if f.ticket == nil || f.ticket.ID != id {
		return nil, errs.ErrNotFound
	}
	cp := *f.ticket
	return &cp, nil
}

func (f *fakeTicketStore) FindByIDForUpdate(tx *sql.Tx, id uuid.UUID) (*model.Ticket, error) {
	return f.FindByID(id)
}

func (f *fakeTicketStore) FindAll(status string) ([]*model.Ticket, error) {
	return []*model.Ticket{f.ticket}, nil
}

func (f *fakeTicketStore) FindForWorker(workerID uuid.UUID, status string) ([]*model.Ticket, error) {
	for _, a := range f.ticket.Assignees {
		if a.WorkerID == workerID {
			return []*model.Ticket{f.ticket}, nil
		}
	}
	return nil, nil
}

func (f *fakeTicketStore) FindForInspector(inspectorID uuid.UUID, status string) ([]*model.Ticket, error) {
	return []*model.Ticket{f.ticket}, nil
}

func (f *fakeTicketStore) SaveLifecycleTx(tx *sql.Tx, t *model.Ticket) error {
	cp := *t
	f.savedLifecycle = &cp
	f.ticket = t
	return nil
}

func (f *fakeTicketStore) SaveAssignmentTx(tx *sql.Tx, t *model.Ticket) error {
	cp := *t
	f.savedAssign = &cp
	f.ticket = t
	return nil
}

func (f *fakeTicketStore) SaveProgressTx(tx *sql.Tx, t *model.Ticket) error {
	cp := *t
	f.savedProgress = &cp
	f.ticket = t
	return nil
}

func (f *fakeTicketStore) GetStats() (*model.TicketStats, error) {
	return &model.TicketStats{TotalTickets: 1}, nil
}

type fakeLogStore struct {
	entries []*model.LogEntry
}

func (f *fakeLogStore) AppendTx(tx *sql.Tx, entry *model.LogEntry) error {
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeLogStore) ListByTicket(ticketID uuid.UUID) ([]model.LogEntry, error) {
	var out []model.LogEntry
	for _, e := range f.entries {
		out = append(out, *e)
	}
	return out, nil
}

type outboxEntry struct {
	routingKey string
	payload    interface{}
}

type fakeOutboxStore struct {
	entries []outboxEntry
}

func (f *fakeOutboxStore) CreateInTransaction(tx *sql.Tx, routingKey string, payload interface{}) error {
	f.entries = append(f.entries, outboxEntry{routingKey, payload})
	return nil
}

type fakeIncidentStatusStore struct {
	updatedTo []model.IncidentStatus
}

func (f *fakeIncidentStatusStore) UpdateStatusTx(tx *sql.Tx, id uuid.UUID, status model.IncidentStatus) error {
	f.updatedTo = append(f.updatedTo, status)
	return nil
}

type fakeWorkerLookup struct {
	workers map[uuid.UUID]*model.User
}

func (f *fakeWorkerLookup) FindByID(id uuid.UUID) (*model.User, error) {
	w, ok := f.workers[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return w, nil
}

type ticketFixture struct {
	svc      *TicketService
	store    *fakeTicketStore
	logs     *fakeLogStore
	outbox   *fakeOutboxStore
	incident *fakeIncidentStatusStore
	workers  *fakeWorkerLookup
	mock     sqlmock.Sqlmock
}

func newTicketFixture(t *testing.T, ticket *model.Ticket) *ticketFixture {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := &fakeTicketStore{db: db, ticket: ticket}
	logs := &fakeLogStore{}
	outbox := &fakeOutboxStore{}
	incident := &fakeIncidentStatusStore{}
	workers := &fakeWorkerLookup{workers: map[uuid.UUID]*model.User{}}

	return &ticketFixture{
		svc:      NewTicketService(store, logs, outbox, incident, workers, zap.NewNop()),
		store:    store,
		logs:     logs,
		outbox:   outbox,
		incident: incident,
		workers:  workers,
		mock:     mock,
	}
}

func baseTicket() *model.Ticket {
	reporterID := uuid.New()
	return &model.Ticket{
		ID:           uuid.New(),
		IncidentID:   uuid.New(),
		Title:        "Broken streetlight on 5th Ave",
		Description:  "Pole 44 is dark after sunset",
		Category:     "streetlight",
		Status:       model.StatusInProgress,
		Location:     "5th Ave and Main",
		ReporterID:   &reporterID,
		ReporterName: strPtr("Asha Citizen"),
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
}

func departmentClaims() *Claims {
	return &Claims{UserID: uuid.New(), Name: "Public Works", UserType: model.TypeOfficial, OfficialRole: model.RoleDepartment}
}

func supervisorClaims() *Claims {
	return &Claims{UserID: uuid.New(), Name: "Siti Supervisor", UserType: model.TypeOfficial, OfficialRole: model.RoleSupervisor}
}

func TestUpdateStatusResolveClearsReopenState(t *testing.T) {
	ticket := baseTicket()
	ticket.ReopenedBy = &model.ReopenedBy{ID: uuid.New(), Name: "Public Works", Timestamp: time.Now()}
	ticket.ReopenWarning = &model.ReopenWarning{Message: "reopened earlier"}
	fx := newTicketFixture(t, ticket)
	fx.mock.ExpectBegin()
	fx.mock.ExpectCommit()

	actor := departmentClaims()
	updated, err := fx.svc.UpdateStatus(actor, ticket.ID, &model.UpdateTicketStatusRequest{Status: "resolved"})
	require.NoError(t, err)

	assert.Equal(t, model.StatusResolved, updated.Status)
	assert.Nil(t, updated.ReopenedBy)
	assert.Nil(t, updated.ReopenWarning)

	require.Len(t, fx.logs.entries, 1)
	assert.Equal(t, "ticket_resolved_by_department", fx.logs.entries[0].Action)

	require.Len(t, fx.outbox.entries, 1)
	assert.Equal(t, EventTicketStatusUpdated, fx.outbox.entries[0].routingKey)
	event := fx.outbox.entries[0].payload.(map[string]any)
	assert.Equal(t, "in_progress", event["previousStatus"])
	assert.Equal(t, ticket.ReporterID.String(), event["reporterId"])

	assert.Equal(t, []model.IncidentStatus{model.StatusResolved}, fx.incident.updatedTo)
	require.NoError(t, fx.mock.ExpectationsWereMet())
}

func TestUpdateStatusVerifyKeepsIncidentInProgress(t *testing.T) {
	ticket := baseTicket()
	ticket.Assignees = []model.Assignee{{WorkerID: uuid.New(), Name: "Wawan Worker"}}
	fx := newTicketFixture(t, ticket)
	fx.mock.ExpectBegin()
	fx.mock.ExpectCommit()

	updated, err := fx.svc.UpdateStatus(supervisorClaims(), ticket.ID, &model.UpdateTicketStatusRequest{Status: "verified"})
	require.NoError(t, err)

	assert.Equal(t, model.StatusVerified, updated.Status)
	assert.Equal(t, []model.IncidentStatus{model.StatusInProgress}, fx.incident.updatedTo)
	assert.Equal(t, "ticket_verified_by_supervisor", fx.logs.entries[0].Action)
}

func TestUpdateStatusReopenResetsProgress(t *testing.T) {
	ticket := baseTicket()
	ticket.Status = model.StatusResolved
	ticket.ProgressPercent = 95
	ticket.ProgressSummary = "patched and repainted"
	fx := newTicketFixture(t, ticket)
	fx.mock.ExpectBegin()
	fx.mock.ExpectCommit()

	actor := departmentClaims()
	updated, err := fx.svc.UpdateStatus(actor, ticket.ID, &model.UpdateTicketStatusRequest{Status: "open"})
	require.NoError(t, err)

	assert.Equal(t, 0, updated.ProgressPercent)
	assert.Empty(t, updated.ProgressSummary)
	require.NotNil(t, updated.ReopenedBy)
	assert.Equal(t, actor.UserID, updated.ReopenedBy.ID)
	require.NotNil(t, updated.ReopenWarning)
	assert.Contains(t, updated.ReopenWarning.Message, actor.Name)

	assert.Equal(t, "ticket_reopened_by_department", fx.logs.entries[0].Action)
	assert.Equal(t, EventTicketReopened, fx.outbox.entries[0].routingKey)
}

func TestUpdateStatusDeniedRollsBack(t *testing.T) {
	ticket := baseTicket()
	fx := newTicketFixture(t, ticket)
	fx.mock.ExpectBegin()
	fx.mock.ExpectRollback()

	// A worker may not flip ticket status directly.
	worker := &Claims{UserID: uuid.New(), Name: "Wawan Worker", UserType: model.TypeOfficial, OfficialRole: model.RoleWorker}
	_, err := fx.svc.UpdateStatus(worker, ticket.ID, &model.UpdateTicketStatusRequest{Status: "resolved"})

	var ruleErr *lifecycle.RuleError
	require.ErrorAs(t, err, &ruleErr)
	assert.Empty(t, fx.logs.entries)
	assert.Empty(t, fx.outbox.entries)
	require.NoError(t, fx.mock.ExpectationsWereMet())
}

func TestAssignWorkers(t *testing.T) {
	ticket := baseTicket()
	ticket.Status = model.StatusOpen
	fx := newTicketFixture(t, ticket)
	fx.mock.ExpectBegin()
	fx.mock.ExpectCommit()

	worker := &model.User{
		ID:                   uuid.New(),
		Name:                 "Wawan Worker",
		UserType:             model.TypeOfficial,
		OfficialRole:         model.RoleWorker,
		Phone:                strPtr("+628111111111"),
		WorkerSpecialization: strPtr("electrical"),
	}
	fx.workers.workers[worker.ID] = worker

	updated, err := fx.svc.Assign(supervisorClaims(), ticket.ID, &model.AssignTicketRequest{
		WorkerID: worker.ID.String(),
	})
	require.NoError(t, err)

	require.Len(t, updated.Assignees, 1)
	assert.Equal(t, worker.ID, updated.Assignees[0].WorkerID)
	assert.Equal(t, "electrical", updated.Assignees[0].WorkerSpecialization)
	assert.Equal(t, model.StatusOpen, updated.Status, "assignment sets assignees without moving the state")
	require.NotNil(t, updated.AssignedTo)
	assert.Equal(t, "Wawan Worker", *updated.AssignedTo)

	assert.Equal(t, "worker_assigned_by_supervisor", fx.logs.entries[0].Action)
	assert.Equal(t, EventTicketAssigned, fx.outbox.entries[0].routingKey)
}

func TestAssignMultipleWorkersSummaryText(t *testing.T) {
	ticket := baseTicket()
	fx := newTicketFixture(t, ticket)
	fx.mock.ExpectBegin()
	fx.mock.ExpectCommit()

	first := &model.User{ID: uuid.New(), Name: "Wawan Worker", UserType: model.TypeOfficial, OfficialRole: model.RoleWorker}
	second := &model.User{ID: uuid.New(), Name: "Budi Worker", UserType: model.TypeOfficial, OfficialRole: model.RoleWorker}
	third := &model.User{ID: uuid.New(), Name: "Citra Worker", UserType: model.TypeOfficial, OfficialRole: model.RoleWorker}
	for _, w := range []*model.User{first, second, third} {
		fx.workers.workers[w.ID] = w
	}

	updated, err := fx.svc.Assign(supervisorClaims(), ticket.ID, &model.AssignTicketRequest{
		WorkerIDs: []string{first.ID.String(), second.ID.String(), third.ID.String()},
	})
	require.NoError(t, err)

	require.NotNil(t, updated.AssignedTo)
	assert.Equal(t, "Wawan Worker +2 more", *updated.AssignedTo)
}

func TestAssignByDepartmentOnReopenedTicket(t *testing.T) {
	ticket := baseTicket()
	ticket.ReopenedBy = &model.ReopenedBy{ID: uuid.New(), Name: "Dina Department", Timestamp: time.Now()}
	fx := newTicketFixture(t, ticket)
	fx.mock.ExpectBegin()
	fx.mock.ExpectCommit()

	worker := &model.User{ID: uuid.New(), Name: "Wawan Worker", UserType: model.TypeOfficial, OfficialRole: model.RoleWorker}
	fx.workers.workers[worker.ID] = worker

	_, err := fx.svc.Assign(departmentClaims(), ticket.ID, &model.AssignTicketRequest{
		WorkerID: worker.ID.String(),
	})
	require.NoError(t, err)
	assert.Equal(t, "worker_assigned_by_department", fx.logs.entries[0].Action)
}

func TestAssignPreservesOriginalAssignedAt(t *testing.T) {
	firstAssigned := time.Now().Add(-48 * time.Hour).Truncate(time.Second)
	workerID := uuid.New()
	ticket := baseTicket()
	ticket.Assignees = []model.Assignee{{WorkerID: workerID, Name: "Wawan Worker", AssignedAt: firstAssigned}}
	fx := newTicketFixture(t, ticket)
	fx.mock.ExpectBegin()
	fx.mock.ExpectCommit()

	fx.workers.workers[workerID] = &model.User{
		ID: workerID, Name: "Wawan Worker", UserType: model.TypeOfficial, OfficialRole: model.RoleWorker,
	}

	updated, err := fx.svc.Assign(supervisorClaims(), ticket.ID, &model.AssignTicketRequest{
		WorkerIDs: []string{workerID.String()},
	})
	require.NoError(t, err)
	assert.True(t, updated.Assignees[0].AssignedAt.Equal(firstAssigned))
}

func TestAssignRejectsNonWorker(t *testing.T) {
	ticket := baseTicket()
	fx := newTicketFixture(t, ticket)
	fx.mock.ExpectBegin()
	fx.mock.ExpectRollback()

	inspector := &model.User{ID: uuid.New(), Name: "Ina Inspector", UserType: model.TypeOfficial, OfficialRole: model.RoleFieldInspector}
	fx.workers.workers[inspector.ID] = inspector

	_, err := fx.svc.Assign(supervisorClaims(), ticket.ID, &model.AssignTicketRequest{WorkerID: inspector.ID.String()})
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
	assert.Empty(t, fx.outbox.entries)
}

func TestAssignLockedOnResolvedTicket(t *testing.T) {
	ticket := baseTicket()
	ticket.Status = model.StatusResolved
	fx := newTicketFixture(t, ticket)
	fx.mock.ExpectBegin()
	fx.mock.ExpectRollback()

	workerID := uuid.New()
	fx.workers.workers[workerID] = &model.User{ID: workerID, UserType: model.TypeOfficial, OfficialRole: model.RoleWorker}

	_, err := fx.svc.Assign(supervisorClaims(), ticket.ID, &model.AssignTicketRequest{WorkerID: workerID.String()})
	var ruleErr *lifecycle.RuleError
	require.ErrorAs(t, err, &ruleErr)
	assert.Equal(t, "Worker assignment is locked once a ticket is verified or resolved", ruleErr.Message)
}

func TestProgressUpdateByAssignedWorker(t *testing.T) {
	workerID := uuid.New()
	ticket := baseTicket()
	ticket.Assignees = []model.Assignee{{WorkerID: workerID, Name: "Wawan Worker"}}
	ticket.ProgressPercent = 20
	fx := newTicketFixture(t, ticket)
	fx.mock.ExpectBegin()
	fx.mock.ExpectCommit()

	worker := &Claims{UserID: workerID, Name: "Wawan Worker", UserType: model.TypeOfficial, OfficialRole: model.RoleWorker}
	updated, err := fx.svc.ProgressUpdate(worker, ticket.ID, &model.ProgressUpdateRequest{
		UpdateText: "halfway through replacing the cable",
	})
	require.NoError(t, err)

	assert.Equal(t, 50, updated.ProgressPercent)
	assert.Equal(t, "halfway through replacing the cable", updated.ProgressSummary)
	require.NotNil(t, updated.LastWorkerUpdateAt)
	assert.Nil(t, updated.LastInspectorUpdateAt)

	assert.Equal(t, "worker_progress_update", fx.logs.entries[0].Action)
	assert.Equal(t, EventTicketProgressUpdated, fx.outbox.entries[0].routingKey)
	event := fx.outbox.entries[0].payload.(map[string]any)
	assert.Equal(t, 50, event["progressPercent"])
}

func TestProgressUpdateInspectorClaimsTicket(t *testing.T) {
	ticket := baseTicket()
	ticket.Status = model.StatusOpen
	fx := newTicketFixture(t, ticket)
	fx.mock.ExpectBegin()
	fx.mock.ExpectCommit()

	inspector := &Claims{UserID: uuid.New(), Name: "Ina Inspector", UserType: model.TypeOfficial, OfficialRole: model.RoleFieldInspector}
	updated, err := fx.svc.ProgressUpdate(inspector, ticket.ID, &model.ProgressUpdateRequest{
		UpdateText: "site visit done, damage photographed",
	})
	require.NoError(t, err)

	require.NotNil(t, updated.FieldInspectorID)
	assert.Equal(t, inspector.UserID, *updated.FieldInspectorID)
	assert.Equal(t, model.StatusInProgress, updated.Status)
	require.NotNil(t, updated.LastInspectorUpdateAt)
	assert.Equal(t, "field_inspector_progress_update", fx.logs.entries[0].Action)
}

func TestProgressUpdateRejectsUnassignedWorker(t *testing.T) {
	ticket := baseTicket()
	ticket.Assignees = []model.Assignee{{WorkerID: uuid.New(), Name: "Somebody Else"}}
	fx := newTicketFixture(t, ticket)
	fx.mock.ExpectBegin()
	fx.mock.ExpectRollback()

	worker := &Claims{UserID: uuid.New(), Name: "Wawan Worker", UserType: model.TypeOfficial, OfficialRole: model.RoleWorker}
	_, err := fx.svc.ProgressUpdate(worker, ticket.ID, &model.ProgressUpdateRequest{UpdateText: "working on it now"})

	var ruleErr *lifecycle.RuleError
	require.ErrorAs(t, err, &ruleErr)
	assert.Equal(t, "Ticket is not assigned to you", ruleErr.Message)
}

func TestProgressUpdateTooShort(t *testing.T) {
	ticket := baseTicket()
	fx := newTicketFixture(t, ticket)

	worker := &Claims{UserID: uuid.New(), UserType: model.TypeOfficial, OfficialRole: model.RoleWorker}
	_, err := fx.svc.ProgressUpdate(worker, ticket.ID, &model.ProgressUpdateRequest{UpdateText: "ok"})
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
}

func TestLogbookDepartmentOnly(t *testing.T) {
	ticket := baseTicket()
	fx := newTicketFixture(t, ticket)
	fx.logs.entries = append(fx.logs.entries, &model.LogEntry{TicketID: ticket.ID, Action: "ticket_status_updated"})

	entries, err := fx.svc.Logbook(departmentClaims(), ticket.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	_, err = fx.svc.Logbook(supervisorClaims(), ticket.ID)
	assert.ErrorIs(t, err, errs.ErrAccessDenied)
}

func TestListScopedByRole(t *testing.T) {
	workerID := uuid.New()
	ticket := baseTicket()
	ticket.Assignees = []model.Assignee{{WorkerID: workerID}}
	fx := newTicketFixture(t, ticket)

	citizen := &Claims{UserID: uuid.New(), UserType: model.TypeCitizen}
	_, err := fx.svc.List(citizen, "")
	assert.ErrorIs(t, err, errs.ErrAccessDenied)

	assigned, err := fx.svc.List(&Claims{UserID: workerID, UserType: model.TypeOfficial, OfficialRole: model.RoleWorker}, "")
	require.NoError(t, err)
	assert.Len(t, assigned, 1)

	other, err := fx.svc.List(&Claims{UserID: uuid.New(), UserType: model.TypeOfficial, OfficialRole: model.RoleWorker}, "")
	require.NoError(t, err)
	assert.Empty(t, other)

	// Head supervisors see the full queue like supervisors do.
	head := &Claims{UserID: uuid.New(), UserType: model.TypeHeadSupervisor}
	all, err := fx.svc.List(head, "")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
