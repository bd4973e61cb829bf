package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sakshi-Mishra77/Smart-city-new/internal/errs"
	"github.com/Sakshi-Mishra77/Smart-city-new/internal/lifecycle"
	"github.com/Sakshi-Mishra77/Smart-city-new/internal/model"
	"github.com/Sakshi-Mishra77/Smart-city-new/internal/service"
)

type stubTicketService struct {
	ticket  *model.Ticket
	actions []lifecycle.Action
	entries []model.LogEntry
	stats   *model.TicketStats
	err     error
}

func (s *stubTicketService) List(actor *service.Claims, status string) ([]*model.Ticket, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.ticket == nil {
		return nil, nil
	}
	return []*model.Ticket{s.ticket}, nil
}

func (s *stubTicketService) Get(actor *service.Claims, id uuid.UUID) (*model.Ticket, []lifecycle.Action, error) {
	return s.ticket, s.actions, s.err
}

func (s *stubTicketService) UpdateStatus(actor *service.Claims, id uuid.UUID, req *model.UpdateTicketStatusRequest) (*model.Ticket, error) {
	return s.ticket, s.err
}

func (s *stubTicketService) Assign(actor *service.Claims, id uuid.UUID, req *model.AssignTicketRequest) (*model.Ticket, error) {
	return s.ticket, s.err
}

func (s *stubTicketService) ProgressUpdate(actor *service.Claims, id uuid.UUID, req *model.ProgressUpdateRequest) (*model.Ticket, error) {
	return s.ticket, s.err
}

func (s *stubTicketService) Logbook(actor *service.Claims, id uuid.UUID) ([]model.LogEntry, error) {
	return s.entries, s.err
}

func (s *stubTicketService) Stats(actor *service.Claims) (*model.TicketStats, error) {
	return s.stats, s.err
}

func withClaims(claims *service.Claims) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("claims", claims)
		c.Next()
	}
}

func supervisorTestClaims() *service.Claims {
	return &service.Claims{
		UserID:       uuid.New(),
		Name:         "Siti Supervisor",
		UserType:     model.TypeOfficial,
		OfficialRole: model.RoleSupervisor,
	}
}

func newTicketRouter(svc ticketService, claims *service.Claims) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewTicketHandler(svc)
	g := r.Group("/api/tickets", withClaims(claims))
	g.GET("", h.List)
	g.GET("/stats", h.Stats)
	g.GET("/:id", h.Get)
	g.PATCH("/:id/status", h.UpdateStatus)
	g.POST("/:id/assign", h.Assign)
	g.POST("/:id/progress-update", h.ProgressUpdate)
	g.GET("/:id/logbook", h.Logbook)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
	return w, decoded
}

func TestTicketGetReturnsAllowedActions(t *testing.T) {
	ticket := &model.Ticket{ID: uuid.New(), Title: "Pothole on 3rd", Status: model.StatusInProgress}
	svc := &stubTicketService{ticket: ticket, actions: []lifecycle.Action{lifecycle.ActionAssign, lifecycle.ActionResolve}}
	r := newTicketRouter(svc, supervisorTestClaims())

	w, body := doJSON(t, r, http.MethodGet, "/api/tickets/"+ticket.ID.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])

	data := body["data"].(map[string]any)
	actions := data["allowedActions"].([]any)
	assert.Len(t, actions, 2)
	assert.Equal(t, ticket.Title, data["ticket"].(map[string]any)["title"])
}

func TestTicketGetInvalidID(t *testing.T) {
	r := newTicketRouter(&stubTicketService{}, supervisorTestClaims())

	w, body := doJSON(t, r, http.MethodGet, "/api/tickets/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Invalid ticket id", body["error"])
}

func TestTicketUpdateStatusRuleDenialIsVerbatim403(t *testing.T) {
	svc := &stubTicketService{err: &lifecycle.RuleError{Message: "Only department can reopen resolved tickets"}}
	r := newTicketRouter(svc, supervisorTestClaims())

	w, body := doJSON(t, r, http.MethodPatch, "/api/tickets/"+uuid.NewString()+"/status",
		gin.H{"status": "open"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Only department can reopen resolved tickets", body["error"])
}

func TestTicketUpdateStatusRequiresStatusField(t *testing.T) {
	r := newTicketRouter(&stubTicketService{}, supervisorTestClaims())

	w, body := doJSON(t, r, http.MethodPatch, "/api/tickets/"+uuid.NewString()+"/status", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, body["success"])
}

func TestTicketListEnvelope(t *testing.T) {
	ticket := &model.Ticket{ID: uuid.New(), Title: "Pothole on 3rd"}
	r := newTicketRouter(&stubTicketService{ticket: ticket}, supervisorTestClaims())

	w, body := doJSON(t, r, http.MethodGet, "/api/tickets", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	data := body["data"].(map[string]any)
	assert.Equal(t, float64(1), data["total"])
	assert.Len(t, data["tickets"], 1)
}

func TestTicketListEmptyIsArrayNotNull(t *testing.T) {
	r := newTicketRouter(&stubTicketService{}, supervisorTestClaims())

	_, body := doJSON(t, r, http.MethodGet, "/api/tickets", nil)
	data := body["data"].(map[string]any)
	tickets, ok := data["tickets"].([]any)
	require.True(t, ok, "tickets must encode as [] when empty")
	assert.Empty(t, tickets)
}

func TestTicketNotFoundMapsTo404(t *testing.T) {
	r := newTicketRouter(&stubTicketService{err: errs.ErrNotFound}, supervisorTestClaims())

	w, body := doJSON(t, r, http.MethodGet, "/api/tickets/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Not found", body["error"])
}

func TestTicketLogbookDenied(t *testing.T) {
	svc := &stubTicketService{err: errs.Denied("Only department can view the ticket logbook")}
	r := newTicketRouter(svc, supervisorTestClaims())

	w, body := doJSON(t, r, http.MethodGet, "/api/tickets/"+uuid.NewString()+"/logbook", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Only department can view the ticket logbook", body["error"])
}
