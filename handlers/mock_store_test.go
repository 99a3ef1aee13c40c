package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/agentfleet/control-plane/models"
	"github.com/agentfleet/control-plane/pagination"
	"github.com/agentfleet/control-plane/store"
)

// MockStore is a mock implementation of store.Store
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockStore) CreateTicket(ctx context.Context, ticket *models.Ticket) error {
	args := m.Called(ctx, ticket)
	return args.Error(0)
}

func (m *MockStore) GetTicket(ctx context.Context, id string) (*models.Ticket, error) {
	args := m.Called(ctx, id)
	if ticket := args.Get(0); ticket != nil {
		return ticket.(*models.Ticket), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStore) UpdateTicket(ctx context.Context, ticket *models.Ticket) error {
	args := m.Called(ctx, ticket)
	return args.Error(0)
}

func (m *MockStore) DeleteTicket(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockStore) ListTickets(ctx context.Context, filter store.TicketFilter, page pagination.Page) ([]*models.Ticket, pagination.PageInfo, error) {
	args := m.Called(ctx, filter, page)
	var tickets []*models.Ticket
	if v := args.Get(0); v != nil {
		tickets = v.([]*models.Ticket)
	}
	return tickets, args.Get(1).(pagination.PageInfo), args.Error(2)
}

func (m *MockStore) CreateJob(ctx context.Context, job *models.Job) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *MockStore) GetJob(ctx context.Context, id string) (*models.Job, error) {
	args := m.Called(ctx, id)
	if job := args.Get(0); job != nil {
		return job.(*models.Job), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStore) UpdateJob(ctx context.Context, job *models.Job) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *MockStore) ListJobs(ctx context.Context, filter store.JobFilter, page pagination.Page) ([]*models.Job, pagination.PageInfo, error) {
	args := m.Called(ctx, filter, page)
	var jobs []*models.Job
	if v := args.Get(0); v != nil {
		jobs = v.([]*models.Job)
	}
	return jobs, args.Get(1).(pagination.PageInfo), args.Error(2)
}

func (m *MockStore) CreateApproval(ctx context.Context, approval *models.Approval) error {
	args := m.Called(ctx, approval)
	return args.Error(0)
}

func (m *MockStore) GetApproval(ctx context.Context, id string) (*models.Approval, error) {
	args := m.Called(ctx, id)
	if approval := args.Get(0); approval != nil {
		return approval.(*models.Approval), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStore) UpdateApproval(ctx context.Context, approval *models.Approval) error {
	args := m.Called(ctx, approval)
	return args.Error(0)
}

func (m *MockStore) ListApprovals(ctx context.Context, filter store.ApprovalFilter, page pagination.Page) ([]*models.Approval, pagination.PageInfo, error) {
	args := m.Called(ctx, filter, page)
	var approvals []*models.Approval
	if v := args.Get(0); v != nil {
		approvals = v.([]*models.Approval)
	}
	return approvals, args.Get(1).(pagination.PageInfo), args.Error(2)
}

func (m *MockStore) CreateAuditEvent(ctx context.Context, event *models.AuditEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockStore) GetAuditEvent(ctx context.Context, id string) (*models.AuditEvent, error) {
	args := m.Called(ctx, id)
	if event := args.Get(0); event != nil {
		return event.(*models.AuditEvent), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStore) ListAuditEvents(ctx context.Context, filter store.AuditFilter, page pagination.Page) ([]*models.AuditEvent, pagination.PageInfo, error) {
	args := m.Called(ctx, filter, page)
	var events []*models.AuditEvent
	if v := args.Get(0); v != nil {
		events = v.([]*models.AuditEvent)
	}
	return events, args.Get(1).(pagination.PageInfo), args.Error(2)
}

// envelope mirrors the wire envelope for assertions
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *envelopeError  `json:"error"`
}

type envelopeError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details"`
}

// decodeEnvelope parses a recorded response body into the envelope
func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

// withURLParam attaches a chi route parameter to the request context
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
