package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"jobboard/identity"
	"jobboard/job"
)

type stubJobRepo struct {
	jobs    []job.Job
	byID    map[string]job.Job
	updated job.Job
	events  []job.ModerationEvent
	deleted bool
	err     error
}

func (s *stubJobRepo) FetchApproved(_ context.Context) ([]job.Job, error) {
	return s.jobs, s.err
}

func (s *stubJobRepo) FetchByID(_ context.Context, id string) (job.Job, error) {
	if s.err != nil {
		return job.Job{}, s.err
	}
	j, ok := s.byID[id]
	if !ok {
		return job.Job{}, job.ErrNotFound
	}
	return j, nil
}

func (s *stubJobRepo) FetchAllForOwner(_ context.Context, _ string) ([]job.Job, error) {
	return s.jobs, s.err
}

func (s *stubJobRepo) FetchAll(_ context.Context) ([]job.Job, error) {
	return s.jobs, s.err
}

func (s *stubJobRepo) Create(_ context.Context, j job.Job) (job.Job, error) {
	if s.err != nil {
		return job.Job{}, s.err
	}
	j.Status = job.StatusPending
	return j, nil
}

func (s *stubJobRepo) UpdateStatus(_ context.Context, _ string, status job.Status, _ string) (job.Job, error) {
	if s.err != nil {
		return job.Job{}, s.err
	}
	updated := s.updated
	updated.Status = status
	return updated, nil
}

func (s *stubJobRepo) Delete(_ context.Context, _ string, _ string) (bool, error) {
	return s.deleted, s.err
}

func (s *stubJobRepo) ListEvents(_ context.Context, _ string) ([]job.ModerationEvent, error) {
	return s.events, s.err
}

type stubResolver struct {
	ident *identity.Identity
	err   error
}

func (s *stubResolver) Resolve(_ context.Context, _ string) (*identity.Identity, error) {
	return s.ident, s.err
}

func newTestServer(resolver job.IdentityResolver, repo job.Repository) *Server {
	gateway := job.NewGateway(repo, nil)
	return &Server{
		jobService: job.NewService(resolver, gateway),
	}
}

func withToken(req *http.Request) *http.Request {
	return req.WithContext(contextWithToken(req.Context(), "token"))
}

func TestHandleJobs_PublicList(t *testing.T) {
	now := time.Date(2024, 10, 31, 15, 4, 5, 0, time.UTC)
	server := newTestServer(
		&stubResolver{err: identity.ErrUnauthenticated},
		&stubJobRepo{jobs: []job.Job{
			{ID: "j1", Title: "Backend Engineer", Status: job.StatusApproved, CreatedAt: now, UpdatedAt: now},
			{ID: "j2", Title: "Data Analyst", Status: job.StatusApproved, CreatedAt: now, UpdatedAt: now},
		}},
	)

	req := httptest.NewRequest(http.MethodGet, "/api/jobs", nil)
	rec := httptest.NewRecorder()

	server.handleJobs(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var payload listPayload[jobResponse]
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode list response: %v", err)
	}
	if payload.Total != 2 || payload.Items[0].ID != "j1" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
	if payload.Items[0].CreatedAt != now.Format(time.RFC3339) {
		t.Fatalf("expected createdAt %s, got %s", now.Format(time.RFC3339), payload.Items[0].CreatedAt)
	}
}

func TestHandleJobs_PublicListSurvivesStoreOutage(t *testing.T) {
	server := newTestServer(
		&stubResolver{err: identity.ErrUnauthenticated},
		&stubJobRepo{err: errors.New("connection refused")},
	)

	req := httptest.NewRequest(http.MethodGet, "/api/jobs", nil)
	rec := httptest.NewRecorder()

	server.handleJobs(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var payload listPayload[jobResponse]
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode list response: %v", err)
	}
	if payload.Total != 0 || payload.Items == nil {
		t.Fatalf("expected empty listing, got %+v", payload)
	}
}

func TestHandleJobs_CreateUnauthenticated(t *testing.T) {
	server := newTestServer(&stubResolver{err: identity.ErrUnauthenticated}, &stubJobRepo{})

	body := strings.NewReader(`{"title":"Backend Engineer","description":"Go services"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/jobs", body)
	rec := httptest.NewRecorder()

	server.handleJobs(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestHandleJobs_CreateSuccess(t *testing.T) {
	server := newTestServer(
		&stubResolver{ident: &identity.Identity{ID: "c1", Role: identity.RoleCompany, CompanyName: "Acme"}},
		&stubJobRepo{},
	)

	body := strings.NewReader(`{"title":"Backend Engineer","description":"Go services"}`)
	req := withToken(httptest.NewRequest(http.MethodPost, "/api/jobs", body))
	rec := httptest.NewRecorder()

	server.handleJobs(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp jobResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != string(job.StatusPending) || resp.CompanyID != "c1" || resp.CompanyName != "Acme" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestHandleJobs_CreateValidationError(t *testing.T) {
	server := newTestServer(
		&stubResolver{ident: &identity.Identity{ID: "c1", Role: identity.RoleCompany}},
		&stubJobRepo{},
	)

	body := strings.NewReader(`{"title":"  "}`)
	req := withToken(httptest.NewRequest(http.MethodPost, "/api/jobs", body))
	rec := httptest.NewRecorder()

	server.handleJobs(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandleJobDetail_ViewApprovedAnonymously(t *testing.T) {
	server := newTestServer(
		&stubResolver{err: identity.ErrUnauthenticated},
		&stubJobRepo{byID: map[string]job.Job{
			"j1": {ID: "j1", CompanyID: "c1", Title: "Backend Engineer", Status: job.StatusApproved},
		}},
	)

	req := httptest.NewRequest(http.MethodGet, "/api/jobs/j1", nil)
	rec := httptest.NewRecorder()

	server.handleJobDetail(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestHandleJobDetail_PendingHiddenFromStrangers(t *testing.T) {
	server := newTestServer(
		&stubResolver{ident: &identity.Identity{ID: "other", Role: identity.RoleCompany}},
		&stubJobRepo{byID: map[string]job.Job{
			"j1": {ID: "j1", CompanyID: "c1", Status: job.StatusPending},
		}},
	)

	req := withToken(httptest.NewRequest(http.MethodGet, "/api/jobs/j1", nil))
	rec := httptest.NewRecorder()

	server.handleJobDetail(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestHandleJobDetail_NotFound(t *testing.T) {
	server := newTestServer(&stubResolver{err: identity.ErrUnauthenticated}, &stubJobRepo{})

	req := httptest.NewRequest(http.MethodGet, "/api/jobs/missing", nil)
	rec := httptest.NewRecorder()

	server.handleJobDetail(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestHandleJobDetail_InvalidPath(t *testing.T) {
	server := newTestServer(&stubResolver{}, &stubJobRepo{})

	req := httptest.NewRequest(http.MethodGet, "/api/jobs/", nil)
	rec := httptest.NewRecorder()

	server.handleJobDetail(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandleJobDetail_ApproveRequiresAdmin(t *testing.T) {
	server := newTestServer(
		&stubResolver{ident: &identity.Identity{ID: "c1", Role: identity.RoleCompany}},
		&stubJobRepo{byID: map[string]job.Job{
			"j1": {ID: "j1", CompanyID: "c1", Status: job.StatusPending},
		}},
	)

	req := withToken(httptest.NewRequest(http.MethodPost, "/api/jobs/j1/approve", nil))
	rec := httptest.NewRecorder()

	server.handleJobDetail(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestHandleJobDetail_ApproveSuccess(t *testing.T) {
	pending := job.Job{ID: "j1", CompanyID: "c1", Status: job.StatusPending}
	server := newTestServer(
		&stubResolver{ident: &identity.Identity{ID: "a1", Role: identity.RoleAdmin}},
		&stubJobRepo{
			byID:    map[string]job.Job{"j1": pending},
			updated: pending,
		},
	)

	req := withToken(httptest.NewRequest(http.MethodPost, "/api/jobs/j1/approve", nil))
	rec := httptest.NewRecorder()

	server.handleJobDetail(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp jobResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != string(job.StatusApproved) {
		t.Fatalf("expected approved, got %s", resp.Status)
	}
}

func TestHandleJobDetail_RejectApprovedIsBadRequest(t *testing.T) {
	server := newTestServer(
		&stubResolver{ident: &identity.Identity{ID: "a1", Role: identity.RoleAdmin}},
		&stubJobRepo{byID: map[string]job.Job{
			"j1": {ID: "j1", CompanyID: "c1", Status: job.StatusApproved},
		}},
	)

	req := withToken(httptest.NewRequest(http.MethodPost, "/api/jobs/j1/reject", nil))
	rec := httptest.NewRecorder()

	server.handleJobDetail(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandleJobDetail_DeleteMissingIsClean(t *testing.T) {
	server := newTestServer(
		&stubResolver{ident: &identity.Identity{ID: "c1", Role: identity.RoleCompany}},
		&stubJobRepo{},
	)

	req := withToken(httptest.NewRequest(http.MethodDelete, "/api/jobs/missing", nil))
	rec := httptest.NewRecorder()

	server.handleJobDetail(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp deleteResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Deleted {
		t.Fatalf("expected deleted=false for a missing id")
	}
}

func TestHandleJobDetail_WrongMethod(t *testing.T) {
	server := newTestServer(&stubResolver{}, &stubJobRepo{})

	req := httptest.NewRequest(http.MethodPatch, "/api/jobs/j1", nil)
	rec := httptest.NewRecorder()

	server.handleJobDetail(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestHandleDashboardJobs_RequiresAuth(t *testing.T) {
	server := newTestServer(&stubResolver{err: identity.ErrUnauthenticated}, &stubJobRepo{})

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard/jobs", nil)
	rec := httptest.NewRecorder()

	server.handleDashboardJobs(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestHandleAdminJobs_FilterByStatus(t *testing.T) {
	server := newTestServer(
		&stubResolver{ident: &identity.Identity{ID: "a1", Role: identity.RoleAdmin}},
		&stubJobRepo{jobs: []job.Job{
			{ID: "j1", Status: job.StatusPending},
			{ID: "j2", Status: job.StatusApproved},
		}},
	)

	req := withToken(httptest.NewRequest(http.MethodGet, "/api/admin/jobs?status=pending", nil))
	rec := httptest.NewRecorder()

	server.handleAdminJobs(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var payload listPayload[jobResponse]
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode list response: %v", err)
	}
	if payload.Total != 1 || payload.Items[0].ID != "j1" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestHandleAdminJobDetail_Events(t *testing.T) {
	actor := "a1"
	server := newTestServer(
		&stubResolver{ident: &identity.Identity{ID: "a1", Role: identity.RoleAdmin}},
		&stubJobRepo{events: []job.ModerationEvent{
			{ID: 1, JobID: "j1", Action: job.EventJobCreated},
			{ID: 2, JobID: "j1", Action: job.EventJobApproved, ActorID: &actor},
		}},
	)

	req := withToken(httptest.NewRequest(http.MethodGet, "/api/admin/jobs/j1/events", nil))
	rec := httptest.NewRecorder()

	server.handleAdminJobDetail(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var payload listPayload[eventResponse]
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode events response: %v", err)
	}
	if payload.Total != 2 || payload.Items[1].Action != job.EventJobApproved {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestWithToken_ExtractsBearer(t *testing.T) {
	server := &Server{}

	var seen string
	handler := server.withToken(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = tokenFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/jobs", nil)
	req.Header.Set("Authorization", "Bearer abc123")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if seen != "abc123" {
		t.Fatalf("expected token abc123, got %q", seen)
	}
}
