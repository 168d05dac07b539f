package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"jobboard/auth"
	"jobboard/identity"
	"jobboard/job"
)

type ctxKey string

const ctxKeyToken ctxKey = "token"

// Server routes HTTP traffic to the domain services. Handlers never inspect
// credentials themselves; they hand the raw bearer token to the services,
// which resolve and authorize the caller on every request.
type Server struct {
	authService *auth.Service
	jobService  *job.Service
	resolver    *identity.Resolver
	logger      *zap.Logger
}

// NewServer wires the handler set.
func NewServer(authService *auth.Service, jobService *job.Service, resolver *identity.Resolver, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		authService: authService,
		jobService:  jobService,
		resolver:    resolver,
		logger:      logger,
	}
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/register", s.handleRegister)
	mux.HandleFunc("/api/auth/login", s.handleLogin)
	mux.HandleFunc("/api/jobs", s.handleJobs)
	mux.HandleFunc("/api/jobs/", s.handleJobDetail)
	mux.HandleFunc("/api/dashboard/jobs", s.handleDashboardJobs)
	mux.HandleFunc("/api/admin/jobs", s.handleAdminJobs)
	mux.HandleFunc("/api/admin/jobs/", s.handleAdminJobDetail)
	mux.HandleFunc("/api/admin/session", s.handleAdminSession)
	return s.withToken(mux)
}

// withToken lifts the bearer token out of the Authorization header. No
// verification happens here: an absent or garbage token simply resolves to
// the anonymous caller downstream.
func (s *Server) withToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			r = r.WithContext(contextWithToken(r.Context(), strings.TrimSpace(token)))
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req auth.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := s.authService.Register(r.Context(), req)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, toUserResponse(*user))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req auth.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.authService.Login(r.Context(), req)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, loginResponse{
		Token: result.Token,
		User:  toUserResponse(result.User),
	})
}

// handleJobs serves the public board (GET) and posting submission (POST).
func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		jobs := s.jobService.ListApproved(r.Context())
		respondJSON(w, http.StatusOK, toJobList(jobs))
	case http.MethodPost:
		var req createJobRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		created, err := s.jobService.Create(r.Context(), tokenFromContext(r.Context()), job.CreateParams{
			Title:             req.Title,
			Description:       req.Description,
			Requirements:      req.Requirements,
			JobType:           job.Type(req.JobType),
			EducationRequired: req.EducationRequired,
			Location:          req.Location,
			Salary:            req.Salary,
			Email:             req.Email,
			Phone:             req.Phone,
		})
		if err != nil {
			s.respondDomainError(w, err)
			return
		}
		respondJSON(w, http.StatusCreated, toJobResponse(created))
	default:
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleJobDetail serves /api/jobs/{id} and the moderation verbs
// /api/jobs/{id}/approve and /api/jobs/{id}/reject.
func (s *Server) handleJobDetail(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		respondError(w, http.StatusBadRequest, "job id is required")
		return
	}
	id := parts[0]

	if len(parts) == 2 {
		if r.Method != http.MethodPost {
			respondError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		token := tokenFromContext(r.Context())
		var (
			updated job.Job
			err     error
		)
		switch parts[1] {
		case "approve":
			updated, err = s.jobService.Approve(r.Context(), token, id)
		case "reject":
			updated, err = s.jobService.Reject(r.Context(), token, id)
		default:
			respondError(w, http.StatusNotFound, "unknown action")
			return
		}
		if err != nil {
			s.respondDomainError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, toJobResponse(updated))
		return
	}
	if len(parts) != 1 {
		respondError(w, http.StatusNotFound, "not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		j, err := s.jobService.View(r.Context(), tokenFromContext(r.Context()), id)
		if err != nil {
			s.respondDomainError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, toJobResponse(*j))
	case http.MethodDelete:
		deleted, err := s.jobService.Delete(r.Context(), tokenFromContext(r.Context()), id)
		if err != nil {
			s.respondDomainError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, deleteResponse{Deleted: deleted})
	default:
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleDashboardJobs lists every posting owned by the calling company.
func (s *Server) handleDashboardJobs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	jobs, err := s.jobService.ListOwn(r.Context(), tokenFromContext(r.Context()))
	if err != nil {
		s.respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toJobList(jobs))
}

// handleAdminJobs lists every posting regardless of status.
func (s *Server) handleAdminJobs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	jobs, err := s.jobService.ListAll(r.Context(), tokenFromContext(r.Context()))
	if err != nil {
		s.respondDomainError(w, err)
		return
	}
	if status := r.URL.Query().Get("status"); status != "" {
		filtered := make([]job.Job, 0, len(jobs))
		for _, j := range jobs {
			if string(j.Status) == status {
				filtered = append(filtered, j)
			}
		}
		jobs = filtered
	}
	respondJSON(w, http.StatusOK, toJobList(jobs))
}

// handleAdminJobDetail serves /api/admin/jobs/{id}/events.
func (s *Server) handleAdminJobDetail(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/admin/jobs/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] != "events" {
		respondError(w, http.StatusNotFound, "not found")
		return
	}
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	events, err := s.jobService.Events(r.Context(), tokenFromContext(r.Context()), parts[0])
	if err != nil {
		s.respondDomainError(w, err)
		return
	}

	items := make([]eventResponse, 0, len(events))
	for _, ev := range events {
		items = append(items, toEventResponse(ev))
	}
	respondJSON(w, http.StatusOK, listPayload[eventResponse]{Items: items, Total: len(items)})
}

// handleAdminSession reports how the caller's admin signals line up: token
// claim, store role, and allow-list membership. Diagnostics only.
func (s *Server) handleAdminSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	report, err := s.resolver.Report(r.Context(), tokenFromContext(r.Context()))
	if err != nil {
		s.respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, sessionResponse{
		UserID:           report.UserID,
		Email:            report.Email,
		ClaimRole:        string(report.ClaimRole),
		StoreRole:        string(report.StoreRole),
		RolesAgree:       report.RolesAgree,
		EmailAllowListed: report.EmailAllowListed,
	})
}

// respondDomainError maps domain sentinels onto HTTP statuses. Anything
// unrecognized is treated as a store failure.
func (s *Server) respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, identity.ErrUnauthenticated), errors.Is(err, auth.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, job.ErrForbidden):
		respondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, job.ErrNotFound):
		respondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, job.ErrInvalidTransition),
		errors.Is(err, job.ErrInvalidArgument),
		errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, auth.ErrMissingFields):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrDuplicateEmail):
		respondError(w, http.StatusConflict, "email already registered")
	default:
		s.logger.Error("request failed against the store", zap.Error(err))
		respondError(w, http.StatusBadGateway, "upstream store failure")
	}
}

func contextWithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, ctxKeyToken, token)
}

func tokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(ctxKeyToken).(string)
	return token
}

type createJobRequest struct {
	Title             string `json:"title"`
	Description       string `json:"description"`
	Requirements      string `json:"requirements"`
	JobType           string `json:"jobType"`
	EducationRequired string `json:"educationRequired"`
	Location          string `json:"location"`
	Salary            string `json:"salary"`
	Email             string `json:"email"`
	Phone             string `json:"phone"`
}

type jobResponse struct {
	ID                string `json:"id"`
	CompanyID         string `json:"companyId"`
	Title             string `json:"title"`
	Description       string `json:"description"`
	Requirements      string `json:"requirements"`
	JobType           string `json:"jobType"`
	EducationRequired string `json:"educationRequired"`
	Location          string `json:"location"`
	Salary            string `json:"salary"`
	Email             string `json:"email"`
	Phone             string `json:"phone"`
	Status            string `json:"status"`
	CompanyName       string `json:"companyName"`
	CreatedAt         string `json:"createdAt"`
	UpdatedAt         string `json:"updatedAt"`
}

type userResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	CompanyName string `json:"companyName"`
	Role        string `json:"role"`
	CreatedAt   string `json:"createdAt"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

type deleteResponse struct {
	Deleted bool `json:"deleted"`
}

type eventResponse struct {
	ID        int64           `json:"id"`
	JobID     string          `json:"jobId"`
	Action    string          `json:"action"`
	ActorID   *string         `json:"actorId"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt string          `json:"createdAt"`
}

type sessionResponse struct {
	UserID           string `json:"userId"`
	Email            string `json:"email"`
	ClaimRole        string `json:"claimRole"`
	StoreRole        string `json:"storeRole"`
	RolesAgree       bool   `json:"rolesAgree"`
	EmailAllowListed bool   `json:"emailAllowListed"`
}

type listPayload[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toJobResponse(j job.Job) jobResponse {
	return jobResponse{
		ID:                j.ID,
		CompanyID:         j.CompanyID,
		Title:             j.Title,
		Description:       j.Description,
		Requirements:      j.Requirements,
		JobType:           string(j.JobType),
		EducationRequired: j.EducationRequired,
		Location:          j.Location,
		Salary:            j.Salary,
		Email:             j.Email,
		Phone:             j.Phone,
		Status:            string(j.Status),
		CompanyName:       j.CompanyName,
		CreatedAt:         j.CreatedAt.Format(time.RFC3339),
		UpdatedAt:         j.UpdatedAt.Format(time.RFC3339),
	}
}

func toJobList(jobs []job.Job) listPayload[jobResponse] {
	items := make([]jobResponse, 0, len(jobs))
	for _, j := range jobs {
		items = append(items, toJobResponse(j))
	}
	return listPayload[jobResponse]{Items: items, Total: len(items)}
}

func toUserResponse(u auth.User) userResponse {
	return userResponse{
		ID:          u.ID,
		Email:       u.Email,
		CompanyName: u.CompanyName,
		Role:        string(u.Role),
		CreatedAt:   u.CreatedAt.Format(time.RFC3339),
	}
}

func toEventResponse(ev job.ModerationEvent) eventResponse {
	payload := ev.Payload
	if len(payload) == 0 {
		payload = []byte("{}")
	}
	return eventResponse{
		ID:        ev.ID,
		JobID:     ev.JobID,
		Action:    ev.Action,
		ActorID:   ev.ActorID,
		Payload:   json.RawMessage(payload),
		CreatedAt: ev.CreatedAt.Format(time.RFC3339),
	}
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, errorResponse{Error: msg})
}
