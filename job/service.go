package job

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"jobboard/identity"
	"jobboard/policy"
)

var (
	// ErrForbidden signals an authenticated caller with insufficient privilege.
	ErrForbidden = errors.New("job: forbidden")
	// ErrInvalidArgument signals a submission that fails validation.
	ErrInvalidArgument = errors.New("job: invalid argument")
)

// IdentityResolver abstracts identity.Resolver for testability.
type IdentityResolver interface {
	Resolve(ctx context.Context, token string) (*identity.Identity, error)
}

// Service owns the moderation state machine. Every operation resolves the
// caller fresh, authorizes against the current persisted status, and only then
// touches the store — a stale client-supplied status can never widen access.
type Service struct {
	resolver IdentityResolver
	gateway  *Gateway
	idGen    func() string
}

// NewService builds the lifecycle service.
func NewService(resolver IdentityResolver, gateway *Gateway) *Service {
	return &Service{
		resolver: resolver,
		gateway:  gateway,
		idGen:    func() string { return uuid.NewString() },
	}
}

// WithIDGenerator overrides posting id generation.
func (s *Service) WithIDGenerator(gen func() string) *Service {
	s.idGen = gen
	return s
}

// ListApproved returns the public view. No identity required; store failures
// have already degraded to an empty listing inside the gateway.
func (s *Service) ListApproved(ctx context.Context) []Job {
	return s.gateway.FetchApproved(ctx)
}

// ListOwn returns every posting owned by the calling company, any status.
func (s *Service) ListOwn(ctx context.Context, token string) ([]Job, error) {
	ident, err := s.resolver.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	if dec := policy.Authorize(ident, policy.OpListOwn, nil); !dec.Allowed {
		return nil, fmt.Errorf("%w: %s", ErrForbidden, dec.Reason)
	}
	return s.gateway.FetchAllForOwner(ctx, ident.ID), nil
}

// ListAll returns every posting regardless of status. Admin only.
func (s *Service) ListAll(ctx context.Context, token string) ([]Job, error) {
	ident, err := s.resolver.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	if dec := policy.Authorize(ident, policy.OpListAll, nil); !dec.Allowed {
		return nil, fmt.Errorf("%w: %s", ErrForbidden, dec.Reason)
	}
	return s.gateway.FetchAll(ctx), nil
}

// View returns a single posting. Approved postings are visible to anyone,
// including callers whose token fails to resolve; otherwise only the owner or
// an admin may see it.
func (s *Service) View(ctx context.Context, token string, id string) (*Job, error) {
	// A bad token downgrades the caller to anonymous rather than failing the
	// request: the public view must keep working.
	ident, err := s.resolver.Resolve(ctx, token)
	if err != nil {
		ident = nil
	}

	j := s.gateway.FetchByID(ctx, id)
	if j == nil {
		return nil, ErrNotFound
	}

	res := &policy.Resource{OwnerID: j.CompanyID, Approved: j.Status == StatusApproved}
	if dec := policy.Authorize(ident, policy.OpViewJob, res); !dec.Allowed {
		return nil, fmt.Errorf("%w: %s", ErrForbidden, dec.Reason)
	}
	return j, nil
}

// Create validates the submission and persists it in pending status on behalf
// of the calling company.
func (s *Service) Create(ctx context.Context, token string, params CreateParams) (Job, error) {
	ident, err := s.resolver.Resolve(ctx, token)
	if err != nil {
		return Job{}, err
	}
	if dec := policy.Authorize(ident, policy.OpCreateJob, nil); !dec.Allowed {
		return Job{}, fmt.Errorf("%w: %s", ErrForbidden, dec.Reason)
	}

	title := strings.TrimSpace(params.Title)
	description := strings.TrimSpace(params.Description)
	if title == "" || description == "" {
		return Job{}, fmt.Errorf("%w: title and description are required", ErrInvalidArgument)
	}
	if params.JobType == "" {
		params.JobType = TypeFullTime
	}
	if !ValidType(params.JobType) {
		return Job{}, fmt.Errorf("%w: unknown job type %q", ErrInvalidArgument, params.JobType)
	}

	return s.gateway.Create(ctx, Job{
		ID:                s.idGen(),
		CompanyID:         ident.ID,
		Title:             title,
		Description:       description,
		Requirements:      params.Requirements,
		JobType:           params.JobType,
		EducationRequired: params.EducationRequired,
		Location:          params.Location,
		Salary:            params.Salary,
		Email:             params.Email,
		Phone:             params.Phone,
		CompanyName:       ident.CompanyName,
	})
}

// Approve moves a pending posting to approved. Admin only; approving an
// already-approved posting is an idempotent no-op.
func (s *Service) Approve(ctx context.Context, token string, id string) (Job, error) {
	return s.moderate(ctx, token, id, StatusApproved, policy.OpApproveJob)
}

// Reject moves a pending posting to rejected. Admin only; rejecting an
// already-rejected posting is an idempotent no-op.
func (s *Service) Reject(ctx context.Context, token string, id string) (Job, error) {
	return s.moderate(ctx, token, id, StatusRejected, policy.OpRejectJob)
}

func (s *Service) moderate(ctx context.Context, token string, id string, target Status, op policy.Operation) (Job, error) {
	ident, err := s.resolver.Resolve(ctx, token)
	if err != nil {
		return Job{}, err
	}

	current := s.gateway.FetchByID(ctx, id)
	if current == nil {
		return Job{}, ErrNotFound
	}

	res := &policy.Resource{OwnerID: current.CompanyID, Approved: current.Status == StatusApproved}
	if dec := policy.Authorize(ident, op, res); !dec.Allowed {
		return Job{}, fmt.Errorf("%w: %s", ErrForbidden, dec.Reason)
	}

	// Moderation actions may be retried; landing on the target status twice
	// is a success, not an error.
	if current.Status == target {
		return *current, nil
	}
	if current.Status != StatusPending {
		return Job{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, target)
	}

	return s.gateway.UpdateStatus(ctx, id, target, ident.ID)
}

// Delete removes a posting at any status. Allowed for the owning company or an
// admin; deleting an id that no longer exists reports (false, nil).
func (s *Service) Delete(ctx context.Context, token string, id string) (bool, error) {
	ident, err := s.resolver.Resolve(ctx, token)
	if err != nil {
		return false, err
	}

	current := s.gateway.FetchByID(ctx, id)
	if current == nil {
		// Nothing left to authorize against; tolerate the double-submit.
		return false, nil
	}

	res := &policy.Resource{OwnerID: current.CompanyID, Approved: current.Status == StatusApproved}
	if dec := policy.Authorize(ident, policy.OpDeleteJob, res); !dec.Allowed {
		return false, fmt.Errorf("%w: %s", ErrForbidden, dec.Reason)
	}

	return s.gateway.Delete(ctx, id, ident.ID)
}

// Events returns the moderation history for a posting. Admin only.
func (s *Service) Events(ctx context.Context, token string, jobID string) ([]ModerationEvent, error) {
	ident, err := s.resolver.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	if dec := policy.Authorize(ident, policy.OpListEvents, nil); !dec.Allowed {
		return nil, fmt.Errorf("%w: %s", ErrForbidden, dec.Reason)
	}
	return s.gateway.ListEvents(ctx, jobID), nil
}
