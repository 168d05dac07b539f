package job

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Gateway mediates all job reads and writes against the store, enforcing the
// fail-soft read contract: a transport failure on a listing degrades to an
// empty result and a logged diagnostic instead of an error, and a failed point
// read degrades to "not found". Write failures always propagate — a failed
// write must never look like success.
type Gateway struct {
	repo   Repository
	logger *zap.Logger
}

// NewGateway wraps the repository with the fail-soft read contract.
func NewGateway(repo Repository, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{repo: repo, logger: logger}
}

// FetchApproved returns the public listing. Store failures degrade to an
// empty slice.
func (g *Gateway) FetchApproved(ctx context.Context) []Job {
	jobs, err := g.repo.FetchApproved(ctx)
	if err != nil {
		g.logger.Error("job gateway: fetch approved failed", zap.Error(err))
		return []Job{}
	}
	return jobs
}

// FetchByID returns the job or nil when it is missing or the read failed.
func (g *Gateway) FetchByID(ctx context.Context, id string) *Job {
	j, err := g.repo.FetchByID(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			g.logger.Error("job gateway: fetch by id failed", zap.String("job_id", id), zap.Error(err))
		}
		return nil
	}
	return &j
}

// FetchAllForOwner returns a company's postings. Store failures degrade to an
// empty slice.
func (g *Gateway) FetchAllForOwner(ctx context.Context, companyID string) []Job {
	jobs, err := g.repo.FetchAllForOwner(ctx, companyID)
	if err != nil {
		g.logger.Error("job gateway: fetch for owner failed", zap.String("company_id", companyID), zap.Error(err))
		return []Job{}
	}
	return jobs
}

// FetchAll returns every posting. Store failures degrade to an empty slice.
func (g *Gateway) FetchAll(ctx context.Context) []Job {
	jobs, err := g.repo.FetchAll(ctx)
	if err != nil {
		g.logger.Error("job gateway: fetch all failed", zap.Error(err))
		return []Job{}
	}
	return jobs
}

// Create persists a new pending posting. Write path: errors propagate.
func (g *Gateway) Create(ctx context.Context, j Job) (Job, error) {
	created, err := g.repo.Create(ctx, j)
	if err != nil {
		return Job{}, fmt.Errorf("job gateway: create: %w", err)
	}
	return created, nil
}

// UpdateStatus applies a moderation decision. Write path: ErrNotFound and
// ErrInvalidTransition pass through, transport errors propagate wrapped.
func (g *Gateway) UpdateStatus(ctx context.Context, id string, status Status, actorID string) (Job, error) {
	updated, err := g.repo.UpdateStatus(ctx, id, status, actorID)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidTransition) {
			return Job{}, err
		}
		return Job{}, fmt.Errorf("job gateway: update status: %w", err)
	}
	return updated, nil
}

// Delete removes a posting. Missing ids report (false, nil); transport
// failures propagate so the caller never mistakes them for a clean miss.
func (g *Gateway) Delete(ctx context.Context, id string, actorID string) (bool, error) {
	deleted, err := g.repo.Delete(ctx, id, actorID)
	if err != nil {
		return false, fmt.Errorf("job gateway: delete: %w", err)
	}
	return deleted, nil
}

// ListEvents returns the moderation history. Store failures degrade to an
// empty slice: the audit trail is a read-only diagnostic surface.
func (g *Gateway) ListEvents(ctx context.Context, jobID string) []ModerationEvent {
	events, err := g.repo.ListEvents(ctx, jobID)
	if err != nil {
		g.logger.Error("job gateway: list events failed", zap.String("job_id", jobID), zap.Error(err))
		return []ModerationEvent{}
	}
	return events
}
