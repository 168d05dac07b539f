package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound is returned when no job row exists for the provided id.
	ErrNotFound = errors.New("job: not found")
	// ErrInvalidTransition signals a moderation status outside {approved, rejected}.
	ErrInvalidTransition = errors.New("job: invalid status transition")
)

const jobColumns = `id, company_id, title, description, requirements, job_type,
	education_required, location, salary, email, phone, status, company_name,
	created_at, updated_at`

// Repository defines the raw store access the gateway and service build on.
// Point reads return ErrNotFound for missing rows; every other error is a
// genuine store failure.
type Repository interface {
	FetchApproved(ctx context.Context) ([]Job, error)
	FetchByID(ctx context.Context, id string) (Job, error)
	FetchAllForOwner(ctx context.Context, companyID string) ([]Job, error)
	FetchAll(ctx context.Context) ([]Job, error)
	Create(ctx context.Context, j Job) (Job, error)
	UpdateStatus(ctx context.Context, id string, status Status, actorID string) (Job, error)
	Delete(ctx context.Context, id string, actorID string) (bool, error)
	ListEvents(ctx context.Context, jobID string) ([]ModerationEvent, error)
}

// PGRepository implements Repository backed by PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository wires a pgxpool-backed job repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// FetchApproved returns only publicly visible postings, newest first.
func (r *PGRepository) FetchApproved(ctx context.Context) ([]Job, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM jobs
		WHERE status = 'approved'
		ORDER BY created_at DESC, id
	`, jobColumns)

	return r.queryJobs(ctx, query)
}

// FetchByID returns the job regardless of status. Visibility is the caller's
// responsibility, decided before this read is made.
func (r *PGRepository) FetchByID(ctx context.Context, id string) (Job, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM jobs
		WHERE id = $1
	`, jobColumns)

	j, err := scanJob(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Job{}, ErrNotFound
		}
		return Job{}, fmt.Errorf("job: query by id: %w", err)
	}
	return j, nil
}

// FetchAllForOwner returns every posting owned by the company, any status.
func (r *PGRepository) FetchAllForOwner(ctx context.Context, companyID string) ([]Job, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM jobs
		WHERE company_id = $1
		ORDER BY created_at DESC, id
	`, jobColumns)

	return r.queryJobs(ctx, query, companyID)
}

// FetchAll returns every posting, any status. Admin path only; the caller must
// have authorized already.
func (r *PGRepository) FetchAll(ctx context.Context) ([]Job, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM jobs
		ORDER BY created_at DESC, id
	`, jobColumns)

	return r.queryJobs(ctx, query)
}

// Create persists a new posting. The status is forced to pending regardless of
// the input, and a creation event is appended in the same transaction.
func (r *PGRepository) Create(ctx context.Context, j Job) (Job, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Job{}, fmt.Errorf("job: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	insertSQL := fmt.Sprintf(`
		INSERT INTO jobs (id, company_id, title, description, requirements, job_type,
			education_required, location, salary, email, phone, status, company_name)
		VALUES (COALESCE(NULLIF($1, '')::uuid, gen_random_uuid()), $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 'pending', $12)
		RETURNING %s
	`, jobColumns)

	created, err := scanJob(tx.QueryRow(ctx, insertSQL,
		j.ID,
		j.CompanyID,
		j.Title,
		j.Description,
		j.Requirements,
		j.JobType,
		j.EducationRequired,
		j.Location,
		j.Salary,
		j.Email,
		j.Phone,
		j.CompanyName,
	))
	if err != nil {
		return Job{}, fmt.Errorf("job: insert: %w", err)
	}

	payload := map[string]any{
		"title":    created.Title,
		"job_type": created.JobType,
	}
	if err := insertModerationEvent(ctx, tx, created.ID, EventJobCreated, created.CompanyID, payload); err != nil {
		return Job{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Job{}, fmt.Errorf("job: commit insert: %w", err)
	}

	return created, nil
}

// UpdateStatus moves a posting to approved or rejected and appends the
// matching moderation event atomically. Any other status fails with
// ErrInvalidTransition before touching the store.
func (r *PGRepository) UpdateStatus(ctx context.Context, id string, status Status, actorID string) (Job, error) {
	if status != StatusApproved && status != StatusRejected {
		return Job{}, fmt.Errorf("%w: %q", ErrInvalidTransition, status)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Job{}, fmt.Errorf("job: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	updateSQL := fmt.Sprintf(`
		UPDATE jobs
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		RETURNING %s
	`, jobColumns)

	updated, err := scanJob(tx.QueryRow(ctx, updateSQL, id, status))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Job{}, ErrNotFound
		}
		return Job{}, fmt.Errorf("job: update status: %w", err)
	}

	action := EventJobApproved
	if status == StatusRejected {
		action = EventJobRejected
	}
	payload := map[string]any{
		"status": status,
	}
	if err := insertModerationEvent(ctx, tx, id, action, actorID, payload); err != nil {
		return Job{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Job{}, fmt.Errorf("job: commit status update: %w", err)
	}

	return updated, nil
}

// Delete removes the posting. A missing id is not an error: it returns
// (false, nil) so double-submits stay harmless.
func (r *PGRepository) Delete(ctx context.Context, id string, actorID string) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("job: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `DELETE FROM jobs WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("job: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	if err := insertModerationEvent(ctx, tx, id, EventJobDeleted, actorID, nil); err != nil {
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("job: commit delete: %w", err)
	}

	return true, nil
}

// ListEvents returns the moderation history for a job, oldest first.
func (r *PGRepository) ListEvents(ctx context.Context, jobID string) ([]ModerationEvent, error) {
	const query = `
		SELECT id, job_id, action, actor_id, payload, created_at
		FROM moderation_events
		WHERE job_id = $1
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query, jobID)
	if err != nil {
		return nil, fmt.Errorf("job: list events: %w", err)
	}
	defer rows.Close()

	events := []ModerationEvent{}
	for rows.Next() {
		var ev ModerationEvent
		if err := rows.Scan(&ev.ID, &ev.JobID, &ev.Action, &ev.ActorID, &ev.Payload, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("job: scan event: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("job: iterate events: %w", err)
	}

	return events, nil
}

func (r *PGRepository) queryJobs(ctx context.Context, query string, args ...any) ([]Job, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("job: query list: %w", err)
	}
	defer rows.Close()

	jobs := []Job{}
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("job: scan row: %w", err)
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("job: iterate rows: %w", err)
	}

	return jobs, nil
}

// scanJob maps a raw row onto the Job entity, substituting documented defaults
// for any absent optional field so the entity stays total.
func scanJob(row pgx.Row) (Job, error) {
	var (
		j            Job
		requirements *string
		education    *string
		location     *string
		salary       *string
		email        *string
		phone        *string
		companyName  *string
	)
	err := row.Scan(
		&j.ID,
		&j.CompanyID,
		&j.Title,
		&j.Description,
		&requirements,
		&j.JobType,
		&education,
		&location,
		&salary,
		&email,
		&phone,
		&j.Status,
		&companyName,
		&j.CreatedAt,
		&j.UpdatedAt,
	)
	if err != nil {
		return Job{}, err
	}

	j.Requirements = deref(requirements)
	j.EducationRequired = deref(education)
	j.Location = deref(location)
	j.Salary = deref(salary)
	j.Email = deref(email)
	j.Phone = deref(phone)
	j.CompanyName = deref(companyName)
	return j, nil
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func insertModerationEvent(ctx context.Context, tx pgx.Tx, jobID, action, actorID string, payload map[string]any) error {
	if payload == nil {
		payload = map[string]any{}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("job: marshal event payload: %w", err)
	}

	var actor any
	if actorID != "" {
		actor = actorID
	}

	const q = `
		INSERT INTO moderation_events (job_id, action, actor_id, payload)
		VALUES ($1, $2, $3::uuid, $4::jsonb)
	`
	if _, err := tx.Exec(ctx, q, jobID, action, actor, body); err != nil {
		return fmt.Errorf("job: insert moderation event: %w", err)
	}
	return nil
}
