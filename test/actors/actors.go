package actors

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Submitter posts a stream of pending jobs for the same company, mirroring the
// repository's insert-plus-event transaction.
func Submitter(ctx context.Context, pool *pgxpool.Pool, companyID string, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}
		var jobID string
		err = tx.QueryRow(ctx, `INSERT INTO jobs (company_id, title, description, status, company_name)
                                VALUES ($1, $2, 'stress posting', 'pending', 'Stress Co') RETURNING id`,
			companyID, fmt.Sprintf("Posting %d", rand.Int63())).Scan(&jobID)
		if err == nil {
			_, err = tx.Exec(ctx, `INSERT INTO moderation_events (job_id, action, actor_id, payload)
                                   VALUES ($1, 'JOB_CREATED', $2, '{}'::jsonb)`, jobID, companyID)
		}
		if err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("submitter insert: %w", err)
		}
		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("submitter commit: %w", err)
		}
		time.Sleep(time.Duration(10+rand.Intn(20)) * time.Millisecond)
	}
}

// Moderator claims one pending job with SKIP LOCKED and decides it, appending
// the matching moderation event in the same transaction.
func Moderator(ctx context.Context, pool *pgxpool.Pool, adminID string, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}
		var jobID string
		err = tx.QueryRow(ctx, `SELECT id FROM jobs WHERE status='pending' LIMIT 1 FOR UPDATE SKIP LOCKED`).Scan(&jobID)
		if err == nil {
			status := "approved"
			action := "JOB_APPROVED"
			if rand.Intn(4) == 0 {
				status = "rejected"
				action = "JOB_REJECTED"
			}
			_, err = tx.Exec(ctx, `UPDATE jobs SET status=$2, updated_at=NOW() WHERE id=$1 AND status='pending'`, jobID, status)
			if err == nil {
				_, _ = tx.Exec(ctx, `INSERT INTO moderation_events (job_id, action, actor_id, payload)
                                     VALUES ($1, $2, $3, jsonb_build_object('status', $4))`, jobID, action, adminID, status)
				_ = tx.Commit(ctx)
				time.Sleep(time.Duration(20+rand.Intn(40)) * time.Millisecond)
				continue
			}
		}
		_ = tx.Rollback(ctx)
		time.Sleep(time.Duration(20+rand.Intn(40)) * time.Millisecond)
	}
}

// Deleter removes random postings the way an owner withdrawing them would,
// keeping the audit trail behind.
func Deleter(ctx context.Context, pool *pgxpool.Pool, companyID string, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}
		var jobID string
		err = tx.QueryRow(ctx, `SELECT id FROM jobs WHERE company_id=$1 ORDER BY random() LIMIT 1 FOR UPDATE SKIP LOCKED`, companyID).Scan(&jobID)
		if err == nil {
			_, err = tx.Exec(ctx, `DELETE FROM jobs WHERE id=$1`, jobID)
			if err == nil {
				_, _ = tx.Exec(ctx, `INSERT INTO moderation_events (job_id, action, actor_id, payload)
                                     VALUES ($1, 'JOB_DELETED', $2, '{}'::jsonb)`, jobID, companyID)
				_ = tx.Commit(ctx)
				time.Sleep(time.Duration(100+rand.Intn(100)) * time.Millisecond)
				continue
			}
		}
		_ = tx.Rollback(ctx)
		time.Sleep(time.Duration(100+rand.Intn(100)) * time.Millisecond)
	}
}

// PublicReader hammers the public listing the way the board does; results are
// incidental, the point is read traffic racing the moderators.
func PublicReader(ctx context.Context, pool *pgxpool.Pool, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		rows, err := pool.Query(ctx, `SELECT id, status FROM jobs WHERE status='approved' ORDER BY created_at DESC, id`)
		if err == nil {
			for rows.Next() {
				var id, status string
				_ = rows.Scan(&id, &status)
			}
			rows.Close()
		}
		time.Sleep(time.Duration(15+rand.Intn(35)) * time.Millisecond)
	}
}

// Registrar repeatedly registers the same email to exercise the unique
// constraint under contention. Duplicate failures are the expected outcome.
func Registrar(ctx context.Context, pool *pgxpool.Pool, email string, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		_, err := pool.Exec(ctx, `INSERT INTO profiles (email, role, company_name) VALUES ($1, 'company', 'Dup Co')`, email)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				// expected under contention
			} else {
				return fmt.Errorf("registrar insert: %w", err)
			}
		}
		time.Sleep(time.Duration(50+rand.Intn(50)) * time.Millisecond)
	}
}
