package oracles

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Oracle struct {
	Name string
	SQL  string
}

func All() []Oracle {
	return []Oracle{
		{
			Name: "O1_status_domain",
			SQL: `SELECT id, status FROM jobs
                  WHERE status NOT IN ('pending','approved','rejected')`,
		},
		{
			Name: "O2_event_action_domain",
			SQL: `SELECT id, action FROM moderation_events
                  WHERE action NOT IN ('JOB_CREATED','JOB_APPROVED','JOB_REJECTED','JOB_DELETED')`,
		},
		{
			Name: "O3_decisions_have_actor",
			SQL: `SELECT id, action FROM moderation_events
                  WHERE action IN ('JOB_APPROVED','JOB_REJECTED') AND actor_id IS NULL`,
		},
		{
			Name: "O4_every_job_has_creation_event",
			SQL: `SELECT j.id FROM jobs j
                  WHERE NOT EXISTS (
                      SELECT 1 FROM moderation_events e
                      WHERE e.job_id = j.id AND e.action = 'JOB_CREATED')`,
		},
		{
			Name: "O5_single_decision_per_job",
			SQL: `SELECT job_id, COUNT(*) FROM moderation_events
                  WHERE action IN ('JOB_APPROVED','JOB_REJECTED')
                  GROUP BY job_id HAVING COUNT(*) > 1`,
		},
		{
			Name: "O6_decided_jobs_not_pending",
			SQL: `SELECT j.id, j.status FROM jobs j
                  JOIN moderation_events e ON e.job_id = j.id
                  WHERE e.action IN ('JOB_APPROVED','JOB_REJECTED') AND j.status = 'pending'`,
		},
		{
			Name: "O7_timestamps_sane",
			SQL:  `SELECT id FROM jobs WHERE updated_at < created_at`,
		},
		{
			Name: "O8_role_domain",
			SQL:  `SELECT id, role FROM profiles WHERE role NOT IN ('company','admin')`,
		},
	}
}

// Run executes all oracles and returns the first failure (name and sample row text) or empty name if all pass.
func Run(ctx context.Context, pool *pgxpool.Pool) (string, string, error) {
	for _, o := range All() {
		rows, err := pool.Query(ctx, o.SQL)
		if err != nil {
			return o.Name, "", fmt.Errorf("oracle %s: %w", o.Name, err)
		}
		has := rows.Next()
		if has {
			vals, err := rows.Values()
			rows.Close()
			if err != nil {
				return o.Name, "", err
			}
			return o.Name, fmt.Sprintf("%v", vals), nil
		}
		rows.Close()
	}
	return "", "", nil
}
