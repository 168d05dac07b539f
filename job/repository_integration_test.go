package job

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TestLifecycle_Integration connects to a real PostgreSQL via DATABASE_URL and
// walks a posting through create -> approve -> delete, verifying the audit
// trail the repository appends alongside each write.
func TestLifecycle_Integration(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL is empty; set it to a live PostgreSQL to run integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect pool: %v", err)
	}
	defer pool.Close()

	if !tableExists(ctx, t, pool, "profiles") || !tableExists(ctx, t, pool, "jobs") || !tableExists(ctx, t, pool, "moderation_events") {
		t.Skip("database schema missing; apply the files under migrations/ first")
	}

	// Seed the owning company and a moderating admin.
	var companyID, adminID string
	if err := pool.QueryRow(ctx, `INSERT INTO profiles (email, role, company_name) VALUES ($1, 'company', $2) RETURNING id`,
		fmt.Sprintf("hiring+%d@acme.example", time.Now().UnixNano()), "Acme Staffing").Scan(&companyID); err != nil {
		t.Fatalf("seed company: %v", err)
	}
	if err := pool.QueryRow(ctx, `INSERT INTO profiles (email, role) VALUES ($1, 'admin') RETURNING id`,
		fmt.Sprintf("admin+%d@jobboard.example", time.Now().UnixNano())).Scan(&adminID); err != nil {
		t.Fatalf("seed admin: %v", err)
	}

	repo := NewRepository(pool)

	created, err := repo.Create(ctx, Job{
		CompanyID:   companyID,
		Title:       "Backend Engineer",
		Description: "Build Go services",
		JobType:     TypeFullTime,
		CompanyName: "Acme Staffing",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	t.Cleanup(func() {
		ctx2, cancel2 := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel2()
		pool.Exec(ctx2, `DELETE FROM moderation_events WHERE job_id = $1`, created.ID)
		pool.Exec(ctx2, `DELETE FROM jobs WHERE id = $1`, created.ID)
		pool.Exec(ctx2, `DELETE FROM profiles WHERE id IN ($1, $2)`, companyID, adminID)
	})

	if created.Status != StatusPending {
		t.Fatalf("expected new posting to be pending, got %s", created.Status)
	}
	if created.ID == "" {
		t.Fatal("expected store-assigned id")
	}

	// Pending postings must not surface on the public listing.
	approved, err := repo.FetchApproved(ctx)
	if err != nil {
		t.Fatalf("fetch approved: %v", err)
	}
	for _, j := range approved {
		if j.ID == created.ID {
			t.Fatal("pending posting leaked into the approved listing")
		}
	}

	updated, err := repo.UpdateStatus(ctx, created.ID, StatusApproved, adminID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if updated.Status != StatusApproved {
		t.Fatalf("expected approved, got %s", updated.Status)
	}
	if !updated.UpdatedAt.After(created.UpdatedAt) {
		t.Fatalf("expected updated_at to advance: %v -> %v", created.UpdatedAt, updated.UpdatedAt)
	}

	approved, err = repo.FetchApproved(ctx)
	if err != nil {
		t.Fatalf("fetch approved after moderation: %v", err)
	}
	found := false
	for _, j := range approved {
		if j.ID == created.ID {
			found = true
		}
	}
	if !found {
		t.Fatal("approved posting missing from the public listing")
	}

	if _, err := repo.UpdateStatus(ctx, created.ID, Status("archived"), adminID); err == nil {
		t.Fatal("expected invalid status to be rejected")
	}

	deleted, err := repo.Delete(ctx, created.ID, companyID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !deleted {
		t.Fatal("expected delete to report true")
	}

	deleted, err = repo.Delete(ctx, created.ID, companyID)
	if err != nil {
		t.Fatalf("repeat delete: %v", err)
	}
	if deleted {
		t.Fatal("expected repeat delete to report false")
	}

	// The audit trail must survive the posting itself.
	events, err := repo.ListEvents(ctx, created.ID)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d: %+v", len(events), events)
	}
	wantActions := []string{EventJobCreated, EventJobApproved, EventJobDeleted}
	for i, want := range wantActions {
		if events[i].Action != want {
			t.Fatalf("event %d: expected %s, got %s", i, want, events[i].Action)
		}
	}
	if events[1].ActorID == nil || *events[1].ActorID != adminID {
		t.Fatalf("expected approval attributed to %s, got %+v", adminID, events[1].ActorID)
	}
}

func tableExists(ctx context.Context, t *testing.T, pool *pgxpool.Pool, name string) bool {
	t.Helper()
	var exists bool
	err := pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_schema = 'public' AND table_name = $1)`, name).Scan(&exists)
	if err != nil {
		t.Fatalf("check table %s: %v", name, err)
	}
	return exists
}
