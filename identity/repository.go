package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrProfileNotFound signals that no profile row exists for the user.
var ErrProfileNotFound = errors.New("identity: profile not found")

// Profile is the store-of-record view of a user consulted at resolution time.
type Profile struct {
	ID          string
	Email       string
	Role        Role
	CompanyName string
}

// ProfileRepository provides the fresh profile read the resolver depends on.
type ProfileRepository interface {
	GetProfileByID(ctx context.Context, userID string) (Profile, error)
}

// PGRepository implements ProfileRepository backed by PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository wires a pgxpool-backed profile repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// GetProfileByID fetches the profile row for the user id. The returned role is
// the authoritative value for authorization decisions.
func (r *PGRepository) GetProfileByID(ctx context.Context, userID string) (Profile, error) {
	const query = `
		SELECT id, email, role, company_name
		FROM profiles
		WHERE id = $1
	`

	var (
		p           Profile
		companyName *string
	)
	err := r.pool.QueryRow(ctx, query, userID).Scan(&p.ID, &p.Email, &p.Role, &companyName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, ErrProfileNotFound
		}
		return Profile{}, fmt.Errorf("identity: query profile: %w", err)
	}

	if companyName != nil {
		p.CompanyName = *companyName
	}
	return p, nil
}
