package identity

import (
	"context"

	"go.uber.org/zap"
)

// TokenVerifier validates a session token and returns the user id plus the
// advisory role claim embedded in it.
type TokenVerifier interface {
	VerifyToken(token string) (userID string, claimRole Role, err error)
}

// Resolver turns an opaque session token into an Identity whose role is
// re-derived from the store of record on every call.
type Resolver struct {
	tokens   TokenVerifier
	profiles ProfileRepository
	allow    AllowList
	logger   *zap.Logger
}

// NewResolver builds a Resolver. The allow-list feeds diagnostics only.
func NewResolver(tokens TokenVerifier, profiles ProfileRepository, allow AllowList, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		tokens:   tokens,
		profiles: profiles,
		allow:    allow,
		logger:   logger,
	}
}

// Resolve verifies the token and loads the current profile. Any failure along
// the way, including a store read error, yields ErrUnauthenticated so callers
// always fail closed to the anonymous view.
func (r *Resolver) Resolve(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}

	userID, claimRole, err := r.tokens.VerifyToken(token)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	profile, err := r.profiles.GetProfileByID(ctx, userID)
	if err != nil {
		r.logger.Warn("identity: profile read failed, failing closed",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return nil, ErrUnauthenticated
	}

	if claimRole != profile.Role {
		// The store wins. The stale claim is only worth a diagnostic.
		r.logger.Warn("identity: token role claim disagrees with store",
			zap.String("user_id", userID),
			zap.String("claim_role", string(claimRole)),
			zap.String("store_role", string(profile.Role)),
		)
	}

	return &Identity{
		ID:          profile.ID,
		Email:       profile.Email,
		Role:        profile.Role,
		CompanyName: profile.CompanyName,
	}, nil
}

// DebugReport cross-checks every admin signal for a session without granting
// anything: the token claim, the store role, and allow-list membership.
type DebugReport struct {
	UserID           string
	Email            string
	ClaimRole        Role
	StoreRole        Role
	RolesAgree       bool
	EmailAllowListed bool
}

// Report resolves the token and assembles a DebugReport. Intended for admin
// troubleshooting surfaces; never consulted by the authorization policy.
func (r *Resolver) Report(ctx context.Context, token string) (DebugReport, error) {
	if token == "" {
		return DebugReport{}, ErrUnauthenticated
	}

	userID, claimRole, err := r.tokens.VerifyToken(token)
	if err != nil {
		return DebugReport{}, ErrUnauthenticated
	}

	profile, err := r.profiles.GetProfileByID(ctx, userID)
	if err != nil {
		return DebugReport{}, ErrUnauthenticated
	}

	return DebugReport{
		UserID:           profile.ID,
		Email:            profile.Email,
		ClaimRole:        claimRole,
		StoreRole:        profile.Role,
		RolesAgree:       claimRole == profile.Role,
		EmailAllowListed: r.allow.Contains(profile.Email),
	}, nil
}
