package ports

import (
	"context"

	"github.com/openforum/session-gateway/internal/core/domain"
)

// ProfileDirectory is the backend REST collaborator holding account records,
// roles, and membership tiers. Non-2xx responses surface as
// domain.NetworkError carrying the backend's message.
type ProfileDirectory interface {
	// CreateProfile records a newly created account. The backend treats a
	// duplicate record as success.
	CreateProfile(ctx context.Context, rec domain.ProfileRecord) error

	// FetchRole looks up the role for one email. Returns
	// domain.ErrProfileNotFound when no record exists.
	FetchRole(ctx context.Context, email string) (string, error)

	// FetchProfile returns the full directory record for one email.
	FetchProfile(ctx context.Context, email string) (*domain.Profile, error)

	// UpdateTier moves an account to a new membership tier.
	UpdateTier(ctx context.Context, email, tier string) error
}
