package ports

import (
	"context"

	"github.com/openforum/session-gateway/internal/core/domain"
)

// IdentityProvider is the external identity collaborator: email/password and
// federated sign-in, session/token issuance, profile update. Implementations
// normalize their failures into domain.AuthError with the provider's own
// message preserved.
//
// The change callback registered via OnChange is guaranteed to fire at least
// once after subscription, even if only to report "no identity". Identities
// delivered through it may carry an empty Token; callers materialize a
// usable token with FreshToken.
type IdentityProvider interface {
	RegisterWithPassword(ctx context.Context, email, password string) (*domain.Identity, error)
	SignInWithPassword(ctx context.Context, email, password string) (*domain.Identity, error)

	// SignInFederated runs the provider-controlled interactive flow. The
	// flow's result (the authorization code) travels in ctx; see the oauth
	// adapter for how it is attached.
	SignInFederated(ctx context.Context) (*domain.Identity, error)

	SignOut(ctx context.Context) error
	UpdateProfile(ctx context.Context, update domain.ProfileUpdate) error

	// OnChange registers cb to be invoked on every identity change,
	// including silent token refresh and sign-out (nil identity). Returns
	// an unsubscribe function.
	OnChange(cb func(*domain.Identity)) (unsubscribe func())

	FreshToken(ctx context.Context) (string, error)
}
