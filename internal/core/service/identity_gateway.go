package service

import (
	"context"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/openforum/session-gateway/internal/core/domain"
	"github.com/openforum/session-gateway/internal/core/ports"
)

// SignOutPolicy decides what happens to local state when the remote
// sign-out call fails.
type SignOutPolicy string

const (
	// SignOutAlwaysClear clears the local session regardless of the remote
	// outcome. A visitor who asked to sign out never stays signed in
	// locally. This is the default.
	SignOutAlwaysClear SignOutPolicy = "always_clear"

	// SignOutRemoteFirst keeps the local session when the remote call
	// fails, so local and remote state never diverge.
	SignOutRemoteFirst SignOutPolicy = "remote_first"
)

// ParseSignOutPolicy maps a config string to a policy, defaulting to
// SignOutAlwaysClear.
func ParseSignOutPolicy(s string) SignOutPolicy {
	if SignOutPolicy(strings.ToLower(strings.TrimSpace(s))) == SignOutRemoteFirst {
		return SignOutRemoteFirst
	}
	return SignOutAlwaysClear
}

// ProfileRecorder accepts fire-and-forget profile records for the backend
// directory (the queue dispatcher in production, a stub in tests).
type ProfileRecorder interface {
	Record(rec domain.ProfileRecord)
}

const minPasswordLen = 6

// IdentityGateway wraps the identity provider and normalizes its sign-in,
// sign-out, and registration operations into uniform outcomes. Local input
// policy failures surface as ValidationError before any provider call;
// provider rejections surface as AuthError with the provider's message.
type IdentityGateway struct {
	provider ports.IdentityProvider
	session  *SessionStore
	records  ProfileRecorder
	policy   SignOutPolicy
	log      zerolog.Logger
}

func NewIdentityGateway(provider ports.IdentityProvider, session *SessionStore, records ProfileRecorder, policy SignOutPolicy, log zerolog.Logger) *IdentityGateway {
	if policy == "" {
		policy = SignOutAlwaysClear
	}
	return &IdentityGateway{
		provider: provider,
		session:  session,
		records:  records,
		policy:   policy,
		log:      log,
	}
}

// Register creates a new account. The created identity's display name
// always equals the supplied value; when the provider's registration call
// does not take one, a follow-up profile update sets it. Every successful
// registration also emits a directory record with role "user" and the
// Bronze Badge tier; that emission is fire-and-forget and its failure never
// rolls back the created identity.
func (g *IdentityGateway) Register(ctx context.Context, email, password, displayName string) (*domain.Identity, error) {
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	if strings.TrimSpace(displayName) == "" {
		return nil, domain.Invalid("display_name", "is required")
	}

	id, err := g.provider.RegisterWithPassword(ctx, email, password)
	if err != nil {
		return nil, asAuthError("register", err)
	}

	if id.DisplayName != displayName {
		name := displayName
		if err := g.provider.UpdateProfile(ctx, domain.ProfileUpdate{DisplayName: &name}); err != nil {
			return nil, asAuthError("register", err)
		}
		id.DisplayName = displayName
	}

	g.records.Record(domain.NewProfileRecord(id, time.Now()))
	g.log.Info().Str("uid", id.UID).Str("email", id.Email).Msg("account registered")
	return id, nil
}

// SignIn authenticates with email and password. Rejections carry the
// provider's own human-readable message, never a swallowed generic one.
func (g *IdentityGateway) SignIn(ctx context.Context, email, password string) (*domain.Identity, error) {
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if password == "" {
		return nil, domain.Invalid("password", "is required")
	}

	id, err := g.provider.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, asAuthError("sign in", err)
	}
	return id, nil
}

// SignInFederated runs the provider's interactive flow. A first federated
// login also emits the default directory record.
func (g *IdentityGateway) SignInFederated(ctx context.Context) (*domain.Identity, error) {
	id, err := g.provider.SignInFederated(ctx)
	if err != nil {
		return nil, asAuthError("federated sign in", err)
	}
	g.records.Record(domain.NewProfileRecord(id, time.Now()))
	return id, nil
}

// SignOut invalidates the session. Under the default always-clear policy
// the local session is gone after SignOut returns whether or not the remote
// call succeeded; the remote failure is still reported to the caller.
func (g *IdentityGateway) SignOut(ctx context.Context) error {
	err := g.provider.SignOut(ctx)
	if err == nil {
		return nil
	}
	if g.policy == SignOutAlwaysClear {
		g.log.Warn().Err(err).Msg("remote sign-out failed, clearing local session anyway")
		g.session.ClearIdentity(ctx)
	}
	return asAuthError("sign out", err)
}

// UpdateIdentity applies a partial profile update to the current identity.
func (g *IdentityGateway) UpdateIdentity(ctx context.Context, update domain.ProfileUpdate) error {
	if g.session.Current().Identity == nil {
		return &domain.AuthError{Op: "update profile", Message: "no identity signed in", Err: domain.ErrNoIdentity}
	}
	if update.DisplayName != nil && strings.TrimSpace(*update.DisplayName) == "" {
		return domain.Invalid("display_name", "must not be empty")
	}
	if err := g.provider.UpdateProfile(ctx, update); err != nil {
		return asAuthError("update profile", err)
	}
	return nil
}

func validateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return domain.Invalid("email", "is required")
	}
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return domain.Invalid("email", "is not a valid address")
	}
	return nil
}

// validatePassword enforces the local policy before any provider call:
// minimum length, at least one letter and one digit.
func validatePassword(password string) error {
	if len(password) < minPasswordLen {
		return domain.Invalid("password", "must be at least 6 characters")
	}
	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return domain.Invalid("password", "must contain a letter and a digit")
	}
	return nil
}

// asAuthError passes through the taxonomy types untouched and wraps
// anything else as an AuthError with the underlying message preserved.
func asAuthError(op string, err error) error {
	if domain.IsAuthError(err) || domain.IsValidationError(err) {
		return err
	}
	return domain.Authf(op, err, "%s", err.Error())
}
