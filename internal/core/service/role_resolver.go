package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/openforum/session-gateway/internal/core/domain"
	"github.com/openforum/session-gateway/internal/core/ports"
)

// RoleResolver derives the authorization role for the current identity with
// one directory lookup per email, cached until explicitly refetched. The
// cache is keyed by email, so a stale role for a previous identity can
// never authorize a gate for the next one; on every identity change the
// resolver additionally prunes entries for other emails.
//
// An email with no directory record resolves to "user". That default is
// permissive rather than fail-closed; it mirrors the observed behavior and
// is flagged in DESIGN.md.
type RoleResolver struct {
	directory ports.ProfileDirectory
	session   *SessionStore
	log       zerolog.Logger

	mu    sync.Mutex
	cache map[string]domain.Role

	unsubscribe func()
}

func NewRoleResolver(directory ports.ProfileDirectory, session *SessionStore, log zerolog.Logger) *RoleResolver {
	r := &RoleResolver{
		directory: directory,
		session:   session,
		log:       log,
		cache:     make(map[string]domain.Role),
	}
	r.unsubscribe = session.Subscribe(r.onSessionChange)
	return r
}

// Resolve returns the role for email. An absent email, or a session still
// loading, short-circuits to the "user" default with no network call.
func (r *RoleResolver) Resolve(ctx context.Context, email string) (domain.Role, error) {
	if email == "" || r.session.Current().IsLoading {
		return domain.Role{Email: email, Value: domain.RoleUser}, nil
	}

	r.mu.Lock()
	cached, ok := r.cache[email]
	r.mu.Unlock()
	if ok {
		return cached, nil
	}

	return r.fetch(ctx, email)
}

// Refetch forces a new directory lookup for the current identity's email,
// overwriting the cached value.
func (r *RoleResolver) Refetch(ctx context.Context) (domain.Role, error) {
	id := r.session.Current().Identity
	if id == nil {
		return domain.Role{Value: domain.RoleUser}, nil
	}
	return r.fetch(ctx, id.Email)
}

// Close detaches the resolver from the session store.
func (r *RoleResolver) Close() {
	if r.unsubscribe != nil {
		r.unsubscribe()
	}
}

func (r *RoleResolver) fetch(ctx context.Context, email string) (domain.Role, error) {
	value, err := r.directory.FetchRole(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrProfileNotFound) {
			value = domain.RoleUser
		} else {
			r.log.Warn().Err(err).Str("email", email).Msg("role lookup failed")
			return domain.Role{Email: email, Value: domain.RoleUser}, err
		}
	}
	if value != domain.RoleAdmin {
		value = domain.RoleUser
	}

	role := domain.Role{Email: email, Value: value, FetchedAt: time.Now().UTC()}
	r.mu.Lock()
	r.cache[email] = role
	r.mu.Unlock()
	return role, nil
}

// onSessionChange keeps only the current email's entry so a role fetched
// for one identity never outlives the switch to another.
func (r *RoleResolver) onSessionChange(sess domain.Session) {
	current := ""
	if sess.Identity != nil {
		current = sess.Identity.Email
	}
	r.mu.Lock()
	for email := range r.cache {
		if email != current {
			delete(r.cache, email)
		}
	}
	r.mu.Unlock()
}
