// Package session holds per-principal session contexts for connected
// clients. Each context bundles the observable session store with the
// services derived from it, explicitly constructed and disposed rather
// than living as ambient globals.
package session

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/openforum/session-gateway/internal/core/service"
)

// Context is one principal's fully wired session: the store, the identity
// gateway, the role resolver, the route gate, and the membership service,
// all sharing the same provider connection.
type Context struct {
	Store      *service.SessionStore
	Gateway    *service.IdentityGateway
	Roles      *service.RoleResolver
	Gate       *service.RouteGate
	Membership *service.MembershipService
}

// Close releases the context's subscriptions. Snapshot reads remain valid.
func (c *Context) Close() {
	if c.Roles != nil {
		c.Roles.Close()
	}
	if c.Store != nil {
		c.Store.Close()
	}
}

// Factory builds a fresh, anonymous context wired to a new provider
// connection.
type Factory func() (*Context, error)

// Registry tracks the live contexts keyed by principal UID, plus one shared
// anonymous context used for navigation checks before sign-in.
type Registry struct {
	factory Factory
	log     zerolog.Logger

	mu    sync.Mutex
	byUID map[string]*Context
	anon  *Context
}

func NewRegistry(factory Factory, log zerolog.Logger) (*Registry, error) {
	anon, err := factory()
	if err != nil {
		return nil, err
	}
	return &Registry{
		factory: factory,
		log:     log,
		byUID:   make(map[string]*Context),
		anon:    anon,
	}, nil
}

// NewContext builds an unbound context for a sign-in or registration
// attempt. Bind it once the principal is known.
func (r *Registry) NewContext() (*Context, error) {
	return r.factory()
}

// Bind attaches ctx to uid, replacing (and closing) any previous context
// for the same principal.
func (r *Registry) Bind(uid string, ctx *Context) {
	r.mu.Lock()
	prev := r.byUID[uid]
	r.byUID[uid] = ctx
	r.mu.Unlock()

	if prev != nil && prev != ctx {
		prev.Close()
		r.log.Debug().Str("uid", uid).Msg("replaced existing session context")
	}
}

// Lookup returns the context bound to uid.
func (r *Registry) Lookup(uid string) (*Context, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ctx, ok := r.byUID[uid]
	return ctx, ok
}

// Remove unbinds and closes uid's context.
func (r *Registry) Remove(uid string) {
	r.mu.Lock()
	ctx := r.byUID[uid]
	delete(r.byUID, uid)
	r.mu.Unlock()

	if ctx != nil {
		ctx.Close()
	}
}

// Anonymous is the shared context for visitors with no session. Its
// provider reported "no identity" at startup, so gate checks against it
// settle immediately.
func (r *Registry) Anonymous() *Context {
	return r.anon
}

// Len reports the number of bound contexts, for the sessions gauge.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byUID)
}

// UIDs lists the bound principals, for the admin dashboard.
func (r *Registry) UIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.byUID))
	for uid := range r.byUID {
		out = append(out, uid)
	}
	return out
}
