package service

import (
	"context"

	"github.com/openforum/session-gateway/internal/core/domain"
)

// RouteGate maps session and role state to an allow/redirect outcome for a
// navigation attempt. Every evaluation starts from scratch; nothing is
// memoized across navigations. While the session is still loading every
// variant reports GatePending, which is always transient.
type RouteGate struct {
	session *SessionStore
	roles   *RoleResolver

	loginPath     string
	forbiddenPath string
}

func NewRouteGate(session *SessionStore, roles *RoleResolver) *RouteGate {
	return &RouteGate{
		session:       session,
		roles:         roles,
		loginPath:     domain.LoginPath,
		forbiddenPath: domain.ForbiddenPath,
	}
}

// Evaluate decides one navigation attempt of the given kind toward path.
func (g *RouteGate) Evaluate(ctx context.Context, kind domain.RouteKind, path string) domain.GateDecision {
	switch kind {
	case domain.RouteAuthenticated:
		return g.evaluateAuthenticated(path)
	case domain.RouteAdmin:
		return g.evaluateAdmin(ctx, path)
	default:
		return g.evaluateAnonymous(path)
	}
}

// evaluateAnonymous gates the login/register pages. Signed-in visitors pass
// through too: there is deliberately no redirect-away-from-auth-pages.
func (g *RouteGate) evaluateAnonymous(path string) domain.GateDecision {
	if g.session.Current().IsLoading {
		return domain.GateDecision{State: domain.GatePending, From: path}
	}
	return domain.GateDecision{State: domain.GateAllow, From: path}
}

func (g *RouteGate) evaluateAuthenticated(path string) domain.GateDecision {
	sess := g.session.Current()
	if sess.IsLoading {
		return domain.GateDecision{State: domain.GatePending, From: path}
	}
	if sess.Identity == nil {
		return domain.GateDecision{
			State:      domain.GateDenyToLogin,
			From:       path,
			RedirectTo: g.loginPath,
		}
	}
	return domain.GateDecision{State: domain.GateAllow, From: path}
}

// evaluateAdmin allows the navigation iff an identity is present and its
// resolved role is admin. Every other combination, including a failed role
// lookup (which resolves to the "user" default), denies to /forbidden.
func (g *RouteGate) evaluateAdmin(ctx context.Context, path string) domain.GateDecision {
	sess := g.session.Current()
	if sess.IsLoading {
		return domain.GateDecision{State: domain.GatePending, From: path}
	}
	deny := domain.GateDecision{
		State:      domain.GateDenyToForbidden,
		From:       path,
		RedirectTo: g.forbiddenPath,
	}
	if sess.Identity == nil {
		return deny
	}
	role, _ := g.roles.Resolve(ctx, sess.Identity.Email)
	if !role.IsAdmin() {
		return deny
	}
	return domain.GateDecision{State: domain.GateAllow, From: path}
}
