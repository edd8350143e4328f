package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/openforum/session-gateway/internal/core/domain"
	"github.com/openforum/session-gateway/internal/core/service"
	"github.com/openforum/session-gateway/internal/session"
)

// silentProvider never reports an identity change, so the session it backs
// stays in its loading phase.
type silentProvider struct{}

func (silentProvider) OnChange(func(*domain.Identity)) func() { return func() {} }

func (silentProvider) FreshToken(context.Context) (string, error) {
	return "", domain.ErrNoIdentity
}

func (silentProvider) RegisterWithPassword(context.Context, string, string) (*domain.Identity, error) {
	return nil, errors.New("not supported")
}

func (silentProvider) SignInWithPassword(context.Context, string, string) (*domain.Identity, error) {
	return nil, errors.New("not supported")
}

func (silentProvider) SignInFederated(context.Context) (*domain.Identity, error) {
	return nil, errors.New("not supported")
}

func (silentProvider) SignOut(context.Context) error { return nil }

func (silentProvider) UpdateProfile(context.Context, domain.ProfileUpdate) error { return nil }

func runGate(t *testing.T, sc *session.Context, kind domain.RouteKind, path string) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(CtxSession, sc)

	handler := Gate(kind)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	err := handler(c)
	if err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec, err
}

func TestGate_AdminRoleAllowed(t *testing.T) {
	sc := newTestContext(&domain.Identity{UID: "u1", Email: "admin@b.com"},
		fixedRoles{"admin@b.com": domain.RoleAdmin})

	rec, err := runGate(t, sc, domain.RouteAdmin, "/admin/sessions")
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestGate_AdminRoleForbidden(t *testing.T) {
	sc := newTestContext(&domain.Identity{UID: "u1", Email: "user@b.com"},
		fixedRoles{"user@b.com": domain.RoleUser})

	rec, _ := runGate(t, sc, domain.RouteAdmin, "/admin/sessions")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}

	var d domain.GateDecision
	if err := json.Unmarshal(rec.Body.Bytes(), &d); err != nil {
		t.Fatalf("decode decision: %v", err)
	}
	if d.RedirectTo != domain.ForbiddenPath {
		t.Fatalf("expected redirect to %s, got %s", domain.ForbiddenPath, d.RedirectTo)
	}
}

func TestGate_AuthenticatedDeniesAnonymous(t *testing.T) {
	sc := newTestContext(nil, fixedRoles{})

	rec, _ := runGate(t, sc, domain.RouteAuthenticated, "/session")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	var d domain.GateDecision
	if err := json.Unmarshal(rec.Body.Bytes(), &d); err != nil {
		t.Fatalf("decode decision: %v", err)
	}
	if d.RedirectTo != domain.LoginPath {
		t.Fatalf("expected redirect to %s, got %s", domain.LoginPath, d.RedirectTo)
	}
	if d.From != "/session" {
		t.Fatalf("expected attempted path preserved, got %s", d.From)
	}
}

func TestGate_PendingWhileLoading(t *testing.T) {
	log := zerolog.Nop()
	store := service.NewSessionStore(silentProvider{}, noopPrefs{}, domain.ThemeLight, log)
	resolver := service.NewRoleResolver(fixedRoles{}, store, log)
	sc := &session.Context{
		Store: store,
		Roles: resolver,
		Gate:  service.NewRouteGate(store, resolver),
	}

	rec, _ := runGate(t, sc, domain.RouteAuthenticated, "/session")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 while loading, got %d", rec.Code)
	}
}
