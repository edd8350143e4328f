package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/openforum/session-gateway/internal/api/middleware"
	"github.com/openforum/session-gateway/internal/core/domain"
)

func TestGateHandler_Check_AnonymousDeniedAuthenticatedRoute(t *testing.T) {
	env := newTestEnv(t)
	h := NewGateHandler()

	c, rec := newRequestContext(http.MethodPost, "/gate/check",
		`{"route":"authenticated","path":"/threads/new"}`)
	c.Set(middleware.CtxSession, env.registry.Anonymous())

	if err := h.Check(c); err != nil {
		t.Fatalf("check: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var d domain.GateDecision
	if err := json.Unmarshal(rec.Body.Bytes(), &d); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if d.State != domain.GateDenyToLogin {
		t.Fatalf("expected deny_to_login, got %q", d.State)
	}
	if d.From != "/threads/new" {
		t.Fatalf("attempted path not preserved: %q", d.From)
	}
	if d.RedirectTo != domain.LoginPath {
		t.Fatalf("expected redirect to %s, got %s", domain.LoginPath, d.RedirectTo)
	}
}

func TestGateHandler_Check_SignedInAllowed(t *testing.T) {
	env := newTestEnv(t)
	h := NewGateHandler()

	sc, err := env.registry.NewContext()
	if err != nil {
		t.Fatalf("context: %v", err)
	}
	if _, err := sc.Gateway.Register(context.Background(), "ann@example.com", "abc123", "Ann"); err != nil {
		t.Fatalf("register: %v", err)
	}

	c, rec := newRequestContext(http.MethodPost, "/gate/check",
		`{"route":"authenticated","path":"/threads/new"}`)
	c.Set(middleware.CtxSession, sc)

	if err := h.Check(c); err != nil {
		t.Fatalf("check: %v", err)
	}

	var d domain.GateDecision
	if err := json.Unmarshal(rec.Body.Bytes(), &d); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if !d.Allowed() {
		t.Fatalf("expected allow, got %q", d.State)
	}
}

func TestGateHandler_Check_RejectsUnknownRoute(t *testing.T) {
	env := newTestEnv(t)
	h := NewGateHandler()

	c, _ := newRequestContext(http.MethodPost, "/gate/check",
		`{"route":"secret","path":"/x"}`)
	c.Set(middleware.CtxSession, env.registry.Anonymous())

	if err := h.Check(c); err == nil {
		t.Fatalf("expected a validation error for an unknown route kind")
	}
}
