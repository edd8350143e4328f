package handler

import (
	"context"
	"fmt"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/openforum/session-gateway/internal/core/domain"
	"github.com/openforum/session-gateway/internal/core/ports"
	"github.com/openforum/session-gateway/internal/core/service"
	"github.com/openforum/session-gateway/internal/session"
)

// accountDB is the shared account table behind every fakeIDP a registry
// factory hands out, so a login in one context sees a registration made
// through another.
type accountDB struct {
	mu      sync.Mutex
	byEmail map[string]*fakeAccount
}

type fakeAccount struct {
	uid         string
	password    string
	displayName string
}

func newAccountDB() *accountDB {
	return &accountDB{byEmail: make(map[string]*fakeAccount)}
}

// fakeIDP is an in-memory identity provider for one session context.
type fakeIDP struct {
	db *accountDB

	mu  sync.Mutex
	id  *domain.Identity
	cbs []func(*domain.Identity)
}

func (p *fakeIDP) OnChange(cb func(*domain.Identity)) func() {
	p.mu.Lock()
	p.cbs = append(p.cbs, cb)
	id := p.id
	p.mu.Unlock()
	cb(id)
	return func() {}
}

func (p *fakeIDP) emit(id *domain.Identity) {
	p.mu.Lock()
	p.id = id
	cbs := append([]func(*domain.Identity){}, p.cbs...)
	p.mu.Unlock()
	for _, cb := range cbs {
		cb(id)
	}
}

func (p *fakeIDP) RegisterWithPassword(_ context.Context, email, password string) (*domain.Identity, error) {
	p.db.mu.Lock()
	if _, exists := p.db.byEmail[email]; exists {
		p.db.mu.Unlock()
		return nil, domain.Authf("register", domain.ErrAccountExists, "email already in use")
	}
	uid := fmt.Sprintf("u%d", len(p.db.byEmail)+1)
	p.db.byEmail[email] = &fakeAccount{uid: uid, password: password}
	p.db.mu.Unlock()

	id := &domain.Identity{UID: uid, Email: email}
	p.emit(id)
	return id, nil
}

func (p *fakeIDP) SignInWithPassword(_ context.Context, email, password string) (*domain.Identity, error) {
	p.db.mu.Lock()
	acct, ok := p.db.byEmail[email]
	p.db.mu.Unlock()
	if !ok || acct.password != password {
		return nil, domain.Authf("sign in", nil, "invalid email or password")
	}

	id := &domain.Identity{UID: acct.uid, Email: email, DisplayName: acct.displayName}
	p.emit(id)
	return id, nil
}

func (p *fakeIDP) SignInFederated(context.Context) (*domain.Identity, error) {
	return nil, domain.Authf("federated sign in", nil, "sign-in flow was cancelled")
}

func (p *fakeIDP) SignOut(context.Context) error {
	p.emit(nil)
	return nil
}

func (p *fakeIDP) UpdateProfile(_ context.Context, update domain.ProfileUpdate) error {
	p.mu.Lock()
	id := p.id
	p.mu.Unlock()
	if id == nil {
		return domain.ErrNoIdentity
	}

	next := *id
	if update.DisplayName != nil {
		next.DisplayName = *update.DisplayName
	}
	if update.PhotoURL != nil {
		next.PhotoURL = *update.PhotoURL
	}
	p.db.mu.Lock()
	if acct, ok := p.db.byEmail[next.Email]; ok {
		acct.displayName = next.DisplayName
	}
	p.db.mu.Unlock()
	p.emit(&next)
	return nil
}

func (p *fakeIDP) FreshToken(context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.id == nil {
		return "", domain.ErrNoIdentity
	}
	return "tok-" + p.id.UID, nil
}

// memPrefs keeps themes and tokens in memory.
type memPrefs struct {
	mu     sync.Mutex
	themes map[string]string
}

func newMemPrefs() *memPrefs {
	return &memPrefs{themes: make(map[string]string)}
}

func (s *memPrefs) Theme(_ context.Context, uid string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.themes[uid], nil
}

func (s *memPrefs) SaveTheme(_ context.Context, uid, theme string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.themes[uid] = theme
	return nil
}

func (s *memPrefs) CacheToken(context.Context, string, string) error { return nil }

func (s *memPrefs) CachedToken(context.Context, string) (string, error) { return "", nil }

func (s *memPrefs) ClearToken(context.Context, string) error { return nil }

// memDirectory is an in-memory profile directory.
type memDirectory struct {
	mu    sync.Mutex
	roles map[string]string
	tiers map[string]string
}

func newMemDirectory() *memDirectory {
	return &memDirectory{roles: make(map[string]string), tiers: make(map[string]string)}
}

func (d *memDirectory) CreateProfile(_ context.Context, rec domain.ProfileRecord) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.roles[rec.Email] = rec.Role
	d.tiers[rec.Email] = rec.Tier
	return nil
}

func (d *memDirectory) FetchRole(_ context.Context, email string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	role, ok := d.roles[email]
	if !ok {
		return "", domain.ErrProfileNotFound
	}
	return role, nil
}

func (d *memDirectory) FetchProfile(context.Context, string) (*domain.Profile, error) {
	return nil, domain.ErrProfileNotFound
}

func (d *memDirectory) UpdateTier(_ context.Context, email, tier string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tiers[email] = tier
	return nil
}

// stubPayments approves everything unless told otherwise.
type stubPayments struct {
	confirmErr error
}

func (s *stubPayments) CreatePaymentMethod(context.Context, ports.CardDetails) (string, error) {
	return "pm_1", nil
}

func (s *stubPayments) ConfirmPayment(context.Context, string, int64) (string, error) {
	if s.confirmErr != nil {
		return "", s.confirmErr
	}
	return "re_1", nil
}

// syncRecorder records profiles synchronously, standing in for the queue
// dispatcher.
type syncRecorder struct {
	directory *memDirectory
}

func (r *syncRecorder) Record(rec domain.ProfileRecord) {
	_ = r.directory.CreateProfile(context.Background(), rec)
}

// testEnv wires a registry whose contexts share one account table, one
// directory, and one preference store.
type testEnv struct {
	registry  *session.Registry
	db        *accountDB
	directory *memDirectory
	prefs     *memPrefs
	payments  *stubPayments
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		db:        newAccountDB(),
		directory: newMemDirectory(),
		prefs:     newMemPrefs(),
		payments:  &stubPayments{},
	}

	log := zerolog.Nop()
	factory := func() (*session.Context, error) {
		idp := &fakeIDP{db: env.db}
		store := service.NewSessionStore(idp, env.prefs, domain.ThemeLight, log)
		resolver := service.NewRoleResolver(env.directory, store, log)
		gateway := service.NewIdentityGateway(idp, store, &syncRecorder{directory: env.directory}, service.SignOutAlwaysClear, log)
		return &session.Context{
			Store:      store,
			Gateway:    gateway,
			Roles:      resolver,
			Gate:       service.NewRouteGate(store, resolver),
			Membership: service.NewMembershipService(env.payments, env.directory, store, log),
		}, nil
	}

	reg, err := session.NewRegistry(factory, log)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	env.registry = reg
	return env
}

// newRequestContext builds an echo.Context with a JSON body and a validator
// installed, mirroring what the router sets up.
func newRequestContext(method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}
