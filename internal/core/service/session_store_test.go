package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/openforum/session-gateway/internal/core/domain"
)

// stubProvider is an in-memory identity provider. Tests drive the change
// stream explicitly through emit, so the "first callback" moment is under
// test control.
type stubProvider struct {
	mu      sync.Mutex
	cbs     map[int]func(*domain.Identity)
	nextCB  int
	current *domain.Identity

	token    string
	tokenErr error

	registerErr error
	signInErr   error
	fedErr      error
	signOutErr  error
	updateErr   error
}

func newStubProvider() *stubProvider {
	return &stubProvider{cbs: make(map[int]func(*domain.Identity)), token: "tok-1"}
}

func (p *stubProvider) emit(id *domain.Identity) {
	p.mu.Lock()
	p.current = id
	cbs := make([]func(*domain.Identity), 0, len(p.cbs))
	for i := 0; i < p.nextCB; i++ {
		if cb, ok := p.cbs[i]; ok {
			cbs = append(cbs, cb)
		}
	}
	p.mu.Unlock()
	for _, cb := range cbs {
		cb(id)
	}
}

func (p *stubProvider) OnChange(cb func(*domain.Identity)) func() {
	p.mu.Lock()
	id := p.nextCB
	p.nextCB++
	p.cbs[id] = cb
	p.mu.Unlock()
	return func() {
		p.mu.Lock()
		delete(p.cbs, id)
		p.mu.Unlock()
	}
}

func (p *stubProvider) FreshToken(context.Context) (string, error) {
	return p.token, p.tokenErr
}

func (p *stubProvider) RegisterWithPassword(_ context.Context, email, _ string) (*domain.Identity, error) {
	if p.registerErr != nil {
		return nil, p.registerErr
	}
	id := &domain.Identity{UID: "uid-" + email, Email: email}
	p.emit(id)
	clone := *id
	return &clone, nil
}

func (p *stubProvider) SignInWithPassword(_ context.Context, email, _ string) (*domain.Identity, error) {
	if p.signInErr != nil {
		return nil, p.signInErr
	}
	id := &domain.Identity{UID: "uid-" + email, Email: email, DisplayName: "someone"}
	p.emit(id)
	clone := *id
	return &clone, nil
}

func (p *stubProvider) SignInFederated(context.Context) (*domain.Identity, error) {
	if p.fedErr != nil {
		return nil, p.fedErr
	}
	id := &domain.Identity{UID: "uid-fed", Email: "fed@example.com", DisplayName: "Fed"}
	p.emit(id)
	clone := *id
	return &clone, nil
}

func (p *stubProvider) SignOut(context.Context) error {
	if p.signOutErr != nil {
		return p.signOutErr
	}
	p.emit(nil)
	return nil
}

func (p *stubProvider) UpdateProfile(_ context.Context, update domain.ProfileUpdate) error {
	if p.updateErr != nil {
		return p.updateErr
	}
	p.mu.Lock()
	cur := p.current
	p.mu.Unlock()
	if cur == nil {
		return domain.ErrNoIdentity
	}
	clone := *cur
	if update.DisplayName != nil {
		clone.DisplayName = *update.DisplayName
	}
	if update.PhotoURL != nil {
		clone.PhotoURL = *update.PhotoURL
	}
	p.emit(&clone)
	return nil
}

// stubPrefs is an in-memory preference store.
type stubPrefs struct {
	mu     sync.Mutex
	themes map[string]string
	tokens map[string]string
	errs   bool
}

func newStubPrefs() *stubPrefs {
	return &stubPrefs{themes: make(map[string]string), tokens: make(map[string]string)}
}

func (s *stubPrefs) Theme(_ context.Context, uid string) (string, error) {
	if s.errs {
		return "", errors.New("prefs unavailable")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.themes[uid], nil
}

func (s *stubPrefs) SaveTheme(_ context.Context, uid, theme string) error {
	if s.errs {
		return errors.New("prefs unavailable")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.themes[uid] = theme
	return nil
}

func (s *stubPrefs) CacheToken(_ context.Context, uid, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[uid] = token
	return nil
}

func (s *stubPrefs) CachedToken(_ context.Context, uid string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens[uid], nil
}

func (s *stubPrefs) ClearToken(_ context.Context, uid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, uid)
	return nil
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func TestSessionStore_LoadingUntilFirstCallback(t *testing.T) {
	provider := newStubProvider()
	store := NewSessionStore(provider, newStubPrefs(), domain.ThemeLight, testLogger())
	defer store.Close()

	if sess := store.Current(); !sess.IsLoading {
		t.Fatalf("expected loading before first provider callback")
	}

	// First callback reports "no identity" — still ends loading.
	provider.emit(nil)

	sess := store.Current()
	if sess.IsLoading {
		t.Fatalf("expected loading to end after first callback")
	}
	if sess.Identity != nil {
		t.Fatalf("expected no identity, got %+v", sess.Identity)
	}
}

func TestSessionStore_TokenMaterializedBeforeReady(t *testing.T) {
	provider := newStubProvider()
	provider.token = "fresh-token"
	prefs := newStubPrefs()
	store := NewSessionStore(provider, prefs, domain.ThemeLight, testLogger())
	defer store.Close()

	var readySnapshot *domain.Session
	store.Subscribe(func(sess domain.Session) {
		if readySnapshot == nil {
			snap := sess
			readySnapshot = &snap
		}
	})

	provider.emit(&domain.Identity{UID: "u1", Email: "a@b.com"})

	if readySnapshot == nil {
		t.Fatalf("subscriber did not fire")
	}
	if readySnapshot.IsLoading {
		t.Fatalf("snapshot still loading")
	}
	if readySnapshot.Identity == nil || readySnapshot.Identity.Token != "fresh-token" {
		t.Fatalf("token not materialized before ready notification: %+v", readySnapshot.Identity)
	}

	if got, _ := prefs.CachedToken(context.Background(), "u1"); got != "fresh-token" {
		t.Fatalf("token not cached, got %q", got)
	}
}

func TestSessionStore_SubscribersFireInRegistrationOrder(t *testing.T) {
	provider := newStubProvider()
	store := NewSessionStore(provider, newStubPrefs(), domain.ThemeLight, testLogger())
	defer store.Close()

	var order []int
	store.Subscribe(func(domain.Session) { order = append(order, 1) })
	unsub := store.Subscribe(func(domain.Session) { order = append(order, 2) })
	store.Subscribe(func(domain.Session) { order = append(order, 3) })

	provider.emit(nil)
	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Fatalf("unexpected fire order: %v", order)
	}

	order = nil
	unsub()
	provider.emit(&domain.Identity{UID: "u1", Email: "a@b.com"})
	if len(order) != 2 || order[0] != 1 || order[1] != 3 {
		t.Fatalf("unsubscribed callback still fired: %v", order)
	}
}

func TestSessionStore_ThemeTogglePersists(t *testing.T) {
	provider := newStubProvider()
	prefs := newStubPrefs()
	store := NewSessionStore(provider, prefs, domain.ThemeLight, testLogger())

	provider.emit(&domain.Identity{UID: "u1", Email: "a@b.com"})

	next, err := store.ToggleTheme(context.Background())
	if err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	if next != domain.ThemeDark {
		t.Fatalf("expected dark after toggle, got %s", next)
	}
	store.Close()

	// A fresh store for the same principal picks up the persisted value.
	provider2 := newStubProvider()
	store2 := NewSessionStore(provider2, prefs, domain.ThemeLight, testLogger())
	defer store2.Close()
	provider2.emit(&domain.Identity{UID: "u1", Email: "a@b.com"})

	if got := store2.Current().Theme; got != domain.ThemeDark {
		t.Fatalf("persisted theme not restored, got %s", got)
	}
}

func TestSessionStore_ThemeDoesNotNotifyOrTouchIdentity(t *testing.T) {
	provider := newStubProvider()
	store := NewSessionStore(provider, newStubPrefs(), domain.ThemeLight, testLogger())
	defer store.Close()
	provider.emit(&domain.Identity{UID: "u1", Email: "a@b.com"})

	fired := 0
	store.Subscribe(func(domain.Session) { fired++ })

	if err := store.SetTheme(context.Background(), domain.ThemeDark); err != nil {
		t.Fatalf("set theme: %v", err)
	}
	if fired != 0 {
		t.Fatalf("theme change notified identity subscribers")
	}
	sess := store.Current()
	if sess.Identity == nil || sess.Identity.UID != "u1" {
		t.Fatalf("theme change disturbed identity: %+v", sess.Identity)
	}
	if sess.Theme != domain.ThemeDark {
		t.Fatalf("theme not applied")
	}
}

func TestSessionStore_SetThemeRejectsUnknownValue(t *testing.T) {
	provider := newStubProvider()
	store := NewSessionStore(provider, newStubPrefs(), domain.ThemeLight, testLogger())
	defer store.Close()

	err := store.SetTheme(context.Background(), "sepia")
	if !domain.IsValidationError(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestSessionStore_ClearIdentityNotifiesAndDropsCachedToken(t *testing.T) {
	provider := newStubProvider()
	prefs := newStubPrefs()
	store := NewSessionStore(provider, prefs, domain.ThemeLight, testLogger())
	defer store.Close()
	provider.emit(&domain.Identity{UID: "u1", Email: "a@b.com"})

	var last *domain.Session
	store.Subscribe(func(sess domain.Session) { last = &sess })

	store.ClearIdentity(context.Background())

	if store.Current().Identity != nil {
		t.Fatalf("identity survived clear")
	}
	if last == nil || last.Identity != nil {
		t.Fatalf("subscriber not told about the clear")
	}
	if got, _ := prefs.CachedToken(context.Background(), "u1"); got != "" {
		t.Fatalf("cached token survived clear: %q", got)
	}
}

func TestSessionStore_CloseStopsNotifications(t *testing.T) {
	provider := newStubProvider()
	store := NewSessionStore(provider, newStubPrefs(), domain.ThemeLight, testLogger())

	fired := 0
	store.Subscribe(func(domain.Session) { fired++ })
	store.Close()

	provider.emit(&domain.Identity{UID: "u1", Email: "a@b.com"})
	if fired != 0 {
		t.Fatalf("closed store still dispatched")
	}
	if !store.Current().IsLoading {
		t.Fatalf("closed store mutated state")
	}
}
