package service

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/openforum/session-gateway/internal/core/domain"
	"github.com/openforum/session-gateway/internal/core/ports"
)

type subscriber struct {
	id int
	fn func(domain.Session)
}

// SessionStore is the observable session context for one principal. It
// registers exactly one change listener with the identity provider for its
// lifetime; that listener is the sole writer of the identity and loading
// fields. View-layer code reads snapshots via Current and never mutates.
//
// The store starts loading and stays loading until the provider's first
// callback, even when that callback reports "no identity".
type SessionStore struct {
	provider ports.IdentityProvider
	prefs    ports.PreferenceStore
	log      zerolog.Logger

	mu        sync.Mutex
	identity  *domain.Identity
	loading   bool
	theme     string
	subs      []subscriber
	nextSubID int
	closed    bool

	unsubscribe func()
}

// NewSessionStore builds a store and subscribes it to the provider.
// defaultTheme is the ambient preference used until a persisted one is
// known; it must be domain.ThemeDark or domain.ThemeLight.
func NewSessionStore(provider ports.IdentityProvider, prefs ports.PreferenceStore, defaultTheme string, log zerolog.Logger) *SessionStore {
	if defaultTheme != domain.ThemeDark {
		defaultTheme = domain.ThemeLight
	}
	s := &SessionStore{
		provider: provider,
		prefs:    prefs,
		log:      log,
		loading:  true,
		theme:    defaultTheme,
	}
	s.unsubscribe = provider.OnChange(s.onProviderChange)
	return s
}

// Current returns a synchronous snapshot of the session.
func (s *SessionStore) Current() domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Token returns the current bearer token, or "" when anonymous. It
// satisfies httpclient.TokenSource so outgoing requests read the token at
// send time rather than at client construction time.
func (s *SessionStore) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity == nil {
		return ""
	}
	return s.identity.Token
}

// Subscribe registers fn to run synchronously whenever identity or the
// loading flag changes. Subscribers fire in registration order. The
// returned function unsubscribes.
func (s *SessionStore) Subscribe(fn func(domain.Session)) func() {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// SetTheme switches the theme preference and persists it. Theme changes are
// independent of identity and do not notify subscribers.
func (s *SessionStore) SetTheme(ctx context.Context, theme string) error {
	if theme != domain.ThemeDark && theme != domain.ThemeLight {
		return domain.Invalid("theme", "must be dark or light")
	}

	s.mu.Lock()
	s.theme = theme
	uid := ""
	if s.identity != nil {
		uid = s.identity.UID
	}
	s.mu.Unlock()

	if uid == "" {
		return nil
	}
	if err := s.prefs.SaveTheme(ctx, uid, theme); err != nil {
		s.log.Warn().Err(err).Str("uid", uid).Msg("theme preference not persisted")
		return err
	}
	return nil
}

// ToggleTheme flips between dark and light.
func (s *SessionStore) ToggleTheme(ctx context.Context) (string, error) {
	s.mu.Lock()
	next := domain.ThemeDark
	if s.theme == domain.ThemeDark {
		next = domain.ThemeLight
	}
	s.mu.Unlock()
	return next, s.SetTheme(ctx, next)
}

// ClearIdentity drops the local identity without waiting for a provider
// callback. The identity gateway uses it when the sign-out policy demands
// a local clear even though the remote sign-out call failed.
func (s *SessionStore) ClearIdentity(ctx context.Context) {
	s.mu.Lock()
	uid := ""
	if s.identity != nil {
		uid = s.identity.UID
	}
	s.identity = nil
	s.loading = false
	snap := s.snapshotLocked()
	subs := make([]subscriber, len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	if uid != "" {
		if err := s.prefs.ClearToken(ctx, uid); err != nil {
			s.log.Debug().Err(err).Msg("cached token not cleared")
		}
	}
	for _, sub := range subs {
		sub.fn(snap)
	}
}

// Close detaches the store from the provider. Snapshot reads remain valid;
// no further change notifications are delivered.
func (s *SessionStore) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}

// onProviderChange is the sole writer of identity and loading. The provider
// replaces the identity wholesale on every event, including silent token
// refresh; before the store reports "ready" it materializes a fresh bearer
// token so any consumer reading Current after the first notification has a
// usable one.
func (s *SessionStore) onProviderChange(id *domain.Identity) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	prevUID := ""
	if s.identity != nil {
		prevUID = s.identity.UID
	}
	s.mu.Unlock()

	ctx := context.Background()

	var next *domain.Identity
	if id != nil {
		clone := *id
		if clone.Token == "" {
			token, err := s.provider.FreshToken(ctx)
			if err != nil {
				s.log.Warn().Err(err).Str("uid", clone.UID).Msg("token materialization failed")
			}
			clone.Token = token
		}
		next = &clone

		if clone.Token != "" {
			if err := s.prefs.CacheToken(ctx, clone.UID, clone.Token); err != nil {
				s.log.Debug().Err(err).Msg("token cache write failed")
			}
		}
	} else if prevUID != "" {
		if err := s.prefs.ClearToken(ctx, prevUID); err != nil {
			s.log.Debug().Err(err).Msg("cached token not cleared")
		}
	}

	// A persisted theme preference wins over the ambient default the first
	// time the principal is known.
	var savedTheme string
	if next != nil && next.UID != prevUID {
		theme, err := s.prefs.Theme(ctx, next.UID)
		if err != nil {
			s.log.Debug().Err(err).Msg("theme preference read failed")
		} else {
			savedTheme = theme
		}
	}

	s.mu.Lock()
	s.identity = next
	s.loading = false
	if savedTheme == domain.ThemeDark || savedTheme == domain.ThemeLight {
		s.theme = savedTheme
	}
	snap := s.snapshotLocked()
	subs := make([]subscriber, len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.fn(snap)
	}
}

func (s *SessionStore) snapshotLocked() domain.Session {
	snap := domain.Session{IsLoading: s.loading, Theme: s.theme}
	if s.identity != nil {
		clone := *s.identity
		snap.Identity = &clone
	}
	return snap
}
