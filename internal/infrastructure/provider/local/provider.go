// Package local is a self-hosted identity provider for deployments that do
// not delegate to an external one. Accounts live in MongoDB, passwords are
// bcrypt-hashed, and bearer tokens are short-lived HS256 JWTs. Each
// connected client gets its own Session, the per-principal view that
// satisfies ports.IdentityProvider.
package local

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/openforum/session-gateway/internal/core/domain"
	"github.com/openforum/session-gateway/internal/infrastructure/provider/oauth"
)

// AccountStore abstracts account persistence (MongoDB in production).
type AccountStore interface {
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	Create(ctx context.Context, acc *domain.Account) (*domain.Account, error)
	Update(ctx context.Context, acc *domain.Account) error
}

// Federation completes the interactive federated flow. Nil when federated
// sign-in is not configured.
type Federation interface {
	ExchangeUserinfo(ctx context.Context, code string) (*oauth.Userinfo, error)
}

// Provider holds what all sessions share.
type Provider struct {
	accounts   AccountStore
	federation Federation
	jwtSecret  string
	tokenTTL   time.Duration
	log        zerolog.Logger
}

func NewProvider(accounts AccountStore, federation Federation, jwtSecret string, tokenTTL time.Duration, log zerolog.Logger) *Provider {
	if tokenTTL <= 0 {
		tokenTTL = time.Hour
	}
	return &Provider{
		accounts:   accounts,
		federation: federation,
		jwtSecret:  jwtSecret,
		tokenTTL:   tokenTTL,
		log:        log,
	}
}

// NewSession opens a fresh per-client connection with no identity.
func (p *Provider) NewSession() *Session {
	return &Session{provider: p, cbs: make(map[int]func(*domain.Identity))}
}

// VerifyToken parses and validates a bearer token minted by this provider,
// returning the subject and email claims.
func (p *Provider) VerifyToken(token string) (uid, email string, err error) {
	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(p.jwtSecret), nil
	})
	if err != nil || !tkn.Valid {
		return "", "", domain.Authf("verify token", err, "invalid token")
	}
	uid, _ = claims["sub"].(string)
	email, _ = claims["email"].(string)
	if uid == "" {
		return "", "", domain.Authf("verify token", nil, "token missing subject")
	}
	return uid, email, nil
}

// Session is one client's connection to the provider. It implements
// ports.IdentityProvider: every mutation replaces the current identity
// wholesale and notifies the registered change callbacks.
type Session struct {
	provider *Provider

	mu      sync.Mutex
	current *domain.Identity
	cbs     map[int]func(*domain.Identity)
	nextCB  int
}

func (s *Session) RegisterWithPassword(ctx context.Context, email, password string) (*domain.Identity, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	created, err := s.provider.accounts.Create(ctx, &domain.Account{
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, domain.ErrAccountExists) {
			return nil, domain.Authf("register", err, "email already in use")
		}
		return nil, err
	}

	id := created.Identity()
	s.emit(id)
	clone := *id
	return &clone, nil
}

func (s *Session) SignInWithPassword(ctx context.Context, email, password string) (*domain.Identity, error) {
	acc, err := s.provider.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, domain.Authf("sign in", err, "invalid email or password")
		}
		return nil, err
	}
	if acc.Federated || acc.PasswordHash == "" {
		return nil, domain.Authf("sign in", nil, "account uses federated sign-in")
	}
	if bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)) != nil {
		return nil, domain.Authf("sign in", nil, "invalid email or password")
	}

	id := acc.Identity()
	s.emit(id)
	clone := *id
	return &clone, nil
}

// SignInFederated completes the interactive flow whose authorization code
// arrives via oauth.WithCode. The first federated login creates the
// account.
func (s *Session) SignInFederated(ctx context.Context) (*domain.Identity, error) {
	if s.provider.federation == nil {
		return nil, domain.Authf("federated sign in", nil, "federated sign-in is not configured")
	}
	code, ok := oauth.CodeFromContext(ctx)
	if !ok {
		return nil, domain.Authf("federated sign in", nil, "the federated flow was cancelled before completing")
	}

	info, err := s.provider.federation.ExchangeUserinfo(ctx, code)
	if err != nil {
		return nil, domain.Authf("federated sign in", err, "%s", err.Error())
	}

	acc, err := s.provider.accounts.FindByEmail(ctx, info.Email)
	if errors.Is(err, domain.ErrAccountNotFound) {
		now := time.Now().UTC()
		acc, err = s.provider.accounts.Create(ctx, &domain.Account{
			Email:       info.Email,
			DisplayName: info.Name,
			PhotoURL:    info.Picture,
			Federated:   true,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}
	if err != nil {
		return nil, err
	}

	id := acc.Identity()
	s.emit(id)
	clone := *id
	return &clone, nil
}

// SignOut always succeeds locally: there is no remote session to tear down
// beyond forgetting the identity.
func (s *Session) SignOut(context.Context) error {
	s.emit(nil)
	return nil
}

func (s *Session) UpdateProfile(ctx context.Context, update domain.ProfileUpdate) error {
	s.mu.Lock()
	current := s.current
	s.mu.Unlock()
	if current == nil {
		return domain.ErrNoIdentity
	}

	next := *current
	if update.DisplayName != nil {
		next.DisplayName = *update.DisplayName
	}
	if update.PhotoURL != nil {
		next.PhotoURL = *update.PhotoURL
	}

	if err := s.provider.accounts.Update(ctx, &domain.Account{
		UID:         next.UID,
		Email:       next.Email,
		DisplayName: next.DisplayName,
		PhotoURL:    next.PhotoURL,
	}); err != nil {
		return err
	}

	s.emit(&next)
	return nil
}

// OnChange registers cb and delivers the current state to it immediately,
// so a subscriber always hears at least one callback.
func (s *Session) OnChange(cb func(*domain.Identity)) func() {
	s.mu.Lock()
	id := s.nextCB
	s.nextCB++
	s.cbs[id] = cb
	current := s.current
	s.mu.Unlock()

	cb(current)

	return func() {
		s.mu.Lock()
		delete(s.cbs, id)
		s.mu.Unlock()
	}
}

// FreshToken mints a short-lived HS256 token for the current identity.
func (s *Session) FreshToken(context.Context) (string, error) {
	s.mu.Lock()
	current := s.current
	s.mu.Unlock()
	if current == nil {
		return "", domain.ErrNoIdentity
	}

	claims := jwt.MapClaims{
		"sub":   current.UID,
		"email": current.Email,
		"name":  current.DisplayName,
		"exp":   time.Now().Add(s.provider.tokenTTL).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.provider.jwtSecret))
}

func (s *Session) emit(id *domain.Identity) {
	s.mu.Lock()
	s.current = id
	cbs := make([]func(*domain.Identity), 0, len(s.cbs))
	for i := 0; i < s.nextCB; i++ {
		if cb, ok := s.cbs[i]; ok {
			cbs = append(cbs, cb)
		}
	}
	s.mu.Unlock()

	for _, cb := range cbs {
		cb(id)
	}
}
