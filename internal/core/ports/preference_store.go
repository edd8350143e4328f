package ports

import "context"

// PreferenceStore persists the two durable client-side keys: the theme
// preference and a best-effort copy of the last-seen token. The cached token
// is a UI convenience only; privileged decisions always re-derive from the
// live provider.
type PreferenceStore interface {
	// Theme returns the saved preference for uid, or "" when none is saved.
	Theme(ctx context.Context, uid string) (string, error)
	SaveTheme(ctx context.Context, uid, theme string) error

	CacheToken(ctx context.Context, uid, token string) error
	CachedToken(ctx context.Context, uid string) (string, error)
	ClearToken(ctx context.Context, uid string) error
}
