package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cached tokens are short-lived by nature; the preference itself never
// expires.
const tokenCacheTTL = time.Hour

// PreferenceStore keeps the two durable per-visitor keys in Redis: the
// theme preference and the best-effort last-seen token cache.
// Key format: prefs:theme:<uid> and prefs:token:<uid>.
type PreferenceStore struct {
	client *redis.Client
}

func NewPreferenceStore(client *redis.Client) *PreferenceStore {
	return &PreferenceStore{client: client}
}

func (p *PreferenceStore) Theme(ctx context.Context, uid string) (string, error) {
	theme, err := p.client.Get(ctx, themeKey(uid)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("theme read: %w", err)
	}
	return theme, nil
}

func (p *PreferenceStore) SaveTheme(ctx context.Context, uid, theme string) error {
	if err := p.client.Set(ctx, themeKey(uid), theme, 0).Err(); err != nil {
		return fmt.Errorf("theme write: %w", err)
	}
	return nil
}

func (p *PreferenceStore) CacheToken(ctx context.Context, uid, token string) error {
	if err := p.client.Set(ctx, tokenKey(uid), token, tokenCacheTTL).Err(); err != nil {
		return fmt.Errorf("token cache write: %w", err)
	}
	return nil
}

func (p *PreferenceStore) CachedToken(ctx context.Context, uid string) (string, error) {
	token, err := p.client.Get(ctx, tokenKey(uid)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("token cache read: %w", err)
	}
	return token, nil
}

func (p *PreferenceStore) ClearToken(ctx context.Context, uid string) error {
	if err := p.client.Del(ctx, tokenKey(uid)).Err(); err != nil {
		return fmt.Errorf("token cache delete: %w", err)
	}
	return nil
}

func themeKey(uid string) string { return "prefs:theme:" + uid }
func tokenKey(uid string) string { return "prefs:token:" + uid }
