package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	// JWTSecret signs the session tokens minted by the self-hosted
	// identity provider.
	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"TOKEN_TTL, default=1h"`

	// DefaultTheme is the ambient preference used until a visitor has a
	// persisted one.
	DefaultTheme string `env:"DEFAULT_THEME, default=light"`

	// SignOutPolicy: always_clear (default) or remote_first.
	SignOutPolicy string `env:"SIGNOUT_POLICY, default=always_clear"`

	// ServiceToken authorizes the fire-and-forget directory writes made
	// outside any visitor session (profile records).
	ServiceToken string `env:"SERVICE_TOKEN"`

	Backend BackendConfig
	Payment PaymentConfig
	OAuth   OAuthConfig
	Mongo   MongoConfig
	Redis   RedisConfig
}

type BackendConfig struct {
	BaseURL string `env:"BACKEND_BASE_URL, default=http://localhost:9000"`
}

type PaymentConfig struct {
	BaseURL string `env:"PAYMENT_BASE_URL, default=http://localhost:9100"`
}

// OAuthConfig wires the federated sign-in flow.
type OAuthConfig struct {
	ClientID     string   `env:"OAUTH_CLIENT_ID"`
	ClientSecret string   `env:"OAUTH_CLIENT_SECRET"`
	AuthURL      string   `env:"OAUTH_AUTH_URL"`
	TokenURL     string   `env:"OAUTH_TOKEN_URL"`
	UserinfoURL  string   `env:"OAUTH_USERINFO_URL"`
	RedirectURL  string   `env:"OAUTH_REDIRECT_URL, default=http://localhost:8080/auth/federated/callback"`
	Scopes       []string `env:"OAUTH_SCOPES, default=openid,email,profile"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=openforum"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}
