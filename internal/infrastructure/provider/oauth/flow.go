// Package oauth adapts the federated identity collaborator to an OAuth 2.0
// authorization-code flow. The interactive part (the provider-controlled
// consent screen) happens in the visitor's browser; the resulting code
// travels back through the request context via WithCode.
package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
)

type codeKey struct{}

// WithCode attaches the authorization code returned by the provider's
// interactive flow to ctx.
func WithCode(ctx context.Context, code string) context.Context {
	return context.WithValue(ctx, codeKey{}, code)
}

// CodeFromContext extracts the authorization code attached by WithCode.
func CodeFromContext(ctx context.Context) (string, bool) {
	code, ok := ctx.Value(codeKey{}).(string)
	return code, ok && code != ""
}

// Userinfo is the profile the provider reports for a federated principal.
type Userinfo struct {
	Subject string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// Options configures a Flow against one federated provider.
type Options struct {
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	UserinfoURL  string
	RedirectURL  string
	Scopes       []string
}

// Flow runs the authorization-code exchange and userinfo lookup.
type Flow struct {
	conf        *oauth2.Config
	userinfoURL string
}

func NewFlow(opts Options) *Flow {
	return &Flow{
		conf: &oauth2.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			Endpoint: oauth2.Endpoint{
				AuthURL:  opts.AuthURL,
				TokenURL: opts.TokenURL,
			},
			RedirectURL: opts.RedirectURL,
			Scopes:      opts.Scopes,
		},
		userinfoURL: opts.UserinfoURL,
	}
}

// StateToken generates the anti-CSRF state for the authorization redirect.
func (f *Flow) StateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("state token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// AuthURL is where the visitor's browser goes to run the interactive flow.
func (f *Flow) AuthURL(state string) string {
	return f.conf.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// ExchangeUserinfo trades the authorization code for a token and fetches
// the provider's profile with it.
func (f *Flow) ExchangeUserinfo(ctx context.Context, code string) (*Userinfo, error) {
	token, err := f.conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("code exchange: %w", err)
	}

	resp, err := f.conf.Client(ctx, token).Get(f.userinfoURL)
	if err != nil {
		return nil, fmt.Errorf("userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo: provider returned %d", resp.StatusCode)
	}

	var info Userinfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("userinfo decode: %w", err)
	}
	if info.Email == "" {
		return nil, fmt.Errorf("userinfo: provider reported no email")
	}
	return &info, nil
}
