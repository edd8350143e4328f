// Package httpclient carries bearer authorization onto outgoing backend
// requests. The token is read at request-send time, never captured at
// client construction, so a refreshed session is picked up by the next
// call; an absent token sends the request unauthenticated, which keeps
// anonymous-readable endpoints working.
package httpclient

import "net/http"

// TokenSource yields the current bearer token, or "" when anonymous.
// *service.SessionStore satisfies it.
type TokenSource interface {
	Token() string
}

// StaticToken is a fixed-token source, used for service-account calls such
// as the fire-and-forget profile recorder.
type StaticToken string

func (t StaticToken) Token() string { return string(t) }

// AttachAuth returns a copy of req with the Authorization header set when
// token is non-empty. The original request is never mutated.
func AttachAuth(req *http.Request, token string) *http.Request {
	if token == "" {
		return req
	}
	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", "Bearer "+token)
	return clone
}

// Transport is an http.RoundTripper that applies AttachAuth per request.
// It never retries, refreshes, or queues on 401; the backend's response
// passes through unchanged.
type Transport struct {
	Source TokenSource
	Base   http.RoundTripper
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(AttachAuth(req, t.Source.Token()))
}

// New returns an *http.Client whose requests carry the source's current
// token.
func New(source TokenSource) *http.Client {
	return &http.Client{Transport: &Transport{Source: source}}
}
