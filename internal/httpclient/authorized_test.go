package httpclient

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

type fakeSource struct {
	mu    sync.Mutex
	token string
}

func (s *fakeSource) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *fakeSource) set(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

func TestAttachAuth_NoTokenLeavesRequestUntouched(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/posts", nil)
	got := AttachAuth(req, "")
	if got != req {
		t.Fatalf("expected the same request back when no token is present")
	}
	if got.Header.Get("Authorization") != "" {
		t.Fatalf("unexpected authorization header")
	}
}

func TestAttachAuth_SetsBearerWithoutMutatingOriginal(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/posts", nil)
	got := AttachAuth(req, "tok-1")
	if got == req {
		t.Fatalf("expected a cloned request")
	}
	if got.Header.Get("Authorization") != "Bearer tok-1" {
		t.Fatalf("header not set: %q", got.Header.Get("Authorization"))
	}
	if req.Header.Get("Authorization") != "" {
		t.Fatalf("original request mutated")
	}
}

func TestTransport_ReadsTokenAtSendTime(t *testing.T) {
	var seen []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get("Authorization"))
	}))
	defer server.Close()

	source := &fakeSource{}
	client := New(source)

	// Anonymous: the request goes out with no header at all.
	if _, err := client.Get(server.URL); err != nil {
		t.Fatalf("request failed: %v", err)
	}

	// The session signs in after client construction; the next request
	// carries the new token without rebuilding the client.
	source.set("tok-2")
	if _, err := client.Get(server.URL); err != nil {
		t.Fatalf("request failed: %v", err)
	}

	source.set("tok-3")
	if _, err := client.Get(server.URL); err != nil {
		t.Fatalf("request failed: %v", err)
	}

	want := []string{"", "Bearer tok-2", "Bearer tok-3"}
	if len(seen) != len(want) {
		t.Fatalf("expected %d requests, got %d", len(want), len(seen))
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("request %d: expected %q, got %q", i, want[i], seen[i])
		}
	}
}

func TestTransport_PassesBackendErrorThrough(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := New(StaticToken("stale"))
	resp, err := client.Get(server.URL)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	// No retry, refresh, or queueing: the 401 reaches the caller unchanged.
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 passthrough, got %d", resp.StatusCode)
	}
}
