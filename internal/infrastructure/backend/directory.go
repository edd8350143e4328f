// Package backend is the REST client for the forum backend collaborator.
// Requests go out through an authorized client so they carry the session's
// current bearer token; anonymous calls go out without one. Non-2xx
// responses surface as domain.NetworkError with the backend's own message.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/openforum/session-gateway/internal/core/domain"
)

// Directory implements ports.ProfileDirectory over HTTP.
type Directory struct {
	baseURL string
	client  *http.Client
}

func NewDirectory(baseURL string, client *http.Client) *Directory {
	if client == nil {
		client = http.DefaultClient
	}
	return &Directory{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (d *Directory) CreateProfile(ctx context.Context, rec domain.ProfileRecord) error {
	resp, err := d.do(ctx, http.MethodPost, "/users", rec)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// The backend answers 409 for an already-recorded account; callers
	// treat that as success.
	if resp.StatusCode == http.StatusConflict {
		return nil
	}
	return checkStatus("create profile", resp)
}

func (d *Directory) FetchRole(ctx context.Context, email string) (string, error) {
	resp, err := d.do(ctx, http.MethodGet, "/users/"+url.PathEscape(email)+"/role", nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", domain.ErrProfileNotFound
	}
	if err := checkStatus("fetch role", resp); err != nil {
		return "", err
	}

	var body struct {
		Role string `json:"role"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", &domain.NetworkError{Op: "fetch role", Message: "malformed response", Err: err}
	}
	return body.Role, nil
}

func (d *Directory) FetchProfile(ctx context.Context, email string) (*domain.Profile, error) {
	resp, err := d.do(ctx, http.MethodGet, "/users?email="+url.QueryEscape(email), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, domain.ErrProfileNotFound
	}
	if err := checkStatus("fetch profile", resp); err != nil {
		return nil, err
	}

	var profile domain.Profile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, &domain.NetworkError{Op: "fetch profile", Message: "malformed response", Err: err}
	}
	return &profile, nil
}

func (d *Directory) UpdateTier(ctx context.Context, email, tier string) error {
	payload := map[string]string{"tier": tier}
	resp, err := d.do(ctx, http.MethodPatch, "/users/"+url.PathEscape(email), payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return checkStatus("update tier", resp)
}

func (d *Directory) do(ctx context.Context, method, path string, payload any) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode payload: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, d.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, &domain.NetworkError{Op: method + " " + path, Message: "backend unreachable", Err: err}
	}
	return resp, nil
}

// checkStatus drains the backend's error envelope into a NetworkError.
func checkStatus(op string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	msg := resp.Status
	var envelope struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil && envelope.Error != "" {
		msg = envelope.Error
	}
	return &domain.NetworkError{Op: op, Status: resp.StatusCode, Message: msg}
}
