// Package payment is the REST client for the external payment collaborator.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/openforum/session-gateway/internal/core/domain"
	"github.com/openforum/session-gateway/internal/core/ports"
)

// Processor implements ports.PaymentProcessor over HTTP.
type Processor struct {
	baseURL string
	client  *http.Client
}

func NewProcessor(baseURL string, client *http.Client) *Processor {
	if client == nil {
		client = http.DefaultClient
	}
	return &Processor{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (p *Processor) CreatePaymentMethod(ctx context.Context, card ports.CardDetails) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	if err := p.post(ctx, "/payment_methods", card, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", &domain.NetworkError{Op: "create payment method", Message: "processor returned no method id"}
	}
	return out.ID, nil
}

func (p *Processor) ConfirmPayment(ctx context.Context, methodID string, amountCents int64) (string, error) {
	payload := map[string]any{"payment_method": methodID, "amount_cents": amountCents}
	var out struct {
		ReceiptID string `json:"receipt_id"`
	}
	if err := p.post(ctx, "/payments/confirm", payload, &out); err != nil {
		return "", err
	}
	if out.ReceiptID == "" {
		return "", &domain.NetworkError{Op: "confirm payment", Message: "processor returned no receipt"}
	}
	return out.ReceiptID, nil
}

func (p *Processor) post(ctx context.Context, path string, payload, out any) error {
	buf, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(buf))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return &domain.NetworkError{Op: "POST " + path, Message: "payment processor unreachable", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := resp.Status
		var envelope struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil && envelope.Error != "" {
			msg = envelope.Error
		}
		return &domain.NetworkError{Op: "POST " + path, Status: resp.StatusCode, Message: msg}
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
