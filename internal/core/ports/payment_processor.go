package ports

import "context"

// CardDetails is what the payment collaborator needs to tokenize a card.
// The gateway never stores any of it.
type CardDetails struct {
	Number   string `json:"number"`
	ExpMonth int    `json:"exp_month"`
	ExpYear  int    `json:"exp_year"`
	CVC      string `json:"cvc"`
	Name     string `json:"name"`
}

// PaymentProcessor is the external payment collaborator: card tokenization
// and charge confirmation. Failures surface as domain.NetworkError.
type PaymentProcessor interface {
	// CreatePaymentMethod tokenizes the card and returns an opaque method id.
	CreatePaymentMethod(ctx context.Context, card CardDetails) (string, error)

	// ConfirmPayment charges amountCents against the method and returns the
	// processor's receipt id.
	ConfirmPayment(ctx context.Context, methodID string, amountCents int64) (string, error)
}
