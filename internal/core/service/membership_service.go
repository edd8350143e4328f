package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/openforum/session-gateway/internal/core/domain"
	"github.com/openforum/session-gateway/internal/core/ports"
)

// MembershipService runs the paid upgrade from Bronze to Gold Badge:
// tokenize the card, confirm the charge, then move the directory record to
// the new tier. No step is retried; a failure after the charge is reported
// to the caller with the receipt so support can reconcile.
type MembershipService struct {
	payments  ports.PaymentProcessor
	directory ports.ProfileDirectory
	session   *SessionStore
	log       zerolog.Logger
}

func NewMembershipService(payments ports.PaymentProcessor, directory ports.ProfileDirectory, session *SessionStore, log zerolog.Logger) *MembershipService {
	return &MembershipService{
		payments:  payments,
		directory: directory,
		session:   session,
		log:       log,
	}
}

// UpgradeToGold charges the Gold price against the supplied card for the
// current identity.
func (s *MembershipService) UpgradeToGold(ctx context.Context, card ports.CardDetails) (*domain.UpgradeReceipt, error) {
	id := s.session.Current().Identity
	if id == nil {
		return nil, &domain.AuthError{Op: "upgrade", Message: "no identity signed in", Err: domain.ErrNoIdentity}
	}
	if card.Number == "" || card.CVC == "" {
		return nil, domain.Invalid("card", "number and cvc are required")
	}

	methodID, err := s.payments.CreatePaymentMethod(ctx, card)
	if err != nil {
		return nil, err
	}

	receiptID, err := s.payments.ConfirmPayment(ctx, methodID, domain.GoldPriceCents)
	if err != nil {
		return nil, err
	}

	receipt := &domain.UpgradeReceipt{
		ReceiptID:   receiptID,
		Email:       id.Email,
		Tier:        domain.TierGold,
		AmountCents: domain.GoldPriceCents,
		PaidAt:      time.Now().UTC(),
	}

	if err := s.directory.UpdateTier(ctx, id.Email, domain.TierGold); err != nil {
		s.log.Error().Err(err).Str("email", id.Email).Str("receipt", receiptID).
			Msg("payment confirmed but tier update failed")
		return receipt, err
	}

	s.log.Info().Str("email", id.Email).Str("receipt", receiptID).Msg("membership upgraded to gold")
	return receipt, nil
}
