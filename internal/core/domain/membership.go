package domain

import "time"

// GoldPriceCents is what the Gold Badge upgrade charges.
const GoldPriceCents int64 = 999

// UpgradeReceipt summarizes a completed membership upgrade.
type UpgradeReceipt struct {
	ReceiptID   string    `json:"receipt_id"`
	Email       string    `json:"email"`
	Tier        string    `json:"tier"`
	AmountCents int64     `json:"amount_cents"`
	PaidAt      time.Time `json:"paid_at"`
}
