package dto

import (
	"time"

	"github.com/google/uuid"
)

type CheckoutRequest struct {
	PackageID  string `json:"package_id" validate:"required"`
	SuccessURL string `json:"success_url" validate:"required,url"`
	CancelURL  string `json:"cancel_url" validate:"required,url"`
}

type CheckoutResponse struct {
	SessionID   string `json:"session_id"`
	CheckoutURL string `json:"checkout_url"`
}

type PackageResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
	Credits    int    `json:"credits"`
	Currency   string `json:"currency"`
}

type BalanceResponse struct {
	Credits int `json:"credits"`
}

type TransactionResponse struct {
	ID            uuid.UUID `json:"id"`
	Type          string    `json:"type"`
	Credits       int       `json:"credits"`
	AmountCents   int64     `json:"amount_cents,omitempty"`
	Currency      string    `json:"currency,omitempty"`
	PaymentStatus string    `json:"payment_status,omitempty"`
	Description   string    `json:"description,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type HistoryResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	Total        int64                 `json:"total"`
}

type ReconcileResponse struct {
	UserID     uuid.UUID `json:"user_id"`
	Balance    int       `json:"balance"`
	LedgerSum  int       `json:"ledger_sum"`
	Consistent bool      `json:"consistent"`
}
