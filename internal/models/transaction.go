package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	TransactionTypePurchase = "purchase"
	TransactionTypeUsage    = "usage"
	TransactionTypeBonus    = "bonus"
)

// Transaction is an append-only ledger entry. Credits holds the signed
// balance delta (+N for purchases and bonuses, -N for usage), so the sum
// over a user's rows must equal users.credits at all times.
//
// StripeSessionID is the idempotency key for purchases: the unique index
// makes a replayed checkout.session.completed webhook a no-op even when
// two deliveries race.
type Transaction struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Type            string    `gorm:"size:20;not null" json:"type"`
	Credits         int       `gorm:"not null" json:"credits"`
	AmountCents     int64     `json:"amount_cents,omitempty"`
	Currency        string    `gorm:"size:10" json:"currency,omitempty"`
	PaymentStatus   string    `gorm:"size:20" json:"payment_status,omitempty"`
	PaymentMethod   string    `gorm:"size:50" json:"payment_method,omitempty"`
	Description     string    `gorm:"size:255" json:"description,omitempty"`
	StripeSessionID *string   `gorm:"size:255;uniqueIndex" json:"stripe_session_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	User            User      `gorm:"foreignKey:UserID" json:"-"`
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
