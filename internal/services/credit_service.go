package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/imagenwiz/backend/internal/models"
	"gorm.io/gorm"
)

var ErrInsufficientCredits = errors.New("insufficient credits")

// CreditService owns the balance invariant: every balance change happens
// together with its ledger entry in one database transaction, and the sum
// of a user's ledger rows always equals users.credits.
type CreditService struct {
	db *gorm.DB
}

func NewCreditService(db *gorm.DB) *CreditService {
	return &CreditService{db: db}
}

// PurchaseParams describes one confirmed checkout. SessionID is the Stripe
// checkout session id and acts as the idempotency key.
type PurchaseParams struct {
	UserID        uuid.UUID
	SessionID     string
	Credits       int
	AmountCents   int64
	Currency      string
	PaymentStatus string
	PackageID     string
}

// RecordPurchase credits the user exactly once per checkout session.
// Stripe delivers webhooks at least once, so replays are the normal case:
// a session id that already has a ledger row is acknowledged without any
// state change. Two concurrent deliveries both pass the lookup, but the
// unique index on stripe_session_id rejects the second insert and rolls
// its balance update back with the transaction.
func (s *CreditService) RecordPurchase(p *PurchaseParams) error {
	if p.Credits <= 0 {
		return fmt.Errorf("invalid credit amount %d for session %s", p.Credits, p.SessionID)
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var existing models.Transaction
		err := tx.Where("stripe_session_id = ?", p.SessionID).First(&existing).Error
		if err == nil {
			return nil // already credited
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		res := tx.Model(&models.User{}).
			Where("id = ?", p.UserID).
			UpdateColumn("credits", gorm.Expr("credits + ?", p.Credits))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrUserNotFound
		}

		sessionID := p.SessionID
		entry := models.Transaction{
			UserID:          p.UserID,
			Type:            models.TransactionTypePurchase,
			Credits:         p.Credits,
			AmountCents:     p.AmountCents,
			Currency:        p.Currency,
			PaymentStatus:   p.PaymentStatus,
			PaymentMethod:   "stripe",
			Description:     p.PackageID + " package",
			StripeSessionID: &sessionID,
		}
		return tx.Create(&entry).Error
	})

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// Lost the race against a concurrent delivery of the same event.
		return nil
	}
	return err
}

// Debit removes credits and appends the usage ledger entry atomically.
func (s *CreditService) Debit(userID uuid.UUID, credits int, description string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return s.DebitTx(tx, userID, credits, description)
	})
}

// DebitTx is Debit inside a caller-owned transaction, used when the debit
// must commit together with other writes (e.g. creating a processing job).
// The guarded UPDATE keeps the balance from ever going below zero even
// under concurrent debits.
func (s *CreditService) DebitTx(tx *gorm.DB, userID uuid.UUID, credits int, description string) error {
	if credits <= 0 {
		return fmt.Errorf("invalid debit amount %d", credits)
	}

	res := tx.Model(&models.User{}).
		Where("id = ? AND credits >= ?", userID, credits).
		UpdateColumn("credits", gorm.Expr("credits - ?", credits))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var user models.User
		if err := tx.First(&user, "id = ?", userID).Error; err != nil {
			return ErrUserNotFound
		}
		return ErrInsufficientCredits
	}

	entry := models.Transaction{
		UserID:      userID,
		Type:        models.TransactionTypeUsage,
		Credits:     -credits,
		Description: description,
	}
	return tx.Create(&entry).Error
}

func (s *CreditService) Balance(userID uuid.UUID) (int, error) {
	var user models.User
	if err := s.db.Select("credits").First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrUserNotFound
		}
		return 0, err
	}
	return user.Credits, nil
}

func (s *CreditService) History(userID uuid.UUID, limit, offset int) ([]models.Transaction, int64, error) {
	var total int64
	if err := s.db.Model(&models.Transaction{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []models.Transaction
	err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&entries).Error
	return entries, total, err
}

type ReconcileResult struct {
	Balance   int
	LedgerSum int
}

func (r *ReconcileResult) Consistent() bool {
	return r.Balance == r.LedgerSum
}

// Reconcile compares the stored balance against the sum of ledger deltas.
// A mismatch means a bug in a write path, never normal operation.
func (s *CreditService) Reconcile(userID uuid.UUID) (*ReconcileResult, error) {
	var user models.User
	if err := s.db.Unscoped().Select("credits").First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	var sum int64
	err := s.db.Model(&models.Transaction{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(credits), 0)").
		Scan(&sum).Error
	if err != nil {
		return nil, err
	}

	return &ReconcileResult{Balance: user.Credits, LedgerSum: int(sum)}, nil
}
