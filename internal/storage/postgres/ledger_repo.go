package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/ozlabs/forge/internal/credits"
	"github.com/ozlabs/forge/internal/models"
)

type LedgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

var _ credits.LedgerRepoInterface = (*LedgerRepository)(nil)

// Append computes the running balance and inserts the new entry inside
// one transaction, so two concurrent appends for the same user cannot
// both read the same prior balance.
func (r *LedgerRepository) Append(ctx context.Context, userID string, amount int, entryType, referenceID string) (*models.CreditLedgerEntry, error) {
	entry := &models.CreditLedgerEntry{
		UserID:      userID,
		Amount:      amount,
		Type:        entryType,
		ReferenceID: referenceID,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Serialize appends per user. sqlite allows a single writer
		// anyway; on postgres the advisory lock is held until commit.
		if tx.Dialector.Name() == "postgres" {
			if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", userID).Error; err != nil {
				return err
			}
		}

		balance, err := latestBalance(tx, userID)
		if err != nil {
			return err
		}
		entry.BalanceAfter = balance + amount
		return tx.Create(entry).Error
	})
	if err != nil {
		return nil, fmt.Errorf("append ledger entry: %w", err)
	}
	return entry, nil
}

// Balance returns the BalanceAfter of the newest entry, or 0 for a
// user with no ledger history.
func (r *LedgerRepository) Balance(ctx context.Context, userID string) (int, error) {
	balance, err := latestBalance(r.db.WithContext(ctx), userID)
	if err != nil {
		return 0, fmt.Errorf("ledger balance: %w", err)
	}
	return balance, nil
}

// ListByUser returns the newest entries first.
func (r *LedgerRepository) ListByUser(ctx context.Context, userID string, limit int) ([]models.CreditLedgerEntry, error) {
	var entries []models.CreditLedgerEntry
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	return entries, nil
}

func latestBalance(tx *gorm.DB, userID string) (int, error) {
	var last models.CreditLedgerEntry
	err := tx.Where("user_id = ?", userID).Order("id DESC").First(&last).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return last.BalanceAfter, nil
}
