package credits

import (
	"context"
	"fmt"

	"github.com/ozlabs/forge/internal/config"
	"github.com/ozlabs/forge/internal/metrics"
	"github.com/ozlabs/forge/internal/models"
	"github.com/ozlabs/forge/internal/platform/logger"
)

// LedgerRepoInterface defines the contract for ledger persistence.
// Append must compute BalanceAfter and insert inside a single
// transaction so concurrent appends for the same user cannot race.
type LedgerRepoInterface interface {
	Append(ctx context.Context, userID string, amount int, entryType, referenceID string) (*models.CreditLedgerEntry, error)
	Balance(ctx context.Context, userID string) (int, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]models.CreditLedgerEntry, error)
}

// Service exposes credit accounting to the job service and processor.
type Service interface {
	Charge(ctx context.Context, userID string, amount int, referenceID string) (*models.CreditLedgerEntry, error)
	Refund(ctx context.Context, userID string, amount int, referenceID string) (*models.CreditLedgerEntry, error)
	Grant(ctx context.Context, userID string, amount int) (*models.CreditLedgerEntry, error)
	Balance(ctx context.Context, userID string) (int, error)
	History(ctx context.Context, userID string, limit int) ([]models.CreditLedgerEntry, error)
}

type Ledger struct {
	repo LedgerRepoInterface
	log  *logger.Logger
}

func NewLedger(repo LedgerRepoInterface, log *logger.Logger) *Ledger {
	return &Ledger{repo: repo, log: log}
}

var _ Service = (*Ledger)(nil)

// Charge appends a debit entry for amount credits.
func (l *Ledger) Charge(ctx context.Context, userID string, amount int, referenceID string) (*models.CreditLedgerEntry, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("charge amount must be positive, got %d", amount)
	}

	entry, err := l.repo.Append(ctx, userID, -amount, config.LedgerEntryCharge, referenceID)
	if err != nil {
		return nil, fmt.Errorf("charge credits: %w", err)
	}

	metrics.CreditsMoved.WithLabelValues(config.LedgerEntryCharge).Add(float64(amount))
	l.log.Info("credits charged",
		"user_id", userID,
		"amount", amount,
		"reference_id", referenceID,
		"balance_after", entry.BalanceAfter,
	)
	return entry, nil
}

// Refund appends a credit entry returning amount credits, used when a
// job fails after reserving.
func (l *Ledger) Refund(ctx context.Context, userID string, amount int, referenceID string) (*models.CreditLedgerEntry, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("refund amount must be positive, got %d", amount)
	}

	entry, err := l.repo.Append(ctx, userID, amount, config.LedgerEntryRefund, referenceID)
	if err != nil {
		return nil, fmt.Errorf("refund credits: %w", err)
	}

	metrics.CreditsMoved.WithLabelValues(config.LedgerEntryRefund).Add(float64(amount))
	l.log.Info("credits refunded",
		"user_id", userID,
		"amount", amount,
		"reference_id", referenceID,
		"balance_after", entry.BalanceAfter,
	)
	return entry, nil
}

// Grant credits a user outside the job lifecycle (signup bonus, plan
// top-up, admin adjustment).
func (l *Ledger) Grant(ctx context.Context, userID string, amount int) (*models.CreditLedgerEntry, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("grant amount must be positive, got %d", amount)
	}

	entry, err := l.repo.Append(ctx, userID, amount, config.LedgerEntryGrant, "")
	if err != nil {
		return nil, fmt.Errorf("grant credits: %w", err)
	}

	metrics.CreditsMoved.WithLabelValues(config.LedgerEntryGrant).Add(float64(amount))
	return entry, nil
}

func (l *Ledger) Balance(ctx context.Context, userID string) (int, error) {
	balance, err := l.repo.Balance(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("credit balance: %w", err)
	}
	return balance, nil
}

func (l *Ledger) History(ctx context.Context, userID string, limit int) ([]models.CreditLedgerEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	entries, err := l.repo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("credit history: %w", err)
	}
	return entries, nil
}
