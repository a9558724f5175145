package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/ozlabs/forge/internal/models"
)

type LedgerRepoMock struct {
	mock.Mock
}

func (m *LedgerRepoMock) Append(ctx context.Context, userID string, amount int, entryType, referenceID string) (*models.CreditLedgerEntry, error) {
	args := m.Called(ctx, userID, amount, entryType, referenceID)

	entry, _ := args.Get(0).(*models.CreditLedgerEntry)
	return entry, args.Error(1)
}

func (m *LedgerRepoMock) Balance(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *LedgerRepoMock) ListByUser(ctx context.Context, userID string, limit int) ([]models.CreditLedgerEntry, error) {
	args := m.Called(ctx, userID, limit)

	entries, _ := args.Get(0).([]models.CreditLedgerEntry)
	return entries, args.Error(1)
}
