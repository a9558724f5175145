package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/ozlabs/forge/internal/models"
)

type CreditServiceMock struct {
	mock.Mock
}

func (m *CreditServiceMock) Charge(ctx context.Context, userID string, amount int, referenceID string) (*models.CreditLedgerEntry, error) {
	args := m.Called(ctx, userID, amount, referenceID)

	entry, _ := args.Get(0).(*models.CreditLedgerEntry)
	return entry, args.Error(1)
}

func (m *CreditServiceMock) Refund(ctx context.Context, userID string, amount int, referenceID string) (*models.CreditLedgerEntry, error) {
	args := m.Called(ctx, userID, amount, referenceID)

	entry, _ := args.Get(0).(*models.CreditLedgerEntry)
	return entry, args.Error(1)
}

func (m *CreditServiceMock) Grant(ctx context.Context, userID string, amount int) (*models.CreditLedgerEntry, error) {
	args := m.Called(ctx, userID, amount)

	entry, _ := args.Get(0).(*models.CreditLedgerEntry)
	return entry, args.Error(1)
}

func (m *CreditServiceMock) Balance(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *CreditServiceMock) History(ctx context.Context, userID string, limit int) ([]models.CreditLedgerEntry, error) {
	args := m.Called(ctx, userID, limit)

	entries, _ := args.Get(0).([]models.CreditLedgerEntry)
	return entries, args.Error(1)
}
