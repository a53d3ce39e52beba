package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/prisonfinance/ledgersync/internal/generalledger"
)

type MockGeneralLedger struct {
	mock.Mock
}

func (m *MockGeneralLedger) FindAccountByReference(ctx context.Context, reference string) ([]generalledger.Account, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]generalledger.Account), args.Error(1)
}

func (m *MockGeneralLedger) CreateAccount(ctx context.Context, reference string) (*generalledger.Account, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*generalledger.Account), args.Error(1)
}

func (m *MockGeneralLedger) FindSubAccount(ctx context.Context, parentReference, subReference string) ([]generalledger.SubAccount, error) {
	args := m.Called(ctx, parentReference, subReference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]generalledger.SubAccount), args.Error(1)
}

func (m *MockGeneralLedger) CreateSubAccount(ctx context.Context, parentID uuid.UUID, subReference string) (*generalledger.SubAccount, error) {
	args := m.Called(ctx, parentID, subReference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*generalledger.SubAccount), args.Error(1)
}

func (m *MockGeneralLedger) PostStatementBalance(ctx context.Context, subAccountID uuid.UUID, amountMinorUnits int64, asOf time.Time) error {
	args := m.Called(ctx, subAccountID, amountMinorUnits, asOf)
	return args.Error(0)
}

func (m *MockGeneralLedger) GetSubAccountBalance(ctx context.Context, subAccountID uuid.UUID) (*generalledger.SubAccountBalance, error) {
	args := m.Called(ctx, subAccountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*generalledger.SubAccountBalance), args.Error(1)
}

func (m *MockGeneralLedger) PostTransaction(ctx context.Context, idempotencyKey uuid.UUID, req generalledger.TransactionRequest) (*generalledger.TransactionResponse, error) {
	args := m.Called(ctx, idempotencyKey, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*generalledger.TransactionResponse), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, eventType string, payload any) error {
	args := m.Called(ctx, eventType, payload)
	return args.Error(0)
}
