package http_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"library-loans-backend/internal/domain"
)

// MockTransactionService
type MockTransactionService struct {
	mock.Mock
}

func (m *MockTransactionService) CreateTransaction(ctx context.Context, bookID, studentID int64) (*domain.Transaction, error) {
	args := m.Called(ctx, bookID, studentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}
func (m *MockTransactionService) IssueBook(ctx context.Context, librarianID, transactionID int64) (*domain.Transaction, error) {
	args := m.Called(ctx, librarianID, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}
func (m *MockTransactionService) ReturnBook(ctx context.Context, librarianID, transactionID int64) (*domain.Transaction, error) {
	args := m.Called(ctx, librarianID, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}
func (m *MockTransactionService) SettleTransaction(ctx context.Context, transactionID int64) (*domain.Transaction, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}
func (m *MockTransactionService) GetTransaction(ctx context.Context, transactionID int64) (*domain.Transaction, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}
func (m *MockTransactionService) ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.TransactionView, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TransactionView), args.Error(1)
}
func (m *MockTransactionService) ListOverdue(ctx context.Context) ([]domain.TransactionView, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TransactionView), args.Error(1)
}
func (m *MockTransactionService) DeleteTransaction(ctx context.Context, transactionID int64) error {
	args := m.Called(ctx, transactionID)
	return args.Error(0)
}
func (m *MockTransactionService) IsOverdue(t *domain.Transaction) bool {
	args := m.Called(t)
	return args.Bool(0)
}
func (m *MockTransactionService) Policy() domain.LoanPolicy {
	return domain.DefaultLoanPolicy()
}

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(context.Context) error { return p.err }
