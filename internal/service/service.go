package service

import (
	"context"

	"library-loans-backend/internal/domain"
)

type TransactionService interface {
	CreateTransaction(ctx context.Context, bookID, studentID int64) (*domain.Transaction, error)
	IssueBook(ctx context.Context, librarianID, transactionID int64) (*domain.Transaction, error)
	ReturnBook(ctx context.Context, librarianID, transactionID int64) (*domain.Transaction, error)
	// SettleTransaction returns a book on behalf of its issuing librarian.
	SettleTransaction(ctx context.Context, transactionID int64) (*domain.Transaction, error)
	GetTransaction(ctx context.Context, transactionID int64) (*domain.Transaction, error)
	ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.TransactionView, error)
	ListOverdue(ctx context.Context) ([]domain.TransactionView, error)
	DeleteTransaction(ctx context.Context, transactionID int64) error
	// IsOverdue judges t against the service clock.
	IsOverdue(t *domain.Transaction) bool
	Policy() domain.LoanPolicy
}
