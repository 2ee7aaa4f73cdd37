package repository

import (
	"context"

	"library-loans-backend/internal/domain"
)

type TransactionRepository interface {
	Create(ctx context.Context, tx *domain.Transaction) error
	GetByID(ctx context.Context, id int64) (*domain.Transaction, error)
	Update(ctx context.Context, tx *domain.Transaction) error
	Delete(ctx context.Context, id int64) error
	ListDetailed(ctx context.Context, filter domain.TransactionFilter) ([]domain.TransactionView, error)
}

// BookRepository covers the inventory counters of the external book catalog.
type BookRepository interface {
	IncrementIssuedCopies(ctx context.Context, bookID int64) error
	DecrementIssuedCopies(ctx context.Context, bookID int64) error
}

// Repositories groups the repositories bound to one connection or database transaction.
type Repositories struct {
	Transactions TransactionRepository
	Books        BookRepository
}

// TxRunner runs fn inside a database transaction. The transaction commits when
// fn returns nil and rolls back otherwise.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}
