package service

import (
	"context"
	"time"

	"library-loans-backend/internal/domain"
	"library-loans-backend/internal/logger"
	"library-loans-backend/internal/repository"
)

type transactionService struct {
	repos          repository.Repositories
	txRunner       repository.TxRunner
	policy         domain.LoanPolicy
	trackInventory bool
	now            func() time.Time
}

// Option configures the transaction service.
type Option func(*transactionService)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *transactionService) {
		s.now = now
	}
}

// WithInventoryTracking keeps books.issued_copies in step with issues and
// returns. Both writes then share one database transaction.
func WithInventoryTracking(enabled bool) Option {
	return func(s *transactionService) {
		s.trackInventory = enabled
	}
}

func NewTransactionService(
	repos repository.Repositories,
	txRunner repository.TxRunner,
	policy domain.LoanPolicy,
	opts ...Option,
) TransactionService {
	s := &transactionService{
		repos:    repos,
		txRunner: txRunner,
		policy:   policy,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *transactionService) Policy() domain.LoanPolicy {
	return s.policy
}

func (s *transactionService) IsOverdue(t *domain.Transaction) bool {
	return t.IsOverdue(s.now(), s.policy)
}

func (s *transactionService) CreateTransaction(ctx context.Context, bookID, studentID int64) (*domain.Transaction, error) {
	logger.EnterMethod("transactionService.CreateTransaction", "book_id", bookID, "student_id", studentID)

	t, err := domain.NewTransaction(bookID, studentID)
	if err != nil {
		logger.ExitMethodWithError("transactionService.CreateTransaction", err)
		return nil, err
	}
	if err := s.repos.Transactions.Create(ctx, t); err != nil {
		logger.ExitMethodWithError("transactionService.CreateTransaction", err, "book_id", bookID, "student_id", studentID)
		return nil, err
	}

	logger.InfoContext(ctx, "Transaction created", "transaction_id", t.ID, "book_id", bookID, "student_id", studentID)
	logger.ExitMethod("transactionService.CreateTransaction", "transaction_id", t.ID)
	return t, nil
}

func (s *transactionService) IssueBook(ctx context.Context, librarianID, transactionID int64) (*domain.Transaction, error) {
	logger.EnterMethod("transactionService.IssueBook", "librarian_id", librarianID, "transaction_id", transactionID)

	var issued *domain.Transaction
	err := s.mutate(ctx, func(ctx context.Context, repos repository.Repositories) error {
		t, err := repos.Transactions.GetByID(ctx, transactionID)
		if err != nil {
			return err
		}
		reissued, err := t.Issue(librarianID, s.now(), s.policy)
		if err != nil {
			return err
		}
		if reissued {
			logger.WarnContext(ctx, "Re-issuing an issued transaction overwrites its issuer and dates", "transaction_id", t.ID)
		} else if s.trackInventory {
			if err := repos.Books.IncrementIssuedCopies(ctx, t.BookID); err != nil {
				return err
			}
		}
		if err := repos.Transactions.Update(ctx, t); err != nil {
			return err
		}
		issued = t
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("transactionService.IssueBook", err, "transaction_id", transactionID)
		return nil, err
	}

	info, _ := issued.IssueInfo()
	logger.InfoContext(ctx, "Book issued",
		"transaction_id", issued.ID,
		"librarian_id", librarianID,
		"due_date", info.DueDate.Format(time.DateOnly))
	logger.ExitMethod("transactionService.IssueBook", "transaction_id", issued.ID)
	return issued, nil
}

func (s *transactionService) ReturnBook(ctx context.Context, librarianID, transactionID int64) (*domain.Transaction, error) {
	logger.EnterMethod("transactionService.ReturnBook", "librarian_id", librarianID, "transaction_id", transactionID)

	t, err := s.returnBook(ctx, transactionID, func(issued domain.Issued) int64 { return librarianID })
	if err != nil {
		logger.ExitMethodWithError("transactionService.ReturnBook", err, "transaction_id", transactionID)
		return nil, err
	}

	logger.ExitMethod("transactionService.ReturnBook", "transaction_id", t.ID)
	return t, nil
}

func (s *transactionService) SettleTransaction(ctx context.Context, transactionID int64) (*domain.Transaction, error) {
	logger.EnterMethod("transactionService.SettleTransaction", "transaction_id", transactionID)

	t, err := s.returnBook(ctx, transactionID, func(issued domain.Issued) int64 { return issued.IssuedBy })
	if err != nil {
		logger.ExitMethodWithError("transactionService.SettleTransaction", err, "transaction_id", transactionID)
		return nil, err
	}

	logger.ExitMethod("transactionService.SettleTransaction", "transaction_id", t.ID)
	return t, nil
}

// returnBook closes an issued transaction; returner picks the receiving librarian.
func (s *transactionService) returnBook(ctx context.Context, transactionID int64, returner func(domain.Issued) int64) (*domain.Transaction, error) {
	var returned *domain.Transaction
	err := s.mutate(ctx, func(ctx context.Context, repos repository.Repositories) error {
		t, err := repos.Transactions.GetByID(ctx, transactionID)
		if err != nil {
			return err
		}
		var librarianID int64
		if info, ok := t.State.(domain.Issued); ok {
			librarianID = returner(info)
		}
		if err := t.Return(librarianID, s.now(), s.policy); err != nil {
			return err
		}
		if s.trackInventory {
			if err := repos.Books.DecrementIssuedCopies(ctx, t.BookID); err != nil {
				return err
			}
		}
		if err := repos.Transactions.Update(ctx, t); err != nil {
			return err
		}
		returned = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	info, _ := returned.ReturnInfo()
	logger.InfoContext(ctx, "Book returned",
		"transaction_id", returned.ID,
		"librarian_id", info.ReturnedTo,
		"fine", info.Fine.String())
	return returned, nil
}

// mutate runs fn inside a database transaction when inventory tracking is on,
// and directly against the pool otherwise.
func (s *transactionService) mutate(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	if s.trackInventory && s.txRunner != nil {
		return s.txRunner.WithinTx(ctx, fn)
	}
	return fn(ctx, s.repos)
}

func (s *transactionService) GetTransaction(ctx context.Context, transactionID int64) (*domain.Transaction, error) {
	return s.repos.Transactions.GetByID(ctx, transactionID)
}

func (s *transactionService) ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.TransactionView, error) {
	now := s.now()
	if filter.Status == domain.TransactionStatusOverdue {
		today := s.policy.DateOf(now)
		filter.Status = domain.TransactionStatusIssued
		filter.DueBefore = &today
	}

	views, err := s.repos.Transactions.ListDetailed(ctx, filter)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to list transactions", "error", err)
		return nil, err
	}
	for i := range views {
		v := &views[i]
		v.Overdue = v.Status == domain.TransactionStatusIssued && v.DueDate != nil && s.policy.IsOverdue(*v.DueDate, now)
	}
	return views, nil
}

func (s *transactionService) ListOverdue(ctx context.Context) ([]domain.TransactionView, error) {
	return s.ListTransactions(ctx, domain.TransactionFilter{Status: domain.TransactionStatusOverdue})
}

func (s *transactionService) DeleteTransaction(ctx context.Context, transactionID int64) error {
	if err := s.repos.Transactions.Delete(ctx, transactionID); err != nil {
		logger.WarnContext(ctx, "Failed to delete transaction", "transaction_id", transactionID, "error", err)
		return err
	}
	logger.InfoContext(ctx, "Transaction deleted", "transaction_id", transactionID)
	return nil
}
