package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"

	"library-loans-backend/internal/domain"
	"library-loans-backend/internal/logger"
)

const (
	colTotalCopies  = "total_copies"
	colIssuedCopies = "issued_copies"
)

type bookRepository struct {
	q sqlx.ExtContext
	d dialect
}

// IncrementIssuedCopies takes one copy off the shelf. It fails with
// domain.ErrNoCopiesAvailable when every copy is already issued and with
// domain.ErrReferenceNotFound when the book does not exist.
func (r *bookRepository) IncrementIssuedCopies(ctx context.Context, bookID int64) error {
	query, args, err := r.d.Update(tableBooks).
		Set(goqu.Record{colIssuedCopies: goqu.L(colIssuedCopies + " + 1")}).
		Where(
			goqu.C(colBookID).Eq(bookID),
			goqu.C(colIssuedCopies).Lt(goqu.C(colTotalCopies)),
		).
		Prepared(true).
		ToSQL()
	if err != nil {
		return fmt.Errorf("failed to build inventory query: %w", err)
	}

	logger.DatabaseCall("books.increment_issued", query, "book_id", bookID)
	res, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		logger.DatabaseResult("books.increment_issued", 0, err, "book_id", bookID)
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	logger.DatabaseResult("books.increment_issued", rows, nil, "book_id", bookID)
	if rows == 0 {
		exists, err := r.exists(ctx, bookID)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("%w: book %d", domain.ErrReferenceNotFound, bookID)
		}
		return fmt.Errorf("%w: book %d", domain.ErrNoCopiesAvailable, bookID)
	}
	return nil
}

func (r *bookRepository) exists(ctx context.Context, bookID int64) (bool, error) {
	query, args, err := r.d.From(tableBooks).
		Select(goqu.C(colBookID)).
		Where(goqu.C(colBookID).Eq(bookID)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("failed to build book lookup query: %w", err)
	}

	logger.DatabaseCall("books.exists", query, "book_id", bookID)
	var id int64
	if err := sqlx.GetContext(ctx, r.q, &id, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			logger.DatabaseResult("books.exists", 0, nil, "book_id", bookID)
			return false, nil
		}
		logger.DatabaseResult("books.exists", 0, err, "book_id", bookID)
		return false, err
	}
	logger.DatabaseResult("books.exists", 1, nil, "book_id", bookID)
	return true, nil
}

// DecrementIssuedCopies puts one copy back. The counter never drops below zero.
func (r *bookRepository) DecrementIssuedCopies(ctx context.Context, bookID int64) error {
	query, args, err := r.d.Update(tableBooks).
		Set(goqu.Record{colIssuedCopies: goqu.L(colIssuedCopies + " - 1")}).
		Where(
			goqu.C(colBookID).Eq(bookID),
			goqu.C(colIssuedCopies).Gt(0),
		).
		Prepared(true).
		ToSQL()
	if err != nil {
		return fmt.Errorf("failed to build inventory query: %w", err)
	}

	logger.DatabaseCall("books.decrement_issued", query, "book_id", bookID)
	res, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		logger.DatabaseResult("books.decrement_issued", 0, err, "book_id", bookID)
		return err
	}
	rows, _ := res.RowsAffected()
	logger.DatabaseResult("books.decrement_issued", rows, nil, "book_id", bookID)
	if rows == 0 {
		logger.Warn("Issued copies counter already at zero", "book_id", bookID)
	}
	return nil
}
