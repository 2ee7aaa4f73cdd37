package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"library-loans-backend/internal/domain"
	"library-loans-backend/internal/logger"
)

const (
	tableTransactions = "transactions"
	tableBooks        = "books"
	tableStudents     = "students"
	tableLibrarians   = "librarians"

	colTransactionID = "transaction_id"
	colBookID        = "book_id"
	colStudentID     = "student_id"
	colIssuedBy      = "issued_by"
	colIssueDate     = "issue_date"
	colDueDate       = "due_date"
	colReturnTo      = "return_to"
	colReturnDate    = "return_date"
	colStatus        = "status"
	colFine          = "fine"
	colCreatedAt     = "created_at"
)

var transactionColumns = []any{
	colTransactionID, colBookID, colStudentID, colIssuedBy, colIssueDate, colDueDate,
	colReturnTo, colReturnDate, colStatus, colFine,
}

type transactionRow struct {
	ID         int64               `db:"transaction_id"`
	BookID     int64               `db:"book_id"`
	StudentID  int64               `db:"student_id"`
	IssuedBy   sql.NullInt64       `db:"issued_by"`
	IssueDate  sql.NullTime        `db:"issue_date"`
	DueDate    sql.NullTime        `db:"due_date"`
	ReturnTo   sql.NullInt64       `db:"return_to"`
	ReturnDate sql.NullTime        `db:"return_date"`
	Status     string              `db:"status"`
	Fine       decimal.NullDecimal `db:"fine"`
}

type transactionViewRow struct {
	transactionRow
	BookTitle    sql.NullString `db:"book_title"`
	StudentName  sql.NullString `db:"student_name"`
	IssuedByName sql.NullString `db:"issued_by_name"`
	ReturnToName sql.NullString `db:"return_to_name"`
}

type transactionRepository struct {
	q sqlx.ExtContext
	d dialect
}

func (r *transactionRepository) Create(ctx context.Context, t *domain.Transaction) error {
	ins := r.d.Insert(tableTransactions).
		Rows(goqu.Record{
			colBookID:    t.BookID,
			colStudentID: t.StudentID,
			colStatus:    string(t.Status()),
			colFine:      decimal.Zero,
			colCreatedAt: time.Now().UTC(),
		}).
		Prepared(true)

	if r.d.returning {
		query, args, err := ins.Returning(colTransactionID).ToSQL()
		if err != nil {
			return fmt.Errorf("failed to build insert query: %w", err)
		}
		logger.DatabaseCall("transactions.create", query)
		err = r.q.QueryRowxContext(ctx, query, args...).Scan(&t.ID)
		logger.DatabaseResult("transactions.create", 1, err, "transaction_id", t.ID)
		return mapDriverError(err)
	}

	query, args, err := ins.ToSQL()
	if err != nil {
		return fmt.Errorf("failed to build insert query: %w", err)
	}
	logger.DatabaseCall("transactions.create", query)
	res, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		logger.DatabaseResult("transactions.create", 0, err)
		return mapDriverError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read new transaction id: %w", err)
	}
	t.ID = id
	logger.DatabaseResult("transactions.create", 1, nil, "transaction_id", id)
	return nil
}

func (r *transactionRepository) GetByID(ctx context.Context, id int64) (*domain.Transaction, error) {
	query, args, err := r.d.From(tableTransactions).
		Select(transactionColumns...).
		Where(goqu.C(colTransactionID).Eq(id)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	logger.DatabaseCall("transactions.get", query, "transaction_id", id)
	var row transactionRow
	if err := sqlx.GetContext(ctx, r.q, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			logger.DatabaseResult("transactions.get", 0, nil, "transaction_id", id)
			return nil, fmt.Errorf("%w: id %d", domain.ErrTransactionNotFound, id)
		}
		logger.DatabaseResult("transactions.get", 0, err, "transaction_id", id)
		return nil, err
	}
	logger.DatabaseResult("transactions.get", 1, nil, "transaction_id", id)
	return row.toDomain()
}

func (r *transactionRepository) Update(ctx context.Context, t *domain.Transaction) error {
	rec := goqu.Record{
		colStatus:     string(t.Status()),
		colIssuedBy:   nil,
		colIssueDate:  nil,
		colDueDate:    nil,
		colReturnTo:   nil,
		colReturnDate: nil,
		colFine:       t.Fine(),
	}
	if issued, ok := t.IssueInfo(); ok {
		rec[colIssuedBy] = issued.IssuedBy
		rec[colIssueDate] = issued.IssueDate
		rec[colDueDate] = issued.DueDate.Format(time.DateOnly)
	}
	if returned, ok := t.ReturnInfo(); ok {
		rec[colReturnTo] = returned.ReturnedTo
		rec[colReturnDate] = returned.ReturnDate
	}

	query, args, err := r.d.Update(tableTransactions).
		Set(rec).
		Where(goqu.C(colTransactionID).Eq(t.ID)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return fmt.Errorf("failed to build update query: %w", err)
	}

	logger.DatabaseCall("transactions.update", query, "transaction_id", t.ID, "status", t.Status())
	res, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		logger.DatabaseResult("transactions.update", 0, err, "transaction_id", t.ID)
		return mapDriverError(err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	logger.DatabaseResult("transactions.update", rows, nil, "transaction_id", t.ID)
	// MySQL counts matched rows only with clientFoundRows=true in the DSN.
	if rows == 0 {
		return fmt.Errorf("%w: id %d", domain.ErrTransactionNotFound, t.ID)
	}
	return nil
}

func (r *transactionRepository) Delete(ctx context.Context, id int64) error {
	query, args, err := r.d.Delete(tableTransactions).
		Where(goqu.C(colTransactionID).Eq(id)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return fmt.Errorf("failed to build delete query: %w", err)
	}

	logger.DatabaseCall("transactions.delete", query, "transaction_id", id)
	res, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		logger.DatabaseResult("transactions.delete", 0, err, "transaction_id", id)
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	logger.DatabaseResult("transactions.delete", rows, nil, "transaction_id", id)
	if rows == 0 {
		return fmt.Errorf("%w: id %d", domain.ErrTransactionNotFound, id)
	}
	return nil
}

func (r *transactionRepository) ListDetailed(ctx context.Context, filter domain.TransactionFilter) ([]domain.TransactionView, error) {
	ds := r.d.From(goqu.T(tableTransactions).As("t")).
		LeftJoin(goqu.T(tableBooks).As("b"), goqu.On(goqu.I("b.book_id").Eq(goqu.I("t.book_id")))).
		LeftJoin(goqu.T(tableStudents).As("s"), goqu.On(goqu.I("s.sid").Eq(goqu.I("t.student_id")))).
		LeftJoin(goqu.T(tableLibrarians).As("il"), goqu.On(goqu.I("il.lid").Eq(goqu.I("t.issued_by")))).
		LeftJoin(goqu.T(tableLibrarians).As("rl"), goqu.On(goqu.I("rl.lid").Eq(goqu.I("t.return_to")))).
		Select(
			goqu.I("t.transaction_id"),
			goqu.I("t.book_id"),
			goqu.I("b.title").As("book_title"),
			goqu.I("t.student_id"),
			goqu.I("s.name").As("student_name"),
			goqu.I("t.issued_by"),
			goqu.I("il.name").As("issued_by_name"),
			goqu.I("t.issue_date"),
			goqu.I("t.due_date"),
			goqu.I("t.return_to"),
			goqu.I("rl.name").As("return_to_name"),
			goqu.I("t.return_date"),
			goqu.I("t.status"),
			goqu.I("t.fine"),
		).
		Order(goqu.I("t.transaction_id").Desc())

	if filter.Status != "" {
		ds = ds.Where(goqu.I("t.status").Eq(string(filter.Status)))
	}
	if filter.StudentID > 0 {
		ds = ds.Where(goqu.I("t.student_id").Eq(filter.StudentID))
	}
	if filter.DueBefore != nil {
		ds = ds.Where(goqu.I("t.due_date").Lt(filter.DueBefore.Format(time.DateOnly)))
	}

	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build listing query: %w", err)
	}

	logger.DatabaseCall("transactions.list", query)
	var rows []transactionViewRow
	if err := sqlx.SelectContext(ctx, r.q, &rows, query, args...); err != nil {
		logger.DatabaseResult("transactions.list", 0, err)
		return nil, err
	}
	logger.DatabaseResult("transactions.list", int64(len(rows)), nil)

	views := make([]domain.TransactionView, 0, len(rows))
	for _, row := range rows {
		views = append(views, row.toView())
	}
	return views, nil
}

func (row transactionRow) toDomain() (*domain.Transaction, error) {
	state, err := domain.RestoreState(
		row.Status,
		nullInt(row.IssuedBy), nullTime(row.IssueDate), nullTime(row.DueDate),
		nullInt(row.ReturnTo), nullTime(row.ReturnDate),
		row.Fine.Decimal,
	)
	if err != nil {
		return nil, fmt.Errorf("transaction %d: %w", row.ID, err)
	}
	return &domain.Transaction{
		ID:        row.ID,
		BookID:    row.BookID,
		StudentID: row.StudentID,
		State:     state,
	}, nil
}

func (row transactionViewRow) toView() domain.TransactionView {
	return domain.TransactionView{
		ID:           row.ID,
		BookID:       row.BookID,
		BookTitle:    nullString(row.BookTitle),
		StudentID:    row.StudentID,
		StudentName:  nullString(row.StudentName),
		IssuedBy:     nullInt(row.IssuedBy),
		IssuedByName: nullString(row.IssuedByName),
		IssueDate:    nullTime(row.IssueDate),
		DueDate:      nullTime(row.DueDate),
		ReturnTo:     nullInt(row.ReturnTo),
		ReturnToName: nullString(row.ReturnToName),
		ReturnDate:   nullTime(row.ReturnDate),
		Status:       domain.TransactionStatus(row.Status),
		Fine:         row.Fine.Decimal,
	}
}

func nullInt(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	return &v.Int64
}

func nullTime(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	return &v.Time
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}
