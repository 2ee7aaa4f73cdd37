package sqlstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-loans-backend/internal/domain"
)

var transactionRowColumns = []string{
	"transaction_id", "book_id", "student_id", "issued_by", "issue_date", "due_date",
	"return_to", "return_date", "status", "fine",
}

func newMockStore(t *testing.T, driver string) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store, err := NewStore(sqlx.NewDb(db, driver))
	require.NoError(t, err)
	return store, mock
}

func TestNewStore_UnsupportedDriver(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	_, err = NewStore(sqlx.NewDb(db, "sqlite3"))
	assert.Error(t, err)
}

func TestTransactionRepository_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("MySQL uses last insert id", func(t *testing.T) {
		store, mock := newMockStore(t, DriverMySQL)
		tx, err := domain.NewTransaction(5, 12)
		require.NoError(t, err)

		mock.ExpectExec("INSERT INTO `transactions`").
			WillReturnResult(sqlmock.NewResult(7, 1))

		err = store.Create(ctx, tx)
		assert.NoError(t, err)
		assert.Equal(t, int64(7), tx.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Postgres uses RETURNING", func(t *testing.T) {
		store, mock := newMockStore(t, DriverPostgres)
		tx, err := domain.NewTransaction(5, 12)
		require.NoError(t, err)

		mock.ExpectQuery(`INSERT INTO "transactions" .* RETURNING "transaction_id"`).
			WillReturnRows(sqlmock.NewRows([]string{"transaction_id"}).AddRow(int64(9)))

		err = store.Create(ctx, tx)
		assert.NoError(t, err)
		assert.Equal(t, int64(9), tx.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Unknown student maps to reference not found", func(t *testing.T) {
		store, mock := newMockStore(t, DriverMySQL)
		tx, err := domain.NewTransaction(5, 999)
		require.NoError(t, err)

		mock.ExpectExec("INSERT INTO `transactions`").
			WillReturnError(&mysql.MySQLError{Number: 1452, Message: "Cannot add or update a child row"})

		err = store.Create(ctx, tx)
		assert.ErrorIs(t, err, domain.ErrReferenceNotFound)
	})
}

func TestTransactionRepository_GetByID(t *testing.T) {
	ctx := context.Background()
	issueDate := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)
	dueDate := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	t.Run("Issued", func(t *testing.T) {
		store, mock := newMockStore(t, DriverMySQL)
		mock.ExpectQuery("SELECT (.+) FROM `transactions`").
			WillReturnRows(sqlmock.NewRows(transactionRowColumns).
				AddRow(int64(1), int64(5), int64(12), int64(2), issueDate, dueDate, nil, nil, "issued", "0.00"))

		tx, err := store.GetByID(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, domain.TransactionStatusIssued, tx.Status())
		info, ok := tx.IssueInfo()
		require.True(t, ok)
		assert.Equal(t, int64(2), info.IssuedBy)
		assert.Equal(t, dueDate, info.DueDate)
	})

	t.Run("Returned with fine", func(t *testing.T) {
		store, mock := newMockStore(t, DriverMySQL)
		returnDate := time.Date(2024, 3, 21, 9, 0, 0, 0, time.UTC)
		mock.ExpectQuery("SELECT (.+) FROM `transactions`").
			WillReturnRows(sqlmock.NewRows(transactionRowColumns).
				AddRow(int64(1), int64(5), int64(12), int64(2), issueDate, dueDate, int64(3), returnDate, "returned", "200.00"))

		tx, err := store.GetByID(ctx, 1)
		require.NoError(t, err)
		ret, ok := tx.ReturnInfo()
		require.True(t, ok)
		assert.Equal(t, int64(3), ret.ReturnedTo)
		assert.True(t, ret.Fine.Equal(decimal.NewFromInt(200)))
	})

	t.Run("Not found", func(t *testing.T) {
		store, mock := newMockStore(t, DriverMySQL)
		mock.ExpectQuery("SELECT (.+) FROM `transactions`").
			WillReturnRows(sqlmock.NewRows(transactionRowColumns))

		_, err := store.GetByID(ctx, 42)
		assert.ErrorIs(t, err, domain.ErrTransactionNotFound)
	})

	t.Run("Returned row without return date is corrupt", func(t *testing.T) {
		store, mock := newMockStore(t, DriverMySQL)
		mock.ExpectQuery("SELECT (.+) FROM `transactions`").
			WillReturnRows(sqlmock.NewRows(transactionRowColumns).
				AddRow(int64(1), int64(5), int64(12), int64(2), issueDate, dueDate, nil, nil, "returned", "0.00"))

		_, err := store.GetByID(ctx, 1)
		assert.ErrorIs(t, err, domain.ErrCorruptTransaction)
	})
}

func TestTransactionRepository_Update(t *testing.T) {
	ctx := context.Background()
	policy := domain.DefaultLoanPolicy()

	t.Run("Success", func(t *testing.T) {
		store, mock := newMockStore(t, DriverMySQL)
		tx := &domain.Transaction{ID: 1, BookID: 5, StudentID: 12, State: domain.Pending{}}
		_, err := tx.Issue(2, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), policy)
		require.NoError(t, err)

		mock.ExpectExec("UPDATE `transactions` SET").
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, store.Update(ctx, tx))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Row deleted since it was read", func(t *testing.T) {
		store, mock := newMockStore(t, DriverMySQL)
		tx := &domain.Transaction{ID: 1, BookID: 5, StudentID: 12, State: domain.Pending{}}
		_, err := tx.Issue(2, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), policy)
		require.NoError(t, err)

		mock.ExpectExec("UPDATE `transactions` SET").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err = store.Update(ctx, tx)
		assert.ErrorIs(t, err, domain.ErrTransactionNotFound)
	})

	t.Run("Unknown librarian maps to reference not found", func(t *testing.T) {
		store, mock := newMockStore(t, DriverPostgres)
		tx := &domain.Transaction{ID: 1, BookID: 5, StudentID: 12, State: domain.Pending{}}
		_, err := tx.Issue(99, time.Now(), policy)
		require.NoError(t, err)

		mock.ExpectExec(`UPDATE "transactions" SET`).
			WillReturnError(&pq.Error{Code: "23503", Detail: "Key (issued_by)=(99) is not present"})

		err = store.Update(ctx, tx)
		assert.ErrorIs(t, err, domain.ErrReferenceNotFound)
	})
}

func TestTransactionRepository_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		store, mock := newMockStore(t, DriverMySQL)
		mock.ExpectExec("DELETE .*FROM `transactions`").
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, store.Delete(ctx, 1))
	})

	t.Run("No rows", func(t *testing.T) {
		store, mock := newMockStore(t, DriverMySQL)
		mock.ExpectExec("DELETE .*FROM `transactions`").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := store.Delete(ctx, 1)
		assert.ErrorIs(t, err, domain.ErrTransactionNotFound)
	})

	t.Run("Postgres", func(t *testing.T) {
		store, mock := newMockStore(t, DriverPostgres)
		mock.ExpectExec(`DELETE FROM "transactions" WHERE \("transaction_id" = \$1\)`).
			WithArgs(int64(3)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, store.Delete(ctx, 3))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTransactionRepository_ListDetailed(t *testing.T) {
	ctx := context.Background()
	columns := append(append([]string{}, transactionRowColumns...),
		"book_title", "student_name", "issued_by_name", "return_to_name")

	t.Run("Pending row has no librarians", func(t *testing.T) {
		store, mock := newMockStore(t, DriverMySQL)
		mock.ExpectQuery("SELECT (.+) FROM `transactions` AS `t` LEFT JOIN `books`").
			WillReturnRows(sqlmock.NewRows(columns).
				AddRow(int64(2), int64(5), int64(12), nil, nil, nil, nil, nil, "pending", "0.00",
					"Dune", "Alice", nil, nil).
				AddRow(int64(1), int64(6), int64(12), int64(2), time.Now(), time.Now(), nil, nil, "issued", "0.00",
					"Emma", "Alice", "Bob", nil))

		views, err := store.ListDetailed(ctx, domain.TransactionFilter{})
		require.NoError(t, err)
		require.Len(t, views, 2)

		assert.Equal(t, int64(2), views[0].ID)
		assert.Nil(t, views[0].IssuedBy)
		assert.Nil(t, views[0].IssuedByName)
		require.NotNil(t, views[0].BookTitle)
		assert.Equal(t, "Dune", *views[0].BookTitle)

		require.NotNil(t, views[1].IssuedByName)
		assert.Equal(t, "Bob", *views[1].IssuedByName)
		assert.Nil(t, views[1].ReturnToName)
	})

	t.Run("Filters", func(t *testing.T) {
		store, mock := newMockStore(t, DriverMySQL)
		due := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
		mock.ExpectQuery("WHERE .*`t`.`status` = \\?.*`t`.`student_id` = \\?.*`t`.`due_date` < \\?").
			WithArgs("issued", int64(12), "2024-03-15").
			WillReturnRows(sqlmock.NewRows(columns))

		views, err := store.ListDetailed(ctx, domain.TransactionFilter{
			Status:    domain.TransactionStatusIssued,
			StudentID: 12,
			DueBefore: &due,
		})
		assert.NoError(t, err)
		assert.Empty(t, views)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Query error", func(t *testing.T) {
		store, mock := newMockStore(t, DriverMySQL)
		mock.ExpectQuery("SELECT").WillReturnError(errors.New("connection reset"))

		_, err := store.ListDetailed(ctx, domain.TransactionFilter{})
		assert.Error(t, err)
	})
}
