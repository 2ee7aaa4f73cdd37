package sqlstore

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/mysql"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"library-loans-backend/internal/repository"
)

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverPgx      = "pgx"
)

// dialect pairs the goqu SQL flavour with the capabilities the repositories need.
type dialect struct {
	goqu.DialectWrapper
	name      string
	returning bool
}

func dialectFor(driverName string) (dialect, error) {
	switch driverName {
	case DriverMySQL:
		return dialect{DialectWrapper: goqu.Dialect("mysql"), name: "mysql"}, nil
	case DriverPostgres, DriverPgx:
		return dialect{DialectWrapper: goqu.Dialect("postgres"), name: "postgres", returning: true}, nil
	}
	return dialect{}, fmt.Errorf("unsupported database driver %q", driverName)
}

type Store struct {
	db      *sqlx.DB
	dialect dialect
	repository.TransactionRepository
	repository.BookRepository
}

// Open connects with one of the registered drivers (mysql, postgres, pgx).
func Open(driverName, dsn string) (*sqlx.DB, error) {
	if _, err := dialectFor(driverName); err != nil {
		return nil, err
	}
	return sqlx.Open(driverName, dsn)
}

func NewStore(db *sqlx.DB) (*Store, error) {
	d, err := dialectFor(db.DriverName())
	if err != nil {
		return nil, err
	}
	s := &Store{db: db, dialect: d}
	repos := s.bind(db)
	s.TransactionRepository = repos.Transactions
	s.BookRepository = repos.Books
	return s, nil
}

func (s *Store) bind(q sqlx.ExtContext) repository.Repositories {
	return repository.Repositories{
		Transactions: &transactionRepository{q: q, d: s.dialect},
		Books:        &bookRepository{q: q, d: s.dialect},
	}
}

// Repositories returns the repositories bound to the connection pool.
func (s *Store) Repositories() repository.Repositories {
	return repository.Repositories{
		Transactions: s.TransactionRepository,
		Books:        s.BookRepository,
	}
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(ctx, s.bind(tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}
