package sqlstore

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"library-loans-backend/internal/domain"
)

const (
	mysqlNoReferencedRow  = 1216
	mysqlNoReferencedRow2 = 1452
	pgForeignKeyViolation = "23503"
)

// mapDriverError turns foreign key violations from any supported driver into
// domain.ErrReferenceNotFound. Other errors pass through untouched.
func mapDriverError(err error) error {
	if err == nil {
		return nil
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && (myErr.Number == mysqlNoReferencedRow || myErr.Number == mysqlNoReferencedRow2) {
		return fmt.Errorf("%w: %s", domain.ErrReferenceNotFound, myErr.Message)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == pgForeignKeyViolation {
		return fmt.Errorf("%w: %s", domain.ErrReferenceNotFound, pqErr.Detail)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
		return fmt.Errorf("%w: %s", domain.ErrReferenceNotFound, pgErr.Detail)
	}

	return err
}
