package sqlstore

import (
	"context"
	"fmt"

	"library-loans-backend/internal/logger"
)

// The catalog, student and librarian tables belong to other services. They are
// created here only so a fresh database can run the loan flow end to end.
var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS books (
		book_id BIGINT AUTO_INCREMENT PRIMARY KEY,
		title VARCHAR(255) NOT NULL,
		total_copies INT NOT NULL DEFAULT 0,
		issued_copies INT NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS students (
		sid BIGINT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(255) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS librarians (
		lid BIGINT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(255) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS transactions (
		transaction_id BIGINT AUTO_INCREMENT PRIMARY KEY,
		book_id BIGINT NOT NULL,
		student_id BIGINT NOT NULL,
		issued_by BIGINT NULL,
		issue_date DATETIME NULL,
		due_date DATE NULL,
		return_to BIGINT NULL,
		return_date DATETIME NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		fine DECIMAL(10,2) NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (book_id) REFERENCES books(book_id),
		FOREIGN KEY (student_id) REFERENCES students(sid),
		FOREIGN KEY (issued_by) REFERENCES librarians(lid),
		FOREIGN KEY (return_to) REFERENCES librarians(lid)
	)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS books (
		book_id BIGSERIAL PRIMARY KEY,
		title VARCHAR(255) NOT NULL,
		total_copies INT NOT NULL DEFAULT 0,
		issued_copies INT NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS students (
		sid BIGSERIAL PRIMARY KEY,
		name VARCHAR(255) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS librarians (
		lid BIGSERIAL PRIMARY KEY,
		name VARCHAR(255) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS transactions (
		transaction_id BIGSERIAL PRIMARY KEY,
		book_id BIGINT NOT NULL REFERENCES books(book_id),
		student_id BIGINT NOT NULL REFERENCES students(sid),
		issued_by BIGINT NULL REFERENCES librarians(lid),
		issue_date TIMESTAMPTZ NULL,
		due_date DATE NULL,
		return_to BIGINT NULL REFERENCES librarians(lid),
		return_date TIMESTAMPTZ NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		fine NUMERIC(10,2) NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL
	)`,
}

// InitSchema creates missing tables for the store's dialect.
func (s *Store) InitSchema(ctx context.Context) error {
	statements := mysqlSchema
	if s.dialect.name == "postgres" {
		statements = postgresSchema
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}
	logger.Info("Database schema ready", "dialect", s.dialect.name, "statements", len(statements))
	return nil
}
