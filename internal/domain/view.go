package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionView is a transaction joined with the names needed for display.
// Librarian fields are nil until the matching step happened.
type TransactionView struct {
	ID           int64
	BookID       int64
	BookTitle    *string
	StudentID    int64
	StudentName  *string
	IssuedBy     *int64
	IssuedByName *string
	IssueDate    *time.Time
	DueDate      *time.Time
	ReturnTo     *int64
	ReturnToName *string
	ReturnDate   *time.Time
	Status       TransactionStatus
	Fine         decimal.Decimal
	Overdue      bool
}

// TransactionFilter narrows a listing. The zero value lists everything.
type TransactionFilter struct {
	Status    TransactionStatus
	StudentID int64
	// DueBefore keeps rows whose due date is strictly before this date.
	DueBefore *time.Time
}
