package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type TransactionStatus string

const (
	TransactionStatusPending  TransactionStatus = "pending"
	TransactionStatusIssued   TransactionStatus = "issued"
	TransactionStatusReturned TransactionStatus = "returned"
	// TransactionStatusOverdue is never stored by this service. It labels issued
	// transactions whose due date has passed.
	TransactionStatusOverdue TransactionStatus = "overdue"
)

// ParseTransactionStatus accepts the stored and derived status names.
func ParseTransactionStatus(s string) (TransactionStatus, error) {
	switch st := TransactionStatus(s); st {
	case TransactionStatusPending, TransactionStatusIssued, TransactionStatusReturned, TransactionStatusOverdue:
		return st, nil
	}
	return "", &ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", s)}
}

// LoanState is the lifecycle state of a transaction: Pending, Issued or Returned.
type LoanState interface {
	Status() TransactionStatus
	loanState()
}

// Pending is a reservation that has not been handed over yet.
type Pending struct{}

func (Pending) Status() TransactionStatus { return TransactionStatusPending }
func (Pending) loanState()                {}

// Issued is a book handed to the student by a librarian.
type Issued struct {
	IssuedBy  int64
	IssueDate time.Time
	DueDate   time.Time
}

func (Issued) Status() TransactionStatus { return TransactionStatusIssued }
func (Issued) loanState()                {}

// Returned keeps the issue data so both librarians are always known.
type Returned struct {
	Issued
	ReturnedTo int64
	ReturnDate time.Time
	Fine       decimal.Decimal
}

func (Returned) Status() TransactionStatus { return TransactionStatusReturned }
func (Returned) loanState()                {}

// Transaction is one borrow event linking a book and a student.
type Transaction struct {
	ID        int64
	BookID    int64
	StudentID int64
	State     LoanState
}

// NewTransaction creates a pending transaction for the given book and student.
func NewTransaction(bookID, studentID int64) (*Transaction, error) {
	if bookID <= 0 {
		return nil, &ValidationError{Field: "book_id", Message: "book_id must be a positive id"}
	}
	if studentID <= 0 {
		return nil, &ValidationError{Field: "sid", Message: "sid must be a positive id"}
	}
	return &Transaction{BookID: bookID, StudentID: studentID, State: Pending{}}, nil
}

func (t *Transaction) Status() TransactionStatus {
	if t.State == nil {
		return TransactionStatusPending
	}
	return t.State.Status()
}

// Issue hands the book over. Issuing an already issued transaction overwrites
// the issuer and dates and reports reissued=true. Returned transactions are final.
func (t *Transaction) Issue(librarianID int64, at time.Time, policy LoanPolicy) (reissued bool, err error) {
	switch t.State.(type) {
	case nil, Pending:
	case Issued:
		reissued = true
	default:
		return false, fmt.Errorf("%w: transaction %d is %s", ErrInvalidTransition, t.ID, t.Status())
	}
	t.State = Issued{
		IssuedBy:  librarianID,
		IssueDate: at,
		DueDate:   policy.DueDate(at),
	}
	return reissued, nil
}

// Return receives the book back and computes the fine.
func (t *Transaction) Return(librarianID int64, at time.Time, policy LoanPolicy) error {
	issued, ok := t.State.(Issued)
	if !ok {
		return fmt.Errorf("%w: transaction %d is %s", ErrInvalidTransition, t.ID, t.Status())
	}
	t.State = Returned{
		Issued:     issued,
		ReturnedTo: librarianID,
		ReturnDate: at,
		Fine:       policy.FineFor(issued.DueDate, at),
	}
	return nil
}

// IssueInfo returns the issue data for issued and returned transactions.
func (t *Transaction) IssueInfo() (Issued, bool) {
	switch s := t.State.(type) {
	case Issued:
		return s, true
	case Returned:
		return s.Issued, true
	}
	return Issued{}, false
}

// ReturnInfo returns the return data for returned transactions.
func (t *Transaction) ReturnInfo() (Returned, bool) {
	r, ok := t.State.(Returned)
	return r, ok
}

// Fine is zero unless the transaction was returned late.
func (t *Transaction) Fine() decimal.Decimal {
	if r, ok := t.ReturnInfo(); ok {
		return r.Fine
	}
	return decimal.Zero
}

// IsOverdue reports whether an issued transaction is past its due date at now.
func (t *Transaction) IsOverdue(now time.Time, policy LoanPolicy) bool {
	issued, ok := t.State.(Issued)
	return ok && policy.IsOverdue(issued.DueDate, now)
}

// RestoreState rebuilds a lifecycle state from persisted columns. Rows whose
// columns contradict their status are rejected with ErrCorruptTransaction.
func RestoreState(
	status string,
	issuedBy *int64, issueDate, dueDate *time.Time,
	returnTo *int64, returnDate *time.Time,
	fine decimal.Decimal,
) (LoanState, error) {
	switch TransactionStatus(status) {
	case TransactionStatusPending:
		if issuedBy != nil || returnTo != nil {
			return nil, fmt.Errorf("%w: pending row has librarian references", ErrCorruptTransaction)
		}
		return Pending{}, nil
	case TransactionStatusIssued, TransactionStatusOverdue:
		issued, err := restoreIssued(issuedBy, issueDate, dueDate)
		if err != nil {
			return nil, err
		}
		if returnTo != nil {
			return nil, fmt.Errorf("%w: issued row has a returning librarian", ErrCorruptTransaction)
		}
		return issued, nil
	case TransactionStatusReturned:
		issued, err := restoreIssued(issuedBy, issueDate, dueDate)
		if err != nil {
			return nil, err
		}
		if returnTo == nil || returnDate == nil {
			return nil, fmt.Errorf("%w: returned row without return_to/return_date", ErrCorruptTransaction)
		}
		return Returned{Issued: issued, ReturnedTo: *returnTo, ReturnDate: *returnDate, Fine: fine}, nil
	}
	return nil, fmt.Errorf("%w: unknown status %q", ErrCorruptTransaction, status)
}

func restoreIssued(issuedBy *int64, issueDate, dueDate *time.Time) (Issued, error) {
	if issuedBy == nil || issueDate == nil || dueDate == nil {
		return Issued{}, fmt.Errorf("%w: issued row without issued_by/issue_date/due_date", ErrCorruptTransaction)
	}
	return Issued{IssuedBy: *issuedBy, IssueDate: *issueDate, DueDate: *dueDate}, nil
}
