package http

import (
	"time"

	"library-loans-backend/internal/domain"
)

type CreateTransactionRequest struct {
	BookID    int64 `json:"book_id" validate:"required,gt=0"`
	StudentID int64 `json:"sid" validate:"required,gt=0"`
}

// LoanActionRequest is the body of /issueBook and /returnBook.
type LoanActionRequest struct {
	LibrarianID   int64 `json:"lid" validate:"required,gt=0"`
	TransactionID int64 `json:"transaction_id" validate:"required,gt=0"`
}

type TransactionIDRequest struct {
	TransactionID int64 `json:"transaction_id" validate:"required,gt=0"`
}

type TransactionResponse struct {
	TransactionID int64      `json:"transaction_id"`
	BookID        int64      `json:"book_id"`
	BookTitle     *string    `json:"book_title,omitempty"`
	StudentID     int64      `json:"student_id"`
	StudentName   *string    `json:"student_name,omitempty"`
	IssuedBy      *int64     `json:"issued_by"`
	IssuedByName  *string    `json:"issued_by_name,omitempty"`
	IssueDate     *time.Time `json:"issue_date"`
	DueDate       *string    `json:"due_date"`
	ReturnTo      *int64     `json:"return_to"`
	ReturnToName  *string    `json:"return_to_name,omitempty"`
	ReturnDate    *time.Time `json:"return_date"`
	Status        string     `json:"status"`
	Fine          float64    `json:"fine"`
	Overdue       bool       `json:"overdue"`
}

// ListedTransactionResponse always carries the joined names, null when absent.
type ListedTransactionResponse struct {
	TransactionID int64      `json:"transaction_id"`
	BookID        int64      `json:"book_id"`
	BookTitle     *string    `json:"book_title"`
	StudentID     int64      `json:"student_id"`
	StudentName   *string    `json:"student_name"`
	IssuedBy      *int64     `json:"issued_by"`
	IssuedByName  *string    `json:"issued_by_name"`
	IssueDate     *time.Time `json:"issue_date"`
	DueDate       *string    `json:"due_date"`
	ReturnTo      *int64     `json:"return_to"`
	ReturnToName  *string    `json:"return_to_name"`
	ReturnDate    *time.Time `json:"return_date"`
	Status        string     `json:"status"`
	Fine          float64    `json:"fine"`
	Overdue       bool       `json:"overdue"`
}

type SettleResponse struct {
	Message       string    `json:"message"`
	TransactionID int64     `json:"transaction_id"`
	ReturnDate    time.Time `json:"return_date"`
	Status        string    `json:"status"`
	Fine          float64   `json:"fine"`
}

type DeleteResult struct {
	TransactionID int64 `json:"transaction_id"`
	Deleted       bool  `json:"deleted"`
}

type successResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Result  any    `json:"result"`
}

type messageResponse struct {
	Message string `json:"message"`
	Result  any    `json:"result"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

func toTransactionResponse(t *domain.Transaction, overdue bool) TransactionResponse {
	resp := TransactionResponse{
		TransactionID: t.ID,
		BookID:        t.BookID,
		StudentID:     t.StudentID,
		Status:        string(t.Status()),
		Fine:          t.Fine().InexactFloat64(),
		Overdue:       overdue,
	}
	if issued, ok := t.IssueInfo(); ok {
		resp.IssuedBy = &issued.IssuedBy
		resp.IssueDate = &issued.IssueDate
		resp.DueDate = formatDate(&issued.DueDate)
	}
	if returned, ok := t.ReturnInfo(); ok {
		resp.ReturnTo = &returned.ReturnedTo
		resp.ReturnDate = &returned.ReturnDate
	}
	return resp
}

func toListedTransactionResponses(views []domain.TransactionView) []ListedTransactionResponse {
	out := make([]ListedTransactionResponse, 0, len(views))
	for _, v := range views {
		out = append(out, ListedTransactionResponse{
			TransactionID: v.ID,
			BookID:        v.BookID,
			BookTitle:     v.BookTitle,
			StudentID:     v.StudentID,
			StudentName:   v.StudentName,
			IssuedBy:      v.IssuedBy,
			IssuedByName:  v.IssuedByName,
			IssueDate:     v.IssueDate,
			DueDate:       formatDate(v.DueDate),
			ReturnTo:      v.ReturnTo,
			ReturnToName:  v.ReturnToName,
			ReturnDate:    v.ReturnDate,
			Status:        string(v.Status),
			Fine:          v.Fine.InexactFloat64(),
			Overdue:       v.Overdue,
		})
	}
	return out
}

func formatDate(d *time.Time) *string {
	if d == nil {
		return nil
	}
	s := d.Format(time.DateOnly)
	return &s
}
