package http

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"library-loans-backend/internal/domain"
	"library-loans-backend/internal/service"
)

// TransactionHandler serves the loan transaction endpoints
type TransactionHandler struct {
	svc      service.TransactionService
	validate *validator.Validate
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(svc service.TransactionService) *TransactionHandler {
	return &TransactionHandler{
		svc:      svc,
		validate: newValidator(),
	}
}

// AddTransaction handles POST /addTransaction
func (h *TransactionHandler) AddTransaction(w http.ResponseWriter, r *http.Request) {
	var req CreateTransactionRequest
	if err := decodeAndValidate(r, h.validate, &req); err != nil {
		writeError(w, r, err)
		return
	}

	tx, err := h.svc.CreateTransaction(r.Context(), req.BookID, req.StudentID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, successResponse{
		Success: true,
		Message: "Transaction created successfully",
		Result:  toTransactionResponse(tx, false),
	})
}

// GetAllTransactions handles GET /getAllTransactions
func (h *TransactionHandler) GetAllTransactions(w http.ResponseWriter, r *http.Request) {
	var filter domain.TransactionFilter
	q := r.URL.Query()
	if val := q.Get("status"); val != "" {
		status, err := domain.ParseTransactionStatus(val)
		if err != nil {
			writeError(w, r, err)
			return
		}
		filter.Status = status
	}
	if val := q.Get("student_id"); val != "" {
		id, err := strconv.ParseInt(val, 10, 64)
		if err != nil || id <= 0 {
			writeError(w, r, &domain.ValidationError{Field: "student_id", Message: "student_id must be a positive id"})
			return
		}
		filter.StudentID = id
	}

	views, err := h.svc.ListTransactions(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, successResponse{Success: true, Result: toListedTransactionResponses(views)})
}

// GetTransaction handles GET /getTransaction/{transaction_id}
func (h *TransactionHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["transaction_id"], 10, 64)
	if err != nil || id <= 0 {
		writeError(w, r, &domain.ValidationError{Field: "transaction_id", Message: "transaction_id must be a positive id"})
		return
	}

	tx, err := h.svc.GetTransaction(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, successResponse{
		Success: true,
		Result:  toTransactionResponse(tx, h.svc.IsOverdue(tx)),
	})
}

// IssueBook handles PUT /issueBook
func (h *TransactionHandler) IssueBook(w http.ResponseWriter, r *http.Request) {
	var req LoanActionRequest
	if err := decodeAndValidate(r, h.validate, &req); err != nil {
		writeError(w, r, err)
		return
	}

	tx, err := h.svc.IssueBook(r.Context(), req.LibrarianID, req.TransactionID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, successResponse{
		Success: true,
		Message: "Book issued successfully",
		Result:  toTransactionResponse(tx, h.svc.IsOverdue(tx)),
	})
}

// ReturnBook handles PUT /returnBook
func (h *TransactionHandler) ReturnBook(w http.ResponseWriter, r *http.Request) {
	var req LoanActionRequest
	if err := decodeAndValidate(r, h.validate, &req); err != nil {
		writeError(w, r, err)
		return
	}

	tx, err := h.svc.ReturnBook(r.Context(), req.LibrarianID, req.TransactionID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, successResponse{
		Success: true,
		Message: "Book returned successfully",
		Result:  toTransactionResponse(tx, false),
	})
}

// UpdateTransaction handles PUT /updateTransaction. The return date and fine
// are computed server side.
func (h *TransactionHandler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req TransactionIDRequest
	if err := decodeAndValidate(r, h.validate, &req); err != nil {
		writeError(w, r, err)
		return
	}

	tx, err := h.svc.SettleTransaction(r.Context(), req.TransactionID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	returned, _ := tx.ReturnInfo()
	writeJSON(w, http.StatusOK, SettleResponse{
		Message:       "Transaction updated successfully",
		TransactionID: tx.ID,
		ReturnDate:    returned.ReturnDate,
		Status:        string(tx.Status()),
		Fine:          returned.Fine.InexactFloat64(),
	})
}

// DeleteTransaction handles DELETE /deleteTransaction
func (h *TransactionHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	var req TransactionIDRequest
	if err := decodeAndValidate(r, h.validate, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.svc.DeleteTransaction(r.Context(), req.TransactionID); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{
		Message: "Transaction deleted successfully",
		Result:  DeleteResult{TransactionID: req.TransactionID, Deleted: true},
	})
}
