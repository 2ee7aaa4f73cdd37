package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewRouter builds the mux with the transaction routes under prefix and /healthz.
func NewRouter(handler *TransactionHandler, db Pinger, prefix string) *mux.Router {
	router := mux.NewRouter()
	router.Use(RequestIDMiddleware, LoggingMiddleware, RecoveryMiddleware)

	router.HandleFunc("/healthz", healthHandler(db)).Methods("GET")
	RegisterTransactionRoutes(router.PathPrefix(prefix).Subrouter(), handler)
	return router
}

// RegisterTransactionRoutes registers the loan transaction endpoints
func RegisterTransactionRoutes(router *mux.Router, handler *TransactionHandler) {
	router.HandleFunc("/addTransaction", handler.AddTransaction).Methods("POST")
	router.HandleFunc("/getAllTransactions", handler.GetAllTransactions).Methods("GET")
	router.HandleFunc("/getTransaction/{transaction_id}", handler.GetTransaction).Methods("GET")
	router.HandleFunc("/issueBook", handler.IssueBook).Methods("PUT")
	router.HandleFunc("/returnBook", handler.ReturnBook).Methods("PUT")
	router.HandleFunc("/updateTransaction", handler.UpdateTransaction).Methods("PUT")
	router.HandleFunc("/deleteTransaction", handler.DeleteTransaction).Methods("DELETE")
}

func healthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{
				Success: false,
				Message: "database unreachable",
				Error:   err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
