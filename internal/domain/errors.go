package domain

import (
	"errors"
	"fmt"
)

var (
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrReferenceNotFound   = errors.New("referenced book, student or librarian not found")
	ErrInvalidTransition   = errors.New("invalid transaction state transition")
	ErrNoCopiesAvailable   = errors.New("no copies of the book are available")
	ErrCorruptTransaction  = errors.New("transaction row is inconsistent")
)

// ValidationError reports a missing or malformed input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("invalid %s", e.Field)
	}
	return e.Message
}
