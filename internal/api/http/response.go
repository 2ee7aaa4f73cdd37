package http

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"

	"library-loans-backend/internal/domain"
	"library-loans-backend/internal/logger"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeAndValidate reads a JSON body into dst and runs its validate tags.
func decodeAndValidate(r *http.Request, v *validator.Validate, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &domain.ValidationError{Field: "body", Message: "request body must be valid JSON"}
	}
	if err := v.Struct(dst); err != nil {
		var vErrs validator.ValidationErrors
		if errors.As(err, &vErrs) && len(vErrs) > 0 {
			fe := vErrs[0]
			if fe.Tag() == "required" {
				return &domain.ValidationError{Field: fe.Field(), Message: fmt.Sprintf("%s is required", fe.Field())}
			}
			return &domain.ValidationError{Field: fe.Field(), Message: fmt.Sprintf("%s must be a positive id", fe.Field())}
		}
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := classifyError(err)
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Request failed", "path", r.URL.Path, "error", err)
	} else {
		logger.WarnContext(r.Context(), "Request rejected", "path", r.URL.Path, "status", status, "error", err)
	}
	writeJSON(w, status, errorResponse{Success: false, Message: message, Error: err.Error()})
}

func classifyError(err error) (int, string) {
	var vErr *domain.ValidationError
	switch {
	case errors.As(err, &vErr):
		return http.StatusBadRequest, vErr.Error()
	case errors.Is(err, domain.ErrTransactionNotFound):
		return http.StatusNotFound, "Transaction not found"
	case errors.Is(err, domain.ErrReferenceNotFound):
		return http.StatusNotFound, "Referenced book, student or librarian not found"
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict, "Transaction is not in a state that allows this operation"
	case errors.Is(err, domain.ErrNoCopiesAvailable):
		return http.StatusConflict, "No copies of this book are available"
	}
	return http.StatusInternalServerError, "Internal server error"
}
