package dto

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/mtlprog/finagent/internal/domain"
)

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error code and message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewErrorResponse creates a new error response.
func NewErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	}
}

// MapDomainError maps domain errors to HTTP status codes and error codes.
func MapDomainError(err error) (status int, code string, message string) {
	message = err.Error()

	switch {
	// Orchestration errors
	case errors.Is(err, domain.ErrUnknownProvider):
		return http.StatusBadRequest, "UNKNOWN_PROVIDER", message
	case errors.Is(err, domain.ErrUnknownAgent):
		return http.StatusBadRequest, "UNKNOWN_AGENT", message
	case errors.Is(err, domain.ErrNotReadStatement):
		return http.StatusUnprocessableEntity, "READ_ONLY_VIOLATION", message

	// Customer errors
	case errors.Is(err, domain.ErrCustomerNotFound):
		return http.StatusNotFound, "CUSTOMER_NOT_FOUND", message
	case errors.Is(err, domain.ErrEmailExists):
		return http.StatusConflict, "EMAIL_EXISTS", message
	case errors.Is(err, domain.ErrCustomerHasAccounts):
		return http.StatusConflict, "CUSTOMER_HAS_ACCOUNTS", message

	// Ledger errors
	case errors.Is(err, domain.ErrAccountNotFound):
		return http.StatusNotFound, "ACCOUNT_NOT_FOUND", message
	case errors.Is(err, domain.ErrInsufficientFunds):
		return http.StatusConflict, "INSUFFICIENT_FUNDS", message

	// Validation errors
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrMissingAccount),
		errors.Is(err, domain.ErrSameAccount),
		errors.Is(err, domain.ErrUnknownOperation),
		errors.Is(err, domain.ErrNoFieldChanges):
		return http.StatusUnprocessableEntity, "VALIDATION_ERROR", message

	// Default: internal server error
	default:
		slog.Error("unmapped domain error returned to client",
			"error", err,
			"error_type", fmt.Sprintf("%T", err),
		)
		return http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error"
	}
}
