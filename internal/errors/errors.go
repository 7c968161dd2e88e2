// Package errors provides custom error types for the Cadence API.
// All service-layer errors should use AppError to ensure consistent,
// secure error responses that never leak internal details to clients.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// Authentication & authorization errors.
var (
	ErrUnauthorized       = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid email or password", StatusCode: http.StatusUnauthorized}
	ErrInvalidToken       = &AppError{Code: "INVALID_TOKEN", Message: "Invalid or expired token", StatusCode: http.StatusUnauthorized}
	ErrForbidden          = &AppError{Code: "FORBIDDEN", Message: "Access denied", StatusCode: http.StatusForbidden}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// User errors.
var (
	ErrUserNotFound   = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
	ErrDuplicateEmail = &AppError{Code: "DUPLICATE_EMAIL", Message: "A user with this email already exists", StatusCode: http.StatusConflict}
)

// Household errors.
var (
	ErrHouseholdNotFound = &AppError{Code: "HOUSEHOLD_NOT_FOUND", Message: "Household not found", StatusCode: http.StatusNotFound}
	ErrAlreadyInHousehold = &AppError{Code: "ALREADY_IN_HOUSEHOLD", Message: "User already belongs to a household", StatusCode: http.StatusConflict}
	ErrHouseholdFull     = &AppError{Code: "HOUSEHOLD_FULL", Message: "Household already has two members", StatusCode: http.StatusConflict}
	ErrPercentSum        = &AppError{Code: "PERCENT_SUM", Message: "Category percentages must sum to 100", StatusCode: http.StatusBadRequest}
)

// Pay cycle errors.
var (
	ErrCycleNotFound  = &AppError{Code: "CYCLE_NOT_FOUND", Message: "Pay cycle not found", StatusCode: http.StatusNotFound}
	ErrNoActiveCycle  = &AppError{Code: "NO_ACTIVE_CYCLE", Message: "No active pay cycle", StatusCode: http.StatusNotFound}
	ErrCycleLocked    = &AppError{Code: "CYCLE_LOCKED", Message: "Pay cycle is locked by a closed ritual", StatusCode: http.StatusConflict}
	ErrCycleNotActive = &AppError{Code: "CYCLE_NOT_ACTIVE", Message: "Pay cycle is not active", StatusCode: http.StatusConflict}
	ErrCycleNotDraft  = &AppError{Code: "CYCLE_NOT_DRAFT", Message: "Pay cycle is not a draft", StatusCode: http.StatusConflict}
	ErrDraftExists    = &AppError{Code: "DRAFT_EXISTS", Message: "A draft pay cycle already exists", StatusCode: http.StatusConflict}
	ErrUnpaidSeeds    = &AppError{Code: "UNPAID_SEEDS", Message: "All seeds must be paid before closing the ritual", StatusCode: http.StatusConflict}
	ErrRitualNotClosed = &AppError{Code: "RITUAL_NOT_CLOSED", Message: "The ritual has not been closed", StatusCode: http.StatusConflict}
)

// Seed errors.
var (
	ErrSeedNotFound        = &AppError{Code: "SEED_NOT_FOUND", Message: "Seed not found", StatusCode: http.StatusNotFound}
	ErrSeedPaidFrozen      = &AppError{Code: "SEED_PAID_FROZEN", Message: "A paid seed cannot be edited or deleted", StatusCode: http.StatusConflict}
	ErrSplitRatioRange     = &AppError{Code: "SPLIT_RATIO_RANGE", Message: "Split ratio must be between 0 and 100", StatusCode: http.StatusBadRequest}
	ErrAmountTooSmall      = &AppError{Code: "AMOUNT_TOO_SMALL", Message: "Amount must be at least 0.01", StatusCode: http.StatusBadRequest}
	ErrDueDateOutsideCycle = &AppError{Code: "DUE_DATE_OUTSIDE_CYCLE", Message: "Due date falls outside the pay cycle", StatusCode: http.StatusBadRequest}
	ErrPayerMismatch       = &AppError{Code: "PAYER_MISMATCH", Message: "Payer does not match the seed's payment source", StatusCode: http.StatusBadRequest}
)

// Pot errors.
var (
	ErrPotNotFound = &AppError{Code: "POT_NOT_FOUND", Message: "Pot not found", StatusCode: http.StatusNotFound}
)

// Repayment errors.
var (
	ErrRepaymentNotFound = &AppError{Code: "REPAYMENT_NOT_FOUND", Message: "Repayment not found", StatusCode: http.StatusNotFound}
)

// Income source errors.
var (
	ErrIncomeSourceNotFound = &AppError{Code: "INCOME_SOURCE_NOT_FOUND", Message: "Income source not found", StatusCode: http.StatusNotFound}
)
