package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
// The caller can always recover by correcting the input.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrState indicates a business-rule conflict: the target is not in a state that
// allows the requested transition. Retrying as-is will fail again.
var ErrState = errors.New("state error")

// ErrIntegrity indicates that a ledger invariant was found broken inside a commit.
// The whole unit of work is aborted.
var ErrIntegrity = errors.New("integrity error")

// ErrConflict indicates a concurrent or duplicate claim on a resource.
var ErrConflict = errors.New("conflict")

// ErrForbidden indicates the authorization collaborator refused the action.
var ErrForbidden = errors.New("forbidden")

// ErrInternal is returned when an unexpected failure is hidden from the caller.
var ErrInternal = errors.New("internal error")

// Validation errors.
var (
	ErrEmptyLines   = fmt.Errorf("%w: journal entry must have at least one line", ErrValidation)
	ErrInvalidLine  = fmt.Errorf("%w: exactly one of debit or credit must be non-zero", ErrValidation)
	ErrUnbalanced   = fmt.Errorf("%w: debits do not equal credits", ErrValidation)
	ErrNotPostable  = fmt.Errorf("%w: account is not postable", ErrValidation)
	ErrCycle        = fmt.Errorf("%w: reparenting would create a cycle", ErrValidation)
	ErrNoPeriod     = fmt.Errorf("%w: no fiscal period covers the date", ErrValidation)
	ErrInvalidScale = fmt.Errorf("%w: amount is finer than the minimum currency unit", ErrValidation)
)

// State errors.
var (
	ErrPeriodClosed      = fmt.Errorf("%w: period is not open", ErrState)
	ErrAccountInUse      = fmt.Errorf("%w: account is in use", ErrState)
	ErrInvalidTransition = fmt.Errorf("%w: invalid status transition", ErrState)
	ErrAlreadyMatched    = fmt.Errorf("%w: already matched", ErrState)
)

// Integrity errors.
var (
	ErrBalanceInvariant = fmt.Errorf("%w: balance invariant violated at commit", ErrIntegrity)
)

// AppError carries a status code alongside a wrapped cause.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// NewAppError wraps err with a code and message.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }
func IsState(err error) bool      { return errors.Is(err, ErrState) }
func IsIntegrity(err error) bool  { return errors.Is(err, ErrIntegrity) }

// HTTPStatus maps an error onto the status code a handler should answer with.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrState), errors.Is(err, ErrConflict), errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrIntegrity):
		return http.StatusUnprocessableEntity
	}
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Code != 0 {
		return appErr.Code
	}
	return http.StatusInternalServerError
}
