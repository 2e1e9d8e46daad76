package dto

import (
	"net/http"

	"github.com/gestionale/backend/internal/domain/shared"
)

// Error codes surfaced by the HTTP layer itself. Domain errors pass their
// own codes through unchanged (see domain/shared/errors.go).
const (
	ErrCodeBadRequest         = "INVALID_INPUT"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeTokenExpired       = "TOKEN_EXPIRED"
	ErrCodeTokenInvalid       = "TOKEN_INVALID"
	ErrCodeTokenRevoked       = "TOKEN_REVOKED"
	ErrCodeTokenMaxRefresh    = "TOKEN_MAX_REFRESH"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeAccountDisabled    = "ACCOUNT_DISABLED"
	ErrCodeRoleInUse          = "ROLE_IN_USE"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// errorCodeHTTPStatus maps every error code the API emits to its HTTP
// status. Rule violations and workflow misuse are 422: the request was
// well-formed but cannot be honored. Lost optimistic-concurrency races and
// referential conflicts are 409.
var errorCodeHTTPStatus = map[string]int{
	shared.CodeInvalidInput:        http.StatusBadRequest,
	ErrCodeUnauthorized:            http.StatusUnauthorized,
	ErrCodeTokenExpired:            http.StatusUnauthorized,
	ErrCodeTokenInvalid:            http.StatusUnauthorized,
	ErrCodeTokenRevoked:            http.StatusUnauthorized,
	ErrCodeTokenMaxRefresh:         http.StatusUnauthorized,
	ErrCodeInvalidCredentials:      http.StatusUnauthorized,
	ErrCodeAccountDisabled:         http.StatusForbidden,
	shared.CodeForbidden:           http.StatusForbidden,
	shared.CodeNotFound:            http.StatusNotFound,
	shared.CodeConcurrencyConflict: http.StatusConflict,
	ErrCodeRoleInUse:               http.StatusConflict,
	shared.CodeInvalidTransition:   http.StatusUnprocessableEntity,
	shared.CodeLimitExceeded:       http.StatusUnprocessableEntity,
	shared.CodeMissingAttachment:   http.StatusUnprocessableEntity,
	shared.CodeAmountExceeded:      http.StatusUnprocessableEntity,
	ErrCodeInternal:                http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status for an error code. Unknown codes
// map to 500 so a forgotten mapping never leaks as a misleading 200.
func GetHTTPStatus(code string) int {
	if status, ok := errorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
