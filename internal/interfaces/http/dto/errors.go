package dto

import "net/http"

// Error codes used across the API surface.
const (
	// Client errors
	ErrCodeInvalidRequest = "ERR_INVALID_REQUEST"
	ErrCodeValidation     = "ERR_VALIDATION"
	ErrCodeNotFound       = "ERR_NOT_FOUND"
	ErrCodeConflict       = "ERR_CONFLICT"
	ErrCodeEmailConflict  = "ERR_EMAIL_CONFLICT"

	// Server errors
	ErrCodeInternal    = "ERR_INTERNAL"
	ErrCodeUnavailable = "ERR_UNAVAILABLE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes.
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInvalidRequest: http.StatusBadRequest,
	ErrCodeValidation:     http.StatusUnprocessableEntity,
	ErrCodeNotFound:       http.StatusNotFound,
	ErrCodeConflict:       http.StatusConflict,
	ErrCodeEmailConflict:  http.StatusConflict,
	ErrCodeInternal:       http.StatusInternalServerError,
	ErrCodeUnavailable:    http.StatusServiceUnavailable,
}

// GetHTTPStatus returns the HTTP status for an error code,
// defaulting to 500 for unknown codes.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// domainErrorCodeMapping translates domain-layer error codes to API codes.
var domainErrorCodeMapping = map[string]string{
	"NOT_FOUND":           ErrCodeNotFound,
	"EMAIL_CONFLICT":      ErrCodeEmailConflict,
	"INVALID_INPUT":       ErrCodeInvalidRequest,
	"INVALID_NAME":        ErrCodeInvalidRequest,
	"INVALID_EMAIL":       ErrCodeInvalidRequest,
	"INVALID_PHONE":       ErrCodeInvalidRequest,
	"INVALID_NATIONAL_ID": ErrCodeInvalidRequest,
}

// NormalizeErrorCode converts a domain error code to its API equivalent.
// Codes already in API form pass through unchanged; anything unrecognized
// is treated as an internal error.
func NormalizeErrorCode(code string) string {
	if mapped, ok := domainErrorCodeMapping[code]; ok {
		return mapped
	}
	if _, ok := ErrorCodeHTTPStatus[code]; ok {
		return code
	}
	return ErrCodeInternal
}
