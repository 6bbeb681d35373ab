// Package errors defines the application error type and the error code
// taxonomy shared by all layers. Codes map to HTTP statuses at the
// transport boundary; inner layers only attach codes.
package errors

import "net/http"

// ErrorCode identifies a category of failure.
type ErrorCode string

// Common codes.
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeInvalidParam       ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_003"
	ErrCodeTimeout            ErrorCode = "COMMON_004"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_005"
	ErrCodeSerialization      ErrorCode = "COMMON_006"
	ErrCodeDatabase           ErrorCode = "COMMON_007"
	ErrCodeCache              ErrorCode = "COMMON_008"
)

// Domain codes.
const (
	// ErrCodeBadCoordinates marks a coordinate string that is not three
	// underscore-separated real numbers.
	ErrCodeBadCoordinates ErrorCode = "STUDY_001"
	// ErrCodeBadFormat marks an unsupported response format request.
	ErrCodeBadFormat ErrorCode = "STUDY_002"
)

var errorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeInvalidParam:       http.StatusBadRequest,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeDatabase:           http.StatusInternalServerError,
	ErrCodeCache:              http.StatusInternalServerError,
	ErrCodeBadCoordinates:     http.StatusBadRequest,
	ErrCodeBadFormat:          http.StatusBadRequest,
}

// HTTPStatusForCode returns the HTTP status a code maps to, defaulting to
// 500 for unknown codes.
func HTTPStatusForCode(code ErrorCode) int {
	if s, ok := errorCodeHTTPStatus[code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// IsClientError reports whether the code maps to a 4xx status.
func IsClientError(code ErrorCode) bool {
	s := HTTPStatusForCode(code)
	return s >= 400 && s < 500
}

// IsServerError reports whether the code maps to a 5xx status.
func IsServerError(code ErrorCode) bool {
	return HTTPStatusForCode(code) >= 500
}
