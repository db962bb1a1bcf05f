package dto

import "net/http"

// Response represents a standard API response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
}

// ErrorInfo represents error details
type ErrorInfo struct {
	Code      string             `json:"code"`
	Message   string             `json:"message"`
	RequestID string             `json:"request_id,omitempty"`
	Details   []ValidationDetail `json:"details,omitempty"`
}

// ValidationDetail describes a single field validation failure
type ValidationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error codes returned by the API
const (
	ErrCodeBadRequest        = "BAD_REQUEST"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeConflict          = "CONFLICT"
	ErrCodeInvalidTransition = "INVALID_TRANSITION"
	ErrCodeDeviceUnavailable = "DEVICE_UNAVAILABLE"
	ErrCodeInternal          = "INTERNAL_ERROR"
)

// statusByCode maps error codes to HTTP status codes
var statusByCode = map[string]int{
	ErrCodeBadRequest:        http.StatusBadRequest,
	ErrCodeNotFound:          http.StatusNotFound,
	ErrCodeConflict:          http.StatusConflict,
	ErrCodeInvalidTransition: http.StatusUnprocessableEntity,
	ErrCodeDeviceUnavailable: http.StatusBadGateway,
	ErrCodeInternal:          http.StatusInternalServerError,

	// Domain error codes surfaced directly
	"INVALID_INPUT":        http.StatusBadRequest,
	"INVALID_BILLING_DAY":  http.StatusBadRequest,
	"INVALID_NAME":         http.StatusBadRequest,
	"INVALID_STATE":        http.StatusUnprocessableEntity,
	"ALREADY_EXISTS":       http.StatusConflict,
	"PLAN_WITHOUT_TIER":    http.StatusUnprocessableEntity,
	"CONCURRENCY_CONFLICT": http.StatusConflict,
}

// GetHTTPStatus returns the HTTP status code for an error code
func GetHTTPStatus(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// NewSuccessResponse creates a success response
func NewSuccessResponse(data interface{}) Response {
	return Response{
		Success: true,
		Data:    data,
	}
}

// NewErrorResponse creates an error response
func NewErrorResponse(code, message, requestID string) Response {
	return Response{
		Success: false,
		Error: &ErrorInfo{
			Code:      code,
			Message:   message,
			RequestID: requestID,
		},
	}
}

// NewValidationErrorResponse creates an error response carrying per-field details
func NewValidationErrorResponse(message, requestID string, details []ValidationDetail) Response {
	return Response{
		Success: false,
		Error: &ErrorInfo{
			Code:      ErrCodeBadRequest,
			Message:   message,
			RequestID: requestID,
			Details:   details,
		},
	}
}
