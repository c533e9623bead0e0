// Package response provides standardized HTTP response envelopes for the
// life manager API.
package response

import (
	"encoding/json"
	"net/http"
	"time"
)

// ErrorCode represents standardized error codes for the API
type ErrorCode string

const (
	// Client error codes (4xx)
	ErrorCodeBadRequest       ErrorCode = "BAD_REQUEST"
	ErrorCodeNotFound         ErrorCode = "NOT_FOUND"
	ErrorCodeMethodNotAllowed ErrorCode = "METHOD_NOT_ALLOWED"

	// Server error codes (5xx)
	ErrorCodeInternalError      ErrorCode = "INTERNAL_ERROR"
	ErrorCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error     ErrorDetails `json:"error"`
	Timestamp string       `json:"timestamp"`
	RequestID string       `json:"request_id,omitempty"`
}

// ErrorDetails contains detailed error information
type ErrorDetails struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
}

// SuccessResponse represents a standardized success response
type SuccessResponse struct {
	Data      interface{} `json:"data"`
	Message   string      `json:"message,omitempty"`
	Timestamp string      `json:"timestamp"`
}

// WriteError writes a standardized error response
func WriteError(w http.ResponseWriter, statusCode int, code ErrorCode, message string, details ...string) {
	errorDetails := ErrorDetails{
		Code:    code,
		Message: message,
	}
	if len(details) > 0 {
		errorDetails.Details = details[0]
	}

	writeJSON(w, statusCode, ErrorResponse{
		Error:     errorDetails,
		Timestamp: now(),
		RequestID: w.Header().Get("X-Request-ID"),
	})
}

// WriteSuccess writes a 200 success envelope
func WriteSuccess(w http.ResponseWriter, data interface{}, message ...string) {
	WriteStatus(w, http.StatusOK, data, message...)
}

// WriteStatus writes a success envelope with an explicit status code
func WriteStatus(w http.ResponseWriter, statusCode int, data interface{}, message ...string) {
	resp := SuccessResponse{
		Data:      data,
		Timestamp: now(),
	}
	if len(message) > 0 {
		resp.Message = message[0]
	}
	writeJSON(w, statusCode, resp)
}

// WriteBadRequest writes a 400 Bad Request error
func WriteBadRequest(w http.ResponseWriter, message string, details ...string) {
	WriteError(w, http.StatusBadRequest, ErrorCodeBadRequest, message, details...)
}

// WriteNotFound writes a 404 Not Found error
func WriteNotFound(w http.ResponseWriter, message string, details ...string) {
	WriteError(w, http.StatusNotFound, ErrorCodeNotFound, message, details...)
}

// WriteMethodNotAllowed writes a 405 Method Not Allowed error
func WriteMethodNotAllowed(w http.ResponseWriter, message string, details ...string) {
	WriteError(w, http.StatusMethodNotAllowed, ErrorCodeMethodNotAllowed, message, details...)
}

// WriteInternalError writes a 500 Internal Server Error
func WriteInternalError(w http.ResponseWriter, message string, details ...string) {
	WriteError(w, http.StatusInternalServerError, ErrorCodeInternalError, message, details...)
}

// WriteServiceUnavailable writes a 503 Service Unavailable error
func WriteServiceUnavailable(w http.ResponseWriter, message string, details ...string) {
	WriteError(w, http.StatusServiceUnavailable, ErrorCodeServiceUnavailable, message, details...)
}

func writeJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	data, err := json.Marshal(body)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_, _ = w.Write(append(data, '\n'))
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
