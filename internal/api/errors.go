package api

import "net/http"

// Error codes shared by the handler packages.
const (
	CodeInvalidTenant = "invalid_tenant_id"
	CodeInvalidJSON   = "invalid_json"
	CodeNotFound      = "not_found"
	CodeConflict      = "conflict"
	CodeInternal      = "internal_error"
)

// Error is the body of an error response.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an Error as {"error": {...}}.
type ErrorResponse struct {
	Error Error `json:"error"`
}

// WriteError writes the error envelope with the given HTTP status code.
func WriteError(w http.ResponseWriter, statusCode int, code, message string) {
	WriteJSON(w, statusCode, ErrorResponse{Error: Error{Code: code, Message: message}})
}

// NotFound writes a 404 with the not_found code.
func NotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, CodeNotFound, message)
}

// BadRequest writes a 400 with code.
func BadRequest(w http.ResponseWriter, code, message string) {
	WriteError(w, http.StatusBadRequest, code, message)
}

// Internal writes a 500 with code.
func Internal(w http.ResponseWriter, code, message string) {
	WriteError(w, http.StatusInternalServerError, code, message)
}
