// Package http exposes the ledger session as a JSON API.
//
// This file implements a fluent builder for JSON responses and the mapping
// from ledger error kinds to HTTP status codes.
package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"myfinance/internal/core"
	"myfinance/internal/ledger"
)

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	payload    any
	headers    map[string]string
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a custom header to the response.
func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Data sets the value encoded as the response body.
func (b *JSONResponseBuilder) Data(v any) *JSONResponseBuilder {
	b.payload = v
	return b
}

// Created is a shortcut for a 201 carrying the new entity.
func (b *JSONResponseBuilder) Created(v any) *JSONResponseBuilder {
	return b.Status(http.StatusCreated).Data(v)
}

// Write sends the built response. 204 responses carry no body.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.statusCode == http.StatusNoContent || b.payload == nil {
		w.WriteHeader(b.statusCode)
		return
	}

	body, err := json.Marshal(b.payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"code":"encoding_failed","message":"failed to encode response"}}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(b.statusCode)
	_, _ = w.Write(body)
	_, _ = w.Write([]byte("\n"))
}

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// Error codes returned in ErrorDetail.Code.
const (
	CodeValidation       = "validation_failed"
	CodeNotFound         = "not_found"
	CodeDuplicateWindow  = "duplicate_window"
	CodePersistence      = "persistence_failed"
	CodeBadRequest       = "bad_request"
	CodeMethodNotAllowed = "method_not_allowed"
	CodeRateLimited      = "rate_limited"
	CodeUnavailable      = "unavailable"
	CodeInternal         = "internal_error"
)

// ErrorResponse creates a standard JSON error response.
func ErrorResponse(statusCode int, code, message string) *JSONResponseBuilder {
	return NewJSONResponse().
		Status(statusCode).
		Data(ErrorBody{Error: ErrorDetail{Code: code, Message: message}})
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, CodeBadRequest, message)
}

// NotFoundError creates a 404 Not Found error response.
func NotFoundError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, CodeNotFound, message)
}

// InternalServerError creates a 500 Internal Server Error response.
func InternalServerError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, CodeInternal, message)
}

// MethodNotAllowedError creates a 405 Method Not Allowed error response.
func MethodNotAllowedError(allowedMethods string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusMethodNotAllowed, CodeMethodNotAllowed, "method not allowed").
		Header("Allow", allowedMethods)
}

// FromError maps a ledger error to its response:
// validation 422, not found 404, duplicate window 409, persistence 503.
func FromError(err error) *JSONResponseBuilder {
	var (
		verr *core.ValidationError
		nf   *core.NotFoundError
	)
	switch {
	case errors.As(err, &verr):
		return NewJSONResponse().
			Status(http.StatusUnprocessableEntity).
			Data(ErrorBody{Error: ErrorDetail{Code: CodeValidation, Message: verr.Error(), Field: verr.Field}})
	case errors.Is(err, core.ErrValidation):
		return ErrorResponse(http.StatusUnprocessableEntity, CodeValidation, err.Error())
	case errors.As(err, &nf):
		return NotFoundError(nf.Error())
	case errors.Is(err, core.ErrNotFound):
		return NotFoundError(err.Error())
	case errors.Is(err, core.ErrDuplicateWindow):
		return ErrorResponse(http.StatusConflict, CodeDuplicateWindow, err.Error())
	case errors.Is(err, core.ErrPersistence):
		return ErrorResponse(http.StatusServiceUnavailable, CodePersistence, "changes could not be saved; nothing was modified").
			Header("Retry-After", "5")
	case errors.Is(err, ledger.ErrSessionClosed):
		return ErrorResponse(http.StatusServiceUnavailable, CodeUnavailable, err.Error())
	default:
		return InternalServerError("internal error")
	}
}
