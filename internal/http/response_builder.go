// This file implements the builder for JSON responses: a fluent API
// for status, headers and payload, plus the mapping from domain error
// classes to HTTP status codes.

package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/core"
	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/ledger"
	applog "github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/log"
	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/middleware/trace"
)

// JSONResponseBuilder provides a fluent API for building API responses.
// A nil payload writes only the status code and headers.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	payload    any
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

// Payload sets the body, encoded as JSON on Write.
func (b *JSONResponseBuilder) Payload(v any) *JSONResponseBuilder {
	b.payload = v
	return b
}

// errorPayload is the uniform error body. The request ID is filled in
// from the request context on Write so clients can quote it back.
type errorPayload struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// Write sends the built response. Encoding failures cannot be reported
// to the client once the status line is out, so they are only logged.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter, r *http.Request) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}

	if b.payload == nil {
		w.WriteHeader(b.statusCode)
		return
	}

	if p, ok := b.payload.(*errorPayload); ok && p.RequestID == "" {
		p.RequestID = trace.GetRequestID(r.Context())
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	if err := json.NewEncoder(w).Encode(b.payload); err != nil {
		ctx := r.Context()
		applog.FromContext(ctx).ErrorContext(ctx, "response encoding failed",
			applog.FieldError, err.Error(),
			applog.FieldPath, r.URL.Path)
	}
}

// ErrorResponse creates a standard error response with a JSON body.
func ErrorResponse(statusCode int, message string) *JSONResponseBuilder {
	return NewJSONResponse().
		Status(statusCode).
		Payload(&errorPayload{Error: message})
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

// UnprocessableEntityError creates a 422 Unprocessable Entity error response.
func UnprocessableEntityError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusUnprocessableEntity, message)
}

// NotFoundError creates a 404 Not Found error response.
func NotFoundError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

// ServiceUnavailableError creates a 503 response with a retry hint.
func ServiceUnavailableError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusServiceUnavailable, message).
		Header("Retry-After", "30")
}

// InternalServerError creates a 500 Internal Server Error response.
func InternalServerError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

// MethodNotAllowedError creates a 405 Method Not Allowed error response.
func MethodNotAllowedError(allowedMethods string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusMethodNotAllowed, "method not allowed").
		Header("Allow", allowedMethods)
}

// DomainError maps an error to the response for its class. Parse
// failures are the client's fault, validation failures carry a valid
// shape but broken invariants, and a lost backend is temporary.
// Anything unclassified stays a 500 with the detail kept server-side.
func DomainError(err error) *JSONResponseBuilder {
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		return NotFoundError(err.Error())
	case errors.Is(err, core.ErrValidation):
		return UnprocessableEntityError(err.Error())
	case errors.Is(err, core.ErrParse):
		return BadRequestError(err.Error())
	case errors.Is(err, core.ErrSyncUnavailable):
		return ServiceUnavailableError(err.Error())
	default:
		return InternalServerError("internal error")
	}
}
