// Package dto provides data transfer objects for the HTTP surface: the
// error envelope, pagination, and request binding with validation.
package dto

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"github.com/chimekit/chime/internal/domain"
	"github.com/chimekit/chime/internal/platform/logging"
)

// ErrorResponse is the error envelope used by every error response.
type ErrorResponse struct {
	Error   ErrorDetail `json:"error"`
	TraceID string      `json:"traceId,omitempty"`
}

// ErrorDetail carries the machine-readable code, a human-readable message
// and optional field-level details.
type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// Machine-readable error codes.
const (
	// ErrorCodeNotFound indicates the sound file or resource was not found.
	ErrorCodeNotFound = "NOT_FOUND"

	// ErrorCodeValidation indicates request validation failed.
	ErrorCodeValidation = "VALIDATION_ERROR"

	// ErrorCodeBadRequest indicates the request was malformed.
	ErrorCodeBadRequest = "BAD_REQUEST"

	// ErrorCodeUnauthorized indicates authentication is required.
	ErrorCodeUnauthorized = "UNAUTHORIZED"

	// ErrorCodeForbidden indicates the operation is not permitted.
	ErrorCodeForbidden = "FORBIDDEN"

	// ErrorCodeSoundDisabled indicates playback is switched off by the
	// kill switch.
	ErrorCodeSoundDisabled = "SOUND_DISABLED"

	// ErrorCodeUnavailable indicates the audio backend is unavailable.
	ErrorCodeUnavailable = "SERVICE_UNAVAILABLE"

	// ErrorCodePlayback indicates the backend accepted but failed to play
	// the sound.
	ErrorCodePlayback = "PLAYBACK_FAILED"

	// ErrorCodeTimeout indicates the request deadline expired.
	ErrorCodeTimeout = "TIMEOUT"

	// ErrorCodeInternal indicates an internal daemon error.
	ErrorCodeInternal = "INTERNAL_ERROR"
)

// NewErrorResponse creates an error response with the given code and message.
func NewErrorResponse(code, message string) *ErrorResponse {
	return &ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	}
}

// NewErrorResponseWithDetails creates an error response carrying
// field-level details.
func NewErrorResponseWithDetails(code, message string, details map[string]string) *ErrorResponse {
	return &ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

// WithTraceID adds a trace ID to the error response.
func (e *ErrorResponse) WithTraceID(traceID string) *ErrorResponse {
	e.TraceID = traceID
	return e
}

// HTTPStatusFromCode maps error codes to HTTP status codes.
func HTTPStatusFromCode(code string) int {
	switch code {
	case ErrorCodeNotFound:
		return http.StatusNotFound
	case ErrorCodeValidation, ErrorCodeBadRequest:
		return http.StatusBadRequest
	case ErrorCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrorCodeForbidden, ErrorCodeSoundDisabled:
		return http.StatusForbidden
	case ErrorCodeUnavailable:
		return http.StatusServiceUnavailable
	case ErrorCodePlayback:
		return http.StatusBadGateway
	case ErrorCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// MapDomainError maps a domain error to an HTTP status and error envelope.
// Backend result codes refine the mapping: a missing sound file is a 404,
// the playback kill switch a 403, an unreachable audio backend a 503.
// Unknown errors become a 500 with a generic message.
func MapDomainError(err error) (int, *ErrorResponse) {
	if err == nil {
		return http.StatusOK, nil
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout, NewErrorResponse(
			ErrorCodeTimeout,
			"request deadline exceeded",
		)

	case domain.IsInvalidArgument(err), domain.IsMarshal(err):
		return http.StatusBadRequest, NewErrorResponse(
			ErrorCodeValidation,
			err.Error(),
		)

	case domain.IsSubmission(err), domain.IsPlayback(err):
		code := errorCodeFromBackend(domain.CodeFromError(err))

		return HTTPStatusFromCode(code), NewErrorResponse(code, err.Error())

	default:
		return http.StatusInternalServerError, NewErrorResponse(
			ErrorCodeInternal,
			"an internal error occurred",
		)
	}
}

// errorCodeFromBackend picks the envelope code for a backend result code.
func errorCodeFromBackend(code domain.Code) string {
	switch code {
	case domain.CodeNotFound:
		return ErrorCodeNotFound
	case domain.CodeDisabled:
		return ErrorCodeSoundDisabled
	case domain.CodeAccess:
		return ErrorCodeForbidden
	case domain.CodeInvalid, domain.CodeNotSupported:
		return ErrorCodeBadRequest
	case domain.CodeNotAvailable, domain.CodeNoDriver, domain.CodeDisconnected:
		return ErrorCodeUnavailable
	case domain.CodeCanceled:
		return ErrorCodeTimeout
	default:
		return ErrorCodePlayback
	}
}

// HandleError writes the mapped error response for err, attaching the
// trace ID when a span is recording. Internal errors are logged in full;
// the response keeps its generic message.
func HandleError(c *gin.Context, err error) {
	status, resp := MapDomainError(err)

	if span := trace.SpanFromContext(c.Request.Context()); span.SpanContext().HasTraceID() {
		resp.TraceID = span.SpanContext().TraceID().String()
	}

	if status == http.StatusInternalServerError {
		logging.FromContext(c.Request.Context()).Error("internal error",
			slog.String("error", err.Error()),
			slog.String("trace_id", resp.TraceID),
		)
	}

	c.JSON(status, resp)
}

// AbortWithErrorCode stops the handler chain and writes an error response
// with the given code. Intended for middleware.
func AbortWithErrorCode(c *gin.Context, code, message string) {
	resp := NewErrorResponse(code, message)

	if span := trace.SpanFromContext(c.Request.Context()); span.SpanContext().HasTraceID() {
		resp.TraceID = span.SpanContext().TraceID().String()
	}

	c.AbortWithStatusJSON(HTTPStatusFromCode(code), resp)
}

// RespondWithValidationErrors writes a 400 with field-level messages.
func RespondWithValidationErrors(c *gin.Context, fieldErrors map[string]string) {
	resp := NewErrorResponseWithDetails(
		ErrorCodeValidation,
		"request validation failed",
		fieldErrors,
	)

	if span := trace.SpanFromContext(c.Request.Context()); span.SpanContext().HasTraceID() {
		resp.TraceID = span.SpanContext().TraceID().String()
	}

	c.JSON(http.StatusBadRequest, resp)
}
