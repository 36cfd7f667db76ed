package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/DukeRupert/samplebase/internal/domain"
	"github.com/DukeRupert/samplebase/internal/middleware"
)

// ErrorResponse writes err as a JSON error body. Domain error codes map to
// HTTP statuses; field-level validation errors carry their fields.
func ErrorResponse(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		logger.Info("validation error",
			"op", ve.Op,
			"field_count", len(ve.Fields),
			"path", r.URL.Path,
			"request_id", middleware.RequestID(r.Context()),
		)
		writeJSON(w, http.StatusBadRequest, JSONError{Error: JSONErrorBody{
			Code:    domain.EINVALID,
			Message: "Validation failed",
			Fields:  ve.Fields,
		}})
		return
	}

	code := domain.ErrorCode(err)
	message := domain.ErrorMessage(err)
	op := domain.ErrorOp(err)
	status := ErrorCodeToHTTPStatus(code)

	logError(logger, r, err, code, op, status)

	writeJSON(w, status, JSONError{Error: JSONErrorBody{
		Code:    code,
		Message: message,
	}})
}

// ErrorCodeToHTTPStatus maps domain error codes to HTTP status codes.
func ErrorCodeToHTTPStatus(code string) int {
	switch code {
	case domain.EINVALID:
		return http.StatusBadRequest // 400
	case domain.EUNAUTHORIZED:
		return http.StatusUnauthorized // 401
	case domain.EPAYMENT:
		return http.StatusPaymentRequired // 402
	case domain.EFORBIDDEN:
		return http.StatusForbidden // 403
	case domain.ENOTFOUND:
		return http.StatusNotFound // 404
	case domain.ECONFLICT, domain.ESTATE:
		return http.StatusConflict // 409
	case domain.ERATELIMIT:
		return http.StatusTooManyRequests // 429
	case domain.EUPSTREAM:
		return http.StatusBadGateway // 502
	default:
		return http.StatusInternalServerError // 500
	}
}

// NotFoundResponse is a convenience wrapper for 404 errors.
func NotFoundResponse(w http.ResponseWriter, r *http.Request, logger *slog.Logger) {
	err := domain.Errorf(domain.ENOTFOUND, "", "The requested resource was not found")
	ErrorResponse(w, r, logger, err)
}

// logError logs the error with appropriate level based on status code.
func logError(logger *slog.Logger, r *http.Request, err error, code, op string, status int) {
	attrs := []any{
		"error", err.Error(),
		"code", code,
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"request_id", middleware.RequestID(r.Context()),
	}
	if op != "" {
		attrs = append(attrs, "op", op)
	}
	if cause := errors.Unwrap(err); cause != nil {
		attrs = append(attrs, "cause", cause.Error())
	}

	switch {
	case status >= 500:
		logger.Error("server error", attrs...)
	case status >= 400:
		logger.Info("client error", attrs...)
	}
}

// JSONError is the body of every error response.
type JSONError struct {
	Error JSONErrorBody `json:"error"`
}

// JSONErrorBody carries the domain error code and a client-safe message.
type JSONErrorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}
