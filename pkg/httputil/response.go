package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	apperrors "github.com/utafrali/cadastro/pkg/errors"
	"github.com/utafrali/cadastro/pkg/logger"
	"github.com/utafrali/cadastro/pkg/validator"
)

// MessageResponse acknowledges a write. ID is the affected resource.
type MessageResponse struct {
	Message string `json:"message"`
	ID      int64  `json:"id,omitempty"`
}

// ErrorResponse is the body of every non-2xx response. Message sits at the
// top level so clients can show it without knowing the code.
type ErrorResponse struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// WriteJSON writes v as JSON with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; nothing meaningful can be done if encoding fails.
	_ = json.NewEncoder(w).Encode(v)
}

// WriteMessage writes a MessageResponse.
func WriteMessage(w http.ResponseWriter, status int, message string, id int64) {
	WriteJSON(w, status, MessageResponse{Message: message, ID: id})
}

// WriteError maps err to a status and error body. Storage details are never
// sent to the client: unknown errors become a generic 500 and are logged
// with the request-scoped logger (or fallback when none is mounted).
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback *slog.Logger) {
	l := logger.FromContext(r.Context())
	if l == slog.Default() && fallback != nil {
		l = fallback
	}
	requestID := logger.CorrelationIDFromContext(r.Context())

	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		WriteJSON(w, http.StatusBadRequest, ErrorResponse{
			Code:      "VALIDATION_ERROR",
			Message:   "request validation failed",
			Fields:    valErr.Fields(),
			RequestID: requestID,
		})
		return
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Status >= http.StatusInternalServerError {
			logInternal(l, r, err)
		}
		WriteJSON(w, appErr.Status, ErrorResponse{Code: appErr.Code, Message: appErr.Message, RequestID: requestID})
		return
	}

	status := apperrors.HTTPStatus(err)
	var code, message string

	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		code = "NOT_FOUND"
		message = "resource not found"
	case errors.Is(err, apperrors.ErrAlreadyExists):
		code = "ALREADY_EXISTS"
		message = "resource already exists"
	case errors.Is(err, apperrors.ErrConflict):
		code = "CONFLICT"
		message = "request conflicts with stored data"
	case errors.Is(err, apperrors.ErrInvalidInput):
		code = "INVALID_INPUT"
		message = err.Error()
	default:
		logInternal(l, r, err)
		internal := apperrors.Internal(err)
		code, message = internal.Code, internal.Message
	}

	WriteJSON(w, status, ErrorResponse{Code: code, Message: message, RequestID: requestID})
}

func logInternal(l *slog.Logger, r *http.Request, err error) {
	l.ErrorContext(r.Context(), "internal error",
		slog.String("error", err.Error()),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)
}

// WriteValidationError writes a 400 for a failed decode or validation, or
// a 413 when the body exceeded its size cap. Decoder details are logged,
// never sent to the client.
func WriteValidationError(w http.ResponseWriter, r *http.Request, err error) {
	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		WriteError(w, r, err, nil)
		return
	}

	logger.FromContext(r.Context()).DebugContext(r.Context(), "rejected request body",
		slog.String("error", err.Error()),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)

	requestID := logger.CorrelationIDFromContext(r.Context())
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		WriteJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{
			Code:      "REQUEST_TOO_LARGE",
			Message:   "request body too large",
			RequestID: requestID,
		})
		return
	}

	WriteJSON(w, http.StatusBadRequest, ErrorResponse{
		Code:      "INVALID_INPUT",
		Message:   "malformed JSON body",
		RequestID: requestID,
	})
}

// ParseID parses a positive numeric path parameter. On failure it writes a
// 400 INVALID_PARAMETER response and returns false, signaling the caller to
// return early.
func ParseID(w http.ResponseWriter, param string) (int64, bool) {
	id, err := strconv.ParseInt(param, 10, 64)
	if err != nil || id <= 0 {
		WriteJSON(w, http.StatusBadRequest, ErrorResponse{
			Code:    "INVALID_PARAMETER",
			Message: "invalid id: " + param,
		})
		return 0, false
	}
	return id, true
}
