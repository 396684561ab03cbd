package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/quiniela/platform/internal/auth"
	"github.com/quiniela/platform/internal/domain"
)

// maxBodyBytes caps request bodies accepted by DecodeJSON.
const maxBodyBytes = 1 << 20

// RespondJSON writes a JSON response with the given status code.
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind domain.Kind) int {
	switch kind {
	case domain.KindUnauthorized:
		return http.StatusUnauthorized
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindInvalidArgument:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// RespondError writes {"error", "code"} for err. Errors that are not a
// domain.AppError are reported as a generic internal error.
func RespondError(w http.ResponseWriter, err error) {
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		RespondJSON(w, StatusFor(appErr.Kind), map[string]string{
			"error": appErr.Message,
			"code":  appErr.Code(),
		})
		return
	}
	RespondJSON(w, http.StatusInternalServerError, map[string]string{
		"error": "internal server error",
		"code":  domain.KindInternal.String(),
	})
}

// WriteError logs server-side failures and renders err.
func WriteError(logger *slog.Logger, w http.ResponseWriter, r *http.Request, err error) {
	if StatusFor(domain.KindOf(err)) >= http.StatusInternalServerError {
		logger.Error("request failed",
			"error", err,
			"path", r.URL.Path,
			"request_id", GetRequestID(r.Context()),
		)
	}
	RespondError(w, err)
}

// ErrorWriter adapts WriteError for the auth middleware.
func ErrorWriter(logger *slog.Logger) auth.ErrorWriter {
	return func(w http.ResponseWriter, r *http.Request, err error) {
		WriteError(logger, w, r, err)
	}
}

// DecodeJSON reads and decodes a JSON request body into dst.
func DecodeJSON(r *http.Request, dst interface{}) error {
	return json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes)).Decode(dst)
}

// badBody is the response for a body DecodeJSON rejected.
func badBody(w http.ResponseWriter) {
	RespondError(w, domain.ErrValidation("invalid request body"))
}
