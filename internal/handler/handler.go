package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"coursehunter/internal/model"

	"github.com/rs/zerolog"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 64 << 10

// statusByCode maps domain error codes to HTTP status codes.
var statusByCode = map[string]int{
	model.ErrCodeInvalidHandle:      http.StatusBadRequest,
	model.ErrCodeHandleRequired:     http.StatusUnauthorized,
	model.ErrCodeCourseNotFound:     http.StatusNotFound,
	model.ErrCodeOrderNotFound:      http.StatusNotFound,
	model.ErrCodeOrderCompleted:     http.StatusConflict,
	model.ErrCodeInvalidStatus:      http.StatusBadRequest,
	model.ErrCodeCourseLinkRequired: http.StatusBadRequest,
	model.ErrCodeCourseNameRequired: http.StatusBadRequest,
	model.ErrCodeInvalidAccessCode:  http.StatusUnauthorized,
	model.ErrCodeNotificationFailed: http.StatusBadGateway,
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but don't expose it to the client
		return
	}
}

// writeError writes an error response with the given status code, code and message.
func writeError(w http.ResponseWriter, status int, code, message string, logger zerolog.Logger) {
	event := logger.Warn()
	if status >= http.StatusInternalServerError {
		event = logger.Error()
	}
	event.Str("code", code).Str("error", message).Int("status", status).Msg("handler error")
	writeJSON(w, status, model.ErrorResponse{Error: code, Message: message})
}

// writeServiceError translates a service error into a response. Domain errors
// keep their code and message, anything else becomes a 500.
func writeServiceError(w http.ResponseWriter, err error, logger zerolog.Logger) {
	if de, ok := model.AsDomainError(err); ok {
		status, known := statusByCode[de.Code]
		if !known {
			status = http.StatusBadRequest
		}
		writeError(w, status, de.Code, de.Message, logger)
		return
	}

	logger.Error().Err(err).Msg("unexpected service error")
	writeError(w, http.StatusInternalServerError, model.ErrCodeInternalError, "internal server error", logger)
}

// decodeJSON decodes a bounded JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeInvalidJSON(w http.ResponseWriter, err error, logger zerolog.Logger) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		writeError(w, http.StatusRequestEntityTooLarge, model.ErrCodeInvalidJSON, "request body too large", logger)
		return
	}
	writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", logger)
}
