package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/benvon/selfspeak/internal/apperror"
	logpkg "github.com/benvon/selfspeak/internal/logger"
	"github.com/benvon/selfspeak/internal/models"
)

// envelope is the body of every API response
type envelope struct {
	Success   bool                 `json:"success"`
	Data      any                  `json:"data,omitempty"`
	Error     string               `json:"error,omitempty"`
	Message   string               `json:"message,omitempty"`
	Retryable bool                 `json:"retryable,omitempty"`
	Usage     *models.UsageSummary `json:"usage,omitempty"`
	Timestamp string               `json:"timestamp"`
}

const maxErrorMessageLength = 200

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data any) {
	writeEnvelope(w, status, envelope{Success: true, Data: data})
}

// respondJSONWithUsage sends a JSON response carrying the caller's weekly usage
func respondJSONWithUsage(w http.ResponseWriter, status int, data any, usage models.UsageSummary) {
	writeEnvelope(w, status, envelope{Success: true, Data: data, Usage: &usage})
}

// respondJSONError sends an error JSON response with sanitized error messages
func respondJSONError(w http.ResponseWriter, status int, errorType, message string) {
	writeEnvelope(w, status, envelope{Error: errorType, Message: sanitizeErrorMessage(message)})
}

// respondAppError maps a service error to its status code. Internal details
// of storage and unknown failures are logged, not returned.
func respondAppError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	var appErr *apperror.Error
	if !errors.As(err, &appErr) {
		logger.Error("unhandled_error",
			zap.String("path", logpkg.SanitizePath(r.URL.Path)),
			zap.String("error", logpkg.SanitizeError(err)))
		respondJSONError(w, http.StatusInternalServerError, string(apperror.KindUnknown), "An unexpected error occurred")
		return
	}

	status := StatusForKind(appErr.Kind)
	body := envelope{Error: string(appErr.Kind), Retryable: appErr.Retryable(), Usage: appErr.Usage}

	switch appErr.Kind {
	case apperror.KindStorage:
		logger.Error("storage_error",
			zap.String("op", appErr.Op),
			zap.String("error", logpkg.SanitizeError(err)))
		body.Message = "A storage error occurred"
	case apperror.KindAnalysisEngine:
		logger.Warn("analysis_engine_error",
			zap.String("op", appErr.Op),
			zap.String("error", logpkg.SanitizeError(err)))
		body.Message = "The analysis service is unavailable. Please try again."
	case apperror.KindValidation:
		logger.Warn("analysis_validation_error",
			zap.String("op", appErr.Op),
			zap.String("error", logpkg.SanitizeError(err)))
		body.Message = "The analysis result was invalid. Please try again."
	default:
		body.Message = sanitizeErrorMessage(appErr.Message)
	}

	writeEnvelope(w, status, body)
}

// StatusForKind returns the HTTP status for an error kind
func StatusForKind(kind apperror.Kind) int {
	switch kind {
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindQuotaExceeded:
		return http.StatusTooManyRequests
	case apperror.KindValidation:
		return http.StatusUnprocessableEntity
	case apperror.KindAnalysisEngine:
		return http.StatusBadGateway
	case apperror.KindInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeEnvelope(w http.ResponseWriter, status int, body envelope) {
	body.Timestamp = time.Now().UTC().Format(time.RFC3339)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// sanitizeErrorMessage bounds messages returned to clients
func sanitizeErrorMessage(message string) string {
	if len(message) > maxErrorMessageLength {
		return message[:maxErrorMessageLength] + "..."
	}
	return message
}

// decodeJSON decodes an optional JSON body into dst. An empty body leaves dst untouched.
func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return err
	}
	return nil
}
