package handlers

import (
	"encoding/json"
	"net/http"

	pkgerrors "loom-backend/pkg/errors"

	"go.uber.org/zap"
)

func respondJSON(w http.ResponseWriter, logger *zap.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Failed to encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, logger *zap.Logger, status int, message string) {
	respondJSON(w, logger, status, map[string]interface{}{
		"error":   true,
		"message": message,
		"code":    status,
	})
}

// respondAppError maps domain errors onto HTTP statuses via the error's own
// status; anything untyped becomes a 500 with a generic message.
func respondAppError(w http.ResponseWriter, logger *zap.Logger, err error) {
	if appErr := pkgerrors.GetAppError(err); appErr != nil {
		respondError(w, logger, appErr.HTTPStatus, appErr.Message)
		return
	}
	logger.Error("Unhandled error", zap.Error(err))
	respondError(w, logger, http.StatusInternalServerError, "Internal server error")
}
