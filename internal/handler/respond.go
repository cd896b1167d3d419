package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/tonggak/milestones/internal/repository"
	"github.com/tonggak/milestones/internal/service"
	"github.com/tonggak/milestones/internal/validation"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondJSON writes the payload with the given status code
func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(payload)
	if err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	respondJSON(w, statusCode, ErrorResponse{Error: message})
}

// respondServiceError maps service-level errors onto HTTP status codes.
// The error messages themselves are already user-safe: services log
// backend detail and return generic messages outside development.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		respondError(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, service.ErrSignupDisabled):
		respondError(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, service.ErrInvalidEmail),
		errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrInvalidCodeFormat),
		errors.Is(err, service.ErrInvalidImageKey),
		errors.Is(err, validation.ErrUnsupportedImageType),
		errors.Is(err, validation.ErrImageContentMismatch):
		respondError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, validation.ErrImageTooLarge):
		respondError(w, err.Error(), http.StatusRequestEntityTooLarge)
	case errors.Is(err, service.ErrSessionExpired),
		errors.Is(err, service.ErrCodeExpired),
		errors.Is(err, service.ErrCodeIncorrect):
		respondError(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, repository.ErrMilestoneNotFound),
		errors.Is(err, repository.ErrUserNotFound):
		respondError(w, err.Error(), http.StatusNotFound)
	default:
		slog.Error("request failed", "error", err)
		respondError(w, "something went wrong, please try again", http.StatusInternalServerError)
	}
}
