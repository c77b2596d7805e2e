package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	apperrors "github.com/civicpulse/reporter/backend/pkg/errors"
)

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}

// StatusFor maps an application error to its HTTP status
func StatusFor(err error) int {
	switch apperrors.TypeOf(err) {
	case apperrors.ErrorTypeValidation:
		return http.StatusBadRequest
	case apperrors.ErrorTypeAuthentication:
		return http.StatusUnauthorized
	case apperrors.ErrorTypeAuthorization:
		return http.StatusForbidden
	case apperrors.ErrorTypeNotFound:
		return http.StatusNotFound
	case apperrors.ErrorTypeConflict:
		return http.StatusConflict
	case apperrors.ErrorTypeLocationPermissionDenied,
		apperrors.ErrorTypeLocationUnavailable,
		apperrors.ErrorTypeLocationTimeout:
		return http.StatusUnprocessableEntity
	case apperrors.ErrorTypeRateLimited:
		return http.StatusTooManyRequests
	case apperrors.ErrorTypeTransport:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// userMessage returns the text shown to the caller. Internal details stay in the log.
func userMessage(err error) string {
	appErr, ok := apperrors.As(err)
	if !ok || appErr.Type == apperrors.ErrorTypeInternal {
		return "internal server error"
	}
	if appErr.Type == apperrors.ErrorTypeTransport {
		return "service temporarily unavailable"
	}
	return appErr.Message
}

func respondWithAppError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Int("status", status).Msg("request failed")
	}

	body := map[string]string{"error": userMessage(err)}
	if appErr, ok := apperrors.As(err); ok {
		body["code"] = string(appErr.Type)
		if appErr.RedirectTo != "" {
			body["redirect_to"] = appErr.RedirectTo
		}
	}
	respondWithJSON(w, status, body)
}

// authResponse is the envelope of the authentication endpoints
type authResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func respondWithAuthError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Int("status", status).Msg("authentication request failed")
	}
	respondWithJSON(w, status, authResponse{Success: false, Message: userMessage(err)})
}
