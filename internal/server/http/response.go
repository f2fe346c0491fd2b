package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/gophauth/internal/common"
)

const (
	msgInvalidCredentials = "Invalid credentials"
	msgUserExists         = "User already exists"
	msgUnexpected         = "Unexpected error"
	msgUnprocessable      = "Unprocessable request body"
)

type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message        string `json:"message"`
	LoginAttemptID string `json:"loginAttemptId,omitempty"`
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, errorResponse{Error: message})
}

// mapError turns a service error into a status code and client message.
// Credential and token failures share one message so responses reveal nothing.
func mapError(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrAlreadyExists):
		return http.StatusConflict, msgUserExists
	case errors.Is(err, common.ErrValidation), errors.Is(err, common.ErrMissingToken):
		return http.StatusBadRequest, msgInvalidCredentials
	case errors.Is(err, common.ErrIncorrectCredentials),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired):
		return http.StatusUnauthorized, msgInvalidCredentials
	default:
		return http.StatusInternalServerError, msgUnexpected
	}
}
