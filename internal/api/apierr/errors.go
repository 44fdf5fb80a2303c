package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/lexc24/tictactoe/internal/model"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeParticipantExists   = "PARTICIPANT_EXISTS"
	CodeParticipantNotFound = "PARTICIPANT_NOT_FOUND"
	CodeMissingLoser        = "MISSING_LOSER"
	CodeConflict            = "CONFLICT"
	CodeInternalError       = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	switch {
	case errors.Is(err, model.ErrParticipantExists):
		return &httpError{http.StatusConflict, APIError{CodeParticipantExists, "Participant already exists"}}
	case errors.Is(err, model.ErrParticipantNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeParticipantNotFound, "Participant not found"}}
	case errors.Is(err, model.ErrMissingLoser):
		return &httpError{http.StatusBadRequest, APIError{CodeMissingLoser, "Game result has no loser"}}
	case errors.Is(err, model.ErrConditionFailed):
		return &httpError{http.StatusConflict, APIError{CodeConflict, "State changed concurrently, retry"}}
	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}
