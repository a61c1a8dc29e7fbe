package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hostcard/pokerroom/internal/model"
	"github.com/hostcard/pokerroom/internal/services/registry"
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
	CodeInvalidRequest  = "INVALID_REQUEST"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeNotHost         = "NOT_HOST"
	CodeRoomNotFound    = "ROOM_NOT_FOUND"
	CodeRoomEnded       = "ROOM_ENDED"
	CodePlayerNotFound  = "PLAYER_NOT_FOUND"
	CodeNotInRoom       = "NOT_IN_ROOM"
	CodeVersionConflict = "VERSION_CONFLICT"
	CodeInvalidStage    = "INVALID_STAGE"
	CodeInvalidShuffle  = "INVALID_SHUFFLE"
	CodeEmptyName       = "EMPTY_NAME"
	CodeDeckExhausted   = "DECK_EXHAUSTED"
	CodeInternalError   = "INTERNAL_ERROR"
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

	// Map model errors
	switch {
	case errors.Is(err, model.ErrRoomNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeRoomNotFound, "Room not found"}}
	case errors.Is(err, model.ErrRoomEnded):
		return &httpError{http.StatusGone, APIError{CodeRoomEnded, "Room has ended"}}
	case errors.Is(err, model.ErrPlayerNotFound):
		return &httpError{http.StatusNotFound, APIError{CodePlayerNotFound, "Player not found"}}
	case errors.Is(err, model.ErrNotInRoom):
		return &httpError{http.StatusNotFound, APIError{CodeNotInRoom, "Player is not in this room"}}
	case errors.Is(err, model.ErrNotHost):
		return &httpError{http.StatusForbidden, APIError{CodeNotHost, "Only the host can perform this action"}}
	case errors.Is(err, model.ErrVersionConflict):
		return &httpError{http.StatusConflict, APIError{CodeVersionConflict, "Room was modified concurrently, retry"}}
	case errors.Is(err, model.ErrInvalidStage):
		return &httpError{http.StatusConflict, APIError{CodeInvalidStage, "Action not valid in the current stage"}}
	case errors.Is(err, model.ErrInvalidShuffle):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidShuffle, "Shuffle factor must be between 0 and 100"}}
	case errors.Is(err, model.ErrEmptyName):
		return &httpError{http.StatusBadRequest, APIError{CodeEmptyName, "Name must not be empty"}}
	case errors.Is(err, model.ErrDeckExhausted):
		return &httpError{http.StatusConflict, APIError{CodeDeckExhausted, "Not enough cards left to deal"}}

	// Map registry errors
	case errors.Is(err, registry.ErrInvalidSession):
		return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Invalid or expired session"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Authentication required"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
