package transport

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rpggio/projtrack/internal/domain/project"
	"github.com/rpggio/projtrack/internal/repository"
)

// Error is the body of every non-2xx API response.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error Error `json:"error"`
}

// WriteJSON writes payload with the given status.
func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// WriteError writes an error body.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, errorResponse{Error: Error{Code: code, Message: message}})
}

// writeDomainError maps a service error onto a status and code.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, project.ErrProjectNotFound):
		WriteError(w, http.StatusNotFound, "PROJECT_NOT_FOUND", err.Error())
	case errors.Is(err, repository.ErrInvalidSortKey):
		WriteError(w, http.StatusBadRequest, "INVALID_SORT_KEY", err.Error())
	case errors.Is(err, repository.ErrInvalidField):
		WriteError(w, http.StatusBadRequest, "INVALID_FIELD", err.Error())
	case errors.Is(err, project.ErrInvalidInput), errors.Is(err, project.ErrInvalidHealth):
		WriteError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
	default:
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
	}
}
