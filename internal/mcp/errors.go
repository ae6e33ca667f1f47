package mcp

import (
	"errors"
	"fmt"

	"github.com/rpggio/projtrack/internal/domain/project"
	"github.com/rpggio/projtrack/internal/repository"
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	if e.RecoveryHint != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.RecoveryHint)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// MapError maps domain errors to MCP error codes. Unrecognised errors map
// to nil.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, project.ErrProjectNotFound):
		return &APIError{Code: "PROJECT_NOT_FOUND", Message: "project not found", RecoveryHint: "Call list_projects, or scan_projects if the directory is new"}
	case errors.Is(err, repository.ErrInvalidSortKey):
		return &APIError{Code: "INVALID_SORT_KEY", Message: err.Error(), RecoveryHint: "Use name, status, last_modified or completion_pct, optionally with ASC or DESC"}
	case errors.Is(err, repository.ErrInvalidField):
		return &APIError{Code: "INVALID_FIELD", Message: err.Error()}
	case errors.Is(err, project.ErrInvalidInput):
		return &APIError{Code: "INVALID_INPUT", Message: err.Error()}
	case errors.Is(err, project.ErrInvalidHealth):
		return &APIError{Code: "INVALID_HEALTH", Message: err.Error()}
	default:
		return nil
	}
}

// toolError converts err into the error a tool handler returns.
func toolError(err error) error {
	if apiErr := MapError(err); apiErr != nil {
		return apiErr
	}
	return err
}
