package app

import (
	"fmt"
	"net/http"
)

// DomainError is an error with a ready-made HTTP status and error code.
type DomainError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func domainError(status int, code, message string, details any) *DomainError {
	return &DomainError{
		Status:  status,
		Code:    code,
		Message: message,
		Details: details,
	}
}

func repoNotFound(key string) *DomainError {
	return domainError(http.StatusNotFound, "REPO_NOT_FOUND", "Repo not found", map[string]any{"key": key})
}

func invalidInput(message string) *DomainError {
	return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", message, nil)
}
