package utils

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/stitts-dev/dfs-lineup/internal/optimizer"
)

var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrRateLimited  = errors.New("rate limit exceeded")
)

type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func NewAppError(code string, message string, details ...string) *AppError {
	err := &AppError{
		Code:    code,
		Message: message,
	}
	if len(details) > 0 {
		err.Details = details[0]
	}
	return err
}

func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s - %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Common error codes
const (
	ErrCodeValidation            = "VALIDATION_ERROR"
	ErrCodeNotFound              = "NOT_FOUND"
	ErrCodeInternal              = "INTERNAL_ERROR"
	ErrCodeRateLimited           = "RATE_LIMITED"
	ErrCodeOptimization          = "OPTIMIZATION_ERROR"
	ErrCodeTimeout               = "OPTIMIZATION_TIMEOUT"
	ErrCodeInsufficientPlayers   = "INSUFFICIENT_PLAYERS"
	ErrCodeConfigurationMismatch = "CONFIGURATION_MISMATCH"
	ErrCodeUnsupportedContest    = "UNSUPPORTED_CONTEST"
	ErrCodeInvalidPlayer         = "INVALID_PLAYER"
)

// FromOptimizerError maps an optimizer failure to an HTTP status and AppError.
func FromOptimizerError(err error) (int, *AppError) {
	switch {
	case errors.Is(err, optimizer.ErrInsufficientPlayers):
		return http.StatusUnprocessableEntity, NewAppError(ErrCodeInsufficientPlayers, "Not enough players to fill the lineup", err.Error())
	case errors.Is(err, optimizer.ErrConfigurationMismatch):
		return http.StatusBadRequest, NewAppError(ErrCodeConfigurationMismatch, "Player positions do not match the contest", err.Error())
	case errors.Is(err, optimizer.ErrUnsupportedContest):
		return http.StatusNotFound, NewAppError(ErrCodeUnsupportedContest, "Unsupported provider or sport", err.Error())
	case errors.Is(err, optimizer.ErrInvalidPlayer):
		return http.StatusBadRequest, NewAppError(ErrCodeInvalidPlayer, "Invalid player record", err.Error())
	case errors.Is(err, optimizer.ErrInvalidRequest), errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest, NewAppError(ErrCodeValidation, "Invalid optimization request", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, NewAppError(ErrCodeTimeout, "Optimization timed out", err.Error())
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, NewAppError(ErrCodeNotFound, "Resource not found", err.Error())
	default:
		return http.StatusInternalServerError, NewAppError(ErrCodeOptimization, "Optimization failed", err.Error())
	}
}
