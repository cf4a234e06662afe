package controlplane

import (
	"errors"
	"net/http"

	"github.com/fentz26/taskmaster/internal/dayspec"
	"github.com/fentz26/taskmaster/internal/task"
)

// Sentinel errors for control plane operations.
var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrRateLimited    = errors.New("rate limit exceeded")
	ErrNotConfigured  = errors.New("not configured")
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// statusFor maps a service error to an HTTP status.
func statusFor(err error) int {
	var verr *task.ValidationError
	switch {
	case errors.Is(err, task.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, task.ErrDuplicateName):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidRequest), errors.Is(err, dayspec.ErrInvalid), errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrNotConfigured):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}
