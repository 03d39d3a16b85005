package api

import (
	"errors"
	"net/http"

	"github.com/xraph/storehook"
	"github.com/xraph/storehook/disposable"
	"github.com/xraph/storehook/endpoint"
)

// statusFor maps Storehook errors to HTTP status codes.
func statusFor(err error) int {
	var verr *endpoint.ValidationError
	switch {
	case errors.As(err, &verr),
		errors.Is(err, storehook.ErrInvalidCursor),
		errors.Is(err, storehook.ErrUnknownEventType),
		errors.Is(err, storehook.ErrPayloadValidationFailed),
		errors.Is(err, disposable.ErrInvalidEmail):
		return http.StatusBadRequest
	case errors.Is(err, storehook.ErrEndpointNotFound),
		errors.Is(err, storehook.ErrLogNotFound):
		return http.StatusNotFound
	case errors.Is(err, storehook.ErrDuplicateURL),
		errors.Is(err, storehook.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, storehook.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, storehook.ErrCheckerDisabled):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}
