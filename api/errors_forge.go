package api

import (
	"net/http"

	"github.com/xraph/forge"
)

// mapError converts Storehook errors to Forge HTTP errors using the same
// table as the stdlib handler.
func mapError(err error) error {
	switch statusFor(err) {
	case http.StatusBadRequest:
		return forge.BadRequest(err.Error())
	case http.StatusNotFound:
		return forge.NotFound(err.Error())
	case http.StatusConflict:
		return forge.NewHTTPError(http.StatusConflict, err.Error())
	case http.StatusTooManyRequests:
		return forge.NewHTTPError(http.StatusTooManyRequests, err.Error())
	case http.StatusNotImplemented:
		return forge.NewHTTPError(http.StatusNotImplemented, err.Error())
	default:
		return forge.InternalError(err)
	}
}
