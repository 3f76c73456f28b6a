// Package api defines the uniform response envelope every endpoint
// returns: a success flag, an optional typed payload, and an optional
// error string. Mutations that produce nothing (delete, approve,
// reject) return success with no payload.
package api

import (
	"github.com/labstack/echo/v4"

	"github.com/phr/phr/pkg/apperr"
)

// Envelope wraps every API response.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// OK writes a successful response carrying data.
func OK(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, Envelope{Success: true, Data: data})
}

// NoData writes a successful response without a payload.
func NoData(c echo.Context, status int) error {
	return c.JSON(status, Envelope{Success: true})
}

// Fail writes a failure response, deriving the HTTP status from the
// error taxonomy. The error text is reported to the caller verbatim.
func Fail(c echo.Context, err error) error {
	return c.JSON(apperr.HTTPStatus(err), Envelope{Success: false, Error: err.Error()})
}
