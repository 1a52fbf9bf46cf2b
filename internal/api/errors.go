package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a failed API call: the HTTP status the server answered with
// and the message it sent. Transport-level failures are not Errors;
// they surface as wrapped url.Error values instead.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: server returned %d", e.StatusCode)
	}
	return fmt.Sprintf("api: server returned %d: %s", e.StatusCode, e.Message)
}

// StatusOf returns the HTTP status carried by err, or 0 when err is not
// an API error (e.g. a network failure).
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// IsUnauthorized reports whether err is a 401 from the server.
func IsUnauthorized(err error) bool {
	return StatusOf(err) == http.StatusUnauthorized
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	return StatusOf(err) == http.StatusNotFound
}

// IsConflict reports whether err is a 409 from the server, e.g. a slot
// that was booked between render and submit.
func IsConflict(err error) bool {
	return StatusOf(err) == http.StatusConflict
}
