package errutil

import (
	"errors"
	"net/http"
)

type CoreStatus string

const (
	StatusBadRequest   CoreStatus = "BAD_REQUEST"
	StatusUnauthorized CoreStatus = "UNAUTHORIZED"
	StatusForbidden    CoreStatus = "FORBIDDEN"
	StatusNotFound     CoreStatus = "NOT_FOUND"
	StatusConflict     CoreStatus = "CONFLICT"
	StatusInternal     CoreStatus = "INTERNAL"
	StatusUnknown      CoreStatus = "UNKNOWN"
)

// HTTPStatus maps the CoreStatus to its HTTP status code equivalent.
func (s CoreStatus) HTTPStatus() int {
	switch s {
	case StatusBadRequest:
		return http.StatusBadRequest
	case StatusUnauthorized:
		return http.StatusUnauthorized
	case StatusForbidden:
		return http.StatusForbidden
	case StatusNotFound:
		return http.StatusNotFound
	case StatusConflict:
		return http.StatusConflict
	case StatusInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// StatusOf extracts the CoreStatus from err, or StatusUnknown when err does not
// carry one.
func StatusOf(err error) CoreStatus {
	var be BaseError
	if errors.As(err, &be) {
		return be.Code
	}
	return StatusUnknown
}
