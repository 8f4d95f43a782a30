package attendance

import (
	"errors"
	"net/http"
)

// Rejection reasons surfaced by the admission pipeline. Every failed
// check-in resolves to exactly one of these, so the HTTP layer can tell
// the student what to fix versus what to retry.
var (
	ErrInvalidInput     = errors.New("missing or malformed request data")
	ErrSessionNotFound  = errors.New("lecture session not found")
	ErrSessionExpired   = errors.New("lecture session has expired")
	ErrOutOfRange       = errors.New("too far from the lecture location")
	ErrDuplicateCheckIn = errors.New("attendance already recorded for this device")
	ErrForbidden        = errors.New("session belongs to another instructor")
	ErrStoreUnavailable = errors.New("attendance store unavailable")
)

// RejectionStatus maps a pipeline error to an HTTP status code.
// Unknown errors map to 500.
func RejectionStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrSessionExpired):
		return http.StatusGone
	case errors.Is(err, ErrOutOfRange):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrDuplicateCheckIn):
		return http.StatusConflict
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
