package attendance

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "attendance_sessions_created_total",
		Help: "Lecture sessions created.",
	})

	admissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_checkin_admissions_total",
		Help: "Check-in submissions by outcome.",
	}, []string{"outcome"})
)

func admissionOutcome(err error) string {
	switch {
	case err == nil:
		return "admitted"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrSessionNotFound):
		return "session_not_found"
	case errors.Is(err, ErrSessionExpired):
		return "session_expired"
	case errors.Is(err, ErrOutOfRange):
		return "out_of_range"
	case errors.Is(err, ErrDuplicateCheckIn):
		return "duplicate"
	case errors.Is(err, ErrStoreUnavailable):
		return "store_unavailable"
	default:
		return "error"
	}
}
