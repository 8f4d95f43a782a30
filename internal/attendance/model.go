package attendance

import (
	"time"

	"qrattendance/internal/geo"
)

const (
	// AdmissionWindow is how long a session accepts check-ins after creation.
	AdmissionWindow = 40 * time.Minute

	// MaxCheckInDistanceMeters is the geofence radius around a session's
	// anchor location. Exactly on the boundary is still admitted.
	MaxCheckInDistanceMeters = 50.0
)

// Session is an instructor-created attendance window ("lecture"). Sessions
// are written once and never mutated; expiry is derived from ExpiresAt at
// read time rather than stored as a flag.
type Session struct {
	ID        string         `json:"id"`
	Owner     string         `json:"instructor_id"`
	Course    string         `json:"course"`
	Section   string         `json:"section"`
	Group     string         `json:"group,omitempty"`
	Anchor    geo.Coordinate `json:"gps_location"`
	CreatedAt time.Time      `json:"created_at"`
	ExpiresAt time.Time      `json:"expires_at"`
}

// ExpiredAt reports whether the session no longer admits check-ins at the
// given instant. The boundary itself is still open: only now > ExpiresAt
// is expired.
func (s Session) ExpiredAt(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// CheckIn is one admitted attendance record. Immutable after commit.
type CheckIn struct {
	ID          string         `json:"id"`
	SessionID   string         `json:"lecture_id"`
	StudentName string         `json:"student_name"`
	Department  string         `json:"department"`
	Group       string         `json:"group,omitempty"`
	Location    geo.Coordinate `json:"gps_location"`
	Fingerprint string         `json:"-"`
	Timestamp   time.Time      `json:"timestamp"`
}

// CheckInRequest is the untrusted client submission. Coordinates are
// pointers so that absent and zero can be told apart during validation.
type CheckInRequest struct {
	SessionID   string   `json:"lecture_id"`
	StudentName string   `json:"student_name"`
	Department  string   `json:"department"`
	Group       string   `json:"group"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	Fingerprint string   `json:"device_fingerprint"`
}
