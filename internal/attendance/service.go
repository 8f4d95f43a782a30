package attendance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"qrattendance/internal/geo"
)

// CreateSessionRequest carries the instructor's input for a new lecture.
// Coordinates are pointers so a missing field is distinguishable from 0.
type CreateSessionRequest struct {
	Course    string   `json:"course"`
	Section   string   `json:"section"`
	Group     string   `json:"group"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// SessionAttendance pairs a session with its admitted check-ins, for the
// instructor's grouped report.
type SessionAttendance struct {
	Session  Session   `json:"lecture"`
	Students []CheckIn `json:"students"`
}

// Service runs the attendance admission pipeline on top of the injected
// stores. All rejection paths return one of the sentinel errors from this
// package and leave the ledger untouched.
type Service struct {
	sessions     SessionStore
	checkins     AttendanceStore
	dedup        *DedupCache
	storeTimeout time.Duration
	now          func() time.Time
}

// NewService creates a service. dedup may be nil when Redis is not
// configured.
func NewService(sessions SessionStore, checkins AttendanceStore, dedup *DedupCache, storeTimeout time.Duration) *Service {
	if storeTimeout <= 0 {
		storeTimeout = 3 * time.Second
	}
	return &Service{
		sessions:     sessions,
		checkins:     checkins,
		dedup:        dedup,
		storeTimeout: storeTimeout,
		now:          time.Now,
	}
}

// WithClock overrides the service clock. Test hook.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// CreateSession opens a new admission window owned by the instructor. The
// anchor location is required: a session without one could never admit a
// geofenced check-in.
func (s *Service) CreateSession(ctx context.Context, owner string, req CreateSessionRequest) (Session, error) {
	if owner == "" || strings.TrimSpace(req.Course) == "" || strings.TrimSpace(req.Section) == "" {
		return Session{}, ErrInvalidInput
	}
	if req.Latitude == nil || req.Longitude == nil {
		return Session{}, ErrInvalidInput
	}

	now := s.now().UTC()
	session := Session{
		ID:        uuid.NewString(),
		Owner:     owner,
		Course:    strings.TrimSpace(req.Course),
		Section:   strings.TrimSpace(req.Section),
		Group:     strings.TrimSpace(req.Group),
		Anchor:    geo.Coordinate{Latitude: *req.Latitude, Longitude: *req.Longitude},
		CreatedAt: now,
		ExpiresAt: now.Add(AdmissionWindow),
	}

	cctx, cancel := s.storeCtx(ctx)
	defer cancel()
	if err := s.sessions.CreateSession(cctx, session); err != nil {
		return Session{}, storeFault(err)
	}
	sessionsCreated.Inc()
	return session, nil
}

// ListSessions returns the instructor's sessions.
func (s *Service) ListSessions(ctx context.Context, owner string) ([]Session, error) {
	cctx, cancel := s.storeCtx(ctx)
	defer cancel()
	sessions, err := s.sessions.ListSessionsByOwner(cctx, owner)
	if err != nil {
		return nil, storeFault(err)
	}
	return sessions, nil
}

// SubmitCheckIn runs one admission request through the pipeline:
// validate, resolve session, expiry, geofence, duplicate, commit. Checks
// run in this order so the cheap rejections short-circuit before any
// store access, and the first failing check decides the outcome. Nothing
// is written on a rejection.
func (s *Service) SubmitCheckIn(ctx context.Context, req CheckInRequest) (rec CheckIn, err error) {
	defer func() { admissions.WithLabelValues(admissionOutcome(err)).Inc() }()

	if err := validateCheckIn(req); err != nil {
		return CheckIn{}, err
	}

	cctx, cancel := s.storeCtx(ctx)
	defer cancel()

	session, err := s.sessions.GetSession(cctx, req.SessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return CheckIn{}, ErrSessionNotFound
		}
		return CheckIn{}, storeFault(err)
	}

	// Expiry is evaluated against the clock at this instant, not a value
	// captured earlier in the request.
	if session.ExpiredAt(s.now()) {
		return CheckIn{}, ErrSessionExpired
	}

	reported := geo.Coordinate{Latitude: *req.Latitude, Longitude: *req.Longitude}
	if geo.DistanceMeters(session.Anchor, reported) > MaxCheckInDistanceMeters {
		return CheckIn{}, ErrOutOfRange
	}

	if s.dedup.Seen(cctx, session.ID, req.Fingerprint) {
		return CheckIn{}, ErrDuplicateCheckIn
	}
	dup, err := s.checkins.HasCheckIn(cctx, session.ID, req.Fingerprint)
	if err != nil {
		return CheckIn{}, storeFault(err)
	}
	if dup {
		return CheckIn{}, ErrDuplicateCheckIn
	}

	// The store's uniqueness constraint arbitrates commits that raced
	// past the check above; the loser surfaces as a duplicate.
	rec, err = s.checkins.CommitCheckIn(cctx, CheckIn{
		SessionID:   session.ID,
		StudentName: strings.TrimSpace(req.StudentName),
		Department:  strings.TrimSpace(req.Department),
		Group:       strings.TrimSpace(req.Group),
		Location:    reported,
		Fingerprint: req.Fingerprint,
		Timestamp:   s.now().UTC(),
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateCheckIn) {
			return CheckIn{}, ErrDuplicateCheckIn
		}
		return CheckIn{}, storeFault(err)
	}
	s.dedup.Mark(cctx, session.ID, req.Fingerprint)
	return rec, nil
}

// GetOwnedSession resolves a session and verifies the caller owns it.
// Export and QR rendering go through this before touching the ledger.
func (s *Service) GetOwnedSession(ctx context.Context, sessionID, owner string) (Session, error) {
	cctx, cancel := s.storeCtx(ctx)
	defer cancel()

	session, err := s.sessions.GetSession(cctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return Session{}, ErrSessionNotFound
		}
		return Session{}, storeFault(err)
	}
	if session.Owner != owner {
		return Session{}, ErrForbidden
	}
	return session, nil
}

// ListAttendance returns a session's check-ins after verifying the caller
// owns the session.
func (s *Service) ListAttendance(ctx context.Context, sessionID, owner string) ([]CheckIn, error) {
	session, err := s.GetOwnedSession(ctx, sessionID, owner)
	if err != nil {
		return nil, err
	}

	cctx, cancel := s.storeCtx(ctx)
	defer cancel()
	recs, err := s.checkins.ListCheckIns(cctx, session.ID)
	if err != nil {
		return nil, storeFault(err)
	}
	return recs, nil
}

// AttendanceReport returns all of the instructor's sessions with their
// check-ins grouped per session.
func (s *Service) AttendanceReport(ctx context.Context, owner string) ([]SessionAttendance, error) {
	cctx, cancel := s.storeCtx(ctx)
	defer cancel()

	sessions, err := s.sessions.ListSessionsByOwner(cctx, owner)
	if err != nil {
		return nil, storeFault(err)
	}
	ids := make([]string, len(sessions))
	for i, session := range sessions {
		ids[i] = session.ID
	}
	grouped, err := s.checkins.ListCheckInsBySessions(cctx, ids)
	if err != nil {
		return nil, storeFault(err)
	}

	report := make([]SessionAttendance, 0, len(sessions))
	for _, session := range sessions {
		report = append(report, SessionAttendance{
			Session:  session,
			Students: grouped[session.ID],
		})
	}
	return report, nil
}

func (s *Service) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.storeTimeout)
}

// validateCheckIn enforces field presence and a syntactically valid
// session id, so malformed requests never reach the store.
func validateCheckIn(req CheckInRequest) error {
	switch {
	case req.SessionID == "",
		strings.TrimSpace(req.StudentName) == "",
		strings.TrimSpace(req.Department) == "",
		req.Latitude == nil,
		req.Longitude == nil,
		req.Fingerprint == "":
		return ErrInvalidInput
	}
	if _, err := uuid.Parse(req.SessionID); err != nil {
		return ErrInvalidInput
	}
	return nil
}

// storeFault converts an infrastructure error into the retryable
// rejection kind, keeping the cause for the log line.
func storeFault(err error) error {
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}
