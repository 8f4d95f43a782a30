package attendance

import "context"

// SessionStore persists lecture sessions. Implementations must be safe for
// concurrent use; sessions are append-only and never updated in place.
type SessionStore interface {
	// CreateSession persists a fully populated session record.
	CreateSession(ctx context.Context, s Session) error

	// GetSession returns the session with the given id, or
	// ErrSessionNotFound.
	GetSession(ctx context.Context, id string) (Session, error)

	// ListSessionsByOwner returns the instructor's sessions in creation
	// order.
	ListSessionsByOwner(ctx context.Context, owner string) ([]Session, error)
}

// AttendanceStore is the append-only check-in ledger.
//
// CommitCheckIn must enforce (session, fingerprint) uniqueness atomically:
// when two commits for the same pair race, exactly one succeeds and the
// other returns ErrDuplicateCheckIn. HasCheckIn is only the advisory
// fast-path for the pipeline; correctness rests on the commit. A commit
// that returned successfully must be visible to any later HasCheckIn call
// for the same pair.
type AttendanceStore interface {
	HasCheckIn(ctx context.Context, sessionID, fingerprint string) (bool, error)

	CommitCheckIn(ctx context.Context, rec CheckIn) (CheckIn, error)

	ListCheckIns(ctx context.Context, sessionID string) ([]CheckIn, error)

	// ListCheckInsBySessions groups check-ins for multi-session reports.
	ListCheckInsBySessions(ctx context.Context, sessionIDs []string) (map[string][]CheckIn, error)
}
