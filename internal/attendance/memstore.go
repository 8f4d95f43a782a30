package attendance

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemStore is an in-memory SessionStore and AttendanceStore for dev and
// tests, mirroring the guarantees of the Postgres store: the duplicate
// constraint is enforced under the same lock as the write, so racing
// commits for one (session, fingerprint) pair admit exactly one record.
type MemStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
	order    []string
	checkins map[string][]CheckIn
	seen     map[string]map[string]bool
}

// NewMemStore creates an empty store.
func NewMemStore() *MemStore {
	return &MemStore{
		sessions: make(map[string]Session),
		checkins: make(map[string][]CheckIn),
		seen:     make(map[string]map[string]bool),
	}
}

// CreateSession persists a session record.
func (m *MemStore) CreateSession(ctx context.Context, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[s.ID]; !ok {
		m.order = append(m.order, s.ID)
	}
	m.sessions[s.ID] = s
	return nil
}

// GetSession returns a session by id.
func (m *MemStore) GetSession(ctx context.Context, id string) (Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	return s, nil
}

// ListSessionsByOwner returns the owner's sessions in creation order.
func (m *MemStore) ListSessionsByOwner(ctx context.Context, owner string) ([]Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Session
	for _, id := range m.order {
		if s := m.sessions[id]; s.Owner == owner {
			out = append(out, s)
		}
	}
	return out, nil
}

// HasCheckIn reports whether a check-in exists for the pair.
func (m *MemStore) HasCheckIn(ctx context.Context, sessionID, fingerprint string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.seen[sessionID][fingerprint], nil
}

// CommitCheckIn appends a check-in, rejecting a duplicate fingerprint for
// the same session. Assigns id and timestamp when unset.
func (m *MemStore) CommitCheckIn(ctx context.Context, rec CheckIn) (CheckIn, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seen[rec.SessionID][rec.Fingerprint] {
		return CheckIn{}, ErrDuplicateCheckIn
	}
	if m.seen[rec.SessionID] == nil {
		m.seen[rec.SessionID] = make(map[string]bool)
	}
	m.seen[rec.SessionID][rec.Fingerprint] = true
	m.checkins[rec.SessionID] = append(m.checkins[rec.SessionID], rec)
	return rec, nil
}

// ListCheckIns returns a session's check-ins in commit order.
func (m *MemStore) ListCheckIns(ctx context.Context, sessionID string) ([]CheckIn, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]CheckIn, len(m.checkins[sessionID]))
	copy(out, m.checkins[sessionID])
	return out, nil
}

// ListCheckInsBySessions groups check-ins by session id.
func (m *MemStore) ListCheckInsBySessions(ctx context.Context, sessionIDs []string) (map[string][]CheckIn, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string][]CheckIn, len(sessionIDs))
	for _, id := range sessionIDs {
		if recs := m.checkins[id]; len(recs) > 0 {
			grouped := make([]CheckIn, len(recs))
			copy(grouped, recs)
			out[id] = grouped
		}
	}
	return out, nil
}
