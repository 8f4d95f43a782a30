package attendance

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qrattendance/internal/geo"
)

func testSession(id, owner string) Session {
	created := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	return Session{
		ID:        id,
		Owner:     owner,
		Course:    "CS101",
		Section:   "A",
		Anchor:    geo.Coordinate{Latitude: 30.0444, Longitude: 31.2357},
		CreatedAt: created,
		ExpiresAt: created.Add(AdmissionWindow),
	}
}

func TestMemStoreSessions(t *testing.T) {
	m := NewMemStore()
	ctx := context.Background()

	require.NoError(t, m.CreateSession(ctx, testSession("s1", "alice")))
	require.NoError(t, m.CreateSession(ctx, testSession("s2", "bob")))
	require.NoError(t, m.CreateSession(ctx, testSession("s3", "alice")))

	got, err := m.GetSession(ctx, "s2")
	require.NoError(t, err)
	assert.Equal(t, "bob", got.Owner)

	_, err = m.GetSession(ctx, "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	mine, err := m.ListSessionsByOwner(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "s1", mine[0].ID)
	assert.Equal(t, "s3", mine[1].ID)
}

func TestMemStoreCommitReadYourWrites(t *testing.T) {
	m := NewMemStore()
	ctx := context.Background()

	seen, err := m.HasCheckIn(ctx, "s1", "dev-1")
	require.NoError(t, err)
	assert.False(t, seen)

	rec, err := m.CommitCheckIn(ctx, CheckIn{SessionID: "s1", Fingerprint: "dev-1", StudentName: "Sara"})
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.False(t, rec.Timestamp.IsZero())

	seen, err = m.HasCheckIn(ctx, "s1", "dev-1")
	require.NoError(t, err)
	assert.True(t, seen)

	// Same fingerprint on a different session is a separate pair.
	seen, err = m.HasCheckIn(ctx, "s2", "dev-1")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestMemStoreCommitEnforcesUniqueness(t *testing.T) {
	m := NewMemStore()
	ctx := context.Background()

	_, err := m.CommitCheckIn(ctx, CheckIn{SessionID: "s1", Fingerprint: "dev-1"})
	require.NoError(t, err)

	_, err = m.CommitCheckIn(ctx, CheckIn{SessionID: "s1", Fingerprint: "dev-1"})
	assert.ErrorIs(t, err, ErrDuplicateCheckIn)

	recs, err := m.ListCheckIns(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestMemStoreCommitConcurrentOneWinner(t *testing.T) {
	m := NewMemStore()
	ctx := context.Background()

	const attempts = 32
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = m.CommitCheckIn(ctx, CheckIn{SessionID: "s1", Fingerprint: "dev-1"})
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			require.ErrorIs(t, err, ErrDuplicateCheckIn)
		}
	}
	assert.Equal(t, 1, winners)

	recs, err := m.ListCheckIns(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestMemStoreListBySessions(t *testing.T) {
	m := NewMemStore()
	ctx := context.Background()

	mustCommit := func(session, fp string) {
		_, err := m.CommitCheckIn(ctx, CheckIn{SessionID: session, Fingerprint: fp})
		require.NoError(t, err)
	}
	mustCommit("s1", "dev-1")
	mustCommit("s1", "dev-2")
	mustCommit("s2", "dev-1")

	grouped, err := m.ListCheckInsBySessions(ctx, []string{"s1", "s2", "s3"})
	require.NoError(t, err)
	assert.Len(t, grouped["s1"], 2)
	assert.Len(t, grouped["s2"], 1)
	_, ok := grouped["s3"]
	assert.False(t, ok)

	empty, err := m.ListCheckInsBySessions(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestSessionExpiredAtBoundary(t *testing.T) {
	s := testSession("s1", "alice")

	assert.False(t, s.ExpiredAt(s.ExpiresAt.Add(-time.Second)))
	assert.False(t, s.ExpiredAt(s.ExpiresAt))
	assert.True(t, s.ExpiredAt(s.ExpiresAt.Add(time.Second)))
}

func TestRejectionStatusMapping(t *testing.T) {
	assert.Equal(t, 400, RejectionStatus(ErrInvalidInput))
	assert.Equal(t, 404, RejectionStatus(ErrSessionNotFound))
	assert.Equal(t, 410, RejectionStatus(ErrSessionExpired))
	assert.Equal(t, 422, RejectionStatus(ErrOutOfRange))
	assert.Equal(t, 409, RejectionStatus(ErrDuplicateCheckIn))
	assert.Equal(t, 403, RejectionStatus(ErrForbidden))
	assert.Equal(t, 503, RejectionStatus(storeFault(errors.New("boom"))))
	assert.Equal(t, 500, RejectionStatus(errors.New("boom")))
}
