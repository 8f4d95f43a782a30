package attendance

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository persists sessions and check-ins in Postgres.
//
// Schema:
//
//	CREATE TABLE lectures (
//	    id            UUID PRIMARY KEY,
//	    instructor_id UUID NOT NULL,
//	    course        TEXT NOT NULL,
//	    section       TEXT NOT NULL,
//	    group_label   TEXT NOT NULL DEFAULT '',
//	    latitude      DOUBLE PRECISION NOT NULL,
//	    longitude     DOUBLE PRECISION NOT NULL,
//	    created_at    TIMESTAMPTZ NOT NULL,
//	    expires_at    TIMESTAMPTZ NOT NULL
//	);
//
//	CREATE TABLE attendance_records (
//	    id                 UUID PRIMARY KEY,
//	    lecture_id         UUID NOT NULL REFERENCES lectures (id),
//	    student_name       TEXT NOT NULL,
//	    department         TEXT NOT NULL,
//	    group_label        TEXT NOT NULL DEFAULT '',
//	    latitude           DOUBLE PRECISION NOT NULL,
//	    longitude          DOUBLE PRECISION NOT NULL,
//	    device_fingerprint TEXT NOT NULL,
//	    recorded_at        TIMESTAMPTZ NOT NULL,
//	    UNIQUE (lecture_id, device_fingerprint)
//	);
//
// The unique index on (lecture_id, device_fingerprint) is what makes the
// duplicate guard hold under concurrent submissions; the pipeline's
// HasCheckIn call is only an early exit.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateSession writes a new lecture row.
func (r *Repository) CreateSession(ctx context.Context, s Session) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO lectures (id, instructor_id, course, section, group_label, latitude, longitude, created_at, expires_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, s.ID, s.Owner, s.Course, s.Section, s.Group, s.Anchor.Latitude, s.Anchor.Longitude, s.CreatedAt, s.ExpiresAt)
	return err
}

// GetSession returns a lecture by id.
func (r *Repository) GetSession(ctx context.Context, id string) (Session, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, instructor_id, course, section, group_label, latitude, longitude, created_at, expires_at
		FROM lectures WHERE id = $1
	`, id)
	var s Session
	if err := row.Scan(&s.ID, &s.Owner, &s.Course, &s.Section, &s.Group,
		&s.Anchor.Latitude, &s.Anchor.Longitude, &s.CreatedAt, &s.ExpiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, ErrSessionNotFound
		}
		return Session{}, err
	}
	return s, nil
}

// ListSessionsByOwner returns an instructor's lectures, oldest first.
func (r *Repository) ListSessionsByOwner(ctx context.Context, owner string) ([]Session, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, instructor_id, course, section, group_label, latitude, longitude, created_at, expires_at
		FROM lectures WHERE instructor_id = $1
		ORDER BY created_at
	`, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Session
	for rows.Next() {
		var s Session
		if err := rows.Scan(&s.ID, &s.Owner, &s.Course, &s.Section, &s.Group,
			&s.Anchor.Latitude, &s.Anchor.Longitude, &s.CreatedAt, &s.ExpiresAt); err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

// HasCheckIn reports whether the (lecture, fingerprint) pair already has a
// record.
func (r *Repository) HasCheckIn(ctx context.Context, sessionID, fingerprint string) (bool, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM attendance_records WHERE lecture_id = $1 AND device_fingerprint = $2
		)
	`, sessionID, fingerprint)
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// CommitCheckIn inserts a record, letting the unique index arbitrate
// duplicates: ON CONFLICT DO NOTHING returns no row when the pair already
// exists, which surfaces as ErrDuplicateCheckIn.
func (r *Repository) CommitCheckIn(ctx context.Context, rec CheckIn) (CheckIn, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO attendance_records (id, lecture_id, student_name, department, group_label, latitude, longitude, device_fingerprint, recorded_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (lecture_id, device_fingerprint) DO NOTHING
		RETURNING id
	`, rec.ID, rec.SessionID, rec.StudentName, rec.Department, rec.Group,
		rec.Location.Latitude, rec.Location.Longitude, rec.Fingerprint, rec.Timestamp)
	var inserted string
	if err := row.Scan(&inserted); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return CheckIn{}, ErrDuplicateCheckIn
		}
		return CheckIn{}, err
	}
	return rec, nil
}

// ListCheckIns returns a lecture's records in commit order.
func (r *Repository) ListCheckIns(ctx context.Context, sessionID string) ([]CheckIn, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, lecture_id, student_name, department, group_label, latitude, longitude, device_fingerprint, recorded_at
		FROM attendance_records WHERE lecture_id = $1
		ORDER BY recorded_at
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCheckIns(rows)
}

// ListCheckInsBySessions groups records for a set of lectures.
func (r *Repository) ListCheckInsBySessions(ctx context.Context, sessionIDs []string) (map[string][]CheckIn, error) {
	if len(sessionIDs) == 0 {
		return map[string][]CheckIn{}, nil
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, lecture_id, student_name, department, group_label, latitude, longitude, device_fingerprint, recorded_at
		FROM attendance_records WHERE lecture_id = ANY($1)
		ORDER BY recorded_at
	`, sessionIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	recs, err := scanCheckIns(rows)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]CheckIn, len(sessionIDs))
	for _, rec := range recs {
		out[rec.SessionID] = append(out[rec.SessionID], rec)
	}
	return out, nil
}

func scanCheckIns(rows *sql.Rows) ([]CheckIn, error) {
	var res []CheckIn
	for rows.Next() {
		var rec CheckIn
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.StudentName, &rec.Department, &rec.Group,
			&rec.Location.Latitude, &rec.Location.Longitude, &rec.Fingerprint, &rec.Timestamp); err != nil {
			return nil, err
		}
		res = append(res, rec)
	}
	return res, rows.Err()
}
