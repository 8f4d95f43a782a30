package instructor

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Repository persists instructors in Postgres.
//
// Schema:
//
//	CREATE TABLE instructors (
//	    id            UUID PRIMARY KEY,
//	    name          TEXT NOT NULL,
//	    email         TEXT NOT NULL UNIQUE,
//	    password_hash TEXT NOT NULL,
//	    created_at    TIMESTAMPTZ NOT NULL
//	);
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateInstructor inserts an account; the unique index on email turns a
// second registration into ErrEmailTaken.
func (r *Repository) CreateInstructor(ctx context.Context, ins Instructor) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO instructors (id, name, email, password_hash, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`, ins.ID, ins.Name, ins.Email, ins.PasswordHash, ins.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrEmailTaken
	}
	return err
}

// GetByEmail returns an account by email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (Instructor, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, email, password_hash, created_at
		FROM instructors WHERE email = $1
	`, email)
	var ins Instructor
	if err := row.Scan(&ins.ID, &ins.Name, &ins.Email, &ins.PasswordHash, &ins.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Instructor{}, ErrBadCredentials
		}
		return Instructor{}, err
	}
	return ins, nil
}
