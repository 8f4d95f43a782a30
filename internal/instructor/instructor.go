// Package instructor handles instructor accounts: registration with a
// bcrypt-hashed password and credential checks at login. Token issuance
// lives in internal/auth.
package instructor

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidInput   = errors.New("missing or malformed instructor data")
	ErrEmailTaken     = errors.New("email is already in use")
	ErrBadCredentials = errors.New("unknown email or wrong password")
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Instructor is a registered account. PasswordHash never leaves the
// backend.
type Instructor struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Store persists instructor accounts. CreateInstructor returns
// ErrEmailTaken when the email already exists; GetByEmail returns
// ErrBadCredentials when it does not.
type Store interface {
	CreateInstructor(ctx context.Context, ins Instructor) error
	GetByEmail(ctx context.Context, email string) (Instructor, error)
}

// Service wraps the store with hashing and validation.
type Service struct {
	store Store
}

// NewService creates a service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Register creates an account with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, name, email, password string) (Instructor, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || !emailPattern.MatchString(email) || len(password) < 6 {
		return Instructor{}, ErrInvalidInput
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Instructor{}, err
	}

	ins := Instructor{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.CreateInstructor(ctx, ins); err != nil {
		return Instructor{}, err
	}
	return ins, nil
}

// Login checks credentials and returns the account.
func (s *Service) Login(ctx context.Context, email, password string) (Instructor, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return Instructor{}, ErrInvalidInput
	}
	ins, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		return Instructor{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(ins.PasswordHash), []byte(password)) != nil {
		return Instructor{}, ErrBadCredentials
	}
	return ins, nil
}
