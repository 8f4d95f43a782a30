package instructor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	svc := NewService(NewMemStore())
	ctx := context.Background()

	ins, err := svc.Register(ctx, "Dr. Mona", "mona@example.edu", "s3cretpw")
	require.NoError(t, err)
	assert.NotEmpty(t, ins.ID)
	assert.Equal(t, "mona@example.edu", ins.Email)
	assert.NotEqual(t, "s3cretpw", ins.PasswordHash)

	got, err := svc.Login(ctx, "mona@example.edu", "s3cretpw")
	require.NoError(t, err)
	assert.Equal(t, ins.ID, got.ID)

	_, err = svc.Login(ctx, "mona@example.edu", "wrongpw")
	assert.ErrorIs(t, err, ErrBadCredentials)

	_, err = svc.Login(ctx, "nobody@example.edu", "s3cretpw")
	assert.ErrorIs(t, err, ErrBadCredentials)
}

func TestRegisterRejectsReusedEmail(t *testing.T) {
	svc := NewService(NewMemStore())
	ctx := context.Background()

	_, err := svc.Register(ctx, "Dr. Mona", "mona@example.edu", "s3cretpw")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "Impostor", "mona@example.edu", "otherpw")
	assert.ErrorIs(t, err, ErrEmailTaken)

	// Email matching is case-insensitive.
	_, err = svc.Register(ctx, "Impostor", "MONA@example.edu", "otherpw")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegisterValidation(t *testing.T) {
	svc := NewService(NewMemStore())
	ctx := context.Background()

	tests := []struct {
		name, insName, email, password string
	}{
		{"missing name", "", "mona@example.edu", "s3cretpw"},
		{"bad email", "Dr. Mona", "not-an-email", "s3cretpw"},
		{"short password", "Dr. Mona", "mona@example.edu", "12345"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tc.insName, tc.email, tc.password)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}
