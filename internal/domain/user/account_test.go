package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inventra-labs/gatekeeper/internal/shared/authorization"
)

func TestNewUser(t *testing.T) {
	u, err := NewUser("  Admin@Example.COM ", "hash", authorization.RoleAdmin)
	require.NoError(t, err)

	assert.NotEmpty(t, u.ID())
	assert.Equal(t, "admin@example.com", u.Email())
	assert.Equal(t, authorization.RoleAdmin, u.Role())
	assert.False(t, u.CreatedAt().IsZero())
}

func TestNewUserRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		email string
		hash  string
		role  authorization.Role
	}{
		{"bad email", "not-an-email", "hash", authorization.RoleUser},
		{"missing hash", "a@b.io", "", authorization.RoleUser},
		{"unknown role", "a@b.io", "hash", authorization.Role("ROOT")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewUser(tt.email, tt.hash, tt.role)
			assert.Error(t, err)
		})
	}
}
