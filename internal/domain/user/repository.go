package user

import (
	"context"

	"github.com/inventra-labs/gatekeeper/internal/shared/authorization"
)

// Repository defines the interface for user data operations.
// Lookups return (nil, nil) when no row matches.
type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	ExistsWithRole(ctx context.Context, role authorization.Role) (bool, error)
}
