// Package user holds dashboard accounts. Each account carries exactly one
// role, which is read by the authorization layer and never changed by it.
package user

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	vo "github.com/inventra-labs/gatekeeper/internal/domain/user/valueobjects"
	"github.com/inventra-labs/gatekeeper/internal/shared/authorization"
)

type User struct {
	id           string
	email        vo.Email
	passwordHash string
	role         authorization.Role
	createdAt    time.Time
	updatedAt    time.Time
}

// NewUser creates an account with a fresh UUID.
func NewUser(email string, passwordHash string, role authorization.Role) (*User, error) {
	addr, err := vo.NewEmail(email)
	if err != nil {
		return nil, err
	}
	if passwordHash == "" {
		return nil, fmt.Errorf("password hash is required")
	}
	if !role.IsValid() {
		return nil, fmt.Errorf("invalid role %q", role)
	}

	now := time.Now().UTC()
	return &User{
		id:           uuid.NewString(),
		email:        addr,
		passwordHash: passwordHash,
		role:         role,
		createdAt:    now,
		updatedAt:    now,
	}, nil
}

// Reconstruct rebuilds a User from persisted state.
func Reconstruct(id, email, passwordHash string, role authorization.Role, createdAt, updatedAt time.Time) (*User, error) {
	if id == "" {
		return nil, fmt.Errorf("user ID cannot be empty")
	}
	addr, err := vo.NewEmail(email)
	if err != nil {
		return nil, err
	}
	return &User{
		id:           id,
		email:        addr,
		passwordHash: passwordHash,
		role:         role,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}, nil
}

func (u *User) ID() string               { return u.id }
func (u *User) Email() string            { return u.email.String() }
func (u *User) PasswordHash() string     { return u.passwordHash }
func (u *User) Role() authorization.Role { return u.role }
func (u *User) CreatedAt() time.Time     { return u.createdAt }
func (u *User) UpdatedAt() time.Time     { return u.updatedAt }
