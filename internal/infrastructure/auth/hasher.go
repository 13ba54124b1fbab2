package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrPasswordMismatch covers both a wrong password and an unreadable hash.
var ErrPasswordMismatch = errors.New("password does not match")

// BcryptPasswordHasher stores account passwords. Costs outside bcrypt's
// accepted range fall back to bcrypt.DefaultCost.
type BcryptPasswordHasher struct {
	cost int
}

func NewBcryptPasswordHasher(cost int) *BcryptPasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptPasswordHasher{cost: cost}
}

func (h *BcryptPasswordHasher) Cost() int {
	return h.cost
}

func (h *BcryptPasswordHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", errors.New("password is empty")
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		// bcrypt rejects passwords over 72 bytes
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(digest), nil
}

func (h *BcryptPasswordHasher) Verify(password, digest string) error {
	if bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) != nil {
		return ErrPasswordMismatch
	}
	return nil
}
