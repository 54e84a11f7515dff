package auth

import (
	"golang.org/x/crypto/bcrypt"
)

const (
	// DefaultBcryptCost is the default cost for bcrypt hashing.
	DefaultBcryptCost = 12
)

// PasswordHasher provides password hashing and verification functionality.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher creates a new PasswordHasher with default cost.
func NewPasswordHasher() *PasswordHasher {
	return NewPasswordHasherWithCost(DefaultBcryptCost)
}

// NewPasswordHasherWithCost creates a PasswordHasher with the given cost,
// clamped to the range bcrypt accepts.
func NewPasswordHasherWithCost(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return &PasswordHasher{
		cost: cost,
	}
}

// Hash generates a salted bcrypt hash of the given password.
func (h *PasswordHasher) Hash(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// Verify checks if the provided password matches the hash. A malformed hash
// never matches.
func (h *PasswordHasher) Verify(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
