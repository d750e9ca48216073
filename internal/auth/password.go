// ABOUTME: One-way password hashing and verification using bcrypt
// ABOUTME: Provides constant-timing verification including a dummy-compare path

package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// dummyHash is compared against when no stored hash exists, so that a login
// attempt for an unknown username costs the same as one for a known username.
// This prevents timing attacks that could enumerate valid usernames.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// PasswordHasher hashes and verifies passwords with bcrypt. Each Hash call
// uses a fresh random salt, so two hashes of the same password differ; cost
// controls the work factor.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher creates a hasher with the given bcrypt cost.
// Costs below bcrypt's minimum fall back to bcrypt.DefaultCost.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordHasher{cost: cost}
}

// Hash derives a salted bcrypt hash from the raw password.
func (h *PasswordHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// Verify reports whether the raw password matches the stored hash.
// A mismatch is not an error - it only returns false.
func (h *PasswordHasher) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// DummyVerify burns the same bcrypt work as a real verification. Call it on
// the no-such-user path so lookup misses and password mismatches take the
// same time.
func (h *PasswordHasher) DummyVerify(password string) {
	_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
}
