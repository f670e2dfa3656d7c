package hash

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest password accepted for note protection.
const MinPasswordLength = 6

// DefaultCost keeps verification in the tens-of-milliseconds range.
const DefaultCost = 12

// Password hashes a plaintext note password with bcrypt at the given cost.
// The plaintext is never retained beyond this call.
func Password(plaintext string, cost int) (string, error) {
	if len(plaintext) < MinPasswordLength {
		return "", fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}

	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	return string(hashed), nil
}

// Compare checks plaintext against a stored bcrypt hash. bcrypt performs the
// comparison in constant time.
func Compare(hashedPassword, plaintext string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(plaintext))
}
