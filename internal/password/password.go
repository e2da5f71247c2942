// Package password checks plaintext passwords against stored hashes.
package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Verifier compares a plaintext password with a stored hash. A mismatch is
// reported as false with a nil error; an error means the hash itself could
// not be used.
type Verifier interface {
	Verify(plaintext, hash string) (bool, error)
}

// Bcrypt verifies bcrypt hashes ($2a$, $2b$, $2y$).
type Bcrypt struct{}

func (Bcrypt) Verify(plaintext, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("malformed password hash: %w", err)
	}
}
