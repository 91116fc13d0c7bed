// Package security contains everything related to the security of user data
package security

import (
	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt work factor used for new hashes
const DefaultCost = 10

// MaxSecretBytes is the longest secret bcrypt reads in full. Anything past it
// would be ignored, so longer secrets are refused instead.
const MaxSecretBytes = 72

type Hasher struct {
	Cost int
}

func NewHasher() *Hasher {
	return &Hasher{Cost: DefaultCost}
}

// Hash returns a self-describing bcrypt hash of p. The salt and cost are
// embedded in the output so nothing else needs to be stored.
func (h *Hasher) Hash(p string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(p), h.Cost)
	if err != nil {
		return "", err
	}

	return string(b), nil
}

// Verify reports whether p matches the stored hash e. Malformed hashes,
// empty input and secrets longer than MaxSecretBytes simply don't match.
func (h *Hasher) Verify(p, e string) bool {
	if p == "" || e == "" || len(p) > MaxSecretBytes {
		return false
	}

	return bcrypt.CompareHashAndPassword([]byte(e), []byte(p)) == nil
}
