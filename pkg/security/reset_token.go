package security

import (
	"crypto/sha256"
	"encoding/hex"

	"devfolio/portfolio-api/pkg/util"
)

const (
	resetTokenSize = 20
)

// NewResetToken returns a random raw token for the reset link and the
// digest that gets stored in its place.
func NewResetToken() (raw, hash string, err error) {
	raw, err = util.GenerateToken(resetTokenSize)
	if err != nil {
		return "", "", err
	}

	return raw, HashResetToken(raw), nil
}

// HashResetToken is the deterministic transform applied to a raw token both
// when it's issued and when it's redeemed
func HashResetToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
