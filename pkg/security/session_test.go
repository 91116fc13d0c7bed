package security

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIssuer(t *testing.T, secret string, ttl time.Duration) *SessionIssuer {
	t.Helper()

	s, err := NewSessionIssuer(secret, ttl)
	require.NoError(t, err)
	return s
}

func TestNewSessionIssuerRequiresSecret(t *testing.T) {
	_, err := NewSessionIssuer("", time.Hour)
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestNewSessionIssuerDefaultsTTL(t *testing.T) {
	s := newTestIssuer(t, "secret", 0)
	assert.Equal(t, DefaultSessionTTL, s.TTL())
}

func TestIssueAndVerify(t *testing.T) {
	s := newTestIssuer(t, "super-secret", time.Hour)

	tok, exp, err := s.Issue("user-123")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	sub, err := s.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-123", sub)
}

func TestIssueRequiresUserID(t *testing.T) {
	s := newTestIssuer(t, "super-secret", time.Hour)

	_, _, err := s.Issue("")
	assert.Error(t, err)
}

func TestVerifyExpiresAfterTTL(t *testing.T) {
	s := newTestIssuer(t, "super-secret", time.Hour)

	issuedAt := time.Now()
	s.now = func() time.Time { return issuedAt }

	tok, _, err := s.Issue("u1")
	require.NoError(t, err)

	s.now = func() time.Time { return issuedAt.Add(59 * time.Minute) }
	sub, err := s.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", sub)

	s.now = func() time.Time { return issuedAt.Add(61 * time.Minute) }
	_, err = s.Verify(tok)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyWrongSecret(t *testing.T) {
	tok, _, err := newTestIssuer(t, "right-secret", time.Hour).Issue("u2")
	require.NoError(t, err)

	_, err = newTestIssuer(t, "wrong-secret", time.Hour).Verify(tok)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyMalformed(t *testing.T) {
	s := newTestIssuer(t, "k", time.Hour)

	for _, tok := range []string{"", "not.a.jwt", "garbage"} {
		_, err := s.Verify(tok)
		assert.ErrorIs(t, err, ErrTokenInvalid, "token %q", tok)
	}
}

func TestVerifyRejectsOtherAlgorithms(t *testing.T) {
	s := newTestIssuer(t, "k", time.Hour)

	tok := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{
		Subject:   "u3",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := tok.SignedString([]byte("k"))
	require.NoError(t, err)

	_, err = s.Verify(signed)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyRequiresExpiry(t *testing.T) {
	s := newTestIssuer(t, "k", time.Hour)

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "u4"})
	signed, err := tok.SignedString([]byte("k"))
	require.NoError(t, err)

	_, err = s.Verify(signed)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyRequiresSubject(t *testing.T) {
	s := newTestIssuer(t, "k", time.Hour)

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := tok.SignedString([]byte("k"))
	require.NoError(t, err)

	_, err = s.Verify(signed)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
