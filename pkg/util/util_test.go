package util

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandStr(t *testing.T) {
	s := RandStr(10)

	assert.Len(t, s, 10)
	assert.Empty(t, strings.Trim(s, charset))
	assert.NotEqual(t, s, RandStr(10))
}

func TestNewID(t *testing.T) {
	id, err := NewID()
	require.NoError(t, err)

	assert.Len(t, id, 16)
	assert.Empty(t, strings.Trim(id, charset))
}

func TestGenerateToken(t *testing.T) {
	tok, err := GenerateToken(20)
	require.NoError(t, err)

	assert.Len(t, tok, 40)
	_, err = hex.DecodeString(tok)
	assert.NoError(t, err)
}
