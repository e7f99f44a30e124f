package cryptox

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveKey_Deterministic(t *testing.T) {
	password := []byte("secret-password")
	salt := []byte("fixed-salt")

	key1 := DeriveKey(password, salt)
	key2 := DeriveKey(password, salt)

	if !bytes.Equal(key1, key2) {
		t.Errorf("expected same result for same inputs, got different")
	}

	expectedHex := "9290403300158e19f27e48e7087f7383b03065bf5b25ef23ebc40229616cd8b3"
	if hex.EncodeToString(key1) != expectedHex {
		t.Errorf("expected %s, got %s", expectedHex, hex.EncodeToString(key1))
	}
}

func TestDeriveKey_DifferentSalts(t *testing.T) {
	password := []byte("secret-password")

	if bytes.Equal(DeriveKey(password, []byte("salt-1")), DeriveKey(password, []byte("salt-2"))) {
		t.Errorf("expected different results for different salts")
	}
}

func TestHashAndVerify(t *testing.T) {
	salt, hash, err := HashPassword([]byte("hunter2"))
	require.NoError(t, err)
	assert.Len(t, salt, SaltSize)
	assert.Len(t, hash, KeySize)

	assert.True(t, VerifyPassword([]byte("hunter2"), salt, hash))
	assert.False(t, VerifyPassword([]byte("hunter3"), salt, hash))
	assert.False(t, VerifyPassword([]byte("hunter2"), []byte("other-salt-bytes"), hash))
}

func TestNewSalt_Random(t *testing.T) {
	a, err := NewSalt()
	require.NoError(t, err)
	b, err := NewSalt()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
