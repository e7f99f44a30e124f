// Package cryptox hashes account passwords with Argon2id.
package cryptox

import (
	"crypto/rand"
	"crypto/subtle"

	"golang.org/x/crypto/argon2"
)

const (
	SaltSize = 16
	KeySize  = 32
)

// DeriveKey stretches password with salt using Argon2id.
func DeriveKey(password []byte, salt []byte) []byte {
	return argon2.IDKey(password, salt, 1, 64*1024, 4, KeySize)
}

// NewSalt returns SaltSize random bytes.
func NewSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	return salt, nil
}

// HashPassword derives a hash under a fresh salt.
func HashPassword(password []byte) (salt, hash []byte, err error) {
	salt, err = NewSalt()
	if err != nil {
		return nil, nil, err
	}
	return salt, DeriveKey(password, salt), nil
}

// VerifyPassword compares in constant time.
func VerifyPassword(password, salt, hash []byte) bool {
	return subtle.ConstantTimeCompare(DeriveKey(password, salt), hash) == 1
}
