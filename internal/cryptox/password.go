// Package cryptox implements salted password derivation and verification.
package cryptox

import (
	"crypto/rand"
	"crypto/subtle"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters. Changing any of them invalidates every stored hash.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	KeyLength    = 32
	SaltLength   = 16
)

// DerivePassword derives a password digest from password and salt using
// argon2id. Equal inputs always produce equal digests.
func DerivePassword(password []byte, salt []byte) []byte {
	return argon2.IDKey(password, salt, argonTime, argonMemory, argonThreads, KeyLength)
}

// GenerateSalt returns SaltLength bytes from crypto/rand.
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	return salt, nil
}

// VerifyPassword recomputes the digest for password and salt and compares it
// to expected in constant time.
func VerifyPassword(password, salt, expected []byte) bool {
	candidate := DerivePassword(password, salt)
	return subtle.ConstantTimeCompare(candidate, expected) == 1
}
