// Package crypto hashes and verifies HTTP basic auth passwords with Argon2id.
//
// Hashes use the PHC string format ($argon2id$v=19$m=...,t=...,p=...$salt$hash) so a
// config file can hold a hash instead of a plaintext password.
package crypto

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters (OWASP recommended)
const (
	argon2Time    = 1
	argon2Memory  = 64 * 1024 // KiB
	argon2Threads = 4
	argon2KeyLen  = 32
	saltLen       = 16
)

const hashPrefix = "$argon2id$"

// maxMemory caps the memory parameter (KiB) accepted from a stored hash
const maxMemory = 1 << 22

// ErrInvalidHash is returned for strings that are not Argon2id PHC hashes
var ErrInvalidHash = errors.New("invalid argon2id hash")

// IsHash reports whether s looks like an Argon2id hash
func IsHash(s string) bool {
	return strings.HasPrefix(s, hashPrefix)
}

// HashPassword creates an Argon2id hash of the password
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password is empty")
	}

	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argon2Memory, argon2Time, argon2Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key)), nil
}

// VerifyPassword checks a password against an Argon2id hash in constant time
func VerifyPassword(password, hash string) (bool, error) {
	parts := strings.Split(hash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false, ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidHash, err)
	}
	if version != argon2.Version {
		return false, fmt.Errorf("%w: unsupported version %d", ErrInvalidHash, version)
	}

	var (
		memory  uint32
		rounds  uint32
		threads uint8
	)
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &rounds, &threads); err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidHash, err)
	}
	// argon2.IDKey panics on zero rounds or threads and allocates memory KiB up front
	if rounds < 1 || threads < 1 || memory < 8*uint32(threads) || memory > maxMemory {
		return false, fmt.Errorf("%w: parameters out of range (m=%d,t=%d,p=%d)", ErrInvalidHash, memory, rounds, threads)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, fmt.Errorf("%w: salt: %v", ErrInvalidHash, err)
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, fmt.Errorf("%w: key: %v", ErrInvalidHash, err)
	}
	if len(salt) == 0 || len(want) == 0 {
		return false, fmt.Errorf("%w: empty salt or key", ErrInvalidHash)
	}

	got := argon2.IDKey([]byte(password), salt, rounds, memory, threads, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}

// Matches compares a password against either an Argon2id hash or a plaintext secret
func Matches(password, secret string) bool {
	if IsHash(secret) {
		ok, err := VerifyPassword(password, secret)
		return err == nil && ok
	}
	if len(password) != len(secret) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(password), []byte(secret)) == 1
}
