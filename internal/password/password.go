// Package password hashes and verifies user passwords.
//
// Two algorithms are supported: bcrypt (the default, cost based) and
// argon2id. Verify recognises both encodings regardless of which algorithm
// new hashes are produced with, so switching algorithms does not lock out
// existing users.
package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

const (
	AlgorithmBcrypt   = "bcrypt"
	AlgorithmArgon2id = "argon2id"
)

// Argon2id parameters
// Time: 3, Memory: 64MB, Threads: 4, KeyLen: 32 bytes
const (
	argon2Time    = 3
	argon2Memory  = 64 * 1024
	argon2Threads = 4
	argon2KeyLen  = 32
	saltLen       = 16
)

const argon2Prefix = "$argon2id$"

var ErrPasswordTooLong = errors.New("password must be at most 72 bytes")

// Hasher produces and checks password hashes
type Hasher struct {
	algorithm  string
	bcryptCost int
}

// NewHasher returns a hasher producing hashes with algorithm.
// cost is only used by bcrypt and is clamped to bcrypt's allowed range.
func NewHasher(algorithm string, cost int) (*Hasher, error) {
	switch algorithm {
	case AlgorithmBcrypt, AlgorithmArgon2id:
	default:
		return nil, fmt.Errorf("unsupported password algorithm %q", algorithm)
	}

	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}

	return &Hasher{algorithm: algorithm, bcryptCost: cost}, nil
}

// Hash returns a salted hash of raw. Two calls with the same input return
// different strings.
func (h *Hasher) Hash(raw string) (string, error) {
	if h.algorithm == AlgorithmArgon2id {
		return hashArgon2(raw)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(raw), h.bcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", ErrPasswordTooLong
		}
		return "", fmt.Errorf("bcrypt: %w", err)
	}
	return string(hash), nil
}

// Verify reports whether raw matches encodedHash. Malformed hashes never match.
func (h *Hasher) Verify(raw, encodedHash string) bool {
	if strings.HasPrefix(encodedHash, argon2Prefix) {
		return verifyArgon2(encodedHash, raw)
	}
	return bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(raw)) == nil
}

// hashArgon2 creates an argon2id hash encoded as
// $argon2id$v=19$m=65536,t=3,p=4$salt$hash
func hashArgon2(raw string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("read salt: %w", err)
	}

	hash := argon2.IDKey([]byte(raw), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		argon2Memory,
		argon2Time,
		argon2Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

func verifyArgon2(encodedHash, raw string) bool {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		return false
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false
	}

	var memory, iterations uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &threads); err != nil {
		return false
	}
	if memory == 0 || iterations == 0 || threads == 0 {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(want) == 0 {
		return false
	}

	got := argon2.IDKey([]byte(raw), salt, iterations, memory, threads, uint32(len(want)))

	return subtle.ConstantTimeCompare(want, got) == 1
}
