// Package security implements the hashing capabilities the application
// layer consumes: password hashing with bcrypt and session token derivation.
package security

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	mathrand "math/rand/v2"
	"strconv"
	"time"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/sha3"
)

// DefaultCost matches the cost existing password hashes were created with.
const DefaultCost = 10

// PasswordHasher hashes and verifies passwords with bcrypt.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher creates a hasher. Costs outside bcrypt's range fall back
// to DefaultCost.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return &PasswordHasher{cost: cost}
}

// Hash returns the bcrypt hash of password.
func (h *PasswordHasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(b), nil
}

// Verify reports whether password matches hash. Malformed hashes never match.
func (h *PasswordHasher) Verify(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// TokenDeriver derives opaque session tokens:
// hex(sha3-256(userID ‖ unixMillis ‖ n ‖ salt)) with n drawn from [1, 10000)
// and 16 bytes of salt from crypto/rand. Without the salt the input space is
// small enough to enumerate.
type TokenDeriver struct {
	entropy func(b []byte) (int, error)
}

// NewTokenDeriver creates a deriver reading salt from crypto/rand.
func NewTokenDeriver() *TokenDeriver {
	return &TokenDeriver{entropy: rand.Read}
}

// ErrEntropy is returned when no salt could be read.
var ErrEntropy = errors.New("security: entropy source failed")

// DeriveToken returns a 64 character hex token.
func (d *TokenDeriver) DeriveToken(userID int64, now time.Time) (string, error) {
	salt := make([]byte, 16)
	if _, err := d.entropy(salt); err != nil {
		return "", fmt.Errorf("%w: %v", ErrEntropy, err)
	}

	h := sha3.New256()
	h.Write([]byte(strconv.FormatInt(userID, 10)))
	h.Write([]byte(strconv.FormatInt(now.UnixMilli(), 10)))
	h.Write([]byte(strconv.Itoa(1 + mathrand.IntN(9999))))
	h.Write(salt)

	return hex.EncodeToString(h.Sum(nil)), nil
}
