// Package credentials hashes and verifies user passwords with bcrypt.
//
// Records written before hashing was introduced hold the password in plain
// text. Verify still accepts those and reports that the record should be
// rehashed, so callers can upgrade it in place after a successful login.
package credentials

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var ErrMismatch = errors.New("credentials: password does not match")

// Cost is the bcrypt work factor for new hashes.
var Cost = bcrypt.DefaultCost

func Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), Cost)
	if err != nil {
		return "", fmt.Errorf("credentials: hash password: %w", err)
	}
	return string(hash), nil
}

// IsHashed reports whether stored looks like a bcrypt hash.
func IsHashed(stored string) bool {
	return strings.HasPrefix(stored, "$2a$") ||
		strings.HasPrefix(stored, "$2b$") ||
		strings.HasPrefix(stored, "$2y$")
}

// Verify checks password against the stored credential. needsRehash is true
// when stored was a legacy plain-text value that matched.
func Verify(stored, password string) (needsRehash bool, err error) {
	if IsHashed(stored) {
		if err := bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)); err != nil {
			if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
				return false, ErrMismatch
			}
			return false, fmt.Errorf("credentials: compare: %w", err)
		}
		return false, nil
	}

	if stored == "" || subtle.ConstantTimeCompare([]byte(stored), []byte(password)) != 1 {
		return false, ErrMismatch
	}
	return true, nil
}
