package helpers

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidDigest is returned when a stored hash cannot be parsed as bcrypt.
var ErrInvalidDigest = errors.New("invalid password digest")

// bcrypt ignores everything past 72 bytes and newer library versions reject
// longer inputs outright, so truncate before hashing and comparing. Callers
// must not rely on distinguishing passwords that agree on their first 72 bytes.
func truncatePassword(plain string) []byte {
	b := []byte(plain)
	if len(b) > 72 {
		b = b[:72]
	}
	return b
}

// HashPassword hashes the plain text password using bcrypt
func HashPassword(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword(truncatePassword(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CheckPassword reports whether plain matches the bcrypt digest. A mismatch is
// (false, nil); only a malformed digest produces an error.
func CheckPassword(plain, digest string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(digest), truncatePassword(plain))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, ErrInvalidDigest
}
