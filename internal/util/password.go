package util

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost keeps verification in the tens-of-milliseconds range on current
// hardware.
const bcryptCost = 10

// HashPassword derives a one-way bcrypt hash. The salt is generated by the
// primitive and encoded into the returned hash.
func HashPassword(password string) ([]byte, error) {
	if len(password) == 0 {
		return nil, errors.New("password cannot be empty")
	}
	return bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
}

// VerifyPassword compares a candidate password against a stored hash using
// the primitive's own constant-time comparison.
func VerifyPassword(password string, hash []byte) bool {
	if len(password) == 0 || len(hash) == 0 {
		return false
	}
	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
}
