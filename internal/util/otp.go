package util

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// GenerateNumericOTP produces a fixed-length numeric one-time code from a
// cryptographically secure source. Leading zeros are preserved.
func GenerateNumericOTP(digits int) (string, error) {
	if digits <= 0 {
		digits = 6
	}
	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", digits, n), nil
}
