// Package otp generates fixed-length numeric one-time codes from a
// cryptographically secure source. Single use is enforced by the account
// service, which clears a stored code once it is consumed.
package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const DefaultLength = 6

type Generator struct {
	length int
}

func NewGenerator(length int) *Generator {
	if length <= 0 {
		length = DefaultLength
	}
	return &Generator{length: length}
}

// Generate returns a string of digits drawn uniformly from 0-9.
func (g *Generator) Generate() (string, error) {
	digits := make([]byte, g.length)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("failed to read random digit: %w", err)
		}
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits), nil
}
