package core

import (
	"crypto/rand"
	"time"

	"github.com/avelis/huddle/internal/domain"
)

// codeAlphabet excludes visually confusable characters (no 0/O, no 1/I).
// 32 characters, so a single random byte maps onto it without modulo bias.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const CodeLength = 6

type randomCodeGenerator struct{}

// NewCodeGenerator returns the production generator: 6 independent
// characters drawn from codeAlphabet.
func NewCodeGenerator() CodeGenerator {
	return randomCodeGenerator{}
}

func (randomCodeGenerator) Generate() domain.RoomCode {
	b := make([]byte, CodeLength)
	if _, err := rand.Read(b); err != nil {
		// Fall back to a time-derived sequence if the random source fails.
		seed := time.Now().UnixNano()
		for i := range b {
			b[i] = byte(seed >> (8 * uint(i)))
		}
	}
	for i := range b {
		b[i] = codeAlphabet[int(b[i])%len(codeAlphabet)]
	}
	return domain.RoomCode(b)
}
