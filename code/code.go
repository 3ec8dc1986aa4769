package code

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
)

// Alphabet is the set of symbols a room code is drawn from.
const Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

const (
	Length = 6

	// maxAttempts bounds collision retries. With 26^6 codes a live collision
	// run this long means the cache is broken or the random source is stuck.
	maxAttempts = 64
)

var ErrCodeSpaceExhausted = errors.New("no free room code after max attempts")

// Generator draws random codes from Alphabet.
type Generator struct {
	random io.Reader
}

func NewGenerator(random io.Reader) *Generator {
	if random == nil {
		random = rand.Reader
	}
	return &Generator{random}
}

func (g *Generator) Generate() (string, error) {
	code := make([]byte, Length)
	max := big.NewInt(int64(len(Alphabet)))
	for i := range code {
		index, err := rand.Int(g.random, max)
		if err != nil {
			return "", fmt.Errorf("generating code: %w", err)
		}
		code[i] = Alphabet[index.Int64()]
	}
	return string(code), nil
}

// Allocate generates codes until one is not reported as taken.
func (g *Generator) Allocate(taken func(string) bool) (string, error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		code, err := g.Generate()
		if err != nil {
			return "", err
		}
		if !taken(code) {
			return code, nil
		}
	}
	return "", ErrCodeSpaceExhausted
}
