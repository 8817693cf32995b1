// Package credential produces and digests the rotating login codes that are
// delivered to users over Telegram.
package credential

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
)

// Length is the number of characters in a generated credential.
const Length = 12

const (
	lowerChars  = "abcdefghijklmnopqrstuvwxyz"
	upperChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digitChars  = "0123456789"
	symbolChars = "!@#$%^&*()-_+=<>?"
	allChars    = lowerChars + upperChars + digitChars + symbolChars
)

// Classes lists the character classes every credential draws from.
var Classes = []string{lowerChars, upperChars, digitChars, symbolChars}

// Generator builds credentials from a cryptographically secure source.
type Generator struct {
	rand io.Reader
}

// NewGenerator returns a Generator reading from crypto/rand.
func NewGenerator() *Generator {
	return &Generator{rand: rand.Reader}
}

// Generate returns a Length-character credential containing at least one
// character of each class, in a uniformly shuffled order.
func (g *Generator) Generate() (string, error) {
	buf := make([]byte, 0, Length)
	for _, class := range Classes {
		c, err := g.pick(class)
		if err != nil {
			return "", err
		}
		buf = append(buf, c)
	}
	for len(buf) < Length {
		c, err := g.pick(allChars)
		if err != nil {
			return "", err
		}
		buf = append(buf, c)
	}

	// Fisher-Yates
	for i := len(buf) - 1; i > 0; i-- {
		j, err := g.intn(i + 1)
		if err != nil {
			return "", err
		}
		buf[i], buf[j] = buf[j], buf[i]
	}
	return string(buf), nil
}

func (g *Generator) pick(chars string) (byte, error) {
	i, err := g.intn(len(chars))
	if err != nil {
		return 0, err
	}
	return chars[i], nil
}

func (g *Generator) intn(n int) (int, error) {
	v, err := rand.Int(g.rand, big.NewInt(int64(n)))
	if err != nil {
		return 0, fmt.Errorf("credential: read random: %w", err)
	}
	return int(v.Int64()), nil
}
