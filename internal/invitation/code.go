// Package invitation holds the pure functions behind personalised invitations:
// invitation codes, links, WhatsApp text, legacy recipient names and map visibility.
package invitation

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"regexp"
)

// Alphabet leaves out 0, 1, i, l and o so codes survive being read aloud or retyped.
const Alphabet = "23456789abcdefghjkmnpqrstuvwxyz"

const CodeLength = 5

var codePattern = regexp.MustCompile(`^[23456789abcdefghjkmnpqrstuvwxyz]{5}$`)

// ValidCode reports whether code is syntactically an invitation code
func ValidCode(code string) bool {
	return codePattern.MatchString(code)
}

// CodeGenerator draws codes from a random source
type CodeGenerator struct {
	src io.Reader
}

// NewCodeGenerator returns a generator reading from src; nil means crypto/rand
func NewCodeGenerator(src io.Reader) *CodeGenerator {
	if src == nil {
		src = rand.Reader
	}
	return &CodeGenerator{src: src}
}

// Generate returns a fresh code. Each call is an independent draw.
func (g *CodeGenerator) Generate() (string, error) {
	max := big.NewInt(int64(len(Alphabet)))
	buf := make([]byte, CodeLength)
	for i := range buf {
		n, err := rand.Int(g.src, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate invitation code: %w", err)
		}
		buf[i] = Alphabet[n.Int64()]
	}
	return string(buf), nil
}

var defaultGenerator = NewCodeGenerator(nil)

// GenerateCode draws a code from crypto/rand
func GenerateCode() (string, error) {
	return defaultGenerator.Generate()
}
