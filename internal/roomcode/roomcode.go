// Package roomcode generates the short codes players type to find a room.
package roomcode

import (
	"fmt"
	"strings"
)

// Length is the fixed number of characters in a room code.
const Length = 6

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// RandSource is the randomness a Generator draws from.
type RandSource interface {
	IntN(n int) int
}

// Generator rolls random codes. It does not know which codes are taken;
// callers re-roll when their store reports a collision.
type Generator struct {
	randSource RandSource
}

// NewGenerator creates a generator drawing from randSource.
func NewGenerator(randSource RandSource) *Generator {
	return &Generator{randSource: randSource}
}

// Generate returns a fresh code of Length characters.
func (g *Generator) Generate() string {
	var b strings.Builder
	b.Grow(Length)
	for range Length {
		b.WriteByte(alphabet[g.randSource.IntN(len(alphabet))])
	}
	return b.String()
}

// Normalize trims and upper-cases a code typed by a player.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Validate checks length and alphabet of an already normalised code.
func Validate(code string) error {
	if len(code) != Length {
		return fmt.Errorf("room code must be exactly %d characters, got %d", Length, len(code))
	}
	for i := 0; i < len(code); i++ {
		if strings.IndexByte(alphabet, code[i]) < 0 {
			return fmt.Errorf("invalid character %q at position %d", code[i], i)
		}
	}
	return nil
}
