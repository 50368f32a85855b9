package password

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"strings"
)

// Character classes. Glyphs that are easily confused with one another
// (I, O, l, 0, 1) are left out.
const (
	UpperChars   = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	LowerChars   = "abcdefghijkmnopqrstuvwxyz"
	DigitChars   = "23456789"
	SpecialChars = "!@#$%^&*()-_=+[]{}|;:,.<>?"

	// AllChars is the union used for filler positions.
	AllChars = UpperChars + LowerChars + DigitChars + SpecialChars
)

const (
	// DefaultLength is used when no length is configured.
	DefaultLength = 16

	// MinLength is the shortest password that can hold one character of every class.
	MinLength = 4
)

// Class identifies one of the four character classes.
type Class int

const (
	ClassNone Class = iota
	ClassUpper
	ClassLower
	ClassDigit
	ClassSpecial
)

func (c Class) String() string {
	switch c {
	case ClassUpper:
		return "upper"
	case ClassLower:
		return "lower"
	case ClassDigit:
		return "digit"
	case ClassSpecial:
		return "special"
	default:
		return "none"
	}
}

// InvalidLengthError is returned when the requested length cannot satisfy
// the one-character-per-class guarantee.
type InvalidLengthError struct {
	Length int
}

func (e *InvalidLengthError) Error() string {
	return fmt.Sprintf("invalid password length %d: at least %d characters are required to include every character class", e.Length, MinLength)
}

// Generator produces passwords containing at least one upper, lower, digit
// and special character.
type Generator struct {
	reader        io.Reader
	legacyShuffle bool
}

// Option configures a Generator.
type Option func(*Generator)

// WithReader sets the randomness source. It must be cryptographically
// secure outside of tests.
func WithReader(r io.Reader) Option {
	return func(g *Generator) {
		g.reader = r
	}
}

// WithLegacyShuffle makes the shuffle reuse the selection bytes
// (j = byte[i] mod (i+1)) instead of drawing fresh randomness. Output is
// then a pure function of the byte stream, at the cost of a slightly
// biased permutation.
func WithLegacyShuffle() Option {
	return func(g *Generator) {
		g.legacyShuffle = true
	}
}

// New creates a Generator reading from crypto/rand unless overridden.
func New(opts ...Option) *Generator {
	g := &Generator{reader: rand.Reader}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

var defaultGenerator = New()

// Generate returns a password of the given length using crypto/rand.
func Generate(length int) (string, error) {
	return defaultGenerator.Generate(length)
}

// Generate returns a password of exactly length characters.
func (g *Generator) Generate(length int) (string, error) {
	b, err := g.GenerateBytes(length)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// GenerateBytes is Generate without the string conversion, so callers can
// move the result into protected memory and wipe the slice. The random bytes
// are zeroed before returning, and so is the partial password on failure.
func (g *Generator) GenerateBytes(length int) ([]byte, error) {
	if length < MinLength {
		return nil, &InvalidLengthError{Length: length}
	}

	randomBytes := make([]byte, length)
	defer wipe(randomBytes)
	if _, err := io.ReadFull(g.reader, randomBytes); err != nil {
		return nil, fmt.Errorf("failed to generate random bytes: %w", err)
	}

	pw := make([]byte, length)
	pw[0] = UpperChars[int(randomBytes[0])%len(UpperChars)]
	pw[1] = LowerChars[int(randomBytes[1])%len(LowerChars)]
	pw[2] = DigitChars[int(randomBytes[2])%len(DigitChars)]
	pw[3] = SpecialChars[int(randomBytes[3])%len(SpecialChars)]
	for i := MinLength; i < length; i++ {
		pw[i] = AllChars[int(randomBytes[i])%len(AllChars)]
	}

	if err := g.shuffle(pw, randomBytes); err != nil {
		wipe(pw)
		return nil, err
	}
	return pw, nil
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// shuffle is a Fisher-Yates pass from the last index down to 1.
func (g *Generator) shuffle(pw, randomBytes []byte) error {
	for i := len(pw) - 1; i > 0; i-- {
		var j int
		if g.legacyShuffle {
			j = int(randomBytes[i]) % (i + 1)
		} else {
			n, err := rand.Int(g.reader, big.NewInt(int64(i+1)))
			if err != nil {
				return fmt.Errorf("failed to shuffle password: %w", err)
			}
			j = int(n.Int64())
		}
		pw[i], pw[j] = pw[j], pw[i]
	}
	return nil
}

// Classify reports which class c belongs to.
func Classify(c byte) Class {
	switch {
	case strings.IndexByte(UpperChars, c) >= 0:
		return ClassUpper
	case strings.IndexByte(LowerChars, c) >= 0:
		return ClassLower
	case strings.IndexByte(DigitChars, c) >= 0:
		return ClassDigit
	case strings.IndexByte(SpecialChars, c) >= 0:
		return ClassSpecial
	default:
		return ClassNone
	}
}

// MissingClasses lists the classes not present in pw, in class order.
func MissingClasses(pw string) []Class {
	seen := make(map[Class]bool, 4)
	for i := 0; i < len(pw); i++ {
		seen[Classify(pw[i])] = true
	}

	var missing []Class
	for _, c := range []Class{ClassUpper, ClassLower, ClassDigit, ClassSpecial} {
		if !seen[c] {
			missing = append(missing, c)
		}
	}
	return missing
}
