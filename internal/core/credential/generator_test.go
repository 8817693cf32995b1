package credential

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func classOf(c rune) int {
	for i, class := range Classes {
		if strings.ContainsRune(class, c) {
			return i
		}
	}
	return -1
}

func TestGenerator_LengthAndClasses(t *testing.T) {
	g := NewGenerator()

	for i := 0; i < 1000; i++ {
		code, err := g.Generate()
		require.NoError(t, err)
		require.Len(t, code, Length)

		seen := make([]bool, len(Classes))
		for _, c := range code {
			idx := classOf(c)
			require.NotEqual(t, -1, idx, "unexpected character %q in %q", c, code)
			seen[idx] = true
		}
		for idx, ok := range seen {
			require.True(t, ok, "class %d missing from %q", idx, code)
		}
	}
}

func TestGenerator_NoCollisions(t *testing.T) {
	g := NewGenerator()
	seen := make(map[string]struct{}, 10000)

	prev := ""
	for i := 0; i < 10000; i++ {
		code, err := g.Generate()
		require.NoError(t, err)
		require.NotEqual(t, prev, code)
		_, dup := seen[code]
		require.False(t, dup, "duplicate credential %q after %d samples", code, i)
		seen[code] = struct{}{}
		prev = code
	}
}

func TestGenerator_ClassPositionNotFixed(t *testing.T) {
	g := NewGenerator()

	// Every class should show up in the first position at some point.
	firstClass := make(map[int]int)
	counts := make([]int, len(Classes))
	const samples = 5000
	for i := 0; i < samples; i++ {
		code, err := g.Generate()
		require.NoError(t, err)
		firstClass[classOf(rune(code[0]))]++
		for _, c := range code {
			counts[classOf(c)]++
		}
	}
	require.Len(t, firstClass, len(Classes))

	// Each class gets one guaranteed slot plus its share of the eight free
	// ones, so every class must hold a clear share of all characters.
	total := samples * Length
	for idx, n := range counts {
		share := float64(n) / float64(total)
		require.Greater(t, share, 0.10, "class %d underrepresented", idx)
		require.Less(t, share, 0.45, "class %d overrepresented", idx)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy exhausted") }

func TestGenerator_RandomFailure(t *testing.T) {
	g := &Generator{rand: failingReader{}}
	_, err := g.Generate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "entropy exhausted")
}

func TestHasher(t *testing.T) {
	h := NewHasher("pepper")

	require.Equal(t, h.Hash("aB3!aB3!aB3!"), h.Hash("aB3!aB3!aB3!"))
	require.NotEqual(t, h.Hash("aB3!aB3!aB3!"), h.Hash("aB3!aB3!aB3?"))
	require.NotEqual(t, h.Hash("code"), NewHasher("other").Hash("code"))
	require.Len(t, h.Hash("code"), 64)
	require.NotContains(t, h.Hash("code"), "code")
}
