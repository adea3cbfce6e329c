package synth

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDeterministic(seed int64) *Synthesizer {
	return New(WithRand(rand.New(rand.NewSource(seed))))
}

func TestSynthesizeLength(t *testing.T) {
	s := newDeterministic(1)

	tests := []struct {
		name      string
		prefix    string
		targetLen int
	}{
		{"default 16", "424242", 16},
		{"amex 15", "378734", 15},
		{"diners 14", "305693", 14},
		{"long 19", "601100", 19},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			partial, _ := s.Synthesize(tt.prefix, tt.targetLen)
			// One position is reserved for the check digit.
			assert.Len(t, partial, tt.targetLen-1)
			assert.True(t, strings.HasPrefix(partial, tt.prefix))
		})
	}
}

func TestSynthesizeDigitCap(t *testing.T) {
	s := newDeterministic(2)

	for i := 0; i < 500; i++ {
		partial, _ := s.Synthesize("424242", 16)
		suffix := partial[6:]

		var counts [10]int
		for j := 0; j < len(suffix); j++ {
			counts[suffix[j]-'0']++
		}
		for d, c := range counts {
			require.LessOrEqual(t, c, 2, "digit %d appeared %d times in %s", d, c, suffix)
		}
	}
}

func TestSynthesizePatternAvoidance(t *testing.T) {
	s := newDeterministic(3)

	const runs = 2000
	clean := 0
	for i := 0; i < runs; i++ {
		partial, _ := s.Synthesize("424242", 16)
		if !suffixHasRun(partial, 6) {
			clean++
		}
	}

	// The uniform fallback is the only permitted exception; it should be rare.
	assert.GreaterOrEqual(t, float64(clean)/runs, 0.99)
}

func TestSynthesizeBoundaryRuns(t *testing.T) {
	// Prefix ending in "12" means a suffix starting with 3 would form an
	// ascending run across the boundary; the scanner must catch those.
	s := newDeterministic(4)
	for i := 0; i < 500; i++ {
		partial, fellBack := s.Synthesize("401512", 16)
		if fellBack {
			continue
		}
		assert.False(t, hasRunAt(partial, 4), "boundary run in %s", partial)
	}
}

func TestSynthesizeWeightsFavorLowDigits(t *testing.T) {
	s := newDeterministic(5)

	low, high := 0, 0
	for i := 0; i < 2000; i++ {
		partial, _ := s.Synthesize("424242", 16)
		for _, ch := range partial[6:] {
			if ch <= '5' {
				low++
			} else {
				high++
			}
		}
	}

	// Low digits carry double weight; allow generous slack for the
	// occurrence cap flattening the distribution.
	assert.Greater(t, float64(low), 1.3*float64(high))
}

func TestSynthesizeShortPrefix(t *testing.T) {
	s := newDeterministic(6)
	// Degenerate target: no free positions beyond the check digit.
	partial, fellBack := s.Synthesize("4242424", 8)
	assert.Equal(t, "4242424", partial)
	assert.False(t, fellBack)
}

// suffixHasRun reports a disqualifying 3-run in windows touching the suffix.
func suffixHasRun(number string, prefixLen int) bool {
	start := prefixLen - 2
	if start < 0 {
		start = 0
	}
	for i := start; i+2 < len(number); i++ {
		if hasRunAt(number, i) {
			return true
		}
	}
	return false
}

func hasRunAt(number string, i int) bool {
	a := int(number[i] - '0')
	b := int(number[i+1] - '0')
	c := int(number[i+2] - '0')
	return (a == b && b == c) || (b == a+1 && c == b+1) || (b == a-1 && c == b-1)
}
