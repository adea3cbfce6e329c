// Package synth fills the free digit positions of a card number under
// distribution and pattern constraints.
//
// Real issued numbers skew toward low digits in the account-identifier
// positions, so a uniform sampler is trivially fingerprintable. The
// synthesizer draws from a weighted distribution, caps digit repetition,
// and rejects local runs (identical, ascending, descending) that look
// machine-generated.
package synth

import (
	"math/rand"
	"strings"
	"sync"
	"time"
)

// digitWeights favors 0-5 roughly twice as much as 6-9, mirroring
// observed BIN suffix distributions.
var digitWeights = [10]int{2, 2, 2, 2, 2, 2, 1, 1, 1, 1}

// maxOccurrences caps how often a single digit may appear in a suffix.
const maxOccurrences = 2

// defaultMaxAttempts bounds the pattern-avoidance reshuffle loop.
const defaultMaxAttempts = 100

// Synthesizer generates suffix digits for card numbers. Safe for
// concurrent use: each call derives its own random stream.
type Synthesizer struct {
	mu          sync.Mutex
	seedSource  *rand.Rand
	maxAttempts int
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithRand injects the seed source, making output deterministic in tests.
func WithRand(rng *rand.Rand) Option {
	return func(s *Synthesizer) {
		s.seedSource = rng
	}
}

// WithMaxAttempts overrides the reshuffle bound.
func WithMaxAttempts(n int) Option {
	return func(s *Synthesizer) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// New creates a Synthesizer.
func New(opts ...Option) *Synthesizer {
	s := &Synthesizer{
		seedSource:  rand.New(rand.NewSource(time.Now().UnixNano())),
		maxAttempts: defaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Synthesize returns prefix plus targetLen-len(prefix)-1 generated digits,
// leaving the last position free for the check digit. The second return
// reports whether the uniform fallback was taken.
//
// The suffix is drawn from the weighted distribution with the per-digit
// occurrence cap. If the combined string contains a disqualifying run the
// suffix is reshuffled in place and re-scanned, up to the attempt bound;
// after that the suffix falls back to uniform random digits. The pattern
// filter is a best-effort aesthetic constraint, not a hard invariant, so
// the fallback keeps generation total.
func (s *Synthesizer) Synthesize(prefix string, targetLen int) (string, bool) {
	rng := s.childRand()
	remaining := targetLen - len(prefix) - 1
	if remaining <= 0 {
		return prefix, false
	}

	suffix := sampleWeighted(rng, remaining)
	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		if !hasDisqualifyingRun(prefix, suffix) {
			return prefix + digitsToString(suffix), false
		}
		shuffle(rng, suffix)
	}

	// Uniform fallback guarantees termination.
	for i := range suffix {
		suffix[i] = rng.Intn(10)
	}
	return prefix + digitsToString(suffix), true
}

// childRand derives an independent stream so concurrent calls never
// contend beyond seeding.
func (s *Synthesizer) childRand() *rand.Rand {
	s.mu.Lock()
	seed := s.seedSource.Int63()
	s.mu.Unlock()
	return rand.New(rand.NewSource(seed))
}

// sampleWeighted draws n digits honoring weights and the occurrence cap.
// When the sampled digit is already at the cap, it resamples restricted to
// digits still below cap, preserving relative weights. If every digit is
// capped the cap is waived for that position.
func sampleWeighted(rng *rand.Rand, n int) []int {
	suffix := make([]int, 0, n)
	var counts [10]int

	for len(suffix) < n {
		d := weightedDigit(rng, func(int) bool { return true })
		if counts[d] < maxOccurrences {
			suffix = append(suffix, d)
			counts[d]++
			continue
		}

		alt, ok := tryWeightedDigit(rng, func(c int) bool { return counts[c] < maxOccurrences })
		if ok {
			suffix = append(suffix, alt)
			counts[alt]++
			continue
		}

		// All digits at cap: cap no longer restricts anything useful.
		suffix = append(suffix, rng.Intn(10))
	}
	return suffix
}

// weightedDigit samples from digitWeights over the digits accepted by eligible.
// The caller must guarantee at least one eligible digit.
func weightedDigit(rng *rand.Rand, eligible func(int) bool) int {
	d, _ := tryWeightedDigit(rng, eligible)
	return d
}

func tryWeightedDigit(rng *rand.Rand, eligible func(int) bool) (int, bool) {
	total := 0
	for d, w := range digitWeights {
		if eligible(d) {
			total += w
		}
	}
	if total == 0 {
		return 0, false
	}

	pick := rng.Intn(total)
	for d, w := range digitWeights {
		if !eligible(d) {
			continue
		}
		if pick < w {
			return d, true
		}
		pick -= w
	}
	return 0, false
}

// hasDisqualifyingRun scans for three identical, strictly ascending, or
// strictly descending consecutive digits. Windows lying entirely inside the
// prefix are skipped: the prefix is caller-supplied and immutable, so a run
// there can never be repaired by reshuffling the suffix. Windows crossing
// the boundary are checked.
func hasDisqualifyingRun(prefix string, suffix []int) bool {
	combined := make([]int, 0, len(prefix)+len(suffix))
	for i := 0; i < len(prefix); i++ {
		combined = append(combined, int(prefix[i]-'0'))
	}
	combined = append(combined, suffix...)

	start := len(prefix) - 2
	if start < 0 {
		start = 0
	}
	for i := start; i+2 < len(combined); i++ {
		a, b, c := combined[i], combined[i+1], combined[i+2]
		if a == b && b == c {
			return true
		}
		if b == a+1 && c == b+1 {
			return true
		}
		if b == a-1 && c == b-1 {
			return true
		}
	}
	return false
}

// shuffle is an in-place Fisher-Yates permutation of the suffix.
func shuffle(rng *rand.Rand, digits []int) {
	for i := len(digits) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		digits[i], digits[j] = digits[j], digits[i]
	}
}

func digitsToString(digits []int) string {
	var b strings.Builder
	b.Grow(len(digits))
	for _, d := range digits {
		b.WriteByte(byte('0' + d))
	}
	return b.String()
}
