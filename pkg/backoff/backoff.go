// Package backoff provides the retry-delay policy for stream reconnection.
package backoff

import (
	"math/rand"
	"time"
)

// Strategy computes successive retry delays. Next returns the delay to wait
// before the following attempt; Reset restores the strategy to its initial
// state after a verified success.
type Strategy interface {
	Next() time.Duration
	Reset()
}

// maxShift caps the exponent so the ceiling computation cannot overflow.
const maxShift = 32

// Jittered is an exponential backoff with randomized jitter. Every delay
// falls in [initial, min(initial<<attempt, max)], so the first delay after a
// Reset is exactly the initial delay and no delay ever exceeds the maximum.
type Jittered struct {
	initial time.Duration
	max     time.Duration
	rand    *rand.Rand
	attempt uint
}

// NewJittered builds a jittered exponential strategy. A nil rng falls back
// to a time-seeded source.
func NewJittered(initial, max time.Duration, rng *rand.Rand) *Jittered {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if max < initial {
		max = initial
	}
	return &Jittered{initial: initial, max: max, rand: rng}
}

// Next returns the delay before the next attempt and advances the exponent.
func (j *Jittered) Next() time.Duration {
	ceiling := j.max
	if j.attempt < maxShift {
		if c := j.initial << j.attempt; c < j.max {
			ceiling = c
		}
		j.attempt++
	}
	spread := int64(ceiling - j.initial)
	d := j.initial
	if spread > 0 {
		d += time.Duration(j.rand.Int63n(spread + 1))
	}
	return d
}

// Reset restores the initial delay for the next failure.
func (j *Jittered) Reset() {
	j.attempt = 0
}
