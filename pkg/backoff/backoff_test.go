package backoff

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestJittered_BoundsAfterConsecutiveFailures(t *testing.T) {
	initial := 1 * time.Second
	maxDelay := 30 * time.Second
	strategy := NewJittered(initial, maxDelay, rand.New(rand.NewSource(1)))

	for i := 0; i < 100; i++ {
		d := strategy.Next()
		assert.GreaterOrEqual(t, d, initial, "delay %d below initial", i)
		assert.LessOrEqual(t, d, maxDelay, "delay %d above max", i)
	}
}

func TestJittered_FirstDelayIsInitial(t *testing.T) {
	strategy := NewJittered(time.Second, 30*time.Second, rand.New(rand.NewSource(1)))

	assert.Equal(t, time.Second, strategy.Next())
}

func TestJittered_ResetRestoresInitialDelay(t *testing.T) {
	strategy := NewJittered(time.Second, 30*time.Second, rand.New(rand.NewSource(1)))

	for i := 0; i < 10; i++ {
		strategy.Next()
	}
	strategy.Reset()

	assert.Equal(t, time.Second, strategy.Next())
}

func TestJittered_CeilingGrows(t *testing.T) {
	// With jitter spanning [initial, ceiling], repeated draws eventually
	// exceed the initial delay once the ceiling has doubled.
	strategy := NewJittered(time.Second, 30*time.Second, rand.New(rand.NewSource(42)))

	strategy.Next() // exactly initial

	grew := false
	for i := 0; i < 20; i++ {
		if strategy.Next() > time.Second {
			grew = true
			break
		}
	}
	assert.True(t, grew, "delays never grew past the initial delay")
}

func TestJittered_MaxBelowInitialClamped(t *testing.T) {
	strategy := NewJittered(time.Second, time.Millisecond, rand.New(rand.NewSource(1)))

	assert.Equal(t, time.Second, strategy.Next())
}
