// Package clocktest adapts clockwork's fake clock to the clock.Clock
// interface. Interface compatibility in Go is nominal for methods returning
// other interfaces, so the Timer/Ticker constructors need re-boxing.
package clocktest

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/proxyfleet/hdsagent/internal/clock"
)

// FakeClock is a clock.Clock that can be manually advanced through time.
type FakeClock interface {
	clock.Clock
	Advance(d time.Duration)
	BlockUntilContext(ctx context.Context, waiters int) error
}

// NewFakeClock creates a FakeClock backed by clockwork.
func NewFakeClock() FakeClock {
	return fakeClock{clockwork.NewFakeClock()}
}

// fakeClock re-boxes the clockwork timer/ticker return types as the
// clock package's interfaces.
type fakeClock struct {
	*clockwork.FakeClock
}

var _ FakeClock = fakeClock{}

func (f fakeClock) NewTimer(d time.Duration) clock.Timer {
	return f.FakeClock.NewTimer(d)
}

func (f fakeClock) NewTicker(d time.Duration) clock.Ticker {
	return f.FakeClock.NewTicker(d)
}
