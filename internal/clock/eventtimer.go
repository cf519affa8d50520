package clock

import "time"

// EventTimer is a cancellable one-shot timer handle. It is created disarmed;
// Arm schedules (or reschedules) a single fire on Chan, Disable cancels any
// pending fire. Not safe for concurrent use: the owning loop must be the
// only caller of Arm, Disable, and the only reader of Chan.
type EventTimer struct {
	timer Timer
	armed bool
}

// NewEventTimer returns a disarmed EventTimer on the given clock.
func NewEventTimer(clk Clock) *EventTimer {
	t := clk.NewTimer(time.Hour)
	if !t.Stop() {
		<-t.Chan()
	}
	return &EventTimer{timer: t}
}

// Chan delivers at most one fire per Arm.
func (e *EventTimer) Chan() <-chan time.Time {
	return e.timer.Chan()
}

// Arm schedules a fire after d, replacing any pending fire.
func (e *EventTimer) Arm(d time.Duration) {
	e.Disable()
	e.timer.Reset(d)
	e.armed = true
}

// Disable cancels a pending fire, draining an already-delivered tick so a
// stale fire can never be observed after disabling.
func (e *EventTimer) Disable() {
	if !e.armed {
		return
	}
	if !e.timer.Stop() {
		select {
		case <-e.timer.Chan():
		default:
		}
	}
	e.armed = false
}

// Armed reports whether a fire is pending. The fire itself does not clear
// the flag; callers re-arm or disable from their timer-fire handler.
func (e *EventTimer) Armed() bool {
	return e.armed
}
