package cluster

import "sync/atomic"

// Host health flag bits. The flag word is the one piece of state shared
// between health executors (writers) and the report builder (reader), so
// all access goes through atomic operations.
const (
	flagFailedActiveHC = 1 << 0
	flagFailureTimeout = 1 << 1
)

// Host is one checkable endpoint of a monitored cluster.
type Host struct {
	addr  string
	flags atomic.Uint32
}

// NewHost creates a host marked as failed-active-health-check until its
// first probe completes.
func NewHost(addr string) *Host {
	h := &Host{addr: addr}
	h.flags.Store(flagFailedActiveHC)
	return h
}

// Address returns the host's stable "host:port" form.
func (h *Host) Address() string {
	return h.addr
}

// SetHealth publishes the outcome of an active health-check probe. Safe for
// concurrent use.
func (h *Host) SetHealth(healthy, timeout bool) {
	var flags uint32
	if !healthy {
		flags = flagFailedActiveHC
		if timeout {
			flags |= flagFailureTimeout
		}
	}
	h.flags.Store(flags)
}

// Healthy reports whether the aggregate active-health-check state is healthy.
func (h *Host) Healthy() bool {
	return h.flags.Load()&flagFailedActiveHC == 0
}

// LastFailureTimeout reports whether the most recent active-check failure
// was a timeout. Only meaningful while Healthy is false.
func (h *Host) LastFailureTimeout() bool {
	return h.flags.Load()&flagFailureTimeout != 0
}
