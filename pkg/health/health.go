// Package health implements the HTTP and TCP health-check protocols and the
// executor that drives them against a monitored cluster's host set.
package health

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/proxyfleet/hdsagent/api/hdsv1"
)

const (
	// DefaultInterval is used when a health-check config carries no interval.
	DefaultInterval = 5 * time.Second

	// DefaultTimeout is used when a health-check config carries no timeout.
	DefaultTimeout = 2 * time.Second
)

// Result represents the outcome of a single probe against one host.
type Result struct {
	Healthy  bool
	Timeout  bool
	Message  string
	Duration time.Duration
}

// Checker probes one host address with one protocol.
type Checker interface {
	// Check performs the health check against addr ("host:port") and
	// returns the result. It must honor ctx cancellation and deadline.
	Check(ctx context.Context, addr string) Result

	// Type returns the protocol this checker implements.
	Type() hdsv1.Protocol
}

// Target is a checkable host. Executors publish probe outcomes through
// SetHealth; the implementation must be safe for concurrent use since the
// report builder reads health flags from another goroutine.
type Target interface {
	Address() string
	SetHealth(healthy, timeout bool)
}

// NewChecker builds the checker for a health-check configuration.
func NewChecker(cfg hdsv1.HealthCheck) (Checker, error) {
	switch cfg.Type {
	case hdsv1.ProtocolHTTP:
		return NewHTTPChecker(cfg), nil
	case hdsv1.ProtocolTCP:
		return NewTCPChecker(), nil
	default:
		return nil, fmt.Errorf("unsupported health check protocol: %q", cfg.Type)
	}
}

// isTimeout reports whether a probe error counts as a timeout failure
// rather than a plain unhealthy outcome.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
