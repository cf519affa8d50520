package health

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/proxyfleet/hdsagent/api/hdsv1"
)

// TCPChecker performs TCP connect health checks. A host is healthy when a
// connection can be established; no payload is exchanged.
type TCPChecker struct {
	dialer *net.Dialer
}

// NewTCPChecker creates a new TCP health checker
func NewTCPChecker() *TCPChecker {
	return &TCPChecker{dialer: &net.Dialer{}}
}

// Check performs the TCP health check against addr.
func (t *TCPChecker) Check(ctx context.Context, addr string) Result {
	start := time.Now()

	conn, err := t.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return Result{
			Healthy:  false,
			Timeout:  isTimeout(err),
			Message:  fmt.Sprintf("connection failed: %v", err),
			Duration: time.Since(start),
		}
	}
	defer conn.Close()

	return Result{
		Healthy:  true,
		Message:  fmt.Sprintf("TCP connection to %s successful", addr),
		Duration: time.Since(start),
	}
}

// Type returns the health check protocol
func (t *TCPChecker) Type() hdsv1.Protocol {
	return hdsv1.ProtocolTCP
}
