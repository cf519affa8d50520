package health

import (
	"context"
	"net"
	"testing"
)

func TestTCPChecker_ListeningPort(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	defer listener.Close()

	checker := NewTCPChecker()

	result := checker.Check(context.Background(), listener.Addr().String())

	if !result.Healthy {
		t.Errorf("Expected healthy, got unhealthy: %s", result.Message)
	}
}

func TestTCPChecker_RefusedConnection(t *testing.T) {
	// Grab a free port, then close it so nothing is listening there.
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	addr := listener.Addr().String()
	listener.Close()

	checker := NewTCPChecker()

	result := checker.Check(context.Background(), addr)

	if result.Healthy {
		t.Error("Expected unhealthy for refused connection")
	}
	if result.Timeout {
		t.Errorf("Refused connection is not a timeout: %s", result.Message)
	}
}
