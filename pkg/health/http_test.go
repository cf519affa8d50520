package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/proxyfleet/hdsagent/api/hdsv1"
)

func TestHTTPChecker_HealthyEndpoint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("healthy"))
	}))
	defer server.Close()

	checker := NewHTTPChecker(hdsv1.HealthCheck{Type: hdsv1.ProtocolHTTP})

	result := checker.Check(context.Background(), server.Listener.Addr().String())

	if !result.Healthy {
		t.Errorf("Expected healthy, got unhealthy: %s", result.Message)
	}
	if result.Timeout {
		t.Error("Expected no timeout flag")
	}
	if result.Duration <= 0 {
		t.Error("Expected positive duration")
	}
}

func TestHTTPChecker_UnhealthyEndpoint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	checker := NewHTTPChecker(hdsv1.HealthCheck{Type: hdsv1.ProtocolHTTP})

	result := checker.Check(context.Background(), server.Listener.Addr().String())

	if result.Healthy {
		t.Errorf("Expected unhealthy, got healthy: %s", result.Message)
	}
	if result.Timeout {
		t.Error("HTTP error status is not a timeout failure")
	}
}

func TestHTTPChecker_ChecksConfiguredPath(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/healthz" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	checker := NewHTTPChecker(hdsv1.HealthCheck{Type: hdsv1.ProtocolHTTP, Path: "/healthz"})

	result := checker.Check(context.Background(), server.Listener.Addr().String())

	if !result.Healthy {
		t.Errorf("Expected healthy, got unhealthy: %s", result.Message)
	}
}

func TestHTTPChecker_TimeoutFlagged(t *testing.T) {
	blocked := make(chan struct{})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-blocked
	}))
	// Release the handler before Close waits on it.
	defer server.Close()
	defer close(blocked)

	checker := NewHTTPChecker(hdsv1.HealthCheck{Type: hdsv1.ProtocolHTTP})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	result := checker.Check(ctx, server.Listener.Addr().String())

	if result.Healthy {
		t.Error("Expected unhealthy on timeout")
	}
	if !result.Timeout {
		t.Errorf("Expected timeout flag, got: %s", result.Message)
	}
}

func TestHTTPChecker_CustomStatusRange(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	checker := NewHTTPChecker(hdsv1.HealthCheck{Type: hdsv1.ProtocolHTTP}).WithStatusRange(200, 200)

	result := checker.Check(context.Background(), server.Listener.Addr().String())

	if result.Healthy {
		t.Errorf("Expected 201 outside range 200-200 to be unhealthy: %s", result.Message)
	}
}
