package health

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/proxyfleet/hdsagent/api/hdsv1"
)

// HTTPChecker performs HTTP-based health checks
type HTTPChecker struct {
	// Path is the request path appended to the host address (default: "/")
	Path string

	// Host overrides the Host header when set
	Host string

	// ExpectedStatusMin is the minimum acceptable HTTP status code (default: 200)
	ExpectedStatusMin int

	// ExpectedStatusMax is the maximum acceptable HTTP status code (default: 399)
	ExpectedStatusMax int

	// Client is the HTTP client to use (allows custom configuration)
	Client *http.Client
}

// NewHTTPChecker creates an HTTP checker from a health-check config.
func NewHTTPChecker(cfg hdsv1.HealthCheck) *HTTPChecker {
	path := cfg.Path
	if path == "" {
		path = "/"
	}
	return &HTTPChecker{
		Path:              path,
		Host:              cfg.Host,
		ExpectedStatusMin: 200,
		ExpectedStatusMax: 399,
		Client:            &http.Client{},
	}
}

// Check performs the HTTP health check against addr.
func (h *HTTPChecker) Check(ctx context.Context, addr string) Result {
	start := time.Now()

	url := fmt.Sprintf("http://%s%s", addr, h.Path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Result{
			Healthy:  false,
			Message:  fmt.Sprintf("failed to create request: %v", err),
			Duration: time.Since(start),
		}
	}
	if h.Host != "" {
		req.Host = h.Host
	}

	resp, err := h.Client.Do(req)
	if err != nil {
		return Result{
			Healthy:  false,
			Timeout:  isTimeout(err),
			Message:  fmt.Sprintf("request failed: %v", err),
			Duration: time.Since(start),
		}
	}
	defer resp.Body.Close()

	healthy := resp.StatusCode >= h.ExpectedStatusMin && resp.StatusCode <= h.ExpectedStatusMax

	message := fmt.Sprintf("HTTP %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	if !healthy {
		message = fmt.Sprintf("%s (expected %d-%d)", message, h.ExpectedStatusMin, h.ExpectedStatusMax)
	}

	return Result{
		Healthy:  healthy,
		Message:  message,
		Duration: time.Since(start),
	}
}

// Type returns the health check protocol
func (h *HTTPChecker) Type() hdsv1.Protocol {
	return hdsv1.ProtocolHTTP
}

// WithStatusRange sets the expected status code range
func (h *HTTPChecker) WithStatusRange(minStatus, maxStatus int) *HTTPChecker {
	h.ExpectedStatusMin = minStatus
	h.ExpectedStatusMax = maxStatus
	return h
}
