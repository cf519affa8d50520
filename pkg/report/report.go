// Package report renders the registry's current endpoint health into the
// outbound report message.
package report

import (
	"net"
	"strconv"

	"github.com/proxyfleet/hdsagent/api/hdsv1"
	"github.com/proxyfleet/hdsagent/pkg/cluster"
)

// Build walks every monitored cluster and emits one health record per known
// host, in registry insertion order. A host is HEALTHY iff its aggregate
// active-health-check state is healthy; otherwise TIMEOUT if the most
// recent failure was a timeout, else UNHEALTHY. Read-only traversal.
func Build(reg *cluster.Registry) *hdsv1.EndpointHealthResponse {
	resp := &hdsv1.EndpointHealthResponse{}

	for _, c := range reg.Clusters() {
		for _, host := range c.Hosts() {
			resp.EndpointsHealth = append(resp.EndpointsHealth, hdsv1.EndpointHealth{
				Endpoint:     hdsv1.Endpoint{Address: splitAddress(host.Address())},
				HealthStatus: statusOf(host),
			})
		}
	}

	return resp
}

func statusOf(host *cluster.Host) hdsv1.HealthStatus {
	if host.Healthy() {
		return hdsv1.HealthStatusHealthy
	}
	if host.LastFailureTimeout() {
		return hdsv1.HealthStatusTimeout
	}
	return hdsv1.HealthStatusUnhealthy
}

// splitAddress converts the stable "host:port" form back to a wire address.
// Hosts enter the registry through address normalization, so the form is
// always splittable.
func splitAddress(addr string) hdsv1.Address {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return hdsv1.Address{Host: addr}
	}
	port, _ := strconv.ParseUint(portStr, 10, 32)
	return hdsv1.Address{Host: host, Port: uint32(port)}
}
