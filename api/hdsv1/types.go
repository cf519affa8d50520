package hdsv1

import (
	"net"
	"strconv"
	"time"
)

// Protocol identifies a health-check protocol this agent can execute.
type Protocol string

const (
	ProtocolHTTP Protocol = "HTTP"
	ProtocolTCP  Protocol = "TCP"
)

// HealthStatus is the per-endpoint status reported back to the server.
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "HEALTHY"
	HealthStatusUnhealthy HealthStatus = "UNHEALTHY"
	HealthStatusTimeout   HealthStatus = "TIMEOUT"
)

// Node identifies this agent to the server.
type Node struct {
	ID      string `json:"id"`
	Cluster string `json:"cluster,omitempty"`
}

// Capability lists the health-check protocols the agent supports.
type Capability struct {
	HealthCheckProtocols []Protocol `json:"health_check_protocols"`
}

// HealthCheckRequest is the capability handshake, sent once as the first
// message on every newly established stream.
type HealthCheckRequest struct {
	Node       Node       `json:"node"`
	Capability Capability `json:"capability"`
}

// Address is a socket address for a single endpoint.
type Address struct {
	Host string `json:"host"`
	Port uint32 `json:"port"`
}

// String returns the stable string form used for host-set comparison.
func (a Address) String() string {
	return net.JoinHostPort(a.Host, strconv.FormatUint(uint64(a.Port), 10))
}

// Endpoint wraps a single checkable address.
type Endpoint struct {
	Address Address `json:"address"`
}

// LocalityEndpoints groups endpoints by locality. Locality metadata is not
// currently acted on; endpoints from all groups are flattened.
type LocalityEndpoints struct {
	Region    string     `json:"region,omitempty"`
	Zone      string     `json:"zone,omitempty"`
	Endpoints []Endpoint `json:"endpoints"`
}

// HealthCheck configures one health-check protocol for a cluster.
type HealthCheck struct {
	Type     Protocol      `json:"type"`
	Timeout  time.Duration `json:"timeout,omitempty"`
	Interval time.Duration `json:"interval,omitempty"`

	// HTTP only.
	Path string `json:"path,omitempty"`
	Host string `json:"host,omitempty"`
}

// ClusterHealthCheck is one per-cluster entry of a specifier.
type ClusterHealthCheck struct {
	ClusterName       string              `json:"cluster_name"`
	LocalityEndpoints []LocalityEndpoints `json:"locality_endpoints"`
	HealthChecks      []HealthCheck       `json:"health_checks"`
}

// HealthCheckSpecifier is the server-pushed desired state: the full set of
// clusters to check plus the cadence at which the agent must report. Each
// message is a complete replacement, not a diff.
type HealthCheckSpecifier struct {
	ClusterHealthChecks []ClusterHealthCheck `json:"cluster_health_checks"`
	Interval            time.Duration        `json:"interval"`
}

// EndpointHealth is one endpoint's rendered status.
type EndpointHealth struct {
	Endpoint     Endpoint     `json:"endpoint"`
	HealthStatus HealthStatus `json:"health_status"`
}

// EndpointHealthResponse is the periodic report of all known endpoints.
type EndpointHealthResponse struct {
	EndpointsHealth []EndpointHealth `json:"endpoints_health"`
}

// RequestOrResponse is the client-to-server frame: exactly one of the two
// fields is set.
type RequestOrResponse struct {
	HealthCheckRequest     *HealthCheckRequest     `json:"health_check_request,omitempty"`
	EndpointHealthResponse *EndpointHealthResponse `json:"endpoint_health_response,omitempty"`
}
