// Package types holds the normalized domain model shared across the agent.
package types

import (
	"time"

	"github.com/proxyfleet/hdsagent/api/hdsv1"
)

const (
	// ClusterConnectTimeout is the fixed connect timeout applied to every
	// monitored cluster, regardless of what the server sends.
	ClusterConnectTimeout = 5 * time.Second

	// ClusterConnectionBufferLimitBytes is the fixed per-connection buffer
	// limit applied to every monitored cluster.
	ClusterConnectionBufferLimitBytes = 32768
)

// ClusterConfig is the normalized target configuration for one monitored
// cluster, derived from a single specifier entry. Hosts are the flattened
// endpoint addresses from all locality groups, in string form.
type ClusterConfig struct {
	Name                          string
	ConnectTimeout                time.Duration
	PerConnectionBufferLimitBytes uint32
	Hosts                         []string
	HealthChecks                  []hdsv1.HealthCheck
}
