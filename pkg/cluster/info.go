package cluster

import (
	"time"

	"github.com/proxyfleet/hdsagent/pkg/types"
)

// Info is the derived connection policy for one monitored cluster.
type Info struct {
	Name                          string
	ConnectTimeout                time.Duration
	PerConnectionBufferLimitBytes uint32
}

// InfoFactory builds cluster-info objects. The production implementation is
// trivial; wrapping it in an interface lets transport construction (TLS,
// sockets) be swapped in without touching the registry, and lets tests
// inject construction failures.
type InfoFactory interface {
	CreateClusterInfo(cfg types.ClusterConfig) (*Info, error)
}

// StaticInfoFactory derives cluster info directly from the normalized
// configuration.
type StaticInfoFactory struct{}

func (StaticInfoFactory) CreateClusterInfo(cfg types.ClusterConfig) (*Info, error) {
	return &Info{
		Name:                          cfg.Name,
		ConnectTimeout:                cfg.ConnectTimeout,
		PerConnectionBufferLimitBytes: cfg.PerConnectionBufferLimitBytes,
	}, nil
}
