// Package reconciler turns each incoming health-check specifier into the
// minimal set of create, recreate, and remove operations against the
// monitored-cluster registry.
package reconciler

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/proxyfleet/hdsagent/api/hdsv1"
	"github.com/proxyfleet/hdsagent/internal/clock"
	"github.com/proxyfleet/hdsagent/pkg/cluster"
	"github.com/proxyfleet/hdsagent/pkg/log"
	"github.com/proxyfleet/hdsagent/pkg/metrics"
	"github.com/proxyfleet/hdsagent/pkg/types"
)

// Reconciler applies specifier messages to a cluster registry. It is driven
// synchronously from the session manager's message callback and is the only
// code that mutates the registry.
type Reconciler struct {
	factory cluster.InfoFactory
	clk     clock.Clock
	logger  zerolog.Logger
}

// New creates a reconciler using the given cluster-info factory.
func New(factory cluster.InfoFactory, clk clock.Clock) *Reconciler {
	return &Reconciler{
		factory: factory,
		clk:     clk,
		logger:  log.WithComponent("reconciler"),
	}
}

// Apply reconciles the registry with a full-replacement specifier.
//
// Every entry is normalized before any mutation, so a malformed entry
// (unparsable address, empty cluster name) rejects the whole message and
// leaves the registry exactly as it was. Cluster-info or executor
// construction failures, by contrast, surface after some entries may have
// been applied; the failing cluster itself is never registered.
func (r *Reconciler) Apply(spec *hdsv1.HealthCheckSpecifier, reg *cluster.Registry) error {
	configs := make([]types.ClusterConfig, 0, len(spec.ClusterHealthChecks))
	for _, entry := range spec.ClusterHealthChecks {
		cfg, err := normalize(entry)
		if err != nil {
			return err
		}
		configs = append(configs, cfg)
	}

	toRemove := make(map[string]struct{}, reg.Len())
	for _, name := range reg.Names() {
		toRemove[name] = struct{}{}
	}

	for _, cfg := range configs {
		delete(toRemove, cfg.Name)

		if existing := reg.Get(cfg.Name); existing != nil {
			if !existing.NeedsRecreation(cfg) {
				r.logger.Debug().Str("cluster", cfg.Name).Msg("not modifying cluster")
				continue
			}
			r.logger.Debug().Str("cluster", cfg.Name).Msg("recreating cluster")
			existing.Stop()
			reg.Remove(cfg.Name)
			metrics.ClustersRemoved.Inc()
		}

		if err := r.create(cfg, reg); err != nil {
			metrics.ClustersMonitored.Set(float64(reg.Len()))
			return err
		}
	}

	for _, name := range reg.Names() {
		if _, marked := toRemove[name]; !marked {
			continue
		}
		r.logger.Debug().Str("cluster", name).Msg("removing cluster")
		reg.Get(name).Stop()
		reg.Remove(name)
		metrics.ClustersRemoved.Inc()
	}

	metrics.ClustersMonitored.Set(float64(reg.Len()))
	return nil
}

func (r *Reconciler) create(cfg types.ClusterConfig, reg *cluster.Registry) error {
	c, err := cluster.New(cfg, r.factory, r.clk)
	if err != nil {
		return err
	}
	if err := c.StartHealthChecks(); err != nil {
		return err
	}
	reg.Put(c)
	metrics.ClustersCreated.Inc()

	r.logger.Debug().
		Str("cluster", cfg.Name).
		Int("hosts", len(cfg.Hosts)).
		Int("health_checks", len(cfg.HealthChecks)).
		Msg("created cluster")

	return nil
}

// normalize builds the target configuration for one specifier entry: fixed
// connection policy constants, the flattened address list from all locality
// groups, and the health checks verbatim.
func normalize(entry hdsv1.ClusterHealthCheck) (types.ClusterConfig, error) {
	if entry.ClusterName == "" {
		return types.ClusterConfig{}, fmt.Errorf("specifier entry missing cluster name")
	}

	var hosts []string
	for _, le := range entry.LocalityEndpoints {
		for _, ep := range le.Endpoints {
			addr := ep.Address
			if addr.Host == "" || addr.Port == 0 || addr.Port > 65535 {
				return types.ClusterConfig{}, fmt.Errorf(
					"cluster %q: unparsable address %q port %d", entry.ClusterName, addr.Host, addr.Port)
			}
			hosts = append(hosts, addr.String())
		}
	}

	return types.ClusterConfig{
		Name:                          entry.ClusterName,
		ConnectTimeout:                types.ClusterConnectTimeout,
		PerConnectionBufferLimitBytes: types.ClusterConnectionBufferLimitBytes,
		Hosts:                         hosts,
		HealthChecks:                  entry.HealthChecks,
	}, nil
}
