package reconciler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proxyfleet/hdsagent/api/hdsv1"
	"github.com/proxyfleet/hdsagent/internal/clock"
	"github.com/proxyfleet/hdsagent/pkg/cluster"
	"github.com/proxyfleet/hdsagent/pkg/types"
)

func newTestReconciler() *Reconciler {
	return New(cluster.StaticInfoFactory{}, clock.NewRealClock())
}

func clusterEntry(name string, addrs ...hdsv1.Address) hdsv1.ClusterHealthCheck {
	endpoints := make([]hdsv1.Endpoint, 0, len(addrs))
	for _, a := range addrs {
		endpoints = append(endpoints, hdsv1.Endpoint{Address: a})
	}
	return hdsv1.ClusterHealthCheck{
		ClusterName:       name,
		LocalityEndpoints: []hdsv1.LocalityEndpoints{{Endpoints: endpoints}},
	}
}

func specifier(entries ...hdsv1.ClusterHealthCheck) *hdsv1.HealthCheckSpecifier {
	return &hdsv1.HealthCheckSpecifier{
		ClusterHealthChecks: entries,
		Interval:            time.Second,
	}
}

func addr(host string, port uint32) hdsv1.Address {
	return hdsv1.Address{Host: host, Port: port}
}

func stopAll(t *testing.T, reg *cluster.Registry) {
	t.Helper()
	for _, c := range reg.Clusters() {
		c.Stop()
	}
}

func TestApply_CreatesCluster(t *testing.T) {
	rec := newTestReconciler()
	reg := cluster.NewRegistry()

	entry := clusterEntry("c1", addr("10.0.0.1", 80))
	entry.HealthChecks = []hdsv1.HealthCheck{
		{Type: hdsv1.ProtocolHTTP, Interval: time.Hour, Timeout: 10 * time.Millisecond},
	}

	require.NoError(t, rec.Apply(specifier(entry), reg))
	defer stopAll(t, reg)

	require.Equal(t, 1, reg.Len())
	c := reg.Get("c1")
	require.NotNil(t, c)

	require.Len(t, c.Hosts(), 1)
	assert.Equal(t, "10.0.0.1:80", c.Hosts()[0].Address())
	assert.False(t, c.Hosts()[0].Healthy(), "new host must start failed")

	require.Len(t, c.Executors(), 1)
	assert.Equal(t, hdsv1.ProtocolHTTP, c.Executors()[0].Type())

	cfg := c.Config()
	assert.Equal(t, types.ClusterConnectTimeout, cfg.ConnectTimeout)
	assert.Equal(t, uint32(types.ClusterConnectionBufferLimitBytes), cfg.PerConnectionBufferLimitBytes)
}

func TestApply_FlattensLocalityGroups(t *testing.T) {
	rec := newTestReconciler()
	reg := cluster.NewRegistry()

	entry := hdsv1.ClusterHealthCheck{
		ClusterName: "c1",
		LocalityEndpoints: []hdsv1.LocalityEndpoints{
			{Zone: "a", Endpoints: []hdsv1.Endpoint{{Address: addr("10.0.0.1", 80)}}},
			{Zone: "b", Endpoints: []hdsv1.Endpoint{{Address: addr("10.0.0.2", 80)}}},
		},
	}

	require.NoError(t, rec.Apply(specifier(entry), reg))
	defer stopAll(t, reg)

	c := reg.Get("c1")
	require.NotNil(t, c)
	require.Len(t, c.Hosts(), 2)
	assert.Equal(t, "10.0.0.1:80", c.Hosts()[0].Address())
	assert.Equal(t, "10.0.0.2:80", c.Hosts()[1].Address())
}

func TestApply_SameSpecifierIsNoOp(t *testing.T) {
	rec := newTestReconciler()
	reg := cluster.NewRegistry()

	spec := specifier(clusterEntry("c1", addr("10.0.0.1", 80)))

	require.NoError(t, rec.Apply(spec, reg))
	first := reg.Get("c1")

	require.NoError(t, rec.Apply(spec, reg))
	defer stopAll(t, reg)

	assert.Same(t, first, reg.Get("c1"), "identical specifier must not recreate the cluster")
	assert.Equal(t, 1, reg.Len())
}

func TestApply_HostSetChangeRecreates(t *testing.T) {
	rec := newTestReconciler()
	reg := cluster.NewRegistry()

	require.NoError(t, rec.Apply(specifier(clusterEntry("c1", addr("10.0.0.1", 80))), reg))
	first := reg.Get("c1")

	require.NoError(t, rec.Apply(specifier(clusterEntry("c1", addr("10.0.0.2", 80))), reg))
	defer stopAll(t, reg)

	second := reg.Get("c1")
	require.NotNil(t, second)
	assert.NotSame(t, first, second, "host-set change must recreate the cluster")
	assert.Equal(t, "10.0.0.2:80", second.Hosts()[0].Address())
}

func TestApply_HealthCheckChangeAloneIsNoOp(t *testing.T) {
	rec := newTestReconciler()
	reg := cluster.NewRegistry()

	entry := clusterEntry("c1", addr("10.0.0.1", 80))
	entry.HealthChecks = []hdsv1.HealthCheck{
		{Type: hdsv1.ProtocolTCP, Interval: time.Hour, Timeout: 10 * time.Millisecond},
	}
	require.NoError(t, rec.Apply(specifier(entry), reg))
	first := reg.Get("c1")

	changed := clusterEntry("c1", addr("10.0.0.1", 80))
	changed.HealthChecks = []hdsv1.HealthCheck{
		{Type: hdsv1.ProtocolHTTP, Interval: time.Hour, Timeout: 10 * time.Millisecond, Path: "/healthz"},
	}
	require.NoError(t, rec.Apply(specifier(changed), reg))
	defer stopAll(t, reg)

	assert.Same(t, first, reg.Get("c1"),
		"health-check config change with unchanged hosts must not recreate")
}

func TestApply_RemovesUnreferencedClusters(t *testing.T) {
	rec := newTestReconciler()
	reg := cluster.NewRegistry()

	require.NoError(t, rec.Apply(specifier(
		clusterEntry("a", addr("10.0.0.1", 80)),
		clusterEntry("b", addr("10.0.0.2", 80)),
	), reg))

	keptBefore := reg.Get("b")

	require.NoError(t, rec.Apply(specifier(clusterEntry("b", addr("10.0.0.2", 80))), reg))
	defer stopAll(t, reg)

	assert.Nil(t, reg.Get("a"))
	assert.Same(t, keptBefore, reg.Get("b"), "unrelated cluster must be untouched")
	assert.Equal(t, 1, reg.Len())
}

func TestApply_EmptySpecifierRemovesEverything(t *testing.T) {
	rec := newTestReconciler()
	reg := cluster.NewRegistry()

	require.NoError(t, rec.Apply(specifier(clusterEntry("a", addr("10.0.0.1", 80))), reg))
	require.NoError(t, rec.Apply(specifier(), reg))

	assert.Zero(t, reg.Len())
}

func TestApply_MalformedAddressAbortsWholeMessage(t *testing.T) {
	rec := newTestReconciler()
	reg := cluster.NewRegistry()

	require.NoError(t, rec.Apply(specifier(clusterEntry("a", addr("10.0.0.1", 80))), reg))
	before := reg.Get("a")

	// Second entry has an address with no port; the whole message must be
	// rejected, leaving the registry exactly as it was.
	err := rec.Apply(specifier(
		clusterEntry("b", addr("10.0.0.2", 80)),
		clusterEntry("c", addr("10.0.0.3", 0)),
	), reg)
	defer stopAll(t, reg)

	assert.Error(t, err)
	assert.Equal(t, 1, reg.Len())
	assert.Same(t, before, reg.Get("a"))
	assert.Nil(t, reg.Get("b"), "no partial application")
}

func TestApply_MissingClusterNameAborts(t *testing.T) {
	rec := newTestReconciler()
	reg := cluster.NewRegistry()

	err := rec.Apply(specifier(clusterEntry("", addr("10.0.0.1", 80))), reg)

	assert.Error(t, err)
	assert.Zero(t, reg.Len())
}

func TestApply_UnsupportedHealthCheckNotRegistered(t *testing.T) {
	rec := newTestReconciler()
	reg := cluster.NewRegistry()

	entry := clusterEntry("c1", addr("10.0.0.1", 80))
	entry.HealthChecks = []hdsv1.HealthCheck{{Type: "GRPC"}}

	err := rec.Apply(specifier(entry), reg)

	assert.Error(t, err)
	assert.Nil(t, reg.Get("c1"), "failed cluster must not be registered")
}
