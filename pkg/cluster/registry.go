package cluster

// Registry is the insertion-ordered mapping from cluster name to monitored
// cluster. It is owned by the session manager and mutated only by the
// reconciler on the session loop, so it needs no locking.
type Registry struct {
	names    []string
	clusters map[string]*MonitoredCluster
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{clusters: make(map[string]*MonitoredCluster)}
}

// Get returns the cluster registered under name, or nil.
func (r *Registry) Get(name string) *MonitoredCluster {
	return r.clusters[name]
}

// Put registers a cluster under its name, replacing any existing entry
// while keeping its original insertion position.
func (r *Registry) Put(c *MonitoredCluster) {
	if _, ok := r.clusters[c.Name()]; !ok {
		r.names = append(r.names, c.Name())
	}
	r.clusters[c.Name()] = c
}

// Remove deletes the entry for name. The caller is responsible for stopping
// the cluster's executors.
func (r *Registry) Remove(name string) {
	if _, ok := r.clusters[name]; !ok {
		return
	}
	delete(r.clusters, name)
	for i, n := range r.names {
		if n == name {
			r.names = append(r.names[:i], r.names[i+1:]...)
			break
		}
	}
}

// Names returns the registered cluster names in insertion order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Clusters returns the registered clusters in insertion order.
func (r *Registry) Clusters() []*MonitoredCluster {
	out := make([]*MonitoredCluster, 0, len(r.names))
	for _, name := range r.names {
		out = append(out, r.clusters[name])
	}
	return out
}

// Len returns the number of registered clusters.
func (r *Registry) Len() int {
	return len(r.clusters)
}
