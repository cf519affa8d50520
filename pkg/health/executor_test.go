package health

import (
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proxyfleet/hdsagent/api/hdsv1"
	"github.com/proxyfleet/hdsagent/internal/clock"
)

type fakeTarget struct {
	addr string

	mu      sync.Mutex
	healthy bool
	timeout bool
	updates int
}

func (f *fakeTarget) Address() string {
	return f.addr
}

func (f *fakeTarget) SetHealth(healthy, timeout bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.healthy = healthy
	f.timeout = timeout
	f.updates++
}

func (f *fakeTarget) snapshot() (bool, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.healthy, f.updates
}

func TestNewExecutor_UnsupportedProtocol(t *testing.T) {
	_, err := NewExecutor(hdsv1.HealthCheck{Type: "GRPC"}, nil, clock.NewRealClock())
	assert.Error(t, err)
}

func TestExecutor_PublishesHostHealth(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	target := &fakeTarget{addr: listener.Addr().String()}

	exec, err := NewExecutor(hdsv1.HealthCheck{
		Type:     hdsv1.ProtocolTCP,
		Interval: time.Hour, // only the immediate first probe matters here
		Timeout:  time.Second,
	}, []Target{target}, clock.NewRealClock())
	require.NoError(t, err)
	assert.Equal(t, hdsv1.ProtocolTCP, exec.Type())

	exec.Start()
	defer exec.Stop()

	assert.Eventually(t, func() bool {
		healthy, updates := target.snapshot()
		return healthy && updates == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestExecutor_ProbesOnInterval(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	target := &fakeTarget{addr: listener.Addr().String()}

	exec, err := NewExecutor(hdsv1.HealthCheck{
		Type:     hdsv1.ProtocolTCP,
		Interval: 10 * time.Millisecond,
		Timeout:  time.Second,
	}, []Target{target}, clock.NewRealClock())
	require.NoError(t, err)

	exec.Start()
	defer exec.Stop()

	assert.Eventually(t, func() bool {
		_, updates := target.snapshot()
		return updates >= 3
	}, 2*time.Second, 5*time.Millisecond)
}

func TestExecutor_StopHaltsProbing(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	target := &fakeTarget{addr: listener.Addr().String()}

	exec, err := NewExecutor(hdsv1.HealthCheck{
		Type:     hdsv1.ProtocolTCP,
		Interval: 5 * time.Millisecond,
		Timeout:  time.Second,
	}, []Target{target}, clock.NewRealClock())
	require.NoError(t, err)

	exec.Start()
	exec.Stop()

	_, before := target.snapshot()
	time.Sleep(50 * time.Millisecond)
	_, after := target.snapshot()

	assert.Equal(t, before, after, "executor kept probing after Stop")
}
