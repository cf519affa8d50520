// Package session owns the HDS stream lifecycle: establishing the stream,
// sending the capability handshake, applying inbound specifiers, emitting
// periodic health reports, and retrying with backoff after failures.
package session

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/proxyfleet/hdsagent/api/hdsv1"
	"github.com/proxyfleet/hdsagent/internal/clock"
	"github.com/proxyfleet/hdsagent/pkg/backoff"
	"github.com/proxyfleet/hdsagent/pkg/cluster"
	"github.com/proxyfleet/hdsagent/pkg/log"
	"github.com/proxyfleet/hdsagent/pkg/metrics"
	"github.com/proxyfleet/hdsagent/pkg/reconciler"
	"github.com/proxyfleet/hdsagent/pkg/report"
)

const (
	// RetryInitialDelay is the default lower bound of the retry backoff.
	RetryInitialDelay = 1 * time.Second

	// RetryMaxDelay is the default upper bound of the retry backoff.
	RetryMaxDelay = 30 * time.Second
)

// StreamOpener opens new stream incarnations. *hdsv1.Client implements it;
// tests substitute fakes.
type StreamOpener interface {
	StreamHealthCheck(ctx context.Context) (hdsv1.Stream, error)
}

// SnapshotSaver persists each successfully applied specifier.
type SnapshotSaver interface {
	Save(*hdsv1.HealthCheckSpecifier) error
}

// Config wires a session manager's collaborators.
type Config struct {
	Node       hdsv1.Node
	Opener     StreamOpener
	Reconciler *reconciler.Reconciler
	Registry   *cluster.Registry
	Backoff    backoff.Strategy // defaults to jittered exponential
	Clock      clock.Clock      // defaults to the real clock
	Snapshots  SnapshotSaver    // optional
}

// Manager drives the streaming session. All of its state is owned by the
// single goroutine running Run; no other component reads or mutates it.
type Manager struct {
	opener    StreamOpener
	rec       *reconciler.Reconciler
	registry  *cluster.Registry
	backoff   backoff.Strategy
	clk       clock.Clock
	snapshots SnapshotSaver

	handshake *hdsv1.HealthCheckRequest

	stream        hdsv1.Stream
	interval      time.Duration
	retryTimer    *clock.EventTimer
	responseTimer *clock.EventTimer
	recvCh        chan recvEvent
	recvStop      chan struct{}

	logger zerolog.Logger
}

type recvEvent struct {
	spec *hdsv1.HealthCheckSpecifier
	err  error
}

// New creates a session manager. The capability handshake is built once
// here; this agent supports the HTTP and TCP health-check protocols.
func New(cfg Config) *Manager {
	clk := cfg.Clock
	if clk == nil {
		clk = clock.NewRealClock()
	}
	strategy := cfg.Backoff
	if strategy == nil {
		strategy = backoff.NewJittered(RetryInitialDelay, RetryMaxDelay, nil)
	}

	return &Manager{
		opener:    cfg.Opener,
		rec:       cfg.Reconciler,
		registry:  cfg.Registry,
		backoff:   strategy,
		clk:       clk,
		snapshots: cfg.Snapshots,
		handshake: &hdsv1.HealthCheckRequest{
			Node: cfg.Node,
			Capability: hdsv1.Capability{
				HealthCheckProtocols: []hdsv1.Protocol{hdsv1.ProtocolHTTP, hdsv1.ProtocolTCP},
			},
		},
		retryTimer:    clock.NewEventTimer(clk),
		responseTimer: clock.NewEventTimer(clk),
		logger:        log.WithComponent("session"),
	}
}

// Run establishes the stream and processes events until ctx is cancelled.
// Stream I/O callbacks and both timers are all serviced by this one loop,
// so no two handlers ever execute concurrently.
func (m *Manager) Run(ctx context.Context) error {
	defer func() {
		m.retryTimer.Disable()
		m.responseTimer.Disable()
		m.dropStream()
	}()

	m.establish(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-m.recvCh:
			if ev.err != nil {
				m.onStreamClosed(ev.err)
			} else {
				m.onMessage(ev.spec)
			}
		case <-m.retryTimer.Chan():
			m.establish(ctx)
		case <-m.responseTimer.Chan():
			m.onResponseTimer()
		}
	}
}

// establish opens a new stream incarnation and sends the capability
// handshake. Idempotent entry point for startup and every retry. The
// backoff accumulator resets only after the handshake send is verified.
func (m *Manager) establish(ctx context.Context) {
	m.logger.Debug().Msg("establishing new stream")

	stream, err := m.opener.StreamHealthCheck(ctx)
	if err != nil {
		m.logger.Warn().Err(err).Msg("unable to establish new stream")
		m.handleFailure()
		return
	}

	if err := stream.SendRequest(m.handshake); err != nil {
		m.logger.Warn().Err(err).Msg("failed to send capability handshake")
		m.handleFailure()
		return
	}
	metrics.ReportsSent.Inc()
	m.backoff.Reset()

	m.stream = stream
	m.recvCh = make(chan recvEvent)
	m.recvStop = make(chan struct{})
	go receive(stream, m.recvCh, m.recvStop)
}

// receive pumps inbound specifiers onto the session loop. It exits on the
// first stream error or when the incarnation is dropped, so messages from
// different incarnations never interleave.
func receive(stream hdsv1.Stream, ch chan<- recvEvent, stop <-chan struct{}) {
	for {
		spec, err := stream.Recv()
		select {
		case ch <- recvEvent{spec: spec, err: err}:
		case <-stop:
			return
		}
		if err != nil {
			return
		}
	}
}

// handleFailure schedules a retry after a backoff-computed delay.
func (m *Manager) handleFailure() {
	metrics.StreamErrors.Inc()
	delay := m.backoff.Next()
	m.logger.Warn().Dur("retry_in", delay).Msg("stream/connection failure, will retry")
	m.retryTimer.Arm(delay)
}

// onStreamClosed reverts the session to the disconnected state: response
// timer off, stream handle cleared, report interval back to undefined.
func (m *Manager) onStreamClosed(err error) {
	m.logger.Warn().Err(err).Msg("stream closed")
	m.responseTimer.Disable()
	m.dropStream()
	m.interval = 0
	m.handleFailure()
}

func (m *Manager) dropStream() {
	if m.recvStop != nil {
		close(m.recvStop)
		m.recvStop = nil
	}
	if m.stream != nil {
		if err := m.stream.CloseSend(); err != nil {
			m.logger.Debug().Err(err).Msg("failed to close stream send side")
		}
	}
	m.recvCh = nil
	m.stream = nil
}

// onMessage applies one inbound specifier. A missing interval or a
// malformed entry rejects the whole message; the registry and the response
// cadence stay untouched. Changing cluster content alone does not reset the
// cadence, only a changed interval does.
func (m *Manager) onMessage(spec *hdsv1.HealthCheckSpecifier) {
	metrics.SpecifiersReceived.Inc()
	m.logger.Debug().
		Int("clusters", len(spec.ClusterHealthChecks)).
		Dur("interval", spec.Interval).
		Msg("received health check specifier")

	if spec.Interval <= 0 {
		metrics.MessageErrors.Inc()
		m.logger.Error().Msg("specifier missing required interval, rejecting message")
		return
	}

	if err := m.rec.Apply(spec, m.registry); err != nil {
		metrics.MessageErrors.Inc()
		m.logger.Error().Err(err).Msg("failed to apply specifier")
		return
	}

	if m.snapshots != nil {
		if err := m.snapshots.Save(spec); err != nil {
			m.logger.Warn().Err(err).Msg("failed to persist specifier snapshot")
		}
	}

	if spec.Interval != m.interval {
		m.interval = spec.Interval
		m.responseTimer.Arm(m.interval)
	}
}

// onResponseTimer renders and sends one health report, then re-arms itself.
// Fixed rate: the next firing is scheduled before rendering and sending.
func (m *Manager) onResponseTimer() {
	if m.stream == nil {
		return
	}
	m.responseTimer.Arm(m.interval)

	resp := report.Build(m.registry)
	if err := m.stream.SendResponse(resp); err != nil {
		m.logger.Warn().Err(err).Msg("failed to send health report")
		m.onStreamClosed(err)
		return
	}
	metrics.ReportsSent.Inc()

	m.logger.Debug().Int("endpoints", len(resp.EndpointsHealth)).Msg("sent health report")
}
