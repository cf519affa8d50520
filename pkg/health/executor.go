package health

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/proxyfleet/hdsagent/api/hdsv1"
	"github.com/proxyfleet/hdsagent/internal/clock"
	"github.com/proxyfleet/hdsagent/pkg/log"
	"github.com/proxyfleet/hdsagent/pkg/metrics"
)

// Executor runs one health-check protocol against one cluster's host set.
// It probes every target on a fixed interval and publishes per-host health
// flags through Target.SetHealth. An executor is owned by exactly one
// monitored cluster and never shared.
type Executor struct {
	checker  Checker
	targets  []Target
	interval time.Duration
	timeout  time.Duration

	clk    clock.Clock
	cancel context.CancelFunc
	done   chan struct{}
	logger zerolog.Logger
}

// NewExecutor builds an executor for one health-check configuration bound
// to the given targets. Unsupported protocols are a configuration error.
func NewExecutor(cfg hdsv1.HealthCheck, targets []Target, clk clock.Clock) (*Executor, error) {
	checker, err := NewChecker(cfg)
	if err != nil {
		return nil, err
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Executor{
		checker:  checker,
		targets:  targets,
		interval: interval,
		timeout:  timeout,
		clk:      clk,
		logger:   log.WithComponent("health-executor"),
	}, nil
}

// Type returns the protocol this executor probes with.
func (e *Executor) Type() hdsv1.Protocol {
	return e.checker.Type()
}

// Start launches the probe loop. The first round of probes runs immediately.
func (e *Executor) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.done = make(chan struct{})

	go e.run(ctx)
}

// Stop cancels in-flight probes and waits for the loop to exit. Host flags
// are left at their last published value.
func (e *Executor) Stop() {
	if e.cancel == nil {
		return
	}
	e.cancel()
	<-e.done
}

func (e *Executor) run(ctx context.Context) {
	defer close(e.done)

	ticker := e.clk.NewTicker(e.interval)
	defer ticker.Stop()

	e.probeAll(ctx)

	for {
		select {
		case <-ticker.Chan():
			e.probeAll(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (e *Executor) probeAll(ctx context.Context) {
	for _, target := range e.targets {
		if ctx.Err() != nil {
			return
		}

		start := e.clk.Now()
		checkCtx, cancel := context.WithTimeout(ctx, e.timeout)
		result := e.checker.Check(checkCtx, target.Address())
		cancel()

		if ctx.Err() != nil {
			// Cancelled mid-probe; don't publish an aborted result.
			return
		}

		target.SetHealth(result.Healthy, result.Timeout)
		metrics.HealthChecksTotal.WithLabelValues(string(e.checker.Type()), outcome(result)).Inc()

		if !result.Healthy {
			e.logger.Debug().
				Str("protocol", string(e.checker.Type())).
				Str("host", target.Address()).
				Bool("timeout", result.Timeout).
				Dur("duration", e.clk.Since(start)).
				Msg(result.Message)
		}
	}
}

func outcome(r Result) string {
	switch {
	case r.Healthy:
		return "healthy"
	case r.Timeout:
		return "timeout"
	default:
		return "unhealthy"
	}
}
