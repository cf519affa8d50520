// Package agent assembles the HDS agent: gRPC connection, cluster registry,
// reconciler, session manager, snapshot store, and the metrics listener.
package agent

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/proxyfleet/hdsagent/api/hdsv1"
	"github.com/proxyfleet/hdsagent/internal/clock"
	"github.com/proxyfleet/hdsagent/pkg/agent/config"
	"github.com/proxyfleet/hdsagent/pkg/backoff"
	"github.com/proxyfleet/hdsagent/pkg/cluster"
	"github.com/proxyfleet/hdsagent/pkg/log"
	"github.com/proxyfleet/hdsagent/pkg/metrics"
	"github.com/proxyfleet/hdsagent/pkg/reconciler"
	"github.com/proxyfleet/hdsagent/pkg/session"
	"github.com/proxyfleet/hdsagent/pkg/store"
)

// Agent is one proxy-fleet member of the health discovery service.
type Agent struct {
	cfg       config.Config
	conn      *grpc.ClientConn
	registry  *cluster.Registry
	session   *session.Manager
	snapshots *store.SnapshotStore
	logger    zerolog.Logger
}

// New wires an agent from configuration. When a snapshot of the last
// applied specifier exists it is replayed through the reconciler, so health
// checking resumes before the server pushes fresh state.
func New(cfg config.Config) (*Agent, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.NodeID == "" {
		cfg.NodeID = uuid.NewString()
	}

	conn, err := grpc.NewClient(cfg.ServerAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to dial HDS server: %w", err)
	}

	clk := clock.NewRealClock()
	registry := cluster.NewRegistry()
	rec := reconciler.New(cluster.StaticInfoFactory{}, clk)
	logger := log.WithComponent("agent")

	a := &Agent{
		cfg:      cfg,
		conn:     conn,
		registry: registry,
		logger:   logger,
	}

	var snapshots session.SnapshotSaver
	if cfg.DataDir != "" {
		ss, err := store.Open(cfg.DataDir)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to open snapshot store: %w", err)
		}
		a.snapshots = ss
		snapshots = ss

		if spec, ok, err := ss.Load(); err != nil {
			logger.Warn().Err(err).Msg("failed to load specifier snapshot")
		} else if ok {
			if err := rec.Apply(spec, registry); err != nil {
				logger.Warn().Err(err).Msg("failed to replay specifier snapshot")
			} else {
				logger.Info().Int("clusters", registry.Len()).Msg("resumed health checking from snapshot")
			}
		}
	}

	a.session = session.New(session.Config{
		Node:       hdsv1.Node{ID: cfg.NodeID, Cluster: cfg.NodeCluster},
		Opener:     hdsv1.NewClient(conn),
		Reconciler: rec,
		Registry:   registry,
		Backoff:    backoff.NewJittered(cfg.RetryInitialDelay, cfg.RetryMaxDelay, nil),
		Clock:      clk,
		Snapshots:  snapshots,
	})

	return a, nil
}

// Run drives the session loop and the metrics listener until ctx is
// cancelled, then stops every cluster's executors and releases resources.
func (a *Agent) Run(ctx context.Context) error {
	a.logger.Info().
		Str("node_id", a.cfg.NodeID).
		Str("server", a.cfg.ServerAddr).
		Msg("starting HDS agent")

	g, ctx := errgroup.WithContext(ctx)

	if a.cfg.MetricsAddr != "" {
		srv := &http.Server{Addr: a.cfg.MetricsAddr, Handler: metrics.Handler()}
		g.Go(func() error {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server error: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		return a.session.Run(ctx)
	})

	err := g.Wait()
	a.shutdown()

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (a *Agent) shutdown() {
	for _, c := range a.registry.Clusters() {
		c.Stop()
	}
	if a.snapshots != nil {
		if err := a.snapshots.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("failed to close snapshot store")
		}
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Warn().Err(err).Msg("failed to close server connection")
	}
	a.logger.Info().Msg("HDS agent stopped")
}
