package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/proxyfleet/hdsagent/pkg/agent"
	"github.com/proxyfleet/hdsagent/pkg/agent/config"
	"github.com/proxyfleet/hdsagent/pkg/log"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the HDS agent",
	Long: `Run the HDS agent until interrupted.

Examples:
  # Connect to an HDS server with defaults
  hdsagent run --server hds.internal:9876

  # Load settings from a config file, overriding the node id
  hdsagent run --config /etc/hdsagent/agent.yaml --node-id edge-proxy-7`,
	RunE: runAgent,
}

func init() {
	runCmd.Flags().String("config", "", "YAML config file")
	runCmd.Flags().String("server", "", "HDS server gRPC address")
	runCmd.Flags().String("node-id", "", "Node identity sent in the capability handshake")
	runCmd.Flags().String("data-dir", "", "Directory for the specifier snapshot database")
	runCmd.Flags().String("metrics-addr", "", "Prometheus listen address")
	runCmd.Flags().String("log-level", "", "Log level (debug, info, warn, error)")
}

func runAgent(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	// Flags override file values
	if v, _ := cmd.Flags().GetString("server"); v != "" {
		cfg.ServerAddr = v
	}
	if v, _ := cmd.Flags().GetString("node-id"); v != "" {
		cfg.NodeID = v
	}
	if v, _ := cmd.Flags().GetString("data-dir"); v != "" {
		cfg.DataDir = v
	}
	if v, _ := cmd.Flags().GetString("metrics-addr"); v != "" {
		cfg.MetricsAddr = v
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.LogLevel = v
	}

	log.Init(log.Config{
		Level:      log.Level(cfg.LogLevel),
		JSONOutput: cfg.LogJSON,
	})

	a, err := agent.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create agent: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return a.Run(ctx)
}
