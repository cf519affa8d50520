package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "hdsagent",
	Short: "hdsagent - health discovery service agent",
	Long: `hdsagent is the proxy-fleet member of a centralized Health Discovery
Service. It receives health-check specifications from the central server
over a persistent gRPC stream, executes HTTP and TCP health checks against
the specified upstream endpoints, and reports aggregated endpoint health
back on the server-dictated cadence.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"hdsagent version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.AddCommand(runCmd)
}
