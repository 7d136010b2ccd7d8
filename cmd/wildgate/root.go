package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/artpar/wildgate/bootstrap"
	"github.com/artpar/wildgate/config"
	"github.com/artpar/wildgate/core/api"
)

var (
	// Global flags
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "wildgate",
	Short: "Self-describing HTTP API for a backgammon engine",
	Long: `wildgate serves a backgammon evaluation engine over HTTP.

Every operation is registered once with its request and response types.
The same description drives routing, decoding, validation and the
OpenAPI document served at /openapi.json.

Quick start:
  wildgate serve            # Start the server
  wildgate routes           # List operations
  wildgate openapi          # Print the OpenAPI document
  wildgate validate         # Validate configuration`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "wildgate.yaml", "config file path (falls back to WILDGATE_* variables)")
}

// offlineService builds the operation set without starting a server.
func offlineService() (*api.Service, error) {
	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}
	return bootstrap.BuildService(cfg, bootstrap.NewEngine(cfg, version, nil), version)
}
