package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/artpar/wildgate/bootstrap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	Long: `Start the wildgate API server.

The server will:
  - Load configuration from wildgate.yaml (or --config)
  - Apply WILDGATE_* environment overrides
  - Register and freeze every operation before listening
  - Reload the log level on SIGHUP or when the file changes

Environment variables:
  WILDGATE_SERVER_PORT               - Server port (default: 8080)
  WILDGATE_ENVIRONMENT               - production, staging, development or test
  WILDGATE_VALIDATION_OUTBOUND       - auto, always or never
  WILDGATE_LOG_LEVEL                 - Log level: debug, info, warn, error

Examples:
  wildgate serve
  wildgate serve --config /etc/wildgate/config.yaml
  WILDGATE_SERVER_PORT=9000 wildgate serve`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	path := cfgFile
	if _, err := os.Stat(path); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "No config file at %s, using environment variables\n", path)
		path = ""
	}

	app, err := bootstrap.New(bootstrap.Options{
		ConfigPath: path,
		Version:    version,
		Commit:     commit,
	})
	if err != nil {
		return fmt.Errorf("error initializing: %w", err)
	}

	// Run (blocks until shutdown)
	return app.Run(cmd.Context())
}
