package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/artpar/wildgate/bootstrap"
	"github.com/artpar/wildgate/config"
)

const (
	checkMark = "\033[32m✓\033[0m"
	crossMark = "\033[31m✗\033[0m"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration before deployment",
	Long: `Validate the wildgate configuration file.

Checks:
  - YAML syntax is valid
  - Values are in range
  - Every operation registers and its schema derives

Examples:
  wildgate validate
  wildgate validate --config /etc/wildgate/config.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Validating %s...\n\n", cfgFile)

	if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
		fmt.Fprintf(out, "  %s Config file exists\n", crossMark)
		return fmt.Errorf("config file not found: %s", cfgFile)
	}
	fmt.Fprintf(out, "  %s Config file exists\n", checkMark)

	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(out, "  %s Config valid\n", crossMark)
		return fmt.Errorf("config error: %w", err)
	}
	fmt.Fprintf(out, "  %s Config valid\n", checkMark)

	fmt.Fprintf(out, "  %s Environment: %s\n", checkMark, cfg.Environment)
	fmt.Fprintf(out, "  %s Listen: %s\n", checkMark, cfg.Server.Addr())
	fmt.Fprintf(out, "  %s Strict unknown fields: %t\n", checkMark, cfg.Validation.StrictUnknownFields)
	fmt.Fprintf(out, "  %s Outbound validation: %s (%t)\n", checkMark, cfg.Validation.Outbound, cfg.OutboundEnabled())

	svc, err := bootstrap.BuildService(cfg, bootstrap.NewEngine(cfg, version, nil), version)
	if err != nil {
		fmt.Fprintf(out, "  %s Operations registered\n", crossMark)
		return err
	}
	fmt.Fprintf(out, "  %s Operations registered: %d\n", checkMark, svc.Len())

	fmt.Fprintln(out, "\nConfiguration is valid.")
	return nil
}
