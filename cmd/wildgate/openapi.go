package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var openapiFormat string

var openapiCmd = &cobra.Command{
	Use:   "openapi",
	Short: "Print the OpenAPI document",
	Long: `Print the OpenAPI 3.0 document the server publishes at /openapi.json.

Examples:
  wildgate openapi > openapi.json
  wildgate openapi --format yaml`,
	RunE: runOpenAPI,
}

func init() {
	rootCmd.AddCommand(openapiCmd)

	openapiCmd.Flags().StringVarP(&openapiFormat, "format", "f", "json", "output format: json or yaml")
}

func runOpenAPI(cmd *cobra.Command, args []string) error {
	svc, err := offlineService()
	if err != nil {
		return err
	}

	var doc []byte
	switch openapiFormat {
	case "json":
		doc, err = svc.OpenAPI()
	case "yaml":
		doc, err = svc.OpenAPIYAML()
	default:
		return fmt.Errorf("unknown format %q: use json or yaml", openapiFormat)
	}
	if err != nil {
		return fmt.Errorf("render document: %w", err)
	}

	_, err = cmd.OutOrStdout().Write(doc)
	return err
}
