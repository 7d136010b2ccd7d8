package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/artpar/wildgate/core/formatter"
	"github.com/artpar/wildgate/core/registry"
	"github.com/artpar/wildgate/core/route"
)

var routesOutput string

var routesCmd = &cobra.Command{
	Use:   "routes [operation-id]",
	Short: "List registered operations",
	Long: `List every operation in the route table, or describe one by id.

Examples:
  wildgate routes
  wildgate routes --output json
  wildgate routes getPosition`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRoutes,
}

var routeSet = formatter.Set{
	Kind:    "route",
	Columns: []string{"method", "path", "operation", "status", "params", "body", "summary"},
}

func init() {
	rootCmd.AddCommand(routesCmd)

	routesCmd.Flags().StringVarP(&routesOutput, "output", "o", "table", "output format: "+strings.Join(formatter.List(), ", "))
}

func runRoutes(cmd *cobra.Command, args []string) error {
	f, ok := formatter.Get(routesOutput)
	if !ok {
		return fmt.Errorf("unknown output %q: use %s", routesOutput, strings.Join(formatter.List(), ", "))
	}

	svc, err := offlineService()
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return f.FormatList(cmd.OutOrStdout(), routeSet, routeRecords(svc.Routes()), formatter.FormatOptions{})
	}

	op, err := svc.Registry().Resolve(args[0])
	if err != nil {
		if ferr := f.FormatError(cmd.ErrOrStderr(), err); ferr != nil {
			return ferr
		}
		return err
	}
	return f.FormatRecord(cmd.OutOrStdout(), formatter.Set{Kind: routeSet.Kind}, routeDetail(op), formatter.FormatOptions{})
}

// routeDetail describes one operation for the single-record view.
func routeDetail(op registry.OperationDescriptor) map[string]any {
	params := make([]string, 0, len(op.Params))
	for _, p := range op.Params {
		key := p.Key()
		if p.Required {
			key += " (required)"
		}
		params = append(params, key)
	}
	statuses := make([]string, 0, len(op.Responses))
	for _, status := range op.Statuses() {
		statuses = append(statuses, strconv.Itoa(status))
	}
	body := ""
	if op.Body != nil {
		body = op.Body.Describe()
	}
	return map[string]any{
		"method":      op.Method,
		"path":        op.Path,
		"operation":   op.ID,
		"summary":     op.Summary,
		"description": op.Description,
		"tags":        op.Tags,
		"params":      params,
		"body":        body,
		"responses":   statuses,
		"strict":      op.Strict,
		"deprecated":  op.Deprecated,
	}
}

func routeRecords(entries []route.Entry) []map[string]any {
	records := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		op := e.Operation
		params := make([]string, 0, len(op.Params))
		for _, p := range op.Params {
			params = append(params, p.Key())
		}
		records = append(records, map[string]any{
			"method":     op.Method,
			"path":       op.Path,
			"operation":  op.ID,
			"status":     op.SuccessStatus(),
			"params":     params,
			"body":       op.Body != nil,
			"summary":    op.Summary,
			"tags":       op.Tags,
			"deprecated": op.Deprecated,
		})
	}
	return records
}
