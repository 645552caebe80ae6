package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dominikbraun/graph"
	"github.com/spf13/cobra"

	"github.com/conneroisu/templink/internal/config"
	"github.com/conneroisu/templink/internal/deps"
	"github.com/conneroisu/templink/internal/logging"
	"github.com/conneroisu/templink/internal/parser"
)

var graphFormat string

var graphCmd = &cobra.Command{
	Use:   "graph [paths...]",
	Short: "Print the document-to-import dependency graph",
	Long: `Resolve the import list of every templ document under the scan paths and
print which import files each document depends on.

Examples:
  templink graph                  # Text adjacency listing
  templink graph --format json    # Machine-readable output`,
	RunE: runGraph,
}

func init() {
	rootCmd.AddCommand(graphCmd)

	graphCmd.Flags().StringVarP(&graphFormat, "format", "f", "text", "Output format (text, json)")
}

func runGraph(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if len(args) > 0 {
		cfg.Components.ScanPaths = args
	}

	logger := logging.NewLogger(&logging.LoggerConfig{
		Level:  logging.ParseLevel(cfg.Logging.Level),
		Format: cfg.Logging.Format,
		Output: os.Stderr,
	})

	paths, err := scanTemplFiles(cfg.Components.ScanPaths, cfg.Components.ExcludePatterns, logger)
	if err != nil {
		return err
	}

	index := deps.NewIndex()
	for _, path := range paths {
		p := parser.NewTemplParser(path, logger,
			parser.WithExcludePatterns(cfg.Components.ExcludePatterns, logger))
		for _, item := range p.ImportItems() {
			if item.PhysicalPath != "" {
				index.AddEdge(item.PhysicalPath, path)
			}
		}
	}

	adjacency := index.AdjacencyList()

	if graphFormat == "json" {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(adjacency)
	}

	if len(adjacency) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no import dependencies found")
		return nil
	}

	// The snapshot is a DAG (documents point at imports, never back), so a
	// stable topological order lists documents before the imports they use.
	g, err := index.Snapshot()
	if err != nil {
		return err
	}
	order, err := graph.StableTopologicalSort(g, func(a, b string) bool { return a < b })
	if err != nil {
		return err
	}

	for _, vertex := range order {
		imports, ok := adjacency[vertex]
		if !ok {
			continue
		}
		fmt.Fprintln(cmd.OutOrStdout(), vertex)
		for _, imp := range imports {
			fmt.Fprintf(cmd.OutOrStdout(), "  -> %s\n", imp)
		}
	}

	return nil
}
