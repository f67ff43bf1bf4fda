package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/cloo-solutions/finder/internal/service"
	"github.com/spf13/cobra"
)

func SearchCmd() *cobra.Command {
	var req service.SearchRequest
	var wheres []string

	cmd := &cobra.Command{
		Use:   "search <keyword>",
		Short: "Run a keyword search",
		Long:  "Run a keyword search against the catalog entities and print the buckets",
		Example: `  finderd search runner --type products --where products.category.name=Shoes
  finderd search 42 --type orders --queries -o json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			if len(args) == 1 {
				req.Keyword = args[0]
			}

			parsed, err := parseWheres(wheres)
			if err != nil {
				return err
			}
			req.Wheres = parsed

			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			if catalogPath, _ := cmd.Flags().GetString("catalog"); catalogPath != "" {
				cfg.CatalogPath = catalogPath
			}
			registry, err := loadRegistry(cfg.CatalogPath, logger)
			if err != nil {
				return err
			}

			b, err := openBackend(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer b.Close()

			results, err := b.searchService(registry).Search(ctx, req)
			if err != nil {
				return fmt.Errorf("search failed: %w", err)
			}

			outputFormat, _ := cmd.Flags().GetString("output")
			return printResults(cmd.OutOrStdout(), results, outputFormat)
		},
	}

	cmd.Flags().StringSliceVarP(&req.Types, "type", "t", nil, "Entity names or bucket keys to search (default: all)")
	cmd.Flags().StringArrayVarP(&wheres, "where", "w", nil, "Constant filter path=value, e.g. products.category.name=Shoes")
	cmd.Flags().IntVar(&req.Page, "page", 0, "Page to fetch (1-based)")
	cmd.Flags().IntVar(&req.PerPage, "per-page", 0, "Records per page")
	cmd.Flags().BoolVar(&req.WithQueries, "queries", false, "Include the SQL of every bucket")
	cmd.Flags().BoolVar(&req.NoLog, "no-log", false, "Do not write a search log row")
	cmd.Flags().String("catalog", "", "Catalog file (overrides FINDER_CATALOG_PATH)")
	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")

	return cmd
}

func parseWheres(raw []string) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(raw))
	for _, w := range raw {
		path, value, ok := strings.Cut(w, "=")
		if !ok || strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("invalid --where %q: expected path=value", w)
		}
		out[strings.TrimSpace(path)] = value
	}
	return out, nil
}

func printResults(w io.Writer, results *service.Results, outputFormat string) error {
	if outputFormat == "json" {
		jsonBytes, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(jsonBytes))
		return nil
	}

	fmt.Fprintf(w, "Page %d, %d per page, %d matches\n", results.Page, results.PerPage, results.TotalItems())
	for _, key := range results.Keys() {
		bucket, _ := results.Bucket(key)
		fmt.Fprintf(w, "\n%s: %d items, %d pages\n", key, bucket.TotalItems, bucket.TotalPages)
		if bucket.Query != nil {
			fmt.Fprintf(w, "  query: %s\n", *bucket.Query)
		}
		for _, row := range bucket.Results {
			line, err := json.Marshal(row)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "  %s\n", line)
		}
	}
	return nil
}
