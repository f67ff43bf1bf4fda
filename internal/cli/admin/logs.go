package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/cloo-solutions/finder/internal/config"
	"github.com/cloo-solutions/finder/internal/service"
	"github.com/cloo-solutions/finder/internal/storage"
	"github.com/spf13/cobra"
)

func LogsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Inspect the search log",
		Long:  "List, export and prune the audit rows written by searches",
	}

	cmd.AddCommand(logsListCmd())
	cmd.AddCommand(logsExportCmd())
	cmd.AddCommand(logsPruneCmd())

	return cmd
}

// withSearchLogs opens the backend and hands fn the admin side of the audit log.
func withSearchLogs(fn func(ctx context.Context, cfg *config.Config, svc *service.SearchLogService) error) error {
	ctx := context.Background()

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if !cfg.EnableSearchLogs {
		return fmt.Errorf("search logs are disabled; set %s_ENABLE_SEARCH_LOGS=true", config.EnvPrefix)
	}

	b, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer b.Close()

	return fn(ctx, cfg, service.NewSearchLogService(b.logs, logger))
}

func logsListCmd() *cobra.Command {
	var q service.SearchLogQuery

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List search logs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputFormat, _ := cmd.Flags().GetString("output")
			return withSearchLogs(func(ctx context.Context, cfg *config.Config, svc *service.SearchLogService) error {
				page, err := svc.List(ctx, q)
				if err != nil {
					return fmt.Errorf("failed to list search logs: %w", err)
				}
				return printSearchLogs(cmd.OutOrStdout(), page, outputFormat)
			})
		},
	}

	cmd.Flags().StringVarP(&q.Search, "search", "s", "", "Filter by query text or user name")
	cmd.Flags().IntVar(&q.Offset, "offset", 0, "Rows to skip")
	cmd.Flags().IntVarP(&q.Limit, "limit", "n", 20, "Maximum number of results")
	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")

	return cmd
}

func printSearchLogs(w io.Writer, page *service.SearchLogPage, outputFormat string) error {
	if outputFormat == "json" {
		output := map[string]any{
			"total":    page.Total,
			"filtered": page.Filtered,
			"items":    page.Items,
		}
		jsonBytes, err := json.MarshalIndent(output, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(jsonBytes))
		return nil
	}

	if len(page.Items) == 0 {
		fmt.Fprintln(w, "No search logs found")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tQUERY\tRESULTS\tUSER\tCREATED")
	for _, item := range page.Items {
		user := "-"
		if item.UserName != nil {
			user = *item.UserName
		} else if item.UserID != nil {
			user = fmt.Sprintf("#%d", *item.UserID)
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\n", item.ID, item.Query, item.ResultsFound, user, item.CreatedAt.UTC().Format(time.RFC3339))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "\n%d of %d shown (%d match)\n", len(page.Items), page.Total, page.Filtered)
	return nil
}

func logsExportCmd() *cobra.Command {
	var (
		file     string
		toBucket bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export every search log as CSV",
		Long:  "Write the search log as CSV to stdout, a file, or the S3 bucket configured by FINDER_S3_*",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSearchLogs(func(ctx context.Context, cfg *config.Config, svc *service.SearchLogService) error {
				switch {
				case toBucket:
					return exportToBucket(ctx, cmd.OutOrStdout(), cfg, svc)
				case file != "":
					f, err := os.Create(file)
					if err != nil {
						return fmt.Errorf("failed to create %s: %w", file, err)
					}
					n, err := svc.WriteCSV(ctx, f)
					if closeErr := f.Close(); err == nil {
						err = closeErr
					}
					if err != nil {
						return fmt.Errorf("failed to export search logs: %w", err)
					}
					fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d search logs to %s\n", n, file)
					return nil
				default:
					_, err := svc.WriteCSV(ctx, cmd.OutOrStdout())
					return err
				}
			})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Write the CSV to this file")
	cmd.Flags().BoolVar(&toBucket, "s3", false, "Upload the CSV to the configured S3 bucket")

	return cmd
}

func exportToBucket(ctx context.Context, out io.Writer, cfg *config.Config, svc *service.SearchLogService) error {
	if !cfg.HasS3() {
		return fmt.Errorf("S3 is not configured; set %s_S3_ENDPOINT, %s_S3_ACCESS_KEY_ID and %s_S3_SECRET_ACCESS_KEY", config.EnvPrefix, config.EnvPrefix, config.EnvPrefix)
	}

	store, err := storage.NewExportStore(ctx, storage.Config{
		Endpoint:        cfg.S3Endpoint,
		Region:          cfg.S3Region,
		AccessKeyID:     cfg.S3AccessKey,
		SecretAccessKey: cfg.S3SecretKey,
		Bucket:          cfg.S3Bucket,
		UsePathStyle:    true,
	})
	if err != nil {
		return fmt.Errorf("failed to create S3 client: %w", err)
	}
	if err := store.EnsureBucket(ctx); err != nil {
		return fmt.Errorf("failed to ensure S3 bucket: %w", err)
	}

	var buf bytes.Buffer
	n, err := svc.WriteCSV(ctx, &buf)
	if err != nil {
		return fmt.Errorf("failed to export search logs: %w", err)
	}

	export, err := store.Publish(ctx, time.Now(), buf.Bytes())
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Exported %d search logs to s3://%s/%s\n", n, export.Bucket, export.Key)
	fmt.Fprintf(out, "Download (valid %s): %s\n", export.ExpiresIn, export.URL)
	return nil
}

func logsPruneCmd() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete search logs older than a number of days",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSearchLogs(func(ctx context.Context, cfg *config.Config, svc *service.SearchLogService) error {
				if days == 0 {
					days = cfg.SearchLogRetentionDays
				}
				if days <= 0 {
					return fmt.Errorf("nothing to prune: pass --days or set %s_SEARCH_LOG_RETENTION_DAYS", config.EnvPrefix)
				}

				n, err := svc.Prune(ctx, time.Now().UTC().AddDate(0, 0, -days))
				if err != nil {
					return fmt.Errorf("failed to prune search logs: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d search logs older than %d days\n", n, days)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&days, "days", 0, "Retention in days (default: FINDER_SEARCH_LOG_RETENTION_DAYS)")

	return cmd
}
