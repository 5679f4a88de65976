package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/amosWeiskopf/companyscope/internal/config"
	"github.com/amosWeiskopf/companyscope/internal/logger"
	"github.com/amosWeiskopf/companyscope/internal/models"
	"github.com/amosWeiskopf/companyscope/pkg/analyzer"
	"github.com/amosWeiskopf/companyscope/pkg/crawler"
	"github.com/amosWeiskopf/companyscope/pkg/fetcher"
	"github.com/amosWeiskopf/companyscope/pkg/reporter"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func newRootCmd() *cobra.Command {
	defaults := config.Default()

	cmd := &cobra.Command{
		Use:   "companyscope [URL]",
		Short: "CompanyScope - company profile from a website",
		Long: `CompanyScope crawls a company website politely and prints a structured
business profile: who they are, what they sell, who they sell to, how to
reach them and whether they are hiring.`,
		Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			output, _ := cmd.Flags().GetString("output")

			cfg, err := config.Load(configPath, cmd.Flags())
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			log, err := logger.New(cfg.Logging)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			report, err := scan(cmd.Context(), args[0], cfg, log)
			if err != nil {
				return err
			}
			if output == "" {
				return writeReport(cmd.OutOrStdout(), cfg.Output.Format, report)
			}
			return writeReportFile(output, cfg.Output.Format, report)
		},
	}

	cmd.Flags().String("config", "", "Config file path")
	cmd.Flags().String("format", defaults.Output.Format, "Report format (json, yaml, markdown)")
	cmd.Flags().String("output", "", "Write the report to a file instead of stdout")
	cmd.Flags().Int("max-pages", defaults.Crawler.MaxPages, "Maximum number of pages fetched successfully")
	cmd.Flags().Duration("delay", defaults.Crawler.RequestDelay, "Delay before every request")
	cmd.Flags().Int("workers", defaults.Crawler.Workers, "Concurrent fetches")
	cmd.Flags().String("log-level", defaults.Logging.Level, "Log level (debug, info, warn, error)")

	return cmd
}

// scan crawls website and builds the report.
func scan(ctx context.Context, website string, cfg *config.Config, log *zap.Logger) (*models.Report, error) {
	log = log.With(zap.String("run_id", uuid.NewString()))

	f := fetcher.New(fetcher.Options{
		Timeout:           cfg.Crawler.Timeout,
		Delay:             cfg.Crawler.RequestDelay,
		RequestsPerSecond: cfg.Crawler.RequestsPerSecond,
		MaxBodyBytes:      cfg.Crawler.MaxBodyBytes,
		UserAgents:        fetcher.NewRandomSelector(cfg.Crawler.UserAgents, nil),
	})

	c, err := crawler.New(website, crawler.OptionsFromConfig(cfg), f, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create crawler: %w", err)
	}

	log.Info("crawl started",
		zap.String("url", website),
		zap.Int("max_pages", cfg.Crawler.MaxPages),
		zap.Int("workers", cfg.Crawler.Workers))

	result, err := c.Crawl(ctx)
	if err != nil {
		return nil, fmt.Errorf("crawl failed: %w", err)
	}

	return analyzer.New(cfg, nil).Analyze(result), nil
}

func writeReport(out io.Writer, format string, report *models.Report) error {
	w, err := reporter.New(format, out)
	if err != nil {
		return err
	}
	if err := w.Write(report); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// writeReportFile renders into a temporary file next to path and renames it
// into place, so path is only touched once a complete report exists.
func writeReportFile(path, format string, report *models.Report) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".companyscope-*")
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := writeReport(tmp, format, report); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
