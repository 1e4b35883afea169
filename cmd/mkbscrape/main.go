package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"mkbscrape/internal"
	"mkbscrape/internal/catalog"
	"mkbscrape/internal/config"
	"mkbscrape/internal/logger"
	"mkbscrape/internal/pipeline"
	"mkbscrape/internal/storage"
	"mkbscrape/internal/watcher"
)

var version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "mkbscrape",
		Short: "MKB-10 catalogue scraper",
		Long: `mkbscrape crawls the MKB-10 catalogue pages, extracts every
code with its Serbian and Latin description, and writes the
reconciled catalogue as pipe-delimited CSV, XLSX or into sqlite.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(scrapeCmd())
	rootCmd.AddCommand(extractCmd())
	rootCmd.AddCommand(syncCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(searchCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(watchCmd())

	must(rootCmd.Execute())
}

func scrapeCmd() *cobra.Command {
	var output, xlsx string
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Crawl the site and write the catalogue as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			scraper, err := catalog.NewScraperFromConfig(cfg, log)
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()

			entries, _, err := scraper.Scrape(ctx)
			if err != nil {
				return err
			}
			if err := writeOutputs(entries, output, xlsx); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "scraped %d entries\n", len(entries))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "mkb10.csv", "CSV output path, - for stdout")
	cmd.Flags().StringVar(&xlsx, "xlsx", "", "optional XLSX output path")
	return cmd
}

func extractCmd() *cobra.Command {
	var inputType, output string
	cmd := &cobra.Command{
		Use:   "extract <input>",
		Short: "Extract entries from a local HTML file or raw HTML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			vocab := pipeline.DefaultVocabulary()
			vocab.Labels = cfg.Labels()

			entries, err := pipeline.ExtractEntriesFromInput(inputType, args[0], vocab)
			if err != nil {
				return err
			}
			return writeOutputs(entries, output, "")
		},
	}
	cmd.Flags().StringVar(&inputType, "type", "file", "file|html")
	cmd.Flags().StringVarP(&output, "output", "o", "-", "CSV output path, - for stdout")
	return cmd
}

func syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Crawl the site and replace the stored catalogue",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			db, err := storage.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			svc, err := newSyncService(cfg, db, log)
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()

			run, err := svc.Sync(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("sync complete: %d entries from %d pages (trace %s)\n", run.Entries, run.Pages, run.TraceID)
			return nil
		},
	}
}

func exportCmd() *cobra.Command {
	var output, format, prefix string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the stored catalogue",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			db, err := storage.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			var entries []internal.Entry
			if strings.TrimSpace(prefix) != "" {
				entries, err = db.ListEntriesByPrefix(strings.ToUpper(strings.TrimSpace(prefix)))
			} else {
				entries, err = db.ListEntries()
			}
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				return fmt.Errorf("no stored entries, run sync first")
			}

			if output == "" {
				output = filepath.Join(cfg.OutputDir, watcher.ExportCSVName)
				if format == "xlsx" {
					output = filepath.Join(cfg.OutputDir, watcher.ExportXLSXName)
				}
			}
			switch format {
			case "csv":
				err = writeOutputs(entries, output, "")
			case "xlsx":
				err = pipeline.ExportEntriesToXLSX(entries, output)
			default:
				err = fmt.Errorf("unsupported format: %s", format)
			}
			if err != nil {
				return err
			}
			fmt.Printf("exported %d entries to %s\n", len(entries), output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output path (default under OUTPUT_DIR)")
	cmd.Flags().StringVar(&format, "format", "csv", "csv|xlsx")
	cmd.Flags().StringVar(&prefix, "prefix", "", "only codes with this letter prefix")
	return cmd
}

func searchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <code|words>",
		Short: "Look up stored entries by code or description words",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			db, err := storage.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			entries, err := db.ListEntries()
			if err != nil {
				return err
			}
			hits := catalog.BuildIndex(entries).Search(strings.Join(args, " "))
			if len(hits) == 0 {
				fmt.Println("no matches")
				return nil
			}
			return pipeline.WriteCSV(os.Stdout, hits)
		},
	}
}

func historyCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent sync runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			db, err := storage.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			runs, err := db.ListRuns(limit)
			if err != nil {
				return err
			}
			for _, run := range runs {
				fmt.Printf("%d\t%s\t%s\tpages=%d candidates=%d entries=%d\t%s\n",
					run.ID, run.StartedAt, run.Status, run.Pages, run.Candidates, run.Entries, run.Error)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of runs to show")
	return cmd
}

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Re-sync the catalogue periodically",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			db, err := storage.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			svc, err := newSyncService(cfg, db, log)
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()

			return watcher.NewService(db, svc, watchOptions(cfg), log).Run(ctx)
		},
	}
}

func setup() (config.Config, logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, err
	}
	log, err := logger.New(logger.Config{Level: cfg.LogLevel})
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, log, nil
}

func newSyncService(cfg config.Config, db *storage.DB, log logger.Logger) (*catalog.SyncService, error) {
	scraper, err := catalog.NewScraperFromConfig(cfg, log)
	if err != nil {
		return nil, err
	}
	return catalog.NewSyncService(db, scraper, log), nil
}

func watchOptions(cfg config.Config) watcher.Options {
	return watcher.Options{
		Interval:   time.Duration(max(1, cfg.WatchIntervalMin)) * time.Minute,
		AutoExport: cfg.WatchAutoExport,
		OutputDir:  cfg.OutputDir,
	}
}

func writeOutputs(entries []internal.Entry, csvPath, xlsxPath string) error {
	if csvPath == "-" {
		if err := pipeline.WriteCSV(os.Stdout, entries); err != nil {
			return err
		}
	} else if err := pipeline.ExportEntriesToCSV(entries, csvPath); err != nil {
		return err
	}
	if xlsxPath != "" {
		return pipeline.ExportEntriesToXLSX(entries, xlsxPath)
	}
	return nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
