package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mkbscrape/internal/catalog"
	"mkbscrape/internal/config"
	"mkbscrape/internal/logger"
	"mkbscrape/internal/storage"
	"mkbscrape/internal/watcher"
)

func main() {
	cfg, err := config.Load()
	must(err)

	log, err := logger.New(logger.Config{Level: cfg.LogLevel})
	must(err)
	defer func() { _ = log.Sync() }()

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	scraper, err := catalog.NewScraperFromConfig(cfg, log)
	must(err)

	svc := watcher.NewService(db, catalog.NewSyncService(db, scraper, log), watcher.Options{
		Interval:   time.Duration(max(1, cfg.WatchIntervalMin)) * time.Minute,
		AutoExport: cfg.WatchAutoExport,
		OutputDir:  cfg.OutputDir,
	}, log)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	must(svc.Run(ctx))
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
