package watcher

import (
	"context"
	"path/filepath"
	"time"

	"mkbscrape/internal"
	"mkbscrape/internal/logger"
	"mkbscrape/internal/pipeline"
	"mkbscrape/internal/storage"
)

const (
	ExportCSVName  = "mkb10.csv"
	ExportXLSXName = "mkb10.xlsx"
)

// Syncer is satisfied by *catalog.SyncService.
type Syncer interface {
	Sync(ctx context.Context) (internal.SyncRun, error)
}

type Options struct {
	Interval   time.Duration
	AutoExport bool
	OutputDir  string
}

// Service re-syncs the catalogue on a fixed interval. Cycles never overlap:
// the wait starts only after the previous cycle returns.
type Service struct {
	db     *storage.DB
	syncer Syncer
	opts   Options
	log    logger.Logger
}

func NewService(db *storage.DB, syncer Syncer, opts Options, log logger.Logger) *Service {
	return &Service{db: db, syncer: syncer, opts: opts, log: log}
}

// Run loops until ctx is cancelled. A failed cycle is logged and the loop
// carries on with the next one.
func (s *Service) Run(ctx context.Context) error {
	for {
		if err := s.RunCycle(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.log.Error("watch cycle failed", logger.Error(err))
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(s.opts.Interval):
		}
	}
}

func (s *Service) RunCycle(ctx context.Context) error {
	start := time.Now()
	run, err := s.syncer.Sync(ctx)
	if err != nil {
		return err
	}

	if s.opts.AutoExport {
		if err := s.exportCatalogue(); err != nil {
			return err
		}
	}

	s.log.Info("watch cycle done",
		logger.String("trace_id", run.TraceID),
		logger.Int("entries", run.Entries),
		logger.Duration("elapsed", time.Since(start)),
	)
	return nil
}

func (s *Service) exportCatalogue() error {
	entries, err := s.db.ListEntries()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}
	if err := pipeline.ExportEntriesToCSV(entries, filepath.Join(s.opts.OutputDir, ExportCSVName)); err != nil {
		return err
	}
	return pipeline.ExportEntriesToXLSX(entries, filepath.Join(s.opts.OutputDir, ExportXLSXName))
}
