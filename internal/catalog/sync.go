package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"

	"mkbscrape/internal"
	"mkbscrape/internal/config"
	"mkbscrape/internal/logger"
	"mkbscrape/internal/pipeline"
	"mkbscrape/internal/storage"
)

const MetadataLastSync = "catalog.last_sync"

// Scraper ties the crawler to the reconciler: one Scrape call produces the
// final ordered catalogue or fails without partial output.
type Scraper struct {
	crawler    *Crawler
	reconciler *pipeline.Reconciler
}

func NewScraper(crawler *Crawler, reconciler *pipeline.Reconciler) *Scraper {
	return &Scraper{crawler: crawler, reconciler: reconciler}
}

// NewScraperFromConfig wires the HTTP client, extractor and reconciler from
// cfg with the default site vocabulary and the configured labels.
func NewScraperFromConfig(cfg config.Config, log logger.Logger) (*Scraper, error) {
	vocab := pipeline.DefaultVocabulary()
	vocab.Labels = cfg.Labels()
	crawler, err := NewCrawler(CrawlerConfigFrom(cfg), NewClient(cfg), pipeline.NewExtractor(vocab), log)
	if err != nil {
		return nil, err
	}
	return NewScraper(crawler, pipeline.NewReconciler(vocab.Labels)), nil
}

func (s *Scraper) Scrape(ctx context.Context) ([]internal.Entry, internal.CrawlResult, error) {
	crawl, err := s.crawler.Crawl(ctx)
	if err != nil {
		return nil, internal.CrawlResult{}, err
	}
	return s.reconciler.Reconcile(crawl.Entries), crawl, nil
}

type SyncService struct {
	db      *storage.DB
	scraper *Scraper
	log     logger.Logger
}

func NewSyncService(db *storage.DB, scraper *Scraper, log logger.Logger) *SyncService {
	return &SyncService{db: db, scraper: scraper, log: log}
}

// Sync scrapes the site and replaces the stored catalogue. Every attempt is
// recorded as a run; a failed attempt leaves the stored entries untouched.
func (s *SyncService) Sync(ctx context.Context) (internal.SyncRun, error) {
	run := internal.SyncRun{
		TraceID:   uuid.NewString(),
		StartedAt: time.Now().UTC().Format(time.RFC3339),
	}
	log := s.log.With(logger.String("trace_id", run.TraceID))
	log.Info("sync started")

	entries, crawl, err := s.scraper.Scrape(ctx)
	if err == nil {
		err = s.db.ReplaceEntries(entries)
	}

	run.Pages = len(crawl.Pages)
	run.Candidates = len(crawl.Entries)
	run.FinishedAt = time.Now().UTC().Format(time.RFC3339)
	if err != nil {
		run.Status = internal.RunFailed
		run.Error = err.Error()
		log.Error("sync failed", logger.Error(err))
		if _, insertErr := s.db.InsertRun(run); insertErr != nil {
			log.Warn("record failed run", logger.Error(insertErr))
		}
		return run, err
	}

	run.Status = internal.RunOK
	run.Entries = len(entries)
	runID, err := s.db.InsertRun(run)
	if err != nil {
		return run, err
	}
	run.ID = int(runID)
	if err := s.db.InsertPages(runID, crawl.Pages); err != nil {
		return run, err
	}
	if err := s.db.SetMetadata(MetadataLastSync, run.FinishedAt); err != nil {
		return run, err
	}

	log.Info("sync finished",
		logger.Int("pages", run.Pages),
		logger.Int("candidates", run.Candidates),
		logger.Int("entries", run.Entries),
	)
	return run, nil
}
