package catalog

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"mkbscrape/internal"
	"mkbscrape/internal/config"
	"mkbscrape/internal/logger"
	"mkbscrape/internal/pipeline"
)

type CrawlerConfig struct {
	BaseURL         string
	IndexPath       string
	CataloguePrefix string
}

func CrawlerConfigFrom(cfg config.Config) CrawlerConfig {
	return CrawlerConfig{
		BaseURL:         cfg.BaseURL,
		IndexPath:       cfg.IndexPath,
		CataloguePrefix: cfg.CataloguePrefix,
	}
}

// Crawler walks one index page and the catalogue pages it links to. It keeps
// no state between Crawl calls and is not safe for concurrent Crawl calls.
type Crawler struct {
	cfg       CrawlerConfig
	origin    *url.URL
	fetcher   Fetcher
	extractor *pipeline.Extractor
	log       logger.Logger
}

func NewCrawler(cfg CrawlerConfig, fetcher Fetcher, extractor *pipeline.Extractor, log logger.Logger) (*Crawler, error) {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	origin, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", cfg.BaseURL, err)
	}
	if origin.Scheme == "" || origin.Host == "" {
		return nil, fmt.Errorf("invalid base url %q: missing scheme or host", cfg.BaseURL)
	}
	if !strings.HasPrefix(cfg.IndexPath, "/") {
		cfg.IndexPath = "/" + cfg.IndexPath
	}
	if cfg.CataloguePrefix == "" {
		cfg.CataloguePrefix = cfg.IndexPath
	}
	return &Crawler{cfg: cfg, origin: origin, fetcher: fetcher, extractor: extractor, log: log}, nil
}

func (c *Crawler) IndexURL() string {
	return c.cfg.BaseURL + c.cfg.IndexPath
}

// Crawl fetches the index page and every retained catalogue page in order.
// A fetch failure or a catalogue page without entries aborts the crawl; the
// index page alone may be empty.
func (c *Crawler) Crawl(ctx context.Context) (internal.CrawlResult, error) {
	start := time.Now()
	indexURL := c.IndexURL()

	doc, err := c.fetchPage(ctx, indexURL)
	if err != nil {
		return internal.CrawlResult{}, err
	}
	entries := c.extractor.ExtractEntries(doc)
	result := internal.CrawlResult{
		Entries: entries,
		Pages:   []internal.PageResult{{URL: indexURL, Entries: len(entries), Index: true}},
	}
	c.log.Info("index page fetched", logger.String("url", indexURL), logger.Int("entries", len(entries)))

	discovered := c.DiscoverLinks(doc, indexURL)
	targets := FilterCovered(discovered)
	c.log.Info("catalogue pages scheduled",
		logger.Int("discovered", len(discovered)),
		logger.Int("covered", len(discovered)-len(targets)),
		logger.Int("scheduled", len(targets)),
	)

	for _, target := range targets {
		if err := ctx.Err(); err != nil {
			return internal.CrawlResult{}, err
		}
		page, err := c.fetchPage(ctx, target.URL)
		if err != nil {
			return internal.CrawlResult{}, err
		}
		pageEntries := c.extractor.ExtractEntries(page)
		if len(pageEntries) == 0 {
			return internal.CrawlResult{}, &EmptyPageError{URL: target.URL}
		}
		result.Entries = append(result.Entries, pageEntries...)
		result.Pages = append(result.Pages, internal.PageResult{URL: target.URL, Range: target.Range, Entries: len(pageEntries)})
		c.log.Debug("catalogue page fetched", logger.String("url", target.URL), logger.Int("entries", len(pageEntries)))
	}

	c.log.Info("crawl finished",
		logger.Int("pages", len(result.Pages)),
		logger.Int("candidates", len(result.Entries)),
		logger.Duration("elapsed", time.Since(start)),
	)
	return result, nil
}

func (c *Crawler) fetchPage(ctx context.Context, pageURL string) (*goquery.Document, error) {
	raw, err := c.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	doc, err := pipeline.ParseHTML(raw)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", pageURL, err)
	}
	return doc, nil
}
