package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mkbscrape/internal"
	"mkbscrape/internal/logger"
	"mkbscrape/internal/pipeline"
)

func newTestCrawler(t *testing.T, fetcher Fetcher) *Crawler {
	t.Helper()
	crawler, err := NewCrawler(CrawlerConfigFrom(testConfig()), fetcher, pipeline.NewExtractor(pipeline.DefaultVocabulary()), logger.NewNop())
	require.NoError(t, err)
	return crawler
}

func urlsOf(links []internal.CatalogueURL) []string {
	out := make([]string, 0, len(links))
	for _, l := range links {
		out = append(out, l.URL)
	}
	return out
}

func TestDiscoverLinksKeepsSameHostCataloguePages(t *testing.T) {
	doc, err := pipeline.ParseHTML([]byte(`
		<a href="/mkb/a00-a09">Zarazne bolesti</a>
		<a href="https://EXAMPLE.test/mkb/a00-a09/">duplikat</a>
		<a href="/mkb/b00-b09#top">Virusne bolesti</a>
		<a href="/mkb">Indeks</a>
		<a href="/mkb?page=2">Strana 2</a>
		<a href="/vesti/mkb">Vesti</a>
		<a href="https://other.test/mkb/c00-c97">Drugi sajt</a>
		<a href="#top">Vrh</a>
		<a href="mailto:info@example.test">Kontakt</a>
		<a href="">prazno</a>`))
	require.NoError(t, err)

	links := newTestCrawler(t, nil).DiscoverLinks(doc, "https://example.test/mkb")

	assert.Equal(t, []string{
		"https://example.test/mkb/a00-a09",
		"https://example.test/mkb/b00-b09",
		"https://example.test/mkb?page=2",
	}, urlsOf(links))
	require.NotNil(t, links[0].Range)
	assert.Equal(t, internal.CodeRange{Start: "A00", End: "A09"}, *links[0].Range)
	assert.Nil(t, links[2].Range)
}

func TestDiscoverLinksResolvesRelativeReferences(t *testing.T) {
	doc, err := pipeline.ParseHTML([]byte(`<a href="k00-k93">Bolesti sistema za varenje</a>`))
	require.NoError(t, err)

	links := newTestCrawler(t, nil).DiscoverLinks(doc, "https://example.test/mkb/")

	assert.Equal(t, []string{"https://example.test/mkb/k00-k93"}, urlsOf(links))
}

func TestDiscoverLinksResolvesBareHrefUnderIndexPath(t *testing.T) {
	doc, err := pipeline.ParseHTML([]byte(`<a href="a00-a09">Crevne zarazne bolesti</a>`))
	require.NoError(t, err)

	links := newTestCrawler(t, nil).DiscoverLinks(doc, "https://example.test/mkb")

	require.Equal(t, []string{"https://example.test/mkb/a00-a09"}, urlsOf(links))
	assert.Equal(t, &internal.CodeRange{Start: "A00", End: "A09"}, links[0].Range)
}

func TestFilterCoveredDropsSubsumedRanges(t *testing.T) {
	urls := []internal.CatalogueURL{
		{URL: "u1", Range: &internal.CodeRange{Start: "A00", End: "A09"}},
		{URL: "u2", Range: &internal.CodeRange{Start: "A00", End: "A04"}},
		{URL: "u3"},
		{URL: "u4", Range: &internal.CodeRange{Start: "A05", End: "A15"}},
		{URL: "u5", Range: &internal.CodeRange{Start: "A12", End: "A10"}},
	}

	assert.Equal(t, []string{"u1", "u3", "u4"}, urlsOf(FilterCovered(urls)))
}

func TestFilterCoveredKeepsLaterWiderRange(t *testing.T) {
	urls := []internal.CatalogueURL{
		{URL: "narrow", Range: &internal.CodeRange{Start: "A00", End: "A04"}},
		{URL: "wide", Range: &internal.CodeRange{Start: "A00", End: "A09"}},
	}

	assert.Equal(t, []string{"narrow", "wide"}, urlsOf(FilterCovered(urls)))
}

func TestNewCrawlerRejectsBaseWithoutHost(t *testing.T) {
	_, err := NewCrawler(CrawlerConfig{BaseURL: "/relative", IndexPath: "/"}, nil, nil, logger.NewNop())
	assert.Error(t, err)
}
