package catalog

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"mkbscrape/internal"
	"mkbscrape/internal/util"
)

// DiscoverLinks collects the catalogue pages linked from doc in first-seen
// order and without duplicates. Relative references are resolved against
// both pageURL and the index path, each taken as a directory, so a bare
// href="a00-a09" lands under the catalogue prefix.
func (c *Crawler) DiscoverLinks(doc *goquery.Document, pageURL string) []internal.CatalogueURL {
	page, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}
	current, _, _ := c.normalizeLink(page)
	bases := c.resolveBases(page)

	seen := map[string]struct{}{}
	out := []internal.CatalogueURL{}
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href := strings.TrimSpace(a.AttrOr("href", ""))
		if href == "" || strings.HasPrefix(href, "#") {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		for _, base := range bases {
			normalized, path, ok := c.normalizeLink(base.ResolveReference(ref))
			if !ok || normalized == current {
				continue
			}
			if _, dup := seen[normalized]; dup {
				continue
			}
			seen[normalized] = struct{}{}

			link := internal.CatalogueURL{URL: normalized}
			if r, ok := util.ExtractCodeRange(path, c.prefix()); ok {
				link.Range = &r
			}
			out = append(out, link)
		}
	})
	return out
}

// resolveBases returns the current page and the index page as directory
// URLs (trailing slash, no query or fragment), without duplicates.
func (c *Crawler) resolveBases(page *url.URL) []*url.URL {
	index := *c.origin
	index.Path = strings.TrimRight(c.origin.Path, "/") + c.cfg.IndexPath

	bases := []*url.URL{}
	seen := map[string]struct{}{}
	for _, u := range []*url.URL{page, &index} {
		dir := &url.URL{Scheme: u.Scheme, Host: u.Host, Path: strings.TrimRight(u.Path, "/") + "/"}
		if _, dup := seen[dir.String()]; dup {
			continue
		}
		seen[dir.String()] = struct{}{}
		bases = append(bases, dir)
	}
	return bases
}

// normalizeLink keeps same-origin catalogue links and returns them as
// scheme://host/path[?query] with the trailing slash and fragment removed.
func (c *Crawler) normalizeLink(u *url.URL) (string, string, bool) {
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", "", false
	}
	if !strings.EqualFold(u.Host, c.origin.Host) {
		return "", "", false
	}

	path := strings.TrimRight(u.Path, "/")
	if path == "" {
		return "", "", false
	}
	if path == strings.TrimRight(c.cfg.IndexPath, "/") && u.RawQuery == "" {
		return "", "", false
	}
	if !strings.HasPrefix(path, c.prefix()) {
		return "", "", false
	}

	normalized := scheme + "://" + strings.ToLower(u.Host) + strings.TrimRight(u.EscapedPath(), "/")
	if u.RawQuery != "" {
		normalized += "?" + u.RawQuery
	}
	return normalized, path, true
}

func (c *Crawler) prefix() string {
	return strings.TrimRight(c.cfg.CataloguePrefix, "/")
}

// FilterCovered drops every URL whose code range lies inside the range of a
// URL accepted before it. URLs without a range are always kept and never
// cover anything.
func FilterCovered(urls []internal.CatalogueURL) []internal.CatalogueURL {
	accepted := []internal.CodeRange{}
	out := make([]internal.CatalogueURL, 0, len(urls))
	for _, u := range urls {
		if u.Range != nil {
			if coveredBy(accepted, *u.Range) {
				continue
			}
			accepted = append(accepted, *u.Range)
		}
		out = append(out, u)
	}
	return out
}

func coveredBy(accepted []internal.CodeRange, candidate internal.CodeRange) bool {
	for _, r := range accepted {
		if util.RangeCovers(r, candidate) {
			return true
		}
	}
	return false
}
