package pipeline

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"mkbscrape/internal"
	"mkbscrape/internal/util"
)

const headingSiblingLimit = 10

const codePattern = `[A-Z]{1,2}\d{2}(?:\.[0-9A-Z]{1,4})?`

var (
	reHeadingEntry  = regexp.MustCompile(`^(` + codePattern + `)[\s:\-–—]+(.+)$`)
	reTextLine      = regexp.MustCompile(`^(` + codePattern + `)(?:\s*[-–:])?\s+(.+)$`)
	reLeadingCode   = regexp.MustCompile(`^` + codePattern + `(?:$|[^0-9A-Z.])`)
	reTextSeparator = regexp.MustCompile(`\s{2,}\|\s{2,}|\s{2,}|\s+[-–]\s+`)
	reTrailingParen = regexp.MustCompile(`^(.*?)\s*\(([^()]+)\)$`)
)

// Vocabulary holds the site-specific words and class markers the strategies
// look for. Class markers match as substrings of a class token.
type Vocabulary struct {
	Labels           util.LabelSet
	HeaderWord       string
	LatinWord        string
	BlockMarkers     []string
	CodeMarkers      []string
	PrimaryMarkers   []string
	AlternateMarkers []string
}

func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		Labels:           util.DefaultLabels(),
		HeaderWord:       "šifra",
		LatinWord:        "latin",
		BlockMarkers:     []string{"mkb"},
		CodeMarkers:      []string{"sifra", "code", "oznaka"},
		PrimaryMarkers:   []string{"sr", "opis", "naziv"},
		AlternateMarkers: []string{"lat", "latin"},
	}
}

type Extractor struct {
	vocab Vocabulary
}

func NewExtractor(vocab Vocabulary) *Extractor {
	return &Extractor{vocab: vocab}
}

// ExtractEntries runs every strategy over doc and concatenates the candidates.
// Strategies may find disjoint subsets of the same page, so none of them
// short-circuits the others.
func (x *Extractor) ExtractEntries(doc *goquery.Document) []internal.Entry {
	out := make([]internal.Entry, 0)
	out = append(out, x.fromTables(doc)...)
	out = append(out, x.fromStructuredBlocks(doc)...)
	out = append(out, x.fromListGroups(doc)...)
	out = append(out, x.fromHeadings(doc)...)
	out = append(out, x.fromParagraphs(doc)...)
	out = append(out, x.fromTextLines(doc)...)
	return out
}

func (x *Extractor) clean(input string) string {
	return util.NormalizeText(x.vocab.Labels.Strip(util.NormalizeText(input)))
}

func (x *Extractor) fromTables(doc *goquery.Document) []internal.Entry {
	out := []internal.Entry{}
	header := strings.ToLower(x.vocab.HeaderWord)
	doc.Find("table tr").Each(func(_ int, row *goquery.Selection) {
		cells := []string{}
		isHeader := false
		row.ChildrenFiltered("td,th").Each(func(_ int, cell *goquery.Selection) {
			text := x.clean(selectionText(cell, " "))
			if header != "" && strings.Contains(strings.ToLower(text), header) {
				isHeader = true
			}
			cells = append(cells, text)
		})
		if isHeader || len(cells) < 2 || !util.IsCode(cells[0]) {
			return
		}
		entry := internal.Entry{Code: cells[0], Primary: cells[1]}
		if len(cells) >= 3 {
			entry.Alternate = cells[2]
		}
		out = append(out, entry)
	})
	return out
}

func (x *Extractor) fromStructuredBlocks(doc *goquery.Document) []internal.Entry {
	out := []internal.Entry{}
	doc.Find("div, li").Each(func(_ int, container *goquery.Selection) {
		if !hasMarker(container.Get(0), x.vocab.BlockMarkers) {
			return
		}
		descendants := container.Find("*").Nodes
		codeNode := firstWithMarker(descendants, x.vocab.CodeMarkers, nil)
		if codeNode == nil {
			return
		}
		code := x.clean(nodeText(codeNode, " "))
		if !util.IsCode(code) {
			return
		}
		entry := internal.Entry{Code: code}
		if n := firstWithMarker(descendants, x.vocab.PrimaryMarkers, codeNode); n != nil {
			entry.Primary = x.clean(nodeText(n, " "))
		}
		if n := firstWithMarker(descendants, x.vocab.AlternateMarkers, codeNode); n != nil {
			entry.Alternate = x.clean(nodeText(n, " "))
		}
		out = append(out, entry)
	})
	return out
}

func firstWithMarker(nodes []*html.Node, markers []string, exclude *html.Node) *html.Node {
	for _, n := range nodes {
		if n != exclude && hasMarker(n, markers) {
			return n
		}
	}
	return nil
}

func (x *Extractor) fromListGroups(doc *goquery.Document) []internal.Entry {
	out := []internal.Entry{}
	doc.Find("li.list-group-item").Each(func(_ int, item *goquery.Selection) {
		codeCol := item.Find(".col_first").First()
		descCol := item.Find(".col_last").First()
		if codeCol.Length() == 0 || descCol.Length() == 0 {
			return
		}

		codeSel := codeCol.Find("strong, b").First()
		if codeSel.Length() == 0 {
			codeSel = codeCol
		}
		code := x.clean(selectionText(codeSel, " "))
		if !util.IsCode(code) {
			return
		}

		entry := internal.Entry{Code: code}
		if em := descCol.Find("strong, b").First(); em.Length() > 0 {
			entry.Primary = x.clean(selectionText(em, " "))
			entry.Alternate = x.clean(siblingText(em.Get(0)))
		} else {
			entry.Primary = x.clean(selectionText(descCol, " "))
		}
		if entry.Primary == code {
			entry.Primary = ""
		}
		out = append(out, entry)
	})
	return out
}

func siblingText(n *html.Node) string {
	parts := []string{}
	for s := n.NextSibling; s != nil; s = s.NextSibling {
		if t := nodeText(s, " "); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

func (x *Extractor) fromHeadings(doc *goquery.Document) []internal.Entry {
	out := []internal.Entry{}
	doc.Find("h1, h2, h3, h4, h5, h6").Each(func(_ int, heading *goquery.Selection) {
		m := reHeadingEntry.FindStringSubmatch(x.clean(selectionText(heading, " ")))
		if m == nil || isRangeText(m[2]) {
			return
		}
		entry := internal.Entry{Code: m[1], Primary: x.clean(m[2])}
		if n := x.headingAlternate(heading.Get(0)); n != nil {
			entry.Alternate = x.clean(nodeText(n, " "))
		}
		out = append(out, entry)
	})
	return out
}

func (x *Extractor) headingAlternate(heading *html.Node) *html.Node {
	latin := strings.ToLower(x.vocab.LatinWord)
	scanned := 0
	for s := heading.NextSibling; s != nil && scanned < headingSiblingLimit; s = s.NextSibling {
		if isHeading(s) {
			return nil
		}
		if isBlank(s) {
			continue
		}
		scanned++
		if isEmphasized(s) || hasMarker(s, x.vocab.AlternateMarkers) {
			return s
		}
		if latin != "" && strings.Contains(strings.ToLower(nodeText(s, " ")), latin) {
			return s
		}
	}
	return nil
}

func (x *Extractor) fromParagraphs(doc *goquery.Document) []internal.Entry {
	out := []internal.Entry{}
	doc.Find("p, li, div").Each(func(_ int, block *goquery.Selection) {
		em := block.Find("strong, b, em, i").First()
		if em.Length() == 0 {
			return
		}
		code := x.clean(selectionText(em, " "))
		if !util.IsCode(code) {
			return
		}

		entry := internal.Entry{Code: code}
		primary := []string{}
		for s := em.Get(0).NextSibling; s != nil; s = s.NextSibling {
			if isEmphasized(s) || hasMarker(s, x.vocab.AlternateMarkers) {
				entry.Alternate = x.clean(nodeText(s, " "))
				break
			}
			if t := nodeText(s, " "); t != "" {
				primary = append(primary, t)
			}
		}
		entry.Primary = x.clean(strings.Join(primary, " "))
		out = append(out, entry)
	})
	return out
}

func (x *Extractor) fromTextLines(doc *goquery.Document) []internal.Entry {
	out := []internal.Entry{}
	for _, line := range pageLines(doc) {
		m := reTextLine.FindStringSubmatch(line)
		if m == nil || isRangeText(m[2]) {
			continue
		}
		parts := []string{}
		for _, part := range reTextSeparator.Split(m[2], -1) {
			if part = strings.TrimSpace(part); part != "" {
				parts = append(parts, part)
			}
		}
		if len(parts) == 0 {
			continue
		}

		entry := internal.Entry{Code: m[1], Primary: parts[0]}
		if len(parts) > 1 {
			entry.Alternate = parts[1]
		} else if pm := reTrailingParen.FindStringSubmatch(entry.Primary); pm != nil && strings.TrimSpace(pm[1]) != "" {
			entry.Primary = pm[1]
			entry.Alternate = pm[2]
		}
		entry.Primary = x.clean(entry.Primary)
		entry.Alternate = x.clean(entry.Alternate)
		out = append(out, entry)
	}
	return out
}

// isRangeText reports whether the text after a code opens with another code,
// as in the chapter heading "A00-B99 Neke infektivne bolesti".
func isRangeText(rest string) bool {
	return reLeadingCode.MatchString(strings.TrimSpace(rest))
}
