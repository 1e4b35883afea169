package pipeline

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

func ParseHTML(raw []byte) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(bytes.NewReader(raw))
}

// nodeText joins the trimmed, non-empty text nodes under n with sep.
func nodeText(n *html.Node, sep string) string {
	parts := collectText(n, nil)
	return strings.Join(parts, sep)
}

func selectionText(sel *goquery.Selection, sep string) string {
	var parts []string
	for _, n := range sel.Nodes {
		parts = collectText(n, parts)
	}
	return strings.Join(parts, sep)
}

func collectText(n *html.Node, parts []string) []string {
	switch n.Type {
	case html.TextNode:
		if t := strings.TrimSpace(n.Data); t != "" {
			parts = append(parts, t)
		}
		return parts
	case html.CommentNode:
		return parts
	case html.ElementNode:
		if isInvisible(n) {
			return parts
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		parts = collectText(c, parts)
	}
	return parts
}

// pageLines renders the page as plain text, one line per text node line.
// Whitespace inside a line is kept as-is because the free-text layout uses
// runs of spaces as column separators.
func pageLines(doc *goquery.Document) []string {
	var lines []string
	for _, n := range doc.Nodes {
		for _, chunk := range collectText(n, nil) {
			for _, line := range strings.Split(chunk, "\n") {
				if line = strings.TrimSpace(line); line != "" {
					lines = append(lines, line)
				}
			}
		}
	}
	return lines
}

func isInvisible(n *html.Node) bool {
	switch n.Data {
	case "script", "style", "noscript", "template":
		return true
	}
	return false
}

func isElement(n *html.Node, tags ...string) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	for _, tag := range tags {
		if n.Data == tag {
			return true
		}
	}
	return false
}

func isHeading(n *html.Node) bool {
	return isElement(n, "h1", "h2", "h3", "h4", "h5", "h6")
}

func isEmphasized(n *html.Node) bool {
	return isElement(n, "strong", "b", "em", "i")
}

func classList(n *html.Node) []string {
	if n == nil || n.Type != html.ElementNode {
		return nil
	}
	for _, attr := range n.Attr {
		if attr.Key == "class" {
			return strings.Fields(strings.ToLower(attr.Val))
		}
	}
	return nil
}

// hasMarker reports whether any class token of n contains one of the markers.
func hasMarker(n *html.Node, markers []string) bool {
	for _, cls := range classList(n) {
		for _, marker := range markers {
			if marker != "" && strings.Contains(cls, strings.ToLower(marker)) {
				return true
			}
		}
	}
	return false
}

// isBlank reports whether n contributes no visible text.
func isBlank(n *html.Node) bool {
	switch n.Type {
	case html.TextNode:
		return strings.TrimSpace(n.Data) == ""
	case html.ElementNode:
		return nodeText(n, "") == ""
	default:
		return true
	}
}
