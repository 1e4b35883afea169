package util

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

const labelSeparators = " \t:-–—|"

// LabelSet is the vocabulary of field labels the site prefixes values with,
// e.g. "Šifra: A00" or "Latinski - Cholera".
type LabelSet struct {
	Code      []string
	Primary   []string
	Alternate []string
}

func DefaultLabels() LabelSet {
	return LabelSet{
		Code:      []string{"šifra bolesti", "šifra", "sifra", "oznaka", "kod"},
		Primary:   []string{"srpski naziv", "naziv na srpskom", "srpski", "naziv", "opis", "dijagnoza"},
		Alternate: []string{"latinski naziv", "naziv na latinskom", "latinsko ime", "latinski", "latin"},
	}
}

// NormalizeText decodes HTML entities, composes unicode to NFC, collapses
// whitespace runs to a single space and trims the ends.
func NormalizeText(input string) string {
	s := input
	for {
		unescaped := html.UnescapeString(s)
		if unescaped == s {
			break
		}
		s = unescaped
	}
	s = norm.NFC.String(s)
	return strings.Join(strings.Fields(s), " ")
}

// Strip removes one leading label and the separators that follow it.
// Text that does not start with a known label is returned unchanged.
func (l LabelSet) Strip(input string) string {
	for _, label := range l.sorted() {
		rest, ok := cutLabel(input, label)
		if !ok {
			continue
		}
		return strings.TrimSpace(strings.TrimLeft(rest, labelSeparators))
	}
	return input
}

func (l LabelSet) IsEmpty() bool {
	return len(l.Code) == 0 && len(l.Primary) == 0 && len(l.Alternate) == 0
}

// sorted returns every label longest first so "latinski naziv" wins over "latinski".
func (l LabelSet) sorted() []string {
	all := make([]string, 0, len(l.Code)+len(l.Primary)+len(l.Alternate))
	for _, group := range [][]string{l.Code, l.Primary, l.Alternate} {
		for _, label := range group {
			label = NormalizeText(label)
			if label != "" {
				all = append(all, label)
			}
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		return utf8.RuneCountInString(all[i]) > utf8.RuneCountInString(all[j])
	})
	return all
}

func cutLabel(input, label string) (string, bool) {
	n := utf8.RuneCountInString(label)
	offset := 0
	for i := 0; i < n; i++ {
		if offset >= len(input) {
			return "", false
		}
		_, size := utf8.DecodeRuneInString(input[offset:])
		offset += size
	}
	if !strings.EqualFold(input[:offset], label) {
		return "", false
	}
	rest := input[offset:]
	if next, _ := utf8.DecodeRuneInString(rest); rest != "" && (unicode.IsLetter(next) || unicode.IsDigit(next)) {
		return "", false
	}
	return rest, true
}

func ParseList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func Tokenize(input string) []string {
	s := strings.ToLower(NormalizeText(input))
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if utf8.RuneCountInString(p) >= 2 {
			out = append(out, p)
		}
	}
	return out
}
