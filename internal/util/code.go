package util

import (
	"cmp"
	"regexp"
	"strconv"
	"strings"

	"mkbscrape/internal"
)

var (
	reCodeParts    = regexp.MustCompile(`^([A-Z]{1,2})(\d{2})(?:\.([0-9A-Z]{1,4}))?$`)
	reCodeAt       = regexp.MustCompile(`^[A-Z]{1,2}\d{2}(?:\.[0-9A-Z]{1,4})?`)
	pageExtensions = []string{".HTML", ".HTM", ".PHP", ".ASPX", ".ASP"}
)

// IsCode reports whether input is exactly a catalogue code such as "A00" or "B20.1".
func IsCode(input string) bool {
	return reCodeParts.MatchString(input)
}

func SortKeyOf(code string) internal.CodeSortKey {
	m := reCodeParts.FindStringSubmatch(code)
	if m == nil {
		return internal.CodeSortKey{Raw: code}
	}
	number, err := strconv.Atoi(m[2])
	if err != nil {
		return internal.CodeSortKey{Raw: code}
	}
	return internal.CodeSortKey{Valid: true, Prefix: m[1], Number: number, Suffix: m[3], Raw: code}
}

func CompareKeys(a, b internal.CodeSortKey) int {
	switch {
	case a.Valid && !b.Valid:
		return -1
	case !a.Valid && b.Valid:
		return 1
	case !a.Valid && !b.Valid:
		return strings.Compare(a.Raw, b.Raw)
	}
	if c := strings.Compare(a.Prefix, b.Prefix); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Number, b.Number); c != 0 {
		return c
	}
	return strings.Compare(a.Suffix, b.Suffix)
}

func CompareCodes(a, b string) int {
	return CompareKeys(SortKeyOf(a), SortKeyOf(b))
}

// ExtractCodeRange reads the codes a catalogue path is named after, e.g.
// "/mkb/a00-a09" covers A00..A09. The remainder after the prefix is scanned
// left to right for code-shaped substrings; a code never starts right after
// a letter, so "mkb10" yields nothing while "a00a09" yields both codes. One
// code gives a single-code range.
func ExtractCodeRange(path, prefix string) (internal.CodeRange, bool) {
	if !strings.HasPrefix(path, prefix) {
		return internal.CodeRange{}, false
	}
	rest := strings.ToUpper(path[len(prefix):])

	codes := make([]string, 0, 2)
	for i := 0; i < len(rest); {
		if i > 0 && isUpperLetter(rest[i-1]) {
			i++
			continue
		}
		m := reCodeAt.FindString(rest[i:])
		if m == "" {
			i++
			continue
		}
		end := i + len(m)
		if end < len(rest) && isDigit(rest[end]) {
			i++
			continue
		}
		code := m
		for _, ext := range pageExtensions {
			code = strings.TrimSuffix(code, ext)
		}
		if IsCode(code) {
			codes = append(codes, code)
		}
		i = end
	}

	switch len(codes) {
	case 0:
		return internal.CodeRange{}, false
	case 1:
		return internal.CodeRange{Start: codes[0], End: codes[0]}, true
	default:
		return internal.CodeRange{Start: codes[0], End: codes[len(codes)-1]}, true
	}
}

func isUpperLetter(b byte) bool { return b >= 'A' && b <= 'Z' }

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// OrientRange swaps the bounds when they are given in descending order.
func OrientRange(r internal.CodeRange) internal.CodeRange {
	if CompareCodes(r.Start, r.End) > 0 {
		return internal.CodeRange{Start: r.End, End: r.Start}
	}
	return r
}

// RangeCovers reports whether inner lies entirely within outer.
func RangeCovers(outer, inner internal.CodeRange) bool {
	outer = OrientRange(outer)
	inner = OrientRange(inner)
	return CompareCodes(outer.Start, inner.Start) <= 0 && CompareCodes(inner.End, outer.End) <= 0
}
