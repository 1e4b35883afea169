package catalog

import (
	"slices"
	"strings"

	"mkbscrape/internal"
	"mkbscrape/internal/util"
)

// Index answers lookups over a reconciled catalogue without touching storage.
type Index struct {
	Entries      []internal.Entry
	ByCode       map[string]int
	ByPrefix     map[string][]int
	TokenToCodes map[string]map[int]struct{}
}

func BuildIndex(entries []internal.Entry) *Index {
	idx := &Index{
		Entries:      entries,
		ByCode:       map[string]int{},
		ByPrefix:     map[string][]int{},
		TokenToCodes: map[string]map[int]struct{}{},
	}

	for i, e := range entries {
		code := strings.ToUpper(strings.TrimSpace(e.Code))
		if _, dup := idx.ByCode[code]; !dup {
			idx.ByCode[code] = i
		}
		if key := util.SortKeyOf(code); key.Valid {
			idx.ByPrefix[key.Prefix] = append(idx.ByPrefix[key.Prefix], i)
		}

		tokens := append(util.Tokenize(e.Primary), util.Tokenize(e.Alternate)...)
		for _, token := range tokens {
			if _, ok := idx.TokenToCodes[token]; !ok {
				idx.TokenToCodes[token] = map[int]struct{}{}
			}
			idx.TokenToCodes[token][i] = struct{}{}
		}
	}

	return idx
}

func (idx *Index) Lookup(code string) (internal.Entry, bool) {
	i, ok := idx.ByCode[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return internal.Entry{}, false
	}
	return idx.Entries[i], true
}

// WithPrefix returns the entries whose code starts with the letter prefix,
// e.g. "A" or "ZZ".
func (idx *Index) WithPrefix(prefix string) []internal.Entry {
	var out []internal.Entry
	for _, i := range idx.ByPrefix[strings.ToUpper(strings.TrimSpace(prefix))] {
		out = append(out, idx.Entries[i])
	}
	return out
}

// Search returns entries whose descriptions contain every token of query,
// in catalogue order. A query that is itself a code matches that code and
// its subcodes.
func (idx *Index) Search(query string) []internal.Entry {
	q := strings.ToUpper(strings.TrimSpace(query))
	if util.IsCode(q) {
		var out []internal.Entry
		for _, e := range idx.Entries {
			if e.Code == q || strings.HasPrefix(e.Code, q+".") {
				out = append(out, e)
			}
		}
		return out
	}

	tokens := util.Tokenize(query)
	if len(tokens) == 0 {
		return nil
	}
	var hits []int
	for i := range idx.TokenToCodes[tokens[0]] {
		matched := true
		for _, token := range tokens[1:] {
			if _, ok := idx.TokenToCodes[token][i]; !ok {
				matched = false
				break
			}
		}
		if matched {
			hits = append(hits, i)
		}
	}
	slices.Sort(hits)

	out := make([]internal.Entry, 0, len(hits))
	for _, i := range hits {
		out = append(out, idx.Entries[i])
	}
	return out
}
