package pipeline

import (
	"regexp"
	"slices"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"mkbscrape/internal"
	"mkbscrape/internal/util"
)

var reSpacedDash = regexp.MustCompile(`\s+[-–]\s+`)

type Reconciler struct {
	labels util.LabelSet
}

func NewReconciler(labels util.LabelSet) *Reconciler {
	return &Reconciler{labels: labels}
}

// NormalizeEntry cleans both descriptions and repairs a missing primary text
// from the alternate one. It reports false when no primary text can be found.
func (r *Reconciler) NormalizeEntry(e internal.Entry) (internal.Entry, bool) {
	e = r.repair(e)
	if e.Code == "" || e.Primary == "" {
		return internal.Entry{}, false
	}
	return e, true
}

func (r *Reconciler) repair(e internal.Entry) internal.Entry {
	e.Code = util.NormalizeText(e.Code)
	e.Primary = r.cleanField(e.Primary)
	e.Alternate = r.cleanField(e.Alternate)

	if e.Primary == "" && e.Alternate != "" {
		parts := []string{}
		for _, part := range reSpacedDash.Split(e.Alternate, -1) {
			if part = strings.TrimSpace(part); part != "" {
				parts = append(parts, part)
			}
		}
		if len(parts) >= 2 {
			e.Primary = parts[0]
			e.Alternate = parts[len(parts)-1]
		}
	}
	return e
}

// cleanField blanks values that are themselves codes; those come from a
// strategy picking up the code cell as a description.
func (r *Reconciler) cleanField(value string) string {
	value = util.NormalizeText(r.labels.Strip(util.NormalizeText(value)))
	if util.IsCode(value) {
		return ""
	}
	return value
}

// Deduplicate merges entries by code in input order. The first occurrence of
// a code owns its fields; later occurrences only fill fields still blank.
func Deduplicate(entries []internal.Entry) *orderedmap.OrderedMap[string, internal.Entry] {
	seen := orderedmap.New[string, internal.Entry]()
	for _, e := range entries {
		existing, ok := seen.Get(e.Code)
		if !ok {
			seen.Set(e.Code, e)
			continue
		}
		if existing.Primary == "" {
			existing.Primary = e.Primary
		}
		if existing.Alternate == "" {
			existing.Alternate = e.Alternate
		}
		seen.Set(e.Code, existing)
	}
	return seen
}

func Finalize(merged *orderedmap.OrderedMap[string, internal.Entry]) []internal.Entry {
	out := make([]internal.Entry, 0, merged.Len())
	for pair := merged.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	slices.SortStableFunc(out, func(a, b internal.Entry) int {
		return util.CompareCodes(a.Code, b.Code)
	})
	return out
}

// Reconcile turns raw candidates from every page into the final catalogue.
// Entries are repaired before merging but only dropped after it, so a
// candidate carrying just the alternate text can still complete another
// page's entry for the same code.
func (r *Reconciler) Reconcile(candidates []internal.Entry) []internal.Entry {
	repaired := make([]internal.Entry, 0, len(candidates))
	for _, c := range candidates {
		e := r.repair(c)
		if e.Code == "" {
			continue
		}
		repaired = append(repaired, e)
	}

	merged := Deduplicate(repaired)
	for pair := merged.Oldest(); pair != nil; {
		next := pair.Next()
		if pair.Value.Primary == "" {
			merged.Delete(pair.Key)
		}
		pair = next
	}
	return Finalize(merged)
}
