package pipeline

import (
	"fmt"
	"os"

	"mkbscrape/internal"
)

// ExtractEntriesFromInput runs the strategies and the reconciler over one
// page that is already on hand, either a file path or raw HTML.
func ExtractEntriesFromInput(inputType, input string, vocab Vocabulary) ([]internal.Entry, error) {
	var raw []byte
	switch inputType {
	case "file":
		blob, err := os.ReadFile(input)
		if err != nil {
			return nil, err
		}
		raw = blob
	case "html":
		raw = []byte(input)
	default:
		return nil, fmt.Errorf("unsupported input type: %s", inputType)
	}

	doc, err := ParseHTML(raw)
	if err != nil {
		return nil, err
	}
	candidates := NewExtractor(vocab).ExtractEntries(doc)
	return NewReconciler(vocab.Labels).Reconcile(candidates), nil
}
