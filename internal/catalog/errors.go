package catalog

import "fmt"

// FetchError reports a page that could not be downloaded, either because the
// transport failed or because the server answered with a non-2xx status.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// EmptyPageError reports a catalogue page that produced no entries at all.
// It usually means the site markup changed under the extractor.
type EmptyPageError struct {
	URL string
}

func (e *EmptyPageError) Error() string {
	return fmt.Sprintf("catalogue page %s yielded no entries", e.URL)
}
