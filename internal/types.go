package internal

type Entry struct {
	Code      string
	Primary   string
	Alternate string
}

// CodeRange is the inclusive span of codes a catalogue page claims to document.
type CodeRange struct {
	Start string
	End   string
}

type CatalogueURL struct {
	URL   string
	Range *CodeRange
}

// CodeSortKey orders codes by letter prefix, numeric part and suffix.
// Keys that failed to parse have Valid == false and sort after every valid key.
type CodeSortKey struct {
	Valid  bool
	Prefix string
	Number int
	Suffix string
	Raw    string
}

type PageResult struct {
	URL     string
	Range   *CodeRange
	Entries int
	Index   bool
}

type CrawlResult struct {
	Entries []Entry
	Pages   []PageResult
}

type RunStatus string

const (
	RunOK     RunStatus = "ok"
	RunFailed RunStatus = "failed"
)

type SyncRun struct {
	ID         int
	TraceID    string
	Status     RunStatus
	Pages      int
	Candidates int
	Entries    int
	Error      string
	StartedAt  string
	FinishedAt string
}
