package search

// Kind tells which store entity a Result points at.
type Kind string

const (
	KindEvent   Kind = "event"
	KindActor   Kind = "actor"
	KindArticle Kind = "article"
)

// Result is one search hit.
type Result struct {
	Kind    Kind
	ID      string
	WorldID string
	Title   string
	Snippet string
	// Timestamp is only meaningful for events.
	Timestamp int64
	Score     float64
	Matches   []Match
}

// Match records which field of a hit matched and how much it weighed.
type Match struct {
	Field  string
	Text   string
	Weight float64
}

// Searcher defines the minimal search API used by the TUI.
type Searcher interface {
	Search(query string, limit int) ([]*Result, error)
}

// UpdateListener is implemented by engines that keep an external index and
// need to hear about changes to a world's events, actors or articles.
type UpdateListener interface {
	OnDataUpdated(worldID string) error
}

// DeleteListener is notified when a world and everything it owns is gone.
type DeleteListener interface {
	OnWorldDeleted(worldID string) error
}

// DebugStatser reports index sizes for the status bar.
type DebugStatser interface {
	DocCount() (int, error)
}
