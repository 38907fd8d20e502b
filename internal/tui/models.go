package tui

import (
	"github.com/pders01/timelines/internal/search"
	"github.com/pders01/timelines/internal/storage"
)

type View int

const (
	ViewWorlds View = iota
	ViewNewWorld
	ViewTimeline
	ViewEventForm
	ViewImportFeed
	ViewArticles
	ViewReader
	ViewSearch
	ViewDeleteConfirm
)

func (v View) String() string {
	switch v {
	case ViewWorlds:
		return "worlds"
	case ViewNewWorld:
		return "new world"
	case ViewTimeline:
		return "timeline"
	case ViewEventForm:
		return "event"
	case ViewImportFeed:
		return "import"
	case ViewArticles:
		return "articles"
	case ViewReader:
		return "reader"
	case ViewSearch:
		return "search"
	case ViewDeleteConfirm:
		return "delete"
	}
	return "unknown"
}

type worldsLoadedMsg struct {
	worlds []*storage.World
}

type timelineLoadedMsg struct {
	worldID string
	events  []*storage.Event
	actors  []*storage.Actor
}

type articlesLoadedMsg struct {
	worldID  string
	articles []*storage.Article
}

type articleRenderedMsg struct {
	content string
}

type worldSavedMsg struct {
	world *storage.World
	err   error
}

type worldDeletedMsg struct {
	worldID string
	err     error
}

type eventSavedMsg struct {
	event *storage.Event
	err   error
}

type eventDeletedMsg struct {
	eventID string
	err     error
}

type feedImportedMsg struct {
	worldID string
	title   string
	events  int
	skipped int
	cached  bool
	err     error
}

type searchResultsMsg struct {
	query   string
	results []*search.Result
}

type searchDebounceFireMsg struct {
	seq int
}

type errorMsg struct {
	err error
}
