package tui

import (
	"fmt"
	"strings"
)

// StatusKind indicates severity for status messages.
type StatusKind int

const (
	StatusInfo StatusKind = iota
	StatusSuccess
	StatusWarn
	StatusError
)

// Canonical short status messages used across the app.
const (
	MsgCreatingWorld   = "Creating world…"
	MsgDeleting        = "Deleting…"
	MsgSavingEvent     = "Saving event…"
	MsgImporting       = "Importing feed…"
	MsgLoadingArticle  = "Loading article…"
	MsgNoResults       = "No results"
	MsgWorldDeleted    = "World deleted"
	MsgEventDeleted    = "Event deleted"
	MsgNoEvents        = "No events yet"
	MsgNoSourceLink    = "Event has no source link"
	MsgNothingSelected = "Click the ruler to select a time first"
)

func MsgWorldCreated(name, cal string) string {
	return fmt.Sprintf("Created world '%s' (%s calendar)", strings.TrimSpace(name), cal)
}

func MsgEventSaved(name string) string {
	return fmt.Sprintf("Saved '%s'", strings.TrimSpace(name))
}

func MsgCopied(text string) string {
	return "Copied " + text
}

func MsgOpened(link string) string {
	return "Opened " + link
}

func MsgSelected(formatted string) string {
	return "Selected " + formatted
}

func MsgResultsCount(n int) string {
	if n == 1 {
		return "1 result"
	}
	return fmt.Sprintf("%d results", n)
}

func MsgImportSummary(title string, events, skipped int, cached bool) string {
	if cached {
		return "Feed unchanged since last import"
	}
	if title == "" {
		title = "feed"
	}
	base := fmt.Sprintf("Imported '%s': %d events", strings.TrimSpace(title), events)
	if skipped > 0 {
		base += fmt.Sprintf(" • %d undated skipped", skipped)
	}
	return base
}
