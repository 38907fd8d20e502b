package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pders01/timelines/internal/debuglog"
	"github.com/pders01/timelines/internal/search"
	"github.com/pders01/timelines/internal/storage"
)

// wrapErr formats an error with a contextual prefix.
func wrapErr(context string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", context, err)
}

func (a *App) loadWorlds() tea.Cmd {
	return func() tea.Msg {
		worlds, err := a.store.GetAllWorlds()
		if err != nil {
			return errorMsg{err: wrapErr("loading worlds", err)}
		}
		return worldsLoadedMsg{worlds: worlds}
	}
}

func (a *App) loadTimeline(worldID string) tea.Cmd {
	return func() tea.Msg {
		events, err := a.store.GetEvents(worldID)
		if err != nil {
			return errorMsg{err: wrapErr("loading events", err)}
		}
		actors, err := a.store.GetActors(worldID)
		if err != nil {
			return errorMsg{err: wrapErr("loading actors", err)}
		}
		return timelineLoadedMsg{worldID: worldID, events: events, actors: actors}
	}
}

func (a *App) loadArticles(worldID string) tea.Cmd {
	return func() tea.Msg {
		articles, err := a.store.GetArticles(worldID)
		if err != nil {
			return errorMsg{err: wrapErr("loading articles", err)}
		}
		return articlesLoadedMsg{worldID: worldID, articles: articles}
	}
}

func (a *App) renderArticle(article *storage.Article) tea.Cmd {
	return func() tea.Msg {
		var content strings.Builder
		content.WriteString(fmt.Sprintf("# %s\n\n", article.Name))
		if !article.UpdatedAt.IsZero() {
			content.WriteString(fmt.Sprintf("*Updated %s*\n\n", article.UpdatedAt.Format("Jan 2, 2006 15:04")))
		}
		content.WriteString("---\n\n")
		content.WriteString(article.Content)

		r, err := a.getRenderer()
		if err != nil {
			return articleRenderedMsg{content: "Error initializing renderer: " + err.Error()}
		}
		rendered, err := r.Render(content.String())
		if err != nil {
			return articleRenderedMsg{content: fmt.Sprintf("Failed to render article: %s\n\nPress Escape to go back.", err)}
		}
		return articleRenderedMsg{content: rendered}
	}
}

// openArticle loads an article by ID, for search results.
func (a *App) openArticle(id string) tea.Cmd {
	return func() tea.Msg {
		article, err := a.store.GetArticle(id)
		if err != nil {
			return errorMsg{err: wrapErr("loading article", err)}
		}
		return a.renderArticle(article)()
	}
}

func (a *App) createWorld(name, cal string) tea.Cmd {
	return func() tea.Msg {
		world := &storage.World{Name: strings.TrimSpace(name), Calendar: cal}
		if err := a.store.SaveWorld(world); err != nil {
			return worldSavedMsg{err: wrapErr("creating world", err)}
		}
		debuglog.WithFields(map[string]any{"world": world.ID, "calendar": cal}).Infof("created world %q", world.Name)
		return worldSavedMsg{world: world}
	}
}

func (a *App) deleteWorld(id string) tea.Cmd {
	return func() tea.Msg {
		if err := a.store.DeleteWorld(id); err != nil {
			return worldDeletedMsg{worldID: id, err: wrapErr("deleting world", err)}
		}
		search.NotifyDeleted(a.searcher, id)
		return worldDeletedMsg{worldID: id}
	}
}

func (a *App) saveEvent(ev *storage.Event) tea.Cmd {
	return func() tea.Msg {
		if err := a.store.SaveEvent(ev); err != nil {
			return eventSavedMsg{err: wrapErr("saving event", err)}
		}
		search.Notify(a.searcher, ev.WorldID)
		return eventSavedMsg{event: ev}
	}
}

func (a *App) deleteEvent(ev *storage.Event) tea.Cmd {
	return func() tea.Msg {
		if err := a.store.DeleteEvent(ev.ID); err != nil {
			return eventDeletedMsg{eventID: ev.ID, err: wrapErr("deleting event", err)}
		}
		search.Notify(a.searcher, ev.WorldID)
		return eventDeletedMsg{eventID: ev.ID}
	}
}

func (a *App) importFeed(worldID, url string) tea.Cmd {
	return func() tea.Msg {
		res, err := a.importer.ImportFeed(context.Background(), worldID, url)
		if err != nil {
			return feedImportedMsg{worldID: worldID, err: wrapErr("importing feed", err)}
		}
		return feedImportedMsg{
			worldID: worldID,
			title:   res.Title,
			events:  res.Events,
			skipped: res.Skipped,
			cached:  res.NotModified,
		}
	}
}

func (a *App) performSearch(query string) tea.Cmd {
	limit := a.config.Search.Limit
	return func() tea.Msg {
		results, err := a.searcher.Search(query, limit)
		if err != nil {
			return errorMsg{err: wrapErr("search", err)}
		}
		return searchResultsMsg{query: query, results: results}
	}
}
