package tui

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/timelines/internal/config"
	"github.com/pders01/timelines/internal/storage"
)

func newTestApp(t *testing.T) (*App, *storage.Store) {
	t.Helper()
	cfg := config.TestConfig(t.TempDir())
	store, err := storage.NewStore(cfg.Database.Path)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	app := NewApp(store, cfg, nil)
	t.Cleanup(app.Close)
	app.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return app, store
}

func seedWorld(t *testing.T, store *storage.Store, name string) *storage.World {
	t.Helper()
	world := &storage.World{Name: name, Calendar: "countup"}
	require.NoError(t, store.SaveWorld(world))
	return world
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// deliver runs a store-backed command and feeds its message back.
func deliver(t *testing.T, app *App, cmd tea.Cmd) tea.Cmd {
	t.Helper()
	require.NotNil(t, cmd)
	_, next := app.Update(cmd())
	return next
}

// openWorld loads the world list and opens world's timeline with its data.
func openWorld(t *testing.T, app *App, world *storage.World) {
	t.Helper()
	deliver(t, app, app.loadWorlds())
	cmd := app.openTimeline(world)
	require.NotNil(t, app.timeline)
	deliver(t, app, cmd)
}

func TestNewApp(t *testing.T) {
	app, _ := newTestApp(t)

	assert.Equal(t, ViewWorlds, app.view)
	assert.NotNil(t, app.keyHandler)
	assert.NotNil(t, app.searcher)
	assert.NotNil(t, app.importer)
	assert.Nil(t, app.timeline)
}

func TestViewStateTransitions(t *testing.T) {
	tests := []struct {
		name         string
		initialView  View
		msg          tea.Msg
		expectedView View
		setupFunc    func(*testing.T, *App, *storage.Store)
	}{
		{
			name:         "worlds to new world on 'n'",
			initialView:  ViewWorlds,
			msg:          keyRunes("n"),
			expectedView: ViewNewWorld,
		},
		{
			name:         "new world to worlds on escape",
			initialView:  ViewNewWorld,
			msg:          tea.KeyMsg{Type: tea.KeyEsc},
			expectedView: ViewWorlds,
		},
		{
			name:         "worlds to delete confirm on 'x'",
			initialView:  ViewWorlds,
			msg:          keyRunes("x"),
			expectedView: ViewDeleteConfirm,
			setupFunc: func(t *testing.T, a *App, s *storage.Store) {
				seedWorld(t, s, "Aldmere")
				deliver(t, a, a.loadWorlds())
			},
		},
		{
			name:         "delete confirm to worlds on escape",
			initialView:  ViewDeleteConfirm,
			msg:          tea.KeyMsg{Type: tea.KeyEsc},
			expectedView: ViewWorlds,
		},
		{
			name:         "worlds to timeline on enter",
			initialView:  ViewWorlds,
			msg:          tea.KeyMsg{Type: tea.KeyEnter},
			expectedView: ViewTimeline,
			setupFunc: func(t *testing.T, a *App, s *storage.Store) {
				seedWorld(t, s, "Aldmere")
				deliver(t, a, a.loadWorlds())
			},
		},
		{
			name:         "timeline to worlds on escape",
			initialView:  ViewTimeline,
			msg:          tea.KeyMsg{Type: tea.KeyEsc},
			expectedView: ViewWorlds,
			setupFunc: func(t *testing.T, a *App, s *storage.Store) {
				openWorld(t, a, seedWorld(t, s, "Aldmere"))
			},
		},
		{
			name:         "timeline to event form on 'n'",
			initialView:  ViewTimeline,
			msg:          keyRunes("n"),
			expectedView: ViewEventForm,
			setupFunc: func(t *testing.T, a *App, s *storage.Store) {
				openWorld(t, a, seedWorld(t, s, "Aldmere"))
			},
		},
		{
			name:         "event form to timeline on escape",
			initialView:  ViewEventForm,
			msg:          tea.KeyMsg{Type: tea.KeyEsc},
			expectedView: ViewTimeline,
			setupFunc: func(t *testing.T, a *App, s *storage.Store) {
				openWorld(t, a, seedWorld(t, s, "Aldmere"))
				a.openEventForm(nil, 0)
			},
		},
		{
			name:         "timeline to articles on 'a'",
			initialView:  ViewTimeline,
			msg:          keyRunes("a"),
			expectedView: ViewArticles,
			setupFunc: func(t *testing.T, a *App, s *storage.Store) {
				openWorld(t, a, seedWorld(t, s, "Aldmere"))
			},
		},
		{
			name:         "timeline to import on 'i'",
			initialView:  ViewTimeline,
			msg:          keyRunes("i"),
			expectedView: ViewImportFeed,
			setupFunc: func(t *testing.T, a *App, s *storage.Store) {
				openWorld(t, a, seedWorld(t, s, "Aldmere"))
			},
		},
		{
			name:         "articles to timeline on escape",
			initialView:  ViewArticles,
			msg:          tea.KeyMsg{Type: tea.KeyEsc},
			expectedView: ViewTimeline,
			setupFunc: func(t *testing.T, a *App, s *storage.Store) {
				openWorld(t, a, seedWorld(t, s, "Aldmere"))
			},
		},
		{
			name:         "worlds to search on '/'",
			initialView:  ViewWorlds,
			msg:          keyRunes("/"),
			expectedView: ViewSearch,
		},
		{
			name:         "search back to previous view on escape",
			initialView:  ViewSearch,
			msg:          tea.KeyMsg{Type: tea.KeyEsc},
			expectedView: ViewWorlds,
			setupFunc: func(t *testing.T, a *App, s *storage.Store) {
				a.previousView = ViewWorlds
				a.searchInput.Focus()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, store := newTestApp(t)
			if tt.setupFunc != nil {
				tt.setupFunc(t, app, store)
			}
			app.view = tt.initialView

			model, _ := app.Update(tt.msg)
			assert.Equal(t, tt.expectedView, model.(*App).view)
		})
	}
}

func TestCreateWorld(t *testing.T) {
	app, store := newTestApp(t)

	app.Update(keyRunes("n"))
	require.Equal(t, ViewNewWorld, app.view)

	app.Update(keyRunes("Aldmere"))
	app.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, "earth", app.selectedCalendar())

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	deliver(t, app, cmd)

	worlds, err := store.GetAllWorlds()
	require.NoError(t, err)
	require.Len(t, worlds, 1)
	assert.Equal(t, "Aldmere", worlds[0].Name)
	assert.Equal(t, "earth", worlds[0].Calendar)

	assert.Equal(t, ViewTimeline, app.view)
	require.NotNil(t, app.timeline)
	assert.Equal(t, worlds[0].ID, app.timeline.world.ID)
	assert.Equal(t, MsgWorldCreated("Aldmere", "earth"), app.status)
}

func TestDeleteWorld(t *testing.T) {
	app, store := newTestApp(t)
	world := seedWorld(t, store, "Doomed")
	require.NoError(t, store.SaveEvent(&storage.Event{WorldID: world.ID, Name: "End", Timestamp: 5}))
	deliver(t, app, app.loadWorlds())

	app.Update(keyRunes("x"))
	require.Equal(t, ViewDeleteConfirm, app.view)
	assert.Equal(t, world.ID, app.worldToDelete.ID)
	assert.Contains(t, app.View(), "Doomed")

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	reload := deliver(t, app, cmd)
	deliver(t, app, reload)

	assert.Equal(t, ViewWorlds, app.view)
	assert.Empty(t, app.worlds)
	assert.Equal(t, MsgWorldDeleted, app.status)
	events, _ := store.GetEvents(world.ID)
	assert.Empty(t, events)
}

func TestEventFormSaveAndDelete(t *testing.T) {
	app, store := newTestApp(t)
	world := seedWorld(t, store, "Aldmere")
	openWorld(t, app, world)

	app.Update(keyRunes("n"))
	require.Equal(t, ViewEventForm, app.view)
	require.True(t, app.form.isNew())

	app.form.inputs[fieldName].SetValue("Coronation")
	app.form.inputs[fieldTime].SetValue("120")
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	reload := deliver(t, app, cmd)
	deliver(t, app, reload)

	assert.Equal(t, ViewTimeline, app.view)
	assert.Nil(t, app.form)
	assert.Equal(t, MsgEventSaved("Coronation"), app.status)
	require.Len(t, app.timeline.events, 1)
	ev := app.timeline.events[0]
	assert.Equal(t, int64(120), ev.Timestamp)
	assert.Equal(t, world.ID, ev.WorldID)

	app.openEventForm(ev, ev.Timestamp)
	assert.Equal(t, "120", app.form.inputs[fieldTime].Value())
	_, cmd = app.Update(tea.KeyMsg{Type: tea.KeyCtrlX})
	reload = deliver(t, app, cmd)
	deliver(t, app, reload)

	assert.Equal(t, MsgEventDeleted, app.status)
	assert.Empty(t, app.timeline.events)
	events, err := store.GetEvents(world.ID)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestEventFormValidation(t *testing.T) {
	app, store := newTestApp(t)
	openWorld(t, app, seedWorld(t, store, "Aldmere"))
	app.openEventForm(nil, 10)

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Equal(t, ViewEventForm, app.view)
	require.Error(t, app.err)
	assert.Contains(t, app.err.Error(), "name")

	app.form.inputs[fieldName].SetValue("Siege")
	app.form.inputs[fieldTime].SetValue("soon")
	_, cmd = app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	require.Error(t, app.err)
	assert.Contains(t, app.err.Error(), "minutes")
	assert.Contains(t, app.View(), "✗")
}

func TestSearchOpensEventOnTimeline(t *testing.T) {
	app, store := newTestApp(t)
	world := seedWorld(t, store, "Aldmere")
	require.NoError(t, store.SaveEvent(&storage.Event{WorldID: world.ID, Name: "Coronation", Timestamp: 300}))
	deliver(t, app, app.loadWorlds())

	app.Update(keyRunes("/"))
	require.Equal(t, ViewSearch, app.view)
	require.True(t, app.searchInput.Focused())

	app.Update(keyRunes("coronation"))
	assert.Equal(t, "coronation", app.searchInput.Value())

	// A stale debounce tick does nothing.
	_, cmd := app.Update(searchDebounceFireMsg{seq: app.searchSeq - 1})
	assert.Nil(t, cmd)

	_, cmd = app.Update(searchDebounceFireMsg{seq: app.searchSeq})
	deliver(t, app, cmd)
	require.Len(t, app.searchList.Items(), 1)
	assert.Equal(t, MsgResultsCount(1), app.status)

	_, cmd = app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, app.timeline)
	assert.Equal(t, ViewTimeline, app.view)
	deliver(t, app, cmd)

	require.NotNil(t, app.timeline.selected)
	assert.Equal(t, int64(300), *app.timeline.selected)
	assert.Nil(t, app.pendingFocus)
	assert.InDelta(t, float64(app.width)/3, app.timeline.engine.ColumnOf(300), 1e-9)
}

func TestArticlesAndReader(t *testing.T) {
	app, store := newTestApp(t)
	world := seedWorld(t, store, "Aldmere")
	require.NoError(t, store.SaveArticle(&storage.Article{WorldID: world.ID, Name: "History", Content: "# Founding\n\nThe city was founded."}))
	openWorld(t, app, world)

	_, cmd := app.Update(keyRunes("a"))
	require.Equal(t, ViewArticles, app.view)
	deliver(t, app, cmd)
	require.Len(t, app.articleList.Items(), 1)
	assert.Equal(t, "History", app.articleList.Items()[0].(articleItem).Title())

	_, cmd = app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, ViewReader, app.view)
	assert.True(t, app.loadingArticle)
	deliver(t, app, cmd)
	assert.False(t, app.loadingArticle)
	assert.Contains(t, app.View(), "founded")

	app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ViewArticles, app.view)
}

const importRSS = `<?xml version="1.0"?>
<rss version="2.0"><channel><title>Chronicle</title>
<item><title>First entry</title><guid>1</guid><pubDate>Mon, 02 Jan 2006 15:04:05 GMT</pubDate></item>
<item><title>Second entry</title><guid>2</guid><pubDate>Tue, 03 Jan 2006 15:04:05 GMT</pubDate></item>
</channel></rss>`

func TestImportFeedFromTimeline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, importRSS)
	}))
	defer server.Close()

	app, store := newTestApp(t)
	world := &storage.World{Name: "Earth", Calendar: "earth"}
	require.NoError(t, store.SaveWorld(world))
	openWorld(t, app, world)

	app.Update(keyRunes("i"))
	require.Equal(t, ViewImportFeed, app.view)
	app.urlInput.SetValue(server.URL)

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, MsgImporting, app.status)
	reload := deliver(t, app, cmd)
	require.NoError(t, app.err)
	deliver(t, app, reload)

	assert.Equal(t, ViewTimeline, app.view)
	assert.Equal(t, MsgImportSummary("Chronicle", 2, 0, false), app.status)
	assert.Len(t, app.timeline.events, 2)
}

func TestWorldListItems(t *testing.T) {
	app, store := newTestApp(t)
	seedWorld(t, store, "beta")
	seedWorld(t, store, "Alpha")
	deliver(t, app, app.loadWorlds())

	items := app.worldList.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "Alpha", items[0].(worldItem).Title())
	assert.Contains(t, items[0].(worldItem).Description(), "countup calendar")
	assert.NotContains(t, app.View(), "create your first world")
}

func TestWelcomeScreenWithoutWorlds(t *testing.T) {
	app, _ := newTestApp(t)
	deliver(t, app, app.loadWorlds())

	assert.Contains(t, app.View(), "Press n to create your first world")
}

func TestStatusBar(t *testing.T) {
	app, _ := newTestApp(t)

	bar := app.renderStatusBar()
	assert.Contains(t, bar, "new world")

	app.setStatus("All good", StatusSuccess)
	assert.Contains(t, app.renderStatusBar(), "All good")

	app.setError(fmt.Errorf("disk full"))
	bar = app.renderStatusBar()
	assert.Contains(t, bar, "✗ disk full")
	assert.Empty(t, app.status)

	app.setStatus("Recovered", StatusInfo)
	assert.NoError(t, app.err)
}

func TestSearchResultItem(t *testing.T) {
	app, store := newTestApp(t)
	world := seedWorld(t, store, "Aldmere")
	require.NoError(t, store.SaveEvent(&storage.Event{WorldID: world.ID, Name: "Coronation", Description: "Crowned at dawn", Timestamp: 60}))
	deliver(t, app, app.loadWorlds())

	results, err := app.searcher.Search("coronation", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)

	item := searchResultItem{result: results[0], world: app.worldByID(world.ID)}
	assert.Contains(t, item.Title(), "Coronation")
	desc := item.Description()
	assert.Contains(t, desc, "in Aldmere")
	assert.Contains(t, desc, "Day 1, 01:00")

	app.view = ViewSearch
	app.searchInput.SetValue("coronation")
	_, cmd := app.Update(searchResultsMsg{query: "coronation", results: results})
	_ = cmd
	assert.Len(t, app.searchList.Items(), 1)

	// Results for an outdated query are dropped.
	app.searchList.SetItems([]list.Item{})
	app.Update(searchResultsMsg{query: "coro", results: results})
	assert.Empty(t, app.searchList.Items())
}
