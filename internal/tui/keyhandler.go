package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/pders01/timelines/internal/calendar"
	"github.com/pders01/timelines/internal/config"
	"github.com/pders01/timelines/internal/search"
)

const (
	searchDebounce = 200 * time.Millisecond
	maxQueryLength = 256
)

type KeyHandler struct {
	app  *App
	keys keyMap
}

func NewKeyHandler(app *App, cfg *config.Config) *KeyHandler {
	return &KeyHandler{app: app, keys: newKeyMap(cfg.Keys)}
}

func (kh *KeyHandler) HandleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if kh.isInTextInputMode() {
		return kh.handleTextInputMode(msg)
	}

	if model, cmd, handled := kh.handleCustomKeys(msg); handled {
		return model, cmd
	}

	return kh.delegateToCharm(msg)
}

func (kh *KeyHandler) isInTextInputMode() bool {
	switch kh.app.view {
	case ViewNewWorld, ViewEventForm, ViewImportFeed:
		return true
	case ViewSearch:
		return kh.app.searchInput.Focused()
	default:
		return false
	}
}

func (kh *KeyHandler) handleTextInputMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return kh.navigateBack()
	case "ctrl+c":
		return kh.app, tea.Quit
	case "enter":
		return kh.handleTextInputEnter()
	}

	switch kh.app.view {
	case ViewEventForm:
		switch {
		case key.Matches(msg, kh.keys.NextField):
			kh.app.form.move(1)
			return kh.app, nil
		case key.Matches(msg, kh.keys.PrevField):
			kh.app.form.move(-1)
			return kh.app, nil
		case key.Matches(msg, kh.keys.DeleteEvent) && !kh.app.form.isNew():
			kh.app.setStatus(MsgDeleting, StatusInfo)
			return kh.app, kh.app.deleteEvent(kh.app.form.event)
		case key.Matches(msg, kh.keys.OpenLink) && !kh.app.form.isNew():
			kh.app.openSource(kh.app.form.event)
			return kh.app, nil
		}
	case ViewNewWorld:
		if key.Matches(msg, kh.keys.CycleCalendar) {
			names := calendar.Names()
			kh.app.newWorldCal = (kh.app.newWorldCal + 1) % len(names)
			return kh.app, nil
		}
	case ViewSearch:
		if msg.String() == "tab" || msg.String() == "down" {
			if len(kh.app.searchList.Items()) > 0 {
				kh.app.searchInput.Blur()
				kh.app.searchList.Select(0)
			}
			return kh.app, nil
		}
	}

	return kh.delegateToTextInput(msg)
}

func (kh *KeyHandler) handleTextInputEnter() (tea.Model, tea.Cmd) {
	a := kh.app
	switch a.view {
	case ViewNewWorld:
		name := strings.TrimSpace(a.worldInput.Value())
		if name == "" {
			return a, nil
		}
		a.setStatus(MsgCreatingWorld, StatusInfo)
		return a, a.createWorld(name, a.selectedCalendar())

	case ViewEventForm:
		ev, err := a.form.build(a.currentWorld.ID)
		if err != nil {
			a.setError(err)
			return a, nil
		}
		a.setStatus(MsgSavingEvent, StatusInfo)
		return a, a.saveEvent(ev)

	case ViewImportFeed:
		input := strings.TrimSpace(a.urlInput.Value())
		if input == "" {
			return a, nil
		}
		a.setStatus(MsgImporting, StatusInfo)
		return a, a.importFeed(a.currentWorld.ID, input)

	case ViewSearch:
		if items := a.searchList.Items(); len(items) > 0 {
			if i, ok := items[0].(searchResultItem); ok {
				return kh.selectSearchResult(i)
			}
		}
		return a, nil
	}
	return a, nil
}

// delegateToTextInput passes the key to the focused text input.
func (kh *KeyHandler) delegateToTextInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app
	var cmd tea.Cmd
	switch a.view {
	case ViewNewWorld:
		a.worldInput, cmd = a.worldInput.Update(msg)
	case ViewImportFeed:
		a.urlInput, cmd = a.urlInput.Update(msg)
	case ViewEventForm:
		cmd = a.form.update(msg)
	case ViewSearch:
		prev := sanitizeSearchInput(a.searchInput.Value())
		a.searchInput, cmd = a.searchInput.Update(msg)
		if query := sanitizeSearchInput(a.searchInput.Value()); query != prev {
			a.searchSeq++
			seq := a.searchSeq
			return a, tea.Batch(cmd, tea.Tick(searchDebounce, func(time.Time) tea.Msg {
				return searchDebounceFireMsg{seq: seq}
			}))
		}
	}
	return a, cmd
}

func (kh *KeyHandler) handleCustomKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	a := kh.app
	switch {
	case key.Matches(msg, kh.keys.Quit):
		return a, tea.Quit, true
	case key.Matches(msg, kh.keys.Back):
		model, cmd := kh.navigateBack()
		return model, cmd, true
	case key.Matches(msg, kh.keys.Search) && a.view != ViewSearch:
		model, cmd := kh.enterSearchMode()
		return model, cmd, true
	case key.Matches(msg, kh.keys.Help):
		a.help.ShowAll = !a.help.ShowAll
		return a, nil, true
	}

	switch a.view {
	case ViewWorlds:
		return kh.handleWorldsKeys(msg)
	case ViewTimeline:
		return kh.handleTimelineKeys(msg)
	case ViewArticles:
		if key.Matches(msg, kh.keys.Open) {
			if i, ok := a.articleList.SelectedItem().(articleItem); ok {
				return a, kh.openReader(i), true
			}
			return a, nil, true
		}
	case ViewSearch:
		switch msg.String() {
		case "enter":
			if i, ok := a.searchList.SelectedItem().(searchResultItem); ok {
				model, cmd := kh.selectSearchResult(i)
				return model, cmd, true
			}
			return a, nil, true
		case "tab", "shift+tab":
			a.searchInput.Focus()
			return a, nil, true
		case "up":
			if a.searchList.Index() == 0 {
				a.searchInput.Focus()
				return a, nil, true
			}
		}
	case ViewDeleteConfirm:
		if key.Matches(msg, kh.keys.Confirm) && a.worldToDelete != nil {
			a.setStatus(MsgDeleting, StatusInfo)
			return a, a.deleteWorld(a.worldToDelete.ID), true
		}
	}
	return a, nil, false
}

func (kh *KeyHandler) handleWorldsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	a := kh.app
	switch {
	case key.Matches(msg, kh.keys.NewWorld):
		a.view = ViewNewWorld
		a.newWorldCal = 0
		a.worldInput.Reset()
		a.worldInput.Focus()
		return a, nil, true
	case key.Matches(msg, kh.keys.DeleteWorld):
		if i, ok := a.worldList.SelectedItem().(worldItem); ok {
			a.worldToDelete = i.world
			a.view = ViewDeleteConfirm
		}
		return a, nil, true
	case key.Matches(msg, kh.keys.Open):
		if i, ok := a.worldList.SelectedItem().(worldItem); ok {
			return a, a.openTimeline(i.world), true
		}
		return a, nil, true
	}
	return a, nil, false
}

func (kh *KeyHandler) handleTimelineKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	a := kh.app
	if a.timeline == nil {
		return a, nil, false
	}
	switch {
	case key.Matches(msg, kh.keys.PanLeft):
		a.panTimeline(-1)
	case key.Matches(msg, kh.keys.PanRight):
		a.panTimeline(1)
	case key.Matches(msg, kh.keys.ZoomIn):
		a.zoomTimeline(-1)
	case key.Matches(msg, kh.keys.ZoomOut):
		a.zoomTimeline(1)
	case key.Matches(msg, kh.keys.First):
		a.jumpToEvent(false)
	case key.Matches(msg, kh.keys.Last):
		a.jumpToEvent(true)
	case key.Matches(msg, kh.keys.Yank):
		a.copySelection()
	case key.Matches(msg, kh.keys.NewEvent):
		ts := int64(a.timeline.engine.SelectedTime(a.centreColumn()))
		if a.timeline.selected != nil {
			ts = *a.timeline.selected
		}
		if ts < 0 {
			ts = 0
		}
		a.openEventForm(nil, ts)
	case key.Matches(msg, kh.keys.Articles):
		a.view = ViewArticles
		a.articleList.Title = "› " + a.currentWorld.Name + " wiki"
		a.articleList.SetItems([]list.Item{})
		return a, a.loadArticles(a.currentWorld.ID), true
	case key.Matches(msg, kh.keys.Import):
		a.view = ViewImportFeed
		a.urlInput.Reset()
		a.urlInput.Focus()
	default:
		return a, nil, false
	}
	return a, nil, true
}

// delegateToCharm lets the active bubbles component handle the key.
func (kh *KeyHandler) delegateToCharm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app
	var cmd tea.Cmd
	switch a.view {
	case ViewWorlds:
		a.worldList, cmd = a.worldList.Update(msg)
	case ViewArticles:
		a.articleList, cmd = a.articleList.Update(msg)
	case ViewReader:
		a.viewport, cmd = a.viewport.Update(msg)
	case ViewSearch:
		a.searchList, cmd = a.searchList.Update(msg)
	}
	return a, cmd
}

func (kh *KeyHandler) openReader(i articleItem) tea.Cmd {
	a := kh.app
	a.currentArticle = i.article
	a.cameFromSearch = false
	a.loadingArticle = true
	a.view = ViewReader
	return a.renderArticle(i.article)
}

func (kh *KeyHandler) selectSearchResult(item searchResultItem) (tea.Model, tea.Cmd) {
	a := kh.app
	r := item.result
	switch r.Kind {
	case search.KindArticle:
		a.currentArticle = nil
		a.cameFromSearch = true
		a.loadingArticle = true
		a.setStatus(MsgLoadingArticle, StatusInfo)
		a.view = ViewReader
		return a, a.openArticle(r.ID)
	}

	world := a.worldByID(r.WorldID)
	if world == nil {
		a.setError(fmt.Errorf("world %s is no longer available", r.WorldID))
		return a, nil
	}
	a.resetSearch()

	if r.Kind == search.KindEvent {
		ts := r.Timestamp
		a.pendingFocus = &ts
	}
	if r.Kind == search.KindActor {
		a.setStatus("Actor: "+r.Title, StatusInfo)
	}
	if a.timeline != nil && a.timeline.world.ID == world.ID {
		a.view = ViewTimeline
		a.applyPendingFocus()
		return a, nil
	}
	return a, a.openTimeline(world)
}

func (kh *KeyHandler) navigateBack() (tea.Model, tea.Cmd) {
	a := kh.app
	switch a.view {
	case ViewNewWorld, ViewDeleteConfirm:
		a.view = ViewWorlds
		a.worldToDelete = nil
		return a, nil

	case ViewTimeline:
		a.closeTimeline()
		a.currentWorld = nil
		a.view = ViewWorlds
		return a, a.loadWorlds()

	case ViewEventForm, ViewImportFeed, ViewArticles:
		a.form = nil
		a.view = ViewTimeline
		return a, nil

	case ViewReader:
		if a.cameFromSearch {
			a.cameFromSearch = false
			a.view = ViewSearch
			a.searchInput.Blur()
			return a, nil
		}
		a.view = ViewArticles
		return a, nil

	case ViewSearch:
		a.view = a.previousView
		a.resetSearch()
		return a, nil

	default:
		return a, tea.Quit
	}
}

func (kh *KeyHandler) enterSearchMode() (tea.Model, tea.Cmd) {
	a := kh.app
	if a.view == ViewReader && a.cameFromSearch {
		a.previousView = ViewWorlds
	} else {
		a.previousView = a.view
	}
	a.view = ViewSearch
	a.resetSearch()
	a.searchInput.Focus()

	engineName := fmt.Sprintf("%T", a.searcher)
	if ds, ok := a.searcher.(search.DebugStatser); ok {
		if n, err := ds.DocCount(); err == nil {
			a.setStatus(fmt.Sprintf("Search: %s • idx: %d", engineName, n), StatusInfo)
			return a, nil
		}
	}
	a.setStatus("Search: "+engineName, StatusInfo)
	return a, nil
}

// helpFor lists the bindings shown in the status bar for a view.
func (kh *KeyHandler) helpFor(v View) viewHelp {
	k := kh.keys
	switch v {
	case ViewWorlds:
		h := viewHelp{k.Open, k.NewWorld}
		if len(kh.app.worlds) > 0 {
			h = append(h, k.DeleteWorld)
		}
		return append(h, k.Search, k.Quit, k.Help)
	case ViewTimeline:
		return viewHelp{k.PanLeft, k.PanRight, k.ZoomIn, k.ZoomOut, k.NewEvent, k.First, k.Last, k.Yank, k.Articles, k.Import, k.Search, k.Back, k.Help}
	case ViewEventForm:
		h := viewHelp{k.Save, k.NextField, k.PrevField}
		if kh.app.form != nil && !kh.app.form.isNew() {
			h = append(h, k.DeleteEvent)
			if kh.app.form.event.SourceURL != "" {
				h = append(h, k.OpenLink)
			}
		}
		return append(h, k.Back)
	case ViewNewWorld:
		return viewHelp{k.Save, k.CycleCalendar, k.Back}
	case ViewImportFeed:
		return viewHelp{k.Confirm, k.Back}
	case ViewArticles:
		return viewHelp{k.Open, k.Search, k.Back}
	case ViewReader:
		return viewHelp{k.Search, k.Back}
	case ViewSearch:
		return viewHelp{k.Open, k.Back}
	case ViewDeleteConfirm:
		return viewHelp{k.Confirm, k.Back}
	}
	return nil
}

// sanitizeSearchInput collapses whitespace and limits the query length.
func sanitizeSearchInput(input string) string {
	input = strings.Join(strings.Fields(input), " ")
	if r := []rune(input); len(r) > maxQueryLength {
		input = string(r[:maxQueryLength])
	}
	return input
}
