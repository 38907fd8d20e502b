package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/pders01/timelines/internal/calendar"
	"github.com/pders01/timelines/internal/config"
	"github.com/pders01/timelines/internal/debuglog"
	"github.com/pders01/timelines/internal/importer"
	"github.com/pders01/timelines/internal/media"
	"github.com/pders01/timelines/internal/search"
	"github.com/pders01/timelines/internal/storage"
)

type App struct {
	config     *config.Config
	store      *storage.Store
	searcher   search.Searcher
	importer   *importer.Manager
	launcher   *media.Launcher
	sched      *teaScheduler
	keyHandler *KeyHandler

	worldList   list.Model
	articleList list.Model
	searchList  list.Model
	searchInput textinput.Model
	worldInput  textinput.Model
	urlInput    textinput.Model
	viewport    viewport.Model
	help        help.Model

	view           View
	previousView   View
	cameFromSearch bool

	worlds         []*storage.World
	currentWorld   *storage.World
	worldToDelete  *storage.World
	newWorldCal    int
	timeline       *timeline
	form           *eventForm
	pendingFocus   *int64
	articles       []*storage.Article
	currentArticle *storage.Article
	loadingArticle bool
	searchSeq      int

	status     string
	statusKind StatusKind
	err        error

	width           int
	height          int
	glamourRenderer *glamour.TermRenderer
	rendererWidth   int
}

// NewApp builds the root model. A nil searcher falls back to the in-process
// search engine.
func NewApp(store *storage.Store, cfg *config.Config, searcher search.Searcher) *App {
	if searcher == nil {
		searcher = search.NewEngine(store)
	}
	ApplyTheme(cfg.UI.Colors)

	worldList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	worldList.Title = "› worlds"
	worldList.SetShowStatusBar(false)
	worldList.SetFilteringEnabled(false)
	worldList.SetShowHelp(false)

	articleList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	articleList.Title = "› wiki"
	articleList.SetShowStatusBar(false)
	articleList.SetFilteringEnabled(false)
	articleList.SetShowHelp(false)

	searchList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	searchList.Title = "› results"
	searchList.SetShowStatusBar(false)
	searchList.SetFilteringEnabled(false)
	searchList.SetShowHelp(false)

	si := textinput.New()
	si.Placeholder = "Search events, actors and articles..."
	si.CharLimit = maxQueryLength

	wi := textinput.New()
	wi.Placeholder = "World name"
	wi.CharLimit = 128

	ui := textinput.New()
	ui.Placeholder = "https://example.com/feed.xml"
	ui.CharLimit = 2048

	imp := importer.NewManager(store, cfg)
	imp.SetSearcher(searcher)

	app := &App{
		config:      cfg,
		store:       store,
		searcher:    searcher,
		importer:    imp,
		launcher:    media.NewLauncher(cfg.UI.Opener),
		sched:       newTeaScheduler(),
		worldList:   worldList,
		articleList: articleList,
		searchList:  searchList,
		searchInput: si,
		worldInput:  wi,
		urlInput:    ui,
		viewport:    viewport.New(0, 0),
		help:        help.New(),
		view:        ViewWorlds,
	}
	app.keyHandler = NewKeyHandler(app, cfg)
	return app
}

func (a *App) getRenderer() (*glamour.TermRenderer, error) {
	wrap := (a.width * 9) / 10
	if wrap > a.config.UI.WrapMax {
		wrap = a.config.UI.WrapMax
	}
	if wrap < a.config.UI.WrapMin {
		wrap = a.config.UI.WrapMin
	}
	if a.width > 0 && a.width < wrap+4 {
		wrap = max(a.width-4, 20)
	}

	if a.glamourRenderer == nil || abs(a.rendererWidth-wrap) > 10 {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(wrap),
		)
		if err != nil {
			return nil, err
		}
		a.glamourRenderer = r
		a.rendererWidth = wrap
	}
	return a.glamourRenderer, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// Close disposes the timeline engine. Call it after the program exits.
func (a *App) Close() {
	a.closeTimeline()
}

func (a *App) Init() tea.Cmd {
	return a.loadWorlds()
}

// Update handles msg and then hands any navigation timers armed while doing
// so to the runtime.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	model, cmd := a.update(msg)
	if timers := a.sched.Cmds(); len(timers) > 0 {
		return model, tea.Batch(append([]tea.Cmd{cmd}, timers...)...)
	}
	return model, cmd
}

func (a *App) update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.resize(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a.keyHandler.HandleKey(msg)

	case tea.MouseMsg:
		return a, a.handleMouse(msg)

	case timerFiredMsg:
		a.sched.Fire(msg.id)
		return a, nil

	case worldsLoadedMsg:
		a.worlds = msg.worlds
		items := make([]list.Item, len(msg.worlds))
		for i, w := range msg.worlds {
			items[i] = worldItem{world: w}
		}
		return a, a.worldList.SetItems(items)

	case timelineLoadedMsg:
		if a.timeline != nil && a.timeline.world.ID == msg.worldID {
			a.timeline.setData(msg.events, msg.actors)
			a.applyPendingFocus()
		}
		return a, nil

	case articlesLoadedMsg:
		if a.view == ViewArticles && a.currentWorld != nil && a.currentWorld.ID == msg.worldID {
			a.articles = msg.articles
			items := make([]list.Item, len(msg.articles))
			for i, art := range msg.articles {
				items[i] = articleItem{article: art}
			}
			return a, a.articleList.SetItems(items)
		}
		return a, nil

	case articleRenderedMsg:
		if a.view == ViewReader {
			a.viewport.SetContent(msg.content)
			a.viewport.GotoTop()
			a.loadingArticle = false
		}
		return a, nil

	case worldSavedMsg:
		if msg.err != nil {
			a.setError(msg.err)
			return a, nil
		}
		a.setStatus(MsgWorldCreated(msg.world.Name, msg.world.Calendar), StatusSuccess)
		return a, tea.Batch(a.loadWorlds(), a.openTimeline(msg.world))

	case worldDeletedMsg:
		a.worldToDelete = nil
		a.view = ViewWorlds
		if msg.err != nil {
			a.setError(msg.err)
		} else {
			a.setStatus(MsgWorldDeleted, StatusSuccess)
		}
		return a, a.loadWorlds()

	case eventSavedMsg:
		if msg.err != nil {
			a.setError(msg.err)
			return a, nil
		}
		a.form = nil
		a.view = ViewTimeline
		a.setStatus(MsgEventSaved(msg.event.Name), StatusSuccess)
		return a, a.reloadTimeline()

	case eventDeletedMsg:
		a.form = nil
		a.view = ViewTimeline
		if msg.err != nil {
			a.setError(msg.err)
		} else {
			a.setStatus(MsgEventDeleted, StatusSuccess)
		}
		return a, a.reloadTimeline()

	case feedImportedMsg:
		if msg.err != nil {
			a.setError(msg.err)
			return a, nil
		}
		a.view = ViewTimeline
		a.setStatus(MsgImportSummary(msg.title, msg.events, msg.skipped, msg.cached), StatusSuccess)
		return a, a.reloadTimeline()

	case searchDebounceFireMsg:
		if msg.seq != a.searchSeq || a.view != ViewSearch {
			return a, nil
		}
		query := sanitizeSearchInput(a.searchInput.Value())
		if len([]rune(query)) < 2 {
			a.searchList.SetItems([]list.Item{})
			return a, nil
		}
		return a, a.performSearch(query)

	case searchResultsMsg:
		if a.view != ViewSearch || msg.query != sanitizeSearchInput(a.searchInput.Value()) {
			return a, nil
		}
		items := make([]list.Item, len(msg.results))
		for i, r := range msg.results {
			items[i] = searchResultItem{result: r, world: a.worldByID(r.WorldID)}
		}
		if len(items) == 0 {
			a.setStatus(MsgNoResults, StatusWarn)
		} else {
			a.setStatus(MsgResultsCount(len(items)), StatusInfo)
		}
		return a, a.searchList.SetItems(items)

	case errorMsg:
		a.setError(msg.err)
		if a.view == ViewReader {
			a.loadingArticle = false
		}
		return a, nil
	}

	// Anything else (cursor blinks and the like) goes to the active input.
	var cmd tea.Cmd
	switch a.view {
	case ViewSearch:
		a.searchInput, cmd = a.searchInput.Update(msg)
	case ViewNewWorld:
		a.worldInput, cmd = a.worldInput.Update(msg)
	case ViewImportFeed:
		a.urlInput, cmd = a.urlInput.Update(msg)
	case ViewEventForm:
		if a.form != nil {
			cmd = a.form.update(msg)
		}
	}
	return a, cmd
}

func (a *App) resize(width, height int) {
	a.width = width
	a.height = height
	a.help.Width = width

	content := a.contentHeight()
	a.worldList.SetSize(width, content)
	a.articleList.SetSize(width, content)
	a.searchList.SetSize(width, max(content-5, 3))
	a.viewport.Width = width
	a.viewport.Height = content

	inputWidth := width - 8
	if inputWidth < 20 {
		inputWidth = width
	}
	a.searchInput.Width = inputWidth
	a.worldInput.Width = inputWidth
	a.urlInput.Width = inputWidth
}

func (a *App) handleMouse(msg tea.MouseMsg) tea.Cmd {
	switch a.view {
	case ViewTimeline:
		if a.timeline != nil {
			a.handleTimelineMouse(msg)
		}
	case ViewReader:
		var cmd tea.Cmd
		a.viewport, cmd = a.viewport.Update(msg)
		return cmd
	}
	return nil
}

func (a *App) reloadTimeline() tea.Cmd {
	if a.timeline == nil {
		return nil
	}
	return a.loadTimeline(a.timeline.world.ID)
}

// applyPendingFocus scrolls to a search hit once its timeline is loaded.
func (a *App) applyPendingFocus() {
	if a.pendingFocus == nil || a.timeline == nil {
		return
	}
	a.timeline.focus(*a.pendingFocus, float64(a.width)/3)
	a.pendingFocus = nil
}

func (a *App) worldByID(id string) *storage.World {
	for _, w := range a.worlds {
		if w.ID == id {
			return w
		}
	}
	return nil
}

func (a *App) selectedCalendar() string {
	names := calendar.Names()
	return names[a.newWorldCal%len(names)]
}

func (a *App) resetSearch() {
	a.searchSeq++
	a.searchInput.Reset()
	a.searchList.SetItems([]list.Item{})
}

func (a *App) setStatus(text string, kind StatusKind) {
	a.status = text
	a.statusKind = kind
	a.err = nil
}

func (a *App) setError(err error) {
	if err == nil {
		return
	}
	debuglog.Errorf("%v", err)
	a.err = err
	a.status = ""
}

func (a *App) contentHeight() int {
	return max(a.height-1-lipgloss.Height(a.renderStatusBar()), 1)
}

func (a *App) View() string {
	height := a.contentHeight()
	var content string

	switch a.view {
	case ViewWorlds:
		if len(a.worlds) == 0 {
			content = renderCentered(a.width, height, GetWelcomeMessage(a.config.Keys.NewWorld))
		} else {
			content = a.worldList.View()
		}

	case ViewNewWorld:
		content = renderCentered(a.width, height, lipgloss.JoinVertical(
			lipgloss.Center,
			TitleStyle.Render("› new world"),
			"",
			renderInputFrame(a.worldInput.View(), true, a.worldInput.Width),
			"",
			ModalTextStyle.Render("calendar: ")+ModalHilightStyle.Render(a.selectedCalendar()),
			"",
			renderHelp("enter: create • tab: change calendar • esc: cancel"),
		))

	case ViewTimeline:
		if a.timeline != nil {
			content = a.timeline.view(a.width, height)
		}

	case ViewEventForm:
		if a.form != nil {
			content = a.form.view(a)
		}

	case ViewImportFeed:
		content = renderCentered(a.width, height, lipgloss.JoinVertical(
			lipgloss.Center,
			TitleStyle.Render("› import feed"),
			renderMuted("into "+a.currentWorld.Name),
			"",
			renderInputFrame(a.urlInput.View(), true, a.urlInput.Width),
			"",
			renderHelp("enter: import • esc: cancel"),
		))

	case ViewArticles:
		content = a.articleList.View()

	case ViewReader:
		if a.loadingArticle {
			content = renderCentered(a.width, height, renderMuted(MsgLoadingArticle))
		} else {
			content = a.viewport.View()
		}

	case ViewSearch:
		content = a.searchView()

	case ViewDeleteConfirm:
		name := "Unknown world"
		if a.worldToDelete != nil {
			name = a.worldToDelete.Name
		}
		content = renderModal(a.width, height,
			StatusErrorStyle.Render("⚠ Delete World"),
			"",
			ModalTextStyle.Render("Delete this world?"),
			"",
			ModalHilightStyle.Render(truncateEnd(name, max(a.width-10, 10))),
			"",
			renderMuted("This removes its events, actors and wiki."),
			"",
			renderHelp("enter: confirm • esc: cancel"),
		)
	}

	return lipgloss.JoinVertical(
		lipgloss.Top,
		ContentWrapper(a.width, height).Render(content),
		renderSeparator(a.width),
		a.renderStatusBar(),
	)
}

func (a *App) searchView() string {
	header := "› search"
	if a.previousView != ViewWorlds && a.currentWorld != nil {
		header += " • from " + a.currentWorld.Name
	}

	hint := "Type to search • tab/↓: results • esc: back"
	if !a.searchInput.Focused() {
		if len(a.searchList.Items()) > 0 {
			hint = "↑↓: navigate • enter: open • tab: search box • esc: back"
		} else {
			hint = "No results • tab: search box • esc: back"
		}
	}

	return lipgloss.JoinVertical(
		lipgloss.Top,
		HeaderStyle.Render(truncateEnd(header, a.width-2)),
		"",
		renderInputFrame(a.searchInput.View(), a.searchInput.Focused(), a.searchInput.Width),
		renderMuted(hint),
		"",
		a.searchList.View(),
	)
}

func (a *App) renderStatusBar() string {
	bar := lipgloss.NewStyle().Width(a.width).Padding(0, 1)
	if a.err != nil {
		return bar.Render(StatusErrorStyle.Render(fmt.Sprintf("✗ %v", a.err)))
	}
	keys := a.help.View(a.keyHandler.helpFor(a.view))
	if a.status == "" {
		return bar.Render(keys)
	}
	return bar.Render(statusStyle(a.statusKind).Render(a.status) + renderMuted(" • ") + keys)
}

type worldItem struct {
	world *storage.World
}

func (i worldItem) Title() string { return i.world.Name }

func (i worldItem) Description() string {
	desc := strings.TrimSpace(i.world.Description)
	if desc == "" {
		desc = i.world.Calendar + " calendar"
	}
	return renderMuted(truncateEnd(desc, 80)) + TimeStyle.Render(" • "+i.world.CreatedAt.Format("Jan 2, 2006"))
}

func (i worldItem) FilterValue() string { return i.world.Name }

type articleItem struct {
	article *storage.Article
}

func (i articleItem) Title() string { return i.article.Name }

func (i articleItem) Description() string {
	first, _, _ := strings.Cut(strings.TrimSpace(i.article.Content), "\n")
	return renderMuted(truncateEnd(strings.TrimLeft(first, "# "), 80))
}

func (i articleItem) FilterValue() string { return i.article.Name }

type searchResultItem struct {
	result *search.Result
	world  *storage.World
}

var kindGlyphs = map[search.Kind]string{
	search.KindEvent:   "◆ ",
	search.KindActor:   "☺ ",
	search.KindArticle: "📄 ",
}

func (i searchResultItem) Title() string {
	return HeaderStyle.Render(kindGlyphs[i.result.Kind] + i.result.Title)
}

func (i searchResultItem) Description() string {
	parts := []string{truncateEnd(i.result.Snippet, 60)}
	if i.world != nil {
		parts = append(parts, "in "+i.world.Name)
		if i.result.Kind == search.KindEvent {
			if cal, err := calendar.Lookup(i.world.Calendar); err == nil {
				parts = append(parts, calendar.WithOrigin(cal, i.world.TimeOrigin).Format(i.result.Timestamp))
			}
		}
	}
	return renderMuted(strings.Join(parts, " • "))
}

func (i searchResultItem) FilterValue() string { return i.result.Title }
