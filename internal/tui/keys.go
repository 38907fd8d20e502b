package tui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/pders01/timelines/internal/config"
)

type keyMap struct {
	Quit   key.Binding
	Back   key.Binding
	Search key.Binding
	Help   key.Binding
	Open   key.Binding

	NewWorld      key.Binding
	DeleteWorld   key.Binding
	CycleCalendar key.Binding

	NewEvent    key.Binding
	Articles    key.Binding
	Import      key.Binding
	PanLeft     key.Binding
	PanRight    key.Binding
	ZoomIn      key.Binding
	ZoomOut     key.Binding
	First       key.Binding
	Last        key.Binding
	Yank        key.Binding
	NextField   key.Binding
	PrevField   key.Binding
	Save        key.Binding
	DeleteEvent key.Binding
	OpenLink    key.Binding
	Confirm     key.Binding
}

func newKeyMap(k config.KeyConfig) keyMap {
	deleteEvent := "ctrl+" + k.Delete
	return keyMap{
		Quit:   key.NewBinding(key.WithKeys(k.Quit, "ctrl+c"), key.WithHelp(k.Quit, "quit")),
		Back:   key.NewBinding(key.WithKeys(k.Back), key.WithHelp(k.Back, "back")),
		Search: key.NewBinding(key.WithKeys(k.Search), key.WithHelp(k.Search, "search")),
		Help:   key.NewBinding(key.WithKeys(k.Help), key.WithHelp(k.Help, "more")),
		Open:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),

		NewWorld:      key.NewBinding(key.WithKeys(k.NewWorld), key.WithHelp(k.NewWorld, "new world")),
		DeleteWorld:   key.NewBinding(key.WithKeys(k.Delete), key.WithHelp(k.Delete, "delete")),
		CycleCalendar: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "calendar")),

		NewEvent:    key.NewBinding(key.WithKeys(k.NewEvent), key.WithHelp(k.NewEvent, "new event")),
		Articles:    key.NewBinding(key.WithKeys(k.Articles), key.WithHelp(k.Articles, "wiki")),
		Import:      key.NewBinding(key.WithKeys(k.Import), key.WithHelp(k.Import, "import feed")),
		PanLeft:     key.NewBinding(key.WithKeys(k.PanLeft, "left"), key.WithHelp(k.PanLeft, "earlier")),
		PanRight:    key.NewBinding(key.WithKeys(k.PanRight, "right"), key.WithHelp(k.PanRight, "later")),
		ZoomIn:      key.NewBinding(key.WithKeys(k.ZoomIn, "="), key.WithHelp(k.ZoomIn, "zoom in")),
		ZoomOut:     key.NewBinding(key.WithKeys(k.ZoomOut, "_"), key.WithHelp(k.ZoomOut, "zoom out")),
		First:       key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "first")),
		Last:        key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G", "last")),
		Yank:        key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy time")),
		NextField:   key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next")),
		PrevField:   key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab", "prev")),
		Save:        key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "save")),
		DeleteEvent: key.NewBinding(key.WithKeys(deleteEvent), key.WithHelp(deleteEvent, "delete")),
		OpenLink:    key.NewBinding(key.WithKeys("ctrl+o"), key.WithHelp("ctrl+o", "open source")),
		Confirm:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "confirm")),
	}
}

// viewHelp adapts a list of bindings to help.KeyMap.
type viewHelp []key.Binding

func (h viewHelp) ShortHelp() []key.Binding { return h }

func (h viewHelp) FullHelp() [][]key.Binding {
	var cols [][]key.Binding
	for i := 0; i < len(h); i += 4 {
		end := i + 4
		if end > len(h) {
			end = len(h)
		}
		cols = append(cols, h[i:end])
	}
	return cols
}
