package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/pders01/timelines/internal/storage"
)

const (
	fieldName = iota
	fieldDescription
	fieldTime
	fieldCount
)

var fieldLabels = [fieldCount]string{"name", "description", "time (minutes)"}

// eventForm edits a new or existing event. Time is entered in minutes since
// the world's origin and previewed in the world's calendar.
type eventForm struct {
	event  *storage.Event
	inputs []textinput.Model
	focus  int
}

func newEventForm(ev *storage.Event, ts int64) *eventForm {
	inputs := make([]textinput.Model, fieldCount)
	for i := range inputs {
		ti := textinput.New()
		ti.CharLimit = 256
		ti.Prompt = ""
		inputs[i] = ti
	}
	inputs[fieldName].Placeholder = "What happened?"
	inputs[fieldDescription].Placeholder = "Details (markdown)"
	inputs[fieldDescription].CharLimit = 4096
	inputs[fieldTime].Placeholder = "0"
	inputs[fieldTime].CharLimit = 20

	if ev != nil {
		inputs[fieldName].SetValue(ev.Name)
		inputs[fieldDescription].SetValue(ev.Description)
		ts = ev.Timestamp
	}
	inputs[fieldTime].SetValue(strconv.FormatInt(ts, 10))
	inputs[fieldName].Focus()

	return &eventForm{event: ev, inputs: inputs}
}

func (f *eventForm) isNew() bool { return f.event == nil }

// move shifts focus by delta fields, wrapping around.
func (f *eventForm) move(delta int) {
	f.inputs[f.focus].Blur()
	f.focus = (f.focus + delta + fieldCount) % fieldCount
	f.inputs[f.focus].Focus()
}

func (f *eventForm) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

func (f *eventForm) timestamp() (int64, error) {
	raw := strings.TrimSpace(f.inputs[fieldTime].Value())
	ts, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("time %q is not a whole number of minutes", raw)
	}
	if ts < 0 {
		return 0, errors.New("time cannot be before the world's origin")
	}
	return ts, nil
}

// build returns the event to save. Existing events are copied so a failed
// save leaves the timeline untouched.
func (f *eventForm) build(worldID string) (*storage.Event, error) {
	name := strings.TrimSpace(f.inputs[fieldName].Value())
	if name == "" {
		return nil, errors.New("event name cannot be empty")
	}
	ts, err := f.timestamp()
	if err != nil {
		return nil, err
	}

	ev := &storage.Event{WorldID: worldID}
	if f.event != nil {
		cp := *f.event
		ev = &cp
	}
	ev.Name = name
	ev.Description = strings.TrimSpace(f.inputs[fieldDescription].Value())
	ev.Timestamp = ts
	return ev, nil
}

func (f *eventForm) view(a *App) string {
	title := "› new event"
	if !f.isNew() {
		title = "› edit event"
	}
	width := a.width - 8
	if width < 20 {
		width = a.width
	}

	rows := []string{renderHeader(title, a.currentWorld.Name, a.width), ""}
	for i, in := range f.inputs {
		in.Width = width
		label := renderMuted(fieldLabels[i])
		if i == f.focus {
			label = HeaderStyle.Render(fieldLabels[i])
		}
		rows = append(rows, label, renderInputFrame(in.View(), i == f.focus, width))
	}

	preview := ""
	if ts, err := f.timestamp(); err != nil {
		preview = StatusErrorStyle.Render(err.Error())
	} else if a.timeline != nil {
		preview = TimeStyle.Render("at " + a.timeline.cal.Format(ts))
	}
	rows = append(rows, preview, "")

	hint := "enter: save • tab: next field • esc: cancel"
	if !f.isNew() {
		hint += " • " + a.keyHandler.keys.DeleteEvent.Help().Key + ": delete"
		if f.event.SourceURL != "" {
			hint += " • " + a.keyHandler.keys.OpenLink.Help().Key + ": open source"
		}
	}
	rows = append(rows, renderHelp(hint))
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (a *App) openEventForm(ev *storage.Event, ts int64) {
	a.form = newEventForm(ev, ts)
	a.view = ViewEventForm
}

func (a *App) openSource(ev *storage.Event) {
	if ev == nil || ev.SourceURL == "" {
		a.setStatus(MsgNoSourceLink, StatusInfo)
		return
	}
	if err := a.launcher.Open(ev.SourceURL); err != nil {
		a.setError(err)
		return
	}
	a.setStatus(MsgOpened(ev.SourceURL), StatusSuccess)
}
