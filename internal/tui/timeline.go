package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/pders01/timelines/internal/calendar"
	"github.com/pders01/timelines/internal/navigation"
	"github.com/pders01/timelines/internal/palette"
	"github.com/pders01/timelines/internal/storage"
)

const (
	// firstLaneRow follows the two header rows, the ruler and the tick
	// labels. Event lanes fill the rest of the content area.
	firstLaneRow  = 4
	maxLabelRunes = 24
)

var markerGlyphs = map[string]string{
	"rss":    "◉",
	"battle": "✕",
	"star":   "★",
}

type timeline struct {
	world    *storage.World
	cal      calendar.Calendar
	engine   *navigation.Engine
	events   []*storage.Event
	actors   map[string]*storage.Actor
	selected *int64
	pressed  bool
}

// marker is an event laid out on screen: a glyph at col followed by its
// label, together width cells wide.
type marker struct {
	event *storage.Event
	col   int
	lane  int
	width int
	label string
}

func newTimeline(world *storage.World, cfg navigation.Config, sched navigation.Scheduler, h navigation.Handlers) (*timeline, error) {
	cal, err := calendar.Lookup(world.Calendar)
	if err != nil {
		return nil, err
	}
	engine, err := navigation.New(cfg, sched, h)
	if err != nil {
		return nil, err
	}
	return &timeline{
		world:  world,
		cal:    calendar.WithOrigin(cal, world.TimeOrigin),
		engine: engine,
		actors: map[string]*storage.Actor{},
	}, nil
}

func (t *timeline) setData(events []*storage.Event, actors []*storage.Actor) {
	t.events = events
	t.actors = make(map[string]*storage.Actor, len(actors))
	for _, a := range actors {
		t.actors[a.ID] = a
	}
}

// focus scrolls ts under col and selects it.
func (t *timeline) focus(ts int64, col float64) {
	t.engine.ScrollToTime(float64(ts), col)
	t.selected = &ts
}

// writeClipboard is replaced in tests.
var writeClipboard = clipboard.WriteAll

// copySelection puts the selected time, as the world calendar shows it, on
// the system clipboard.
func (a *App) copySelection() {
	if a.timeline.selected == nil {
		a.setStatus(MsgNothingSelected, StatusInfo)
		return
	}
	text := a.timeline.cal.Format(*a.timeline.selected)
	if err := writeClipboard(text); err != nil {
		a.setError(fmt.Errorf("copying to clipboard: %w", err))
		return
	}
	a.setStatus(MsgCopied(text), StatusSuccess)
}

// layout assigns visible events to lanes, greedily and in time order. Events
// that fit in no lane are counted as hidden.
func (t *timeline) layout(width, lanes int) (markers []marker, hidden int) {
	if lanes < 1 || width < 1 {
		return nil, len(t.events)
	}
	laneEnd := make([]int, lanes)
	for _, ev := range t.events {
		col := int(math.Round(t.engine.ColumnOf(float64(ev.Timestamp))))
		if col < 0 || col >= width {
			continue
		}
		label := truncateEnd(ev.Name, maxLabelRunes)
		if avail := width - col - 2; lipgloss.Width(label) > avail {
			label = truncateEnd(label, avail)
		}
		w := 1
		if label != "" {
			w = 2 + lipgloss.Width(label)
		}

		placed := false
		for lane := range laneEnd {
			if laneEnd[lane] <= col {
				markers = append(markers, marker{event: ev, col: col, lane: lane, width: w, label: label})
				laneEnd[lane] = col + w + 1
				placed = true
				break
			}
		}
		if !placed {
			hidden++
		}
	}
	return markers, hidden
}

// hits returns the markers under screen cell (x, y).
func hits(markers []marker, x, y int) []marker {
	lane := y - firstLaneRow
	var out []marker
	for _, m := range markers {
		if m.lane == lane && x >= m.col && x < m.col+m.width {
			out = append(out, m)
		}
	}
	return out
}

func (t *timeline) eventColor(ev *storage.Event) string {
	for _, id := range ev.ActorIDs {
		if a, ok := t.actors[id]; ok && a.Color != "" {
			if c, err := palette.Normalize(a.Color); err == nil {
				return c
			}
		}
	}
	if len(ev.ActorIDs) > 0 {
		return palette.ForID(ev.ActorIDs[0])
	}
	return palette.ForID(ev.ID)
}

func (t *timeline) zoomLabel() string {
	st := t.engine.State()
	step := st.ScaleScrollHundredths / 100
	if st.IsSwitchingScale {
		return fmt.Sprintf("zoom %d → %d", step, t.engine.TargetScale())
	}
	return fmt.Sprintf("zoom %d • %g min/col", step, st.TimePerPixel)
}

func (t *timeline) renderRuler(width int) (ruler, labels string) {
	rule := newRow(width, '─')
	text := newRow(width, ' ')

	roundTo := t.engine.RoundTo()
	offset := t.engine.VisualOffset()
	tpp := t.engine.TimePerPixel()
	level := t.engine.ScaleLevel()

	type tick struct {
		col int
		ts  int64
	}
	var ticks []tick
	if roundTo > 0 {
		for k := math.Ceil(-offset / roundTo); ; k++ {
			col := int(math.Round(offset + k*roundTo))
			if col >= width {
				break
			}
			if col < 0 {
				continue
			}
			rule[col] = '┬'
			tk := tick{col: col, ts: int64(math.Round(k * roundTo * tpp))}
			if tk.ts == 0 {
				// The origin label wins any overlap.
				ticks = append([]tick{tk}, ticks...)
			} else {
				ticks = append(ticks, tk)
			}
		}
	}
	for _, tk := range ticks {
		label := t.cal.FormatTick(tk.ts, level)
		end := tk.col + len([]rune(label))
		if end <= width && text.free(max(tk.col-1, 0), min(end+1, width), ' ') {
			text.put(tk.col, label)
		}
	}

	ruler = RulerStyle.Render(rule.String())
	if t.selected != nil {
		col := int(math.Round(t.engine.ColumnOf(float64(*t.selected))))
		if col >= 0 && col < width {
			ruler = RulerStyle.Render(string(rule[:col])) +
				CursorStyle.Render("◆") +
				RulerStyle.Render(string(rule[col+1:]))
		}
	}
	return ruler, TickLabelStyle.Render(text.String())
}

func (t *timeline) renderLanes(markers []marker, lanes int) []string {
	rows := make([]string, lanes)
	pos := make([]int, lanes)
	b := make([]strings.Builder, lanes)

	for _, m := range markers {
		sb := &b[m.lane]
		sb.WriteString(strings.Repeat(" ", m.col-pos[m.lane]))

		glyph, ok := markerGlyphs[m.event.Icon]
		if !ok {
			glyph = "●"
		}
		labelStyle := ModalTextStyle
		if t.selected != nil && !m.event.ActiveAt(*t.selected) {
			glyph = "○"
			labelStyle = InactiveStyle
		}
		sb.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(t.eventColor(m.event))).Render(glyph))
		if m.label != "" {
			sb.WriteString(" " + labelStyle.Render(m.label))
		}
		pos[m.lane] = m.col + m.width
	}
	for i := range rows {
		rows[i] = b[i].String()
	}
	return rows
}

// view renders the timeline into width x height cells.
func (t *timeline) view(width, height int) string {
	lanes := height - firstLaneRow
	markers, hidden := t.layout(width, lanes)

	subtitle := t.cal.Name() + " calendar • " + t.zoomLabel()
	if t.selected != nil {
		subtitle += " • " + t.cal.Format(*t.selected)
	}
	if hidden > 0 {
		subtitle += fmt.Sprintf(" • +%d hidden", hidden)
	}

	ruler, labels := t.renderRuler(width)
	rows := []string{renderHeader("› "+t.world.Name, subtitle, width), ruler, labels}

	if len(t.events) == 0 && lanes > 0 {
		rows = append(rows, renderCentered(width, lanes, renderHelp(MsgNoEvents+" • double-click the timeline to add one")))
	} else if lanes > 0 {
		rows = append(rows, t.renderLanes(markers, lanes)...)
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (a *App) openTimeline(world *storage.World) tea.Cmd {
	a.closeTimeline()
	tl, err := newTimeline(world, a.config.NavigationConfig(), a.sched, navigation.Handlers{
		OnClick:       a.onTimeSelected,
		OnDoubleClick: a.onTimeActivated,
	})
	if err != nil {
		a.setError(wrapErr("opening timeline", err))
		return nil
	}
	a.timeline = tl
	a.currentWorld = world
	a.view = ViewTimeline
	return a.loadTimeline(world.ID)
}

// closeTimeline disposes the engine so none of its timers fire afterwards.
func (a *App) closeTimeline() {
	if a.timeline == nil {
		return
	}
	a.timeline.engine.Dispose()
	a.timeline = nil
}

func (a *App) onTimeSelected(t float64) {
	if a.timeline == nil {
		return
	}
	ts := int64(math.Round(t))
	a.timeline.selected = &ts
	a.setStatus(MsgSelected(a.timeline.cal.Format(ts)), StatusInfo)
}

func (a *App) onTimeActivated(t float64) {
	if a.timeline == nil {
		return
	}
	ts := int64(math.Round(t))
	a.timeline.selected = &ts
	a.openEventForm(nil, ts)
}

func (a *App) timelineLanes() int {
	return a.contentHeight() - firstLaneRow
}

func (a *App) handleTimelineMouse(msg tea.MouseMsg) {
	tl := a.timeline
	e := tl.engine
	p := navigation.Point{X: float64(msg.X), Y: float64(msg.Y)}

	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		e.HandleWheel(-1, p.X)
	case msg.Button == tea.MouseButtonWheelDown:
		e.HandleWheel(1, p.X)
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		tl.pressed = true
		e.HandlePointerDown(p)
	case msg.Action == tea.MouseActionMotion:
		e.HandlePointerMove(p)
	case msg.Action == tea.MouseActionRelease:
		if !tl.pressed {
			return
		}
		tl.pressed = false
		e.HandlePointerUp()

		markers, _ := tl.layout(a.width, a.timelineLanes())
		under := hits(markers, msg.X, msg.Y)
		if len(under) > 0 && e.State().CanClick {
			a.openEventForm(under[0].event, under[0].event.Timestamp)
			return
		}
		e.HandleClick(p.X, len(under))
	}
}

// panTimeline moves the view by whole pan steps; positive steps look later.
func (a *App) panTimeline(steps int) {
	a.timeline.engine.PanBy(-float64(steps) * a.config.Navigation.PanStep)
}

// zoomTimeline applies one zoom step at the centre column right away.
func (a *App) zoomTimeline(dir int) {
	e := a.timeline.engine
	e.HandleWheel(float64(dir), a.centreColumn())
	e.FlushScale()
}

func (a *App) centreColumn() float64 {
	return float64(a.width) / 2
}

func (a *App) jumpToEvent(last bool) {
	tl := a.timeline
	if len(tl.events) == 0 {
		a.setStatus(MsgNoEvents, StatusWarn)
		return
	}
	ev := tl.events[0]
	if last {
		ev = tl.events[len(tl.events)-1]
	}
	tl.focus(ev.Timestamp, float64(a.width)/4)
	a.setStatus(MsgSelected(tl.cal.Format(ev.Timestamp)+" • "+ev.Name), StatusInfo)
}
