package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/timelines/internal/navigation"
	"github.com/pders01/timelines/internal/storage"
)

func newTestTimeline(t *testing.T, events ...*storage.Event) *timeline {
	t.Helper()
	world := &storage.World{ID: "w1", Name: "Aldmere", Calendar: "countup"}
	tl, err := newTimeline(world, navigation.DefaultConfig(), newTeaScheduler(), navigation.Handlers{})
	require.NoError(t, err)
	t.Cleanup(tl.engine.Dispose)
	tl.setData(events, nil)
	return tl
}

func ev(id, name string, ts int64) *storage.Event {
	return &storage.Event{ID: id, WorldID: "w1", Name: name, Timestamp: ts}
}

// fireAll runs every armed scheduler timer once, as the runtime would when
// their ticks arrive.
func fireAll(app *App) {
	app.sched.mu.Lock()
	ids := make([]uint64, 0, len(app.sched.live))
	for id := range app.sched.live {
		ids = append(ids, id)
	}
	app.sched.mu.Unlock()
	for _, id := range ids {
		app.Update(timerFiredMsg{id: id})
	}
}

func mouse(x, y int, button tea.MouseButton, action tea.MouseAction) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Button: button, Action: action}
}

func click(app *App, x, y int) {
	app.Update(mouse(x, y, tea.MouseButtonLeft, tea.MouseActionPress))
	app.Update(mouse(x, y, tea.MouseButtonNone, tea.MouseActionRelease))
}

func TestTimelineLayoutLanes(t *testing.T) {
	// Default scroll puts ts 0 at column 10 at one minute per column.
	tl := newTestTimeline(t,
		ev("a", "Alpha", 0),
		ev("b", "Beta", 5),
		ev("c", "Gamma", 6),
		ev("d", "Delta", 20),
		ev("e", "Far", 200),
	)

	markers, hidden := tl.layout(100, 2)
	require.Len(t, markers, 3)
	assert.Equal(t, 1, hidden, "Gamma fits no lane; Far is off screen and not counted")

	assert.Equal(t, "Alpha", markers[0].label)
	assert.Equal(t, 10, markers[0].col)
	assert.Equal(t, 0, markers[0].lane)
	assert.Equal(t, 7, markers[0].width)

	assert.Equal(t, "Beta", markers[1].label)
	assert.Equal(t, 1, markers[1].lane)

	assert.Equal(t, "Delta", markers[2].label)
	assert.Equal(t, 30, markers[2].col)
	assert.Equal(t, 0, markers[2].lane)
}

func TestTimelineLayoutWithoutLanes(t *testing.T) {
	tl := newTestTimeline(t, ev("a", "Alpha", 0), ev("b", "Beta", 5))

	markers, hidden := tl.layout(100, 0)
	assert.Empty(t, markers)
	assert.Equal(t, 2, hidden)
}

func TestTimelineLabelTruncatedAtEdge(t *testing.T) {
	tl := newTestTimeline(t, ev("a", "A rather long event name", 5))

	markers, _ := tl.layout(20, 1)
	require.Len(t, markers, 1)
	assert.Equal(t, 15, markers[0].col)
	assert.LessOrEqual(t, markers[0].col+markers[0].width, 20)
	assert.True(t, strings.HasSuffix(markers[0].label, "…"))
}

func TestHits(t *testing.T) {
	tl := newTestTimeline(t, ev("a", "Alpha", 0), ev("b", "Beta", 5))
	markers, _ := tl.layout(100, 2)

	under := hits(markers, 12, firstLaneRow)
	require.Len(t, under, 1)
	assert.Equal(t, "a", under[0].event.ID)

	under = hits(markers, 15, firstLaneRow+1)
	require.Len(t, under, 1)
	assert.Equal(t, "b", under[0].event.ID)

	assert.Empty(t, hits(markers, 17, firstLaneRow))
	assert.Empty(t, hits(markers, 12, firstLaneRow-1))
}

func TestRenderRuler(t *testing.T) {
	tl := newTestTimeline(t)

	ruler, labels := tl.renderRuler(60)
	// Scroll 10: ticks for -10, 0 ... 40 land on columns 0 .. 50.
	assert.Equal(t, 6, strings.Count(ruler, "┬"))
	assert.Contains(t, labels, "Day 1, 00:00")
	assert.NotContains(t, labels, "Day 0", "the origin label takes precedence")
	assert.Contains(t, labels, "Day 1, 00:20")
	assert.NotContains(t, labels, "Day 1, 00:10", "overlapping labels are dropped")
	assert.NotContains(t, ruler, "◆")

	tl.focus(20, 30)
	ruler, _ = tl.renderRuler(60)
	assert.Contains(t, ruler, "◆")
}

func TestRenderRulerPannedPastOrigin(t *testing.T) {
	tl := newTestTimeline(t)
	tl.engine.PanBy(-15)

	ruler, labels := tl.renderRuler(60)
	// Scroll -5: ticks for 10, 20 ... 60 land on columns 5 .. 55.
	assert.Equal(t, 6, strings.Count(ruler, "┬"))
	assert.NotContains(t, labels, "00:00")
	assert.Contains(t, labels, "Day 1, 00:10")
}

func TestRenderRulerBeforeOrigin(t *testing.T) {
	tl := newTestTimeline(t)
	// Rubber-banding right reveals time before the origin: the visual
	// offset becomes 10 + 40^0.85, about 33.
	tl.engine.HandlePointerDown(navigation.Point{X: 0})
	tl.engine.HandlePointerMove(navigation.Point{X: 40})

	ruler, labels := tl.renderRuler(60)
	// Ticks for -30 ... 20 land on columns 3 .. 53.
	assert.Equal(t, 6, strings.Count(ruler, "┬"))
	assert.Contains(t, labels, "Day 1, 00:00")
	assert.Contains(t, labels, "Day 0, 23:30")
	assert.Less(t, strings.Index(labels, "Day 0, 23:30"), strings.Index(labels, "Day 1, 00:00"))
}

func TestTimelineView(t *testing.T) {
	tl := newTestTimeline(t)
	out := tl.view(80, 12)
	assert.Contains(t, out, "Aldmere")
	assert.Contains(t, out, "countup calendar")
	assert.Contains(t, out, MsgNoEvents)

	tl.setData([]*storage.Event{ev("a", "Alpha", 0), ev("b", "Beta", 1), ev("c", "Gamma", 2)}, nil)
	out = tl.view(80, firstLaneRow+1)
	assert.Contains(t, out, "Alpha")
	assert.Contains(t, out, "+2 hidden")
}

func TestEventColor(t *testing.T) {
	tl := newTestTimeline(t)
	tl.setData(nil, []*storage.Actor{{ID: "knight", Color: "#ff0000"}})

	assert.Equal(t, "#FF0000", strings.ToUpper(tl.eventColor(&storage.Event{ID: "e", ActorIDs: []string{"knight"}})))

	own := tl.eventColor(&storage.Event{ID: "e"})
	assert.Equal(t, own, tl.eventColor(&storage.Event{ID: "e"}), "colour derives from the id")
	assert.NotEmpty(t, tl.eventColor(&storage.Event{ID: "e", ActorIDs: []string{"unknown"}}))
}

func TestZoomLabel(t *testing.T) {
	tl := newTestTimeline(t)
	assert.Equal(t, "zoom 0 • 1 min/col", tl.zoomLabel())

	tl.engine.HandleWheel(1, 50)
	assert.Equal(t, "zoom 0 → 1", tl.zoomLabel())
}

func TestTimelinePanKeys(t *testing.T) {
	app, store := newTestApp(t)
	openWorld(t, app, seedWorld(t, store, "Aldmere"))

	app.Update(keyRunes("l"))
	assert.Equal(t, 2.0, app.timeline.engine.State().Scroll)

	app.Update(keyRunes("h"))
	app.Update(keyRunes("h"))
	assert.Equal(t, 10.0, app.timeline.engine.State().Scroll, "scroll never passes the maximum")
}

func TestTimelineZoomKeys(t *testing.T) {
	app, store := newTestApp(t)
	openWorld(t, app, seedWorld(t, store, "Aldmere"))
	e := app.timeline.engine
	before := e.TimeAt(50)

	app.Update(keyRunes("+"))
	st := e.State()
	assert.Equal(t, 0.5, st.TimePerPixel)
	assert.Equal(t, -30.0, st.Scroll)
	assert.InDelta(t, before, e.TimeAt(50), 1e-9, "time under the centre column stays put")
	assert.True(t, st.IsSwitchingScale)
	assert.Equal(t, 1, app.sched.Armed())

	fireAll(app)
	assert.False(t, e.IsSwitchingScale())
	assert.Equal(t, 0, app.sched.Armed())
}

func TestTimelineWheelDebounce(t *testing.T) {
	app, store := newTestApp(t)
	openWorld(t, app, seedWorld(t, store, "Aldmere"))
	e := app.timeline.engine

	app.Update(mouse(50, 10, tea.MouseButtonWheelUp, tea.MouseActionPress))
	app.Update(mouse(50, 10, tea.MouseButtonWheelUp, tea.MouseActionPress))
	assert.Equal(t, -2, e.State().PendingScaleSteps)
	assert.Equal(t, 1.0, e.TimePerPixel(), "nothing applies before the debounce")
	assert.Equal(t, 1, app.sched.Armed())

	fireAll(app)
	assert.Equal(t, 0.25, e.TimePerPixel())
	assert.True(t, e.IsSwitchingScale())

	fireAll(app)
	assert.False(t, e.IsSwitchingScale())
}

func TestTimelineClickSelectsTime(t *testing.T) {
	app, store := newTestApp(t)
	openWorld(t, app, seedWorld(t, store, "Aldmere"))

	click(app, 30, 10)
	require.NotNil(t, app.timeline.selected)
	assert.Equal(t, int64(20), *app.timeline.selected)
	assert.Equal(t, "Selected Day 1, 00:20", app.status)
	assert.Equal(t, ViewTimeline, app.view)
}

func TestTimelineDoubleClickOpensForm(t *testing.T) {
	app, store := newTestApp(t)
	openWorld(t, app, seedWorld(t, store, "Aldmere"))
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	app.sched.now = func() time.Time { return now }

	click(app, 30, 10)
	now = now.Add(100 * time.Millisecond)
	click(app, 31, 10)

	require.Equal(t, ViewEventForm, app.view)
	assert.True(t, app.form.isNew())
	assert.Equal(t, "20", app.form.inputs[fieldTime].Value())
}

func TestTimelineSlowClicksStaySingle(t *testing.T) {
	app, store := newTestApp(t)
	openWorld(t, app, seedWorld(t, store, "Aldmere"))
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	app.sched.now = func() time.Time { return now }

	click(app, 30, 10)
	now = now.Add(time.Second)
	click(app, 40, 10)

	assert.Equal(t, ViewTimeline, app.view)
	assert.Equal(t, int64(30), *app.timeline.selected)
}

func TestTimelineClickOnMarkerOpensEvent(t *testing.T) {
	app, store := newTestApp(t)
	world := seedWorld(t, store, "Aldmere")
	require.NoError(t, store.SaveEvent(&storage.Event{WorldID: world.ID, Name: "Alpha", Timestamp: 0}))
	openWorld(t, app, world)

	click(app, 11, firstLaneRow)
	require.Equal(t, ViewEventForm, app.view)
	assert.False(t, app.form.isNew())
	assert.Equal(t, "Alpha", app.form.inputs[fieldName].Value())
}

func TestTimelineDragDoesNotClick(t *testing.T) {
	app, store := newTestApp(t)
	openWorld(t, app, seedWorld(t, store, "Aldmere"))
	e := app.timeline.engine

	app.Update(mouse(50, 10, tea.MouseButtonLeft, tea.MouseActionPress))
	app.Update(mouse(30, 10, tea.MouseButtonLeft, tea.MouseActionMotion))
	assert.True(t, e.State().IsDragging)
	app.Update(mouse(30, 10, tea.MouseButtonNone, tea.MouseActionRelease))

	st := e.State()
	assert.False(t, st.IsDragging)
	assert.Equal(t, -10.0, st.Scroll)
	assert.Nil(t, app.timeline.selected)
	assert.Empty(t, app.status)
	assert.Equal(t, 0, app.sched.Armed())
}

func TestTimelineOverscrollSpringsBack(t *testing.T) {
	app, store := newTestApp(t)
	openWorld(t, app, seedWorld(t, store, "Aldmere"))
	e := app.timeline.engine

	app.Update(mouse(10, 10, tea.MouseButtonLeft, tea.MouseActionPress))
	app.Update(mouse(40, 10, tea.MouseButtonLeft, tea.MouseActionMotion))
	st := e.State()
	assert.Equal(t, 10.0, st.Scroll)
	assert.Equal(t, 30.0, st.Overscroll)
	assert.Greater(t, e.VisualOffset(), st.Scroll)

	app.Update(mouse(40, 10, tea.MouseButtonNone, tea.MouseActionRelease))
	assert.Equal(t, 1, app.sched.Armed())

	fireAll(app)
	assert.InDelta(t, 27.0, e.State().Overscroll, 1e-9)
	assert.Equal(t, 1, app.sched.Armed(), "decay re-arms while overscroll remains")
}

func TestLeavingTimelineDisposesEngine(t *testing.T) {
	app, store := newTestApp(t)
	openWorld(t, app, seedWorld(t, store, "Aldmere"))
	e := app.timeline.engine

	app.Update(mouse(50, 10, tea.MouseButtonWheelDown, tea.MouseActionPress))
	require.Equal(t, 1, app.sched.Armed())

	app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ViewWorlds, app.view)
	assert.Nil(t, app.timeline)
	assert.Equal(t, 0, app.sched.Armed())

	e.HandleWheel(1, 50)
	assert.Equal(t, 0, e.State().PendingScaleSteps, "a disposed engine ignores input")
}

func TestSubViewsKeepEngine(t *testing.T) {
	app, store := newTestApp(t)
	openWorld(t, app, seedWorld(t, store, "Aldmere"))
	tl := app.timeline

	app.Update(keyRunes("a"))
	app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Same(t, tl, app.timeline)
	assert.Equal(t, ViewTimeline, app.view)
}

func TestJumpToEvents(t *testing.T) {
	app, store := newTestApp(t)
	world := seedWorld(t, store, "Aldmere")
	openWorld(t, app, world)

	app.Update(keyRunes("G"))
	assert.Equal(t, MsgNoEvents, app.status)

	require.NoError(t, store.SaveEvents([]*storage.Event{
		{WorldID: world.ID, Name: "Dawn", Timestamp: 60},
		{WorldID: world.ID, Name: "Dusk", Timestamp: 1200},
	}))
	deliver(t, app, app.reloadTimeline())

	app.Update(keyRunes("G"))
	require.NotNil(t, app.timeline.selected)
	assert.Equal(t, int64(1200), *app.timeline.selected)
	assert.Contains(t, app.status, "Dusk")
	assert.InDelta(t, 25.0, app.timeline.engine.ColumnOf(1200), 1e-9)

	app.Update(keyRunes("g"))
	assert.Equal(t, int64(60), *app.timeline.selected)
}

func TestTimeline_CopySelection(t *testing.T) {
	var copied []string
	fail := false
	saved := writeClipboard
	writeClipboard = func(text string) error {
		if fail {
			return errors.New("no clipboard")
		}
		copied = append(copied, text)
		return nil
	}
	t.Cleanup(func() { writeClipboard = saved })

	app, store := newTestApp(t)
	openWorld(t, app, seedWorld(t, store, "Aldmere"))

	app.Update(keyRunes("y"))
	assert.Equal(t, MsgNothingSelected, app.status)
	assert.Empty(t, copied)

	ts := int64(20)
	app.timeline.selected = &ts
	app.Update(keyRunes("y"))
	assert.Equal(t, []string{"Day 1, 00:20"}, copied)
	assert.Equal(t, MsgCopied("Day 1, 00:20"), app.status)

	fail = true
	app.Update(keyRunes("y"))
	require.Error(t, app.err)
	assert.Contains(t, app.err.Error(), "copying to clipboard")
}
