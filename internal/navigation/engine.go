// Package navigation implements the pan/zoom engine behind the timeline view.
//
// An Engine owns the scroll offset, the discrete zoom step and the derived
// time-per-pixel scale, the drag state and the click/double-click window. The
// host feeds it pointer and wheel input and reads back the values it needs to
// draw ticks and event markers. Timers (overscroll decay and wheel debounce)
// go through a Scheduler so hosts decide where callbacks run.
package navigation

import (
	"math"
	"sync"
	"time"
)

// Point is a pointer position relative to the timeline viewport.
type Point struct {
	X float64
	Y float64
}

// Handlers receive time selections. Either may be nil.
type Handlers struct {
	OnClick       func(selectedTime float64)
	OnDoubleClick func(selectedTime float64)
}

// State is a snapshot of everything the engine tracks.
type State struct {
	Scroll                float64
	Overscroll            float64
	TimePerPixel          float64
	ScaleScrollHundredths int
	ScaleLevel            float64
	IsDragging            bool
	DragAnchor            *Point
	PendingScaleSteps     int
	IsSwitchingScale      bool
	CanClick              bool
}

type Engine struct {
	mu       sync.Mutex
	cfg      Config
	sched    Scheduler
	handlers Handlers

	scroll       float64
	overscroll   float64
	hundredths   int
	timePerPixel float64
	scaleLevel   float64

	dragging bool
	anchor   *Point
	lastPos  Point
	cursorX  float64
	canClick bool

	pendingSteps int
	switching    bool

	hasLastClick bool
	lastClickX   float64
	lastClickAt  time.Time

	decayTimer    Timer
	decayGen      uint64
	debounceTimer Timer
	debounceGen   uint64

	disposed bool
}

// New creates an engine seeded from cfg.DefaultScroll at a scale of one time
// unit per pixel.
func New(cfg Config, sched Scheduler, h Handlers) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if sched == nil {
		sched = SystemScheduler()
	}
	e := &Engine{
		cfg:          cfg,
		sched:        sched,
		handlers:     h,
		scroll:       cfg.DefaultScroll,
		timePerPixel: 1,
		scaleLevel:   1,
		canClick:     true,
	}
	if cfg.MinScaleStep > 0 || cfg.MaxScaleStep < 0 {
		// Zero is outside the allowed range; start from the nearest step.
		e.hundredths = clampInt(0, cfg.MinScaleStep*100, cfg.MaxScaleStep*100)
		e.timePerPixel = math.Exp2(float64(e.hundredths) / 100)
		e.scaleLevel = resolveScaleLevel(e.timePerPixel)
	}
	return e, nil
}

// Config returns the configuration the engine was built with.
func (e *Engine) Config() Config { return e.cfg }

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := State{
		Scroll:                e.scroll,
		Overscroll:            e.overscroll,
		TimePerPixel:          e.timePerPixel,
		ScaleScrollHundredths: e.hundredths,
		ScaleLevel:            e.scaleLevel,
		IsDragging:            e.dragging,
		PendingScaleSteps:     e.pendingSteps,
		IsSwitchingScale:      e.switching,
		CanClick:              e.canClick,
	}
	if e.anchor != nil {
		a := *e.anchor
		s.DragAnchor = &a
	}
	return s
}

// VisualOffset is the horizontal translation the renderer applies: the
// scroll plus an eased version of the rubber-band overscroll.
func (e *Engine) VisualOffset() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.visualOffsetLocked()
}

func (e *Engine) visualOffsetLocked() float64 {
	if e.overscroll <= 0 {
		return e.scroll
	}
	return e.scroll + math.Pow(e.overscroll, e.cfg.OverscrollExponent)
}

func (e *Engine) TimePerPixel() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.timePerPixel
}

func (e *Engine) ScaleLevel() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scaleLevel
}

// TargetScale is the zoom step the pending wheel input will land on, for the
// transient zoom label.
func (e *Engine) TargetScale() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return clampInt(e.hundredths/100+e.pendingSteps, e.cfg.MinScaleStep, e.cfg.MaxScaleStep)
}

func (e *Engine) IsSwitchingScale() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.switching
}

// RoundTo is the tick spacing in pixels at the current zoom.
func (e *Engine) RoundTo() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.roundToLocked()
}

func (e *Engine) roundToLocked() float64 {
	return 10 / e.timePerPixel / e.scaleLevel
}

// TimeAt converts a viewport column to a world time without snapping.
func (e *Engine) TimeAt(x float64) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return (x - e.scroll) * e.timePerPixel
}

// ColumnOf converts a world time to the viewport column it is drawn at.
func (e *Engine) ColumnOf(t float64) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return t/e.timePerPixel + e.visualOffsetLocked()
}

// ScrollToTime moves the view so that t sits under column anchorX, as far as
// the maximum scroll allows.
func (e *Engine) ScrollToTime(t, anchorX float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.disposed {
		return
	}
	e.scroll = math.Min(anchorX-t/e.timePerPixel, e.cfg.MaximumScroll)
	e.overscroll = 0
}

// PanBy shifts the view by dx pixels without any rubber-band effect. A
// pending spring-back is dropped.
func (e *Engine) PanBy(dx float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.disposed {
		return
	}
	e.stopDecayLocked()
	e.scroll = math.Min(e.scroll+dx, e.cfg.MaximumScroll)
	e.overscroll = 0
}

// Dispose cancels both timers and drops queued zoom steps, any drag in
// progress and the remaining overscroll. The engine ignores input afterwards.
func (e *Engine) Dispose() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.disposed = true
	e.stopDecayLocked()
	e.stopDebounceLocked()
	e.pendingSteps = 0
	e.switching = false
	e.dragging = false
	e.anchor = nil
	e.overscroll = 0
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
