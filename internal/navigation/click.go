package navigation

import "math"

// HandleClick turns a click at column x into a time selection. Clicks that
// end a drag or land on hovered event markers are ignored; the markers
// handle those themselves. A second click within DoubleClickWindow and
// DoubleClickDistance of the first is reported as a double click.
func (e *Engine) HandleClick(x float64, hoveredMarkers int) {
	e.mu.Lock()
	if e.disposed || e.dragging || !e.canClick || hoveredMarkers > 0 {
		e.mu.Unlock()
		return
	}

	selected := e.selectedTimeLocked(x)
	now := e.sched.Now()

	double := e.hasLastClick &&
		now.Sub(e.lastClickAt) <= e.cfg.DoubleClickWindow &&
		math.Abs(x-e.lastClickX) <= e.cfg.DoubleClickDistance

	var cb func(float64)
	if double {
		e.hasLastClick = false
		cb = e.handlers.OnDoubleClick
	} else {
		e.hasLastClick = true
		e.lastClickX = x
		e.lastClickAt = now
		cb = e.handlers.OnClick
	}
	e.mu.Unlock()

	if cb != nil {
		cb(selected)
	}
}

// SelectedTime is the tick-snapped time a click at column x selects.
func (e *Engine) SelectedTime(x float64) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selectedTimeLocked(x)
}

func (e *Engine) selectedTimeLocked(x float64) float64 {
	roundTo := e.roundToLocked()
	return math.Round((x-e.scroll)/roundTo) * roundTo * e.timePerPixel
}
