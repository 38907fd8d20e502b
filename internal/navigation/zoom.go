package navigation

import "math"

// HandleWheel queues one zoom step in the direction of deltaY and restarts
// the debounce. Positive deltaY zooms out. cursorX is the column the zoom is
// anchored on when the steps are applied.
func (e *Engine) HandleWheel(deltaY, cursorX float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.disposed {
		return
	}
	step := sign(deltaY)
	if step == 0 {
		return
	}
	e.pendingSteps += step
	e.switching = true
	e.cursorX = cursorX

	e.stopDebounceLocked()
	gen := e.debounceGen
	e.debounceTimer = e.sched.AfterFunc(e.cfg.ScaleDebounce, func() { e.onDebounce(gen) })
}

// FlushScale applies pending zoom steps immediately instead of waiting for
// the debounce.
func (e *Engine) FlushScale() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.disposed {
		return
	}
	e.stopDebounceLocked()
	e.flushLocked()
}

func (e *Engine) onDebounce(gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.debounceGen || e.disposed {
		return
	}
	e.debounceTimer = nil
	e.flushLocked()
}

func (e *Engine) flushLocked() {
	steps := e.pendingSteps
	e.pendingSteps = 0

	dir := 1
	if steps < 0 {
		dir, steps = -1, -steps
	}

	lo, hi := e.cfg.MinScaleStep*100, e.cfg.MaxScaleStep*100
	current := e.scroll
	for i := 0; i < steps; i++ {
		next := clampInt(e.hundredths+100*dir, lo, hi)
		nextTimePerPixel := math.Exp2(float64(next) / 100)

		ratio := e.timePerPixel / nextTimePerPixel
		mid := (e.cursorX - current) * e.timePerPixel
		switch {
		case ratio > 1:
			current -= mid / (2 * nextTimePerPixel)
		case ratio < 1:
			current += mid / nextTimePerPixel
		}

		e.hundredths = next
		e.timePerPixel = nextTimePerPixel
	}

	e.scroll = math.Min(current, e.cfg.MaximumScroll)
	e.scaleLevel = resolveScaleLevel(e.timePerPixel)

	// The switching flag drops one tick later so the renderer swaps the
	// zoom label for the new view in a single frame.
	gen := e.debounceGen
	e.debounceTimer = e.sched.AfterFunc(0, func() { e.onSwitchDone(gen) })
}

func (e *Engine) onSwitchDone(gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.debounceGen {
		return
	}
	e.debounceTimer = nil
	e.switching = false
}

func (e *Engine) stopDebounceLocked() {
	e.debounceGen++
	if e.debounceTimer != nil {
		e.debounceTimer.Stop()
		e.debounceTimer = nil
	}
}
