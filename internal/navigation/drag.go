package navigation

import "math"

// HandlePointerDown anchors a potential drag. Dragging only starts once the
// pointer has moved DragThreshold pixels away from the anchor.
func (e *Engine) HandlePointerDown(p Point) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.disposed {
		return
	}
	anchor := p
	e.anchor = &anchor
	e.lastPos = p
	e.cursorX = p.X
	e.canClick = true
}

func (e *Engine) HandlePointerMove(p Point) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.disposed {
		return
	}
	e.cursorX = p.X

	if e.anchor != nil && !e.dragging && math.Abs(p.X-e.anchor.X) >= e.cfg.DragThreshold {
		e.dragging = true
		e.stopDecayLocked()
	}

	if e.dragging {
		delta := p.X - e.lastPos.X
		newScroll := e.scroll + delta + e.overscroll
		if newScroll > e.cfg.MaximumScroll {
			e.scroll = e.cfg.MaximumScroll
			e.overscroll = newScroll - e.cfg.MaximumScroll
		} else {
			e.scroll = newScroll
			e.overscroll = 0
		}
		e.canClick = false
	}

	e.lastPos = p
}

// HandlePointerUp ends a drag and lets any overscroll spring back.
func (e *Engine) HandlePointerUp() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.disposed {
		return
	}
	e.dragging = false
	e.anchor = nil
	e.startDecayLocked()
}

// DecayTick applies one step of overscroll decay and reports whether the
// overscroll is still above OverscrollEpsilon. It does nothing mid-drag.
func (e *Engine) DecayTick() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.decayStepLocked()
}

func (e *Engine) decayStepLocked() bool {
	if e.dragging || e.disposed {
		return false
	}
	e.overscroll *= e.cfg.DecayFactor
	return e.overscroll >= e.cfg.OverscrollEpsilon
}

func (e *Engine) startDecayLocked() {
	e.stopDecayLocked()
	if e.disposed || e.dragging || e.overscroll < e.cfg.OverscrollEpsilon {
		return
	}
	e.armDecayLocked()
}

func (e *Engine) armDecayLocked() {
	gen := e.decayGen
	e.decayTimer = e.sched.AfterFunc(e.cfg.DecayInterval, func() { e.onDecayTimer(gen) })
}

func (e *Engine) onDecayTimer(gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.decayGen {
		return
	}
	e.decayTimer = nil
	if e.decayStepLocked() {
		e.armDecayLocked()
	}
}

func (e *Engine) stopDecayLocked() {
	e.decayGen++
	if e.decayTimer != nil {
		e.decayTimer.Stop()
		e.decayTimer = nil
	}
}
