package navigation

import (
	"sort"
	"sync"
	"time"
)

// Timer is a cancellable handle returned by a Scheduler.
type Timer interface {
	// Stop prevents the timer from firing. It reports whether the call
	// stopped the timer, false if it already fired or was stopped.
	Stop() bool
}

// Scheduler supplies the monotonic clock and the one-shot timers the engine
// uses for overscroll decay and wheel debouncing.
type Scheduler interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type systemScheduler struct{}

// SystemScheduler returns a Scheduler backed by the runtime clock.
// Callbacks run on their own goroutines.
func SystemScheduler() Scheduler { return systemScheduler{} }

func (systemScheduler) Now() time.Time { return time.Now() }

func (systemScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// ManualScheduler is a virtual clock. Time stands still until Advance is
// called, and timers fire only from Advance, synchronously on the caller's
// goroutine, in deadline order.
//
// A zero or negative delay does not run the callback inside AfterFunc. The
// timer is due immediately and fires on the next Advance, Advance(0)
// included. The engine arms timers while holding its own lock, so a
// synchronous callback would deadlock.
//
// Do not call Advance from within a callback.
type ManualScheduler struct {
	mu      sync.Mutex
	current time.Time
	seq     int
	waiters []*manualWaiter
}

// manualWaiter is one pending AfterFunc.
type manualWaiter struct {
	s        *ManualScheduler
	deadline time.Time
	seq      int
	callback func()

	// stopped is set by Stop; fired once the callback has been handed out.
	stopped bool
	fired   bool
}

// NewManualScheduler creates a virtual clock starting at start.
func NewManualScheduler(start time.Time) *ManualScheduler {
	return &ManualScheduler{current: start}
}

func (s *ManualScheduler) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *ManualScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d < 0 {
		d = 0
	}
	s.seq++
	w := &manualWaiter{s: s, deadline: s.current.Add(d), seq: s.seq, callback: f}
	s.waiters = append(s.waiters, w)
	return w
}

func (w *manualWaiter) Stop() bool {
	w.s.mu.Lock()
	defer w.s.mu.Unlock()
	if w.stopped || w.fired {
		return false
	}
	w.stopped = true
	return true
}

// PendingCount reports how many timers are armed.
func (s *ManualScheduler) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, w := range s.waiters {
		if !w.stopped && !w.fired {
			n++
		}
	}
	return n
}

// Advance moves the clock forward by d, firing every timer whose deadline is
// reached, including timers armed by callbacks during the advance. Timers
// fire one at a time and Now reads the firing timer's deadline inside its
// callback, so a re-armed periodic timer never runs behind a later one.
func (s *ManualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.current.Add(d)
	s.mu.Unlock()

	for {
		next := s.popExpired(target)
		if next == nil {
			break
		}
		next.callback()
	}

	s.mu.Lock()
	s.current = target
	s.mu.Unlock()
}

// popExpired drops stopped and fired waiters and returns the earliest one due
// by target, marked fired.
func (s *ManualScheduler) popExpired(target time.Time) *manualWaiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	live := s.waiters[:0]
	for _, w := range s.waiters {
		if !w.stopped && !w.fired {
			live = append(live, w)
		}
	}
	s.waiters = live
	if len(live) == 0 {
		return nil
	}

	sort.SliceStable(live, func(i, j int) bool {
		if live[i].deadline.Equal(live[j].deadline) {
			return live[i].seq < live[j].seq
		}
		return live[i].deadline.Before(live[j].deadline)
	})
	first := live[0]
	if first.deadline.After(target) {
		return nil
	}
	first.fired = true
	if first.deadline.After(s.current) {
		s.current = first.deadline
	}
	return first
}
