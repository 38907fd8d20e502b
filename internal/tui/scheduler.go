package tui

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pders01/timelines/internal/navigation"
)

// timerFiredMsg is delivered when a scheduler timer's tick elapses.
type timerFiredMsg struct {
	id uint64
}

// teaScheduler runs navigation timers through the bubbletea event loop.
// AfterFunc only records the timer; Cmds turns new timers into tea.Tick
// commands and Fire runs the callback when the tick comes back as a message,
// so engine callbacks always execute on the Update goroutine.
type teaScheduler struct {
	mu      sync.Mutex
	now     func() time.Time
	nextID  uint64
	live    map[uint64]*teaTimer
	pending []*teaTimer
}

type teaTimer struct {
	s  *teaScheduler
	id uint64
	d  time.Duration
	f  func()
}

var _ navigation.Scheduler = (*teaScheduler)(nil)

func newTeaScheduler() *teaScheduler {
	return &teaScheduler{
		now:  time.Now,
		live: make(map[uint64]*teaTimer),
	}
}

func (s *teaScheduler) Now() time.Time { return s.now() }

func (s *teaScheduler) AfterFunc(d time.Duration, f func()) navigation.Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	t := &teaTimer{s: s, id: s.nextID, d: d, f: f}
	s.live[t.id] = t
	s.pending = append(s.pending, t)
	return t
}

func (t *teaTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if _, ok := t.s.live[t.id]; !ok {
		return false
	}
	delete(t.s.live, t.id)
	return true
}

// Cmds returns one tick command per timer armed since the last call.
// Timers stopped in the meantime are dropped.
func (s *teaScheduler) Cmds() []tea.Cmd {
	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	var cmds []tea.Cmd
	for _, t := range pending {
		if _, ok := s.live[t.id]; !ok {
			continue
		}
		id := t.id
		cmds = append(cmds, tea.Tick(t.d, func(time.Time) tea.Msg {
			return timerFiredMsg{id: id}
		}))
	}
	s.mu.Unlock()
	return cmds
}

// Fire runs the callback of timer id and reports whether it was still armed.
func (s *teaScheduler) Fire(id uint64) bool {
	s.mu.Lock()
	t, ok := s.live[id]
	delete(s.live, id)
	s.mu.Unlock()
	if !ok {
		return false
	}
	t.f()
	return true
}

// Armed reports how many timers have not fired or been stopped.
func (s *teaScheduler) Armed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.live)
}
