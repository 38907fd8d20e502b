// Package calendar formats world timestamps. A timestamp is a count of
// minutes since the world's origin; each calendar decides how that count is
// shown to the user.
package calendar

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

const (
	MinutesPerHour = 60
	MinutesPerDay  = 24 * MinutesPerHour
)

var ErrUnknownCalendar = errors.New("unknown calendar")

// Calendar turns world timestamps into labels.
type Calendar interface {
	Name() string
	// Format renders ts at full precision.
	Format(ts int64) string
	// FormatTick renders ts for a timeline tick. Coarser scale levels drop
	// the finer units.
	FormatTick(ts int64, scaleLevel float64) string
	// FromTime converts a wall-clock time into a timestamp.
	FromTime(t time.Time) int64
}

var registry = map[string]Calendar{
	"countup":  countup{},
	"earth":    earth{},
	"rimworld": rimworld{},
}

// Default is the calendar used when a world does not name one.
const Default = "countup"

// Lookup returns the calendar registered under name. An empty name selects
// the default calendar.
func Lookup(name string) (Calendar, error) {
	if name == "" {
		name = Default
	}
	c, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCalendar, name)
	}
	return c, nil
}

// Names lists the registered calendars in alphabetical order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WithOrigin shifts every timestamp by origin minutes before handing it to c,
// so that timestamp 0 of a world shows as origin.
func WithOrigin(c Calendar, origin int64) Calendar {
	if origin == 0 {
		return c
	}
	return shifted{Calendar: c, origin: origin}
}

type shifted struct {
	Calendar
	origin int64
}

func (s shifted) Format(ts int64) string { return s.Calendar.Format(ts + s.origin) }

func (s shifted) FormatTick(ts int64, scaleLevel float64) string {
	return s.Calendar.FormatTick(ts+s.origin, scaleLevel)
}

func (s shifted) FromTime(t time.Time) int64 { return s.Calendar.FromTime(t) - s.origin }

// unixMinutes is the number of whole minutes since the Unix epoch, rounded
// towards negative infinity.
func unixMinutes(t time.Time) int64 {
	return floorDiv(t.Unix(), 60)
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int64) int64 {
	return a - floorDiv(a, b)*b
}

// precision buckets a scale level into 0 (finest) .. 3 (coarsest).
func precision(scaleLevel float64) int {
	switch {
	case scaleLevel >= 1:
		return 0
	case scaleLevel >= 0.1:
		return 1
	case scaleLevel >= 0.01:
		return 2
	}
	return 3
}
