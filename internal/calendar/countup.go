package calendar

import (
	"fmt"
	"time"
)

// countup numbers days from the origin: Day 1 starts at timestamp 0.
type countup struct{}

func (countup) Name() string { return "countup" }

func (countup) Format(ts int64) string {
	day, h, m := countupParts(ts)
	return fmt.Sprintf("Day %d, %02d:%02d", day, h, m)
}

func (countup) FormatTick(ts int64, scaleLevel float64) string {
	day, h, m := countupParts(ts)
	switch precision(scaleLevel) {
	case 0:
		return fmt.Sprintf("Day %d, %02d:%02d", day, h, m)
	case 1, 2:
		return fmt.Sprintf("Day %d", day)
	}
	return fmt.Sprintf("Week %d", floorDiv(day-1, 7)+1)
}

func (countup) FromTime(t time.Time) int64 { return unixMinutes(t) }

func countupParts(ts int64) (day, hour, minute int64) {
	day = floorDiv(ts, MinutesPerDay) + 1
	rem := floorMod(ts, MinutesPerDay)
	return day, rem / MinutesPerHour, rem % MinutesPerHour
}
