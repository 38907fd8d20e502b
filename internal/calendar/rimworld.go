package calendar

import (
	"fmt"
	"time"
)

const (
	RimworldStartYear       = 5500
	RimworldDaysPerQuadrum  = 15
	RimworldQuadrumsPerYear = 4
)

var quadrums = [RimworldQuadrumsPerYear]string{"Aprimay", "Jugust", "Septober", "Decembary"}

// rimworld has four quadrums of fifteen days. Timestamp 0 is the first hour
// of 1st Aprimay, 5500.
type rimworld struct{}

func (rimworld) Name() string { return "rimworld" }

func (rimworld) Format(ts int64) string {
	year, q, day, h, m := rimworldParts(ts)
	return fmt.Sprintf("%s of %s, %d, %02d:%02d", ordinal(day), quadrums[q], year, h, m)
}

func (rimworld) FormatTick(ts int64, scaleLevel float64) string {
	year, q, day, h, _ := rimworldParts(ts)
	switch precision(scaleLevel) {
	case 0:
		return fmt.Sprintf("%s %s, %dh", ordinal(day), quadrums[q], h)
	case 1:
		return fmt.Sprintf("%s %s", ordinal(day), quadrums[q])
	case 2:
		return fmt.Sprintf("%s %d", quadrums[q], year)
	}
	return fmt.Sprintf("%d", year)
}

func (rimworld) FromTime(t time.Time) int64 { return unixMinutes(t) }

func rimworldParts(ts int64) (year int64, quadrum int, day, hour, minute int64) {
	const daysPerYear = RimworldDaysPerQuadrum * RimworldQuadrumsPerYear
	days := floorDiv(ts, MinutesPerDay)
	rem := floorMod(ts, MinutesPerDay)
	year = RimworldStartYear + floorDiv(days, daysPerYear)
	dayOfYear := floorMod(days, daysPerYear)
	quadrum = int(dayOfYear / RimworldDaysPerQuadrum)
	day = dayOfYear%RimworldDaysPerQuadrum + 1
	return year, quadrum, day, rem / MinutesPerHour, rem % MinutesPerHour
}

func ordinal(n int64) string {
	suffix := "th"
	switch n % 100 {
	case 11, 12, 13:
	default:
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return fmt.Sprintf("%d%s", n, suffix)
}
