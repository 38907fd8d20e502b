package calendar

import "time"

// earth is the Gregorian calendar in UTC with timestamp 0 at the Unix epoch.
type earth struct{}

func (earth) Name() string { return "earth" }

func (earth) Format(ts int64) string {
	return earthTime(ts).Format("2006-01-02 15:04")
}

func (earth) FormatTick(ts int64, scaleLevel float64) string {
	t := earthTime(ts)
	switch precision(scaleLevel) {
	case 0:
		return t.Format("Jan 2 15:04")
	case 1:
		return t.Format("Jan 2")
	case 2:
		return t.Format("Jan 2006")
	}
	return t.Format("2006")
}

func (earth) FromTime(t time.Time) int64 { return unixMinutes(t) }

func earthTime(ts int64) time.Time {
	return time.Unix(ts*60, 0).UTC()
}
