package navigation

import "github.com/pders01/timelines/internal/debuglog"

// MaxBucketedTimePerPixel is the upper edge of the scale-level table.
const MaxBucketedTimePerPixel = 2048.0

type scaleBucket struct {
	upper float64 // exclusive, except for the last bucket
	level float64
}

var scaleBuckets = []scaleBucket{
	{upper: 4, level: 1},
	{upper: 32, level: 0.1},
	{upper: 256, level: 0.01},
	{upper: MaxBucketedTimePerPixel, level: 0.001},
}

// ScaleLevelFor maps a time-per-pixel value to its display granularity.
// ok is false outside [0, 2048].
func ScaleLevelFor(timePerPixel float64) (level float64, ok bool) {
	if timePerPixel < 0 || timePerPixel > MaxBucketedTimePerPixel {
		return 0, false
	}
	for _, b := range scaleBuckets {
		if timePerPixel < b.upper {
			return b.level, true
		}
	}
	return scaleBuckets[len(scaleBuckets)-1].level, true
}

// resolveScaleLevel clamps values outside the table to the nearest bucket.
// Reaching the fallback means the configured step limits exceed the table.
func resolveScaleLevel(timePerPixel float64) float64 {
	if level, ok := ScaleLevelFor(timePerPixel); ok {
		return level
	}
	debuglog.Warnf("time per pixel %.4f has no scale level, clamping", timePerPixel)
	if timePerPixel < 0 {
		return scaleBuckets[0].level
	}
	return scaleBuckets[len(scaleBuckets)-1].level
}
