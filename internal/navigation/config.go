package navigation

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidConfig is returned by New and Config.Validate for bounds the
// engine cannot work with.
var ErrInvalidConfig = errors.New("invalid navigation config")

const (
	DefaultDecayFactor         = 0.9
	DefaultOverscrollExponent  = 0.85
	DefaultOverscrollEpsilon   = 0.01
	DefaultDecayInterval       = 5 * time.Millisecond
	DefaultScaleDebounce       = 300 * time.Millisecond
	DefaultDragThreshold       = 5.0
	DefaultDoubleClickWindow   = 500 * time.Millisecond
	DefaultDoubleClickDistance = 5.0
)

// Config holds the caller-supplied bounds and the tuning constants of an
// Engine. It is copied into the engine and never changes afterwards.
type Config struct {
	DefaultScroll float64
	MaximumScroll float64
	MinScaleStep  int
	MaxScaleStep  int

	// DecayFactor is applied to the overscroll on every decay tick.
	DecayFactor float64
	// OverscrollExponent eases the rubber-band amount shown to the renderer.
	OverscrollExponent float64
	// OverscrollEpsilon is the overscroll below which decay stops.
	OverscrollEpsilon float64
	DecayInterval     time.Duration
	ScaleDebounce     time.Duration

	DragThreshold       float64
	DoubleClickWindow   time.Duration
	DoubleClickDistance float64
}

// DefaultConfig returns a config with the stock tuning constants and a
// scale range of 2^-2 .. 2^11 time units per pixel.
func DefaultConfig() Config {
	return Config{
		DefaultScroll:       10,
		MaximumScroll:       10,
		MinScaleStep:        -2,
		MaxScaleStep:        11,
		DecayFactor:         DefaultDecayFactor,
		OverscrollExponent:  DefaultOverscrollExponent,
		OverscrollEpsilon:   DefaultOverscrollEpsilon,
		DecayInterval:       DefaultDecayInterval,
		ScaleDebounce:       DefaultScaleDebounce,
		DragThreshold:       DefaultDragThreshold,
		DoubleClickWindow:   DefaultDoubleClickWindow,
		DoubleClickDistance: DefaultDoubleClickDistance,
	}
}

func (c Config) Validate() error {
	switch {
	case c.MinScaleStep > c.MaxScaleStep:
		return fmt.Errorf("%w: scale step limits [%d, %d] are inverted", ErrInvalidConfig, c.MinScaleStep, c.MaxScaleStep)
	case c.MaximumScroll < c.DefaultScroll:
		return fmt.Errorf("%w: maximum scroll %.2f is below default scroll %.2f", ErrInvalidConfig, c.MaximumScroll, c.DefaultScroll)
	case c.DecayFactor <= 0 || c.DecayFactor >= 1:
		return fmt.Errorf("%w: decay factor %.3f must be in (0, 1)", ErrInvalidConfig, c.DecayFactor)
	case c.OverscrollExponent <= 0:
		return fmt.Errorf("%w: overscroll exponent must be positive", ErrInvalidConfig)
	case c.OverscrollEpsilon <= 0:
		return fmt.Errorf("%w: overscroll epsilon must be positive", ErrInvalidConfig)
	case c.DecayInterval <= 0 || c.ScaleDebounce <= 0:
		return fmt.Errorf("%w: timer intervals must be positive", ErrInvalidConfig)
	case c.DragThreshold < 0 || c.DoubleClickDistance < 0 || c.DoubleClickWindow < 0:
		return fmt.Errorf("%w: click thresholds must not be negative", ErrInvalidConfig)
	}
	return nil
}
