// Package palette converts between the hex, HSL and RGB forms used for actor
// and event colours.
package palette

import (
	"fmt"
	"hash/fnv"
	"math"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

const (
	idSaturation = 0.65
	idLightness  = 0.55

	// Relative luminance above which dark text reads better than light.
	contrastThreshold = 0.179

	Dark  = "#000000"
	Light = "#ffffff"
)

// FromHSL returns the hex form of a colour. h is in degrees, s and l in [0, 1].
func FromHSL(h, s, l float64) string {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	return colorful.Hsl(h, clamp01(s), clamp01(l)).Clamped().Hex()
}

// ToHSL parses a hex colour and returns hue in degrees and saturation and
// lightness in [0, 1].
func ToHSL(hex string) (h, s, l float64, err error) {
	c, err := parse(hex)
	if err != nil {
		return 0, 0, 0, err
	}
	h, s, l = c.Hsl()
	return h, s, l, nil
}

// Normalize parses hex in either the short (#abc) or long form, with or
// without the leading '#', and returns the lowercase long form.
func Normalize(hex string) (string, error) {
	c, err := parse(hex)
	if err != nil {
		return "", err
	}
	return c.Hex(), nil
}

// ForID derives a stable colour from an identifier so that an actor keeps the
// same hue across sessions.
func ForID(id string) string {
	hash := fnv.New32a()
	hash.Write([]byte(id))
	hue := float64(hash.Sum32() % 360)
	return FromHSL(hue, idSaturation, idLightness)
}

// Contrast picks the foreground colour that stays readable on hex. Unparseable
// input yields Light.
func Contrast(hex string) string {
	c, err := parse(hex)
	if err != nil {
		return Light
	}
	r, g, b := c.LinearRgb()
	if 0.2126*r+0.7152*g+0.0722*b > contrastThreshold {
		return Dark
	}
	return Light
}

func parse(hex string) (colorful.Color, error) {
	hex = strings.TrimSpace(hex)
	if !strings.HasPrefix(hex, "#") {
		hex = "#" + hex
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return colorful.Color{}, fmt.Errorf("invalid colour %q: %w", hex, err)
	}
	return c, nil
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
