package detect

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidSettings is wrapped by every Settings validation failure.
var ErrInvalidSettings = errors.New("detect: invalid settings")

// Defaults for Settings fields.
const (
	DefaultBoundaryBrightness = 50
	DefaultBrightnessMargin   = 10
	DefaultColPercentile      = 0.75
	DefaultMinGap             = 10
	DefaultAnnualSkip         = 30
	DefaultAlpha              = 0.5
	DefaultExtremaThreshold   = 0.5
)

// Settings tunes both detection algorithms.
type Settings struct {
	// BoundaryBrightness is the luminance (0..255) separating dark from light.
	BoundaryBrightness float64 `toml:"boundary_brightness"`
	// BrightnessMargin widens the threshold into an ambiguous band.
	BrightnessMargin float64 `toml:"brightness_margin"`
	// ColPercentile is the fraction of rows that must agree on a column.
	ColPercentile float64 `toml:"col_percentile"`
	// MinGap is the minimum column distance between boundaries (exclusive).
	MinGap int `toml:"min_gap"`

	// Annual selects whole-year detection in the classification algorithm.
	Annual bool `toml:"annual"`
	// Zoom and MaxZoom scale the annual skip distance.
	Zoom    int `toml:"-"`
	MaxZoom int `toml:"-"`
	// AnnualSkip is the skip after an annual boundary at MaxZoom.
	AnnualSkip int `toml:"annual_skip"`

	// Alpha is the exponential smoothing factor of the derivative algorithm.
	Alpha float64 `toml:"alpha"`
	// ExtremaThreshold is the fraction of a row's extreme derivative an edge must reach.
	ExtremaThreshold float64 `toml:"extrema_threshold"`
}

// DefaultSettings returns the default tuning.
func DefaultSettings() Settings {
	return Settings{
		BoundaryBrightness: DefaultBoundaryBrightness,
		BrightnessMargin:   DefaultBrightnessMargin,
		ColPercentile:      DefaultColPercentile,
		MinGap:             DefaultMinGap,
		AnnualSkip:         DefaultAnnualSkip,
		Alpha:              DefaultAlpha,
		ExtremaThreshold:   DefaultExtremaThreshold,
	}
}

// ValidationError describes one rejected field.
type ValidationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("detect: %s = %v: %s", e.Field, e.Value, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidSettings }

func inRange(v, lo, hi float64) bool {
	return !math.IsNaN(v) && v >= lo && v <= hi
}

// Validate checks every field.
func (s Settings) Validate() error {
	switch {
	case !inRange(s.BoundaryBrightness, 0, 255):
		return &ValidationError{"BoundaryBrightness", s.BoundaryBrightness, "must be between 0 and 255"}
	case !inRange(s.BrightnessMargin, 0, 255):
		return &ValidationError{"BrightnessMargin", s.BrightnessMargin, "must be between 0 and 255"}
	case !inRange(s.ColPercentile, 0, 1):
		return &ValidationError{"ColPercentile", s.ColPercentile, "must be a fraction in [0, 1]"}
	case s.MinGap < 0:
		return &ValidationError{"MinGap", s.MinGap, "must not be negative"}
	case s.AnnualSkip < 0:
		return &ValidationError{"AnnualSkip", s.AnnualSkip, "must not be negative"}
	case s.Annual && s.Zoom > s.MaxZoom:
		return &ValidationError{"Zoom", s.Zoom, fmt.Sprintf("must not exceed MaxZoom %d", s.MaxZoom)}
	case math.IsNaN(s.Alpha) || s.Alpha <= 0 || s.Alpha > 1:
		return &ValidationError{"Alpha", s.Alpha, "must be in (0, 1]"}
	case !inRange(s.ExtremaThreshold, 0, 1):
		return &ValidationError{"ExtremaThreshold", s.ExtremaThreshold, "must be a fraction in [0, 1]"}
	}
	return nil
}

// annualSkip is the number of columns skipped after an annual boundary.
// It halves with every zoom level below MaxZoom and never drops under MinGap.
func (s Settings) annualSkip() int {
	skip := int(math.Ceil(float64(s.AnnualSkip) * math.Exp2(float64(s.Zoom-s.MaxZoom))))
	return max(s.MinGap, skip)
}
