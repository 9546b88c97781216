package cssfilter

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrSyntax is returned for a filter value that cannot be parsed.
var ErrSyntax = errors.New("cssfilter: syntax error")

// ErrUnsupported is returned for filter functions with no colour-matrix form,
// such as blur or drop-shadow.
var ErrUnsupported = errors.New("cssfilter: unsupported filter function")

// Parse converts a CSS filter value into a single matrix. Functions are
// applied left to right. An empty value or "none" yields Identity.
func Parse(value string) (Matrix, error) {
	s := strings.TrimSpace(value)
	if s == "" || strings.EqualFold(s, "none") {
		return Identity, nil
	}

	m := Identity
	for s != "" {
		open := strings.IndexByte(s, '(')
		if open <= 0 {
			return Identity, fmt.Errorf("%w: %q", ErrSyntax, s)
		}
		closing := strings.IndexByte(s[open:], ')')
		if closing < 0 {
			return Identity, fmt.Errorf("%w: unclosed %q", ErrSyntax, s)
		}
		name := strings.ToLower(strings.TrimSpace(s[:open]))
		arg := strings.TrimSpace(s[open+1 : open+closing])
		s = strings.TrimSpace(s[open+closing+1:])

		fm, err := function(name, arg)
		if err != nil {
			return Identity, err
		}
		m = m.Then(fm)
	}
	return m, nil
}

func function(name, arg string) (Matrix, error) {
	switch name {
	case "hue-rotate":
		rad, err := parseAngle(arg)
		if err != nil {
			return Identity, err
		}
		return HueRotate(rad), nil
	case "brightness", "contrast", "saturate", "grayscale", "sepia", "invert", "opacity":
	case "blur", "drop-shadow", "url":
		return Identity, fmt.Errorf("%w: %s", ErrUnsupported, name)
	default:
		return Identity, fmt.Errorf("%w: unknown function %q", ErrSyntax, name)
	}

	// Omitted arguments default to 1 for every amount function.
	v := float32(1)
	if arg != "" {
		f, err := parseAmount(arg)
		if err != nil {
			return Identity, err
		}
		v = f
	}
	if v < 0 {
		return Identity, fmt.Errorf("%w: negative amount in %s(%s)", ErrSyntax, name, arg)
	}

	switch name {
	case "brightness":
		return Brightness(v), nil
	case "contrast":
		return Contrast(v), nil
	case "saturate":
		return Saturate(v), nil
	case "grayscale":
		return Grayscale(v), nil
	case "sepia":
		return Sepia(v), nil
	case "invert":
		return Invert(v), nil
	default:
		return Opacity(v), nil
	}
}

func parseAmount(arg string) (float32, error) {
	scale := 1.0
	if rest, ok := strings.CutSuffix(arg, "%"); ok {
		arg, scale = rest, 0.01
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(arg), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: amount %q", ErrSyntax, arg)
	}
	return float32(f * scale), nil
}

func parseAngle(arg string) (float64, error) {
	if arg == "" || arg == "0" {
		return 0, nil
	}
	units := []struct {
		suffix string
		scale  float64
	}{
		{"grad", math.Pi / 200},
		{"turn", 2 * math.Pi},
		{"deg", math.Pi / 180},
		{"rad", 1},
	}
	for _, u := range units {
		if rest, ok := strings.CutSuffix(arg, u.suffix); ok {
			f, err := strconv.ParseFloat(strings.TrimSpace(rest), 64)
			if err != nil {
				return 0, fmt.Errorf("%w: angle %q", ErrSyntax, arg)
			}
			return f * u.scale, nil
		}
	}
	return 0, fmt.Errorf("%w: angle %q needs a unit", ErrSyntax, arg)
}
