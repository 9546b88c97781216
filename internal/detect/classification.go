package detect

import (
	"gonum.org/v1/gonum/floats"

	"github.com/dendrolab/ringscan/internal/raster"
)

// Classification thresholds pixel luminance against BoundaryBrightness and
// lets each column vote.
type Classification struct{}

// Name implements Algorithm.
func (Classification) Name() string { return "pixel classification" }

// Detect implements Algorithm.
func (c Classification) Detect(buf *raster.SampleBuffer, s Settings) ([]int, error) {
	if err := checkInput(buf, s); err != nil {
		return nil, err
	}
	cols := c.Columns(buf, s)
	if s.Annual {
		return annualFlips(cols, s), nil
	}
	return alternatingFlips(cols, s.MinGap), nil
}

// Columns classifies every column as dark or light.
// A pixel darker than BoundaryBrightness-BrightnessMargin scores 0, one
// brighter than BoundaryBrightness+BrightnessMargin scores 1 and anything
// between scores 0.5. A column is light when its score reaches
// ColPercentile of the band height.
func (Classification) Columns(buf *raster.SampleBuffer, s Settings) []int {
	lo := s.BoundaryBrightness - s.BrightnessMargin
	hi := s.BoundaryBrightness + s.BrightnessMargin

	sums := make([]float64, buf.Width)
	row := make([]float64, buf.Width)
	for y := 0; y < buf.Height; y++ {
		row = buf.Row(row, y)
		for x, v := range row {
			switch {
			case v < lo:
				row[x] = 0
			case v > hi:
				row[x] = 1
			default:
				row[x] = 0.5
			}
		}
		floats.Add(sums, row)
	}

	need := s.ColPercentile * float64(buf.Height)
	cols := make([]int, buf.Width)
	for x, sum := range sums {
		if sum >= need {
			cols[x] = light
		} else {
			cols[x] = dark
		}
	}
	return cols
}

// alternatingFlips reports flips whose direction differs from the last
// accepted one. The first flip may go either way.
func alternatingFlips(cols []int, minGap int) []int {
	var out []int
	gap := gapFilter{minGap: minGap}
	lastDir := unknown
	for x := 1; x < len(cols); x++ {
		if cols[x] == cols[x-1] {
			continue
		}
		dir := cols[x]
		if dir == lastDir || !gap.accept(x) {
			continue
		}
		lastDir = dir
		out = append(out, x)
	}
	return out
}

// annualFlips reports light to dark flips only and skips ahead after each
// one so ringing next to the same boundary is not counted again.
func annualFlips(cols []int, s Settings) []int {
	var out []int
	gap := gapFilter{minGap: s.MinGap}
	skip := s.annualSkip()
	for x := 1; x < len(cols); x++ {
		if cols[x-1] != light || cols[x] != dark || !gap.accept(x) {
			continue
		}
		out = append(out, x)
		x += skip - 1
	}
	return out
}
