package detect

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/dendrolab/ringscan/internal/raster"
)

// Derivative finds edges per row as zero crossings of the smoothed second
// derivative of luminance and lets each column vote on the side it is on.
// It reports every flip that passes the gap rule, in either direction.
type Derivative struct{}

// Name implements Algorithm.
func (Derivative) Name() string { return "edge detection" }

// Detect implements Algorithm.
func (d Derivative) Detect(buf *raster.SampleBuffer, s Settings) ([]int, error) {
	if err := checkInput(buf, s); err != nil {
		return nil, err
	}
	cols := d.Columns(buf, s)

	var out []int
	gap := gapFilter{minGap: s.MinGap}
	for x := 1; x < len(cols); x++ {
		if cols[x-1] == unknown || cols[x] == cols[x-1] {
			continue
		}
		if gap.accept(x) {
			out = append(out, x)
		}
	}
	return out, nil
}

// Columns classifies every column as dark, light or unknown. Columns where
// neither side reaches ColPercentile of the rows inherit the class of the
// column before them.
func (Derivative) Columns(buf *raster.SampleBuffer, s Settings) []int {
	lightVotes := make([]int, buf.Width)
	darkVotes := make([]int, buf.Width)

	f := make([]float64, buf.Width)
	d1 := make([]float64, buf.Width)
	d2 := make([]float64, buf.Width)
	cls := make([]int, buf.Width)
	for y := 0; y < buf.Height; y++ {
		f = buf.Row(f, y)
		smoothedDerivative(d1, f, s.Alpha)
		smoothedDerivative(d2, d1, s.Alpha)
		rowClasses(cls, d1, d2, s.ExtremaThreshold)
		for x, c := range cls {
			switch c {
			case light:
				lightVotes[x]++
			case dark:
				darkVotes[x]++
			}
		}
	}

	need := s.ColPercentile * float64(buf.Height)
	cols := make([]int, buf.Width)
	prev := unknown
	for x := range cols {
		switch {
		case float64(lightVotes[x]) >= need && lightVotes[x] > darkVotes[x]:
			prev = light
		case float64(darkVotes[x]) >= need && darkVotes[x] > lightVotes[x]:
			prev = dark
		}
		cols[x] = prev
	}
	return cols
}

// smoothedDerivative writes the exponentially smoothed first difference of f
// into dst: dst[0] = 0, dst[i] = alpha*(f[i]-f[i-1]) + (1-alpha)*dst[i-1].
func smoothedDerivative(dst, f []float64, alpha float64) {
	if len(f) == 0 {
		return
	}
	dst[0] = 0
	for i := 1; i < len(f); i++ {
		dst[i] = alpha*(f[i]-f[i-1]) + (1-alpha)*dst[i-1]
	}
}

// rowClasses tags the columns of one row where d2 crosses zero and d1 is
// strong enough, then forward-fills the tags along the row. A rising edge
// tags light and a falling edge dark; the columns before the first tag take
// the opposite side of it. A row without tags stays unknown.
func rowClasses(cls []int, d1, d2 []float64, threshold float64) {
	hi := floats.Max(d1)
	lo := math.Abs(floats.Min(d1))
	// d2 values this close to zero, relative to the d1 range, count as zero.
	eps := zeroTolerance * (hi + lo)

	for i := range cls {
		cls[i] = unknown
	}
	first := unknown
	for i := 1; i < len(d2); i++ {
		prev := sign(d2[i-1], eps)
		if prev == 0 || sign(d2[i], eps) == prev {
			continue
		}
		v := d1[i-1]
		switch {
		case v > 0 && v >= threshold*hi:
			cls[i-1] = light
		case v < 0 && -v >= threshold*lo:
			cls[i-1] = dark
		default:
			continue
		}
		if first == unknown {
			first = cls[i-1]
		}
	}
	if first == unknown {
		return
	}

	prev := 1 - first
	for i, c := range cls {
		if c == unknown {
			cls[i] = prev
		} else {
			prev = c
		}
	}
}

const zeroTolerance = 1e-3

func sign(v, eps float64) int {
	switch {
	case v > eps:
		return 1
	case v < -eps:
		return -1
	}
	return 0
}
