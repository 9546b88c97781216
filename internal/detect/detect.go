// Package detect finds ring boundaries in a captured sample band.
//
// Both algorithms reduce the band to one light/dark classification per
// column and report the columns where that classification flips. They
// differ in how pixels are classified: by a brightness threshold, or by
// edges found in smoothed per-row derivatives.
package detect

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/dendrolab/ringscan/internal/logging"
	"github.com/dendrolab/ringscan/internal/raster"
)

// Kind names a detection algorithm.
type Kind string

const (
	// KindClassification thresholds pixel brightness ("pc").
	KindClassification Kind = "pc"
	// KindDerivative looks for edges in smoothed derivatives ("ed").
	KindDerivative Kind = "ed"
)

var (
	// ErrUnknownAlgorithm is returned for an unregistered Kind.
	ErrUnknownAlgorithm = errors.New("detect: unknown algorithm")

	// ErrEmptyBuffer is returned for a missing or zero-sized sample.
	ErrEmptyBuffer = errors.New("detect: empty sample buffer")
)

// Algorithm turns a sample band into boundary column offsets.
// Offsets are strictly increasing and more than Settings.MinGap apart.
type Algorithm interface {
	Name() string
	Detect(buf *raster.SampleBuffer, s Settings) ([]int, error)
}

var (
	registryMu sync.RWMutex
	registry   = map[Kind]Algorithm{
		KindClassification: Classification{},
		KindDerivative:     Derivative{},
	}
)

// Register installs alg under kind, replacing any previous entry.
func Register(kind Kind, alg Algorithm) {
	if alg == nil {
		panic("detect: Register with nil algorithm")
	}
	registryMu.Lock()
	registry[kind] = alg
	registryMu.Unlock()
}

// Lookup returns the algorithm registered under kind.
func Lookup(kind Kind) (Algorithm, error) {
	registryMu.RLock()
	alg, ok := registry[kind]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, kind)
	}
	return alg, nil
}

// Kinds returns the registered kinds in sorted order.
func Kinds() []Kind {
	registryMu.RLock()
	defer registryMu.RUnlock()
	kinds := make([]Kind, 0, len(registry))
	for k := range registry {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Detect runs the algorithm registered under kind.
func Detect(buf *raster.SampleBuffer, kind Kind, s Settings) ([]int, error) {
	alg, err := Lookup(kind)
	if err != nil {
		return nil, err
	}
	offsets, err := alg.Detect(buf, s)
	if err != nil {
		return nil, err
	}
	logging.Logger().Debug("detect: boundaries found",
		"algorithm", alg.Name(), "width", buf.Width, "height", buf.Height, "count", len(offsets))
	return offsets, nil
}

func checkInput(buf *raster.SampleBuffer, s Settings) error {
	if buf == nil || buf.Width == 0 || buf.Height == 0 {
		return ErrEmptyBuffer
	}
	return s.Validate()
}

// Column classes. unknown marks columns with no decided class yet.
const (
	unknown = -1
	dark    = 0
	light   = 1
)

// gapFilter accepts flip columns more than minGap past the last accepted one.
// The start of the band counts as the first accepted boundary.
type gapFilter struct {
	minGap int
	last   int
}

func (g *gapFilter) accept(col int) bool {
	if col-g.last <= g.minGap {
		return false
	}
	g.last = col
	return true
}
