// Package kernel provides the fixed catalog of 3x3 convolution kernels used
// by the enhancement pipeline.
//
// The catalog is defined once per process and never mutated. Kernel names
// are programming-time constants: Get panics on an unknown name, Lookup is
// available for validating user input.
package kernel

import (
	"fmt"
	"sort"
)

// Matrix is a 3x3 convolution kernel in row-major order.
// Index 0 is the top-left tap, index 4 the centre, index 8 the bottom-right.
type Matrix [9]float32

// Names of the catalog kernels.
const (
	Normal            = "normal"
	GaussianBlur      = "gaussianBlur"
	GaussianBlur2     = "gaussianBlur2"
	GaussianBlur3     = "gaussianBlur3"
	Unsharpen         = "unsharpen"
	Sharpness         = "sharpness"
	Sharpen           = "sharpen"
	EdgeDetect        = "edgeDetect"
	EdgeDetect2       = "edgeDetect2"
	EdgeDetect3       = "edgeDetect3"
	EdgeDetect4       = "edgeDetect4"
	EdgeDetect5       = "edgeDetect5"
	EdgeDetect6       = "edgeDetect6"
	SobelHorizontal   = "sobelHorizontal"
	SobelVertical     = "sobelVertical"
	PrewittHorizontal = "prewittHorizontal"
	PrewittVertical   = "prewittVertical"
	BoxBlur           = "boxBlur"
	TriangleBlur      = "triangleBlur"
	Emboss            = "emboss"
)

var catalog = map[string]Matrix{
	Normal: {
		0, 0, 0,
		0, 1, 0,
		0, 0, 0,
	},
	GaussianBlur: {
		0.045, 0.122, 0.045,
		0.122, 0.332, 0.122,
		0.045, 0.122, 0.045,
	},
	GaussianBlur2: {
		1, 2, 1,
		2, 4, 2,
		1, 2, 1,
	},
	GaussianBlur3: {
		0, 1, 0,
		1, 1, 1,
		0, 1, 0,
	},
	Unsharpen: {
		-1, -1, -1,
		-1, 9, -1,
		-1, -1, -1,
	},
	Sharpness: {
		0, -1, 0,
		-1, 5, -1,
		0, -1, 0,
	},
	Sharpen: {
		-1, -1, -1,
		-1, 16, -1,
		-1, -1, -1,
	},
	EdgeDetect: {
		-0.125, -0.125, -0.125,
		-0.125, 1, -0.125,
		-0.125, -0.125, -0.125,
	},
	EdgeDetect2: {
		-1, -1, -1,
		-1, 8, -1,
		-1, -1, -1,
	},
	EdgeDetect3: {
		-5, 0, 0,
		0, 0, 0,
		0, 0, 5,
	},
	EdgeDetect4: {
		-1, -1, -1,
		0, 0, 0,
		1, 1, 1,
	},
	EdgeDetect5: {
		-1, -1, -1,
		2, 2, 2,
		-1, -1, -1,
	},
	EdgeDetect6: {
		-5, -5, -5,
		-5, 39, -5,
		-5, -5, -5,
	},
	SobelHorizontal: {
		1, 2, 1,
		0, 0, 0,
		-1, -2, -1,
	},
	SobelVertical: {
		1, 0, -1,
		2, 0, -2,
		1, 0, -1,
	},
	PrewittHorizontal: {
		1, 1, 1,
		0, 0, 0,
		-1, -1, -1,
	},
	PrewittVertical: {
		1, 0, -1,
		1, 0, -1,
		1, 0, -1,
	},
	BoxBlur: {
		0.111, 0.111, 0.111,
		0.111, 0.111, 0.111,
		0.111, 0.111, 0.111,
	},
	TriangleBlur: {
		0.0625, 0.125, 0.0625,
		0.125, 0.25, 0.125,
		0.0625, 0.125, 0.0625,
	},
	Emboss: {
		-2, -1, 0,
		-1, 1, 1,
		0, 1, 2,
	},
}

// Get returns the named kernel. It panics if the name is not in the catalog.
func Get(name string) Matrix {
	m, ok := catalog[name]
	if !ok {
		panic(fmt.Sprintf("kernel: unknown kernel %q", name))
	}
	return m
}

// Lookup returns the named kernel and whether it exists.
func Lookup(name string) (Matrix, bool) {
	m, ok := catalog[name]
	return m, ok
}

// Names returns the catalog kernel names in sorted order.
func Names() []string {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Weight returns the normalization divisor for m: the sum of its entries,
// clamped to a minimum of 1 so edge kernels never divide by zero or flip sign.
func Weight(m Matrix) float32 {
	var sum float32
	for _, v := range m {
		sum += v
	}
	if sum < 1 {
		return 1
	}
	return sum
}

// FlipRows returns m with its top and bottom rows swapped.
// Used when the kernel is applied to a target stored bottom row first.
func (m Matrix) FlipRows() Matrix {
	return Matrix{
		m[6], m[7], m[8],
		m[3], m[4], m[5],
		m[0], m[1], m[2],
	}
}

// At returns the tap at (dx, dy) where both offsets are in [-1, 1].
func (m Matrix) At(dx, dy int) float32 {
	return m[(dy+1)*3+(dx+1)]
}
