package convolve

import (
	"encoding/binary"
	"math"

	"github.com/dendrolab/ringscan/internal/kernel"
)

// UniformSize is the byte size of the Params uniform block in the shader.
const UniformSize = 112

// Bounds are the geometric uniforms of one render call: pixel bounds as
// (minX, minY, maxX, maxY) and geographic bounds as (south, west, north, east).
type Bounds struct {
	Pixel [4]float32
	Geo   [4]float32
}

func boundsOf(t Tile) Bounds {
	px := t.PixelBounds
	sw, ne := t.GeoBounds.SouthWest, t.GeoBounds.NorthEast
	return Bounds{
		Pixel: [4]float32{float32(px.Min.X), float32(px.Min.Y), float32(px.Max.X), float32(px.Max.Y)},
		Geo:   [4]float32{float32(sw.Lat), float32(sw.Lng), float32(ne.Lat), float32(ne.Lng)},
	}
}

// PassParams are the per-pass uniforms.
type PassParams struct {
	Kernel   kernel.Matrix // already flipped for bottom-up storage
	Weight   float32
	Strength float32
	FlipY    bool // write rows in reverse order
}

// Uniforms encodes p and b in the std140 layout of the shader's Params block.
func Uniforms(width, height int, p PassParams, b Bounds) []byte {
	buf := make([]byte, UniformSize)
	le := binary.LittleEndian
	le.PutUint32(buf[0:], uint32(width))  //nolint:gosec // tile sizes fit uint32
	le.PutUint32(buf[4:], uint32(height)) //nolint:gosec // tile sizes fit uint32
	if p.FlipY {
		le.PutUint32(buf[8:], 1)
	}
	putF32 := func(off int, v float32) { le.PutUint32(buf[off:], math.Float32bits(v)) }
	putF32(16, p.Strength)
	putF32(20, p.Weight)
	// k0..k2 are vec4 rows; the fourth lane is padding.
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			putF32(32+row*16+col*4, p.Kernel[row*3+col])
		}
	}
	for i := 0; i < 4; i++ {
		putF32(80+i*4, b.Pixel[i])
		putF32(96+i*4, b.Geo[i])
	}
	return buf
}
