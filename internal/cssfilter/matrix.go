// Package cssfilter turns a CSS filter property value, such as
// "brightness(120%) contrast(1.4)", into one colour matrix and applies it
// to captured pixels.
package cssfilter

import "math"

// Matrix is a 4x5 colour matrix in row-major order, operating on straight
// RGBA values in [0, 255]:
//
//	[R']   [m0  m1  m2  m3  m4 ]   [R]
//	[G'] = [m5  m6  m7  m8  m9 ] * [G]
//	[B']   [m10 m11 m12 m13 m14]   [B]
//	[A']   [m15 m16 m17 m18 m19]   [A]
//	                               [1]
type Matrix [20]float32

// Identity leaves colours unchanged.
var Identity = Matrix{
	1, 0, 0, 0, 0,
	0, 1, 0, 0, 0,
	0, 0, 1, 0, 0,
	0, 0, 0, 1, 0,
}

// Luminance weights (Rec. 709), as used by the CSS filter functions.
const (
	lumR = 0.2126
	lumG = 0.7152
	lumB = 0.0722
)

// Brightness scales RGB by f.
func Brightness(f float32) Matrix {
	return Matrix{
		f, 0, 0, 0, 0,
		0, f, 0, 0, 0,
		0, 0, f, 0, 0,
		0, 0, 0, 1, 0,
	}
}

// Contrast scales RGB around mid-grey by f.
func Contrast(f float32) Matrix {
	offset := 127.5 * (1 - f)
	return Matrix{
		f, 0, 0, 0, offset,
		0, f, 0, 0, offset,
		0, 0, f, 0, offset,
		0, 0, 0, 1, 0,
	}
}

// Saturate blends between luminance (0) and the original colour (1).
func Saturate(f float32) Matrix {
	inv := 1 - f
	return Matrix{
		lumR*inv + f, lumG * inv, lumB * inv, 0, 0,
		lumR * inv, lumG*inv + f, lumB * inv, 0, 0,
		lumR * inv, lumG * inv, lumB*inv + f, 0, 0,
		0, 0, 0, 1, 0,
	}
}

// Grayscale converts a fraction amount of the colour to luminance.
func Grayscale(amount float32) Matrix {
	return Saturate(1 - clamp01(amount))
}

// Sepia blends amount of the sepia tone into the colour.
func Sepia(amount float32) Matrix {
	a := 1 - clamp01(amount)
	return Matrix{
		0.393 + 0.607*a, 0.769 - 0.769*a, 0.189 - 0.189*a, 0, 0,
		0.349 - 0.349*a, 0.686 + 0.314*a, 0.168 - 0.168*a, 0, 0,
		0.272 - 0.272*a, 0.534 - 0.534*a, 0.131 + 0.869*a, 0, 0,
		0, 0, 0, 1, 0,
	}
}

// Invert inverts a fraction amount of each channel.
func Invert(amount float32) Matrix {
	a := clamp01(amount)
	s := 1 - 2*a
	o := 255 * a
	return Matrix{
		s, 0, 0, 0, o,
		0, s, 0, 0, o,
		0, 0, s, 0, o,
		0, 0, 0, 1, 0,
	}
}

// HueRotate rotates hue by the given angle in radians.
func HueRotate(rad float64) Matrix {
	sin, cos := math.Sincos(rad)
	c, s := float32(cos), float32(sin)
	const r, g, b = 0.213, 0.715, 0.072
	return Matrix{
		r + c*(1-r) - s*r, g - c*g - s*g, b - c*b + s*(1-b), 0, 0,
		r - c*r + s*0.143, g + c*(1-g) + s*0.140, b - c*b - s*0.283, 0, 0,
		r - c*r - s*(1-r), g - c*g + s*g, b + c*(1-b) + s*b, 0, 0,
		0, 0, 0, 1, 0,
	}
}

// Opacity scales alpha by a fraction.
func Opacity(f float32) Matrix {
	return Matrix{
		1, 0, 0, 0, 0,
		0, 1, 0, 0, 0,
		0, 0, 1, 0, 0,
		0, 0, 0, clamp01(f), 0,
	}
}

// Then returns the matrix that applies m first and next afterwards.
func (m Matrix) Then(next Matrix) Matrix {
	var out Matrix
	for row := 0; row < 4; row++ {
		for col := 0; col < 5; col++ {
			var sum float32
			for k := 0; k < 4; k++ {
				sum += next[row*5+k] * m[k*5+col]
			}
			if col == 4 {
				sum += next[row*5+4]
			}
			out[row*5+col] = sum
		}
	}
	return out
}

// IsIdentity reports whether m leaves every colour unchanged.
func (m Matrix) IsIdentity() bool {
	return m == Identity
}

// Transform maps one straight RGBA colour through m, clamping to [0, 255].
func (m *Matrix) Transform(r, g, b, a uint8) (uint8, uint8, uint8, uint8) {
	fr, fg, fb, fa := float32(r), float32(g), float32(b), float32(a)
	return clampByte(m[0]*fr + m[1]*fg + m[2]*fb + m[3]*fa + m[4]),
		clampByte(m[5]*fr + m[6]*fg + m[7]*fb + m[8]*fa + m[9]),
		clampByte(m[10]*fr + m[11]*fg + m[12]*fb + m[13]*fa + m[14]),
		clampByte(m[15]*fr + m[16]*fg + m[17]*fb + m[18]*fa + m[19])
}

func clamp01(v float32) float32 {
	return min(max(v, 0), 1)
}

func clampByte(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}
