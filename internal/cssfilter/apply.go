package cssfilter

import (
	"image"

	"github.com/dendrolab/ringscan/internal/raster"
)

// ApplySample transforms every pixel of buf in place. Samples are opaque,
// so the alpha row of m has no effect.
func ApplySample(buf *raster.SampleBuffer, m Matrix) {
	if m.IsIdentity() {
		return
	}
	pix := buf.Pix
	for i := 0; i+2 < len(pix); i += 3 {
		pix[i], pix[i+1], pix[i+2], _ = m.Transform(pix[i], pix[i+1], pix[i+2], 0xff)
	}
}

// ApplyRGBA transforms img in place. img holds premultiplied alpha, so each
// pixel is un-premultiplied before the matrix and re-premultiplied after.
func ApplyRGBA(img *image.RGBA, m Matrix) {
	if m.IsIdentity() {
		return
	}
	b := img.Rect
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):img.PixOffset(b.Max.X, y)]
		for i := 0; i < len(row); i += 4 {
			a := row[i+3]
			r, g, bl := row[i], row[i+1], row[i+2]
			if a != 0xff && a != 0 {
				r = unpremul(r, a)
				g = unpremul(g, a)
				bl = unpremul(bl, a)
			}
			nr, ng, nb, na := m.Transform(r, g, bl, a)
			if na != 0xff {
				nr = uint8(uint16(nr) * uint16(na) / 255)
				ng = uint8(uint16(ng) * uint16(na) / 255)
				nb = uint8(uint16(nb) * uint16(na) / 255)
			}
			row[i], row[i+1], row[i+2], row[i+3] = nr, ng, nb, na
		}
	}
}

func unpremul(c, a uint8) uint8 {
	return uint8(min(uint16(c)*255/uint16(a), 255))
}
