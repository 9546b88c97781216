// Package ringscan measures tree rings on tiled scans of wood samples.
//
// # Overview
//
// A measurement is a segment between two anchors on the image. ringscan
// captures an axis-aligned band of pixels along that segment straight from
// the viewer's resident tiles, detects where the band flips between light
// and dark wood, and maps those columns back to geographic points that the
// viewer stores as ring boundaries.
//
// # Quick Start
//
//	eng, err := ringscan.New(host, ringscan.WithRenderer(pipeline))
//	if err != nil {
//	    return err
//	}
//	buf, err := eng.SampleRegion(ctx, a, b, 20, 18, "")
//	if errors.Is(err, ringscan.ErrCaptureAreaTooLarge) {
//	    // tell the user to shorten the segment
//	}
//	offsets, err := eng.DetectBoundaries(buf, ringscan.Classification, ringscan.DefaultSettings())
//	n, err := eng.Commit(offsets, a, b, ringscan.Forward, 18, series)
//
// # Host
//
// The engine reads tiles through the Host interface. Tiles that are not
// resident are requested with RequestViewCenter and the capture waits for
// the host's TileEvent before continuing where it stopped. A tile that
// fails, or does not arrive within the wait timeout, fails the capture with
// ResourceUnavailable.
//
// # Enhancement
//
// Tiles are enhanced by a pipeline of 3x3 convolution passes (see
// SetFilterPasses). The GPU backend registers itself when the gpu package
// is imported:
//
//	import _ "github.com/dendrolab/ringscan/gpu"
//
// Without it, passes run on the CPU.
//
// # Coordinate System
//
// Pixel coordinates follow the tile pyramid: origin at the top-left of the
// world, X increasing east, Y increasing south. Angles are in radians.
package ringscan

// Version is the current version of the library.
const Version = "0.1.0"
