package tilesource

import (
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/dendrolab/ringscan/internal/tile"
)

// maxTileBytes caps the body read for a single tile.
const maxTileBytes = 32 << 20

// HTTPFetcher loads a layer from a URL template such as
// "https://tiles.example.org/core42/{z}/{x}/{y}.png".
type HTTPFetcher struct {
	Template string
	Client   *http.Client // nil uses http.DefaultClient
	Header   http.Header  // extra request headers
}

// URL expands the template for c.
func (f *HTTPFetcher) URL(c tile.Coord) string {
	return strings.NewReplacer(
		"{z}", strconv.Itoa(c.Z),
		"{x}", strconv.Itoa(c.X),
		"{y}", strconv.Itoa(c.Y),
	).Replace(f.Template)
}

// Fetch downloads and decodes the tile. A 404 or 204 answer is ErrNotFound.
func (f *HTTPFetcher) Fetch(ctx context.Context, c tile.Coord) (*image.RGBA, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL(c), nil)
	if err != nil {
		return nil, fmt.Errorf("tilesource: request: %w", err)
	}
	for k, vs := range f.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tilesource: get %s: %w", req.URL, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusNoContent:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, req.URL)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("tilesource: get %s: %s", req.URL, resp.Status)
	}
	return Decode(io.LimitReader(resp.Body, maxTileBytes))
}
