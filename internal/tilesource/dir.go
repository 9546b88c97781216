package tilesource

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"
	"path"
	"strconv"

	"github.com/dendrolab/ringscan/internal/tile"
)

// DirFetcher loads a layer from a directory pyramid laid out as
// z/x/y.Ext below FS.
type DirFetcher struct {
	FS  fs.FS
	Ext string // file extension without the dot; "png" when empty
}

// NewDirFetcher reads the pyramid rooted at dir.
func NewDirFetcher(dir, ext string) *DirFetcher {
	return &DirFetcher{FS: os.DirFS(dir), Ext: ext}
}

// Path returns the file path of c inside FS.
func (f *DirFetcher) Path(c tile.Coord) string {
	ext := f.Ext
	if ext == "" {
		ext = "png"
	}
	return path.Join(strconv.Itoa(c.Z), strconv.Itoa(c.X), strconv.Itoa(c.Y)+"."+ext)
}

// Fetch reads and decodes the tile file. A missing file is ErrNotFound.
func (f *DirFetcher) Fetch(ctx context.Context, c tile.Coord) (*image.RGBA, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p := f.Path(c)
	file, err := f.FS.Open(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, p)
	}
	if err != nil {
		return nil, fmt.Errorf("tilesource: open %s: %w", p, err)
	}
	defer func() {
		_ = file.Close()
	}()
	return Decode(file)
}
