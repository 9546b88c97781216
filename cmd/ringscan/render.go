package main

import (
	"fmt"
	"image/png"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dendrolab/ringscan"
	"github.com/dendrolab/ringscan/internal/convolve"
	"github.com/dendrolab/ringscan/internal/tile"
)

func newRenderCmd(a *app) *cobra.Command {
	var (
		coord  string
		out    string
		passes string
	)
	cmd := &cobra.Command{
		Use:     "render",
		Short:   "Render one enhanced tile to a PNG file",
		Example: "  ringscan render --tile 18/131072/87152 --passes sharpen:0.8,edgeDetect:0.3 --out tile.png",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := parseTile(coord)
			if err != nil {
				return err
			}
			cfg := a.config
			if cmd.Flags().Changed("passes") {
				if cfg.Pipeline.Passes, err = parsePasses(passes); err != nil {
					return err
				}
			}
			src, err := buildSource(cfg)
			if err != nil {
				return err
			}
			crs, err := cfg.crs()
			if err != nil {
				return err
			}
			pipe, err := buildPipeline(cfg)
			if err != nil {
				return err
			}
			defer pipe.Close()

			layers, err := src.Fetch(cmd.Context(), c)
			if err != nil {
				return err
			}
			img, err := pipe.Render(convolve.NewTile(c, cfg.View.TileSize, crs), layers)
			if err != nil {
				return err
			}
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := png.Encode(f, img); err != nil {
				f.Close() // nolint: errcheck
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintln(a.out, a.printer.Sprintf("%s: %d layers, %d passes, %s backend -> %s",
				c, len(layers), len(cfg.Pipeline.Passes), pipe.Backend(), out))
			return nil
		},
	}
	cmd.Flags().StringVarP(&coord, "tile", "t", "", "Tile as z/x/y")
	cmd.Flags().StringVarP(&out, "out", "o", "tile.png", "Output PNG file")
	cmd.Flags().StringVar(&passes, "passes", "", "Passes as kernel:strength,... (default pipeline.passes)")
	_ = cmd.MarkFlagRequired("tile")
	return cmd
}

// parseTile reads "z/x/y".
func parseTile(s string) (tile.Coord, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return tile.Coord{}, fmt.Errorf("tile %q: want z/x/y", s)
	}
	var v [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return tile.Coord{}, fmt.Errorf("tile %q: %w", s, err)
		}
		v[i] = n
	}
	c := tile.Coord{Z: v[0], X: v[1], Y: v[2]}
	if !c.Valid() {
		return tile.Coord{}, fmt.Errorf("tile %q is outside the pyramid", s)
	}
	return c, nil
}

// parsePasses reads "kernel:strength,kernel:strength". A missing strength is 1.
func parsePasses(s string) ([]ringscan.FilterPass, error) {
	var passes []ringscan.FilterPass
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		name, strength, hasStrength := strings.Cut(item, ":")
		fp := ringscan.FilterPass{Kernel: name, Strength: 1}
		if hasStrength {
			v, err := strconv.ParseFloat(strength, 32)
			if err != nil {
				return nil, fmt.Errorf("pass %q: %w", item, err)
			}
			fp.Strength = float32(v)
		}
		passes = append(passes, fp)
	}
	return passes, convolve.ValidatePasses(passes)
}
