package main

import (
	"context"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dendrolab/ringscan"
	"github.com/dendrolab/ringscan/internal/placement"
)

type detectFlags struct {
	from, to  string
	height    int
	zoom      int
	algorithm string
	direction string
	annual    bool
	css       string
	save      string
	timeout   time.Duration
}

func newDetectCmd(a *app) *cobra.Command {
	var f detectFlags
	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Detect ring boundaries between two anchors",
		Example: "  ringscan detect --from 51.50001,-0.12002 --to 51.50004,-0.11950 --height 20\n" +
			"  ringscan detect --from 0,0 --to 0,0.001 --algorithm ed --direction backward --save band.png",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDetect(cmd, a, f)
		},
	}
	cmd.Flags().StringVar(&f.from, "from", "", "First anchor as lat,lng")
	cmd.Flags().StringVar(&f.to, "to", "", "Second anchor as lat,lng")
	cmd.Flags().IntVar(&f.height, "height", 20, "Band height in pixels")
	cmd.Flags().IntVar(&f.zoom, "zoom", -1, "Sampling zoom (default view.max_zoom)")
	cmd.Flags().StringVarP(&f.algorithm, "algorithm", "a", "", "Detection algorithm: pc or ed (default detect.algorithm)")
	cmd.Flags().StringVarP(&f.direction, "direction", "d", "", "forward or backward (default detect.direction)")
	cmd.Flags().BoolVar(&f.annual, "annual", false, "Annual instead of sub-annual boundaries")
	cmd.Flags().StringVar(&f.css, "css", "", "CSS filter baked into the capture (default view.css, \"none\" for none)")
	cmd.Flags().StringVar(&f.save, "save", "", "Write the captured band to this PNG file")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 2*time.Minute, "Overall time limit")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func runDetect(cmd *cobra.Command, a *app, f detectFlags) error {
	cfg := a.config
	from, err := parseLatLng(f.from)
	if err != nil {
		return err
	}
	to, err := parseLatLng(f.to)
	if err != nil {
		return err
	}
	zoom := f.zoom
	if zoom < 0 {
		zoom = cfg.View.MaxZoom
	}
	kind := ringscan.AlgorithmKind(cfg.Detect.Algorithm)
	if f.algorithm != "" {
		kind = ringscan.AlgorithmKind(f.algorithm)
	}
	dirName := cfg.Detect.Direction
	if f.direction != "" {
		dirName = f.direction
	}
	dir, err := placement.ParseDirection(dirName)
	if err != nil {
		return err
	}
	settings := cfg.Detect.Settings
	if cmd.Flags().Changed("annual") {
		settings.Annual = f.annual
	}
	settings.Zoom, settings.MaxZoom = zoom, cfg.View.MaxZoom

	ws, err := build(cfg)
	if err != nil {
		return err
	}
	defer ws.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), f.timeout)
	defer cancel()

	start := time.Now()
	buf, err := ws.engine.SampleRegion(ctx, from, to, f.height, zoom, f.css)
	if err != nil {
		return err
	}
	if f.save != "" {
		if err := savePNG(f.save, buf); err != nil {
			return err
		}
	}
	offsets, err := ws.engine.DetectBoundaries(buf, kind, settings)
	if err != nil {
		return err
	}
	points, err := ws.engine.MapToCoordinates(offsets, from, to, dir, zoom)
	if err != nil {
		return err
	}

	p := a.printer
	header := color.New(color.FgHiGreen, color.Bold)
	header.Fprintln(a.out, p.Sprintf("%d boundaries in a %d x %d px band (%v, %s)", // nolint: errcheck
		len(points), buf.Width, buf.Height, time.Since(start).Round(time.Millisecond), kind))
	order := offsets
	if dir == ringscan.Backward {
		order = slices.Clone(offsets)
		slices.Reverse(order)
	}
	for i, ll := range points {
		fmt.Fprintln(a.out, p.Sprintf("%4d  %8d px  %12.7f %12.7f", i+1, order[i], ll.Lat, ll.Lng))
	}
	return nil
}

func savePNG(path string, buf *ringscan.SampleBuffer) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := buf.EncodePNG(f); err != nil {
		f.Close() // nolint: errcheck
		return err
	}
	return f.Close()
}
