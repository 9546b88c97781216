package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/dendrolab/ringscan"
	"github.com/dendrolab/ringscan/internal/convolve"
	"github.com/dendrolab/ringscan/internal/raster"
	"github.com/dendrolab/ringscan/internal/tilesource"
	"github.com/dendrolab/ringscan/internal/viewer"
)

// workspace is the tile source, pipeline, viewer and engine built from a Config.
type workspace struct {
	source   *tilesource.Source
	pipeline *convolve.Pipeline
	viewer   *viewer.Viewer
	engine   *ringscan.Engine
}

func buildSource(cfg *Config) (*tilesource.Source, error) {
	if len(cfg.Source.Layers) == 0 {
		return nil, fmt.Errorf("no tile layers configured (add [[source.layers]] to %s)", defaultConfigPath())
	}
	fetchers := make([]tilesource.Fetcher, 0, len(cfg.Source.Layers))
	for _, l := range cfg.Source.Layers {
		if l.Dir != "" {
			fetchers = append(fetchers, tilesource.NewDirFetcher(l.Dir, l.Ext))
			continue
		}
		header := make(http.Header, len(l.Headers))
		for k, v := range l.Headers {
			header.Set(k, v)
		}
		fetchers = append(fetchers, &tilesource.HTTPFetcher{Template: l.URL, Header: header})
	}
	return tilesource.New(fetchers...)
}

func buildPipeline(cfg *Config) (*convolve.Pipeline, error) {
	pipe := convolve.New(
		convolve.WithBackend(cfg.Pipeline.Backend),
		convolve.WithWorkers(cfg.Pipeline.Workers),
		convolve.WithPoolSize(cfg.Pipeline.PoolSize),
	)
	if cfg.Pipeline.Program != "" {
		program, err := os.ReadFile(cfg.Pipeline.Program)
		if err != nil {
			pipe.Close()
			return nil, fmt.Errorf("reading program: %w", err)
		}
		if err := pipe.Configure(string(program), convolve.DefaultUniforms); err != nil {
			pipe.Close()
			return nil, err
		}
	}
	if err := pipe.SetPasses(cfg.Pipeline.Passes); err != nil {
		pipe.Close()
		return nil, err
	}
	return pipe, nil
}

func build(cfg *Config) (*workspace, error) {
	src, err := buildSource(cfg)
	if err != nil {
		return nil, err
	}
	crs, err := cfg.crs()
	if err != nil {
		return nil, err
	}
	fetchTimeout, err := time.ParseDuration(cfg.Source.Timeout)
	if err != nil {
		return nil, err
	}
	tileWait, err := time.ParseDuration(cfg.Sampler.TileWait)
	if err != nil {
		return nil, err
	}
	pipe, err := buildPipeline(cfg)
	if err != nil {
		return nil, err
	}

	v := viewer.New(src, pipe,
		viewer.WithCRS(crs),
		viewer.WithTileSize(cfg.View.TileSize),
		viewer.WithZoomRange(cfg.View.MinZoom, cfg.View.MaxZoom),
		viewer.WithPrefetch(cfg.View.Prefetch),
		viewer.WithCapacity(cfg.View.Capacity),
		viewer.WithFilterAdjustments(cfg.View.CSS),
		viewer.WithFetchTimeout(fetchTimeout),
	)
	eng, err := ringscan.New(v,
		ringscan.WithRenderer(pipe),
		ringscan.WithCanvasLimits(raster.Limits{
			MaxDimension: cfg.Sampler.MaxCanvasDimension,
			MaxArea:      cfg.Sampler.MaxCanvasArea,
		}),
		ringscan.WithMaxSubdivisions(cfg.Sampler.MaxSubdivisions),
		ringscan.WithTileWaitTimeout(tileWait),
	)
	if err != nil {
		v.Close()
		pipe.Close()
		return nil, err
	}
	return &workspace{source: src, pipeline: pipe, viewer: v, engine: eng}, nil
}

func (w *workspace) Close() {
	w.viewer.Close()
	w.pipeline.Close()
}
