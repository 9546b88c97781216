// Command ringscan samples measurement bands from a tile pyramid, detects
// tree-ring boundaries in them and prints the boundary coordinates.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/dendrolab/ringscan"
	_ "github.com/dendrolab/ringscan/gpu"
	"github.com/dendrolab/ringscan/internal/geom"
)

const appName = "ringscan"

// app carries the state shared by all subcommands.
type app struct {
	configPath string
	logLevel   string
	config     *Config
	printer    *message.Printer
	out        io.Writer
}

func (a *app) load(cmd *cobra.Command) error {
	cfg, err := LoadConfigFromFile(a.configPath)
	if err != nil {
		return fmt.Errorf("loading %s: %w", a.configPath, err)
	}
	a.config = cfg

	level := cfg.Log.Level
	if cmd.Flags().Changed("log-level") {
		level = a.logLevel
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	ringscan.SetLogger(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: l})))

	tag, err := language.Parse(cfg.Log.Language)
	if err != nil {
		tag = language.English
	}
	a.printer = message.NewPrinter(tag)
	a.out = cmd.OutOrStdout()
	return nil
}

func newRootCmd() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:   appName,
		Short: "Tree-ring boundary detection on tiled core scans",
		Long: color.New(color.FgHiGreen).Sprintf(
			"ringscan %s", ringscan.Version,
		) + "\n\nSamples a band along a measurement segment, finds ring boundaries and\nprints their coordinates.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}
	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", defaultConfigPath(), "Path to the TOML config file")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newDetectCmd(a),
		newRenderCmd(a),
		newKernelsCmd(a),
		newConfigCmd(a),
	)
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		red := color.New(color.FgRed, color.Bold)
		red.Fprintf(os.Stderr, "error: ") // nolint: errcheck
		fmt.Fprintln(os.Stderr, err)
		if hint := hintFor(err); hint != "" {
			fmt.Fprintln(os.Stderr, color.YellowString(hint))
		}
		os.Exit(1)
	}
}

// hintFor suggests a fix for the failures a user can act on.
func hintFor(err error) string {
	switch {
	case errors.Is(err, ringscan.ErrCaptureAreaTooLarge):
		return "the band does not fit the canvas limits: shorten the segment, lower the zoom or raise sampler.max_subdivisions"
	case errors.Is(err, ringscan.ErrResourceUnavailable):
		return "a tile could not be loaded: check the [[source.layers]] settings"
	case errors.Is(err, ringscan.ErrDegenerateInput):
		return "check the anchors, band height, zoom and detection settings"
	case errors.Is(err, ringscan.ErrConfiguration):
		return "the enhancement program failed to compile: check pipeline.program"
	}
	return ""
}

// parseLatLng reads "lat,lng".
func parseLatLng(s string) (ringscan.LatLng, error) {
	latText, lngText, ok := strings.Cut(s, ",")
	if !ok {
		return ringscan.LatLng{}, fmt.Errorf("position %q: want lat,lng", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latText), 64)
	if err != nil {
		return ringscan.LatLng{}, fmt.Errorf("position %q: %w", s, err)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(lngText), 64)
	if err != nil {
		return ringscan.LatLng{}, fmt.Errorf("position %q: %w", s, err)
	}
	return geom.LL(lat, lng), nil
}
