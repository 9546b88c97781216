package ringscan

import (
	"context"
	"errors"
	"fmt"

	"github.com/dendrolab/ringscan/internal/convolve"
	"github.com/dendrolab/ringscan/internal/cssfilter"
	"github.com/dendrolab/ringscan/internal/detect"
	"github.com/dendrolab/ringscan/internal/geom"
	"github.com/dendrolab/ringscan/internal/placement"
	"github.com/dendrolab/ringscan/internal/sampler"
	"github.com/dendrolab/ringscan/internal/tilesource"
)

// FailureKind classifies the errors returned by Engine.
type FailureKind int

const (
	// ConfigurationError: the enhancement program failed to compile or link.
	// The pipeline stays disabled until it is configured again.
	ConfigurationError FailureKind = iota + 1
	// ResourceUnavailable: a tile needed for a capture failed or never loaded.
	ResourceUnavailable
	// CaptureAreaTooLarge: no subdivision of the band fits the canvas limits.
	CaptureAreaTooLarge
	// DegenerateInput: the request can not describe a measurement.
	DegenerateInput
)

func (k FailureKind) String() string {
	switch k {
	case ConfigurationError:
		return "configuration error"
	case ResourceUnavailable:
		return "resource unavailable"
	case CaptureAreaTooLarge:
		return "capture area too large"
	case DegenerateInput:
		return "degenerate input"
	}
	return fmt.Sprintf("FailureKind(%d)", int(k))
}

// Failure is the error type returned by Engine operations. Match a kind
// with errors.Is against the Err* values, or unwrap to the cause.
type Failure struct {
	Kind FailureKind
	Err  error
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return "ringscan: " + f.Kind.String()
	}
	return fmt.Sprintf("ringscan: %s: %v", f.Kind, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// Is reports whether target is a Failure of the same kind without a cause,
// which is how the Err* values below are matched.
func (f *Failure) Is(target error) bool {
	t, ok := target.(*Failure)
	return ok && t.Err == nil && t.Kind == f.Kind
}

// Values for errors.Is.
var (
	ErrConfiguration       error = &Failure{Kind: ConfigurationError}
	ErrResourceUnavailable error = &Failure{Kind: ResourceUnavailable}
	ErrCaptureAreaTooLarge error = &Failure{Kind: CaptureAreaTooLarge}
	ErrDegenerateInput     error = &Failure{Kind: DegenerateInput}

	// ErrSuperseded is returned by a capture abandoned for a newer one.
	// It is not a Failure: the newer capture carries on.
	ErrSuperseded = sampler.ErrSuperseded

	// ErrNoRenderer is wrapped in a ConfigurationError when filter passes
	// are set on an Engine without a renderer.
	ErrNoRenderer = errors.New("ringscan: no renderer")
)

// classify wraps err in the Failure matching its cause.
func classify(err error) error {
	var cfg *convolve.ConfigError
	switch {
	case err == nil:
		return nil
	case errors.As(err, new(*Failure)),
		errors.Is(err, sampler.ErrSuperseded),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.As(err, &cfg), errors.Is(err, ErrNoRenderer):
		return &Failure{Kind: ConfigurationError, Err: err}
	case errors.Is(err, sampler.ErrCaptureAreaTooLarge):
		return &Failure{Kind: CaptureAreaTooLarge, Err: err}
	case errors.Is(err, sampler.ErrResourceUnavailable),
		errors.Is(err, tilesource.ErrResourceUnavailable):
		return &Failure{Kind: ResourceUnavailable, Err: err}
	case errors.Is(err, sampler.ErrDegenerateInput),
		errors.Is(err, geom.ErrDegenerate),
		errors.Is(err, convolve.ErrInvalidPass),
		errors.Is(err, cssfilter.ErrSyntax),
		errors.Is(err, cssfilter.ErrUnsupported),
		errors.Is(err, detect.ErrInvalidSettings),
		errors.Is(err, detect.ErrEmptyBuffer),
		errors.Is(err, detect.ErrUnknownAlgorithm),
		errors.Is(err, placement.ErrDegenerate):
		return &Failure{Kind: DegenerateInput, Err: err}
	}
	return err
}
