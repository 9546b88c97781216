package convolve

import (
	"errors"
	"fmt"

	"github.com/dendrolab/ringscan/internal/kernel"
)

// ErrInvalidPass is returned for a pass with an unknown kernel or a strength
// outside [0, 1].
var ErrInvalidPass = errors.New("convolve: invalid filter pass")

// FilterPass applies one catalog kernel, blended with its input by Strength.
// A pass with Strength 0 is skipped entirely.
type FilterPass struct {
	Kernel   string  `toml:"kernel"`
	Strength float32 `toml:"strength"`
}

// Validate checks the kernel name and the strength range.
func (p FilterPass) Validate() error {
	if _, ok := kernel.Lookup(p.Kernel); !ok {
		return fmt.Errorf("%w: unknown kernel %q", ErrInvalidPass, p.Kernel)
	}
	if !(p.Strength >= 0 && p.Strength <= 1) {
		return fmt.Errorf("%w: %s strength %v outside [0, 1]", ErrInvalidPass, p.Kernel, p.Strength)
	}
	return nil
}

// ValidatePasses validates every pass in order and reports the first failure.
func ValidatePasses(passes []FilterPass) error {
	for i, p := range passes {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("pass %d: %w", i, err)
		}
	}
	return nil
}

// active returns the passes that actually run.
func active(passes []FilterPass) []FilterPass {
	out := make([]FilterPass, 0, len(passes))
	for _, p := range passes {
		if p.Strength > 0 {
			out = append(out, p)
		}
	}
	return out
}
