package convolve

import (
	_ "embed"
	"fmt"

	"github.com/gogpu/naga"
)

// DefaultProgram is the built-in convolution compute program.
//
//go:embed shaders/convolve.wgsl
var DefaultProgram string

// DefaultUniforms declares the Params block and the bindings DefaultProgram uses.
//
//go:embed shaders/uniforms.wgsl
var DefaultUniforms string

// ConfigError reports a program that failed to compile. The pipeline stays
// disabled until the next successful Configure.
type ConfigError struct {
	Stage string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("convolve: %s failed: %v", e.Stage, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Compile assembles the uniform declarations and the program and compiles
// them from WGSL to SPIR-V words.
func Compile(program, uniformDecls string) ([]uint32, error) {
	source := uniformDecls + "\n" + program
	spirvBytes, err := naga.Compile(source)
	if err != nil {
		return nil, &ConfigError{Stage: "compile", Err: err}
	}
	if len(spirvBytes) == 0 || len(spirvBytes)%4 != 0 {
		return nil, &ConfigError{Stage: "compile", Err: fmt.Errorf("SPIR-V output has %d bytes", len(spirvBytes))}
	}

	// SPIR-V is little-endian 32-bit words.
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return words, nil
}
