package engine

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidSize       = errors.New("engine: invalid surface size")
	ErrIncompleteSurface = errors.New("engine: framebuffer incomplete")
	ErrShaderBuild       = errors.New("engine: shader build failed")
	ErrUnknownVariant    = errors.New("engine: unknown variant")
)

// ShaderError carries the driver's info log for a failed compile or link.
// It matches ErrShaderBuild under errors.Is.
type ShaderError struct {
	// Stage is "vertex", "fragment" or "link".
	Stage string
	Log   string
}

func (e *ShaderError) Error() string {
	return fmt.Sprintf("engine: %s shader: %s", e.Stage, strings.TrimSpace(e.Log))
}

func (e *ShaderError) Is(target error) bool {
	return target == ErrShaderBuild
}
