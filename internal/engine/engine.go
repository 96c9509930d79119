// Package engine draws the rotating cone. Two interchangeable variants
// implement RenderingEngine: one over the OpenGL ES 1.1 fixed-function
// pipeline, one over the OpenGL ES 2.0 shader pipeline.
package engine

import (
	"fmt"
	"log/slog"
	"strings"

	"cone-renderer/internal/animation"
	"cone-renderer/internal/gles"
	"cone-renderer/internal/mathutil"
	"cone-renderer/internal/mesh"
)

// Scene constants.
const (
	frustumHalfWidth = 1.6
	nearPlane        = 5
	farPlane         = 10
	cameraDistance   = 7
)

var clearColor = [4]float32{0.5, 0.5, 0.5, 1}

// RenderingEngine is driven by a host loop: Initialize once the surface size
// is known, then UpdateAnimation and Render every frame, OnRotate whenever
// the device orientation changes.
type RenderingEngine interface {
	// Initialize allocates the surface, builds the meshes and sets up the
	// projection. Calling it again releases the earlier resources first.
	Initialize(width, height int) error
	// Render draws one frame. It does nothing before Initialize.
	Render()
	UpdateAnimation(dt float64)
	OnRotate(o animation.Orientation)
	// Close releases every GL object the engine owns.
	Close() error

	// Target is the orientation most recently passed to OnRotate.
	Target() animation.Orientation
	Animation() animation.Animation
}

// Variant selects a RenderingEngine implementation.
type Variant int

const (
	FixedFunction Variant = iota
	ShaderBased
)

func (v Variant) String() string {
	switch v {
	case FixedFunction:
		return "fixed"
	case ShaderBased:
		return "shader"
	}
	return fmt.Sprintf("variant(%d)", int(v))
}

// ParseVariant accepts "fixed" / "es1" and "shader" / "es2".
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fixed", "fixed-function", "es1":
		return FixedFunction, nil
	case "shader", "shader-based", "es2":
		return ShaderBased, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownVariant, s)
}

func (v Variant) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

func (v *Variant) UnmarshalText(b []byte) error {
	parsed, err := ParseVariant(string(b))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// ShaderSource is the program text the shader variant compiles.
type ShaderSource struct {
	Vertex   string
	Fragment string
}

// Config holds construction-time settings shared by both variants.
type Config struct {
	// Logger receives diagnostics; nil means slog.Default().
	Logger *slog.Logger
	// Duration of a reorientation in seconds; 0 means
	// animation.DefaultDuration.
	Duration float64
	// Shaders is used by the shader variant; empty fields fall back to
	// DefaultShaders.
	Shaders ShaderSource
}

func (c Config) withDefaults() Config {
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Duration == 0 {
		c.Duration = animation.DefaultDuration
	}
	if c.Shaders.Vertex == "" {
		c.Shaders.Vertex = DefaultShaders.Vertex
	}
	if c.Shaders.Fragment == "" {
		c.Shaders.Fragment = DefaultShaders.Fragment
	}
	return c
}

// New builds the chosen variant on dev.
func New(v Variant, dev gles.Device, cfg Config) (RenderingEngine, error) {
	switch v {
	case FixedFunction:
		return NewFixedFunction(dev, cfg), nil
	case ShaderBased:
		return NewShaderBased(dev, cfg), nil
	}
	return nil, fmt.Errorf("%w: %v", ErrUnknownVariant, v)
}

// base is the state both variants share: animation, geometry and surface.
type base struct {
	log    *slog.Logger
	anim   animation.Animation
	target animation.Orientation

	cone, disk []float32
	coneCount  int32
	diskCount  int32

	surf        surface
	width       int
	height      int
	initialized bool
}

func newBase(cfg Config, variant Variant) base {
	return base{
		log:    cfg.Logger.With("engine", variant.String()),
		anim:   animation.New(cfg.Duration),
		target: animation.Portrait,
	}
}

// prepare validates the size, releases earlier resources, builds the
// meshes and allocates a fresh surface.
func (b *base) prepare(gl gles.Context, width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	b.surf.release(gl)
	b.initialized = false

	cone, disk := mesh.Model()
	b.cone, b.coneCount = cone.Interleave(), int32(len(cone.Vertices))
	b.disk, b.diskCount = disk.Interleave(), int32(len(disk.Vertices))

	if err := b.surf.create(gl, int32(width), int32(height)); err != nil {
		return err
	}
	gl.Viewport(0, 0, int32(width), int32(height))
	gl.Enable(gles.DepthTest)
	b.width, b.height = width, height
	return nil
}

type frustum struct {
	left, right, bottom, top, near, far float64
}

func (f frustum) matrix() mathutil.Mat4 {
	return mathutil.Frustum(f.left, f.right, f.bottom, f.top, f.near, f.far)
}

// frustum keeps the horizontal extent fixed and scales the vertical one by
// the surface aspect ratio.
func (b *base) frustum() frustum {
	maxY := frustumHalfWidth * float64(b.height) / float64(b.width)
	return frustum{-frustumHalfWidth, frustumHalfWidth, -maxY, maxY, nearPlane, farPlane}
}

func (b *base) clear(gl gles.Context) {
	gl.ClearColor(clearColor[0], clearColor[1], clearColor[2], clearColor[3])
	gl.Clear(gles.ColorBufferBit | gles.DepthBufferBit)
}

func (b *base) rotation() [16]float32 {
	return b.anim.Current.ToMatrix().Float32()
}

func (b *base) UpdateAnimation(dt float64) {
	b.anim.Update(dt)
}

func (b *base) OnRotate(o animation.Orientation) {
	b.target = o
	b.anim.Rotate(o)
	b.log.Debug("rotate", "orientation", o, "state", b.anim.State())
}

func (b *base) Target() animation.Orientation { return b.target }

func (b *base) Animation() animation.Animation { return b.anim }

// checkGL turns a latched GL error into a Go error.
func checkGL(gl gles.Context, op string) error {
	if e := gl.GetError(); e != gles.NoError {
		return fmt.Errorf("engine: %s: %s", op, gles.ErrorString(e))
	}
	return nil
}
