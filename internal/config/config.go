package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"cone-renderer/internal/animation"
	"cone-renderer/internal/engine"
	"cone-renderer/internal/host"
	"cone-renderer/internal/record"

	"gopkg.in/yaml.v3"
)

// Config holds the render settings and the orientation script.
type Config struct {
	// Engine selects the rendering engine: "fixed" or "shader".
	Engine string `json:"engine" yaml:"engine"`

	// Output size in pixels. Frames render at Supersample times this size.
	Width       int `json:"width" yaml:"width"`
	Height      int `json:"height" yaml:"height"`
	Supersample int `json:"supersample" yaml:"supersample"`

	// Timing
	FPS      float64 `json:"fps" yaml:"fps"`
	Frames   int     `json:"frames" yaml:"frames"`
	Duration float64 `json:"duration" yaml:"duration"` // seconds per rotation

	// Output
	OutputDir string `json:"output_dir" yaml:"output_dir"`
	Format    string `json:"format" yaml:"format"`
	Workers   int    `json:"workers" yaml:"workers"`
	Annotate  bool   `json:"annotate" yaml:"annotate"`

	Script host.Script `json:"script" yaml:"script"`

	// Optional GLSL sources for the shader engine. Relative paths resolve
	// against the config file's directory.
	VertexShader   string `json:"vertex_shader" yaml:"vertex_shader"`
	FragmentShader string `json:"fragment_shader" yaml:"fragment_shader"`

	dir string
}

// DefaultScript turns the device through every orientation and back.
var DefaultScript = host.Script{
	{At: 0, Orientation: animation.Portrait},
	{At: 0.5, Orientation: animation.LandscapeLeft},
	{At: 1.0, Orientation: animation.PortraitUpsideDown},
	{At: 1.5, Orientation: animation.LandscapeRight},
	{At: 2.0, Orientation: animation.FaceUp},
	{At: 2.5, Orientation: animation.FaceDown},
	{At: 3.0, Orientation: animation.Portrait},
}

// Load reads a config file. Files ending in .yaml or .yml are YAML, anything
// else JSON. Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.dir = filepath.Dir(path)
	return cfg, nil
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	Engine    string
	Width     int
	Height    int
	Frames    int
	FPS       float64
	OutputDir string
	Format    string
	Workers   int
	Script    string
	Annotate  bool
}

// Resolve applies flags, fills defaults and validates the result.
// CLI flags take priority when non-zero/non-empty.
func (c *Config) Resolve(flags Flags) error {
	if flags.Engine != "" {
		c.Engine = flags.Engine
	}
	if flags.Width > 0 {
		c.Width = flags.Width
	}
	if flags.Height > 0 {
		c.Height = flags.Height
	}
	if flags.Frames > 0 {
		c.Frames = flags.Frames
	}
	if flags.FPS > 0 {
		c.FPS = flags.FPS
	}
	if flags.OutputDir != "" {
		c.OutputDir = flags.OutputDir
	}
	if flags.Format != "" {
		c.Format = flags.Format
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}
	if flags.Annotate {
		c.Annotate = true
	}
	if flags.Script != "" {
		s, err := host.ParseScript(flags.Script)
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		c.Script = s
	}

	if c.Engine == "" {
		c.Engine = engine.ShaderBased.String()
	}
	if c.Width <= 0 {
		c.Width = 320
	}
	if c.Height <= 0 {
		c.Height = 480
	}
	if c.Supersample <= 0 {
		c.Supersample = 1
	}
	if c.FPS <= 0 {
		c.FPS = 30
	}
	if c.Duration <= 0 {
		c.Duration = animation.DefaultDuration
	}
	if c.OutputDir == "" {
		c.OutputDir = "frames"
	}
	if c.Format == "" {
		c.Format = string(record.WebP)
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if len(c.Script) == 0 {
		c.Script = append(host.Script(nil), DefaultScript...)
	}

	if _, err := c.Variant(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	f, err := record.ParseFormat(c.Format)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	c.Format = string(f)
	if err := c.Script.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	// Long enough for the last cue's rotation to settle, plus a short hold.
	if c.Frames <= 0 {
		c.Frames = int(math.Ceil((c.Script.End() + c.Duration + 0.25) * c.FPS))
	}
	return nil
}

// Variant parses Engine.
func (c Config) Variant() (engine.Variant, error) {
	return engine.ParseVariant(c.Engine)
}

// RenderSize is the size of the surface the engine draws into.
func (c Config) RenderSize() (width, height int) {
	return c.Width * c.Supersample, c.Height * c.Supersample
}

// LoadShaders reads the configured shader files. Stages without a file use
// engine.DefaultShaders.
func (c Config) LoadShaders() (engine.ShaderSource, error) {
	src := engine.DefaultShaders
	for _, s := range []struct {
		path string
		dst  *string
	}{
		{c.VertexShader, &src.Vertex},
		{c.FragmentShader, &src.Fragment},
	} {
		if s.path == "" {
			continue
		}
		path := s.path
		if !filepath.IsAbs(path) && c.dir != "" {
			path = filepath.Join(c.dir, path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return engine.ShaderSource{}, fmt.Errorf("config: shader: %w", err)
		}
		*s.dst = string(data)
	}
	return src, nil
}
