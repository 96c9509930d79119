package engine

import (
	"errors"
	"image/color"
	"io"
	"log/slog"
	"strings"
	"testing"

	"cone-renderer/internal/animation"
	"cone-renderer/internal/gles"
	"cone-renderer/internal/mathutil"
	"cone-renderer/internal/softgl"
)

var variants = []Variant{FixedFunction, ShaderBased}

func quietConfig() Config {
	return Config{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func newEngine(t *testing.T, v Variant, cfg Config) (RenderingEngine, *softgl.Context) {
	t.Helper()
	dev := softgl.New(cfg.Logger)
	e, err := New(v, dev, cfg)
	if err != nil {
		t.Fatal(err)
	}
	return e, dev
}

func TestInitializeThenRenderIssuesTwoDrawCalls(t *testing.T) {
	for _, v := range variants {
		t.Run(v.String(), func(t *testing.T) {
			e, dev := newEngine(t, v, quietConfig())
			if err := e.Initialize(320, 480); err != nil {
				t.Fatal(err)
			}
			dev.ResetStats()
			e.Render()

			if err := dev.GetError(); err != gles.NoError {
				t.Fatalf("GetError = %s", gles.ErrorString(err))
			}
			st := dev.Stats()
			if st.Clears != 1 {
				t.Errorf("clears = %d, want 1", st.Clears)
			}
			if len(st.DrawCalls) != 2 {
				t.Fatalf("draw calls = %d, want 2", len(st.DrawCalls))
			}
			cone, disk := st.DrawCalls[0], st.DrawCalls[1]
			if cone.Mode != gles.TriangleStrip || cone.Count != 82 {
				t.Errorf("cone draw = %+v, want strip of 82", cone)
			}
			if disk.Mode != gles.TriangleFan || disk.Count != 42 {
				t.Errorf("disk draw = %+v, want fan of 42", disk)
			}
			if cone.Fragments == 0 {
				t.Error("cone produced no fragments")
			}
		})
	}
}

func TestRenderBeforeInitializeDrawsNothing(t *testing.T) {
	for _, v := range variants {
		t.Run(v.String(), func(t *testing.T) {
			e, dev := newEngine(t, v, quietConfig())
			e.UpdateAnimation(0.1)
			e.Render()
			if n := len(dev.Stats().DrawCalls); n != 0 {
				t.Errorf("draw calls = %d, want 0", n)
			}
		})
	}
}

func TestInitializeRejectsEmptySurface(t *testing.T) {
	for _, v := range variants {
		e, _ := newEngine(t, v, quietConfig())
		for _, size := range [][2]int{{0, 480}, {320, 0}, {-1, 10}} {
			if err := e.Initialize(size[0], size[1]); !errors.Is(err, ErrInvalidSize) {
				t.Errorf("%v: Initialize(%d, %d) = %v, want ErrInvalidSize", v, size[0], size[1], err)
			}
		}
	}
}

func TestShaderBuildFailureIsReturned(t *testing.T) {
	tests := []struct {
		name    string
		shaders ShaderSource
		stage   string
		log     string
	}{
		{
			name:    "vertex syntax",
			shaders: ShaderSource{Vertex: "attribute vec4 Position;\nvoid main(void) { gl_Position = Position }"},
			stage:   "vertex",
		},
		{
			name:    "fragment type",
			shaders: ShaderSource{Fragment: "void main(void) { gl_FragColor = vec3(1.0); }"},
			stage:   "fragment",
		},
		{
			name: "link",
			shaders: ShaderSource{
				Fragment: "varying lowp vec4 Missing;\nvoid main(void) { gl_FragColor = Missing; }",
			},
			stage: "link",
		},
		{
			name: "attributes renamed",
			shaders: ShaderSource{
				Vertex: `attribute vec4 Pos;
varying vec4 DestinationColor;
uniform mat4 Projection;
uniform mat4 Modelview;
void main(void) {
    DestinationColor = vec4(1.0);
    gl_Position = Projection * Modelview * Pos;
}`,
			},
			stage: "link",
			log:   "attribute Position, attribute SourceColor",
		},
		{
			name: "modelview missing",
			shaders: ShaderSource{
				Vertex: `attribute vec4 Position;
attribute vec4 SourceColor;
varying vec4 DestinationColor;
uniform mat4 Projection;
void main(void) {
    DestinationColor = SourceColor;
    gl_Position = Projection * Position;
}`,
			},
			stage: "link",
			log:   "uniform Modelview",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := quietConfig()
			cfg.Shaders = tt.shaders
			e, dev := newEngine(t, ShaderBased, cfg)

			err := e.Initialize(320, 480)
			if !errors.Is(err, ErrShaderBuild) {
				t.Fatalf("err = %v, want ErrShaderBuild", err)
			}
			var se *ShaderError
			if !errors.As(err, &se) {
				t.Fatalf("err %T is not *ShaderError", err)
			}
			if se.Stage != tt.stage {
				t.Errorf("stage = %q, want %q", se.Stage, tt.stage)
			}
			if !strings.Contains(se.Log, "ERROR") || !strings.Contains(se.Log, tt.log) {
				t.Errorf("log = %q", se.Log)
			}

			st := dev.Stats()
			if st.Programs != 0 || st.Shaders != 0 {
				t.Errorf("failed build leaked objects: %+v", st)
			}
			e.Render()
			if n := len(dev.Stats().DrawCalls); n != 0 {
				t.Errorf("render after failed initialize issued %d draw calls", n)
			}
		})
	}
}

func TestReinitializeDoesNotLeak(t *testing.T) {
	for _, v := range variants {
		t.Run(v.String(), func(t *testing.T) {
			e, dev := newEngine(t, v, quietConfig())
			if err := e.Initialize(320, 480); err != nil {
				t.Fatal(err)
			}
			first := dev.Stats()
			if first.Renderbuffers != 2 || first.Framebuffers != 1 {
				t.Fatalf("surface objects = %+v", first)
			}
			if err := e.Initialize(480, 320); err != nil {
				t.Fatal(err)
			}
			second := dev.Stats()
			if second.Renderbuffers != first.Renderbuffers || second.Framebuffers != first.Framebuffers ||
				second.Programs != first.Programs || second.Shaders != first.Shaders {
				t.Errorf("objects after re-initialize = %+v, want %+v", second, first)
			}
			if img := dev.Snapshot(); img.Bounds().Dx() != 480 || img.Bounds().Dy() != 320 {
				t.Errorf("surface = %v, want 480x320", img.Bounds())
			}
		})
	}
}

func TestCloseReleasesEverything(t *testing.T) {
	for _, v := range variants {
		t.Run(v.String(), func(t *testing.T) {
			e, dev := newEngine(t, v, quietConfig())
			if err := e.Initialize(64, 64); err != nil {
				t.Fatal(err)
			}
			e.Render()
			if err := e.Close(); err != nil {
				t.Fatal(err)
			}
			st := dev.Stats()
			if st.Renderbuffers+st.Framebuffers+st.Programs+st.Shaders != 0 {
				t.Errorf("objects after Close = %+v", st)
			}

			dev.ResetStats()
			e.Render()
			if n := len(dev.Stats().DrawCalls); n != 0 {
				t.Errorf("render after Close issued %d draw calls", n)
			}
		})
	}
}

var background = color.NRGBA{128, 128, 128, 255}

func TestRenderDrawsConeOverBackground(t *testing.T) {
	for _, v := range variants {
		t.Run(v.String(), func(t *testing.T) {
			e, dev := newEngine(t, v, quietConfig())
			if err := e.Initialize(64, 96); err != nil {
				t.Fatal(err)
			}
			e.Render()
			img := dev.Snapshot()
			if got := img.NRGBAAt(0, 0); got != background {
				t.Errorf("corner = %v, want clear gray", got)
			}
			if got := img.NRGBAAt(32, 48); got == background {
				t.Error("center shows background, want cone")
			}
		})
	}
}

func TestVariantsAgree(t *testing.T) {
	render := func(v Variant) []uint8 {
		e, dev := newEngine(t, v, quietConfig())
		if err := e.Initialize(64, 96); err != nil {
			t.Fatal(err)
		}
		e.OnRotate(animation.LandscapeLeft)
		e.UpdateAnimation(0.1)
		e.Render()
		return dev.Snapshot().Pix
	}
	a, b := render(FixedFunction), render(ShaderBased)

	// The two pipelines round matrices differently, so allow a few edge
	// pixels to disagree.
	differ := 0
	for i := 0; i < len(a); i += 4 {
		for k := 0; k < 4; k++ {
			d := int(a[i+k]) - int(b[i+k])
			if d > 2 || d < -2 {
				differ++
				break
			}
		}
	}
	if total := len(a) / 4; differ*100 > total {
		t.Errorf("%d of %d pixels differ between variants", differ, total)
	}
}

func TestOnRotateAnimatesToTarget(t *testing.T) {
	for _, v := range variants {
		t.Run(v.String(), func(t *testing.T) {
			e, dev := newEngine(t, v, quietConfig())
			if err := e.Initialize(64, 96); err != nil {
				t.Fatal(err)
			}
			e.Render()
			portrait := append([]uint8(nil), dev.Snapshot().Pix...)

			e.OnRotate(animation.LandscapeLeft)
			if e.Target() != animation.LandscapeLeft {
				t.Errorf("Target = %v", e.Target())
			}
			a := e.Animation()
			if a.State() != animation.Animating || a.Elapsed != 0 {
				t.Fatalf("after OnRotate: state %v elapsed %v", a.State(), a.Elapsed)
			}

			for i := 0; i < 3; i++ {
				e.UpdateAnimation(0.1)
			}
			a = e.Animation()
			if a.State() != animation.Settled {
				t.Fatalf("state after 0.3s = %v, want settled", a.State())
			}
			want := mathutil.QuatFromVectors(animation.ModelUp, mathutil.Vec3{1, 0, 0})
			if !a.Current.ApproxEqual(want, 1e-12) {
				t.Errorf("current = %v, want %v", a.Current, want)
			}

			e.Render()
			if string(dev.Snapshot().Pix) == string(portrait) {
				t.Error("landscape frame is identical to portrait frame")
			}
		})
	}
}

func TestConfigDuration(t *testing.T) {
	cfg := quietConfig()
	cfg.Duration = 1
	e, _ := newEngine(t, FixedFunction, cfg)
	e.OnRotate(animation.PortraitUpsideDown)
	e.UpdateAnimation(0.5)
	if a := e.Animation(); a.State() != animation.Animating || a.Progress() != 0.5 {
		t.Errorf("after 0.5 of 1s: state %v progress %v", a.State(), a.Progress())
	}
}

func TestParseVariant(t *testing.T) {
	tests := []struct {
		in   string
		want Variant
	}{
		{"fixed", FixedFunction},
		{"ES1", FixedFunction},
		{" shader ", ShaderBased},
		{"shader-based", ShaderBased},
	}
	for _, tt := range tests {
		got, err := ParseVariant(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseVariant(%q) = %v, %v", tt.in, got, err)
		}
	}
	if _, err := ParseVariant("vulkan"); !errors.Is(err, ErrUnknownVariant) {
		t.Errorf("ParseVariant(vulkan) err = %v", err)
	}
	if _, err := New(Variant(7), softgl.New(nil), Config{}); !errors.Is(err, ErrUnknownVariant) {
		t.Errorf("New(7) err = %v", err)
	}
}
