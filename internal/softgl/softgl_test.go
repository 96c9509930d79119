package softgl

import (
	"bytes"
	"image/color"
	"strings"
	"testing"

	"cone-renderer/internal/gles"
	"cone-renderer/internal/mathutil"
)

const (
	passVertex = `
attribute vec4 Position;
attribute vec4 SourceColor;
varying vec4 DestinationColor;
uniform mat4 Projection;
uniform mat4 Modelview;
void main(void)
{
    DestinationColor = SourceColor;
    gl_Position = Projection * Modelview * Position;
}
`
	passFragment = `
varying lowp vec4 DestinationColor;
void main(void)
{
    gl_FragColor = DestinationColor;
}
`
)

var (
	red   = [4]float32{1, 0, 0, 1}
	green = [4]float32{0, 1, 0, 1}
	blue  = [4]float32{0, 0, 1, 1}
	white = [4]float32{1, 1, 1, 1}
)

func newSurface(t *testing.T, w, h int32) *Context {
	t.Helper()
	c := New(nil)
	var rb [2]uint32
	c.GenRenderbuffers(2, &rb[0])
	c.BindRenderbuffer(gles.Renderbuffer, rb[0])
	c.RenderbufferStorage(gles.Renderbuffer, gles.RGBA8, w, h)
	c.BindRenderbuffer(gles.Renderbuffer, rb[1])
	c.RenderbufferStorage(gles.Renderbuffer, gles.DepthComponent16, w, h)

	var fb uint32
	c.GenFramebuffers(1, &fb)
	c.BindFramebuffer(gles.Framebuffer, fb)
	c.FramebufferRenderbuffer(gles.Framebuffer, gles.ColorAttachment0, gles.Renderbuffer, rb[0])
	c.FramebufferRenderbuffer(gles.Framebuffer, gles.DepthAttachment, gles.Renderbuffer, rb[1])
	if st := c.CheckFramebufferStatus(gles.Framebuffer); st != gles.FramebufferComplete {
		t.Fatalf("framebuffer status = %#x", st)
	}

	c.Viewport(0, 0, w, h)
	c.Enable(gles.DepthTest)
	c.ClearColor(0, 0, 0, 1)
	c.Clear(gles.ColorBufferBit | gles.DepthBufferBit)
	mustNoError(t, c)
	return c
}

func mustNoError(t *testing.T, c *Context) {
	t.Helper()
	if e := c.GetError(); e != gles.NoError {
		t.Fatalf("GetError = %s", gles.ErrorString(e))
	}
}

// quad returns a four-vertex strip in the 7-float interleaved layout.
func quad(x0, y0, x1, y1, z float32, colors [4][4]float32) []float32 {
	pos := [4][3]float32{{x0, y0, z}, {x1, y0, z}, {x0, y1, z}, {x1, y1, z}}
	out := make([]float32, 0, 28)
	for i := range pos {
		out = append(out, pos[i][:]...)
		out = append(out, colors[i][:]...)
	}
	return out
}

func solid(c [4]float32) [4][4]float32 { return [4][4]float32{c, c, c, c} }

func drawFixed(c *Context, data []float32, proj, mv mathutil.Mat4) {
	p, m := proj.Float32(), mv.Float32()
	c.MatrixMode(gles.Projection)
	c.LoadIdentity()
	c.MultMatrixf(&p)
	c.MatrixMode(gles.Modelview)
	c.LoadIdentity()
	c.MultMatrixf(&m)

	c.EnableClientState(gles.VertexArray)
	c.EnableClientState(gles.ColorArray)
	c.VertexPointer(3, gles.Float, 28, data)
	c.ColorPointer(4, gles.Float, 28, data[3:])
	c.DrawArrays(gles.TriangleStrip, 0, int32(len(data)/7))
	c.DisableClientState(gles.VertexArray)
	c.DisableClientState(gles.ColorArray)
}

func buildProgram(t *testing.T, c *Context, vsrc, fsrc string) uint32 {
	t.Helper()
	vs := c.CreateShader(gles.VertexShader)
	c.ShaderSource(vs, vsrc)
	c.CompileShader(vs)
	fs := c.CreateShader(gles.FragmentShader)
	c.ShaderSource(fs, fsrc)
	c.CompileShader(fs)
	prog := c.CreateProgram()
	c.AttachShader(prog, vs)
	c.AttachShader(prog, fs)
	c.LinkProgram(prog)
	var ok int32
	c.GetProgramiv(prog, gles.LinkStatus, &ok)
	if ok == 0 {
		t.Fatalf("link: %s%s%s", c.GetShaderInfoLog(vs), c.GetShaderInfoLog(fs), c.GetProgramInfoLog(prog))
	}
	mustNoError(t, c)
	return prog
}

func drawProgram(t *testing.T, c *Context, prog uint32, data []float32, proj, mv mathutil.Mat4) {
	t.Helper()
	c.UseProgram(prog)
	p, m := proj.Float32(), mv.Float32()
	c.UniformMatrix4fv(c.GetUniformLocation(prog, "Projection"), 1, false, &p)
	c.UniformMatrix4fv(c.GetUniformLocation(prog, "Modelview"), 1, false, &m)

	pos := uint32(c.GetAttribLocation(prog, "Position"))
	col := uint32(c.GetAttribLocation(prog, "SourceColor"))
	c.EnableVertexAttribArray(pos)
	c.EnableVertexAttribArray(col)
	c.VertexAttribPointer(pos, 3, gles.Float, false, 28, data)
	c.VertexAttribPointer(col, 4, gles.Float, false, 28, data[3:])
	c.DrawArrays(gles.TriangleStrip, 0, int32(len(data)/7))
	c.DisableVertexAttribArray(pos)
	c.DisableVertexAttribArray(col)
	mustNoError(t, c)
}

func rgba(c [4]float32) color.NRGBA {
	return color.NRGBA{uint8(c[0] * 255), uint8(c[1] * 255), uint8(c[2] * 255), uint8(c[3] * 255)}
}

func TestFixedPipelineCoversViewport(t *testing.T) {
	c := newSurface(t, 16, 16)
	drawFixed(c, quad(-1, -1, 1, 1, 0, solid(red)), mathutil.Mat4Identity(), mathutil.Mat4Identity())
	mustNoError(t, c)

	st := c.Stats()
	if len(st.DrawCalls) != 1 {
		t.Fatalf("draw calls = %d, want 1", len(st.DrawCalls))
	}
	dc := st.DrawCalls[0]
	if dc.Mode != gles.TriangleStrip || dc.Count != 4 || dc.Triangles != 2 {
		t.Errorf("draw call = %+v", dc)
	}
	if dc.Fragments != 256 {
		t.Errorf("fragments = %d, want 256", dc.Fragments)
	}

	img := c.Snapshot()
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			if got := img.NRGBAAt(x, y); got != rgba(red) {
				t.Fatalf("pixel (%d,%d) = %v, want red", x, y, got)
			}
		}
	}
}

func TestProgramMatchesFixedPipeline(t *testing.T) {
	data := quad(-0.8, -0.6, 0.7, 0.9, 0.1, [4][4]float32{red, green, blue, white})
	id := mathutil.Mat4Identity()

	fixed := newSurface(t, 32, 32)
	drawFixed(fixed, data, id, id)
	mustNoError(t, fixed)

	shaded := newSurface(t, 32, 32)
	prog := buildProgram(t, shaded, passVertex, passFragment)
	drawProgram(t, shaded, prog, data, id, id)

	a, b := fixed.Snapshot(), shaded.Snapshot()
	if !bytes.Equal(a.Pix, b.Pix) {
		t.Fatal("programmable pipeline output differs from fixed-function output")
	}
	if fixed.Stats().DrawCalls[0].Fragments != shaded.Stats().DrawCalls[0].Fragments {
		t.Error("fragment counts differ")
	}
}

func TestPerspectiveProjection(t *testing.T) {
	proj := mathutil.Frustum(-1, 1, -1, 1, 1, 10)
	mv := mathutil.Translate(0, 0, -2)
	data := quad(-0.5, -0.5, 0.5, 0.5, 0, solid(green))

	for _, pipeline := range []string{"fixed", "program"} {
		t.Run(pipeline, func(t *testing.T) {
			c := newSurface(t, 32, 32)
			if pipeline == "fixed" {
				drawFixed(c, data, proj, mv)
			} else {
				drawProgram(t, c, buildProgram(t, c, passVertex, passFragment), data, proj, mv)
			}
			mustNoError(t, c)

			img := c.Snapshot()
			// x_ndc = x / 2, so the quad spans pixels 12..19.
			if got := img.NRGBAAt(16, 16); got != rgba(green) {
				t.Errorf("center = %v, want green", got)
			}
			for _, p := range [][2]int{{0, 0}, {31, 31}, {10, 16}, {16, 21}} {
				if got := img.NRGBAAt(p[0], p[1]); got != (color.NRGBA{0, 0, 0, 255}) {
					t.Errorf("pixel %v = %v, want background", p, got)
				}
			}
		})
	}
}

func TestDepthTestHidesFartherSurface(t *testing.T) {
	id := mathutil.Mat4Identity()
	c := newSurface(t, 8, 8)
	drawFixed(c, quad(-1, -1, 1, 1, -0.5, solid(green)), id, id)
	drawFixed(c, quad(-1, -1, 1, 1, 0.5, solid(red)), id, id)
	mustNoError(t, c)
	if got := c.Snapshot().NRGBAAt(4, 4); got != rgba(green) {
		t.Errorf("with depth test: %v, want green", got)
	}

	c.Disable(gles.DepthTest)
	drawFixed(c, quad(-1, -1, 1, 1, 0.5, solid(red)), id, id)
	if got := c.Snapshot().NRGBAAt(4, 4); got != rgba(red) {
		t.Errorf("without depth test: %v, want red", got)
	}
}

func TestSnapshotIsTopDown(t *testing.T) {
	id := mathutil.Mat4Identity()
	c := newSurface(t, 8, 8)
	drawFixed(c, quad(-1, -1, 1, 0, 0, solid(blue)), id, id)

	img := c.Snapshot()
	if got := img.NRGBAAt(3, 0); got != (color.NRGBA{0, 0, 0, 255}) {
		t.Errorf("top row = %v, want background", got)
	}
	if got := img.NRGBAAt(3, 7); got != rgba(blue) {
		t.Errorf("bottom row = %v, want blue", got)
	}
}

func TestDisabledColorArrayIsWhite(t *testing.T) {
	c := newSurface(t, 4, 4)
	data := quad(-1, -1, 1, 1, 0, solid(red))
	c.EnableClientState(gles.VertexArray)
	c.VertexPointer(3, gles.Float, 28, data)
	c.DrawArrays(gles.TriangleStrip, 0, 4)
	mustNoError(t, c)
	if got := c.Snapshot().NRGBAAt(1, 1); got != rgba(white) {
		t.Errorf("pixel = %v, want white", got)
	}
}

func TestShaderCompileErrors(t *testing.T) {
	tests := []struct {
		name  string
		xtype gles.Enum
		src   string
		want  string
	}{
		{"missing semicolon", gles.VertexShader, "attribute vec4 P;\nvoid main(void) {\n    gl_Position = P\n}\n", "ERROR: 0:4:"},
		{"type mismatch", gles.VertexShader, "attribute vec3 P;\nvoid main() { gl_Position = P; }", "cannot convert from 'vec3' to 'vec4'"},
		{"undeclared", gles.VertexShader, "void main() { gl_Position = Q; }", "undeclared identifier"},
		{"uniform write", gles.VertexShader, "uniform mat4 M;\nvoid main() { M = mat4(1.0); gl_Position = vec4(0.0); }", "can't modify uniform"},
		{"fragment attribute", gles.FragmentShader, "attribute vec4 P;\nvoid main() { gl_FragColor = P; }", "supported in vertex shaders only"},
		{"operand types", gles.VertexShader, "uniform mat4 M;\nattribute vec3 P;\nvoid main() { gl_Position = M * P; }", "wrong operand types"},
		{"fragment varying write", gles.FragmentShader, "varying vec4 C;\nvoid main() { C = vec4(1.0); gl_FragColor = C; }", "can't modify a varying"},
		{"constructor size", gles.FragmentShader, "void main() { gl_FragColor = vec4(1.0, 2.0); }", "not enough data"},
		{"bad swizzle", gles.FragmentShader, "varying vec2 C;\nvoid main() { gl_FragColor = vec4(C.xyz, 1.0); }", "out of range"},
		{"unterminated comment", gles.FragmentShader, "/* oops\nvoid main() {}", "unterminated comment"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(nil)
			sh := c.CreateShader(tt.xtype)
			c.ShaderSource(sh, tt.src)
			c.CompileShader(sh)
			var status, length int32
			c.GetShaderiv(sh, gles.CompileStatus, &status)
			c.GetShaderiv(sh, gles.InfoLogLength, &length)
			if status != 0 {
				t.Fatal("compile succeeded")
			}
			log := c.GetShaderInfoLog(sh)
			if !strings.Contains(log, tt.want) {
				t.Errorf("log %q does not contain %q", log, tt.want)
			}
			if int(length) != len(log)+1 {
				t.Errorf("InfoLogLength = %d, want %d", length, len(log)+1)
			}
			mustNoError(t, c)
		})
	}
}

func TestLinkRequiresMatchingVaryings(t *testing.T) {
	c := New(nil)
	vs := c.CreateShader(gles.VertexShader)
	c.ShaderSource(vs, "attribute vec4 P;\nvoid main() { gl_Position = P; }")
	c.CompileShader(vs)
	fs := c.CreateShader(gles.FragmentShader)
	c.ShaderSource(fs, "varying vec4 C;\nvoid main() { gl_FragColor = C; }")
	c.CompileShader(fs)

	prog := c.CreateProgram()
	c.AttachShader(prog, vs)
	c.AttachShader(prog, fs)
	c.LinkProgram(prog)

	var status int32
	c.GetProgramiv(prog, gles.LinkStatus, &status)
	if status != 0 {
		t.Fatal("link succeeded")
	}
	if log := c.GetProgramInfoLog(prog); !strings.Contains(log, "Varying 'C'") {
		t.Errorf("log = %q", log)
	}
	mustNoError(t, c)

	c.UseProgram(prog)
	if e := c.GetError(); e != gles.InvalidOperation {
		t.Errorf("UseProgram(unlinked) error = %s", gles.ErrorString(e))
	}
}

func TestGLSLExpressions(t *testing.T) {
	sh, err := compileGLSL(fragmentStage, `
precision mediump float;
varying vec4 C;
void main(void)
{
    vec3 a = vec3(0.5);
    float s = 2.0;
    // swizzles, broadcasts and mixed scalar arithmetic
    gl_FragColor = vec4(a * s - C.xyz, C.w / 2.0) + -C.bgra * 0.0;
}
`)
	if err != nil {
		t.Fatal(err)
	}
	env := zeroEnv(sh)
	env[sh.byName["C"].slot] = vec4Value(0.25, 0.5, 0.75, 1)
	sh.run(env)
	got := env[sh.byName["gl_FragColor"].slot]
	want := [4]float64{0.75, 0.5, 0.25, 0.5}
	for i := range want {
		if got.v[i] != want[i] {
			t.Fatalf("gl_FragColor = %v, want %v", got.v[:4], want)
		}
	}
}

func TestGLSLMatrixVector(t *testing.T) {
	sh, err := compileGLSL(vertexStage, "uniform mat4 M;\nattribute vec4 P;\nvoid main() { gl_Position = M * P; }")
	if err != nil {
		t.Fatal(err)
	}
	env := zeroEnv(sh)
	env[sh.byName["M"].slot] = value{n: 16, v: mathutil.Translate(1, 2, 3)}
	env[sh.byName["P"].slot] = vec4Value(1, 1, 1, 1)
	sh.run(env)
	got := env[sh.byName["gl_Position"].slot].v
	if got[0] != 2 || got[1] != 3 || got[2] != 4 || got[3] != 1 {
		t.Errorf("M * P = %v", got[:4])
	}
}

func TestAttribLocationsFollowDeclarationOrder(t *testing.T) {
	c := New(nil)
	prog := buildProgram(t, c, passVertex, passFragment)
	if loc := c.GetAttribLocation(prog, "Position"); loc != 0 {
		t.Errorf("Position = %d", loc)
	}
	if loc := c.GetAttribLocation(prog, "SourceColor"); loc != 1 {
		t.Errorf("SourceColor = %d", loc)
	}
	if loc := c.GetAttribLocation(prog, "Missing"); loc != -1 {
		t.Errorf("Missing = %d", loc)
	}
	if loc := c.GetUniformLocation(prog, "Modelview"); loc < 0 {
		t.Errorf("Modelview = %d", loc)
	}
	mustNoError(t, c)
}

func TestDeleteIsDeferredWhileInUse(t *testing.T) {
	c := New(nil)
	vs := c.CreateShader(gles.VertexShader)
	c.ShaderSource(vs, passVertex)
	c.CompileShader(vs)
	fs := c.CreateShader(gles.FragmentShader)
	c.ShaderSource(fs, passFragment)
	c.CompileShader(fs)
	prog := c.CreateProgram()
	c.AttachShader(prog, vs)
	c.AttachShader(prog, fs)
	c.LinkProgram(prog)
	c.UseProgram(prog)

	c.DeleteShader(vs)
	c.DeleteShader(fs)
	if st := c.Stats(); st.Shaders != 2 {
		t.Errorf("shaders after delete while attached = %d, want 2", st.Shaders)
	}
	c.DeleteProgram(prog)
	if st := c.Stats(); st.Programs != 1 {
		t.Errorf("programs after delete while current = %d, want 1", st.Programs)
	}
	c.UseProgram(0)
	if st := c.Stats(); st.Programs != 0 || st.Shaders != 0 {
		t.Errorf("after UseProgram(0): %+v", st)
	}
	mustNoError(t, c)
}

func TestErrorFlagLatchesFirst(t *testing.T) {
	c := New(nil)
	c.PopMatrix()
	c.MatrixMode(gles.Enum(0x1234))
	if e := c.GetError(); e != gles.StackUnderflow {
		t.Errorf("first error = %s", gles.ErrorString(e))
	}
	if e := c.GetError(); e != gles.NoError {
		t.Errorf("second read = %s", gles.ErrorString(e))
	}

	c.MatrixMode(gles.Projection)
	c.PushMatrix()
	c.PushMatrix()
	if e := c.GetError(); e != gles.StackOverflow {
		t.Errorf("projection stack overflow = %s", gles.ErrorString(e))
	}
}

func TestDrawWithoutFramebuffer(t *testing.T) {
	c := New(nil)
	c.DrawArrays(gles.Triangles, 0, 3)
	if e := c.GetError(); e != gles.InvalidFramebufferOperation {
		t.Errorf("error = %s", gles.ErrorString(e))
	}
	if n := len(c.Stats().DrawCalls); n != 0 {
		t.Errorf("draw calls = %d", n)
	}
}

func TestFramebufferStatus(t *testing.T) {
	c := New(nil)
	var fb uint32
	c.GenFramebuffers(1, &fb)
	c.BindFramebuffer(gles.Framebuffer, fb)
	if st := c.CheckFramebufferStatus(gles.Framebuffer); st != gles.FramebufferIncompleteMissingAttachment {
		t.Errorf("empty framebuffer = %#x", st)
	}

	var rb [2]uint32
	c.GenRenderbuffers(2, &rb[0])
	c.BindRenderbuffer(gles.Renderbuffer, rb[0])
	c.RenderbufferStorage(gles.Renderbuffer, gles.RGBA8, 4, 4)
	c.BindRenderbuffer(gles.Renderbuffer, rb[1])
	c.RenderbufferStorage(gles.Renderbuffer, gles.DepthComponent16, 8, 8)
	c.FramebufferRenderbuffer(gles.Framebuffer, gles.ColorAttachment0, gles.Renderbuffer, rb[0])
	c.FramebufferRenderbuffer(gles.Framebuffer, gles.DepthAttachment, gles.Renderbuffer, rb[1])
	if st := c.CheckFramebufferStatus(gles.Framebuffer); st != gles.FramebufferIncompleteDimensions {
		t.Errorf("mismatched sizes = %#x", st)
	}

	c.RenderbufferStorage(gles.Renderbuffer, gles.DepthComponent16, 4, 4)
	if st := c.CheckFramebufferStatus(gles.Framebuffer); st != gles.FramebufferComplete {
		t.Errorf("complete framebuffer = %#x", st)
	}
	mustNoError(t, c)

	c.DeleteRenderbuffers(2, &rb[0])
	c.DeleteFramebuffers(1, &fb)
	if st := c.Stats(); st.Renderbuffers != 0 || st.Framebuffers != 0 {
		t.Errorf("live objects after delete: %+v", st)
	}
}

func TestShortClientArray(t *testing.T) {
	c := newSurface(t, 4, 4)
	c.EnableClientState(gles.VertexArray)
	c.VertexPointer(3, gles.Float, 0, []float32{0, 0, 0})
	c.DrawArrays(gles.Triangles, 0, 3)
	if e := c.GetError(); e != gles.InvalidOperation {
		t.Errorf("error = %s", gles.ErrorString(e))
	}
}
