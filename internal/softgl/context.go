// Package softgl implements the gles device contract in software. One
// Context serves both the OpenGL ES 1.1 fixed-function pipeline and the
// OpenGL ES 2.0 programmable pipeline; fragments are produced by the
// z-buffered rasterizer in package raster.
//
// Like a GL driver, misuse never panics: the first error is latched and
// reported by GetError.
package softgl

import (
	"image"
	"log/slog"
	"unsafe"

	"cone-renderer/internal/gles"
	"cone-renderer/internal/mathutil"
	"cone-renderer/internal/raster"
)

const (
	maxVertexAttribs    = 8
	maxModelviewDepth   = 16
	maxProjectionDepth  = 2
	maxRenderbufferSize = 8192
)

var (
	_ gles.FixedFunction = (*Context)(nil)
	_ gles.Programmable  = (*Context)(nil)
)

type renderbuffer struct {
	format gles.Enum
	width  int
	height int
	color  *raster.ColorBuffer
	depth  *raster.DepthBuffer
}

type framebuffer struct {
	color uint32
	depth uint32
}

// DrawCall records one DrawArrays that reached the rasterizer.
type DrawCall struct {
	Mode      gles.Enum
	First     int32
	Count     int32
	Triangles int
	Fragments int
}

// Stats describes the work issued since the last ResetStats and the objects
// currently alive.
type Stats struct {
	DrawCalls []DrawCall
	Clears    int

	Renderbuffers int
	Framebuffers  int
	Shaders       int
	Programs      int
}

// Context is a software GL context. It is not safe for concurrent use.
type Context struct {
	log *slog.Logger
	err gles.Enum
	ids uint32

	renderbuffers map[uint32]*renderbuffer
	framebuffers  map[uint32]*framebuffer
	shaders       map[uint32]*shaderObject
	programs      map[uint32]*programObject
	boundRB       uint32
	boundFB       uint32
	current       uint32

	viewport   [4]int32
	clearColor [4]float32
	depthTest  bool

	matrixMode gles.Enum
	modelview  []mathutil.Mat4
	projection []mathutil.Mat4
	vertexArr  clientArray
	colorArr   clientArray

	attribs [maxVertexAttribs]attribArray

	rast  raster.Rasterizer
	stats Stats
}

// New returns a context with GL default state. A nil logger uses
// slog.Default().
func New(logger *slog.Logger) *Context {
	if logger == nil {
		logger = slog.Default()
	}
	return &Context{
		log:           logger,
		renderbuffers: make(map[uint32]*renderbuffer),
		framebuffers:  make(map[uint32]*framebuffer),
		shaders:       make(map[uint32]*shaderObject),
		programs:      make(map[uint32]*programObject),
		matrixMode:    gles.Modelview,
		modelview:     []mathutil.Mat4{mathutil.Mat4Identity()},
		projection:    []mathutil.Mat4{mathutil.Mat4Identity()},
	}
}

func (c *Context) nextID() uint32 {
	c.ids++
	return c.ids
}

func (c *Context) setError(op string, e gles.Enum) {
	c.log.Debug("gl error", "op", op, "error", gles.ErrorString(e))
	if c.err == gles.NoError {
		c.err = e
	}
}

// GetError returns and clears the latched error flag.
func (c *Context) GetError() gles.Enum {
	e := c.err
	c.err = gles.NoError
	return e
}

// Renderbuffers

func (c *Context) GenRenderbuffers(n int32, renderbuffers *uint32) {
	ids := c.genIDs("GenRenderbuffers", n, renderbuffers)
	for _, id := range ids {
		c.renderbuffers[id] = &renderbuffer{}
	}
}

func (c *Context) DeleteRenderbuffers(n int32, renderbuffers *uint32) {
	for _, id := range idSlice(n, renderbuffers) {
		if _, ok := c.renderbuffers[id]; !ok {
			continue
		}
		if c.boundRB == id {
			c.boundRB = 0
		}
		if fb, ok := c.framebuffers[c.boundFB]; ok {
			if fb.color == id {
				fb.color = 0
			}
			if fb.depth == id {
				fb.depth = 0
			}
		}
		delete(c.renderbuffers, id)
	}
}

func (c *Context) BindRenderbuffer(target gles.Enum, renderbuffer uint32) {
	if target != gles.Renderbuffer {
		c.setError("BindRenderbuffer", gles.InvalidEnum)
		return
	}
	if _, ok := c.renderbuffers[renderbuffer]; !ok && renderbuffer != 0 {
		c.setError("BindRenderbuffer", gles.InvalidOperation)
		return
	}
	c.boundRB = renderbuffer
}

// RenderbufferStorage allocates storage for the bound renderbuffer. RGBA8
// yields a color buffer, DepthComponent16 a depth buffer.
func (c *Context) RenderbufferStorage(target, internalformat gles.Enum, width, height int32) {
	if target != gles.Renderbuffer {
		c.setError("RenderbufferStorage", gles.InvalidEnum)
		return
	}
	if width < 0 || height < 0 || width > maxRenderbufferSize || height > maxRenderbufferSize {
		c.setError("RenderbufferStorage", gles.InvalidValue)
		return
	}
	rb, ok := c.renderbuffers[c.boundRB]
	if !ok {
		c.setError("RenderbufferStorage", gles.InvalidOperation)
		return
	}
	w, h := int(width), int(height)
	switch internalformat {
	case gles.RGBA8:
		*rb = renderbuffer{format: internalformat, width: w, height: h, color: raster.NewColorBuffer(w, h)}
	case gles.DepthComponent16:
		*rb = renderbuffer{format: internalformat, width: w, height: h, depth: raster.NewDepthBuffer(w, h)}
	default:
		c.setError("RenderbufferStorage", gles.InvalidEnum)
	}
}

// Framebuffers

func (c *Context) GenFramebuffers(n int32, framebuffers *uint32) {
	for _, id := range c.genIDs("GenFramebuffers", n, framebuffers) {
		c.framebuffers[id] = &framebuffer{}
	}
}

func (c *Context) DeleteFramebuffers(n int32, framebuffers *uint32) {
	for _, id := range idSlice(n, framebuffers) {
		if _, ok := c.framebuffers[id]; !ok {
			continue
		}
		if c.boundFB == id {
			c.boundFB = 0
		}
		delete(c.framebuffers, id)
	}
}

func (c *Context) BindFramebuffer(target gles.Enum, framebuffer uint32) {
	if target != gles.Framebuffer {
		c.setError("BindFramebuffer", gles.InvalidEnum)
		return
	}
	if _, ok := c.framebuffers[framebuffer]; !ok && framebuffer != 0 {
		c.setError("BindFramebuffer", gles.InvalidOperation)
		return
	}
	c.boundFB = framebuffer
}

func (c *Context) FramebufferRenderbuffer(target, attachment, renderbuffertarget gles.Enum, renderbuffer uint32) {
	if target != gles.Framebuffer || renderbuffertarget != gles.Renderbuffer {
		c.setError("FramebufferRenderbuffer", gles.InvalidEnum)
		return
	}
	fb, ok := c.framebuffers[c.boundFB]
	if !ok {
		c.setError("FramebufferRenderbuffer", gles.InvalidOperation)
		return
	}
	if _, ok := c.renderbuffers[renderbuffer]; !ok && renderbuffer != 0 {
		c.setError("FramebufferRenderbuffer", gles.InvalidOperation)
		return
	}
	switch attachment {
	case gles.ColorAttachment0:
		fb.color = renderbuffer
	case gles.DepthAttachment:
		fb.depth = renderbuffer
	default:
		c.setError("FramebufferRenderbuffer", gles.InvalidEnum)
	}
}

func (c *Context) CheckFramebufferStatus(target gles.Enum) gles.Enum {
	if target != gles.Framebuffer {
		c.setError("CheckFramebufferStatus", gles.InvalidEnum)
		return 0
	}
	_, status := c.target()
	return status
}

// target resolves the bound framebuffer into a raster target.
func (c *Context) target() (*raster.Target, gles.Enum) {
	fb, ok := c.framebuffers[c.boundFB]
	if !ok {
		return nil, gles.FramebufferIncompleteMissingAttachment
	}
	color := c.renderbuffers[fb.color]
	if color == nil {
		return nil, gles.FramebufferIncompleteMissingAttachment
	}
	if color.color == nil || color.width == 0 || color.height == 0 {
		return nil, gles.FramebufferIncompleteAttachment
	}
	t := &raster.Target{Color: color.color, DepthTest: c.depthTest}
	if fb.depth != 0 {
		depth := c.renderbuffers[fb.depth]
		if depth == nil || depth.depth == nil {
			return nil, gles.FramebufferIncompleteAttachment
		}
		if depth.width != color.width || depth.height != color.height {
			return nil, gles.FramebufferIncompleteDimensions
		}
		t.Depth = depth.depth
	}
	return t, gles.FramebufferComplete
}

// State

func (c *Context) Viewport(x, y, width, height int32) {
	if width < 0 || height < 0 {
		c.setError("Viewport", gles.InvalidValue)
		return
	}
	c.viewport = [4]int32{x, y, width, height}
}

func (c *Context) Enable(capability gles.Enum) { c.setCapability("Enable", capability, true) }

func (c *Context) Disable(capability gles.Enum) { c.setCapability("Disable", capability, false) }

func (c *Context) setCapability(op string, capability gles.Enum, on bool) {
	if capability != gles.DepthTest {
		c.setError(op, gles.InvalidEnum)
		return
	}
	c.depthTest = on
}

func (c *Context) ClearColor(red, green, blue, alpha float32) {
	c.clearColor = [4]float32{clampUnit(red), clampUnit(green), clampUnit(blue), clampUnit(alpha)}
}

func (c *Context) Clear(mask gles.Enum) {
	if mask&^(gles.ColorBufferBit|gles.DepthBufferBit) != 0 {
		c.setError("Clear", gles.InvalidValue)
		return
	}
	t, status := c.target()
	if status != gles.FramebufferComplete {
		c.setError("Clear", gles.InvalidFramebufferOperation)
		return
	}
	if mask&gles.ColorBufferBit != 0 {
		t.Color.Clear(c.clearColor[0], c.clearColor[1], c.clearColor[2], c.clearColor[3])
	}
	if mask&gles.DepthBufferBit != 0 && t.Depth != nil {
		t.Depth.Clear(1)
	}
	c.stats.Clears++
}

// Stats reports the work issued since the last ResetStats and the number
// of live objects.
func (c *Context) Stats() Stats {
	s := c.stats
	s.DrawCalls = append([]DrawCall(nil), c.stats.DrawCalls...)
	s.Renderbuffers = len(c.renderbuffers)
	s.Framebuffers = len(c.framebuffers)
	s.Shaders = len(c.shaders)
	s.Programs = len(c.programs)
	return s
}

// ResetStats clears the draw-call log and clear count.
func (c *Context) ResetStats() {
	c.stats.DrawCalls = c.stats.DrawCalls[:0]
	c.stats.Clears = 0
}

// Snapshot copies the color attachment of the bound framebuffer into a
// top-down image. It returns nil when no complete framebuffer is bound.
func (c *Context) Snapshot() *image.NRGBA {
	t, status := c.target()
	if status != gles.FramebufferComplete {
		return nil
	}
	cb := t.Color
	img := image.NewNRGBA(image.Rect(0, 0, cb.Width, cb.Height))
	row := cb.Width * 4
	for y := 0; y < cb.Height; y++ {
		src := cb.Pix[(cb.Height-1-y)*row : (cb.Height-y)*row]
		copy(img.Pix[y*img.Stride:y*img.Stride+row], src)
	}
	return img
}

func (c *Context) genIDs(op string, n int32, out *uint32) []uint32 {
	if n < 0 {
		c.setError(op, gles.InvalidValue)
		return nil
	}
	ids := idSlice(n, out)
	for i := range ids {
		ids[i] = c.nextID()
	}
	return ids
}

// idSlice views n consecutive names starting at p, matching the C calling
// convention of the Gen/Delete entry points.
func idSlice(n int32, p *uint32) []uint32 {
	if n <= 0 || p == nil {
		return nil
	}
	return unsafe.Slice(p, int(n))
}

func clampUnit(v float32) float32 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
