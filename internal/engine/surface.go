package engine

import (
	"fmt"

	"cone-renderer/internal/gles"
)

// surface is the offscreen render target: a color and a depth renderbuffer
// attached to one framebuffer. Zero handles mean nothing is allocated.
type surface struct {
	color       uint32
	depth       uint32
	framebuffer uint32
}

func (s *surface) create(gl gles.Context, width, height int32) error {
	gl.GenRenderbuffers(1, &s.color)
	gl.BindRenderbuffer(gles.Renderbuffer, s.color)
	gl.RenderbufferStorage(gles.Renderbuffer, gles.RGBA8, width, height)

	gl.GenRenderbuffers(1, &s.depth)
	gl.BindRenderbuffer(gles.Renderbuffer, s.depth)
	gl.RenderbufferStorage(gles.Renderbuffer, gles.DepthComponent16, width, height)

	gl.GenFramebuffers(1, &s.framebuffer)
	gl.BindFramebuffer(gles.Framebuffer, s.framebuffer)
	gl.FramebufferRenderbuffer(gles.Framebuffer, gles.ColorAttachment0, gles.Renderbuffer, s.color)
	gl.FramebufferRenderbuffer(gles.Framebuffer, gles.DepthAttachment, gles.Renderbuffer, s.depth)
	gl.BindRenderbuffer(gles.Renderbuffer, s.color)

	if st := gl.CheckFramebufferStatus(gles.Framebuffer); st != gles.FramebufferComplete {
		s.release(gl)
		return fmt.Errorf("%w: status %#x", ErrIncompleteSurface, uint32(st))
	}
	return checkGL(gl, "create surface")
}

func (s *surface) release(gl gles.Context) {
	if s.framebuffer != 0 {
		gl.DeleteFramebuffers(1, &s.framebuffer)
	}
	if s.depth != 0 {
		gl.DeleteRenderbuffers(1, &s.depth)
	}
	if s.color != 0 {
		gl.DeleteRenderbuffers(1, &s.color)
	}
	*s = surface{}
}
