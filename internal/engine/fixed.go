package engine

import (
	"cone-renderer/internal/gles"
	"cone-renderer/internal/mesh"
)

// fixedEngine renders through the matrix stacks. The camera pull-back is
// baked into the modelview matrix once in Initialize; each frame pushes,
// multiplies the rotation on, draws and pops.
type fixedEngine struct {
	base
	gl gles.FixedFunction
}

// NewFixedFunction returns the OpenGL ES 1.1 engine.
func NewFixedFunction(gl gles.FixedFunction, cfg Config) RenderingEngine {
	cfg = cfg.withDefaults()
	return &fixedEngine{base: newBase(cfg, FixedFunction), gl: gl}
}

func (e *fixedEngine) Initialize(width, height int) error {
	if err := e.prepare(e.gl, width, height); err != nil {
		return err
	}

	f := e.frustum()
	e.gl.MatrixMode(gles.Projection)
	e.gl.LoadIdentity()
	e.gl.Frustumf(float32(f.left), float32(f.right), float32(f.bottom), float32(f.top), float32(f.near), float32(f.far))

	e.gl.MatrixMode(gles.Modelview)
	e.gl.LoadIdentity()
	e.gl.Translatef(0, 0, -cameraDistance)

	if err := checkGL(e.gl, "initialize"); err != nil {
		return err
	}
	e.initialized = true
	e.log.Debug("initialized", "width", width, "height", height)
	return nil
}

func (e *fixedEngine) Render() {
	if !e.initialized {
		return
	}
	gl := e.gl
	e.clear(gl)

	gl.PushMatrix()
	gl.EnableClientState(gles.VertexArray)
	gl.EnableClientState(gles.ColorArray)
	rot := e.rotation()
	gl.MultMatrixf(&rot)

	gl.VertexPointer(3, gles.Float, mesh.Stride, e.cone[mesh.PositionOffset:])
	gl.ColorPointer(4, gles.Float, mesh.Stride, e.cone[mesh.ColorOffset:])
	gl.DrawArrays(gles.TriangleStrip, 0, e.coneCount)

	gl.VertexPointer(3, gles.Float, mesh.Stride, e.disk[mesh.PositionOffset:])
	gl.ColorPointer(4, gles.Float, mesh.Stride, e.disk[mesh.ColorOffset:])
	gl.DrawArrays(gles.TriangleFan, 0, e.diskCount)

	gl.DisableClientState(gles.VertexArray)
	gl.DisableClientState(gles.ColorArray)
	gl.PopMatrix()
}

func (e *fixedEngine) Close() error {
	e.surf.release(e.gl)
	e.initialized = false
	return checkGL(e.gl, "close")
}
