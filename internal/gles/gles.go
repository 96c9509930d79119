// Package gles defines the slice of the OpenGL ES 1.1 / 2.0 API the rendering
// engines issue. Method names and enum values follow the C API so a binding
// to a real driver can satisfy the interfaces directly; softgl implements
// them in software.
package gles

// Enum is a GLenum.
type Enum uint32

const (
	NoError          Enum = 0
	InvalidEnum      Enum = 0x0500
	InvalidValue     Enum = 0x0501
	InvalidOperation Enum = 0x0502
	StackOverflow    Enum = 0x0503
	StackUnderflow   Enum = 0x0504

	InvalidFramebufferOperation Enum = 0x0506

	DepthBufferBit Enum = 0x00000100
	ColorBufferBit Enum = 0x00004000

	Triangles     Enum = 0x0004
	TriangleStrip Enum = 0x0005
	TriangleFan   Enum = 0x0006

	DepthTest Enum = 0x0B71

	Float Enum = 0x1406

	Modelview  Enum = 0x1700
	Projection Enum = 0x1701

	VertexArray Enum = 0x8074
	ColorArray  Enum = 0x8076

	RGBA8            Enum = 0x8058
	DepthComponent16 Enum = 0x81A5

	FragmentShader  Enum = 0x8B30
	VertexShader    Enum = 0x8B31
	ShaderType      Enum = 0x8B4F
	DeleteStatus    Enum = 0x8B80
	CompileStatus   Enum = 0x8B81
	LinkStatus      Enum = 0x8B82
	InfoLogLength   Enum = 0x8B84
	AttachedShaders Enum = 0x8B85

	ColorAttachment0 Enum = 0x8CE0
	DepthAttachment  Enum = 0x8D00
	Framebuffer      Enum = 0x8D40
	Renderbuffer     Enum = 0x8D41

	FramebufferComplete                    Enum = 0x8CD5
	FramebufferIncompleteAttachment        Enum = 0x8CD6
	FramebufferIncompleteMissingAttachment Enum = 0x8CD7
	FramebufferIncompleteDimensions        Enum = 0x8CD9
)

// Context is the state both pipelines share: surfaces, viewport, clearing
// and drawing.
type Context interface {
	GenRenderbuffers(n int32, renderbuffers *uint32)
	DeleteRenderbuffers(n int32, renderbuffers *uint32)
	BindRenderbuffer(target Enum, renderbuffer uint32)
	RenderbufferStorage(target, internalformat Enum, width, height int32)

	GenFramebuffers(n int32, framebuffers *uint32)
	DeleteFramebuffers(n int32, framebuffers *uint32)
	BindFramebuffer(target Enum, framebuffer uint32)
	FramebufferRenderbuffer(target, attachment, renderbuffertarget Enum, renderbuffer uint32)
	CheckFramebufferStatus(target Enum) Enum

	Viewport(x, y, width, height int32)
	Enable(capability Enum)
	Disable(capability Enum)
	ClearColor(red, green, blue, alpha float32)
	Clear(mask Enum)

	// DrawArrays renders count vertices starting at first from the enabled
	// arrays.
	DrawArrays(mode Enum, first, count int32)

	GetError() Enum
}

// FixedFunction is the OpenGL ES 1.1 matrix-stack pipeline.
type FixedFunction interface {
	Context

	MatrixMode(mode Enum)
	LoadIdentity()
	Frustumf(left, right, bottom, top, near, far float32)
	Translatef(x, y, z float32)
	MultMatrixf(m *[16]float32)
	PushMatrix()
	PopMatrix()

	EnableClientState(array Enum)
	DisableClientState(array Enum)
	// VertexPointer and ColorPointer take client memory: data begins at the
	// first component of the first vertex and stride is in bytes.
	VertexPointer(size int32, xtype Enum, stride int32, data []float32)
	ColorPointer(size int32, xtype Enum, stride int32, data []float32)
}

// Programmable is the OpenGL ES 2.0 shader pipeline.
type Programmable interface {
	Context

	CreateShader(xtype Enum) uint32
	ShaderSource(shader uint32, source string)
	CompileShader(shader uint32)
	GetShaderiv(shader uint32, pname Enum, params *int32)
	GetShaderInfoLog(shader uint32) string
	DeleteShader(shader uint32)

	CreateProgram() uint32
	AttachShader(program, shader uint32)
	LinkProgram(program uint32)
	GetProgramiv(program uint32, pname Enum, params *int32)
	GetProgramInfoLog(program uint32) string
	UseProgram(program uint32)
	DeleteProgram(program uint32)

	GetAttribLocation(program uint32, name string) int32
	GetUniformLocation(program uint32, name string) int32
	UniformMatrix4fv(location int32, count int32, transpose bool, value *[16]float32)

	EnableVertexAttribArray(index uint32)
	DisableVertexAttribArray(index uint32)
	// VertexAttribPointer takes client memory, like VertexPointer.
	VertexAttribPointer(index uint32, size int32, xtype Enum, normalized bool, stride int32, data []float32)
}

// Device is a context exposing both pipelines, as softgl does.
type Device interface {
	FixedFunction
	Programmable
}

// ErrorString names an error flag value.
func ErrorString(e Enum) string {
	switch e {
	case NoError:
		return "GL_NO_ERROR"
	case InvalidEnum:
		return "GL_INVALID_ENUM"
	case InvalidValue:
		return "GL_INVALID_VALUE"
	case InvalidOperation:
		return "GL_INVALID_OPERATION"
	case StackOverflow:
		return "GL_STACK_OVERFLOW"
	case StackUnderflow:
		return "GL_STACK_UNDERFLOW"
	case InvalidFramebufferOperation:
		return "GL_INVALID_FRAMEBUFFER_OPERATION"
	}
	return "GL_UNKNOWN_ERROR"
}
