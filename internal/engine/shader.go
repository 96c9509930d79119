package engine

import (
	"strings"

	"cone-renderer/internal/gles"
	"cone-renderer/internal/mathutil"
	"cone-renderer/internal/mesh"
)

// shaderEngine renders through a linked program. Projection is uploaded
// once in Initialize, Modelview every frame.
type shaderEngine struct {
	base
	gl      gles.Programmable
	shaders ShaderSource

	program     uint32
	position    uint32
	sourceColor uint32
	modelview   int32
}

// NewShaderBased returns the OpenGL ES 2.0 engine. The program is compiled
// from cfg.Shaders during Initialize.
func NewShaderBased(gl gles.Programmable, cfg Config) RenderingEngine {
	cfg = cfg.withDefaults()
	return &shaderEngine{base: newBase(cfg, ShaderBased), gl: gl, shaders: cfg.Shaders}
}

func (e *shaderEngine) Initialize(width, height int) error {
	if err := e.prepare(e.gl, width, height); err != nil {
		return err
	}
	e.releaseProgram()

	program, err := e.buildProgram()
	if err != nil {
		return err
	}
	position := e.gl.GetAttribLocation(program, "Position")
	sourceColor := e.gl.GetAttribLocation(program, "SourceColor")
	projection := e.gl.GetUniformLocation(program, "Projection")
	modelview := e.gl.GetUniformLocation(program, "Modelview")

	var missing []string
	for _, in := range []struct {
		kind, name string
		loc        int32
	}{
		{"attribute", "Position", position},
		{"attribute", "SourceColor", sourceColor},
		{"uniform", "Projection", projection},
		{"uniform", "Modelview", modelview},
	} {
		if in.loc < 0 {
			missing = append(missing, in.kind+" "+in.name)
		}
	}
	if len(missing) > 0 {
		err := &ShaderError{Stage: "link", Log: "ERROR: program does not declare " + strings.Join(missing, ", ")}
		e.gl.DeleteProgram(program)
		e.log.Error("program inputs missing", "log", err.Log)
		return err
	}

	e.program = program
	e.gl.UseProgram(program)
	e.position = uint32(position)
	e.sourceColor = uint32(sourceColor)
	e.modelview = modelview

	proj := e.frustum().matrix().Float32()
	e.gl.UniformMatrix4fv(projection, 1, false, &proj)

	if err := checkGL(e.gl, "initialize"); err != nil {
		return err
	}
	e.initialized = true
	e.log.Debug("initialized", "width", width, "height", height, "program", program)
	return nil
}

func (e *shaderEngine) Render() {
	if !e.initialized {
		return
	}
	gl := e.gl
	e.clear(gl)

	mv := mathutil.Mat4Mul(mathutil.Translate(0, 0, -cameraDistance), e.anim.Current.ToMatrix()).Float32()
	gl.UniformMatrix4fv(e.modelview, 1, false, &mv)

	gl.EnableVertexAttribArray(e.position)
	gl.EnableVertexAttribArray(e.sourceColor)

	gl.VertexAttribPointer(e.position, 3, gles.Float, false, mesh.Stride, e.cone[mesh.PositionOffset:])
	gl.VertexAttribPointer(e.sourceColor, 4, gles.Float, false, mesh.Stride, e.cone[mesh.ColorOffset:])
	gl.DrawArrays(gles.TriangleStrip, 0, e.coneCount)

	gl.VertexAttribPointer(e.position, 3, gles.Float, false, mesh.Stride, e.disk[mesh.PositionOffset:])
	gl.VertexAttribPointer(e.sourceColor, 4, gles.Float, false, mesh.Stride, e.disk[mesh.ColorOffset:])
	gl.DrawArrays(gles.TriangleFan, 0, e.diskCount)

	gl.DisableVertexAttribArray(e.position)
	gl.DisableVertexAttribArray(e.sourceColor)
}

func (e *shaderEngine) Close() error {
	e.releaseProgram()
	e.surf.release(e.gl)
	e.initialized = false
	return checkGL(e.gl, "close")
}

func (e *shaderEngine) releaseProgram() {
	if e.program == 0 {
		return
	}
	e.gl.UseProgram(0)
	e.gl.DeleteProgram(e.program)
	e.program = 0
}

// buildShader compiles one stage. On failure the shader is deleted and the
// info log returned in a *ShaderError.
func (e *shaderEngine) buildShader(source string, xtype gles.Enum) (uint32, error) {
	sh := e.gl.CreateShader(xtype)
	e.gl.ShaderSource(sh, source)
	e.gl.CompileShader(sh)

	var ok int32
	e.gl.GetShaderiv(sh, gles.CompileStatus, &ok)
	if ok == 0 {
		stage := "vertex"
		if xtype == gles.FragmentShader {
			stage = "fragment"
		}
		err := &ShaderError{Stage: stage, Log: e.gl.GetShaderInfoLog(sh)}
		e.gl.DeleteShader(sh)
		e.log.Error("shader compile failed", "stage", stage, "log", err.Log)
		return 0, err
	}
	return sh, nil
}

// buildProgram compiles and links both stages. The shaders are flagged for
// deletion once attached so they go away with the program.
func (e *shaderEngine) buildProgram() (uint32, error) {
	vs, err := e.buildShader(e.shaders.Vertex, gles.VertexShader)
	if err != nil {
		return 0, err
	}
	fs, err := e.buildShader(e.shaders.Fragment, gles.FragmentShader)
	if err != nil {
		e.gl.DeleteShader(vs)
		return 0, err
	}

	program := e.gl.CreateProgram()
	e.gl.AttachShader(program, vs)
	e.gl.AttachShader(program, fs)
	e.gl.LinkProgram(program)
	e.gl.DeleteShader(vs)
	e.gl.DeleteShader(fs)

	var ok int32
	e.gl.GetProgramiv(program, gles.LinkStatus, &ok)
	if ok == 0 {
		err := &ShaderError{Stage: "link", Log: e.gl.GetProgramInfoLog(program)}
		e.gl.DeleteProgram(program)
		e.log.Error("program link failed", "log", err.Log)
		return 0, err
	}
	return program, nil
}
