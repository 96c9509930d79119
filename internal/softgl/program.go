package softgl

import (
	"errors"
	"fmt"
	"strings"

	"cone-renderer/internal/gles"
)

type shaderObject struct {
	xtype    gles.Enum
	source   string
	compiled *compiledShader
	log      string
	status   bool

	attached      int
	deletePending bool
}

type programObject struct {
	shaders []uint32
	linked  *linkedProgram
	log     string

	deletePending bool
}

type attribBinding struct {
	slot int
	typ  glslType
}

type uniformBinding struct {
	name   string
	typ    glslType
	vsSlot int
	fsSlot int
}

type varyingBinding struct {
	vsSlot, fsSlot int
	n              int
	offset         int
}

// linkedProgram is a vertex/fragment pair with resolved interface
// locations. Attribute locations follow declaration order in the vertex
// shader; uniform locations follow first declaration across both stages.
type linkedProgram struct {
	vs, fs   *compiledShader
	attribs  []attribBinding
	attribAt map[string]int32
	uniforms []uniformBinding
	uniAt    map[string]int32
	values   []value

	varyings     []varyingBinding
	varyingWidth int
	position     int
	fragColor    int

	vsEnv, fsEnv   []value
	vsBase, fsBase []value
}

func link(vsObj, fsObj *shaderObject) (*linkedProgram, error) {
	vs, fs := vsObj.compiled, fsObj.compiled
	switch {
	case !vs.hasMain:
		return nil, errors.New("ERROR: Vertex shader does not define main()")
	case !fs.hasMain:
		return nil, errors.New("ERROR: Fragment shader does not define main()")
	}

	lp := &linkedProgram{
		vs:        vs,
		fs:        fs,
		attribAt:  make(map[string]int32),
		uniAt:     make(map[string]int32),
		position:  vs.byName["gl_Position"].slot,
		fragColor: fs.byName["gl_FragColor"].slot,
	}
	if !vs.byName["gl_Position"].written {
		return nil, errors.New("ERROR: Vertex shader does not write gl_Position")
	}

	for _, s := range vs.symbols {
		switch s.kind {
		case symAttribute:
			lp.attribAt[s.name] = int32(len(lp.attribs))
			lp.attribs = append(lp.attribs, attribBinding{slot: s.slot, typ: s.typ})
		case symUniform:
			lp.uniAt[s.name] = int32(len(lp.uniforms))
			lp.uniforms = append(lp.uniforms, uniformBinding{name: s.name, typ: s.typ, vsSlot: s.slot, fsSlot: -1})
		}
	}
	if len(lp.attribs) > maxVertexAttribs {
		return nil, fmt.Errorf("ERROR: Too many vertex attributes (%d > %d)", len(lp.attribs), maxVertexAttribs)
	}

	var errs []string
	for _, s := range fs.symbols {
		switch s.kind {
		case symUniform:
			if loc, ok := lp.uniAt[s.name]; ok {
				u := &lp.uniforms[loc]
				if u.typ != s.typ {
					errs = append(errs, fmt.Sprintf("ERROR: Uniform '%s' differs in type between shaders", s.name))
					continue
				}
				u.fsSlot = s.slot
				continue
			}
			lp.uniAt[s.name] = int32(len(lp.uniforms))
			lp.uniforms = append(lp.uniforms, uniformBinding{name: s.name, typ: s.typ, vsSlot: -1, fsSlot: s.slot})
		case symVarying:
			vsym, ok := vs.byName[s.name]
			if !ok || vsym.kind != symVarying {
				if s.read {
					errs = append(errs, fmt.Sprintf("ERROR: Varying '%s' is read by the fragment shader but not declared in the vertex shader", s.name))
				}
				continue
			}
			if vsym.typ != s.typ {
				errs = append(errs, fmt.Sprintf("ERROR: Varying '%s' differs in type between shaders", s.name))
				continue
			}
			lp.varyings = append(lp.varyings, varyingBinding{
				vsSlot: vsym.slot,
				fsSlot: s.slot,
				n:      int(s.typ),
				offset: lp.varyingWidth,
			})
			lp.varyingWidth += int(s.typ)
		}
	}
	if len(errs) > 0 {
		return nil, errors.New(strings.Join(errs, "\n"))
	}

	lp.values = make([]value, len(lp.uniforms))
	for i, u := range lp.uniforms {
		lp.values[i] = value{n: int(u.typ)}
	}
	lp.vsBase = zeroEnv(vs)
	lp.fsBase = zeroEnv(fs)
	lp.vsEnv = make([]value, len(lp.vsBase))
	lp.fsEnv = make([]value, len(lp.fsBase))
	lp.loadUniforms()
	return lp, nil
}

func zeroEnv(sh *compiledShader) []value {
	env := make([]value, len(sh.symbols))
	for i, s := range sh.symbols {
		env[i] = value{n: int(s.typ)}
	}
	return env
}

// loadUniforms copies the current uniform values into both stage templates.
func (lp *linkedProgram) loadUniforms() {
	for i, u := range lp.uniforms {
		if u.vsSlot >= 0 {
			lp.vsBase[u.vsSlot] = lp.values[i]
		}
		if u.fsSlot >= 0 {
			lp.fsBase[u.fsSlot] = lp.values[i]
		}
	}
}

// runVertex executes the vertex shader for one vertex and returns its clip
// position; varyings are written to out, which must hold varyingWidth values.
func (lp *linkedProgram) runVertex(attribs []value, out []float64) [4]float64 {
	env := lp.vsEnv
	copy(env, lp.vsBase)
	for i, a := range lp.attribs {
		env[a.slot] = attribs[i]
	}
	lp.vs.run(env)
	for _, vb := range lp.varyings {
		copy(out[vb.offset:vb.offset+vb.n], env[vb.vsSlot].v[:vb.n])
	}
	p := env[lp.position].v
	return [4]float64{p[0], p[1], p[2], p[3]}
}

// shade is the raster.FragmentFunc of the program.
func (lp *linkedProgram) shade(varyings []float64) [4]float64 {
	env := lp.fsEnv
	copy(env, lp.fsBase)
	for _, vb := range lp.varyings {
		v := &env[vb.fsSlot]
		copy(v.v[:vb.n], varyings[vb.offset:vb.offset+vb.n])
	}
	lp.fs.run(env)
	c := env[lp.fragColor].v
	return [4]float64{c[0], c[1], c[2], c[3]}
}

// Shader objects

func (c *Context) CreateShader(xtype gles.Enum) uint32 {
	if xtype != gles.VertexShader && xtype != gles.FragmentShader {
		c.setError("CreateShader", gles.InvalidEnum)
		return 0
	}
	id := c.nextID()
	c.shaders[id] = &shaderObject{xtype: xtype}
	return id
}

func (c *Context) shader(op string, id uint32) *shaderObject {
	s, ok := c.shaders[id]
	if !ok {
		if _, isProgram := c.programs[id]; isProgram {
			c.setError(op, gles.InvalidOperation)
		} else {
			c.setError(op, gles.InvalidValue)
		}
		return nil
	}
	return s
}

func (c *Context) ShaderSource(shader uint32, source string) {
	if s := c.shader("ShaderSource", shader); s != nil {
		s.source = source
	}
}

func (c *Context) CompileShader(shader uint32) {
	s := c.shader("CompileShader", shader)
	if s == nil {
		return
	}
	st := vertexStage
	if s.xtype == gles.FragmentShader {
		st = fragmentStage
	}
	compiled, err := compileGLSL(st, s.source)
	if err != nil {
		s.compiled, s.status, s.log = nil, false, err.Error()+"\n"
		c.log.Debug("shader compile failed", "shader", shader, "stage", st, "log", s.log)
		return
	}
	s.compiled, s.status, s.log = compiled, true, ""
}

func (c *Context) GetShaderiv(shader uint32, pname gles.Enum, params *int32) {
	s := c.shader("GetShaderiv", shader)
	if s == nil {
		return
	}
	switch pname {
	case gles.CompileStatus:
		*params = boolInt(s.status)
	case gles.InfoLogLength:
		*params = logLength(s.log)
	case gles.ShaderType:
		*params = int32(s.xtype)
	case gles.DeleteStatus:
		*params = boolInt(s.deletePending)
	default:
		c.setError("GetShaderiv", gles.InvalidEnum)
	}
}

func (c *Context) GetShaderInfoLog(shader uint32) string {
	if s := c.shader("GetShaderInfoLog", shader); s != nil {
		return s.log
	}
	return ""
}

func (c *Context) DeleteShader(shader uint32) {
	if shader == 0 {
		return
	}
	s := c.shader("DeleteShader", shader)
	if s == nil {
		return
	}
	if s.attached > 0 {
		s.deletePending = true
		return
	}
	delete(c.shaders, shader)
}

// Program objects

func (c *Context) CreateProgram() uint32 {
	id := c.nextID()
	c.programs[id] = &programObject{}
	return id
}

func (c *Context) program(op string, id uint32) *programObject {
	p, ok := c.programs[id]
	if !ok {
		if _, isShader := c.shaders[id]; isShader {
			c.setError(op, gles.InvalidOperation)
		} else {
			c.setError(op, gles.InvalidValue)
		}
		return nil
	}
	return p
}

func (c *Context) AttachShader(program, shader uint32) {
	p := c.program("AttachShader", program)
	if p == nil {
		return
	}
	s := c.shader("AttachShader", shader)
	if s == nil {
		return
	}
	for _, id := range p.shaders {
		if id == shader || c.shaders[id].xtype == s.xtype {
			c.setError("AttachShader", gles.InvalidOperation)
			return
		}
	}
	p.shaders = append(p.shaders, shader)
	s.attached++
}

func (c *Context) LinkProgram(program uint32) {
	p := c.program("LinkProgram", program)
	if p == nil {
		return
	}
	var vs, fs *shaderObject
	for _, id := range p.shaders {
		s := c.shaders[id]
		if s.xtype == gles.VertexShader {
			vs = s
		} else {
			fs = s
		}
	}

	p.linked = nil
	switch {
	case vs == nil || fs == nil:
		p.log = "ERROR: Program must have a vertex and a fragment shader attached\n"
	case !vs.status || !fs.status:
		p.log = "ERROR: Attached shader is not compiled\n"
	default:
		lp, err := link(vs, fs)
		if err != nil {
			p.log = err.Error() + "\n"
			break
		}
		p.linked, p.log = lp, ""
	}
	if p.linked == nil {
		c.log.Debug("program link failed", "program", program, "log", p.log)
	}
}

func (c *Context) GetProgramiv(program uint32, pname gles.Enum, params *int32) {
	p := c.program("GetProgramiv", program)
	if p == nil {
		return
	}
	switch pname {
	case gles.LinkStatus:
		*params = boolInt(p.linked != nil)
	case gles.InfoLogLength:
		*params = logLength(p.log)
	case gles.AttachedShaders:
		*params = int32(len(p.shaders))
	case gles.DeleteStatus:
		*params = boolInt(p.deletePending)
	default:
		c.setError("GetProgramiv", gles.InvalidEnum)
	}
}

func (c *Context) GetProgramInfoLog(program uint32) string {
	if p := c.program("GetProgramInfoLog", program); p != nil {
		return p.log
	}
	return ""
}

func (c *Context) UseProgram(program uint32) {
	if program == 0 {
		c.setCurrent(0)
		return
	}
	p := c.program("UseProgram", program)
	if p == nil {
		return
	}
	if p.linked == nil {
		c.setError("UseProgram", gles.InvalidOperation)
		return
	}
	c.setCurrent(program)
}

func (c *Context) setCurrent(program uint32) {
	prev := c.current
	c.current = program
	if prev != 0 && prev != program {
		if p, ok := c.programs[prev]; ok && p.deletePending {
			c.destroyProgram(prev, p)
		}
	}
}

func (c *Context) DeleteProgram(program uint32) {
	if program == 0 {
		return
	}
	p := c.program("DeleteProgram", program)
	if p == nil {
		return
	}
	if c.current == program {
		p.deletePending = true
		return
	}
	c.destroyProgram(program, p)
}

func (c *Context) destroyProgram(id uint32, p *programObject) {
	for _, sid := range p.shaders {
		s := c.shaders[sid]
		s.attached--
		if s.attached == 0 && s.deletePending {
			delete(c.shaders, sid)
		}
	}
	delete(c.programs, id)
}

func (c *Context) linkedProgram(op string, program uint32) *linkedProgram {
	p := c.program(op, program)
	if p == nil {
		return nil
	}
	if p.linked == nil {
		c.setError(op, gles.InvalidOperation)
		return nil
	}
	return p.linked
}

func (c *Context) GetAttribLocation(program uint32, name string) int32 {
	lp := c.linkedProgram("GetAttribLocation", program)
	if lp == nil {
		return -1
	}
	if loc, ok := lp.attribAt[name]; ok {
		return loc
	}
	return -1
}

func (c *Context) GetUniformLocation(program uint32, name string) int32 {
	lp := c.linkedProgram("GetUniformLocation", program)
	if lp == nil {
		return -1
	}
	if loc, ok := lp.uniAt[name]; ok {
		return loc
	}
	return -1
}

func (c *Context) UniformMatrix4fv(location int32, count int32, transpose bool, m *[16]float32) {
	if c.current == 0 {
		c.setError("UniformMatrix4fv", gles.InvalidOperation)
		return
	}
	if count < 0 || transpose {
		c.setError("UniformMatrix4fv", gles.InvalidValue)
		return
	}
	if location == -1 {
		return
	}
	lp := c.programs[c.current].linked
	if location < 0 || int(location) >= len(lp.uniforms) || count != 1 {
		c.setError("UniformMatrix4fv", gles.InvalidOperation)
		return
	}
	if lp.uniforms[location].typ != tMat4 {
		c.setError("UniformMatrix4fv", gles.InvalidOperation)
		return
	}
	v := value{n: 16}
	for i, f := range m {
		v.v[i] = float64(f)
	}
	lp.values[location] = v
	lp.loadUniforms()
}

// Generic vertex attributes

type attribArray struct {
	enabled bool
	size    int32
	stride  int32
	data    []float32
}

func (c *Context) EnableVertexAttribArray(index uint32) {
	if index >= maxVertexAttribs {
		c.setError("EnableVertexAttribArray", gles.InvalidValue)
		return
	}
	c.attribs[index].enabled = true
}

func (c *Context) DisableVertexAttribArray(index uint32) {
	if index >= maxVertexAttribs {
		c.setError("DisableVertexAttribArray", gles.InvalidValue)
		return
	}
	c.attribs[index].enabled = false
}

func (c *Context) VertexAttribPointer(index uint32, size int32, xtype gles.Enum, normalized bool, stride int32, data []float32) {
	switch {
	case index >= maxVertexAttribs || size < 1 || size > 4 || stride < 0:
		c.setError("VertexAttribPointer", gles.InvalidValue)
		return
	case xtype != gles.Float:
		c.setError("VertexAttribPointer", gles.InvalidEnum)
		return
	}
	a := &c.attribs[index]
	a.size, a.stride, a.data = size, stride, data
}

func boolInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

func logLength(log string) int32 {
	if log == "" {
		return 0
	}
	return int32(len(log) + 1)
}
