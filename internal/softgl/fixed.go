package softgl

import (
	"cone-renderer/internal/gles"
	"cone-renderer/internal/mathutil"
)

type clientArray struct {
	enabled bool
	size    int32
	stride  int32
	data    []float32
}

// fetch reads the size components of vertex i, filling the rest from def.
// It reports false when data is too short.
func (a *clientArray) fetch(i int, def mathutil.Vec4) (mathutil.Vec4, bool) {
	stride := int(a.stride) / 4
	if stride == 0 {
		stride = int(a.size)
	}
	base := i * stride
	if base+int(a.size) > len(a.data) {
		return def, false
	}
	out := def
	for k := 0; k < int(a.size); k++ {
		out[k] = float64(a.data[base+k])
	}
	return out, true
}

func (c *Context) stack() *[]mathutil.Mat4 {
	if c.matrixMode == gles.Projection {
		return &c.projection
	}
	return &c.modelview
}

func (c *Context) top() *mathutil.Mat4 {
	s := *c.stack()
	return &s[len(s)-1]
}

func (c *Context) MatrixMode(mode gles.Enum) {
	if mode != gles.Modelview && mode != gles.Projection {
		c.setError("MatrixMode", gles.InvalidEnum)
		return
	}
	c.matrixMode = mode
}

func (c *Context) LoadIdentity() {
	*c.top() = mathutil.Mat4Identity()
}

func (c *Context) multTop(m mathutil.Mat4) {
	t := c.top()
	*t = mathutil.Mat4Mul(*t, m)
}

func (c *Context) Frustumf(left, right, bottom, top, near, far float32) {
	if near <= 0 || far <= 0 || left == right || bottom == top || near == far {
		c.setError("Frustumf", gles.InvalidValue)
		return
	}
	c.multTop(mathutil.Frustum(float64(left), float64(right), float64(bottom), float64(top), float64(near), float64(far)))
}

func (c *Context) Translatef(x, y, z float32) {
	c.multTop(mathutil.Translate(float64(x), float64(y), float64(z)))
}

func (c *Context) MultMatrixf(m *[16]float32) {
	c.multTop(mathutil.Mat4FromFloat32(*m))
}

func (c *Context) PushMatrix() {
	s := c.stack()
	limit := maxModelviewDepth
	if c.matrixMode == gles.Projection {
		limit = maxProjectionDepth
	}
	if len(*s) >= limit {
		c.setError("PushMatrix", gles.StackOverflow)
		return
	}
	*s = append(*s, (*s)[len(*s)-1])
}

func (c *Context) PopMatrix() {
	s := c.stack()
	if len(*s) <= 1 {
		c.setError("PopMatrix", gles.StackUnderflow)
		return
	}
	*s = (*s)[:len(*s)-1]
}

func (c *Context) clientArray(op string, array gles.Enum) *clientArray {
	switch array {
	case gles.VertexArray:
		return &c.vertexArr
	case gles.ColorArray:
		return &c.colorArr
	}
	c.setError(op, gles.InvalidEnum)
	return nil
}

func (c *Context) EnableClientState(array gles.Enum) {
	if a := c.clientArray("EnableClientState", array); a != nil {
		a.enabled = true
	}
}

func (c *Context) DisableClientState(array gles.Enum) {
	if a := c.clientArray("DisableClientState", array); a != nil {
		a.enabled = false
	}
}

func (c *Context) VertexPointer(size int32, xtype gles.Enum, stride int32, data []float32) {
	switch {
	case size < 2 || size > 4 || stride < 0:
		c.setError("VertexPointer", gles.InvalidValue)
		return
	case xtype != gles.Float:
		c.setError("VertexPointer", gles.InvalidEnum)
		return
	}
	c.vertexArr.size, c.vertexArr.stride, c.vertexArr.data = size, stride, data
}

func (c *Context) ColorPointer(size int32, xtype gles.Enum, stride int32, data []float32) {
	switch {
	case size != 4 || stride < 0:
		c.setError("ColorPointer", gles.InvalidValue)
		return
	case xtype != gles.Float:
		c.setError("ColorPointer", gles.InvalidEnum)
		return
	}
	c.colorArr.size, c.colorArr.stride, c.colorArr.data = size, stride, data
}

var (
	defaultPosition = mathutil.Vec4{0, 0, 0, 1}
	defaultColor    = mathutil.Vec4{1, 1, 1, 1}
)

// fixedVertices transforms vertices [first, first+count) by
// projection * modelview, carrying the vertex color as varyings.
func (c *Context) fixedVertices(first, count int) ([]clipVertex, bool) {
	if !c.vertexArr.enabled {
		return nil, true
	}
	mvp := mathutil.Mat4Mul(c.projection[len(c.projection)-1], c.modelview[len(c.modelview)-1])
	out := make([]clipVertex, count)
	vary := make([]float64, 4*count)
	for i := range out {
		pos, ok := c.vertexArr.fetch(first+i, defaultPosition)
		if !ok {
			return nil, false
		}
		col := defaultColor
		if c.colorArr.enabled {
			if col, ok = c.colorArr.fetch(first+i, defaultColor); !ok {
				return nil, false
			}
		}
		out[i].clip = mvp.MulVec4(pos)
		out[i].varyings = vary[4*i : 4*i+4]
		copy(out[i].varyings, col[:])
	}
	return out, true
}
