package softgl

import (
	"cone-renderer/internal/gles"
	"cone-renderer/internal/mathutil"
	"cone-renderer/internal/raster"
)

// clipVertex is a vertex after the vertex stage, in clip coordinates.
type clipVertex struct {
	clip     mathutil.Vec4
	varyings []float64
}

// minW rejects triangles touching or behind the eye plane. There is no
// polygon clipping; the rasterizer drops fragments outside [near, far].
const minW = 1e-6

// DrawArrays runs the bound pipeline over vertices [first, first+count).
// With a current program the programmable pipeline is used, otherwise the
// fixed-function client arrays.
func (c *Context) DrawArrays(mode gles.Enum, first, count int32) {
	switch {
	case mode != gles.Triangles && mode != gles.TriangleStrip && mode != gles.TriangleFan:
		c.setError("DrawArrays", gles.InvalidEnum)
		return
	case first < 0 || count < 0:
		c.setError("DrawArrays", gles.InvalidValue)
		return
	}
	t, status := c.target()
	if status != gles.FramebufferComplete {
		c.setError("DrawArrays", gles.InvalidFramebufferOperation)
		return
	}

	var (
		verts []clipVertex
		shade raster.FragmentFunc = raster.PassThrough
		ok    bool
	)
	if c.current != 0 {
		lp := c.programs[c.current].linked
		verts, ok = c.programVertices(lp, int(first), int(count))
		shade = lp.shade
	} else {
		verts, ok = c.fixedVertices(int(first), int(count))
	}
	if !ok {
		c.setError("DrawArrays", gles.InvalidOperation)
		return
	}

	call := DrawCall{Mode: mode, First: first, Count: count}
	if len(verts) > 0 {
		win := c.toWindow(verts)
		assemble(mode, len(win), func(a, b, d int) {
			if win[a] == nil || win[b] == nil || win[d] == nil {
				return
			}
			call.Triangles++
			call.Fragments += c.rast.Triangle(t, win[a], win[b], win[d], shade)
		})
	}
	c.stats.DrawCalls = append(c.stats.DrawCalls, call)
}

// programVertices runs the vertex shader of lp over the enabled attribute
// arrays. Disabled attributes read (0, 0, 0, 1).
func (c *Context) programVertices(lp *linkedProgram, first, count int) ([]clipVertex, bool) {
	attribs := make([]value, len(lp.attribs))
	out := make([]clipVertex, count)
	vary := make([]float64, lp.varyingWidth*count)
	for i := range out {
		for loc, b := range lp.attribs {
			v := defaultPosition
			if arr := &c.attribs[loc]; arr.enabled {
				ca := clientArray{size: arr.size, stride: arr.stride, data: arr.data}
				var ok bool
				if v, ok = ca.fetch(first+i, defaultPosition); !ok {
					return nil, false
				}
			}
			attribs[loc] = value{n: int(b.typ), v: [16]float64{v[0], v[1], v[2], v[3]}}
		}
		out[i].varyings = vary[i*lp.varyingWidth : (i+1)*lp.varyingWidth]
		clip := lp.runVertex(attribs, out[i].varyings)
		out[i].clip = mathutil.Vec4(clip)
	}
	return out, true
}

// toWindow applies the perspective divide and the viewport transform. A nil
// entry marks a vertex that cannot be projected.
func (c *Context) toWindow(verts []clipVertex) []*raster.Vertex {
	vx, vy := float64(c.viewport[0]), float64(c.viewport[1])
	vw, vh := float64(c.viewport[2]), float64(c.viewport[3])
	out := make([]*raster.Vertex, len(verts))
	for i, v := range verts {
		w := v.clip[3]
		if w < minW {
			continue
		}
		out[i] = &raster.Vertex{
			X:        vx + (v.clip[0]/w+1)*vw/2,
			Y:        vy + (v.clip[1]/w+1)*vh/2,
			Z:        (v.clip[2]/w + 1) / 2,
			InvW:     1 / w,
			Varyings: v.varyings,
		}
	}
	return out
}

// assemble calls tri with the vertex indices of each triangle of the
// primitive.
func assemble(mode gles.Enum, n int, tri func(a, b, c int)) {
	switch mode {
	case gles.Triangles:
		for i := 0; i+2 < n; i += 3 {
			tri(i, i+1, i+2)
		}
	case gles.TriangleStrip:
		for i := 0; i+2 < n; i++ {
			if i%2 == 0 {
				tri(i, i+1, i+2)
			} else {
				tri(i+1, i, i+2)
			}
		}
	case gles.TriangleFan:
		for i := 1; i+1 < n; i++ {
			tri(0, i, i+1)
		}
	}
}
