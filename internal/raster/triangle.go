package raster

import "math"

// Vertex is a triangle corner in window coordinates: X and Y in pixels with
// the origin at the bottom-left, Z in [0, 1]. InvW is 1/w of the clip-space
// position; varyings are interpolated perspective-correct when it is set on
// all three corners and linearly in screen space otherwise.
type Vertex struct {
	X, Y, Z  float64
	InvW     float64
	Varyings []float64
}

// FragmentFunc returns the RGBA color, components in [0, 1], of a fragment
// with the given interpolated varyings. The slice is reused between calls.
type FragmentFunc func(varyings []float64) [4]float64

// PassThrough treats the first four varyings as the fragment color.
func PassThrough(v []float64) [4]float64 {
	var c [4]float64
	copy(c[:], v)
	return c
}

// Rasterizer draws triangles into a Target, reusing its scratch storage
// between calls.
type Rasterizer struct {
	scratch []float64
}

// Triangle rasterizes one triangle of either winding, sampling at pixel
// centers. Depth is interpolated in screen space as GL does. It returns the
// number of fragments written.
//
// This is the HOT PATH: no allocation inside the pixel loop.
func (r *Rasterizer) Triangle(t *Target, v0, v1, v2 *Vertex, shade FragmentFunc) int {
	w, h := t.Size()
	if w == 0 || h == 0 {
		return 0
	}

	x0, y0, z0 := v0.X, v0.Y, v0.Z
	x1, y1, z1 := v1.X, v1.Y, v1.Z
	x2, y2, z2 := v2.X, v2.Y, v2.Z

	// Bounding box over pixel centers
	minX := int(math.Floor(math.Min(math.Min(x0, x1), x2)))
	maxX := int(math.Ceil(math.Max(math.Max(x0, x1), x2)))
	minY := int(math.Floor(math.Min(math.Min(y0, y1), y2)))
	maxY := int(math.Ceil(math.Max(math.Max(y0, y1), y2)))

	if minX < 0 {
		minX = 0
	}
	if maxX > w-1 {
		maxX = w - 1
	}
	if minY < 0 {
		minY = 0
	}
	if maxY > h-1 {
		maxY = h - 1
	}
	if minX > maxX || minY > maxY {
		return 0
	}

	// Barycentric setup
	det := (y1-y2)*(x0-x2) + (x2-x1)*(y0-y2)
	if det > -1e-12 && det < 1e-12 {
		return 0
	}
	invDet := 1.0 / det

	// Precompute edge deltas
	dy12 := y1 - y2
	dx21 := x2 - x1
	dy20 := y2 - y0
	dx02 := x0 - x2

	nv := min(len(v0.Varyings), len(v1.Varyings), len(v2.Varyings))
	if cap(r.scratch) < nv {
		r.scratch = make([]float64, nv)
	}
	vary := r.scratch[:nv]

	w0, w1, w2 := v0.InvW, v1.InvW, v2.InvW
	if w0 <= 0 || w1 <= 0 || w2 <= 0 {
		w0, w1, w2 = 1, 1, 1
	}

	written := 0
	for sy := minY; sy <= maxY; sy++ {
		dsy := float64(sy) + 0.5 - y2
		for sx := minX; sx <= maxX; sx++ {
			dsx := float64(sx) + 0.5 - x2
			b0 := (dy12*dsx + dx21*dsy) * invDet
			b1 := (dy20*dsx + dx02*dsy) * invDet
			b2 := 1.0 - b0 - b1

			if b0 < 0 || b1 < 0 || b2 < 0 {
				continue
			}

			z := b0*z0 + b1*z1 + b2*z2
			if z < 0 || z > 1 {
				continue
			}

			if t.DepthTest && t.Depth != nil {
				di := sy*t.Depth.Width + sx
				if float32(z) >= t.Depth.Z[di] {
					continue
				}
				t.Depth.Z[di] = float32(z)
			}

			if t.Color != nil {
				q0, q1, q2 := b0*w0, b1*w1, b2*w2
				inv := 1 / (q0 + q1 + q2)
				q0, q1, q2 = q0*inv, q1*inv, q2*inv
				for k := range vary {
					vary[k] = q0*v0.Varyings[k] + q1*v1.Varyings[k] + q2*v2.Varyings[k]
				}
				c := shade(vary)
				pxIdx := (sy*t.Color.Width + sx) * 4
				t.Color.Pix[pxIdx] = clamp255(c[0] * 255)
				t.Color.Pix[pxIdx+1] = clamp255(c[1] * 255)
				t.Color.Pix[pxIdx+2] = clamp255(c[2] * 255)
				t.Color.Pix[pxIdx+3] = clamp255(c[3] * 255)
			}
			written++
		}
	}
	return written
}
