package mathutil

import "math"

// Mat3 is the rotation block of a Mat4, stored row-major.
type Mat3 [9]float64

func Mat3Identity() Mat3 {
	return Mat3{1, 0, 0, 0, 1, 0, 0, 0, 1}
}

func (m Mat3) row(r int) Vec3 { return Vec3{m[r*3], m[r*3+1], m[r*3+2]} }

func (m Mat3) col(c int) Vec3 { return Vec3{m[c], m[3+c], m[6+c]} }

// Mat3Mul returns a × b.
func Mat3Mul(a, b Mat3) Mat3 {
	var out Mat3
	for i := range out {
		out[i] = a.row(i / 3).Dot(b.col(i % 3))
	}
	return out
}

// Apply returns m × v.
func (m Mat3) Apply(v Vec3) Vec3 {
	return Vec3{m.row(0).Dot(v), m.row(1).Dot(v), m.row(2).Dot(v)}
}

func (m Mat3) Transpose() Mat3 {
	var out Mat3
	for i := range out {
		out[i] = m[(i%3)*3+i/3]
	}
	return out
}

func (m Mat3) Det() float64 {
	return m.row(0).Dot(m.row(1).Cross(m.row(2)))
}

// IsRotation reports whether m is orthonormal with determinant +1, each
// within eps.
func (m Mat3) IsRotation(eps float64) bool {
	p := Mat3Mul(m, m.Transpose())
	id := Mat3Identity()
	for i := range p {
		if math.Abs(p[i]-id[i]) > eps {
			return false
		}
	}
	return math.Abs(m.Det()-1) <= eps
}
