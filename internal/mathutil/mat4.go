package mathutil

import "math"

// Mat4 is a 4×4 matrix stored column-major, the layout glUniformMatrix4fv
// takes with transpose=false: element (row r, column c) lives at m[c*4+r].
// Vectors are columns, so translation occupies m[12..14].
type Mat4 [16]float64

func Mat4Identity() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Translate returns a translation by (x, y, z).
func Translate(x, y, z float64) Mat4 {
	m := Mat4Identity()
	m[12] = x
	m[13] = y
	m[14] = z
	return m
}

// Frustum returns the perspective projection glFrustum builds for the given
// clip bounds. near and far are positive distances along -Z.
func Frustum(left, right, bottom, top, near, far float64) Mat4 {
	a := (right + left) / (right - left)
	b := (top + bottom) / (top - bottom)
	c := -(far + near) / (far - near)
	d := -2 * far * near / (far - near)
	return Mat4{
		2 * near / (right - left), 0, 0, 0,
		0, 2 * near / (top - bottom), 0, 0,
		a, b, c, -1,
		0, 0, d, 0,
	}
}

// Mat4Mul returns a × b. Applied to a vector, b acts first.
func Mat4Mul(a, b Mat4) Mat4 {
	var m Mat4
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			m[c*4+r] = a[0*4+r]*b[c*4+0] + a[1*4+r]*b[c*4+1] +
				a[2*4+r]*b[c*4+2] + a[3*4+r]*b[c*4+3]
		}
	}
	return m
}

// At returns the element at row r, column c.
func (m Mat4) At(r, c int) float64 {
	return m[c*4+r]
}

func (m Mat4) row(r int) Vec4 {
	return Vec4{m.At(r, 0), m.At(r, 1), m.At(r, 2), m.At(r, 3)}
}

// MulVec4 returns M × v.
func (m Mat4) MulVec4(v Vec4) Vec4 {
	return Vec4{m.row(0).Dot(v), m.row(1).Dot(v), m.row(2).Dot(v), m.row(3).Dot(v)}
}

// MulPoint transforms a 3D point (w=1) by the 4×4 matrix, ignoring the
// projective row.
func (m Mat4) MulPoint(v Vec3) Vec3 {
	return m.MulVec4(Point(v)).XYZ()
}

// FromMat3Translation builds a 4×4 affine matrix from a 3×3 rotation and translation.
func FromMat3Translation(r Mat3, t Vec3) Mat4 {
	return Mat4{
		r[0], r[3], r[6], 0,
		r[1], r[4], r[7], 0,
		r[2], r[5], r[8], 0,
		t[0], t[1], t[2], 1,
	}
}

// Float32 narrows the matrix for upload to a graphics device.
func (m Mat4) Float32() [16]float32 {
	var out [16]float32
	for i, v := range m {
		out[i] = float32(v)
	}
	return out
}

// Mat4FromFloat32 widens an uploaded matrix back to float64.
func Mat4FromFloat32(f [16]float32) Mat4 {
	var m Mat4
	for i, v := range f {
		m[i] = float64(v)
	}
	return m
}

// IsIdentity checks if the matrix is approximately identity.
func (m Mat4) IsIdentity() bool {
	return m.ApproxEqual(Mat4Identity(), 1e-8)
}

func (a Mat4) ApproxEqual(b Mat4, eps float64) bool {
	for i := range a {
		if math.Abs(a[i]-b[i]) > eps {
			return false
		}
	}
	return true
}
