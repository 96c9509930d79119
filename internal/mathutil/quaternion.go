package mathutil

import "math"

// Quat represents a quaternion (x, y, z, w).
type Quat [4]float64

const (
	// slerpLinearEps switches Slerp to normalized lerp when the inputs are
	// so close that sin(theta) loses precision.
	slerpLinearEps  = 0.0005
	antiParallelEps = 1e-9
)

// QuatIdentity is the unrotated orientation.
func QuatIdentity() Quat {
	return Quat{0, 0, 0, 1}
}

// QuatFromAxisAngle returns the rotation of angle radians about axis.
func QuatFromAxisAngle(axis Vec3, angle float64) Quat {
	a := axis.Normalize()
	s, c := math.Sin(angle*0.5), math.Cos(angle*0.5)
	return Quat{a[0] * s, a[1] * s, a[2] * s, c}
}

// QuatFromVectors returns the shortest-arc rotation that carries direction u
// onto direction v. Equal directions give the exact identity. Opposite
// directions have no unique axis: the half turn is taken about an axis
// orthogonal to u.
func QuatFromVectors(u, v Vec3) Quat {
	u, v = u.Normalize(), v.Normalize()
	if u == (Vec3{}) || v == (Vec3{}) {
		return QuatIdentity()
	}
	d := u.Dot(v)
	if d <= -1+antiParallelEps {
		return QuatFromAxisAngle(u.Orthogonal(), math.Pi)
	}
	c := u.Cross(v)
	s := math.Sqrt((1 + d) * 2)
	return Quat{c[0] / s, c[1] / s, c[2] / s, s / 2}
}

func (q Quat) Add(b Quat) Quat {
	return Quat{q[0] + b[0], q[1] + b[1], q[2] + b[2], q[3] + b[3]}
}

func (q Quat) Sub(b Quat) Quat {
	return Quat{q[0] - b[0], q[1] - b[1], q[2] - b[2], q[3] - b[3]}
}

func (q Quat) Scale(s float64) Quat {
	return Quat{q[0] * s, q[1] * s, q[2] * s, q[3] * s}
}

func (q Quat) Negate() Quat {
	return Quat{-q[0], -q[1], -q[2], -q[3]}
}

func (q Quat) Conjugate() Quat {
	return Quat{-q[0], -q[1], -q[2], q[3]}
}

func (q Quat) Dot(b Quat) float64 {
	return q[0]*b[0] + q[1]*b[1] + q[2]*b[2] + q[3]*b[3]
}

func (q Quat) Len() float64 {
	return math.Sqrt(q.Dot(q))
}

func (q Quat) Normalize() Quat {
	l := q.Len()
	if l < 1e-12 {
		return QuatIdentity()
	}
	return q.Scale(1 / l)
}

// Mul returns the Hamilton product q × b: rotating by the result applies b
// first, then q.
func (q Quat) Mul(b Quat) Quat {
	return Quat{
		q[3]*b[0] + q[0]*b[3] + q[1]*b[2] - q[2]*b[1],
		q[3]*b[1] - q[0]*b[2] + q[1]*b[3] + q[2]*b[0],
		q[3]*b[2] + q[0]*b[1] - q[1]*b[0] + q[2]*b[3],
		q[3]*b[3] - q[0]*b[0] - q[1]*b[1] - q[2]*b[2],
	}
}

// Rotate applies the rotation to v.
func (q Quat) Rotate(v Vec3) Vec3 {
	p := q.Mul(Quat{v[0], v[1], v[2], 0}).Mul(q.Conjugate())
	return Vec3{p[0], p[1], p[2]}
}

// Equal reports exact component equality. Animation uses it to detect the
// settled state, which is reached by assignment, not arithmetic.
func (q Quat) Equal(b Quat) bool {
	return q == b
}

func (q Quat) ApproxEqual(b Quat, eps float64) bool {
	for i := range q {
		if math.Abs(q[i]-b[i]) > eps {
			return false
		}
	}
	return true
}

// SameRotation reports whether q and b describe the same rotation within
// eps; q and -q are the same rotation.
func (q Quat) SameRotation(b Quat, eps float64) bool {
	return math.Abs(q.Dot(b)) >= 1-eps
}

// Slerp interpolates from q (mu=0) to b (mu=1) at constant angular velocity
// along the shorter arc. The endpoints are returned unchanged; every other
// result is unit length.
func (q Quat) Slerp(mu float64, b Quat) Quat {
	if mu <= 0 {
		return q
	}
	if mu >= 1 {
		return b
	}

	dot := q.Dot(b)
	if dot < 0 {
		b = b.Negate()
		dot = -dot
	}
	if dot > 1-slerpLinearEps {
		return q.Add(b.Sub(q).Scale(mu)).Normalize()
	}
	if dot > 1 {
		dot = 1
	}

	theta := math.Acos(dot) * mu
	ortho := b.Sub(q.Scale(dot)).Normalize()
	return q.Scale(math.Cos(theta)).Add(ortho.Scale(math.Sin(theta))).Normalize()
}

// QuatToMat3 converts a quaternion to a 3×3 rotation matrix.
func QuatToMat3(q Quat) Mat3 {
	x, y, z, w := q[0], q[1], q[2], q[3]
	xx, yy, zz := x*x, y*y, z*z
	xy, xz, yz := x*y, x*z, y*z
	wx, wy, wz := w*x, w*y, w*z

	return Mat3{
		1 - 2*(yy+zz), 2 * (xy - wz), 2 * (xz + wy),
		2 * (xy + wz), 1 - 2*(xx+zz), 2 * (yz - wx),
		2 * (xz - wy), 2 * (yz + wx), 1 - 2*(xx+yy),
	}
}

// ToMatrix returns the equivalent 4×4 rotation.
func (q Quat) ToMatrix() Mat4 {
	return FromMat3Translation(QuatToMat3(q), Vec3{})
}
