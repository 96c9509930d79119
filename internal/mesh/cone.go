package mesh

import (
	"math"

	"cone-renderer/internal/mathutil"
)

// Geometry of the model. The apex sits at y=1 and the base at y=1-ConeHeight.
const (
	ConeRadius = 0.5
	ConeHeight = 1.866
	ConeSlices = 40
)

// DiskColor is the flat gray of the base.
var DiskColor = mathutil.Vec4{0.75, 0.75, 0.75, 1}

// Cone builds the lateral surface as a triangle strip of apex/rim pairs,
// 2*(slices+1) vertices. The last pair repeats the first angle to close the
// surface. Each pair is shaded |sin θ| gray.
func Cone(radius, height float64, slices int) Mesh {
	if slices < 1 {
		return Mesh{Topology: TriangleStrip}
	}
	verts := make([]Vertex, 0, (slices+1)*2)
	dtheta := 2 * math.Pi / float64(slices)
	for i := 0; i <= slices; i++ {
		theta := float64(i) * dtheta
		b := math.Abs(math.Sin(theta))
		color := mathutil.Vec4{b, b, b, 1}

		verts = append(verts,
			Vertex{Position: mathutil.Vec3{0, 1, 0}, Color: color},
			Vertex{Position: rimPoint(radius, height, theta), Color: color},
		)
	}
	return Mesh{Topology: TriangleStrip, Vertices: verts}
}

// Disk builds the base as a triangle fan: the center first, then slices+1
// rim vertices with the last one closing the circle.
func Disk(radius, height float64, slices int, color mathutil.Vec4) Mesh {
	if slices < 1 {
		return Mesh{Topology: TriangleFan}
	}
	verts := make([]Vertex, 0, slices+2)
	verts = append(verts, Vertex{Position: mathutil.Vec3{0, 1 - height, 0}, Color: color})
	dtheta := 2 * math.Pi / float64(slices)
	for i := 0; i <= slices; i++ {
		verts = append(verts, Vertex{Position: rimPoint(radius, height, float64(i)*dtheta), Color: color})
	}
	return Mesh{Topology: TriangleFan, Vertices: verts}
}

// Model returns the cone and its base built from the package constants.
func Model() (cone, disk Mesh) {
	return Cone(ConeRadius, ConeHeight, ConeSlices), Disk(ConeRadius, ConeHeight, ConeSlices, DiskColor)
}

func rimPoint(radius, height, theta float64) mathutil.Vec3 {
	return mathutil.Vec3{radius * math.Cos(theta), 1 - height, radius * math.Sin(theta)}
}
