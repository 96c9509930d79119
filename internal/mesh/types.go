package mesh

import "cone-renderer/internal/mathutil"

// Topology says how a vertex sequence forms triangles.
type Topology int

const (
	// TriangleStrip: every vertex after the second closes a triangle with the
	// two before it.
	TriangleStrip Topology = iota
	// TriangleFan: the first vertex is shared by every triangle.
	TriangleFan
)

func (t Topology) String() string {
	switch t {
	case TriangleStrip:
		return "triangle-strip"
	case TriangleFan:
		return "triangle-fan"
	}
	return "unknown"
}

// Vertex carries a position and a color baked at build time.
type Vertex struct {
	Position mathutil.Vec3
	Color    mathutil.Vec4
}

// Mesh is an ordered vertex sequence drawn with a single topology.
type Mesh struct {
	Topology Topology
	Vertices []Vertex
}

// Interleaved layout of one vertex: x y z r g b a, all float32.
const (
	FloatsPerVertex = 7
	PositionOffset  = 0 // in floats
	ColorOffset     = 3 // in floats
	Stride          = FloatsPerVertex * 4
)

// Interleave packs the vertices into one contiguous buffer with Stride bytes
// per vertex, the layout client-side vertex arrays read from.
func (m Mesh) Interleave() []float32 {
	buf := make([]float32, 0, len(m.Vertices)*FloatsPerVertex)
	for _, v := range m.Vertices {
		buf = append(buf,
			float32(v.Position[0]), float32(v.Position[1]), float32(v.Position[2]),
			float32(v.Color[0]), float32(v.Color[1]), float32(v.Color[2]), float32(v.Color[3]),
		)
	}
	return buf
}

// Triangles returns the number of triangles the topology produces.
func (m Mesh) Triangles() int {
	if len(m.Vertices) < 3 {
		return 0
	}
	return len(m.Vertices) - 2
}

// Bounds returns the axis-aligned bounding box of the positions.
func (m Mesh) Bounds() (min, max mathutil.Vec3) {
	if len(m.Vertices) == 0 {
		return
	}
	min, max = m.Vertices[0].Position, m.Vertices[0].Position
	for _, v := range m.Vertices[1:] {
		for k := 0; k < 3; k++ {
			if v.Position[k] < min[k] {
				min[k] = v.Position[k]
			}
			if v.Position[k] > max[k] {
				max[k] = v.Position[k]
			}
		}
	}
	return min, max
}
