package kernel

// Mesh is a triangle soup in millimetres, as read from an STL file or
// produced by tessellating a solid. All arrays are flat: vertices has 3
// floats per vertex (x,y,z), normals has 3 floats per vertex (it may be
// empty), indices has 3 uint32s per triangle.
type Mesh struct {
	Vertices []float32 `json:"vertices"` // [x0,y0,z0, x1,y1,z1, ...]
	Normals  []float32 `json:"normals"`  // [nx0,ny0,nz0, ...]
	Indices  []uint32  `json:"indices"`  // [i0,i1,i2, ...] triangles
	PartName string    `json:"partName"` // source file or primitive spec
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0 || len(m.Indices) == 0
}

// Vertex returns vertex i as float64 millimetres.
func (m *Mesh) Vertex(i uint32) [3]float64 {
	return [3]float64{
		float64(m.Vertices[3*i]),
		float64(m.Vertices[3*i+1]),
		float64(m.Vertices[3*i+2]),
	}
}

// Triangle returns the three corners of triangle t.
func (m *Mesh) Triangle(t int) [3][3]float64 {
	return [3][3]float64{
		m.Vertex(m.Indices[3*t]),
		m.Vertex(m.Indices[3*t+1]),
		m.Vertex(m.Indices[3*t+2]),
	}
}

// AddTriangle appends an unindexed triangle with its own three vertices.
func (m *Mesh) AddTriangle(a, b, c [3]float64) {
	base := uint32(m.VertexCount())
	for _, v := range [3][3]float64{a, b, c} {
		m.Vertices = append(m.Vertices, float32(v[0]), float32(v[1]), float32(v[2]))
	}
	m.Indices = append(m.Indices, base, base+1, base+2)
}
