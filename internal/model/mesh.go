package model

// Vertex is one mesh vertex with its averaged surface normal.
type Vertex struct {
	Position Vec3
	Normal   Vec3
}

// Mesh is a read-only triangle soup: shared vertices plus an index list
// where every three consecutive indices form one triangle. Meshes arrive
// from an external importer already triangulated; this module never
// mutates one after SetMeshData.
type Mesh struct {
	name     string
	vertices []Vertex
	indices  []uint32
	bounds   Bounds
}

// SetName attaches a display name to the mesh.
func (m *Mesh) SetName(name string) {
	m.name = name
}

// Name returns the mesh display name.
func (m *Mesh) Name() string {
	return m.name
}

// SetMeshData replaces the mesh contents and recomputes the cached bounds.
func (m *Mesh) SetMeshData(vertices []Vertex, indices []uint32) {
	m.vertices = vertices
	m.indices = indices

	m.bounds = Bounds{}
	if len(vertices) > 0 {
		m.bounds = Bounds{Min: vertices[0].Position, Max: vertices[0].Position}
		for _, v := range vertices[1:] {
			m.bounds = m.bounds.Expand(v.Position)
		}
	}
}

// Vertices returns the shared vertex slice. Callers must not modify it.
func (m *Mesh) Vertices() []Vertex {
	return m.vertices
}

// Indices returns the triangle index slice. Callers must not modify it.
func (m *Mesh) Indices() []uint32 {
	return m.indices
}

// Valid reports whether the mesh holds at least one complete triangle
// with all indices in range.
func (m *Mesh) Valid() bool {
	if len(m.vertices) == 0 || len(m.indices) < 3 || len(m.indices)%3 != 0 {
		return false
	}
	n := uint32(len(m.vertices))
	for _, idx := range m.indices {
		if idx >= n {
			return false
		}
	}
	return true
}

// Bounds returns the axis-aligned bounds computed at SetMeshData time.
func (m *Mesh) Bounds() Bounds {
	return m.bounds
}

// TriangleCount returns the number of complete triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.indices) / 3
}

// Triangle returns the three vertices of triangle i.
func (m *Mesh) Triangle(i int) (Vertex, Vertex, Vertex) {
	base := i * 3
	return m.vertices[m.indices[base]], m.vertices[m.indices[base+1]], m.vertices[m.indices[base+2]]
}
