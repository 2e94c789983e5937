package gmesh

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
)

// Mesh is an indexed triangle mesh. Position order is semantically load-bearing:
// a vertex's index is its position in Positions and Normals.
// Triangles are wound counter-clockwise when viewed from outside the solid.
//
// A Mesh returned by this package is owned by the caller; the package retains no reference to it.
type Mesh struct {
	Positions []ms3.Vec
	// Normals has one entry per position, the outward unit normal at that vertex.
	Normals   []ms3.Vec
	Triangles [][3]uint32
}

// NumVertices returns the amount of vertices in the mesh.
func (m *Mesh) NumVertices() int { return len(m.Positions) }

// NumTriangles returns the amount of triangles in the mesh.
func (m *Mesh) NumTriangles() int { return len(m.Triangles) }

// Validate checks the mesh invariants: every triangle index references an existing vertex,
// there is one normal per vertex and no normal is zero or non-finite.
func (m *Mesh) Validate() error {
	if err := m.validateIndices(); err != nil {
		return err
	}
	if len(m.Normals) != len(m.Positions) {
		return fmt.Errorf("%w: %d normals for %d positions", ErrMismatchedNormals, len(m.Normals), len(m.Positions))
	}
	for i, n := range m.Normals {
		l := ms3.Norm(n)
		if l < epstol || math32.IsNaN(l) || math32.IsInf(l, 0) {
			return fmt.Errorf("%w: vertex %d normal %v", ErrZeroNormal, i, n)
		}
	}
	return nil
}

func (m *Mesh) validateIndices() error {
	nv := uint32(len(m.Positions))
	for i, tri := range m.Triangles {
		for _, idx := range tri {
			if idx >= nv {
				return fmt.Errorf("%w: triangle %d references vertex %d of %d", ErrIndexOutOfRange, i, idx, nv)
			}
		}
	}
	return nil
}

// Bounds returns the axis aligned bounding box that contains all mesh positions.
// An empty mesh returns the zero Box.
func (m *Mesh) Bounds() ms3.Box {
	if len(m.Positions) == 0 {
		return ms3.Box{}
	}
	bb := ms3.Box{Min: m.Positions[0], Max: m.Positions[0]}
	for _, p := range m.Positions[1:] {
		bb.Min = ms3.MinElem(bb.Min, p)
		bb.Max = ms3.MaxElem(bb.Max, p)
	}
	return bb
}

// Triangle returns the positional triangle of the i'th index triple.
func (m *Mesh) Triangle(i int) ms3.Triangle {
	tri := m.Triangles[i]
	return ms3.Triangle{m.Positions[tri[0]], m.Positions[tri[1]], m.Positions[tri[2]]}
}

// AppendTriangles appends the positional triangles of the mesh to dst and returns the result.
func (m *Mesh) AppendTriangles(dst []ms3.Triangle) []ms3.Triangle {
	for i := range m.Triangles {
		dst = append(dst, m.Triangle(i))
	}
	return dst
}

// PositionBuffer returns positions as a flat x,y,z buffer ready for upload to a GPU vertex buffer.
func (m *Mesh) PositionBuffer() []float32 {
	return appendVecs(make([]float32, 0, 3*len(m.Positions)), m.Positions)
}

// NormalBuffer returns normals as a flat x,y,z buffer with the same vertex count as [Mesh.PositionBuffer].
func (m *Mesh) NormalBuffer() []float32 {
	return appendVecs(make([]float32, 0, 3*len(m.Normals)), m.Normals)
}

// IndexBuffer returns the triangle index triples flattened.
func (m *Mesh) IndexBuffer() []uint32 {
	buf := make([]uint32, 0, 3*len(m.Triangles))
	for _, tri := range m.Triangles {
		buf = append(buf, tri[:]...)
	}
	return buf
}

func appendVecs(dst []float32, vecs []ms3.Vec) []float32 {
	for _, v := range vecs {
		dst = append(dst, v.X, v.Y, v.Z)
	}
	return dst
}

// Clone returns a deep copy of the mesh.
func (m *Mesh) Clone() *Mesh {
	return &Mesh{
		Positions: append([]ms3.Vec(nil), m.Positions...),
		Normals:   append([]ms3.Vec(nil), m.Normals...),
		Triangles: append([][3]uint32(nil), m.Triangles...),
	}
}

// FromTriangles creates a mesh with three unshared vertices per triangle and flat normals.
// Degenerate (zero area) triangles have no normal and are skipped, so the result may have
// fewer triangles than tris. An error is returned only if no triangle has area.
func FromTriangles(tris []ms3.Triangle) (*Mesh, error) {
	m := &Mesh{
		Positions: make([]ms3.Vec, 0, 3*len(tris)),
		Normals:   make([]ms3.Vec, 0, 3*len(tris)),
		Triangles: make([][3]uint32, 0, len(tris)),
	}
	for _, tri := range tris {
		n, ok := faceNormal(tri[0], tri[1], tri[2])
		if !ok {
			continue
		}
		base := uint32(len(m.Positions))
		m.Positions = append(m.Positions, tri[0], tri[1], tri[2])
		m.Normals = append(m.Normals, n, n, n)
		m.Triangles = append(m.Triangles, [3]uint32{base, base + 1, base + 2})
	}
	if len(tris) > 0 && len(m.Triangles) == 0 {
		return nil, fmt.Errorf("%w: all %d triangles degenerate", ErrZeroNormal, len(tris))
	}
	return m, nil
}

// RemoveDegenerate removes zero area triangles in place and returns how many were removed.
// Vertices are kept even if no triangle references them anymore. Indices must be in range.
func (m *Mesh) RemoveDegenerate() int {
	kept := m.Triangles[:0]
	for _, tri := range m.Triangles {
		if _, ok := faceNormal(m.Positions[tri[0]], m.Positions[tri[1]], m.Positions[tri[2]]); ok {
			kept = append(kept, tri)
		}
	}
	removed := len(m.Triangles) - len(kept)
	m.Triangles = kept
	return removed
}
