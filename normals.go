package gmesh

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
)

// Shading is the policy used to assign vertex normals.
type Shading uint8

const (
	// ShadingSmooth keeps the mesh topology and sets each vertex normal to the
	// normalized average of the unit normals of the faces sharing that vertex.
	ShadingSmooth Shading = iota
	// ShadingFlat duplicates vertices per triangle so each triangle carries its own face normal.
	ShadingFlat
)

func (s Shading) String() string {
	switch s {
	case ShadingSmooth:
		return "smooth"
	case ShadingFlat:
		return "flat"
	}
	return fmt.Sprintf("Shading(%d)", uint8(s))
}

// ParseShading parses the string form of a [Shading]. Case is ignored.
func ParseShading(s string) (Shading, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "smooth", "":
		return ShadingSmooth, nil
	case "flat":
		return ShadingFlat, nil
	}
	return 0, fmt.Errorf("unknown shading %q", s)
}

// FaceNormal returns the unit normal of the triangle a,b,c following the right hand rule,
// that is the direction a counter-clockwise wound triangle faces.
// A degenerate triangle returns the zero vector.
func FaceNormal(a, b, c ms3.Vec) ms3.Vec {
	n, _ := faceNormal(a, b, c)
	return n
}

// faceNormal reports false for triangles whose edges are parallel relative to their length.
// Edges are scaled by their largest component first so the cross product neither
// underflows for tiny triangles nor overflows for huge ones.
func faceNormal(a, b, c ms3.Vec) (ms3.Vec, bool) {
	e1, e2 := ms3.Sub(b, a), ms3.Sub(c, a)
	s := max(math32.Abs(e1.X), math32.Abs(e1.Y), math32.Abs(e1.Z),
		math32.Abs(e2.X), math32.Abs(e2.Y), math32.Abs(e2.Z))
	if s == 0 || math32.IsInf(s, 0) || math32.IsNaN(s) {
		return ms3.Vec{}, false
	}
	e1, e2 = ms3.Scale(1/s, e1), ms3.Scale(1/s, e2)
	n := ms3.Cross(e1, e2)
	l := ms3.Norm(n)
	if l <= epstol*ms3.Norm(e1)*ms3.Norm(e2) {
		return ms3.Vec{}, false
	}
	return ms3.Scale(1/l, n), true
}

// ComputeNormals overwrites the mesh normals with smooth vertex normals:
// every vertex gets the normalized sum of the unit face normals of the triangles that reference it.
// A vertex where adjacent face normals cancel out takes the normal of the first triangle referencing it.
// A vertex referenced by no triangle, or only by degenerate ones, has no normal and is an error.
func ComputeNormals(m *Mesh) error {
	if err := m.validateIndices(); err != nil {
		return err
	}
	nv := len(m.Positions)
	if cap(m.Normals) < nv {
		m.Normals = make([]ms3.Vec, nv)
	}
	m.Normals = m.Normals[:nv]
	clear(m.Normals)
	first := make([]ms3.Vec, nv)
	seen := make([]bool, nv)
	for _, tri := range m.Triangles {
		n, ok := faceNormal(m.Positions[tri[0]], m.Positions[tri[1]], m.Positions[tri[2]])
		if !ok {
			continue
		}
		for _, idx := range tri {
			m.Normals[idx] = ms3.Add(m.Normals[idx], n)
			if !seen[idx] {
				seen[idx] = true
				first[idx] = n
			}
		}
	}
	var errs []error
	for i := range m.Normals {
		if !seen[i] {
			errs = append(errs, fmt.Errorf("%w: vertex %d not part of any non-degenerate triangle", ErrZeroNormal, i))
			continue
		}
		l := ms3.Norm(m.Normals[i])
		if l < epstol {
			m.Normals[i] = first[i]
			continue
		}
		m.Normals[i] = ms3.Scale(1/l, m.Normals[i])
	}
	return errors.Join(errs...)
}

// Flatten returns a flat shaded copy of m: each triangle gets three vertices of its own,
// all with the triangle's face normal. The result has 3*m.NumTriangles() vertices and
// the same triangle order as m.
func Flatten(m *Mesh) *Mesh {
	nt := len(m.Triangles)
	flat := &Mesh{
		Positions: make([]ms3.Vec, 0, 3*nt),
		Normals:   make([]ms3.Vec, 0, 3*nt),
		Triangles: make([][3]uint32, 0, nt),
	}
	for i, tri := range m.Triangles {
		a, b, c := m.Positions[tri[0]], m.Positions[tri[1]], m.Positions[tri[2]]
		n, ok := faceNormal(a, b, c)
		if !ok && len(m.Normals) == len(m.Positions) {
			// Keep whatever the source mesh had rather than emit a zero normal.
			n = m.Normals[tri[0]]
		}
		base := uint32(3 * i)
		flat.Positions = append(flat.Positions, a, b, c)
		flat.Normals = append(flat.Normals, n, n, n)
		flat.Triangles = append(flat.Triangles, [3]uint32{base, base + 1, base + 2})
	}
	return flat
}
