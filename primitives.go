package gmesh

import (
	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
)

// NewCone creates a cone of given base radius and height. The base is centered at the origin
// on the XZ plane and the apex is at (0,height,0). segments is the amount of points on the base rim.
//
// Vertex 0 is the base center, vertices 1..segments are the rim and vertex segments+1 is the apex.
// The first rim point lies on +Z and the rim advances towards +X. The mesh has segments+2 vertices
// and 2*segments triangles: a base fan facing -Y and a side fan meeting at the apex.
func (bld *Builder) NewCone(radius float32, segments int, height float32) *Mesh {
	if !okLength(radius) {
		bld.shapeErrorf("cone radius %v", radius)
		return nil
	}
	if segments < MinSegments {
		bld.shapeErrorf("cone segments %d, need at least %d", segments, MinSegments)
		return nil
	}
	if !okLength(height) {
		bld.shapeErrorf("cone height %v", height)
		return nil
	}
	n := uint32(segments)
	apex := n + 1
	m := &Mesh{
		Positions: make([]ms3.Vec, 0, segments+2),
		Triangles: make([][3]uint32, 0, 2*segments),
	}
	m.Positions = append(m.Positions, ms3.Vec{})
	m.Positions = appendRing(m.Positions, radius, segments, false, 0)
	m.Positions = append(m.Positions, ms3.Vec{Y: height})
	for i := uint32(1); i <= n; i++ {
		next := i%n + 1
		m.Triangles = append(m.Triangles,
			[3]uint32{next, i, 0},    // Base.
			[3]uint32{i, next, apex}, // Side.
		)
	}
	return bld.finish(m)
}

// NewCylinder creates a closed cylinder of given radius and height. The bottom cap is centered at
// the origin on the XZ plane and the top cap at (0,height,0).
//
// Ring vertices are interleaved: vertex 2i is bottom ring point i and 2i+1 is the top ring point
// directly above it. Vertex 2*segments is the bottom center and 2*segments+1 the top center.
// The mesh has 2*segments+2 vertices and 4*segments triangles.
func (bld *Builder) NewCylinder(radius float32, segments int, height float32) *Mesh {
	if !okLength(radius) {
		bld.shapeErrorf("cylinder radius %v", radius)
		return nil
	}
	if segments < MinSegments {
		bld.shapeErrorf("cylinder segments %d, need at least %d", segments, MinSegments)
		return nil
	}
	if !okLength(height) {
		bld.shapeErrorf("cylinder height %v", height)
		return nil
	}
	nring := uint32(2 * segments)
	bottom, top := nring, nring+1
	m := &Mesh{
		Positions: make([]ms3.Vec, 0, 2*segments+2),
		Triangles: make([][3]uint32, 0, 4*segments),
	}
	m.Positions = appendRing(m.Positions, radius, segments, true, height)
	m.Positions = append(m.Positions, ms3.Vec{}, ms3.Vec{Y: height})
	for b0 := uint32(0); b0 < nring; b0 += 2 {
		t0 := b0 + 1
		b1 := (b0 + 2) % nring
		t1 := (b0 + 3) % nring
		m.Triangles = append(m.Triangles,
			[3]uint32{bottom, b1, b0},
			[3]uint32{t0, t1, top},
			[3]uint32{t0, b0, b1},
			[3]uint32{b1, t1, t0},
		)
	}
	return bld.finish(m)
}

// NewDisk creates a one-sided disk of given radius on the XZ plane centered at the origin, facing +Y.
// Vertex 0 is the center and vertices 1..segments the rim, parametrized like [Builder.NewCone].
// The mesh has segments+1 vertices and segments triangles.
func (bld *Builder) NewDisk(radius float32, segments int) *Mesh {
	if !okLength(radius) {
		bld.shapeErrorf("disk radius %v", radius)
		return nil
	}
	if segments < MinSegments {
		bld.shapeErrorf("disk segments %d, need at least %d", segments, MinSegments)
		return nil
	}
	n := uint32(segments)
	m := &Mesh{
		Positions: make([]ms3.Vec, 0, segments+1),
		Triangles: make([][3]uint32, 0, segments),
	}
	m.Positions = append(m.Positions, ms3.Vec{})
	m.Positions = appendRing(m.Positions, radius, segments, false, 0)
	for i := uint32(1); i <= n; i++ {
		m.Triangles = append(m.Triangles, [3]uint32{i, i%n + 1, 0})
	}
	return bld.finish(m)
}

// boxFaces lists each face's outward axis followed by two in-plane axes u,v such that u×v
// points outward. Axes are 0=X, 1=Y, 2=Z.
var boxFaces = [6]struct {
	n, u, v int
	sign    float32
}{
	{n: 0, u: 1, v: 2, sign: 1},  // +X
	{n: 0, u: 2, v: 1, sign: -1}, // -X
	{n: 1, u: 2, v: 0, sign: 1},  // +Y
	{n: 1, u: 0, v: 2, sign: -1}, // -Y
	{n: 2, u: 0, v: 1, sign: 1},  // +Z
	{n: 2, u: 1, v: 0, sign: -1}, // -Z
}

// NewBox creates a cuboid centered at the origin with dimensions x,y,z.
// Faces do not share vertices so each face is lit flat: the mesh has 24 vertices and 12 triangles.
func (bld *Builder) NewBox(x, y, z float32) *Mesh {
	if !okLength(x) || !okLength(y) || !okLength(z) {
		bld.shapeErrorf("box dimensions %v,%v,%v", x, y, z)
		return nil
	}
	half := [3]float32{x / 2, y / 2, z / 2}
	m := &Mesh{
		Positions: make([]ms3.Vec, 0, 24),
		Triangles: make([][3]uint32, 0, 12),
	}
	corners := [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}
	for _, face := range boxFaces {
		base := uint32(len(m.Positions))
		for _, c := range corners {
			var p [3]float32
			p[face.n] = face.sign * half[face.n]
			p[face.u] = c[0] * half[face.u]
			p[face.v] = c[1] * half[face.v]
			m.Positions = append(m.Positions, ms3.Vec{X: p[0], Y: p[1], Z: p[2]})
		}
		m.Triangles = append(m.Triangles,
			[3]uint32{base, base + 1, base + 2},
			[3]uint32{base, base + 2, base + 3},
		)
	}
	return bld.finish(m)
}

// NewCube creates a cube of side length side centered at the origin.
func (bld *Builder) NewCube(side float32) *Mesh {
	return bld.NewBox(side, side, side)
}

// appendRing appends segments points evenly spaced on a circle of given radius on the XZ plane.
// Point i is at angle θ=i*2π/segments with coordinates (r*sinθ, 0, r*cosθ).
// If withTop is set a second point at (r*sinθ, height, r*cosθ) is appended after each ring point.
func appendRing(dst []ms3.Vec, radius float32, segments int, withTop bool, height float32) []ms3.Vec {
	inc := 2 * math32.Pi / float32(segments)
	for i := 0; i < segments; i++ {
		theta := float32(i) * inc
		x := radius * math32.Sin(theta)
		z := radius * math32.Cos(theta)
		dst = append(dst, ms3.Vec{X: x, Z: z})
		if withTop {
			dst = append(dst, ms3.Vec{X: x, Y: height, Z: z})
		}
	}
	return dst
}
