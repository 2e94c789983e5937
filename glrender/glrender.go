package glrender

import (
	"errors"
	"io"

	"github.com/soypat/geometry/ms3"
	"github.com/soypat/gmesh"
)

// Renderer streams positional triangles. ReadTriangles reads up to len(dst) triangles into dst and
// returns io.EOF once there are no more triangles to read.
type Renderer interface {
	ReadTriangles(dst []ms3.Triangle, userData any) (n int, err error)
}

// RenderAll reads the full contents of a Renderer and returns the slice read.
// It does not return error on io.EOF, like the io.RenderAll implementation.
func RenderAll(r Renderer, userData any) ([]ms3.Triangle, error) {
	const startSize = 4096
	var err error
	var nt int
	result := make([]ms3.Triangle, 0, startSize)
	buf := make([]ms3.Triangle, startSize)
	for {
		nt, err = r.ReadTriangles(buf, userData)
		if err == nil || err == io.EOF {
			result = append(result, buf[:nt]...)
		}
		if err != nil {
			break
		}
	}
	if err == io.EOF {
		return result, nil
	}
	return result, err
}

// MeshRenderer implements [Renderer] over an indexed [gmesh.Mesh],
// expanding index triples to positional triangles in mesh order.
type MeshRenderer struct {
	mesh *gmesh.Mesh
	next int
}

var errNilMesh = errors.New("nil mesh")

// NewMeshRenderer returns a renderer that reads the triangles of m. The mesh indices are
// validated once so reads never go out of bounds.
func NewMeshRenderer(m *gmesh.Mesh) (*MeshRenderer, error) {
	var mr MeshRenderer
	err := mr.Reset(m)
	if err != nil {
		return nil, err
	}
	return &mr, nil
}

// Reset switches the underlying mesh and starts reading from its first triangle.
func (mr *MeshRenderer) Reset(m *gmesh.Mesh) error {
	if m == nil {
		return errNilMesh
	}
	if err := m.Validate(); err != nil {
		return err
	}
	*mr = MeshRenderer{mesh: m}
	return nil
}

// ReadTriangles implements [Renderer]. userData is unused.
func (mr *MeshRenderer) ReadTriangles(dst []ms3.Triangle, userData any) (n int, err error) {
	if mr.mesh == nil {
		return 0, errNilMesh
	}
	nt := mr.mesh.NumTriangles()
	for n < len(dst) && mr.next < nt {
		dst[n] = mr.mesh.Triangle(mr.next)
		n++
		mr.next++
	}
	if mr.next == nt {
		return n, io.EOF
	}
	return n, nil
}
