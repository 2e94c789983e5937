package glrender

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/soypat/geometry/ms3"
	"github.com/soypat/gmesh"
)

type stlHeader struct {
	_     [80]uint8 // Header.
	Count uint32    // Number of triangles.
}

type stlTriangle struct {
	Normal, V1, V2, V3 [3]float32
	_                  uint16 // Attribute byte count.
}

const (
	stlHeaderSize   = 84
	stlTriangleSize = 50
	// maxSTLTriangles bounds allocation when decoding untrusted triangle counts.
	maxSTLTriangles = 1 << 26
)

// WriteBinarySTL writes model triangles to a binary STL file. Triangle normals are
// computed from the vertex winding. Returns the amount of bytes written.
func WriteBinarySTL(w io.Writer, model []ms3.Triangle) (int, error) {
	header := stlHeader{Count: uint32(len(model))}
	err := binary.Write(w, binary.LittleEndian, &header)
	if err != nil {
		return 0, err
	}
	n := stlHeaderSize
	var d stlTriangle
	for _, tri := range model {
		d.Normal = vecArray(gmesh.FaceNormal(tri[0], tri[1], tri[2]))
		d.V1 = vecArray(tri[0])
		d.V2 = vecArray(tri[1])
		d.V3 = vecArray(tri[2])
		err = binary.Write(w, binary.LittleEndian, &d)
		if err != nil {
			return n, err
		}
		n += stlTriangleSize
	}
	return n, nil
}

// ReadBinarySTL decodes the triangles of a binary STL file. Stored normals are discarded
// since they are derived from the vertex winding.
func ReadBinarySTL(r io.Reader) ([]ms3.Triangle, error) {
	br := bufio.NewReader(r)
	var header stlHeader
	err := binary.Read(br, binary.LittleEndian, &header)
	if err != nil {
		return nil, fmt.Errorf("reading STL header: %w", err)
	}
	if header.Count > maxSTLTriangles {
		return nil, fmt.Errorf("STL triangle count %d too large", header.Count)
	}
	model := make([]ms3.Triangle, header.Count)
	var d stlTriangle
	for i := range model {
		err = binary.Read(br, binary.LittleEndian, &d)
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		if err != nil {
			return nil, fmt.Errorf("reading STL triangle %d of %d: %w", i, header.Count, err)
		}
		model[i] = ms3.Triangle{arrayVec(d.V1), arrayVec(d.V2), arrayVec(d.V3)}
	}
	return model, nil
}

func vecArray(v ms3.Vec) [3]float32 { return [3]float32{v.X, v.Y, v.Z} }

func arrayVec(a [3]float32) ms3.Vec { return ms3.Vec{X: a[0], Y: a[1], Z: a[2]} }
