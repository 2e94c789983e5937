package gmeshaux

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/soypat/geometry/ms3"
	"github.com/soypat/gmesh"
	"github.com/soypat/gmesh/glrender"
	"golang.org/x/sync/errgroup"
)

// AssetLoadError is returned by [LoadAssets] when an asset fails to load.
type AssetLoadError struct {
	Name string
	Path string
	Err  error
}

func (e *AssetLoadError) Error() string {
	return fmt.Sprintf("loading asset %q from %s: %s", e.Name, e.Path, e.Err)
}

func (e *AssetLoadError) Unwrap() error { return e.Err }

var errUnsupportedFormat = errors.New("unsupported mesh file format")

// LoadAssets loads every name->path mesh file concurrently and returns the meshes by name.
// All loads must succeed: the first failure cancels the remaining loads and is returned
// as an [*AssetLoadError]. No partial result is returned on error.
func LoadAssets(ctx context.Context, paths map[string]string) (map[string]*gmesh.Mesh, error) {
	names := make([]string, 0, len(paths))
	for name := range paths {
		names = append(names, name)
	}
	sort.Strings(names)
	meshes := make([]*gmesh.Mesh, len(names))
	g, ctx := errgroup.WithContext(ctx)
	for i, name := range names {
		i, name := i, name
		path := paths[name]
		g.Go(func() error {
			m, err := loadMeshFile(ctx, path)
			if err != nil {
				return &AssetLoadError{Name: name, Path: path, Err: err}
			}
			meshes[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	result := make(map[string]*gmesh.Mesh, len(names))
	for i, name := range names {
		result[name] = meshes[i]
	}
	return result, nil
}

func loadMeshFile(ctx context.Context, path string) (*gmesh.Mesh, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fp, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fp.Close()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".obj":
		return DecodeOBJ(&ctxReader{ctx: ctx, r: fp})
	case ".stl":
		tris, err := glrender.ReadBinarySTL(&ctxReader{ctx: ctx, r: fp})
		if err != nil {
			return nil, err
		}
		return gmesh.FromTriangles(tris)
	default:
		return nil, fmt.Errorf("%w: %q", errUnsupportedFormat, ext)
	}
}

// ctxReader stops reading once its context is done so a failed sibling load
// cancels large files mid-read.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (cr *ctxReader) Read(b []byte) (int, error) {
	if err := cr.ctx.Err(); err != nil {
		return 0, err
	}
	return cr.r.Read(b)
}

// DecodeOBJ decodes the geometry of a Wavefront OBJ file: vertex positions (v) and faces (f).
// Polygonal faces are triangulated as a fan around their first vertex. Negative (relative)
// indices are supported. Texture coordinates, file normals, groups and materials are ignored
// and smooth normals are computed from the geometry. Zero area faces are skipped.
func DecodeOBJ(r io.Reader) (*gmesh.Mesh, error) {
	m := &gmesh.Mesh{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	var face []uint32
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		switch fields[0] {
		case "v":
			if len(fields) < 4 {
				return nil, fmt.Errorf("line %d: vertex needs 3 coordinates", line)
			}
			var xyz [3]float32
			for i := range xyz {
				f, err := strconv.ParseFloat(fields[i+1], 32)
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", line, err)
				}
				xyz[i] = float32(f)
			}
			m.Positions = append(m.Positions, ms3.Vec{X: xyz[0], Y: xyz[1], Z: xyz[2]})
		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("line %d: face needs at least 3 vertices", line)
			}
			face = face[:0]
			for _, field := range fields[1:] {
				idx, err := objIndex(field, len(m.Positions))
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", line, err)
				}
				face = append(face, idx)
			}
			for i := 1; i+1 < len(face); i++ {
				m.Triangles = append(m.Triangles, [3]uint32{face[0], face[i], face[i+1]})
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(m.Triangles) == 0 {
		return nil, errors.New("OBJ contains no faces")
	}
	// Zero area faces have no normal; skip them like STL import does.
	if m.RemoveDegenerate() > 0 && len(m.Triangles) == 0 {
		return nil, fmt.Errorf("%w: all OBJ faces degenerate", gmesh.ErrZeroNormal)
	}
	m = dropUnreferenced(m)
	if err := gmesh.ComputeNormals(m); err != nil {
		return nil, err
	}
	return m, nil
}

// objIndex parses the position index of a face vertex token "v", "v/vt", "v//vn" or "v/vt/vn"
// into a zero based index.
func objIndex(token string, nverts int) (uint32, error) {
	v, _, _ := strings.Cut(token, "/")
	idx, err := strconv.Atoi(v)
	if err != nil {
		return 0, err
	}
	if idx < 0 {
		idx += nverts + 1
	}
	if idx < 1 || idx > nverts {
		return 0, fmt.Errorf("%w: face vertex %s of %d vertices", gmesh.ErrIndexOutOfRange, token, nverts)
	}
	return uint32(idx - 1), nil
}

// dropUnreferenced removes vertices no face references, which would otherwise have no normal.
func dropUnreferenced(m *gmesh.Mesh) *gmesh.Mesh {
	remap := make([]int64, len(m.Positions))
	for i := range remap {
		remap[i] = -1
	}
	for _, tri := range m.Triangles {
		for _, idx := range tri {
			remap[idx] = 0
		}
	}
	var positions []ms3.Vec
	for i, p := range m.Positions {
		if remap[i] == 0 {
			remap[i] = int64(len(positions))
			positions = append(positions, p)
		}
	}
	if len(positions) == len(m.Positions) {
		return m
	}
	for i, tri := range m.Triangles {
		for j, idx := range tri {
			m.Triangles[i][j] = uint32(remap[idx])
		}
	}
	m.Positions = positions
	return m
}
