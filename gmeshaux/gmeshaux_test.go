package gmeshaux

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/gmesh"
	"github.com/soypat/gmesh/glrender"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tetrahedronOBJ = `# unit tetrahedron
v 0 0 0
v 1 0 0
v 0 1 0
v 0 0 1
f 1 3 2
f 1 2 4
f 1 4 3
f 2 3 4
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadViewerConfigTOML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "viewer.toml", `
width = 640
height = 480
shape = "cone"
radius = 1.0
segments = 16
shading = "flat"

[[assets]]
name = "tetra"
path = "tetra.obj"
`)
	cfg, err := LoadViewerConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 640, cfg.Width)
	assert.Equal(t, 480, cfg.Height)
	assert.Equal(t, float32(1), cfg.Radius)
	assert.Equal(t, 16, cfg.Segments)
	// Keys not in the file keep their defaults.
	assert.Equal(t, float32(1), cfg.Length)
	assert.Equal(t, float32(0.01), cfg.RotationStep)
	require.Len(t, cfg.Assets, 1)
	assert.Equal(t, filepath.Join(dir, "tetra.obj"), cfg.Assets[0].Path)

	initial, err := cfg.InitialShape()
	require.NoError(t, err)
	assert.Equal(t, gmesh.ShapeCone, initial.Kind)
	assert.Equal(t, 16, initial.Segments)

	shapes, err := cfg.Shapes()
	require.NoError(t, err)
	require.Len(t, shapes, 5)
	assert.Equal(t, gmesh.Imported("tetra"), shapes[4])
}

func TestLoadViewerConfigYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "viewer.yaml", `
shape: tetra
segments: 8
rotation_step: 0.05
assets:
  - name: tetra
    path: /abs/tetra.stl
`)
	cfg, err := LoadViewerConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 800, cfg.Width)
	assert.Equal(t, 8, cfg.Segments)
	assert.Equal(t, float32(0.05), cfg.RotationStep)
	assert.Equal(t, "/abs/tetra.stl", cfg.Assets[0].Path)
	initial, err := cfg.InitialShape()
	require.NoError(t, err)
	assert.Equal(t, gmesh.ShapeImported, initial.Kind)
	assert.Equal(t, map[string]string{"tetra": "/abs/tetra.stl"}, cfg.AssetPaths())
}

func TestLoadViewerConfigErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadViewerConfig(writeFile(t, dir, "unknown.toml", "bogus = 1\n"))
	assert.Error(t, err)
	_, err = LoadViewerConfig(writeFile(t, dir, "unknown.yaml", "bogus: 1\n"))
	assert.Error(t, err)
	_, err = LoadViewerConfig(writeFile(t, dir, "viewer.json", "{}"))
	assert.Error(t, err)
	_, err = LoadViewerConfig(filepath.Join(dir, "missing.toml"))
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestViewerConfigValidate(t *testing.T) {
	require.NoError(t, DefaultViewerConfig().Validate())

	cfg := DefaultViewerConfig()
	cfg.Segments = 2
	assert.ErrorIs(t, cfg.Validate(), gmesh.ErrInvalidParameter)

	cfg = DefaultViewerConfig()
	cfg.Radius = -1
	assert.ErrorIs(t, cfg.Validate(), gmesh.ErrInvalidParameter)

	cfg = DefaultViewerConfig()
	cfg.Width = 0
	assert.ErrorIs(t, cfg.Validate(), gmesh.ErrInvalidParameter)

	cfg = DefaultViewerConfig()
	cfg.Shape = "sphere"
	assert.ErrorIs(t, cfg.Validate(), gmesh.ErrUnknownShape)

	cfg = DefaultViewerConfig()
	cfg.Shading = "glossy"
	assert.Error(t, cfg.Validate())

	cfg = DefaultViewerConfig()
	cfg.Assets = []AssetConfig{{Name: "cube", Path: "cube.obj"}}
	assert.Error(t, cfg.Validate(), "primitive names are reserved")

	cfg = DefaultViewerConfig()
	cfg.Assets = []AssetConfig{{Name: "a", Path: "a.obj"}, {Name: "a", Path: "b.obj"}}
	assert.Error(t, cfg.Validate(), "asset names are unique")
}

func TestLoadAssets(t *testing.T) {
	dir := t.TempDir()
	objPath := writeFile(t, dir, "tetra.obj", tetrahedronOBJ)

	cube, err := gmesh.NewBox(1, 1, 1)
	require.NoError(t, err)
	var stl bytes.Buffer
	_, err = glrender.WriteBinarySTL(&stl, cube.AppendTriangles(nil))
	require.NoError(t, err)
	stlPath := writeFile(t, dir, "cube.stl", stl.String())

	assets, err := LoadAssets(context.Background(), map[string]string{
		"tetra": objPath,
		"cube":  stlPath,
	})
	require.NoError(t, err)
	require.Len(t, assets, 2)
	assert.Equal(t, 4, assets["tetra"].NumVertices())
	assert.Equal(t, 4, assets["tetra"].NumTriangles())
	assert.Equal(t, 12, assets["cube"].NumTriangles())
	assert.Equal(t, 36, assets["cube"].NumVertices())
	for name, m := range assets {
		assert.NoError(t, m.Validate(), name)
	}

	// A sliver facet is skipped instead of failing the asset.
	stl.Reset()
	tris := append(cube.AppendTriangles(nil), ms3.Triangle{{}, {X: 0.25}, {X: 0.5}})
	_, err = glrender.WriteBinarySTL(&stl, tris)
	require.NoError(t, err)
	sliverPath := writeFile(t, dir, "sliver.stl", stl.String())
	assets, err = LoadAssets(context.Background(), map[string]string{"sliver": sliverPath})
	require.NoError(t, err)
	assert.Equal(t, 12, assets["sliver"].NumTriangles())
	assert.NoError(t, assets["sliver"].Validate())

	empty, err := LoadAssets(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestLoadAssetsErrors(t *testing.T) {
	dir := t.TempDir()
	objPath := writeFile(t, dir, "tetra.obj", tetrahedronOBJ)
	plyPath := writeFile(t, dir, "mesh.ply", "ply\n")

	assets, err := LoadAssets(context.Background(), map[string]string{
		"tetra":   objPath,
		"missing": filepath.Join(dir, "missing.obj"),
	})
	assert.Nil(t, assets)
	var loadErr *AssetLoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, "missing", loadErr.Name)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Contains(t, err.Error(), "missing.obj")

	_, err = LoadAssets(context.Background(), map[string]string{"ply": plyPath})
	require.ErrorAs(t, err, &loadErr)
	assert.ErrorIs(t, err, errUnsupportedFormat)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = LoadAssets(ctx, map[string]string{"tetra": objPath})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDecodeOBJ(t *testing.T) {
	t.Run("quad", func(t *testing.T) {
		m, err := DecodeOBJ(strings.NewReader(`
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vt 0 0
vn 0 0 1
f 1/1/1 2/1/1 3/1/1 4/1/1
`))
		require.NoError(t, err)
		assert.Equal(t, [][3]uint32{{0, 1, 2}, {0, 2, 3}}, m.Triangles)
		for _, n := range m.Normals {
			assert.InDelta(t, 1, n.Z, 1e-6)
		}
	})
	t.Run("negative indices and unreferenced", func(t *testing.T) {
		m, err := DecodeOBJ(strings.NewReader(`
v 5 5 5
v 0 0 0
v 1 0 0
v 0 1 0
f -3 -2 -1
`))
		require.NoError(t, err)
		require.Equal(t, 3, m.NumVertices(), "unreferenced vertex dropped")
		assert.Equal(t, [][3]uint32{{0, 1, 2}}, m.Triangles)
		assert.Equal(t, ms3.Vec{}, m.Positions[0])
		require.NoError(t, m.Validate())
	})
	t.Run("degenerate face", func(t *testing.T) {
		m, err := DecodeOBJ(strings.NewReader(tetrahedronOBJ + "v 0.5 0 0\nf 1 2 5\n"))
		require.NoError(t, err)
		assert.Equal(t, 4, m.NumTriangles())
		assert.Equal(t, 4, m.NumVertices(), "vertex only used by the degenerate face is dropped")
		require.NoError(t, m.Validate())

		_, err = DecodeOBJ(strings.NewReader("v 0 0 0\nv 1 0 0\nv 2 0 0\nf 1 2 3\n"))
		assert.ErrorIs(t, err, gmesh.ErrZeroNormal)
	})
	t.Run("errors", func(t *testing.T) {
		_, err := DecodeOBJ(strings.NewReader("v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 9\n"))
		assert.ErrorIs(t, err, gmesh.ErrIndexOutOfRange)
		_, err = DecodeOBJ(strings.NewReader("v 0 0\n"))
		assert.Error(t, err)
		_, err = DecodeOBJ(strings.NewReader("v 0 0 0\n"))
		assert.Error(t, err, "no faces")
		_, err = DecodeOBJ(strings.NewReader("v 0 0 0\nv 1 0 0\nf 1 2\n"))
		assert.Error(t, err)
	})
}

func TestViewerState(t *testing.T) {
	vs, err := NewViewerState(DefaultViewerConfig(), nil)
	require.NoError(t, err)
	defer vs.Close()

	m, version := vs.Mesh()
	assert.Equal(t, gmesh.ShapeCube, vs.Shape().Kind)
	assert.Equal(t, 24, m.NumVertices())
	assert.Len(t, vs.Shapes(), 4)

	require.NoError(t, vs.SetAxis(AxisY))
	assert.Equal(t, AxisY, vs.Axis())
	for i := 0; i < 10; i++ {
		vs.Advance()
	}
	angles := vs.Angles()
	assert.InDelta(t, 0.1, angles[1], 1e-5)
	assert.Zero(t, angles[0])
	assert.Zero(t, angles[2])
	assert.Error(t, vs.SetAxis(Axis(7)))
	assert.Equal(t, AxisY, vs.Axis())

	require.NoError(t, vs.SelectIndex(3))
	m, next := vs.Mesh()
	assert.NotEqual(t, version, next)
	assert.Equal(t, gmesh.ShapeCylinder, vs.Shape().Kind)
	assert.Equal(t, 62, m.NumVertices())

	assert.Error(t, vs.SelectIndex(4))
	err = vs.Select(gmesh.Shape{Kind: gmesh.ShapeCone, Radius: -1, Segments: 30, Height: 1})
	assert.ErrorIs(t, err, gmesh.ErrInvalidParameter)
	_, after := vs.Mesh()
	assert.Equal(t, next, after, "failed selection keeps the active mesh")
	assert.Equal(t, gmesh.ShapeCylinder, vs.Shape().Kind)
}

func TestViewerStateAdvanceWraps(t *testing.T) {
	cfg := DefaultViewerConfig()
	cfg.RotationStep = 4
	vs, err := NewViewerState(cfg, nil)
	require.NoError(t, err)
	vs.Advance()
	vs.Advance()
	assert.InDelta(t, 8-2*math32.Pi, vs.Angles()[0], 1e-5)
}

func TestViewerStateAssets(t *testing.T) {
	cfg := DefaultViewerConfig()
	cfg.Shape = "tetra"
	cfg.Shading = "flat"
	cfg.Assets = []AssetConfig{{Name: "tetra", Path: "tetra.obj"}}
	_, err := NewViewerState(cfg, nil)
	assert.ErrorIs(t, err, gmesh.ErrAssetNotFound)

	tetra, err := DecodeOBJ(strings.NewReader(tetrahedronOBJ))
	require.NoError(t, err)
	vs, err := NewViewerState(cfg, map[string]*gmesh.Mesh{"tetra": tetra})
	require.NoError(t, err)
	m, _ := vs.Mesh()
	assert.Equal(t, 12, m.NumVertices(), "flat shading duplicates vertices per triangle")
	assert.Equal(t, 4, tetra.NumVertices(), "asset mesh not modified")
}

func TestViewerMatrices(t *testing.T) {
	vs, err := NewViewerState(DefaultViewerConfig(), nil)
	require.NoError(t, err)
	model, view, proj := vs.Matrices(1)
	assert.True(t, model.ApproxEqual(mgl32.Ident4()))
	assert.False(t, view.ApproxEqual(mgl32.Ident4()))
	assert.InDelta(t, -cameraDistance, view[14], 1e-6)
	assert.InDelta(t, -1, proj[11], 1e-6)

	require.NoError(t, vs.SetAxis(AxisZ))
	vs.Advance()
	model, _, _ = vs.Matrices(1)
	assert.False(t, model.ApproxEqual(mgl32.Ident4()))
	assert.True(t, model.ApproxEqual(mgl32.HomogRotate3DZ(DefaultViewerConfig().RotationStep)))
}

func TestColorConversions(t *testing.T) {
	conv := ColorConversionNormal()
	c := conv(ms3.Vec{Z: 1}).(color.RGBA)
	assert.Equal(t, uint8(255), c.B)
	assert.InDelta(t, 127, int(c.R), 1)
	assert.Equal(t, red, conv(ms3.Vec{X: math32.NaN()}))

	green := color.RGBA{G: 255, A: 255}
	lambert := ColorConversionLambert(ms3.Vec{Z: 1}, 0.2, color.Black, green)
	lit := lambert(ms3.Vec{Z: 1}).(color.RGBA)
	assert.Equal(t, uint8(255), lit.G)
	assert.Less(t, lit.R, uint8(2))
	dark := lambert(ms3.Vec{Z: -1}).(color.RGBA)
	assert.Less(t, dark.G, uint8(128))
	side := lambert(ms3.Vec{X: 1}).(color.RGBA)
	assert.Equal(t, dark, side, "surfaces perpendicular to the light get ambient only")
}

func TestRender(t *testing.T) {
	cube, err := gmesh.NewBox(1, 1, 1)
	require.NoError(t, err)
	var stl, pic bytes.Buffer
	err = Render(cube, RenderConfig{
		STLOutput: &stl,
		PNGOutput: &pic,
		PNGHeight: 64,
		Label:     "cube",
		Silent:    true,
	})
	require.NoError(t, err)
	assert.Equal(t, 84+50*12, stl.Len())

	img, err := png.Decode(&pic)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 64, 64), img.Bounds())
	r, g, b, _ := img.At(32, 32).RGBA()
	br, bg, bb, _ := previewBackground.RGBA()
	assert.False(t, r == br && g == bg && b == bb, "mesh covers the image center")

	err = Render(cube, RenderConfig{Silent: true})
	assert.Error(t, err, "no outputs")
	err = Render(&gmesh.Mesh{Positions: []ms3.Vec{{}}, Triangles: [][3]uint32{{0, 0, 3}}}, RenderConfig{STLOutput: &stl, Silent: true})
	assert.Error(t, err)
}

func TestRenderPNGFile(t *testing.T) {
	disk, err := gmesh.NewDisk(1, 32)
	require.NoError(t, err)
	filename := filepath.Join(t.TempDir(), "disk.png")
	err = RenderPNGFile(filename, disk, 48, nil, "disk")
	require.NoError(t, err)
	fp, err := os.Open(filename)
	require.NoError(t, err)
	defer fp.Close()
	cfg, err := png.DecodeConfig(fp)
	require.NoError(t, err)
	assert.Equal(t, 48, cfg.Width)
	assert.Equal(t, 48, cfg.Height)

	err = RenderPNGFile(filename, disk, 0, nil, "")
	assert.Error(t, err)
}

func TestDrawLabel(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 64, 32))
	require.NoError(t, drawLabel(img, "gmesh", 12))
	var lit int
	for y := 0; y < 32; y++ {
		for x := 0; x < 64; x++ {
			if img.RGBAAt(x, y).R > 0 {
				lit++
			}
		}
	}
	assert.Positive(t, lit)
}

func TestAssetLoadErrorUnwrap(t *testing.T) {
	inner := errors.New("boom")
	err := error(&AssetLoadError{Name: "a", Path: "a.obj", Err: inner})
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, `loading asset "a" from a.obj: boom`, err.Error())
}
