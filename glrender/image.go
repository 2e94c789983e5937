package glrender

import (
	"errors"
	"image"
	"image/color"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/gmesh"
)

type setImage = interface {
	image.Image
	Set(x, y int, c color.Color)
}

// ImageRenderer rasterizes meshes to images with an orthographic camera looking down the -Z axis
// after rotating the mesh by the view yaw and pitch. Back facing triangles are culled and hidden
// surfaces removed with a depth buffer. Vertex normals are interpolated across each triangle
// and converted to a pixel color by the conversion function.
type ImageRenderer struct {
	conv func(normal ms3.Vec) color.Color
	// Background is the color of pixels not covered by the mesh. If nil pixels are left untouched.
	Background color.Color
	yaw, pitch float32
	// Margin is the fraction of the image left empty around the mesh's projected bounds.
	Margin float32
	zbuf   []float32
	proj   []ms3.Vec
	norms  []ms3.Vec
}

// NewImageRenderer instances a new [ImageRenderer]. A nil normal->color conversion
// shades the surface gray using the normal's Z component, which faces the camera.
func NewImageRenderer(conversion func(normal ms3.Vec) color.Color) *ImageRenderer {
	if conversion == nil {
		conversion = func(n ms3.Vec) color.Color {
			l := uint8(40 + 215*math32.Max(0, n.Z))
			return color.Gray{Y: l}
		}
	}
	return &ImageRenderer{
		conv:       conversion,
		Background: color.Black,
		Margin:     0.1,
	}
}

// SetView sets the rotation applied to meshes before projection: first yaw radians around Y,
// then pitch radians around X. A positive pitch tilts the top of the mesh towards the camera.
func (ir *ImageRenderer) SetView(yaw, pitch float32) {
	ir.yaw, ir.pitch = yaw, pitch
}

func (ir *ImageRenderer) rotate(v ms3.Vec) ms3.Vec {
	sy, cy := math32.Sin(ir.yaw), math32.Cos(ir.yaw)
	sp, cp := math32.Sin(ir.pitch), math32.Cos(ir.pitch)
	x := cy*v.X + sy*v.Z
	z := -sy*v.X + cy*v.Z
	return ms3.Vec{X: x, Y: cp*v.Y - sp*z, Z: sp*v.Y + cp*z}
}

// Render rasterizes m into img. The mesh is scaled to fit the image bounds.
func (ir *ImageRenderer) Render(m *gmesh.Mesh, img setImage) error {
	if m == nil {
		return errNilMesh
	}
	if err := m.Validate(); err != nil {
		return err
	}
	imgBB := img.Bounds()
	w, h := imgBB.Dx(), imgBB.Dy()
	if w <= 0 || h <= 0 {
		return errors.New("empty image")
	}
	if cap(ir.zbuf) < w*h {
		ir.zbuf = make([]float32, w*h)
	}
	zbuf := ir.zbuf[:w*h]
	for i := range zbuf {
		zbuf[i] = math32.Inf(-1)
	}
	if ir.Background != nil {
		for j := 0; j < h; j++ {
			for i := 0; i < w; i++ {
				img.Set(imgBB.Min.X+i, imgBB.Min.Y+j, ir.Background)
			}
		}
	}
	if m.NumTriangles() == 0 {
		return nil
	}

	ir.proj = ir.proj[:0]
	ir.norms = ir.norms[:0]
	for i, p := range m.Positions {
		ir.proj = append(ir.proj, ir.rotate(p))
		ir.norms = append(ir.norms, ir.rotate(m.Normals[i]))
	}
	bb := ms3.Box{Min: ir.proj[0], Max: ir.proj[0]}
	for _, p := range ir.proj[1:] {
		bb.Min = ms3.MinElem(bb.Min, p)
		bb.Max = ms3.MaxElem(bb.Max, p)
	}
	sz := bb.Size()
	center := bb.Center()
	fill := 1 - 2*ir.Margin
	scale := math32.Min(fill*float32(w)/math32.Max(sz.X, epsSize), fill*float32(h)/math32.Max(sz.Y, epsSize))
	for i, p := range ir.proj {
		// Raster space with Y up, pixel units.
		ir.proj[i] = ms3.Vec{
			X: (p.X-center.X)*scale + float32(w)/2,
			Y: (p.Y-center.Y)*scale + float32(h)/2,
			Z: p.Z,
		}
	}
	for _, tri := range m.Triangles {
		ir.rasterize(tri, w, h, zbuf, img, imgBB.Min)
	}
	return nil
}

const epsSize = 1e-6

func edge(a, b, p ms3.Vec) float32 {
	return (b.X-a.X)*(p.Y-a.Y) - (b.Y-a.Y)*(p.X-a.X)
}

func (ir *ImageRenderer) rasterize(tri [3]uint32, w, h int, zbuf []float32, img setImage, off image.Point) {
	a, b, c := ir.proj[tri[0]], ir.proj[tri[1]], ir.proj[tri[2]]
	area := edge(a, b, c)
	if area <= 0 {
		return // Back facing or edge-on.
	}
	minX := max(0, int(math32.Floor(math32.Min(a.X, math32.Min(b.X, c.X)))))
	maxX := min(w-1, int(math32.Ceil(math32.Max(a.X, math32.Max(b.X, c.X)))))
	minY := max(0, int(math32.Floor(math32.Min(a.Y, math32.Min(b.Y, c.Y)))))
	maxY := min(h-1, int(math32.Ceil(math32.Max(a.Y, math32.Max(b.Y, c.Y)))))
	na, nb, nc := ir.norms[tri[0]], ir.norms[tri[1]], ir.norms[tri[2]]
	inv := 1 / area
	for ry := minY; ry <= maxY; ry++ {
		for i := minX; i <= maxX; i++ {
			p := ms3.Vec{X: float32(i) + 0.5, Y: float32(ry) + 0.5}
			w0 := edge(b, c, p)
			w1 := edge(c, a, p)
			w2 := edge(a, b, p)
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}
			w0, w1, w2 = w0*inv, w1*inv, w2*inv
			z := w0*a.Z + w1*b.Z + w2*c.Z
			row := h - 1 - ry // Image rows grow downwards.
			zi := row*w + i
			if z <= zbuf[zi] {
				continue
			}
			zbuf[zi] = z
			n := ms3.Add(ms3.Scale(w0, na), ms3.Add(ms3.Scale(w1, nb), ms3.Scale(w2, nc)))
			if l := ms3.Norm(n); l > 0 {
				n = ms3.Scale(1/l, n)
			}
			img.Set(off.X+i, off.Y+row, ir.conv(n))
		}
	}
}
