package gmeshaux

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/soypat/gmesh"
)

// Axis is a rotation axis of the viewer.
type Axis uint8

// Rotation axes, in the order the model matrix applies them.
const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "X"
	case AxisY:
		return "Y"
	case AxisZ:
		return "Z"
	}
	return fmt.Sprintf("Axis(%d)", uint8(a))
}

// Camera and projection parameters of the viewer.
const (
	cameraDistance = 2.5
	fovyDegrees    = 60
	nearPlane      = 0.5
	farPlane       = 100
)

// ViewerState is the mutable state of a running viewer: the selected shape and its mesh,
// and the animated rotation. It is created at startup with [NewViewerState], advanced once
// per frame and released with Close. A ViewerState is not safe for concurrent use.
type ViewerState struct {
	bld    gmesh.Builder
	assets map[string]*gmesh.Mesh
	shapes []gmesh.Shape

	shape gmesh.Shape
	mesh  *gmesh.Mesh
	// selected is incremented every time the mesh changes so renderers know to re-upload buffers.
	selected uint64

	axis  Axis
	angle [3]float32
	step  float32
}

// NewViewerState validates the selectable shapes against the loaded assets and selects the initial shape.
func NewViewerState(cfg ViewerConfig, assets map[string]*gmesh.Mesh) (*ViewerState, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	shading, err := gmesh.ParseShading(cfg.Shading)
	if err != nil {
		return nil, err
	}
	shapes, err := cfg.Shapes()
	if err != nil {
		return nil, err
	}
	for _, s := range shapes {
		if s.Kind == gmesh.ShapeImported && assets[s.Name] == nil {
			return nil, fmt.Errorf("%w: %q", gmesh.ErrAssetNotFound, s.Name)
		}
	}
	vs := &ViewerState{
		assets: assets,
		shapes: shapes,
		step:   cfg.RotationStep,
	}
	vs.bld.Shading = shading
	vs.bld.SetFlags(gmesh.FlagNoDimensionPanic)
	initial, err := cfg.InitialShape()
	if err != nil {
		return nil, err
	}
	err = vs.Select(initial)
	if err != nil {
		return nil, err
	}
	return vs, nil
}

// Shapes returns the selectable shapes in selection order.
func (vs *ViewerState) Shapes() []gmesh.Shape { return vs.shapes }

// Shape returns the selected shape.
func (vs *ViewerState) Shape() gmesh.Shape { return vs.shape }

// Mesh returns the mesh of the selected shape and a counter that changes whenever the mesh changes.
func (vs *ViewerState) Mesh() (*gmesh.Mesh, uint64) { return vs.mesh, vs.selected }

// Select generates the mesh of s and makes it the active shape. On error the active shape is kept.
func (vs *ViewerState) Select(s gmesh.Shape) error {
	m := vs.bld.Generate(s, vs.assets)
	if err := vs.bld.Err(); err != nil {
		vs.bld.ClearErrors()
		return err
	}
	vs.shape = s
	vs.mesh = m
	vs.selected++
	return nil
}

// SelectIndex selects the i'th shape of [ViewerState.Shapes].
func (vs *ViewerState) SelectIndex(i int) error {
	if i < 0 || i >= len(vs.shapes) {
		return fmt.Errorf("shape index %d out of range [0,%d)", i, len(vs.shapes))
	}
	return vs.Select(vs.shapes[i])
}

// SetAxis sets the axis the shape rotates around.
func (vs *ViewerState) SetAxis(a Axis) error {
	if a > AxisZ {
		return errors.New("invalid rotation axis " + a.String())
	}
	vs.axis = a
	return nil
}

// Axis returns the current rotation axis.
func (vs *ViewerState) Axis() Axis { return vs.axis }

// Angles returns the accumulated rotation around the X, Y and Z axes in radians, each in [0,2π].
func (vs *ViewerState) Angles() [3]float32 { return vs.angle }

// Advance steps the rotation around the current axis by one frame.
func (vs *ViewerState) Advance() {
	a := &vs.angle[vs.axis]
	*a += vs.step
	if *a > 2*math32.Pi {
		*a -= 2 * math32.Pi
	}
}

// Matrices returns the model, view and projection matrices for the current frame
// given the viewport's width/height aspect ratio. The model rotates around X, then Y, then Z;
// the camera sits on +Z looking at the origin.
func (vs *ViewerState) Matrices(aspect float32) (model, view, proj mgl32.Mat4) {
	model = mgl32.HomogRotate3DX(vs.angle[0]).
		Mul4(mgl32.HomogRotate3DY(vs.angle[1])).
		Mul4(mgl32.HomogRotate3DZ(vs.angle[2]))
	view = mgl32.LookAtV(mgl32.Vec3{0, 0, cameraDistance}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	proj = mgl32.Perspective(mgl32.DegToRad(fovyDegrees), aspect, nearPlane, farPlane)
	return model, view, proj
}

// Close releases the meshes held by the state.
func (vs *ViewerState) Close() {
	vs.mesh = nil
	vs.assets = nil
}
