package gmesh

import (
	"fmt"
	"strings"

	"github.com/soypat/geometry/ms3"
)

// ShapeKind enumerates the shapes a viewer can select.
type ShapeKind uint8

const (
	// ShapeCube is an axis aligned cuboid, see [Builder.NewBox].
	ShapeCube ShapeKind = iota
	// ShapeCone is a closed cone, see [Builder.NewCone].
	ShapeCone
	// ShapeDisk is a one-sided disk, see [Builder.NewDisk].
	ShapeDisk
	// ShapeCylinder is a closed cylinder, see [Builder.NewCylinder].
	ShapeCylinder
	// ShapeImported is a mesh loaded from a file and referenced by name.
	ShapeImported
	numShapeKinds
)

var shapeKindNames = [numShapeKinds]string{
	ShapeCube:     "cube",
	ShapeCone:     "cone",
	ShapeDisk:     "disk",
	ShapeCylinder: "cylinder",
	ShapeImported: "imported",
}

func (k ShapeKind) String() string {
	if k < numShapeKinds {
		return shapeKindNames[k]
	}
	return fmt.Sprintf("ShapeKind(%d)", uint8(k))
}

// ParseShapeKind parses a shape kind by name. Case is ignored.
func ParseShapeKind(s string) (ShapeKind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, name := range shapeKindNames {
		if s == name {
			return ShapeKind(k), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownShape, s)
}

// Shape selects a primitive and its parameters. Only the fields relevant to Kind are used:
// Radius and Segments for cone, disk and cylinder; Height for cone and cylinder;
// Size for cube; Name for imported meshes.
type Shape struct {
	Kind     ShapeKind
	Radius   float32
	Segments int
	Height   float32
	Size     ms3.Vec
	Name     string
}

// DefaultShape returns the shape of given kind with default parameters: a unit cube,
// radius 0.5 with 30 segments and unit height for round primitives.
func DefaultShape(kind ShapeKind) Shape {
	s := Shape{Kind: kind}
	switch kind {
	case ShapeCube:
		s.Size = ms3.Vec{X: 1, Y: 1, Z: 1}
	case ShapeCone, ShapeCylinder:
		s.Radius, s.Segments, s.Height = 0.5, 30, 1
	case ShapeDisk:
		s.Radius, s.Segments = 0.5, 30
	}
	return s
}

// Imported returns a Shape referencing the imported mesh of given name.
func Imported(name string) Shape {
	return Shape{Kind: ShapeImported, Name: name}
}

func (s Shape) String() string {
	switch s.Kind {
	case ShapeCube:
		return fmt.Sprintf("cube(%g,%g,%g)", s.Size.X, s.Size.Y, s.Size.Z)
	case ShapeCone, ShapeCylinder:
		return fmt.Sprintf("%s(r=%g,n=%d,h=%g)", s.Kind, s.Radius, s.Segments, s.Height)
	case ShapeDisk:
		return fmt.Sprintf("disk(r=%g,n=%d)", s.Radius, s.Segments)
	case ShapeImported:
		return "imported(" + s.Name + ")"
	}
	return s.Kind.String()
}

// Generate returns the mesh for s. Imported shapes are looked up by name in assets and
// a copy is returned so the caller may modify it freely.
func (bld *Builder) Generate(s Shape, assets map[string]*Mesh) *Mesh {
	switch s.Kind {
	case ShapeCube:
		return bld.NewBox(s.Size.X, s.Size.Y, s.Size.Z)
	case ShapeCone:
		return bld.NewCone(s.Radius, s.Segments, s.Height)
	case ShapeDisk:
		return bld.NewDisk(s.Radius, s.Segments)
	case ShapeCylinder:
		return bld.NewCylinder(s.Radius, s.Segments, s.Height)
	case ShapeImported:
		m, ok := assets[s.Name]
		if !ok || m == nil {
			bld.errorf(fmt.Errorf("%w: %q", ErrAssetNotFound, s.Name))
			return nil
		}
		if bld.Shading == ShadingFlat {
			return Flatten(m)
		}
		return m.Clone()
	}
	bld.errorf(fmt.Errorf("%w: %v", ErrUnknownShape, s.Kind))
	return nil
}

// Generate returns the mesh for s using smooth shading. See [Builder.Generate].
func Generate(s Shape, assets map[string]*Mesh) (*Mesh, error) {
	bld := Builder{flags: FlagNoDimensionPanic}
	m := bld.Generate(s, assets)
	return m, bld.Err()
}
