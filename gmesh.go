package gmesh

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
)

var (
	// ErrInvalidParameter is returned when a shape parameter would produce a degenerate
	// or self intersecting mesh, i.e: non-positive radius/height/size or less than 3 segments.
	ErrInvalidParameter = errors.New("invalid shape parameter")
	// ErrIndexOutOfRange signals a triangle references a vertex that does not exist.
	ErrIndexOutOfRange = errors.New("triangle index out of range")
	// ErrMismatchedNormals signals the normal buffer length differs from the position buffer length.
	ErrMismatchedNormals = errors.New("normal and position buffer length mismatch")
	// ErrZeroNormal signals a vertex normal is zero length or not finite.
	ErrZeroNormal = errors.New("zero or non-finite vertex normal")
	// ErrUnknownShape is returned by Generate for a ShapeKind outside the enumeration.
	ErrUnknownShape = errors.New("unknown shape kind")
	// ErrAssetNotFound is returned by Generate when an imported mesh name is not in the asset table.
	ErrAssetNotFound = errors.New("imported mesh not found")
)

const (
	// MinSegments is the minimum angular resolution of a ring.
	MinSegments = 3
	// epstol is used to check for badly conditioned normals.
	epstol = 6e-7
)

// Flags modify Builder behaviour.
type Flags uint64

const (
	// FlagNoDimensionPanic makes the Builder accumulate parameter errors instead of panicking.
	// Accumulated errors are retrieved with [Builder.Err].
	FlagNoDimensionPanic Flags = 1 << iota
)

// Builder wraps all mesh generation logic.
// Provides error handling strategies with panics or error accumulation during mesh generation.
// The zero value is ready for use and panics on invalid shape parameters.
type Builder struct {
	// Shading selects how vertex normals are assigned to generated meshes.
	Shading   Shading
	flags     Flags
	accumErrs []error
}

// SetFlags sets the Builder's flags.
func (bld *Builder) SetFlags(flags Flags) { bld.flags = flags }

// Flags returns the Builder's flags.
func (bld *Builder) Flags() Flags { return bld.flags }

// Err returns all accumulated errors joined, or nil if there were none.
func (bld *Builder) Err() error {
	if len(bld.accumErrs) == 0 {
		return nil
	}
	return errors.Join(bld.accumErrs...)
}

// ClearErrors discards accumulated errors.
func (bld *Builder) ClearErrors() {
	bld.accumErrs = bld.accumErrs[:0]
}

func (bld *Builder) shapeErrorf(msg string, args ...any) {
	err := fmt.Errorf("%w: "+msg, append([]any{ErrInvalidParameter}, args...)...)
	if bld.flags&FlagNoDimensionPanic == 0 {
		panic(err.Error())
	}
	bld.accumErrs = append(bld.accumErrs, err)
}

func (bld *Builder) errorf(err error) {
	if bld.flags&FlagNoDimensionPanic == 0 {
		panic(err.Error())
	}
	bld.accumErrs = append(bld.accumErrs, err)
}

// finish applies the shading policy and asserts mesh invariants. An index out of range is a bug
// in the generator so it always panics. Normal failures follow the Builder's error policy.
func (bld *Builder) finish(m *Mesh) *Mesh {
	if err := m.validateIndices(); err != nil {
		panic("gmesh: generated invalid mesh: " + err.Error())
	}
	err := ComputeNormals(m)
	if err == nil {
		err = m.Validate()
	}
	if err != nil {
		bld.errorf(fmt.Errorf("computing normals: %w", err))
		return nil
	}
	if bld.Shading == ShadingFlat {
		m = Flatten(m)
	}
	return m
}

// okLength reports whether v is usable as a length, radius or height.
// v*v must be representable so edge lengths and areas stay finite and non-zero.
func okLength(v float32) bool {
	sq := v * v
	return v > 0 && sq > 0 && !math32.IsInf(sq, 1) && !math32.IsNaN(v)
}

// NewCone returns the indexed triangle mesh of a cone with its base centered at the origin
// on the XZ plane and its apex at (0,height,0). See [Builder.NewCone].
func NewCone(radius float32, segments int, height float32) (*Mesh, error) {
	bld := Builder{flags: FlagNoDimensionPanic}
	m := bld.NewCone(radius, segments, height)
	return m, bld.Err()
}

// NewCylinder returns the indexed triangle mesh of a closed cylinder with its bottom cap
// centered at the origin on the XZ plane. See [Builder.NewCylinder].
func NewCylinder(radius float32, segments int, height float32) (*Mesh, error) {
	bld := Builder{flags: FlagNoDimensionPanic}
	m := bld.NewCylinder(radius, segments, height)
	return m, bld.Err()
}

// NewDisk returns the mesh of a one-sided disk on the XZ plane facing +Y. See [Builder.NewDisk].
func NewDisk(radius float32, segments int) (*Mesh, error) {
	bld := Builder{flags: FlagNoDimensionPanic}
	m := bld.NewDisk(radius, segments)
	return m, bld.Err()
}

// NewBox returns the mesh of a cuboid centered at the origin. See [Builder.NewBox].
func NewBox(x, y, z float32) (*Mesh, error) {
	bld := Builder{flags: FlagNoDimensionPanic}
	m := bld.NewBox(x, y, z)
	return m, bld.Err()
}
