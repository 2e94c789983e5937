package gmeshaux

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/gmesh"
	"gopkg.in/yaml.v3"
)

// ViewerConfig holds the viewer's startup parameters. It is usually read from a
// TOML or YAML file with [LoadViewerConfig]; missing keys keep their default value.
type ViewerConfig struct {
	Width  int `toml:"width" yaml:"width"`
	Height int `toml:"height" yaml:"height"`
	// Shape is the name of the shape selected at startup: a primitive kind or an asset name.
	Shape string `toml:"shape" yaml:"shape"`
	// Radius, Segments and Length parametrize the cone, disk and cylinder.
	Radius   float32 `toml:"radius" yaml:"radius"`
	Segments int     `toml:"segments" yaml:"segments"`
	Length   float32 `toml:"length" yaml:"length"`
	CubeSize float32 `toml:"cube_size" yaml:"cube_size"`
	// Shading is "smooth" or "flat".
	Shading string `toml:"shading" yaml:"shading"`
	// RotationStep is the angle in radians the shape rotates each frame.
	RotationStep float32 `toml:"rotation_step" yaml:"rotation_step"`
	// Assets lists meshes loaded from files before the first frame, in selection order.
	Assets []AssetConfig `toml:"assets" yaml:"assets"`
}

// AssetConfig names a mesh file. Relative paths are resolved against the config file's directory.
type AssetConfig struct {
	Name string `toml:"name" yaml:"name"`
	Path string `toml:"path" yaml:"path"`
}

// DefaultViewerConfig returns the configuration used when no file is given.
func DefaultViewerConfig() ViewerConfig {
	return ViewerConfig{
		Width:        800,
		Height:       800,
		Shape:        gmesh.ShapeCube.String(),
		Radius:       0.5,
		Segments:     30,
		Length:       1,
		CubeSize:     1,
		Shading:      gmesh.ShadingSmooth.String(),
		RotationStep: 0.01,
	}
}

// LoadViewerConfig reads a config file. The format is chosen by file extension:
// .toml or .yaml/.yml. The returned config has been validated.
func LoadViewerConfig(filename string) (ViewerConfig, error) {
	cfg := DefaultViewerConfig()
	data, err := os.ReadFile(filename)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&cfg)
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(&cfg)
	default:
		return cfg, fmt.Errorf("unsupported config extension %q", ext)
	}
	if err != nil {
		return cfg, fmt.Errorf("decoding %s: %w", filename, err)
	}
	dir := filepath.Dir(filename)
	for i := range cfg.Assets {
		if p := cfg.Assets[i].Path; p != "" && !filepath.IsAbs(p) {
			cfg.Assets[i].Path = filepath.Join(dir, p)
		}
	}
	return cfg, cfg.Validate()
}

// Validate checks the configuration for values that would fail shape generation.
func (cfg ViewerConfig) Validate() error {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return fmt.Errorf("%w: window size %dx%d", gmesh.ErrInvalidParameter, cfg.Width, cfg.Height)
	}
	if _, err := gmesh.ParseShading(cfg.Shading); err != nil {
		return err
	}
	shapes, err := cfg.Shapes()
	if err != nil {
		return err
	}
	var bld gmesh.Builder
	bld.SetFlags(gmesh.FlagNoDimensionPanic)
	for _, s := range shapes {
		if s.Kind != gmesh.ShapeImported {
			bld.Generate(s, nil)
		}
	}
	if err := bld.Err(); err != nil {
		return err
	}
	_, err = cfg.InitialShape()
	return err
}

// Shapes returns the selectable shapes in order: cube, cone, disk, cylinder followed by the assets.
func (cfg ViewerConfig) Shapes() ([]gmesh.Shape, error) {
	shapes := []gmesh.Shape{
		{Kind: gmesh.ShapeCube, Size: ms3.Vec{X: cfg.CubeSize, Y: cfg.CubeSize, Z: cfg.CubeSize}},
		{Kind: gmesh.ShapeCone, Radius: cfg.Radius, Segments: cfg.Segments, Height: cfg.Length},
		{Kind: gmesh.ShapeDisk, Radius: cfg.Radius, Segments: cfg.Segments},
		{Kind: gmesh.ShapeCylinder, Radius: cfg.Radius, Segments: cfg.Segments, Height: cfg.Length},
	}
	seen := make(map[string]bool)
	for _, asset := range cfg.Assets {
		if asset.Name == "" || asset.Path == "" {
			return nil, fmt.Errorf("asset %q requires name and path", asset.Name)
		}
		if _, err := gmesh.ParseShapeKind(asset.Name); err == nil || seen[asset.Name] {
			return nil, fmt.Errorf("duplicate or reserved asset name %q", asset.Name)
		}
		seen[asset.Name] = true
		shapes = append(shapes, gmesh.Imported(asset.Name))
	}
	return shapes, nil
}

// InitialShape returns the shape named by cfg.Shape.
func (cfg ViewerConfig) InitialShape() (gmesh.Shape, error) {
	shapes, err := cfg.Shapes()
	if err != nil {
		return gmesh.Shape{}, err
	}
	for _, s := range shapes {
		if s.Kind == gmesh.ShapeImported && s.Name == cfg.Shape {
			return s, nil
		}
	}
	kind, err := gmesh.ParseShapeKind(cfg.Shape)
	if err != nil || kind == gmesh.ShapeImported {
		return gmesh.Shape{}, fmt.Errorf("%w: initial shape %q", gmesh.ErrUnknownShape, cfg.Shape)
	}
	return shapes[kind], nil
}

// AssetPaths returns the asset name to path table for [LoadAssets].
func (cfg ViewerConfig) AssetPaths() map[string]string {
	paths := make(map[string]string, len(cfg.Assets))
	for _, a := range cfg.Assets {
		paths[a.Name] = a.Path
	}
	return paths
}
