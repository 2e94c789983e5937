package gmeshaux

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/golang/freetype/truetype"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/gmesh"
	"github.com/soypat/gmesh/glrender"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
)

// RenderConfig selects the outputs written by [Render].
type RenderConfig struct {
	STLOutput io.Writer
	// PNGOutput receives a shaded preview of the mesh of PNGHeight pixels square.
	PNGOutput io.Writer
	PNGHeight int
	// Label is drawn on the top left corner of the preview if not empty.
	Label string
	// ColorConversion converts normals to preview pixel colors. Nil uses a Lambert conversion.
	ColorConversion func(normal ms3.Vec) color.Color
	// Logger receives progress messages. Nil uses [slog.Default].
	Logger *slog.Logger
	Silent bool
}

// Render is an auxiliary function to write a mesh to the outputs in cfg.
// Ideally users should implement their own rendering functions since applications may vary widely.
func Render(m *gmesh.Mesh, cfg RenderConfig) (err error) {
	if cfg.STLOutput == nil && cfg.PNGOutput == nil {
		return errors.New("Render requires output parameter in config")
	}
	if m == nil {
		return errors.New("nil mesh")
	}
	logger := cfg.Logger
	if cfg.Silent {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	} else if logger == nil {
		logger = slog.Default()
	}
	if err = m.Validate(); err != nil {
		return fmt.Errorf("invalid mesh: %w", err)
	}
	bb := m.Bounds()
	logger.Info("rendering mesh", "vertices", m.NumVertices(), "triangles", m.NumTriangles(), "size", bb.Size())

	if cfg.STLOutput != nil {
		watch := stopwatch()
		renderer, err := glrender.NewMeshRenderer(m)
		if err != nil {
			return err
		}
		triangles, err := glrender.RenderAll(renderer, nil)
		if err != nil {
			return fmt.Errorf("rendering triangles: %w", err)
		}
		n, err := glrender.WriteBinarySTL(cfg.STLOutput, triangles)
		if err != nil {
			return fmt.Errorf("writing STL file: %w", err)
		}
		logger.Info("wrote STL", "file", outputName(cfg.STLOutput, "STL"), "bytes", n, "elapsed", watch())
	}

	if cfg.PNGOutput != nil {
		watch := stopwatch()
		height := cfg.PNGHeight
		if height <= 0 {
			height = 512
		}
		img, err := renderPreview(m, height, cfg.ColorConversion, cfg.Label)
		if err != nil {
			return err
		}
		err = png.Encode(cfg.PNGOutput, img)
		if err != nil {
			return fmt.Errorf("encoding PNG: %w", err)
		}
		logger.Info("wrote preview", "file", outputName(cfg.PNGOutput, "PNG"), "elapsed", watch())
	}
	return nil
}

func outputName(w io.Writer, fallback string) string {
	if fp, ok := w.(*os.File); ok {
		return fp.Name()
	}
	return fallback
}

func stopwatch() func() time.Duration {
	start := time.Now()
	return func() time.Duration {
		return time.Since(start)
	}
}

// RenderPNGFile renders a shaded preview of the mesh to a square PNG file of picHeight pixels.
// If a nil color conversion function is passed then one is automatically chosen.
func RenderPNGFile(filename string, m *gmesh.Mesh, picHeight int, colorConversion func(ms3.Vec) color.Color, label string) error {
	img, err := renderPreview(m, picHeight, colorConversion, label)
	if err != nil {
		return err
	}
	fp, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer fp.Close()
	err = png.Encode(fp, img)
	if err != nil {
		return err
	}
	return fp.Sync()
}

var (
	previewBackground = color.RGBA{R: 128, G: 128, B: 128, A: 255}
	previewLight      = ms3.Vec{X: 1, Y: 1, Z: 1}
)

func renderPreview(m *gmesh.Mesh, picHeight int, conv func(ms3.Vec) color.Color, label string) (*image.RGBA, error) {
	if picHeight <= 0 {
		return nil, errors.New("invalid image height")
	}
	if conv == nil {
		conv = ColorConversionLambert(previewLight, 0.2, color.Black, color.RGBA{G: 255, A: 255})
	}
	img := image.NewRGBA(image.Rect(0, 0, picHeight, picHeight))
	renderer := glrender.NewImageRenderer(conv)
	renderer.Background = previewBackground
	renderer.SetView(0.6, 0.45)
	err := renderer.Render(m, img)
	if err != nil {
		return nil, err
	}
	if label != "" {
		err = drawLabel(img, label, float64(picHeight)/24)
		if err != nil {
			return nil, err
		}
	}
	return img, nil
}

// drawLabel draws text on the top left corner of img using the Go regular font.
func drawLabel(img draw.Image, label string, size float64) error {
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return err
	}
	face := truetype.NewFace(f, &truetype.Options{Size: max(size, 8), DPI: 72, Hinting: font.HintingFull})
	defer face.Close()
	ascent := face.Metrics().Ascent
	d := font.Drawer{
		Dst:  img,
		Src:  image.White,
		Face: face,
		Dot:  fixed.Point26_6{X: ascent / 2, Y: ascent + ascent/2},
	}
	d.DrawString(label)
	return nil
}

// UIConfig configures the interactive viewer started by [UI].
type UIConfig struct {
	Viewer ViewerConfig
	// Context cancels asset loading and closes the viewer window when done. May be nil.
	Context context.Context
	// Logger receives viewer events. Nil uses [slog.Default].
	Logger *slog.Logger
}

// UI loads the configured assets and opens an interactive window displaying the selected shape.
// The first frame is drawn only after every asset has loaded; any load failure is returned
// as an [*AssetLoadError] before a window is created.
//
// Keys X, Y and Z select the rotation axis, keys 1 through 9 select a shape in
// [ViewerConfig.Shapes] order and Escape closes the window. UI requires cgo and must be
// called from the main OS thread.
func UI(cfg UIConfig) error {
	ctx := cfg.Context
	if ctx == nil {
		ctx = context.Background()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	watch := stopwatch()
	assets, err := LoadAssets(ctx, cfg.Viewer.AssetPaths())
	if err != nil {
		return err
	}
	logger.Info("loaded assets", "count", len(assets), "elapsed", watch())
	state, err := NewViewerState(cfg.Viewer, assets)
	if err != nil {
		return err
	}
	defer state.Close()
	cfg.Context = ctx
	cfg.Logger = logger
	return ui(state, cfg)
}
