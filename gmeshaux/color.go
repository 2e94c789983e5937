package gmeshaux

import (
	"image/color"

	math "github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/glgl/math/ms1"
)

// HSV interpolation logic in this file taken from Esme Lamb's (@dedelala)
// excellent color manipulation work presented at Gophercon AU 2024.
// https://github.com/dedelala/disco/tree/main/color

var red = color.RGBA{R: 255, A: 255}

// ColorConversionNormal maps unit normals to colors: each normal component in [-1,1]
// is mapped linearly to the red, green and blue channel. Returns red for NaN normals.
func ColorConversionNormal() func(n ms3.Vec) color.Color {
	return func(n ms3.Vec) color.Color {
		if math.IsNaN(n.X) || math.IsNaN(n.Y) || math.IsNaN(n.Z) {
			return red
		}
		return rgba(0.5*n.X+0.5, 0.5*n.Y+0.5, 0.5*n.Z+0.5)
	}
}

// ColorConversionLambert creates a diffuse lighting color conversion for a directional light
// shining from light towards the origin. Surfaces facing away from the light get the shadow
// color, surfaces facing the light head-on get the lit color and intermediate orientations
// are blended in HSV space. ambient in [0,1] is the minimum blend factor.
func ColorConversionLambert(light ms3.Vec, ambient float32, shadow, lit color.Color) func(n ms3.Vec) color.Color {
	light = ms3.Unit(light)
	ambient = ms1.Clamp(ambient, 0, 1)
	h0, s0, v0 := colorToHSV(shadow)
	h1, s1, v1 := colorToHSV(lit)
	return func(n ms3.Vec) color.Color {
		if math.IsNaN(n.X) || math.IsNaN(n.Y) || math.IsNaN(n.Z) {
			return red
		}
		diffuse := ms1.Clamp(ms3.Dot(n, light), 0, 1)
		blend := ambient + (1-ambient)*diffuse
		return rgba(hsvToRGB(interpHSV(h0, s0, v0, h1, s1, v1, blend)))
	}
}

// interpHSV interpolates between two HSV colors taking the short way around the hue circle.
func interpHSV(h0, s0, v0, h1, s1, v1, t float32) (h, s, v float32) {
	switch {
	case h1-h0 > 0.5:
		h0 += 1
	case h1-h0 < -0.5:
		h1 += 1
	}
	h = ms1.Interp(h0, h1, t)
	if h >= 1 {
		h -= 1
	}
	return h, ms1.Interp(s0, s1, t), ms1.Interp(v0, v1, t)
}

func colorToHSV(c color.Color) (h, s, v float32) {
	rgba := color.RGBAModel.Convert(c).(color.RGBA)
	return rgbToHSV(float32(rgba.R)/math.MaxUint8, float32(rgba.G)/math.MaxUint8, float32(rgba.B)/math.MaxUint8)
}

// rgba converts channels in [0,1] to an opaque color. Out of range values are clamped.
func rgba(r, g, b float32) color.RGBA {
	return color.RGBA{
		R: uint8(ms1.Clamp(r, 0, 1) * math.MaxUint8),
		G: uint8(ms1.Clamp(g, 0, 1) * math.MaxUint8),
		B: uint8(ms1.Clamp(b, 0, 1) * math.MaxUint8),
		A: math.MaxUint8,
	}
}

// hsvToRGB converts hue, saturation and value in [0,1] to RGB channels in [0,1].
func hsvToRGB(h, s, v float32) (r, g, b float32) {
	c := s * v
	hp := h * 6
	x := c * (1 - math.Abs(math.Mod(hp, 2)-1))
	m := v - c
	sector := int(hp)
	switch sector {
	case 0, 6:
		r, g, b = c, x, 0
	case 1:
		r, g, b = x, c, 0
	case 2:
		r, g, b = 0, c, x
	case 3:
		r, g, b = 0, x, c
	case 4:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	return r + m, g + m, b + m
}

// rgbToHSV converts RGB channels in [0,1] to hue, saturation and value in [0,1].
func rgbToHSV(r, g, b float32) (h, s, v float32) {
	v = max(r, g, b)
	chroma := v - min(r, g, b)
	if v > 0 {
		s = chroma / v
	}
	if chroma == 0 {
		return 0, s, v
	}
	switch v {
	case r:
		h = (g - b) / chroma
	case g:
		h = 2 + (b-r)/chroma
	default:
		h = 4 + (r-g)/chroma
	}
	h /= 6
	if h < 0 {
		h += 1
	}
	return h, s, v
}
