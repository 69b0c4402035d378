// Package colorx converts between RGB and HSV for LED brightness scaling.
package colorx

import (
	"math"

	"dusterilizer-go/x/mathx"
)

// RGB is an 8-bit-per-channel colour.
type RGB struct{ R, G, B uint8 }

// HSV holds hue in degrees [0, 360) and saturation/value in [0, 1].
type HSV struct{ H, S, V float64 }

// Palette.
var (
	Off    = RGB{0, 0, 0}
	Green  = RGB{0, 204, 0}
	Yellow = RGB{255, 255, 51}
	Red    = RGB{255, 0, 0}
	Blue   = RGB{123, 104, 238}
)

// ToHSV converts c to HSV.
func ToHSV(c RGB) HSV {
	r, g, b := float64(c.R)/255, float64(c.G)/255, float64(c.B)/255
	maxc := mathx.MaxOf(r, g, b)
	minc := mathx.MinOf(r, g, b)
	if maxc == minc {
		return HSV{V: maxc}
	}
	d := maxc - minc
	rc, gc, bc := (maxc-r)/d, (maxc-g)/d, (maxc-b)/d
	var h float64
	switch maxc {
	case r:
		h = bc - gc
	case g:
		h = 2 + rc - bc
	default:
		h = 4 + gc - rc
	}
	h = math.Mod(h/6, 1)
	if h < 0 {
		h++
	}
	return HSV{H: h * 360, S: d / maxc, V: maxc}
}

// ToRGB converts c to RGB, truncating each channel.
func ToRGB(c HSV) RGB {
	v := mathx.Clamp(c.V, 0, 1)
	s := mathx.Clamp(c.S, 0, 1)
	ch := func(x float64) uint8 { return uint8(255 * x) }
	if s == 0 {
		return RGB{ch(v), ch(v), ch(v)}
	}
	h := math.Mod(c.H, 360) / 360 * 6
	if h < 0 {
		h += 6
	}
	i := int(h)
	f := h - float64(i)
	p := v * (1 - s)
	q := v * (1 - s*f)
	t := v * (1 - s*(1-f))
	switch i % 6 {
	case 0:
		return RGB{ch(v), ch(t), ch(p)}
	case 1:
		return RGB{ch(q), ch(v), ch(p)}
	case 2:
		return RGB{ch(p), ch(v), ch(t)}
	case 3:
		return RGB{ch(p), ch(q), ch(v)}
	case 4:
		return RGB{ch(t), ch(p), ch(v)}
	default:
		return RGB{ch(v), ch(p), ch(q)}
	}
}

// WithBrightness replaces the HSV value channel of c with v in [0, 1],
// keeping hue and saturation.
func WithBrightness(c RGB, v float64) RGB {
	hsv := ToHSV(c)
	hsv.V = v
	return ToRGB(hsv)
}

// Band picks the traffic-light colour for a hazard fraction.
func Band(p float64) RGB {
	switch {
	case p < 0.33:
		return Green
	case p < 0.67:
		return Yellow
	default:
		return Red
	}
}
