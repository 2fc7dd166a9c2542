package layer

import (
	"image"

	"github.com/rhaberkorn/osc-graphics/internal/surface"
)

// Box is a solid-color filled rectangle layer (§4.D).
type Box struct {
	*Base

	color surface.Color
}

// NewBox constructs a box layer. geo/alpha/color are the values taken
// from the `/layer/new/box` constructor arguments.
func NewBox(name string, screenW, screenH uint, geo surface.Rect, alpha float64, c surface.Color) *Box {
	b := &Box{Base: NewBase(name, screenW, screenH)}
	b.SetGeo(geo)
	b.SetAlpha(alpha)
	b.SetColor(c)
	return b
}

// SetGeo stores the corner coordinates derived from rect. Unlike most
// layers, Box does NOT expand the zero sentinel here: per §4.D, a zero
// x2/y2 is resolved at render time against the render target, so that a
// box created before the first tick still "extends to edge" correctly
// even though NewBase has no target to measure against yet.
func (b *Box) SetGeo(r surface.Rect) {
	b.Base.geo = r
}

// SetAlpha installs the derived alpha byte.
func (b *Box) SetAlpha(a float64) {
	b.Base.SetAlphaRaw(a)
}

// SetColor stores the box's RGB color.
func (b *Box) SetColor(c surface.Color) {
	b.color = c
}

// Color returns the box's current color.
func (b *Box) Color() surface.Color { return b.color }

// Frame draws the filled rectangle from (x1,y1) to (x2,y2), replacing a
// zero corner (x2 or y2 landing on 0, not merely a zero width/height)
// with the target's width/height, matching the original implementation's
// `x2 ? : target->w` ternary: a non-zero x with a zero width still
// yields a zero-width box, it's only the derived corner itself landing
// on the origin that means "unset, extend to edge".
func (b *Box) Frame(target *surface.Surface) {
	r := b.Base.geo
	x1, y1 := r.X, r.Y
	x2, y2 := r.X+int(r.Width), r.Y+int(r.Height)
	if x2 == 0 {
		x2 = int(target.Width())
	}
	if y2 == 0 {
		y2 = int(target.Height())
	}
	surface.FillRect(target, image.Rect(x1, y1, x2, y2), b.color, b.Base.alphaByte)
}
