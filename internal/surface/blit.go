package surface

import (
	"image"
	"image/color"
	"image/draw"
)

// BlitAlphaMultiply implements §4.A's "RGBA alpha multiply blit": src and
// dst must have identical geometry and format. For each pixel the alpha
// channel is replaced with a*opacity/255 and the RGB is preserved.
//
// Callers hold the contract that opaque surfaces (opacity == 255) are
// never materialized into an alpha-copy buffer via this routine; it is a
// caller bug, not a runtime error, if that happens, so we do not special
// case it beyond being a no-op multiply.
func BlitAlphaMultiply(dst, src *Surface, opacity uint8) {
	if opacity == 0 {
		clearTransparentBlack(dst)
		return
	}

	sb := src.pix.Bounds()
	w, h := sb.Dx(), sb.Dy()

	// Unrolled in strides of four pixels to amortize per-iteration overhead,
	// matching the original C routine.
	for y := 0; y < h; y++ {
		x := 0
		for ; x+4 <= w; x += 4 {
			multiplyPixel(dst, src, sb, x+0, y, opacity)
			multiplyPixel(dst, src, sb, x+1, y, opacity)
			multiplyPixel(dst, src, sb, x+2, y, opacity)
			multiplyPixel(dst, src, sb, x+3, y, opacity)
		}
		for ; x < w; x++ {
			multiplyPixel(dst, src, sb, x, y, opacity)
		}
	}
}

func multiplyPixel(dst, src *Surface, sb image.Rectangle, x, y int, opacity uint8) {
	c := src.pix.NRGBAAt(sb.Min.X+x, sb.Min.Y+y)
	c.A = uint8(uint16(c.A) * uint16(opacity) / 255)
	dst.pix.SetNRGBA(x, y, c)
}

func clearTransparentBlack(s *Surface) {
	draw.Draw(s.pix, s.pix.Bounds(), image.NewUniform(color.NRGBA{}), image.Point{}, draw.Src)
}

// BlitScaled performs a bilinear-smoothed zoom of src into a new surface
// sized to (w, h). Behavior is undefined (per §4.A) if w or h is zero;
// callers must not invoke it with a degenerate destination.
func BlitScaled(src *Surface, w, h uint) *Surface {
	dst := New(w, h)
	dst.hasAlpha = src.hasAlpha
	scaler.Scale(dst.pix, dst.pix.Bounds(), src.pix, src.pix.Bounds(), draw.Over, nil)
	return dst
}

// Blit draws src onto dst at (x, y), honoring src's colorkey and
// per-surface alpha mode (straight and straight-RLE are applied
// identically here; the RLE distinction only matters to the underlying
// SDL-style accelerator this package abstracts away).
func Blit(dst *Surface, src *Surface, x, y int) {
	sb := src.pix.Bounds()
	at := image.Pt(x, y)
	dr := image.Rectangle{Min: at, Max: at.Add(sb.Size())}

	if src.colorkey == nil && src.alphaMode == AlphaOpaque {
		draw.Draw(dst.pix, dr, src.pix, sb.Min, draw.Over)
		return
	}

	key := src.colorKeyMask()
	surfAlpha := uint16(255)
	if src.alphaMode != AlphaOpaque {
		surfAlpha = uint16(src.surfAlpha)
	}

	for sy := 0; sy < sb.Dy(); sy++ {
		for sx := 0; sx < sb.Dx(); sx++ {
			c := src.pix.NRGBAAt(sb.Min.X+sx, sb.Min.Y+sy)
			if src.colorkey != nil && c == key {
				continue
			}
			if surfAlpha != 255 {
				c.A = uint8(uint16(c.A) * surfAlpha / 255)
			}
			if c.A == 0 {
				continue
			}
			dstC := dst.pix.NRGBAAt(x+sx, y+sy)
			dst.pix.SetNRGBA(x+sx, y+sy, overNRGBA(dstC, c))
		}
	}
}

// overNRGBA performs the standard "over" alpha compositing operator on two
// straight-alpha (non-premultiplied) pixels.
func overNRGBA(dst, src color.NRGBA) color.NRGBA {
	if src.A == 255 {
		return src
	}
	if src.A == 0 {
		return dst
	}
	sa := float64(src.A) / 255
	da := float64(dst.A) / 255
	outA := sa + da*(1-sa)
	if outA == 0 {
		return color.NRGBA{}
	}
	mix := func(s, d uint8) uint8 {
		return uint8((float64(s)*sa + float64(d)*da*(1-sa)) / outA)
	}
	return color.NRGBA{R: mix(src.R, dst.R), G: mix(src.G, dst.G), B: mix(src.B, dst.B), A: uint8(outA * 255)}
}

// FillRect draws a filled rectangle in the given color and alpha,
// alpha-blended over dst's existing pixels and clipped to dst's bounds.
// Used by the box layer.
func FillRect(dst *Surface, r image.Rectangle, c Color, alpha uint8) {
	draw.Draw(dst.pix, r.Intersect(dst.pix.Bounds()), image.NewUniform(color.NRGBA{R: c.R, G: c.G, B: c.B, A: alpha}), image.Point{}, draw.Over)
}

// Clear fills the whole surface with opaque black, used at the start of
// each compositor tick (§4.H LayerList.Render).
func Clear(dst *Surface) {
	draw.Draw(dst.pix, dst.pix.Bounds(), image.NewUniform(color.NRGBA{A: 255}), image.Point{}, draw.Src)
}
