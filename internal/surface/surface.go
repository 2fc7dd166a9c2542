// Package surface implements the owned pixel buffers layers render into and
// are composited from, plus the blit/scale primitives that move pixels
// between them. The primitives themselves are thin wrappers around
// image/draw and golang.org/x/image/draw: this package owns the contract
// (colorkey, per-surface alpha, straight-vs-premultiplied), not the
// rasterization math.
package surface

import (
	"image"
	"image/color"
	"image/draw"

	xdraw "golang.org/x/image/draw"
)

// AlphaMode selects how a Surface's per-surface opacity is applied.
type AlphaMode int

// Alpha modes, mirroring the SDL-style surface alpha contract.
const (
	AlphaOpaque AlphaMode = iota
	AlphaStraight
	AlphaStraightRLE
)

// PixelFormat describes a surface's pixel layout. Internal compositing
// surfaces are always 32bpp RGBA; it is carried mainly so code can ask
// "does this surface have an alpha channel" without inspecting pixels.
type PixelFormat struct {
	BitsPerPixel uint8
	RMask        uint32
	GMask        uint32
	BMask        uint32
	AMask        uint32
}

// RGBA32 is the pixel format every internal Surface uses.
var RGBA32 = PixelFormat{BitsPerPixel: 32, RMask: 0xFF000000, GMask: 0x00FF0000, BMask: 0x0000FF00, AMask: 0x000000FF}

// HasAlpha reports whether the format carries a usable alpha channel.
func (f PixelFormat) HasAlpha() bool { return f.AMask != 0 }

// Surface is an owned pixel buffer with a fixed pixel format, an optional
// colorkey, and optional per-surface alpha.
//
// Lock/Unlock are no-ops: Go-managed slices are always addressable memory,
// so there is nothing to map. They exist for call-site symmetry with the
// video layer's decode buffer, whose lock is NOT a no-op (see layer.Video).
type Surface struct {
	width, height uint
	format        PixelFormat
	pix           *image.NRGBA
	hasAlpha      bool

	colorkey    *uint32
	alphaMode   AlphaMode
	surfAlpha   uint8
}

// New allocates a transparent-black w x h RGBA surface.
func New(w, h uint) *Surface {
	return &Surface{
		width: w, height: h,
		format:    RGBA32,
		pix:       image.NewNRGBA(image.Rect(0, 0, int(w), int(h))),
		hasAlpha:  true,
		alphaMode: AlphaOpaque,
		surfAlpha: 255,
	}
}

// FromImage wraps a decoded image.Image as a Surface, flagging whether the
// source format actually carried alpha (a JPEG decode never does, even
// though the NRGBA buffer backing it has an A channel of all-255).
func FromImage(img image.Image) *Surface {
	b := img.Bounds()
	dst := image.NewNRGBA(b)
	draw.Draw(dst, b, img, b.Min, draw.Src)

	opaque := false
	if o, ok := img.(interface{ Opaque() bool }); ok {
		opaque = o.Opaque()
	}

	return &Surface{
		width: uint(b.Dx()), height: uint(b.Dy()),
		format:    RGBA32,
		pix:       dst,
		hasAlpha:  !opaque,
		alphaMode: AlphaOpaque,
		surfAlpha: 255,
	}
}

// Lock is a documented no-op; see the Surface doc comment.
func (s *Surface) Lock() {}

// Unlock is a documented no-op; see the Surface doc comment.
func (s *Surface) Unlock() {}

// Width returns the surface width in pixels.
func (s *Surface) Width() uint { return s.width }

// Height returns the surface height in pixels.
func (s *Surface) Height() uint { return s.height }

// Format returns the surface's pixel format.
func (s *Surface) Format() PixelFormat { return s.format }

// HasAlpha reports whether the decoded source actually carried an alpha
// channel (as opposed to merely being stored in a format that has room
// for one).
func (s *Surface) HasAlpha() bool { return s.hasAlpha }

// Image exposes the backing buffer for use with image/draw-family APIs.
func (s *Surface) Image() *image.NRGBA { return s.pix }

// Bounds is a convenience wrapper around Image().Bounds().
func (s *Surface) Bounds() image.Rectangle { return s.pix.Bounds() }

// SetColorkey marks pixels equal to px as transparent during future blits.
func (s *Surface) SetColorkey(px uint32) {
	key := px
	s.colorkey = &key
}

// ClearColorkey removes any colorkey.
func (s *Surface) ClearColorkey() { s.colorkey = nil }

// SetAlpha attaches a per-surface opacity. mode selects opaque, straight,
// or straight-with-RLE-acceleration; a has no effect when mode is opaque.
func (s *Surface) SetAlpha(mode AlphaMode, a uint8) {
	s.alphaMode = mode
	s.surfAlpha = a
}

// AlphaMode returns the surface's current alpha mode.
func (s *Surface) AlphaMode() AlphaMode { return s.alphaMode }

// SurfaceAlpha returns the surface's current per-surface alpha byte.
func (s *Surface) SurfaceAlpha() uint8 { return s.surfAlpha }

// Clone returns an independent copy of s sized to its own bounds.
func (s *Surface) Clone() *Surface {
	dst := New(s.width, s.height)
	draw.Draw(dst.pix, dst.pix.Bounds(), s.pix, s.pix.Bounds().Min, draw.Src)
	dst.hasAlpha = s.hasAlpha
	dst.alphaMode = s.alphaMode
	dst.surfAlpha = s.surfAlpha
	return dst
}

func (s *Surface) colorKeyMask() color.NRGBA {
	if s.colorkey == nil {
		return color.NRGBA{}
	}
	v := *s.colorkey
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}
}

// scaler is the bilinear-smoothed zoom primitive; §4.A specifies undefined
// behavior when either scale factor is <= 0, which xdraw.BiLinear already
// satisfies by producing an empty image for a degenerate destination rect.
var scaler = xdraw.BiLinear
