package layer

import (
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/rhaberkorn/osc-graphics/internal/surface"
)

// textStyle is the bold/italic/underline bitset parsed from the `/style`
// OSC argument (§4.G: any subset of "b","i","u").
type textStyle struct {
	bold, italic, underline bool
}

func parseStyle(s string) textStyle {
	var st textStyle
	for _, r := range s {
		switch r {
		case 'b':
			st.bold = true
		case 'i':
			st.italic = true
		case 'u':
			st.underline = true
		}
	}
	return st
}

// Text is a rasterized-text layer (§4.G), sharing the source/scaled/
// alpha-composited surface cache with Image.
type Text struct {
	*Base

	fontDir string

	fontPath string
	fontFile *opentype.Font
	fontSize int

	style textStyle
	text  string
	color surface.Color

	source          *surface.Surface
	scaled          *surface.Surface
	alphaComposited *surface.Surface
}

// NewText constructs a text layer. geo.Height (after zero-expansion)
// becomes the font pixel height per §4.G.
func NewText(name string, screenW, screenH uint, geo surface.Rect, alpha float64,
	c surface.Color, text, fontPath, fontDir string,
) (*Text, error) {
	t := &Text{Base: NewBase(name, screenW, screenH), fontDir: fontDir, color: c}
	t.Base.SetGeoRaw(geo)
	t.Base.SetAlphaRaw(alpha)
	t.text = text

	if err := t.SetFont(fontPath); err != nil {
		return nil, err
	}
	return t, nil
}

// SetFont loads the font file at the layer's current geometry height,
// reusing the cached parsed font if the path was already loaded.
func (t *Text) SetFont(path string) error {
	resolved := resolveFontPath(path, t.fontDir)
	f, err := fonts.load(resolved)
	if err != nil {
		return err
	}
	t.fontPath = resolved
	t.fontFile = f
	t.fontSize = int(t.Base.Geo().Height)
	return t.rebuild()
}

// SetColor implements the Box-shared `/color` operation for text layers.
func (t *Text) SetColor(c surface.Color) error {
	t.color = c
	return t.rebuild()
}

// SetText implements §4.G's `text` operation.
func (t *Text) SetText(s string) error {
	t.text = s
	return t.rebuild()
}

// SetStyle implements §4.G's `style` operation.
func (t *Text) SetStyle(s string) error {
	t.style = parseStyle(s)
	return t.rebuild()
}

// SetGeo implements §4.G's geometry operation. A height change reloads
// the font at the new pixel size.
func (t *Text) SetGeo(r surface.Rect) {
	full := r.Expand(t.Base.ScreenSize())
	heightChanged := full.Height != t.Base.Geo().Height
	t.Base.geo = full
	if heightChanged {
		t.fontSize = int(full.Height)
		t.rebuild() //nolint:errcheck // font already validated at construction
		return
	}
	t.applyHorizontalScale()
}

// SetAlpha implements §4.G's alpha operation, reusing §4.E's pipeline.
func (t *Text) SetAlpha(a float64) {
	t.Base.SetAlphaRaw(a)
	t.applyAlpha()
}

// rebuild invalidates source/alpha-composited and re-rasterizes the
// string, per §4.G: color, text, or style changes all trigger this.
func (t *Text) rebuild() error {
	t.source = nil
	t.scaled = nil
	t.alphaComposited = nil

	if t.fontFile == nil || t.text == "" || t.fontSize <= 0 {
		return nil
	}

	face, err := opentype.NewFace(t.fontFile, &opentype.FaceOptions{
		Size:    float64(t.fontSize),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return err
	}
	defer face.Close()

	drawer := &font.Drawer{Face: face}
	width := drawer.MeasureString(t.text).Ceil()
	if width <= 0 {
		width = 1
	}
	height := t.fontSize

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	metrics := face.Metrics()
	ascent := metrics.Ascent

	col := color.NRGBA{R: t.color.R, G: t.color.G, B: t.color.B, A: 255}
	drawer.Dst = img
	drawer.Src = image.NewUniform(col)
	drawer.Dot = fixed.Point26_6{X: 0, Y: ascent}
	drawer.DrawString(t.text)

	if t.style.bold {
		drawer.Dot = fixed.Point26_6{X: fixed.I(1), Y: ascent}
		drawer.DrawString(t.text)
	}
	if t.style.underline {
		underlineY := (ascent.Round() + metrics.Descent.Round()/2)
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, min(underlineY, height-1), col)
		}
	}
	if t.style.italic {
		shearRows(img)
	}

	t.source = surface.FromImage(img)
	t.applyHorizontalScale()
	return nil
}

// applyHorizontalScale zooms source horizontally to the requested
// geometry width (vertical factor 1.0) when it differs, per §4.G.
func (t *Text) applyHorizontalScale() {
	if t.source == nil {
		t.applyAlpha()
		return
	}
	t.scaled = nil
	wantW := t.Base.Geo().Width
	if wantW != 0 && wantW != t.source.Width() {
		t.scaled = surface.BlitScaled(t.source, wantW, t.source.Height())
	}
	t.applyAlpha()
}

func (t *Text) current(includeComposited bool) *surface.Surface {
	if includeComposited && t.alphaComposited != nil {
		return t.alphaComposited
	}
	if t.scaled != nil {
		return t.scaled
	}
	return t.source
}

func (t *Text) applyAlpha() {
	t.alphaComposited = nil
	use := t.current(false)
	if use == nil {
		return
	}
	byteA := t.Base.AlphaByte()
	if !use.HasAlpha() || byteA == 255 {
		use.SetAlpha(surface.AlphaStraight, byteA)
		return
	}
	t.alphaComposited = surface.New(use.Width(), use.Height())
	surface.BlitAlphaMultiply(t.alphaComposited, use, byteA)
}

// Frame blits alpha-composited ?: scaled ?: source at the layer's geometry.
func (t *Text) Frame(target *surface.Surface) {
	src := t.current(true)
	if src == nil {
		return
	}
	r := t.Base.Geo()
	surface.Blit(target, src, r.X, r.Y)
}

// shearRows applies a cheap synthetic-italic transform: each row is
// shifted right in proportion to its distance from the bottom, since
// golang.org/x/image/font has no built-in oblique style.
func shearRows(img *image.NRGBA) {
	b := img.Bounds()
	h := b.Dy()
	if h == 0 {
		return
	}
	maxShift := h / 4
	orig := make([]color.NRGBA, b.Dx())
	for y := 0; y < h; y++ {
		shift := maxShift * (h - y) / h
		for x := 0; x < b.Dx(); x++ {
			orig[x] = img.NRGBAAt(b.Min.X+x, b.Min.Y+y)
		}
		for x := 0; x < b.Dx(); x++ {
			sx := x - shift
			if sx < 0 || sx >= len(orig) {
				img.SetNRGBA(b.Min.X+x, b.Min.Y+y, color.NRGBA{})
				continue
			}
			img.SetNRGBA(b.Min.X+x, b.Min.Y+y, orig[sx])
		}
	}
}

