package surface

import (
	"image/color"
	"testing"
)

func TestBlitAlphaMultiplyZeroOpacityClears(t *testing.T) {
	src := New(2, 2)
	src.pix.SetNRGBA(0, 0, color.NRGBA{R: 255, G: 10, B: 20, A: 255})
	dst := New(2, 2)
	dst.pix.SetNRGBA(1, 1, color.NRGBA{R: 9, G: 9, B: 9, A: 9})

	BlitAlphaMultiply(dst, src, 0)

	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			if c := dst.pix.NRGBAAt(x, y); c != (color.NRGBA{}) {
				t.Fatalf("pixel (%d,%d) = %+v, want transparent black", x, y, c)
			}
		}
	}
}

func TestBlitAlphaMultiplyScalesAlpha(t *testing.T) {
	src := New(1, 1)
	src.pix.SetNRGBA(0, 0, color.NRGBA{R: 200, G: 100, B: 50, A: 255})
	dst := New(1, 1)

	BlitAlphaMultiply(dst, src, 128)

	got := dst.pix.NRGBAAt(0, 0)
	if got.R != 200 || got.G != 100 || got.B != 50 {
		t.Fatalf("RGB not preserved: %+v", got)
	}
	if got.A != 128 {
		t.Fatalf("alpha = %d, want 128", got.A)
	}
}

func TestBlitAlphaMultiplyUnrolledMatchesTail(t *testing.T) {
	// 5 wide exercises one stride-of-4 batch plus a 1-pixel tail.
	src := New(5, 1)
	for x := 0; x < 5; x++ {
		src.pix.SetNRGBA(x, 0, color.NRGBA{R: uint8(x * 10), A: 200})
	}
	dst := New(5, 1)
	BlitAlphaMultiply(dst, src, 100)

	for x := 0; x < 5; x++ {
		got := dst.pix.NRGBAAt(x, 0)
		if got.R != uint8(x*10) {
			t.Errorf("pixel %d R = %d, want %d", x, got.R, x*10)
		}
		wantA := uint8(uint16(200) * 100 / 255)
		if got.A != wantA {
			t.Errorf("pixel %d A = %d, want %d", x, got.A, wantA)
		}
	}
}

func TestBlitColorkeySkipsMatchingPixels(t *testing.T) {
	src := New(2, 1)
	src.pix.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255}) // colorkey
	src.pix.SetNRGBA(1, 0, color.NRGBA{G: 255, A: 255})
	src.SetColorkey(0xFF0000FF) // R=255,G=0,B=0,A=255

	dst := New(2, 1)
	dst.pix.SetNRGBA(0, 0, color.NRGBA{B: 9, A: 255})

	Blit(dst, src, 0, 0)

	if got := dst.pix.NRGBAAt(0, 0); got.B != 9 {
		t.Errorf("colorkeyed pixel was overwritten: %+v", got)
	}
	if got := dst.pix.NRGBAAt(1, 0); got.G != 255 {
		t.Errorf("non-keyed pixel not blitted: %+v", got)
	}
}

func TestBlitScaledDimensions(t *testing.T) {
	src := New(10, 10)
	dst := BlitScaled(src, 20, 5)
	if dst.Width() != 20 || dst.Height() != 5 {
		t.Fatalf("BlitScaled size = %dx%d, want 20x5", dst.Width(), dst.Height())
	}
}

func TestClearFillsOpaqueBlack(t *testing.T) {
	s := New(3, 3)
	s.pix.SetNRGBA(1, 1, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	Clear(s)
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			if got := s.pix.NRGBAAt(x, y); got != (color.NRGBA{A: 255}) {
				t.Fatalf("pixel (%d,%d) = %+v, want opaque black", x, y, got)
			}
		}
	}
}
