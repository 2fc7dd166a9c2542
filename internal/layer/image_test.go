package layer

import (
	"image"
	"image/color"
	"testing"

	"github.com/rhaberkorn/osc-graphics/internal/surface"
)

// fakeDecoder builds a stdlib image.RGBA (so surface.FromImage's Opaque()
// check correctly derives HasAlpha) instead of touching a real file.
func fakeDecoder(w, h uint, hasAlpha bool) ImageDecoder {
	return func(path string) (*surface.Surface, error) {
		img := image.NewRGBA(image.Rect(0, 0, int(w), int(h)))
		a := uint8(255)
		if hasAlpha {
			a = 128
		}
		for y := 0; y < int(h); y++ {
			for x := 0; x < int(w); x++ {
				img.SetRGBA(x, y, color.RGBA{R: 10, G: 20, B: 30, A: a})
			}
		}
		return surface.FromImage(img), nil
	}
}

func TestImageScaleCaching(t *testing.T) {
	// End-to-end scenario 3 from spec §8: 200x200 source into 100x100 geo.
	img, err := NewImage("img", 640, 480, surface.Rect{}, 1.0, "")
	if err != nil {
		t.Fatal(err)
	}
	img.decode = fakeDecoder(200, 200, true)
	if err := img.SetFile("fake.png"); err != nil {
		t.Fatalf("SetFile: %v", err)
	}

	img.SetGeo(surface.Rect{X: 0, Y: 0, Width: 100, Height: 100})
	if img.scaled == nil {
		t.Fatal("expected a scaled surface after geo change")
	}
	scaledPtr := img.scaled

	img.SetAlpha(0.5)
	if img.scaled != scaledPtr {
		t.Fatal("scaled surface should be preserved across an alpha change")
	}
	if img.alphaComposited == nil {
		t.Fatal("expected a new alpha-composited surface after alpha change")
	}
}

func TestImageAlphaOpaqueReleasesComposited(t *testing.T) {
	img, err := NewImage("img", 640, 480, surface.Rect{}, 0.5, "")
	if err != nil {
		t.Fatal(err)
	}
	img.decode = fakeDecoder(10, 10, true)
	if err := img.SetFile("fake.png"); err != nil {
		t.Fatal(err)
	}
	if img.alphaComposited == nil {
		t.Fatal("expected alpha-composited at 0.5 opacity")
	}

	img.SetAlpha(1.0)
	if img.alphaComposited != nil {
		t.Fatal("alpha-composited should be released when opacity becomes opaque")
	}
}

func TestImageSetterOrderIndependence(t *testing.T) {
	// End-to-end scenario from spec §8: file/geo/alpha commute.
	mk := func(order func(i *Image)) *Image {
		img, _ := NewImage("img", 640, 480, surface.Rect{}, 1.0, "")
		img.decode = fakeDecoder(20, 20, true)
		order(img)
		return img
	}

	a := mk(func(i *Image) {
		i.SetFile("f")
		i.SetGeo(surface.Rect{X: 0, Y: 0, Width: 10, Height: 10})
		i.SetAlpha(0.5)
	})
	b := mk(func(i *Image) {
		i.SetAlpha(0.5)
		i.SetGeo(surface.Rect{X: 0, Y: 0, Width: 10, Height: 10})
		i.SetFile("f")
	})

	target1 := surface.New(20, 20)
	target2 := surface.New(20, 20)
	a.Frame(target1)
	b.Frame(target2)

	if target1.Image().NRGBAAt(1, 1) != target2.Image().NRGBAAt(1, 1) {
		t.Fatalf("setter order changed output: %+v vs %+v",
			target1.Image().NRGBAAt(1, 1), target2.Image().NRGBAAt(1, 1))
	}
}
