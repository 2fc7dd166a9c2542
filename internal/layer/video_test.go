package layer

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/rhaberkorn/osc-graphics/internal/surface"
)

// fakePlayer is a no-op Player stand-in so video layer tests don't shell
// out to ffmpeg/ffprobe.
type fakePlayer struct {
	w, h       uint
	lock       func() []byte
	unlock     func()
	display    func()
	rate       float64
	paused     bool
	lastOpened string
	openErr    error
	closed     bool
}

func (p *fakePlayer) Open(_ context.Context, url string) (uint, uint, error) {
	p.lastOpened = url
	if p.openErr != nil {
		return 0, 0, p.openErr
	}
	return p.w, p.h, nil
}
func (p *fakePlayer) SetCallbacks(lock func() []byte, unlock func(), display func()) {
	p.lock, p.unlock, p.display = lock, unlock, display
}
func (p *fakePlayer) SetRate(r float64)         { p.rate = r }
func (p *fakePlayer) SetPosition(float64) error { return nil }
func (p *fakePlayer) SetPaused(b bool)          { p.paused = b }
func (p *fakePlayer) Close()                    { p.closed = true }

func newTestVideo(t *testing.T, w, h uint) (*Video, *fakePlayer) {
	t.Helper()
	fp := &fakePlayer{w: w, h: h}
	v := &Video{Base: NewBase("v", 640, 480), newPlayer: func() Player { return fp }, rate: 1.0}
	v.Base.SetGeoRaw(surface.Rect{X: 0, Y: 0, Width: w, Height: h})
	v.Base.SetAlphaRaw(1.0)
	if err := v.SetURL("rtsp://cam/1"); err != nil {
		t.Fatalf("SetURL: %v", err)
	}
	return v, fp
}

func TestVideoNativeSizeDecodeBuffer(t *testing.T) {
	// End-to-end scenario 4 from spec §8.
	v, _ := newTestVideo(t, 320, 240)
	v.SetGeo(surface.Rect{X: 0, Y: 0, Width: 640, Height: 480})

	if v.bufW != 320 || v.bufH != 240 {
		t.Fatalf("decode buffer = %dx%d, want 320x240", v.bufW, v.bufH)
	}

	v.SetGeo(surface.Rect{X: 0, Y: 0, Width: 320, Height: 240})
	if v.bufW != 320 || v.bufH != 240 {
		t.Fatalf("decode buffer reallocated on geo change: %dx%d", v.bufW, v.bufH)
	}
}

func TestVideoRatePausedCachedAcrossURLChange(t *testing.T) {
	v, fp1 := newTestVideo(t, 320, 240)
	v.SetRate(2.0)
	v.SetPaused(true)

	if fp1.rate != 2.0 || !fp1.paused {
		t.Fatalf("rate/paused not applied to current player: %+v", fp1)
	}

	var fp2 *fakePlayer
	v.newPlayer = func() Player {
		fp2 = &fakePlayer{w: 160, h: 120}
		return fp2
	}
	if err := v.SetURL("rtsp://cam/2"); err != nil {
		t.Fatalf("SetURL: %v", err)
	}

	if fp2.rate != 2.0 || !fp2.paused {
		t.Fatalf("rate/paused not reapplied after url change: %+v", fp2)
	}
}

func TestVideoOpenFailureLeavesLayerRecoverable(t *testing.T) {
	v := &Video{Base: NewBase("v", 640, 480), rate: 1.0}
	failing := &fakePlayer{openErr: context.DeadlineExceeded}
	v.newPlayer = func() Player { return failing }

	err := v.SetURL("rtsp://bad")
	if err == nil {
		t.Fatal("expected error from failing Open")
	}
	if v.URL() != "" {
		t.Fatalf("URL() = %q, want empty after failed open", v.URL())
	}
	// A retry with a working player must still succeed.
	v.newPlayer = func() Player { return &fakePlayer{w: 10, h: 10} }
	if err := v.SetURL("rtsp://good"); err != nil {
		t.Fatalf("retry SetURL: %v", err)
	}
}

func TestVideoDecodeCallbacksRoundTrip(t *testing.T) {
	v, fp := newTestVideo(t, 2, 2)

	buf := fp.lock()
	binary.LittleEndian.PutUint16(buf[0:2], 0xFFFF) // white pixel (0,0)
	fp.unlock()
	fp.display()

	target := surface.New(2, 2)
	v.Frame(target)

	c := target.Image().NRGBAAt(0, 0)
	if c.R == 0 && c.G == 0 && c.B == 0 {
		t.Fatalf("decoded pixel not reflected in frame: %+v", c)
	}
}
