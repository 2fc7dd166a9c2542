package layer

import (
	"context"
	"encoding/binary"
	"image/color"
	"sync"

	"github.com/rhaberkorn/osc-graphics/internal/surface"
)

// Video is a video-stream layer (§4.F). The decode buffer is RGB565,
// sized to the stream's native resolution, and is owned jointly by the
// decoder goroutine (via lock/unlock callbacks) and the renderer (via
// Frame); bufMu is the "buffer lock" from spec §3's Video layer
// invariant.
type Video struct {
	*Base

	newPlayer func() Player
	player    Player
	cancel    context.CancelFunc

	url    string
	rate   float64
	paused bool

	bufMu     sync.Mutex
	decodeBuf []byte
	bufW      uint
	bufH      uint
}

// NewVideo constructs a video layer. A non-empty url is opened
// immediately; a failure to open is recoverable (§7 item 3): the layer
// is left with no source and url is retryable.
func NewVideo(name string, screenW, screenH uint, geo surface.Rect, alpha float64, url string) *Video {
	v := &Video{
		Base:      NewBase(name, screenW, screenH),
		newPlayer: func() Player { return newFFmpegPlayer() },
		rate:      1.0,
	}
	v.Base.SetGeoRaw(geo)
	v.Base.SetAlphaRaw(alpha)
	if url != "" {
		_ = v.SetURL(url) //nolint:errcheck // recoverable; caller can inspect via URL()==""
	}
	return v
}

// SetURL implements §4.F's `url` operation.
func (v *Video) SetURL(u string) error {
	v.stopPlayer()

	v.bufMu.Lock()
	v.decodeBuf = nil
	v.bufW, v.bufH = 0, 0
	v.bufMu.Unlock()

	v.url = ""
	if u == "" {
		return nil
	}

	player := v.newPlayer()
	ctx, cancel := context.WithCancel(context.Background())
	w, h, err := player.Open(ctx, u)
	if err != nil {
		cancel()
		return err
	}

	v.bufMu.Lock()
	v.decodeBuf = make([]byte, w*h*2)
	v.bufW, v.bufH = w, h
	v.bufMu.Unlock()

	player.SetCallbacks(v.lockCB, v.unlockCB, v.displayCB)
	player.SetRate(v.rate)
	player.SetPaused(v.paused)

	v.player = player
	v.cancel = cancel
	v.url = u
	return nil
}

// URL returns the currently open url, or "" if none.
func (v *Video) URL() string { return v.url }

func (v *Video) stopPlayer() {
	if v.player != nil {
		v.player.Close()
		v.player = nil
	}
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
}

// lockCB acquires the decode-buffer lock and returns the raw pixel
// buffer for the decoder to write one frame into. Acquiring a Surface
// lock too (per §4.F) is a documented no-op; see surface.Surface.
func (v *Video) lockCB() []byte {
	v.bufMu.Lock()
	return v.decodeBuf
}

// unlockCB releases the decode-buffer lock.
func (v *Video) unlockCB() {
	v.bufMu.Unlock()
}

// displayCB is a no-op: decoding proceeds asynchronously, the renderer
// pulls from the decode buffer on its own cadence.
func (v *Video) displayCB() {}

// SetRate implements §4.F's `rate` operation: clamp through to the
// player and cache the value for reapplication after a url change.
func (v *Video) SetRate(r float64) {
	v.rate = r
	if v.player != nil {
		v.player.SetRate(r)
	}
}

// Rate returns the cached playback rate.
func (v *Video) Rate() float64 { return v.rate }

// SetPosition implements §4.F's `position` operation.
func (v *Video) SetPosition(p float64) error {
	if v.player == nil {
		return nil
	}
	return v.player.SetPosition(p)
}

// SetPaused implements §4.F's `paused` operation: cache the flag and
// reconcile the running player's actual state, if any.
func (v *Video) SetPaused(b bool) {
	v.paused = b
	if v.player != nil {
		v.player.SetPaused(b)
	}
}

// Paused returns the cached paused flag.
func (v *Video) Paused() bool { return v.paused }

// SetGeo implements §4.F's geometry operation: the decode buffer is
// never reallocated by a geometry change (§3's Video layer invariant:
// its dimensions equal the source track's, not the geometry's).
func (v *Video) SetGeo(r surface.Rect) {
	v.Base.SetGeoRaw(r)
}

// SetAlpha implements §4.F's alpha operation.
func (v *Video) SetAlpha(a float64) {
	v.Base.SetAlphaRaw(a)
}

// Frame implements §4.F's render: acquire the decode-buffer lock; blit
// directly if the buffer's native size equals geometry, else zoom into a
// scratch surface first; apply per-surface alpha either way.
func (v *Video) Frame(target *surface.Surface) {
	v.bufMu.Lock()
	defer v.bufMu.Unlock()

	if v.bufW == 0 || v.bufH == 0 {
		return
	}

	decoded := rgb565ToSurface(v.decodeBuf, v.bufW, v.bufH)
	alpha := v.Base.AlphaByte()
	geo := v.Base.Geo()

	if v.bufW == geo.Width && v.bufH == geo.Height {
		decoded.SetAlpha(surface.AlphaStraight, alpha)
		surface.Blit(target, decoded, geo.X, geo.Y)
		return
	}

	if geo.Width == 0 || geo.Height == 0 {
		return
	}
	scratch := surface.BlitScaled(decoded, geo.Width, geo.Height)
	scratch.SetAlpha(surface.AlphaStraight, alpha)
	surface.Blit(target, scratch, geo.X, geo.Y)
}

// Close stops the player and releases the decode buffer.
func (v *Video) Close() {
	v.stopPlayer()
	v.bufMu.Lock()
	v.decodeBuf = nil
	v.bufMu.Unlock()
	v.Base.Close()
}

// rgb565ToSurface converts a tightly-packed little-endian RGB565 buffer
// into a straight-alpha (fully opaque) Surface.
func rgb565ToSurface(buf []byte, w, h uint) *surface.Surface {
	s := surface.New(w, h)
	img := s.Image()
	i := 0
	for y := 0; y < int(h); y++ {
		for x := 0; x < int(w); x++ {
			if i+2 > len(buf) {
				break
			}
			px := binary.LittleEndian.Uint16(buf[i : i+2])
			i += 2
			r := uint8((px >> 11 & 0x1F) * 255 / 31)
			g := uint8((px >> 5 & 0x3F) * 255 / 63)
			b := uint8((px & 0x1F) * 255 / 31)
			img.SetNRGBA(x, y, color.NRGBA{R: r, G: g, B: b, A: 255})
		}
	}
	return s
}
