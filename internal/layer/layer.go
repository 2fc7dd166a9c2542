// Package layer implements the polymorphic compositing layers (§4.C-§4.G)
// and the ordered, lockable list the compositor renders them from (§4.H).
//
// The renderer only ever reaches a layer through the narrow Layer
// interface (Frame/Lock/Unlock/SetGeo/SetAlpha); kind-specific operations
// (box color, image file, video url, text string...) are reached only
// through OSC handler registration, never through a virtual call from the
// compositor. This mirrors the "capability set, not virtual dispatch"
// design note in spec §9.
package layer

import (
	"sync"

	"github.com/rhaberkorn/osc-graphics/internal/surface"
)

// Layer is the narrow contract the compositor and the list need. Every
// concrete layer embeds *Base, which supplies Name/Lock/Unlock/Close
// and geometry/alpha storage; Frame, SetGeo and SetAlpha are implemented
// per kind.
type Layer interface {
	Name() string
	Lock()
	Unlock()
	Frame(target *surface.Surface)
	SetGeo(r surface.Rect)
	SetAlpha(a float64)
	// Close releases kind-specific resources and runs every deregistration
	// callback installed via Base.OnClose. Called by the OSC delete
	// handler after the layer has been unlinked from the List, never
	// concurrently with a render tick (§4.H's lifecycle guarantee).
	Close()
}

// Base supplies the state and behavior common to every layer: its
// immutable name, its lock, the always-present geometry and alpha
// parameters, and the bookkeeping needed to undo OSC registrations at
// destruction. Concrete layers embed it and add kind-specific fields.
type Base struct {
	name string

	// screenW/screenH are fixed for the process lifetime (no runtime
	// resize, no multi-display — spec §1 Non-goals), so they're captured
	// once rather than threaded through an App context on every call.
	screenW, screenH uint

	mu sync.Mutex

	geo       surface.Rect
	alphaF    float64
	alphaByte uint8

	closers []func()
}

// NewBase constructs shared layer state. name must be non-empty and
// unique within the owning List for the layer's lifetime (enforced by
// List.Insert, not here).
func NewBase(name string, screenW, screenH uint) *Base {
	return &Base{
		name:    name,
		screenW: screenW,
		screenH: screenH,
		alphaF:  1.0,
		alphaByte: 255,
	}
}

// Name returns the layer's immutable name.
func (b *Base) Name() string { return b.name }

// Lock acquires the per-layer lock. The renderer holds it for the
// duration of Frame; OSC parameter handlers hold it for the duration of
// the setter they wrap.
func (b *Base) Lock() { b.mu.Lock() }

// Unlock releases the per-layer lock.
func (b *Base) Unlock() { b.mu.Unlock() }

// ScreenSize returns the fixed screen dimensions this layer was
// constructed against.
func (b *Base) ScreenSize() (uint, uint) { return b.screenW, b.screenH }

// Geo returns the currently stored geometry as the concrete layer stored
// it: already expanded for kinds that store through SetGeoRaw or
// Rect.Expand, unexpanded for Box.
func (b *Base) Geo() surface.Rect { return b.geo }

// SetGeoRaw stores rect, expanding the zero-rect sentinel to the full
// screen. Most concrete layers call this from their SetGeo; Box
// layer does not, because it defers zero-expansion to render time
// against the render target instead of the screen (see box.go).
func (b *Base) SetGeoRaw(r surface.Rect) {
	b.geo = r.Expand(b.screenW, b.screenH)
}

// AlphaFloat returns the last float passed to SetAlphaRaw.
func (b *Base) AlphaFloat() float64 { return b.alphaF }

// AlphaByte returns ceil(AlphaFloat()*255) as derived by SetAlphaRaw.
func (b *Base) AlphaByte() uint8 { return b.alphaByte }

// SetAlphaRaw stores the opacity float and derives the byte form.
func (b *Base) SetAlphaRaw(a float64) {
	b.alphaF = a
	b.alphaByte = surface.AlphaByte(a)
}

// OnClose registers a cleanup callback to run when the layer is closed.
// Used to stash the OSC deregistration closures for the per-layer
// geo/alpha handlers every layer registers, plus any kind-specific
// registrations (color, file, url, ...).
func (b *Base) OnClose(f func()) {
	b.closers = append(b.closers, f)
}

// Close runs every registered cleanup callback in reverse registration
// order. Concrete layers that hold additional resources (decoders, fonts,
// cached surfaces) should call Base.Close after releasing them, or embed
// their own Close and call b.Base.Close() explicitly.
func (b *Base) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
	b.closers = nil
}
