// Package compositor implements the fixed-rate render loop of spec
// §4.J and the local control surface of §4.L, on top of
// github.com/hajimehoshi/ebiten/v2 for window/input/presentation.
package compositor

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/rhaberkorn/osc-graphics/internal/layer"
	"github.com/rhaberkorn/osc-graphics/internal/log"
	"github.com/rhaberkorn/osc-graphics/internal/recorder"
	"github.com/rhaberkorn/osc-graphics/internal/surface"
)

// DumpToggler is the subset of *osc.Dispatcher the F9 key and
// /osc/dump path both act on; compositor depends on this narrow
// interface instead of the osc package, so it does not import
// internal/osc at all.
type DumpToggler interface {
	SetDump(bool)
	Dump() bool
}

// Compositor drives the render loop described in spec §4.J: poll
// input, render the layer stack, feed the recorder, present, wait for
// the next tick boundary. It implements ebiten.Game; ebiten owns the
// actual vsync pump and backbuffer flip, so "sleep until the next tick
// boundary" is realized as skipping render work on Update calls that
// land inside the current frame's window rather than blocking.
type Compositor struct {
	list     *layer.List
	rec      *recorder.Recorder
	dump     DumpToggler
	log      *log.Logger

	width, height uint
	frameDelay    time.Duration

	target    *surface.Surface
	screenImg *ebiten.Image
	lastTick  time.Time

	fullscreen bool
	cursorOn   bool

	quit       bool
	quitSignal atomic.Bool
}

// New returns a Compositor rendering list at (width, height) and
// framerateHz, optionally feeding rec (may be nil if recording is
// never started) and toggling dump's dump flag from F9/the network.
func New(list *layer.List, rec *recorder.Recorder, dump DumpToggler, width, height, framerateHz uint, logger *log.Logger) *Compositor {
	return &Compositor{
		list:       list,
		rec:        rec,
		dump:       dump,
		log:        logger,
		width:      width,
		height:     height,
		frameDelay: time.Second / time.Duration(framerateHz),
		target:     surface.New(width, height),
		screenImg:  ebiten.NewImage(int(width), int(height)),
		cursorOn:   true,
	}
}

// errQuit is returned from Update to ask ebiten.RunGame to exit
// cleanly, per spec §4.L's "Escape exits cleanly. A quit event also
// exits cleanly."
var errQuit = errors.New("compositor: quit requested")

// Run starts the window and blocks until the user quits. title sets
// the window title; fullscreen/showCursor set the initial control
// surface state from startup config.
func (c *Compositor) Run(title string, fullscreen, showCursor bool) error {
	ebiten.SetWindowSize(int(c.width), int(c.height))
	ebiten.SetWindowTitle(title)
	c.setFullscreen(fullscreen)
	c.setCursor(showCursor)

	err := ebiten.RunGame(c)
	if errors.Is(err, errQuit) {
		return nil
	}
	return err
}

// Update implements ebiten.Game: poll input (§4.L), then render a tick
// if the frame-delay boundary has elapsed (§4.J steps 1-3).
func (c *Compositor) Update() error {
	c.pollControlSurface()
	if c.quit || c.quitSignal.Load() {
		return errQuit
	}

	now := time.Now()
	if c.lastTick.IsZero() || now.Sub(c.lastTick) >= c.frameDelay {
		c.lastTick = now
		c.tick()
	}
	return nil
}

func (c *Compositor) tick() {
	c.list.Render(c.target)
	if c.rec != nil {
		if err := c.rec.Record(c.target); err != nil {
			c.log.Warn().Src("compositor").Msgf("record: %v", err)
		}
	}
	c.screenImg.WritePixels(c.target.Image().Pix)
}

// pollControlSurface implements spec §4.L: F11 fullscreen, F10 cursor,
// F9 OSC dump, Escape quit.
func (c *Compositor) pollControlSurface() {
	if inpututil.IsKeyJustPressed(ebiten.KeyF11) {
		c.setFullscreen(!c.fullscreen)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF10) {
		c.setCursor(!c.cursorOn)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF9) && c.dump != nil {
		c.dump.SetDump(!c.dump.Dump())
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		c.quit = true
	}
}

func (c *Compositor) setFullscreen(on bool) {
	c.fullscreen = on
	ebiten.SetFullscreen(on)
}

func (c *Compositor) setCursor(on bool) {
	c.cursorOn = on
	if on {
		ebiten.SetCursorMode(ebiten.CursorModeVisible)
	} else {
		ebiten.SetCursorMode(ebiten.CursorModeHidden)
	}
}

// RequestQuit asks the render loop to exit at its next Update, the way
// a SIGINT/SIGTERM handler running outside ebiten's goroutine needs to
// since ebiten.RunGame itself must be driven from the main goroutine.
func (c *Compositor) RequestQuit() {
	c.quitSignal.Store(true)
}

// Draw implements ebiten.Game: present whatever tick() last composited.
// ebiten calls Draw once per vsync regardless of Update's cadence, so
// this may redraw the same frame more than once between ticks — that's
// the intended effect of decoupling presentation rate from §4.J's
// configurable compositor framerate.
func (c *Compositor) Draw(screen *ebiten.Image) {
	screen.DrawImage(c.screenImg, nil)
}

// Layout implements ebiten.Game with a fixed logical screen size; this
// compositor targets one fixed resolution for its process lifetime
// (spec §1 Non-goals: no runtime resize, no multi-display).
func (c *Compositor) Layout(int, int) (int, int) {
	return int(c.width), int(c.height)
}
