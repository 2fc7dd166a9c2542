// Package oscgfx wires the compositor's subsystems together: config,
// logging, the layer stack, the OSC engine, and the recorder. cmd/
// oscgfxd's main is a thin wrapper around Run, mirroring the teacher's
// split between nvr.Run and its newApp.
package oscgfx

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rhaberkorn/osc-graphics/internal/compositor"
	"github.com/rhaberkorn/osc-graphics/internal/config"
	"github.com/rhaberkorn/osc-graphics/internal/layer"
	"github.com/rhaberkorn/osc-graphics/internal/log"
	"github.com/rhaberkorn/osc-graphics/internal/osc"
	"github.com/rhaberkorn/osc-graphics/internal/recorder"
	"github.com/rhaberkorn/osc-graphics/internal/sysstat"
)

const sysstatInterval = 10 * time.Second

// Run resolves cfg, wires every subsystem, and blocks in the
// compositor's render loop until the user quits or a termination
// signal arrives. It must be called from the process's main goroutine:
// ebiten.RunGame (inside internal/compositor) requires it.
func Run(cfg config.Config) error {
	logger := log.New()
	defer logger.Close()
	logger.LogToStdout()

	store, err := log.OpenStore(cfg.LogDBPath)
	if err != nil {
		return fmt.Errorf("open log store: %w", err)
	}
	defer store.Close()
	storeFeed, cancelStoreFeed := logger.Subscribe()
	defer cancelStoreFeed()
	go store.Run(storeFeed)

	logger.Info().Src("app").Msgf("starting on %dx%d @ %dHz, OSC port %s", cfg.Width, cfg.Height, cfg.Framerate, cfg.Port)

	list := layer.NewList()
	dispatcher := osc.NewDispatcher(logger)
	osc.RegisterLayerKinds(dispatcher, list, cfg.Width, cfg.Height, cfg.FontDir)

	server := osc.NewServer(dispatcher, logger)
	if err := server.Open(":" + cfg.Port); err != nil {
		return fmt.Errorf("open osc server: %w", err)
	}
	defer server.Close()

	rec := recorder.New(cfg.Width, cfg.Height, cfg.Framerate, logger)
	registerRecorderControl(dispatcher, rec)
	registerDumpControl(dispatcher)

	sys := sysstat.New(sysstatInterval, logger)
	sys.SetDumpSource(dispatcher)
	sysCtx, sysCancel := context.WithCancel(context.Background())
	defer sysCancel()
	go sys.Run(sysCtx)

	comp := compositor.New(list, rec, dispatcher, cfg.Width, cfg.Height, cfg.Framerate, logger)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)
	go func() {
		sig, ok := <-stop
		if !ok {
			return
		}
		logger.Info().Src("app").Msgf("received %v, stopping", sig)
		comp.RequestQuit()
	}()

	if err := comp.Run("oscgfx", cfg.Fullscreen, cfg.Cursor); err != nil {
		return fmt.Errorf("run compositor: %w", err)
	}

	if rec.Recording() {
		if err := rec.Stop(); err != nil {
			logger.Warn().Src("app").Msgf("stop recording on shutdown: %v", err)
		}
	}
	return nil
}

// registerRecorderControl wires spec §4.K's start/stop operations onto
// the network as /recorder/start and /recorder/stop, the recorder's
// only OSC-reachable surface.
func registerRecorderControl(d *osc.Dispatcher, rec *recorder.Recorder) {
	d.AddMethod("/recorder/start", "s", func(msg osc.Message) error {
		return rec.Start(msg.Args[0].(string), "")
	})
	d.AddMethod("/recorder/start", "ss", func(msg osc.Message) error {
		return rec.Start(msg.Args[0].(string), msg.Args[1].(string))
	})
	d.AddMethod("/recorder/stop", "", func(osc.Message) error {
		return rec.Stop()
	})
}

// registerDumpControl wires SPEC_FULL.md §6's /osc/dump path onto the
// same dispatcher-level dump flag the F9 key toggles.
func registerDumpControl(d *osc.Dispatcher) {
	d.AddMethod("/osc/dump", "i", func(msg osc.Message) error {
		d.SetDump(msg.Args[0].(int32) != 0)
		return nil
	})
}
