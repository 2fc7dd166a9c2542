// Package recorder implements the idle/recording state machine of spec
// §4.K, encoding composited frames to a video file via an ffmpeg
// subprocess transport (grounded on the teacher's pkg/ffmpeg process
// wrapper) instead of a hand-rolled muxer/encoder.
package recorder

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rhaberkorn/osc-graphics/internal/log"
	"github.com/rhaberkorn/osc-graphics/internal/surface"
)

type state int

const (
	idle state = iota
	recording
)

// newEncoderFunc is overridden in tests to avoid shelling out to ffmpeg.
type newEncoderFunc func(filename, codec string, width, height, framerate uint, logger *log.Logger) (Encoder, error)

// Recorder is non-reentrant: Start/Stop/Record all hold the same lock
// for their full duration, matching spec §5's "Recorder has its own
// independent lock; it is acquired only by itself."
type Recorder struct {
	mu sync.Mutex

	width, height uint
	framerate     uint
	log           *log.Logger
	newEncoder    newEncoderFunc

	state     state
	encoder   Encoder
	startTime time.Time
	lastPTS   int64
	frameDur  time.Duration
}

// New returns an idle Recorder for a screen of (width, height) rendered
// at framerate Hz. width/height must be even (enforced by
// internal/config at startup, per SPEC_FULL.md §9's resolution of the
// "pixel-format conversion context sizing" open question).
func New(width, height, framerate uint, logger *log.Logger) *Recorder {
	return &Recorder{
		width:      width,
		height:     height,
		framerate:  framerate,
		log:        logger,
		newEncoder: defaultNewEncoder,
		frameDur:   time.Second / time.Duration(framerate),
	}
}

func defaultNewEncoder(filename, codec string, width, height, framerate uint, logger *log.Logger) (Encoder, error) {
	return newFFmpegEncoder(filename, codec, width, height, framerate, logger)
}

// Start implements spec §4.K's start(filename, codecname?): atomically
// stop any in-progress encode, guess the codec from the filename
// extension if codecName is empty, and open the encoder transport.
func (r *Recorder) Start(filename, codecName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == recording {
		if err := r.stopLocked(); err != nil {
			r.log.Warn().Src("recorder").Msgf("stop previous recording: %v", err)
		}
	}

	codec := codecName
	if codec == "" {
		codec = guessCodec(filename)
	}

	enc, err := r.newEncoder(filename, codec, r.width, r.height, r.framerate, r.log)
	if err != nil {
		return fmt.Errorf("recorder: start: %w", err)
	}

	r.encoder = enc
	r.startTime = time.Now()
	r.lastPTS = -1
	r.state = recording
	r.log.Info().Src("recorder").Msgf("recording started: %s (codec=%s)", filename, codec)
	return nil
}

// guessCodec maps a filename extension to a default video codec, the
// Go-native equivalent of spec §4.K's "guessing from the filename
// extension, defaulting to a fallback container".
func guessCodec(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".mpg", ".mpeg":
		return "mpeg2video"
	case ".m1v":
		return "mpeg1video"
	case ".webm":
		return "vp9"
	default:
		return "libx264"
	}
}

// Stop implements spec §4.K's stop(): flush and release the encoder.
func (r *Recorder) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopLocked()
}

func (r *Recorder) stopLocked() error {
	if r.state != recording {
		return nil
	}
	err := r.encoder.Close()
	r.encoder = nil
	r.state = idle
	if err != nil {
		return fmt.Errorf("recorder: stop: %w", err)
	}
	r.log.Info().Src("recorder").Msg("recording stopped")
	return nil
}

// Record implements spec §4.K's record(surf): a no-op when idle,
// otherwise computes pts from wall-clock elapsed time since start,
// skips non-monotonic ticks, and writes the frame to the encoder.
func (r *Recorder) Record(surf *surface.Surface) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != recording {
		return nil
	}

	pts := int64(time.Since(r.startTime) / r.frameDur)
	if pts <= r.lastPTS {
		return nil
	}
	r.lastPTS = pts

	if err := r.encoder.Write(surf.Image().Pix); err != nil {
		return fmt.Errorf("recorder: write frame: %w", err)
	}
	return nil
}

// Recording reports whether a recording is currently in progress.
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state == recording
}
