package recorder

import (
	"errors"
	"testing"

	"github.com/rhaberkorn/osc-graphics/internal/log"
	"github.com/rhaberkorn/osc-graphics/internal/surface"
)

type fakeEncoder struct {
	frames [][]byte
	closed bool
	writeErr error
}

func (f *fakeEncoder) Write(frame []byte) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	cp := make([]byte, len(frame))
	copy(cp, frame)
	f.frames = append(f.frames, cp)
	return nil
}
func (f *fakeEncoder) Close() error { f.closed = true; return nil }

func newTestRecorder(t *testing.T) (*Recorder, *fakeEncoder) {
	t.Helper()
	l := log.New()
	t.Cleanup(l.Close)

	r := New(64, 64, 20, l)
	var fe *fakeEncoder
	r.newEncoder = func(filename, codec string, width, height, framerate uint, logger *log.Logger) (Encoder, error) {
		fe = &fakeEncoder{}
		return fe, nil
	}
	return r, fe
}

func TestRecorderIdleRecordIsNoop(t *testing.T) {
	r, _ := newTestRecorder(t)
	target := surface.New(64, 64)
	if err := r.Record(target); err != nil {
		t.Fatal(err)
	}
}

func TestRecorderStartRecordStop(t *testing.T) {
	r, _ := newTestRecorder(t)
	if err := r.Start("out.mp4", ""); err != nil {
		t.Fatal(err)
	}
	if !r.Recording() {
		t.Fatal("expected Recording() true after Start")
	}

	target := surface.New(64, 64)
	if err := r.Record(target); err != nil {
		t.Fatal(err)
	}

	if err := r.Stop(); err != nil {
		t.Fatal(err)
	}
	if r.Recording() {
		t.Fatal("expected Recording() false after Stop")
	}
}

func TestRecorderStartTwiceStopsPrevious(t *testing.T) {
	r, _ := newTestRecorder(t)
	var encoders []*fakeEncoder
	r.newEncoder = func(filename, codec string, width, height, framerate uint, logger *log.Logger) (Encoder, error) {
		fe := &fakeEncoder{}
		encoders = append(encoders, fe)
		return fe, nil
	}

	if err := r.Start("a.mp4", ""); err != nil {
		t.Fatal(err)
	}
	if err := r.Start("b.mp4", ""); err != nil {
		t.Fatal(err)
	}

	if len(encoders) != 2 {
		t.Fatalf("expected 2 encoders created, got %d", len(encoders))
	}
	if !encoders[0].closed {
		t.Fatal("previous recording's encoder should have been closed")
	}
}

func TestRecorderNonMonotonicPTSSkipped(t *testing.T) {
	r, _ := newTestRecorder(t)
	if err := r.Start("out.mp4", ""); err != nil {
		t.Fatal(err)
	}

	r.lastPTS = 1 << 30 // force every future tick to look non-monotonic
	target := surface.New(64, 64)
	if err := r.Record(target); err != nil {
		t.Fatal(err)
	}

	fe, ok := r.encoder.(*fakeEncoder)
	if !ok {
		t.Fatal("encoder not a fakeEncoder")
	}
	if len(fe.frames) != 0 {
		t.Fatalf("expected 0 frames written after forcing non-monotonic pts, got %d", len(fe.frames))
	}
}

func TestRecorderWriteErrorPropagates(t *testing.T) {
	r, _ := newTestRecorder(t)
	r.newEncoder = func(filename, codec string, width, height, framerate uint, logger *log.Logger) (Encoder, error) {
		return &fakeEncoder{writeErr: errors.New("pipe closed")}, nil
	}
	if err := r.Start("out.mp4", ""); err != nil {
		t.Fatal(err)
	}

	target := surface.New(64, 64)
	if err := r.Record(target); err == nil {
		t.Fatal("expected write error to propagate")
	}
}

func TestGuessCodec(t *testing.T) {
	cases := map[string]string{
		"out.mpg":  "mpeg2video",
		"out.mpeg": "mpeg2video",
		"out.m1v":  "mpeg1video",
		"out.webm": "vp9",
		"out.mp4":  "libx264",
		"out":      "libx264",
	}
	for name, want := range cases {
		if got := guessCodec(name); got != want {
			t.Errorf("guessCodec(%q) = %q, want %q", name, got, want)
		}
	}
}
