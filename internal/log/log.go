// Package log implements the fluent, level-based logger every other
// package reports through (spec §7's ambient logging requirement).
// The API is modeled on the teacher's pkg/log: a chained
// Level().Src().Msg() builder feeding a broadcast channel that zero or
// more sinks (stdout, a bbolt-backed ring buffer) subscribe to.
package log

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
)

// Level mirrors ffmpeg's loglevel numbering, since video playback and
// recording both shell out to ffmpeg and the recorder folds its ffmpeg
// stderr lines into the same feed (internal/recorder). The video
// decoder (internal/layer/video_decoder.go) does not capture ffmpeg's
// stderr.
type Level uint8

const (
	LevelError   Level = 16
	LevelWarning Level = 24
	LevelInfo    Level = 32
	LevelDebug   Level = 48
)

func (l Level) String() string {
	switch l {
	case LevelError:
		return "ERROR"
	case LevelWarning:
		return "WARNING"
	case LevelInfo:
		return "INFO"
	case LevelDebug:
		return "DEBUG"
	default:
		return "?"
	}
}

// Entry is one delivered log record.
type Entry struct {
	Time   time.Time
	Level  Level
	Src    string // component name, e.g. "osc", "compositor", "recorder"
	Caller string // file:line of the Error()/Warn()/Info()/Debug() call site
	Msg    string
}

// Event is the in-flight builder returned by Logger.Error/Warn/Info/Debug.
// Callers chain Src and finish with Msg or Msgf; an Event that is never
// finished with Msg is simply discarded.
type Event struct {
	level  Level
	time   time.Time
	caller string
	src    string
	logger *Logger
}

// Src sets the component name for this event and returns it for chaining.
func (e *Event) Src(name string) *Event {
	e.src = name
	return e
}

// Msg finishes the event and delivers it to every subscriber.
func (e *Event) Msg(msg string) {
	e.logger.feed <- Entry{
		Time:   e.time,
		Level:  e.level,
		Src:    e.src,
		Caller: e.caller,
		Msg:    msg,
	}
}

// Msgf finishes the event with a formatted message.
func (e *Event) Msgf(format string, v ...interface{}) {
	e.Msg(fmt.Sprintf(format, v...))
}

type feed chan Entry

// Logger is a broadcaster: every finished Event is fanned out to every
// currently subscribed feed. With no subscribers, finished events are
// simply dropped on the floor rather than blocking the caller.
type Logger struct {
	feed  feed
	sub   chan feed
	unsub chan feed
	done  chan struct{}
	wg    sync.WaitGroup
}

// New starts a Logger's broadcast loop. Call Close to stop it.
func New() *Logger {
	l := &Logger{
		feed:  make(feed),
		sub:   feed2chan(),
		unsub: feed2chan(),
		done:  make(chan struct{}),
	}
	l.wg.Add(1)
	go l.run()
	return l
}

func feed2chan() chan feed { return make(chan feed) }

func (l *Logger) run() {
	defer l.wg.Done()
	subs := map[feed]struct{}{}
	for {
		select {
		case <-l.done:
			for ch := range subs {
				close(ch)
			}
			return
		case ch := <-l.sub:
			subs[ch] = struct{}{}
		case ch := <-l.unsub:
			if _, ok := subs[ch]; ok {
				close(ch)
				delete(subs, ch)
			}
		case e := <-l.feed:
			for ch := range subs {
				select {
				case ch <- e:
				default: // slow subscriber; drop rather than stall the logger.
				}
			}
		}
	}
}

// Close stops the broadcast loop and closes every live subscription.
func (l *Logger) Close() {
	close(l.done)
	l.wg.Wait()
}

// CancelFunc ends a Subscribe subscription.
type CancelFunc func()

// Subscribe returns a channel of every Entry delivered from this point on.
func (l *Logger) Subscribe() (<-chan Entry, CancelFunc) {
	ch := make(feed, 64)
	l.sub <- ch
	return ch, func() {
		select {
		case l.unsub <- ch:
		case <-l.done:
		}
	}
}

func caller() string {
	_, file, line, ok := runtime.Caller(2)
	if !ok {
		return "?"
	}
	return fmt.Sprintf("%s:%d", filepath.Base(file), line)
}

// Error starts an error-level event.
func (l *Logger) Error() *Event { return &Event{level: LevelError, time: time.Now(), caller: caller(), logger: l} }

// Warn starts a warning-level event.
func (l *Logger) Warn() *Event { return &Event{level: LevelWarning, time: time.Now(), caller: caller(), logger: l} }

// Info starts an info-level event.
func (l *Logger) Info() *Event { return &Event{level: LevelInfo, time: time.Now(), caller: caller(), logger: l} }

// Debug starts a debug-level event.
func (l *Logger) Debug() *Event { return &Event{level: LevelDebug, time: time.Now(), caller: caller(), logger: l} }

// LogToStdout mirrors the feed to stdout until the subscription ends.
// Runs until the returned CancelFunc is called or the Logger is closed.
func (l *Logger) LogToStdout() CancelFunc {
	ch, cancel := l.Subscribe()
	go func() {
		for e := range ch {
			printEntry(e)
		}
	}()
	return cancel
}

func printEntry(e Entry) {
	var b strings.Builder
	b.WriteString(e.Time.Format("2006-01-02 15:04:05.000"))
	b.WriteByte(' ')
	b.WriteString("[" + e.Level.String() + "] ")
	if e.Src != "" {
		b.WriteString(e.Src + ": ")
	}
	b.WriteString(e.Msg)
	b.WriteString(" (" + e.Caller + ")")
	fmt.Println(b.String())
}
