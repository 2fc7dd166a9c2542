package osc

import (
	"fmt"
	"sync"

	"github.com/rhaberkorn/osc-graphics/internal/log"
)

// Handler processes one dispatched Message. A non-nil error is logged
// by the Dispatcher but never stops the dispatch loop (spec §4.I: the
// OSC thread keeps running regardless of a single handler's outcome).
type Handler func(Message) error

// Handle identifies a registered method for later removal via DelMethod.
// It doubles as the lookup key (path, type-signature), matching spec
// §4.I's add_method/del_method contract; a types value of "" means "any
// type signature for this path".
type Handle struct {
	Path  string
	Types string
}

// Dispatcher is the mutex-guarded method table of spec §4.I:
// add_method/del_method plus the generic null/null handler, here fixed
// to the diagnostic dump behavior of §4.I's "Generic dump" note rather
// than left pluggable, since dump is the only generic consumer this
// spec ever needs.
type Dispatcher struct {
	mu      sync.Mutex
	methods map[Handle]Handler
	dump    bool
	log     *log.Logger
}

// NewDispatcher returns an empty Dispatcher.
func NewDispatcher(logger *log.Logger) *Dispatcher {
	return &Dispatcher{
		methods: make(map[Handle]Handler),
		log:     logger,
	}
}

// SetDump toggles the generic dump handler, reachable from both the F9
// key (internal/compositor) and the /osc/dump network path
// (SPEC_FULL.md §6).
func (d *Dispatcher) SetDump(on bool) {
	d.mu.Lock()
	d.dump = on
	d.mu.Unlock()
}

// Dump reports whether dump mode is currently on.
func (d *Dispatcher) Dump() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dump
}

// AddMethod installs h under (path, types) and returns a Handle for
// later removal. types == "" matches any type signature arriving at
// path when no more specific (path, exact-types) entry exists —
// "more-specific patterns win" per spec §4.I. Re-registering the same
// (path, types) replaces the previous handler.
func (d *Dispatcher) AddMethod(path, types string, h Handler) Handle {
	handle := Handle{Path: path, Types: types}
	d.mu.Lock()
	d.methods[handle] = h
	d.mu.Unlock()
	return handle
}

// DelMethod removes a previously installed method. Removing an unknown
// handle is a no-op.
func (d *Dispatcher) DelMethod(h Handle) {
	d.mu.Lock()
	delete(d.methods, h)
	d.mu.Unlock()
}

// Dispatch runs the generic dump handler (if enabled) then the most
// specific matching method for msg, in that order — mirroring §4.I's
// "generic null-null handler is always called first". A message that
// matches no method is silently dropped (protocol-soft, per §7).
func (d *Dispatcher) Dispatch(msg Message) {
	d.mu.Lock()
	dump := d.dump
	h, ok := d.methods[Handle{Path: msg.Path, Types: msg.Types}]
	if !ok {
		h, ok = d.methods[Handle{Path: msg.Path, Types: ""}]
	}
	d.mu.Unlock()

	if dump {
		d.log.Info().Src("osc").Msgf("%s ,%s %v", msg.Path, msg.Types, msg.Args)
	}
	if !ok {
		return
	}
	if err := h(msg); err != nil {
		d.log.Error().Src("osc").Msgf("%s: %v", msg.Path, fmt.Errorf("handler: %w", err))
	}
}
