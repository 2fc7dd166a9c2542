package layer

import (
	"sync"

	"github.com/rhaberkorn/osc-graphics/internal/surface"
)

// node is one link in the ordered layer list. Identity (pointer equality
// on *node) is what List.Delete removes by, per spec §9's "linked-list
// layer list" design note: the value here is position-stability under
// concurrent mutation, not asymptotic speed.
type node struct {
	layer Layer
	prev  *node
	next  *node
}

// List is the ordered, lockable layer stack (§4.H). The front of the
// list is drawn first (bottom of the stack); later entries draw on top.
//
// Lock order, never violated anywhere in this codebase: List lock, then
// a layer lock. Render acquires both; the OSC create/delete path
// acquires only the List lock; OSC parameter handlers acquire only a
// single layer lock. See spec §5.
type List struct {
	mu         sync.Mutex
	head, tail *node
	byName     map[string]*node
}

// NewList returns an empty layer list.
func NewList() *List {
	return &List{byName: make(map[string]*node)}
}

// Insert splices layer into the list at position pos, counted from the
// head; if the list is shorter than pos, it is appended at the tail.
// Returns false (and inserts nothing) if a layer with the same name
// already exists, preserving the name-uniqueness invariant in spec §3.
func (l *List) Insert(pos int, lay Layer) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.byName[lay.Name()]; exists {
		return false
	}

	n := &node{layer: lay}
	l.byName[lay.Name()] = n

	cur := l.head
	for i := 0; i < pos && cur != nil; i++ {
		cur = cur.next
	}

	if cur == nil {
		// Append at tail (pos >= length, or empty list).
		if l.tail == nil {
			l.head, l.tail = n, n
		} else {
			n.prev = l.tail
			l.tail.next = n
			l.tail = n
		}
		return true
	}

	// Splice n before cur.
	n.next = cur
	n.prev = cur.prev
	if cur.prev != nil {
		cur.prev.next = n
	} else {
		l.head = n
	}
	cur.prev = n
	return true
}

// Delete unlinks the layer with the given name and returns it, or
// returns (nil, false) if no such layer exists. The caller is
// responsible for calling Close on the returned layer; List guarantees
// the renderer can no longer reach it the instant Delete returns,
// because the renderer only ever discovers layers while holding the
// List lock (§4.H's delete contract).
func (l *List) Delete(name string) (Layer, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	n, exists := l.byName[name]
	if !exists {
		return nil, false
	}
	delete(l.byName, name)

	if n.prev != nil {
		n.prev.next = n.next
	} else {
		l.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		l.tail = n.prev
	}
	return n.layer, true
}

// Get returns the named layer without removing it, for OSC parameter
// handlers that need to look a layer up before locking it.
func (l *List) Get(name string) (Layer, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	n, exists := l.byName[name]
	if !exists {
		return nil, false
	}
	return n.layer, true
}

// Len returns the current layer count.
func (l *List) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.byName)
}

// Render fills target with opaque black, then walks the list head to
// tail, locking each layer, calling Frame, and unlocking before moving
// to the next — never holding two layer locks at once (§8's universal
// property).
func (l *List) Render(target *surface.Surface) {
	surface.Clear(target)

	l.mu.Lock()
	defer l.mu.Unlock()

	for n := l.head; n != nil; n = n.next {
		n.layer.Lock()
		n.layer.Frame(target)
		n.layer.Unlock()
	}
}

// Names returns the current layer order front-to-back, for tests and
// diagnostics.
func (l *List) Names() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	names := make([]string, 0, len(l.byName))
	for n := l.head; n != nil; n = n.next {
		names = append(names, n.layer.Name())
	}
	return names
}
