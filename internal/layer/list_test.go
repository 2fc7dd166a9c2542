package layer

import (
	"testing"

	"github.com/rhaberkorn/osc-graphics/internal/surface"
)

// fakeLayer records how many times Frame was called and whether the
// caller held its lock, without pulling in any concrete layer kind.
type fakeLayer struct {
	*Base
	frames         int
	unlockedFrames int
}

func newFake(name string) *fakeLayer {
	return &fakeLayer{Base: NewBase(name, 100, 100)}
}

func (f *fakeLayer) Frame(target *surface.Surface) {
	f.frames++
	if f.Base.mu.TryLock() {
		f.Base.mu.Unlock()
		f.unlockedFrames++
	}
}
func (f *fakeLayer) SetGeo(r surface.Rect) { f.Base.SetGeoRaw(r) }
func (f *fakeLayer) SetAlpha(a float64)    { f.Base.SetAlphaRaw(a) }

func TestListInsertOrder(t *testing.T) {
	l := NewList()
	a, b, c := newFake("a"), newFake("b"), newFake("c")

	if !l.Insert(0, a) {
		t.Fatal("insert a failed")
	}
	if !l.Insert(1, b) { // append after a
		t.Fatal("insert b failed")
	}
	if !l.Insert(1, c) { // splice between a and b
		t.Fatal("insert c failed")
	}

	got := l.Names()
	want := []string{"a", "c", "b"}
	if len(got) != len(want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Names() = %v, want %v", got, want)
		}
	}
}

func TestListInsertDuplicateNameRejected(t *testing.T) {
	l := NewList()
	a1, a2 := newFake("a"), newFake("a")
	if !l.Insert(0, a1) {
		t.Fatal("first insert should succeed")
	}
	if l.Insert(0, a2) {
		t.Fatal("duplicate name insert should fail")
	}
	if l.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", l.Len())
	}
}

func TestListDeleteThenReinsertSucceeds(t *testing.T) {
	l := NewList()
	a := newFake("x")
	l.Insert(0, a)
	got, ok := l.Delete("x")
	if !ok || got != Layer(a) {
		t.Fatalf("Delete() = %v, %v", got, ok)
	}
	if _, ok := l.Delete("x"); ok {
		t.Fatal("second delete of same name should fail")
	}
	if !l.Insert(0, newFake("x")) {
		t.Fatal("reinsert of freed name should succeed")
	}
}

func TestListRenderLocksEachLayerExactlyOnce(t *testing.T) {
	l := NewList()
	a, b := newFake("a"), newFake("b")
	l.Insert(0, a)
	l.Insert(1, b)

	target := surface.New(10, 10)
	l.Render(target)

	if a.frames != 1 || b.frames != 1 {
		t.Fatalf("frames = %d,%d, want 1,1", a.frames, b.frames)
	}
	if a.unlockedFrames != 0 || b.unlockedFrames != 0 {
		t.Fatalf("Frame called without the layer lock held: %d,%d", a.unlockedFrames, b.unlockedFrames)
	}
}

func TestListRenderOrderFrontToBack(t *testing.T) {
	l := NewList()
	a, b, c := newFake("a"), newFake("b"), newFake("c")
	l.Insert(0, a)
	l.Insert(1, b)
	l.Insert(2, c)

	order := l.Names()
	want := []string{"a", "b", "c"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}
