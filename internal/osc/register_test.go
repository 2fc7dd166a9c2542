package osc

import (
	"testing"

	"github.com/rhaberkorn/osc-graphics/internal/layer"
	"github.com/rhaberkorn/osc-graphics/internal/log"
	"github.com/rhaberkorn/osc-graphics/internal/surface"
)

func TestRegisterLayerCreatesGeoAlphaAndDelete(t *testing.T) {
	d := NewDispatcher(log.New())
	list := layer.NewList()

	RegisterLayer(d, list, "box", "iii", func(name string, geo surface.Rect, alpha float64, tail []interface{}) (layer.Layer, error) {
		c := surface.Color{R: uint8(tail[0].(int32)), G: uint8(tail[1].(int32)), B: uint8(tail[2].(int32))}
		return layer.NewBox(name, 640, 480, geo, alpha, c), nil
	})

	d.Dispatch(Message{
		Path:  "/layer/new/box",
		Types: "isiiiifiii",
		Args: []interface{}{
			int32(0), "a",
			int32(0), int32(0), int32(100), int32(100),
			float32(1.0),
			int32(255), int32(0), int32(0),
		},
	})

	if list.Len() != 1 {
		t.Fatalf("expected 1 layer, got %d", list.Len())
	}

	lay, ok := list.Get("a")
	if !ok {
		t.Fatal("layer 'a' not found")
	}

	d.Dispatch(Message{Path: "/layer/a/geo", Types: "iiii", Args: []interface{}{int32(1), int32(2), int32(3), int32(4)}})
	if g := lay.(*layer.Box).Geo(); g.X != 1 || g.Y != 2 || g.Width != 3 || g.Height != 4 {
		t.Fatalf("geo not applied: %+v", g)
	}

	d.Dispatch(Message{Path: "/layer/a/alpha", Types: "f", Args: []interface{}{float32(0.5)}})
	if lay.(*layer.Box).AlphaFloat() != 0.5 {
		t.Fatalf("alpha not applied: %v", lay.(*layer.Box).AlphaFloat())
	}

	d.Dispatch(Message{Path: "/layer/a/delete", Types: ""})
	if list.Len() != 0 {
		t.Fatal("layer not removed after delete")
	}
	if _, ok := list.Get("a"); ok {
		t.Fatal("layer still reachable after delete")
	}
}

func TestRegisterLayerDuplicateNameLogsWithoutCrashing(t *testing.T) {
	d := NewDispatcher(log.New())
	list := layer.NewList()

	RegisterLayer(d, list, "box", "iii", func(name string, geo surface.Rect, alpha float64, tail []interface{}) (layer.Layer, error) {
		return layer.NewBox(name, 640, 480, geo, alpha, surface.Color{}), nil
	})

	msg := Message{
		Path:  "/layer/new/box",
		Types: "isiiiifiii",
		Args: []interface{}{
			int32(0), "dup",
			int32(0), int32(0), int32(10), int32(10),
			float32(1.0),
			int32(0), int32(0), int32(0),
		},
	}
	d.Dispatch(msg)
	d.Dispatch(msg) // second insert of the same name must not panic

	if list.Len() != 1 {
		t.Fatalf("expected exactly 1 surviving layer, got %d", list.Len())
	}
}
