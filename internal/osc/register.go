package osc

import (
	"fmt"

	"github.com/rhaberkorn/osc-graphics/internal/layer"
	"github.com/rhaberkorn/osc-graphics/internal/surface"
)

// closer is satisfied by every concrete layer through its embedded
// *layer.Base; it lets this package hook deregistration into Close
// without layer.Layer itself depending on osc.Handle (layer.Base.OnClose
// stores only opaque cleanup closures).
type closer interface {
	OnClose(func())
}

// Constructor builds one concrete layer kind from the common
// position/name/geo/alpha prefix and the kind-specific tail arguments
// that followed them in the `/layer/new/<kind>` message.
type Constructor func(name string, geo surface.Rect, alpha float64, tail []interface{}) (layer.Layer, error)

// RegisterLayer installs the `/layer/new/<kindName>` constructor per
// spec §4.I: full signature `is iiii f <ctorTypes>` (position, name,
// geometry, alpha, then ctorTypes). On receipt it builds the layer,
// inserts it into list at the requested position, installs the
// `/layer/<name>/delete` handler, and — per §4.C — the `geo`/`alpha`
// handlers every layer kind shares.
func RegisterLayer(d *Dispatcher, list *layer.List, kindName, ctorTypes string, ctor Constructor) {
	types := "isiiiif" + ctorTypes
	path := "/layer/new/" + kindName

	d.AddMethod(path, types, func(msg Message) error {
		a := msg.Args
		pos := int(a[0].(int32))
		name := a[1].(string)
		geo := surface.Rect{
			X:      int(a[2].(int32)),
			Y:      int(a[3].(int32)),
			Width:  uint(a[4].(int32)),
			Height: uint(a[5].(int32)),
		}
		alpha := float64(a[6].(float32))
		tail := a[7:]

		lay, err := ctor(name, geo, alpha, tail)
		if err != nil {
			return fmt.Errorf("construct %s %q: %w", kindName, name, err)
		}
		if !list.Insert(pos, lay) {
			return fmt.Errorf("layer %q already exists", name)
		}

		deleteHandle := d.AddMethod(fmt.Sprintf("/layer/%s/delete", name), "", func(Message) error {
			removed, ok := list.Delete(name)
			if !ok {
				return nil
			}
			removed.Close()
			return nil
		})

		if c, ok := lay.(closer); ok {
			c.OnClose(func() { d.DelMethod(deleteHandle) })
		}

		RegisterMethod(d, lay, "geo", "iiii", func(l layer.Layer, args []interface{}) error {
			l.SetGeo(surface.Rect{
				X:      int(args[0].(int32)),
				Y:      int(args[1].(int32)),
				Width:  uint(args[2].(int32)),
				Height: uint(args[3].(int32)),
			})
			return nil
		})
		RegisterMethod(d, lay, "alpha", "f", func(l layer.Layer, args []interface{}) error {
			l.SetAlpha(float64(args[0].(float32)))
			return nil
		})

		return nil
	})
}

// RegisterMethod installs `/layer/<layer.Name()>/<subpath>` per spec
// §4.I: invoking it locks the layer, calls cb, unlocks. The handle is
// torn down automatically when the layer closes.
func RegisterMethod(d *Dispatcher, lay layer.Layer, subpath, types string, cb func(layer.Layer, []interface{}) error) Handle {
	path := fmt.Sprintf("/layer/%s/%s", lay.Name(), subpath)
	h := d.AddMethod(path, types, func(msg Message) error {
		lay.Lock()
		defer lay.Unlock()
		return cb(lay, msg.Args)
	})
	if c, ok := lay.(closer); ok {
		c.OnClose(func() { d.DelMethod(h) })
	}
	return h
}

// UnregisterMethod removes a method installed by RegisterMethod before
// the owning layer closes. Named to mirror spec §4.I's
// register_method/unregister_method pair; most callers never need it
// since OnClose already handles the common case.
func UnregisterMethod(d *Dispatcher, h Handle) {
	d.DelMethod(h)
}
