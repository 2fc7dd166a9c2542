package osc

import (
	"github.com/rhaberkorn/osc-graphics/internal/layer"
	"github.com/rhaberkorn/osc-graphics/internal/surface"
)

// RegisterLayerKinds wires the four concrete layer kinds (§4.D-§4.G)
// onto d via RegisterLayer/RegisterMethod, against list and the fixed
// screen dimensions every layer is constructed with. This is the
// concrete instantiation of the kind-agnostic helpers in register.go;
// a deployment adding a new layer kind would add one more call here.
func RegisterLayerKinds(d *Dispatcher, list *layer.List, screenW, screenH uint, fontDir string) {
	registerBox(d, list, screenW, screenH)
	registerImage(d, list, screenW, screenH)
	registerVideo(d, list, screenW, screenH)
	registerText(d, list, screenW, screenH, fontDir)
}

func registerBox(d *Dispatcher, list *layer.List, screenW, screenH uint) {
	RegisterLayer(d, list, "box", "iii", func(name string, geo surface.Rect, alpha float64, tail []interface{}) (layer.Layer, error) {
		c := surface.Color{R: uint8(tail[0].(int32)), G: uint8(tail[1].(int32)), B: uint8(tail[2].(int32))}
		b := layer.NewBox(name, screenW, screenH, geo, alpha, c)
		RegisterMethod(d, b, "color", "iii", func(l layer.Layer, args []interface{}) error {
			l.(*layer.Box).SetColor(surface.Color{
				R: uint8(args[0].(int32)), G: uint8(args[1].(int32)), B: uint8(args[2].(int32)),
			})
			return nil
		})
		return b, nil
	})
}

func registerImage(d *Dispatcher, list *layer.List, screenW, screenH uint) {
	RegisterLayer(d, list, "image", "s", func(name string, geo surface.Rect, alpha float64, tail []interface{}) (layer.Layer, error) {
		// NewImage always returns a usable layer even when the initial
		// decode fails (SPEC_FULL.md §9: image-load failure is
		// recoverable, not process-fatal); the decode error is still
		// logged through the dispatcher's logger.
		img, err := layer.NewImage(name, screenW, screenH, geo, alpha, tail[0].(string))
		if err != nil {
			d.log.Error().Src("osc").Msgf("/layer/new/image %q: %v", name, err)
		}
		RegisterMethod(d, img, "file", "s", func(l layer.Layer, args []interface{}) error {
			return l.(*layer.Image).SetFile(args[0].(string))
		})
		return img, nil
	})
}

func registerVideo(d *Dispatcher, list *layer.List, screenW, screenH uint) {
	RegisterLayer(d, list, "video", "s", func(name string, geo surface.Rect, alpha float64, tail []interface{}) (layer.Layer, error) {
		v := layer.NewVideo(name, screenW, screenH, geo, alpha, tail[0].(string))
		RegisterMethod(d, v, "url", "s", func(l layer.Layer, args []interface{}) error {
			return l.(*layer.Video).SetURL(args[0].(string))
		})
		RegisterMethod(d, v, "rate", "f", func(l layer.Layer, args []interface{}) error {
			l.(*layer.Video).SetRate(float64(args[0].(float32)))
			return nil
		})
		RegisterMethod(d, v, "position", "f", func(l layer.Layer, args []interface{}) error {
			return l.(*layer.Video).SetPosition(float64(args[0].(float32)))
		})
		RegisterMethod(d, v, "paused", "i", func(l layer.Layer, args []interface{}) error {
			l.(*layer.Video).SetPaused(args[0].(int32) != 0)
			return nil
		})
		return v, nil
	})
}

func registerText(d *Dispatcher, list *layer.List, screenW, screenH uint, fontDir string) {
	RegisterLayer(d, list, "text", "iiiss", func(name string, geo surface.Rect, alpha float64, tail []interface{}) (layer.Layer, error) {
		c := surface.Color{R: uint8(tail[0].(int32)), G: uint8(tail[1].(int32)), B: uint8(tail[2].(int32))}
		text := tail[3].(string)
		fontPath := tail[4].(string)

		t, err := layer.NewText(name, screenW, screenH, geo, alpha, c, text, fontPath, fontDir)
		if err != nil {
			return nil, err
		}

		RegisterMethod(d, t, "color", "iii", func(l layer.Layer, args []interface{}) error {
			return l.(*layer.Text).SetColor(surface.Color{
				R: uint8(args[0].(int32)), G: uint8(args[1].(int32)), B: uint8(args[2].(int32)),
			})
		})
		RegisterMethod(d, t, "text", "s", func(l layer.Layer, args []interface{}) error {
			return l.(*layer.Text).SetText(args[0].(string))
		})
		RegisterMethod(d, t, "style", "s", func(l layer.Layer, args []interface{}) error {
			return l.(*layer.Text).SetStyle(args[0].(string))
		})
		RegisterMethod(d, t, "font", "s", func(l layer.Layer, args []interface{}) error {
			return l.(*layer.Text).SetFont(args[0].(string))
		})
		return t, nil
	})
}
