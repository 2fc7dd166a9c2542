package layer

import (
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"os"

	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/webp" // register WebP decoder

	"github.com/rhaberkorn/osc-graphics/internal/surface"
)

// ImageDecoder decodes a still-image file into a Surface. It is the
// out-of-scope "image decoder" collaborator from spec §1; the default
// implementation is the stdlib image package plus golang.org/x/image's
// BMP/WebP decoders, selected by content sniffing rather than extension.
type ImageDecoder func(path string) (*surface.Surface, error)

// DecodeImageFile is the default ImageDecoder.
func DecodeImageFile(path string) (*surface.Surface, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image %q: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode image %q: %w", path, err)
	}
	return surface.FromImage(img), nil
}
