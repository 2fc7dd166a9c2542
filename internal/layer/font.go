package layer

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/image/font/opentype"
)

// fontCache memoizes parsed font files by resolved path. Spec §4.G only
// asks for per-(path,size) face reuse, but parsing the font file itself
// is the expensive part, so the cache is keyed by path alone; a face at
// a new size is built cheaply from the cached *opentype.Font.
type fontCache struct {
	mu    sync.Mutex
	fonts map[string]*opentype.Font
}

var fonts = &fontCache{fonts: make(map[string]*opentype.Font)}

func (c *fontCache) load(path string) (*opentype.Font, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if f, ok := c.fonts[path]; ok {
		return f, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read font %q: %w", path, err)
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font %q: %w", path, err)
	}
	c.fonts[path] = f
	return f, nil
}

// resolveFontPath implements §4.G's font-path resolution: an absolute
// path is used verbatim; a relative path is joined to the platform font
// directory root.
func resolveFontPath(path, fontDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(fontDir, path)
}
