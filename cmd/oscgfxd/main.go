// Command oscgfxd is the process entrypoint: parse flags, then hand
// off to oscgfx.Run on the main goroutine (ebiten requires this).
package main

import (
	"fmt"
	"os"

	oscgfx "github.com/rhaberkorn/osc-graphics"
	"github.com/rhaberkorn/osc-graphics/internal/config"
)

func main() {
	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "oscgfxd:", err)
		os.Exit(1)
	}

	if err := oscgfx.Run(cfg); err != nil {
		fmt.Fprintln(os.Stderr, "oscgfxd:", err)
		os.Exit(1)
	}
}
