// Package config implements the two-layer configuration scheme of
// SPEC_FULL.md §2.2: CLI flags (spec.md §6) override an optional
// config.yaml supplying defaults, following the split between
// environment and general configuration in the teacher's
// pkg/storage/storage.go (ConfigEnv/ConfigGeneral).
package config

import (
	"flag"
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Config is the fully resolved runtime configuration: file defaults
// with flag overrides already applied.
type Config struct {
	Port       string `yaml:"port"`
	Width      uint   `yaml:"width"`
	Height     uint   `yaml:"height"`
	BPP        uint   `yaml:"bpp"`
	Framerate  uint   `yaml:"framerate"`
	Fullscreen bool   `yaml:"fullscreen"`
	Cursor     bool   `yaml:"cursor"`
	FontDir    string `yaml:"fontDir"`
	LogDBPath  string `yaml:"logDbPath"`
}

// Default returns the baseline configuration used when neither a config
// file nor a flag overrides a field.
func Default() Config {
	return Config{
		Port:       "7770",
		Width:      1280,
		Height:     720,
		BPP:        32,
		Framerate:  20,
		Fullscreen: false,
		Cursor:     true,
		FontDir:    "/usr/share/fonts/truetype",
		LogDBPath:  "oscgfx-log.db",
	}
}

// flagSpec mirrors spec.md §6's CLI table exactly, plus the -C flag
// SPEC_FULL.md §6 adds for selecting the config file.
type flagSpec struct {
	help             bool
	port             string
	toggleFullscreen bool
	toggleCursor     bool
	width, height    uint
	bpp              uint
	framerate        uint
	configPath       string
}

// Parse resolves a Config from args (normally os.Args[1:]): it loads
// configPath's YAML (if given) for defaults, then applies any flags the
// caller actually passed. Flags not passed leave the file/default value
// untouched.
func Parse(args []string) (Config, error) {
	fs := flag.NewFlagSet("oscgfx", flag.ContinueOnError)

	var spec flagSpec
	fs.BoolVar(&spec.help, "h", false, "print usage and exit")
	fs.StringVar(&spec.port, "p", "", "OSC listen port")
	fs.BoolVar(&spec.toggleFullscreen, "f", false, "toggle fullscreen at startup")
	fs.BoolVar(&spec.toggleCursor, "c", false, "toggle cursor visibility at startup")
	fs.UintVar(&spec.width, "W", 0, "screen width in pixels")
	fs.UintVar(&spec.height, "H", 0, "screen height in pixels")
	fs.UintVar(&spec.bpp, "B", 0, "bits per pixel")
	fs.UintVar(&spec.framerate, "F", 0, "compositor framerate in Hz")
	fs.StringVar(&spec.configPath, "C", "", "path to config.yaml")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if spec.help {
		fs.Usage()
		os.Exit(0)
	}

	cfg := Default()
	if spec.configPath != "" {
		loaded, err := loadFile(spec.configPath)
		if err != nil {
			return Config{}, err
		}
		cfg = mergeDefaults(loaded, cfg)
	}

	if spec.port != "" {
		cfg.Port = spec.port
	}
	if spec.toggleFullscreen {
		cfg.Fullscreen = !cfg.Fullscreen
	}
	if spec.toggleCursor {
		cfg.Cursor = !cfg.Cursor
	}
	if spec.width != 0 {
		cfg.Width = spec.width
	}
	if spec.height != 0 {
		cfg.Height = spec.height
	}
	if spec.bpp != 0 {
		cfg.BPP = spec.bpp
	}
	if spec.framerate != 0 {
		cfg.Framerate = spec.framerate
	}

	if cfg.Width%2 != 0 || cfg.Height%2 != 0 {
		return Config{}, fmt.Errorf("screen dimensions must be even (got %dx%d): required by the recorder's pixel-format converter", cfg.Width, cfg.Height)
	}

	return cfg, nil
}

func loadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// mergeDefaults fills zero-valued fields of loaded with fallback's
// values, so an incomplete config.yaml doesn't zero out unspecified
// fields.
func mergeDefaults(loaded, fallback Config) Config {
	if loaded.Port == "" {
		loaded.Port = fallback.Port
	}
	if loaded.Width == 0 {
		loaded.Width = fallback.Width
	}
	if loaded.Height == 0 {
		loaded.Height = fallback.Height
	}
	if loaded.BPP == 0 {
		loaded.BPP = fallback.BPP
	}
	if loaded.Framerate == 0 {
		loaded.Framerate = fallback.Framerate
	}
	if loaded.FontDir == "" {
		loaded.FontDir = fallback.FontDir
	}
	if loaded.LogDBPath == "" {
		loaded.LogDBPath = fallback.LogDBPath
	}
	return loaded
}
