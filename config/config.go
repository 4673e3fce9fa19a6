// Package config parses rstationx's command-line configuration. The PSX
// emulator has no device-tree-style config file the way rcornwell-S370
// does; it needs only a handful of flags, so this mirrors S370's flat
// Config-struct idiom without the file-parsing machinery.
package config

import (
	"errors"
	"fmt"

	getopt "github.com/pborman/getopt/v2"
)

// ErrHelp signals that --help was requested and usage has already been
// printed; the caller should exit 0 rather than report a configuration
// error.
var ErrHelp = errors.New("config: help requested")

// Renderer selects the Renderer backend.
type Renderer string

const (
	RendererNull   Renderer = "null"
	RendererEbiten Renderer = "ebiten"
)

// Config is the flat set of values the CLI needs to boot the machine.
type Config struct {
	BIOSPath     string
	Renderer     Renderer
	Debug        bool
	DebugConsole bool
}

// FromFlags parses args (excluding the program name) in the style of
// rcornwell-S370's main.go: long options via getopt, -h/--help prints
// usage. BIOSPath is required; everything else has a default.
func FromFlags(args []string) (Config, error) {
	biosPath := getopt.StringLong("bios", 'b', "", "Path to the PSX BIOS image (required)")
	rendererKind := getopt.StringLong("renderer", 'r', string(RendererEbiten), "Renderer backend: null|ebiten")
	debug := getopt.BoolLong("debug", 'd', "Enable debug-level logging")
	debugConsole := getopt.BoolLong("debug-console", 0, "Start the interactive debug console instead of running freely")
	help := getopt.BoolLong("help", 'h', "Show usage")

	// getopt.CommandLine.Getopt follows the same argv[0]-is-the-command-name
	// convention as os.Args, so args is parsed with a placeholder program
	// name prepended rather than passed through as-is.
	if err := getopt.CommandLine.Getopt(append([]string{"rstationx"}, args...), nil); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if *help {
		getopt.Usage()
		return Config{}, ErrHelp
	}
	if *biosPath == "" {
		return Config{}, fmt.Errorf("config: --bios is required")
	}

	r := Renderer(*rendererKind)
	if r != RendererNull && r != RendererEbiten {
		return Config{}, fmt.Errorf("config: unknown renderer %q", *rendererKind)
	}

	return Config{
		BIOSPath:     *biosPath,
		Renderer:     r,
		Debug:        *debug,
		DebugConsole: *debugConsole,
	}, nil
}
