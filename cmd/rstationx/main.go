// Command rstationx boots a PSX BIOS image, the way gintendo.go boots an
// NES ROM: parse flags, load the image, wire the machine, hand the
// presentation loop to ebiten (or run headless with the null renderer).
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/lptafa/rstationx/bios"
	"github.com/lptafa/rstationx/config"
	"github.com/lptafa/rstationx/logger"
	"github.com/lptafa/rstationx/renderer"
	"github.com/lptafa/rstationx/renderer/ebitenrenderer"
	"github.com/lptafa/rstationx/system"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.FromFlags(os.Args[1:])
	if err == config.ErrHelp {
		return 0
	}
	if err != nil {
		slog.New(logger.NewHandler(os.Stderr, nil)).Error("configuration error", "err", err)
		return 1
	}

	log := logger.New(os.Stderr, &cfg.Debug)

	f, err := os.Open(cfg.BIOSPath)
	if err != nil {
		log.Error("failed to open BIOS image", "path", cfg.BIOSPath, "err", err)
		return 1
	}
	defer f.Close()

	biosImage, err := bios.Load(f)
	if err != nil {
		log.Error("failed to load BIOS image", "path", cfg.BIOSPath, "err", err)
		return 1
	}

	if cfg.Renderer == config.RendererNull {
		return runHeadless(biosImage, log, cfg)
	}
	return runWindowed(biosImage, log, cfg)
}

func runHeadless(biosImage *bios.BIOS, log *slog.Logger, cfg config.Config) int {
	m := system.New(biosImage, &renderer.Null{}, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.DebugConsole {
		m.DebugConsole(ctx)
		return 0
	}

	m.Run(ctx)
	return 0
}

func runWindowed(biosImage *bios.BIOS, log *slog.Logger, cfg config.Config) int {
	r := ebitenrenderer.New()
	m := system.New(biosImage, r, log)

	ctx, cancel := context.WithCancel(context.Background())

	if cfg.DebugConsole {
		go m.DebugConsole(ctx)
	} else {
		go m.Run(ctx)
	}

	if err := ebiten.RunGame(ebitenrenderer.NewGame(r)); err != nil {
		log.Error("ebiten run loop exited with error", "err", err)
		cancel()
		return 1
	}

	cancel()
	return 0
}
