package main

import (
	"flag"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/milk9111/jointsync/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	scenePath := flag.String("scene", cfg.ScenePath, "scene file to load")
	debug := flag.Bool("debug", cfg.Debug, "enable debug logging")
	flag.Parse()
	cfg.ScenePath = *scenePath
	cfg.Debug = *debug

	logger, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	viewer, err := NewViewer(cfg, logger)
	if err != nil {
		log.Fatal(err)
	}
	defer viewer.Close()

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(baseWidth, baseHeight)
	ebiten.SetWindowTitle("jointsync")
	ebiten.SetTPS(cfg.TickRate)

	if err := ebiten.RunGame(viewer); err != nil {
		log.Fatal(err)
	}
}
