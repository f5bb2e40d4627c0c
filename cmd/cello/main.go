//go:build ebiten

package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"

	"cello/internal/app"
	"cello/internal/boot"
	"cello/internal/config"

	"github.com/hajimehoshi/ebiten/v2"
)

func main() {
	cfg, err := config.Parse(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}
	logger := cfg.Logger(os.Stderr)

	sys, err := boot.Start(context.Background(), cfg, boot.WithLogger(logger))
	if err != nil {
		log.Fatal(err)
	}
	defer sys.Stop()

	game := app.New(sys)
	ebiten.SetWindowTitle("Cell-O!")
	ebiten.SetTPS(cfg.TPS)
	ebiten.SetWindowSize(game.WindowSize())

	if err := ebiten.RunGame(game); err != nil && !errors.Is(err, ebiten.Termination) {
		log.Fatal(err)
	}
}
