package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cello/internal/boot"
	"cello/internal/config"
	"cello/internal/tty"

	"github.com/gdamore/tcell/v2"
)

func main() {
	logPath := flag.String("log-file", "", "write logs to this file instead of discarding them")
	cfg, err := config.Parse(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}

	var out io.Writer = io.Discard
	if *logPath != "" {
		f, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()
		out = f
	}
	logger := cfg.Logger(out)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sys, err := boot.Start(ctx, cfg, boot.WithLogger(logger))
	if err != nil {
		log.Fatal(err)
	}
	defer sys.Stop()

	screen, err := tcell.NewScreen()
	if err != nil {
		log.Fatalf("creating screen: %v", err)
	}
	if err := screen.Init(); err != nil {
		log.Fatalf("initializing screen: %v", err)
	}
	defer screen.Fini()
	screen.Clear()

	r := tty.New(screen, sys.Viewer, sys, sys.Canvas, logger)
	if err := r.Run(ctx, cfg.TPS); err != nil {
		logger.Error("terminal viewer stopped", "err", err)
	}
	logger.Info("terminal viewer closed", "uptime", time.Since(sys.Canvas.Started()).Truncate(time.Second))
}
