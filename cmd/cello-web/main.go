package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"cello/internal/boot"
	"cello/internal/config"
	"cello/internal/web"

	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Parse(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}
	logger := cfg.Logger(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sys, err := boot.Start(ctx, cfg, boot.WithLogger(logger))
	if err != nil {
		log.Fatal(err)
	}
	defer sys.Stop()

	srv, err := web.NewServer(sys.Canvas, sys.Viewer, cfg.PublishInterval, cfg.Window, logger)
	if err != nil {
		log.Fatal(err)
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return sys.Viewer.Run(groupCtx, cfg.PublishInterval)
	})
	group.Go(func() error {
		return srv.Run(groupCtx, cfg.Addr)
	})
	if err := group.Wait(); err != nil {
		logger.Error("web viewer stopped", "err", err)
		return
	}
}
