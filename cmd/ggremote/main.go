// Command ggremote mirrors a remote scene received over websocket and
// renders it headlessly.
//
// Usage:
//
//	ggremote [-config path] [-write-config path]
//
// Settings come from the config file and GGREMOTE_* environment variables;
// see internal/config.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/gogpu/ggremote"
	"github.com/gogpu/ggremote/diff"
	"github.com/gogpu/ggremote/displaylist"
	_ "github.com/gogpu/ggremote/displaylist/backends/raster"
	"github.com/gogpu/ggremote/frame"
	"github.com/gogpu/ggremote/host"
	"github.com/gogpu/ggremote/internal/config"
	"github.com/gogpu/ggremote/listener"
	"github.com/gogpu/ggremote/scene"
	"github.com/gogpu/ggremote/text"
)

func main() {
	var (
		cfgPath   = flag.String("config", "", "TOML config file (default $GGREMOTE_CONFIG or "+config.DefaultPath()+")")
		writePath = flag.String("write-config", "", "write the effective config to this path and exit")
		version   = flag.Bool("version", false, "print the version and exit")
	)
	flag.Parse()

	if *version {
		fmt.Println("ggremote", ggremote.Version)
		return
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("ggremote: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("ggremote: invalid config:\n%v", err)
	}
	if *writePath != "" {
		if err := config.Save(cfg, *writePath); err != nil {
			log.Fatalf("ggremote: %v", err)
		}
		log.Printf("config written to %s", *writePath)
		return
	}

	logger := newLogger(cfg.Log)
	ggremote.SetLogger(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Error("ggremote: exiting", "err", err)
		os.Exit(1)
	}
}

func newLogger(c config.LogConfig) *slog.Logger {
	level, _ := c.SlogLevel()
	opts := &slog.HandlerOptions{Level: level}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func run(ctx context.Context, cfg config.Config) error {
	backend, err := displaylist.NewBackend(cfg.Render.Backend)
	if err != nil {
		return fmt.Errorf("render.backend: %w", err)
	}

	store := scene.NewStore()
	applier := diff.New(store)
	srv := listener.New(applier,
		listener.WithReadLimit(cfg.Listen.ReadLimit),
		listener.WithPath(cfg.Listen.Path))

	rt := host.NewRuntime(store, text.NewRegistry(nil), frame.WithShapeCacheSize(cfg.Render.ShapeCache))
	runner := host.NewRunner(rt,
		&host.BackendSink{Backend: backend, Output: cfg.Render.Output},
		displaylist.PipelineID(cfg.Render.Pipeline),
		scene.Size{Width: cfg.Render.Width, Height: cfg.Render.Height},
		cfg.Render.Interval)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = runner.Run(ctx)
	}()

	err = srv.ListenAndServe(ctx, cfg.Listen.Address)
	cancel()
	wg.Wait()

	ggremote.Logger().Info("ggremote: stopped",
		"frames", runner.Frames(),
		"messages", applier.Stats().Messages,
		"scene", store.Stats().Items)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
