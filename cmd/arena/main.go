package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/charmbracelet/log"
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/Garsondee/Arena-Sense/internal/game"
	"github.com/Garsondee/Arena-Sense/internal/pathsvc"
)

func main() {
	var (
		configPath string
		watch      bool
		backend    string
		natsURL    string
		population int
		autopilot  bool
		seed       int64
		debug      bool
	)
	flag.StringVar(&configPath, "config", "", "YAML config file (defaults are used when empty)")
	flag.BoolVar(&watch, "watch", false, "reload tuning when the config file changes")
	flag.StringVar(&backend, "paths", pathsvc.BackendWorkers, "path backend: inline, workers or nats")
	flag.StringVar(&natsURL, "nats-url", "", "NATS server for -paths=nats (empty starts an embedded one)")
	flag.IntVar(&population, "population", 8, "agents kept alive in the arena")
	flag.BoolVar(&autopilot, "autopilot", false, "start with the player under autopilot")
	flag.Int64Var(&seed, "seed", 1, "simulation RNG seed")
	flag.BoolVar(&debug, "debug", false, "debug logging")
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true, Prefix: "arena"})
	if debug {
		logger.SetLevel(log.DebugLevel)
	}

	cfg := game.DefaultConfig()
	if configPath != "" {
		var err error
		if cfg, err = game.LoadConfig(configPath); err != nil {
			logger.Fatal("load config", "err", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	paths, closePaths, err := pathsvc.Open(ctx, pathsvc.BackendConfig{
		Kind:     backend,
		Size:     cfg.Grid.Size,
		CellSize: cfg.Grid.CellSize,
		Workers:  cfg.Paths.Workers,
		Queue:    cfg.Paths.QueueSize,
		Subject:  cfg.Paths.Subject,
		NATSURL:  natsURL,
		Logger:   logger,
	})
	if err != nil {
		logger.Fatal("open path backend", "backend", backend, "err", err)
	}
	defer closePaths()

	sim, err := game.NewSimulation(cfg, paths, nil,
		game.WithSeed(seed),
		game.WithLogger(logger.WithPrefix("sim")),
	)
	if err != nil {
		logger.Fatal("new simulation", "err", err)
	}
	if err := sim.BuildWorld(ctx); err != nil {
		logger.Fatal("build world", "err", err)
	}

	opts := game.ViewerOptions{Population: population, Autopilot: autopilot, Logger: logger}
	if watch && configPath != "" {
		w, err := game.WatchConfig(configPath)
		if err != nil {
			logger.Fatal("watch config", "err", err)
		}
		defer w.Close()
		opts.Watcher = w
		logger.Info("watching config", "path", configPath)
	}
	viewer, err := game.NewViewer(sim, opts)
	if err != nil {
		logger.Fatal("new viewer", "err", err)
	}

	w, h := viewer.Size()
	ebiten.SetWindowTitle("Arena Sense")
	ebiten.SetWindowSize(w, h)
	logger.Info("starting", "paths", backend, "population", population, "seed", seed)
	if err := ebiten.RunGame(viewer); err != nil {
		logger.Error("run", "err", err)
	}
}
