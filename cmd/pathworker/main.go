// Command pathworker hosts the path service on NATS so a simulation
// started with -paths=nats can search off-process.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/nats-io/nats.go"

	"github.com/Garsondee/Arena-Sense/internal/game"
	"github.com/Garsondee/Arena-Sense/internal/pathsvc"
)

func main() {
	var (
		configPath string
		natsURL    string
		embedded   bool
		workers    int
		debug      bool
	)
	flag.StringVar(&configPath, "config", "", "YAML config file for grid and path settings")
	flag.StringVar(&natsURL, "nats-url", nats.DefaultURL, "NATS server to serve on")
	flag.BoolVar(&embedded, "embedded", false, "start an embedded NATS server and print its URL")
	flag.IntVar(&workers, "workers", 0, "worker goroutines (0 uses the config)")
	flag.BoolVar(&debug, "debug", false, "debug logging")
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true, Prefix: "pathworker"})
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
	if workers <= 0 {
		workers = cfg.Paths.Workers
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if embedded {
		ns, err := pathsvc.RunEmbeddedServer()
		if err != nil {
			logger.Fatal("embedded nats", "err", err)
		}
		defer ns.Shutdown()
		natsURL = ns.ClientURL()
		logger.Info("embedded nats ready", "url", natsURL)
	}

	nc, err := nats.Connect(natsURL, nats.Name("arena-pathworker"))
	if err != nil {
		logger.Fatal("connect", "url", natsURL, "err", err)
	}
	defer nc.Close()

	svc := pathsvc.New(cfg.Grid.Size, cfg.Grid.CellSize,
		pathsvc.WithWorkers(workers),
		pathsvc.WithQueueSize(cfg.Paths.QueueSize),
		pathsvc.WithLogger(logger),
	)
	svc.Start(ctx)
	defer svc.Close()

	if err := pathsvc.Serve(ctx, nc, svc, cfg.Paths.Subject, logger); err != nil {
		logger.Error("serve", "err", err)
		return
	}
	st := svc.Stats()
	logger.Info("shutdown", "served", st.Served, "rejected", st.Rejected)
}
