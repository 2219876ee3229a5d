package pathsvc

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/nats-io/nats.go"
)

// Backend names accepted by Open.
const (
	BackendInline  = "inline"
	BackendWorkers = "workers"
	BackendNATS    = "nats"
)

// ErrUnknownBackend is returned by Open for a backend it does not know.
var ErrUnknownBackend = errors.New("pathsvc: unknown backend")

// BackendConfig selects and sizes a path backend.
type BackendConfig struct {
	Kind     string
	Size     int
	CellSize float64
	Workers  int
	Queue    int
	Subject  string
	// NATSURL is the server a nats backend connects to. Empty starts an
	// embedded server with an in-process worker pool behind it.
	NATSURL string
	Logger  *log.Logger
}

// Open builds the Client named by cfg.Kind. The returned stop function
// releases everything Open started; it is never nil.
func Open(ctx context.Context, cfg BackendConfig) (Client, func(), error) {
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard)
	}
	nop := func() {}
	switch cfg.Kind {
	case "", BackendInline:
		return NewInline(cfg.Size, cfg.CellSize, cfg.Queue), nop, nil
	case BackendWorkers:
		svc := New(cfg.Size, cfg.CellSize,
			WithWorkers(cfg.Workers), WithQueueSize(cfg.Queue), WithLogger(cfg.Logger))
		svc.Start(ctx)
		return svc, svc.Close, nil
	case BackendNATS:
		return openNATS(ctx, cfg)
	default:
		return nil, nop, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Kind)
	}
}

func openNATS(ctx context.Context, cfg BackendConfig) (Client, func(), error) {
	var stops []func()
	stop := func() {
		for i := len(stops) - 1; i >= 0; i-- {
			stops[i]()
		}
	}
	url := cfg.NATSURL
	if url == "" {
		ns, err := RunEmbeddedServer()
		if err != nil {
			return nil, func() {}, err
		}
		stops = append(stops, ns.Shutdown)
		url = ns.ClientURL()

		wc, err := nats.Connect(url, nats.Name("arena-pathworker"))
		if err != nil {
			stop()
			return nil, func() {}, fmt.Errorf("pathsvc: connect worker: %w", err)
		}
		stops = append(stops, wc.Close)

		sctx, cancel := context.WithCancel(ctx)
		svc := New(cfg.Size, cfg.CellSize,
			WithWorkers(cfg.Workers), WithQueueSize(cfg.Queue), WithLogger(cfg.Logger))
		svc.Start(sctx)
		srv, err := Listen(sctx, wc, svc, cfg.Subject, cfg.Logger)
		if err != nil {
			cancel()
			svc.Close()
			stop()
			return nil, func() {}, err
		}
		served := make(chan struct{})
		go func() {
			defer close(served)
			if err := srv.Run(); err != nil {
				cfg.Logger.Error("serve", "err", err)
			}
		}()
		stops = append(stops, func() {
			cancel()
			<-served
			svc.Close()
		})
	}

	nc, err := nats.Connect(url, nats.Name("arena-sim"))
	if err != nil {
		stop()
		return nil, func() {}, fmt.Errorf("pathsvc: connect %s: %w", url, err)
	}
	stops = append(stops, nc.Close)
	remote, err := NewRemote(nc, cfg.Subject, cfg.Queue, cfg.Logger)
	if err != nil {
		stop()
		return nil, func() {}, err
	}
	stops = append(stops, func() { _ = remote.Close() })
	return remote, stop, nil
}
