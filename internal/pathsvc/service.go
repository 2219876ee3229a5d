// Package pathsvc runs grid path searches off the simulation goroutine.
//
// Callers push walls and path requests in; results come back on a channel
// tagged with the requester's id and sequence number. Nothing is shared
// between the caller and the workers except the messages themselves: each
// worker keeps its own copy of the occupancy grid, kept current by the
// updateWall messages it receives.
package pathsvc

import (
	"context"
	"io"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/Garsondee/Arena-Sense/internal/nav"
)

// Client is the simulation's view of a path service.
type Client interface {
	RegisterWall(ctx context.Context, w Wall) error
	Submit(r Request) error
	Results() <-chan Result
}

// Stats counts traffic through a Service.
type Stats struct {
	Walls     int64
	Submitted int64
	Rejected  int64
	Served    int64
	Empty     int64
}

type options struct {
	workers int
	queue   int
	logger  *log.Logger
}

// Option configures a Service.
type Option func(*options)

// WithWorkers sets how many search goroutines run. Default 1.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithQueueSize sets the capacity of the inbox, each worker queue and the
// result channel. Default 256.
func WithQueueSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.queue = n
		}
	}
}

// WithLogger routes service logs to l. The default discards them.
func WithLogger(l *log.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Service owns a dispatcher goroutine and a set of workers. The dispatcher
// reads the inbox in order, copies every wall to all workers and hands each
// path request to one worker in turn, so a result always reflects every
// wall registered before its request was submitted.
type Service struct {
	size     int
	cellSize float64
	opts     options
	log      *log.Logger

	inbox    chan Message
	queues   []chan Message
	results  chan Result
	done     chan struct{}
	startMu  sync.Once
	closeMu  sync.Once
	wg       sync.WaitGroup
	started  atomic.Bool
	walls    atomic.Int64
	submits  atomic.Int64
	rejected atomic.Int64
	served   atomic.Int64
	empty    atomic.Int64
}

var _ Client = (*Service)(nil)

// New prepares a service for a size×size grid. Call Start to run it.
func New(size int, cellSize float64, opts ...Option) *Service {
	o := options{workers: 1, queue: 256, logger: log.New(io.Discard)}
	for _, fn := range opts {
		fn(&o)
	}
	s := &Service{
		size:     size,
		cellSize: cellSize,
		opts:     o,
		log:      o.logger.WithPrefix("pathsvc"),
		inbox:    make(chan Message, o.queue),
		results:  make(chan Result, o.queue),
		done:     make(chan struct{}),
	}
	s.queues = make([]chan Message, o.workers)
	for i := range s.queues {
		s.queues[i] = make(chan Message, o.queue)
	}
	return s
}

// Start launches the dispatcher and workers. The service stops when ctx is
// cancelled or Close is called. Calling Start more than once is a no-op.
func (s *Service) Start(ctx context.Context) {
	s.startMu.Do(func() {
		s.started.Store(true)
		base := nav.NewGrid(s.size, s.cellSize)
		for i, q := range s.queues {
			s.wg.Add(1)
			go s.work(i, base.Clone(), q)
		}
		s.wg.Add(1)
		go s.dispatch()
		go func() {
			select {
			case <-ctx.Done():
				s.Close()
			case <-s.done:
			}
		}()
		s.log.Info("started", "workers", len(s.queues), "grid", s.size, "queue", s.opts.queue)
	})
}

// Close stops every goroutine and closes the result channel. Safe to call
// more than once.
func (s *Service) Close() {
	s.closeMu.Do(func() {
		close(s.done)
		s.wg.Wait()
		close(s.results)
		st := s.Stats()
		s.log.Info("stopped", "served", st.Served, "rejected", st.Rejected)
	})
}

// RegisterWall queues a wall for every worker. It blocks until the inbox
// accepts the message, ctx ends or the service closes.
func (s *Service) RegisterWall(ctx context.Context, w Wall) error {
	select {
	case <-s.done:
		return ErrClosed
	default:
	}
	select {
	case s.inbox <- WallMessage(w):
		s.walls.Add(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return ErrClosed
	}
}

// Submit queues a path request without blocking. It returns ErrQueueFull
// when the inbox is full.
func (s *Service) Submit(r Request) error {
	select {
	case <-s.done:
		return ErrClosed
	default:
	}
	select {
	case s.inbox <- RequestMessage(r):
		s.submits.Add(1)
		return nil
	default:
		s.rejected.Add(1)
		return ErrQueueFull
	}
}

// Results delivers answers in completion order, which need not match
// submission order. The channel is closed by Close.
func (s *Service) Results() <-chan Result { return s.results }

// Stats returns a snapshot of the traffic counters.
func (s *Service) Stats() Stats {
	return Stats{
		Walls:     s.walls.Load(),
		Submitted: s.submits.Load(),
		Rejected:  s.rejected.Load(),
		Served:    s.served.Load(),
		Empty:     s.empty.Load(),
	}
}

func (s *Service) dispatch() {
	defer s.wg.Done()
	next := 0
	for {
		select {
		case <-s.done:
			return
		case m := <-s.inbox:
			switch m.Kind {
			case KindUpdateWall:
				for _, q := range s.queues {
					if !s.forward(q, m) {
						return
					}
				}
			case KindFindPath:
				if !s.forward(s.queues[next], m) {
					return
				}
				next = (next + 1) % len(s.queues)
			default:
				s.log.Warn("dropping message", "kind", m.Kind)
			}
		}
	}
}

func (s *Service) forward(q chan<- Message, m Message) bool {
	select {
	case q <- m:
		return true
	case <-s.done:
		return false
	}
}

func (s *Service) work(id int, grid *nav.Grid, in <-chan Message) {
	defer s.wg.Done()
	wlog := s.log.With("worker", id)
	for {
		select {
		case <-s.done:
			return
		case m := <-in:
			switch m.Kind {
			case KindUpdateWall:
				grid.RegisterObstacle(m.CenterX, m.CenterZ, m.HalfWidth, m.HalfDepth)
			case KindFindPath:
				req, err := m.Request()
				if err != nil {
					wlog.Warn("bad request", "err", err)
					continue
				}
				path := grid.FindPath(req.Start, req.Goal)
				if len(path) == 0 {
					s.empty.Add(1)
				}
				wlog.Debug("path", "requester", req.RequesterID, "seq", req.Seq, "steps", nav.PathLength(path))
				select {
				case s.results <- Result{RequesterID: req.RequesterID, Seq: req.Seq, Path: path}:
					s.served.Add(1)
				case <-s.done:
					return
				}
			}
		}
	}
}
