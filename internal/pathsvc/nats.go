package pathsvc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
)

// DefaultSubject is the subject prefix used when none is given. Requests
// (walls and path queries) travel on <prefix>.requests and answers on
// <prefix>.results. Walls and queries share one subject so NATS keeps
// them in publish order.
const DefaultSubject = "arena.path"

func requestSubject(prefix string) string { return prefix + ".requests" }
func resultSubject(prefix string) string  { return prefix + ".results" }

// flushTimeout bounds a flush when the caller's context has no deadline.
const flushTimeout = 5 * time.Second

// Server exposes a Service on a NATS connection.
type Server struct {
	ctx    context.Context
	nc     *nats.Conn
	svc    *Service
	prefix string
	sub    *nats.Subscription
	log    *log.Logger
}

// Listen subscribes svc to the request subject under prefix and flushes,
// so the subscription is registered with the server when Listen returns.
// svc must already be started. Run publishes results and drops the
// subscription once ctx is cancelled.
func Listen(ctx context.Context, nc *nats.Conn, svc *Service, prefix string, logger *log.Logger) (*Server, error) {
	if prefix == "" {
		prefix = DefaultSubject
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	s := &Server{
		ctx:    ctx,
		nc:     nc,
		svc:    svc,
		prefix: prefix,
		log:    logger.WithPrefix("pathsvc.nats"),
	}
	sub, err := nc.Subscribe(requestSubject(prefix), s.handle)
	if err != nil {
		return nil, fmt.Errorf("pathsvc: subscribe %s: %w", requestSubject(prefix), err)
	}
	if err := flush(ctx, nc); err != nil {
		_ = sub.Unsubscribe()
		return nil, err
	}
	s.sub = sub
	s.log.Info("serving", "subject", prefix)
	return s, nil
}

func (s *Server) handle(msg *nats.Msg) {
	m, err := Decode(msg.Data)
	if err != nil {
		s.log.Warn("decode", "err", err)
		return
	}
	switch m.Kind {
	case KindUpdateWall:
		w, _ := m.Wall()
		if err := s.svc.RegisterWall(s.ctx, w); err != nil {
			s.log.Warn("register wall", "err", err)
		}
	case KindFindPath:
		req, err := m.Request()
		if err != nil {
			s.log.Warn("bad request", "err", err)
			return
		}
		if err := s.svc.Submit(req); err != nil {
			s.log.Debug("request dropped", "requester", req.RequesterID, "err", err)
		}
	}
}

// Run publishes results until the Listen context is cancelled, then drops
// the request subscription.
func (s *Server) Run() error {
	defer s.sub.Unsubscribe()
	for {
		select {
		case <-s.ctx.Done():
			return nil
		case r, ok := <-s.svc.Results():
			if !ok {
				if s.ctx.Err() != nil {
					return nil
				}
				return ErrClosed
			}
			data, err := Encode(ResultMessage(r))
			if err != nil {
				s.log.Error("encode result", "err", err)
				continue
			}
			if err := s.nc.Publish(resultSubject(s.prefix), data); err != nil {
				s.log.Warn("publish result", "err", err)
			}
		}
	}
}

// Serve exposes svc on nc until ctx is cancelled. svc must already be
// started.
func Serve(ctx context.Context, nc *nats.Conn, svc *Service, prefix string, logger *log.Logger) error {
	s, err := Listen(ctx, nc, svc, prefix, logger)
	if err != nil {
		return err
	}
	return s.Run()
}

// flush waits for the server to process everything published on nc.
// nats.go refuses a context without a deadline, so one is added.
func flush(ctx context.Context, nc *nats.Conn) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, flushTimeout)
		defer cancel()
	}
	if err := nc.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("pathsvc: flush: %w", err)
	}
	return nil
}

// Remote is a Client that talks to a Service hosted behind Serve.
type Remote struct {
	nc      *nats.Conn
	prefix  string
	sub     *nats.Subscription
	results chan Result
	log     *log.Logger
}

var _ Client = (*Remote)(nil)

// NewRemote subscribes to the result subject under prefix. Results that
// arrive while the local buffer is full are dropped; the requester will
// ask again after its replan interval.
func NewRemote(nc *nats.Conn, prefix string, queue int, logger *log.Logger) (*Remote, error) {
	if prefix == "" {
		prefix = DefaultSubject
	}
	if queue <= 0 {
		queue = 256
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	r := &Remote{
		nc:      nc,
		prefix:  prefix,
		results: make(chan Result, queue),
		log:     logger.WithPrefix("pathsvc.remote"),
	}
	sub, err := nc.Subscribe(resultSubject(prefix), func(msg *nats.Msg) {
		m, err := Decode(msg.Data)
		if err != nil {
			r.log.Warn("decode", "err", err)
			return
		}
		res, err := m.Result()
		if err != nil {
			r.log.Warn("bad result", "err", err)
			return
		}
		select {
		case r.results <- res:
		default:
			r.log.Debug("result dropped", "requester", res.RequesterID)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("pathsvc: subscribe %s: %w", resultSubject(prefix), err)
	}
	r.sub = sub
	return r, nil
}

// RegisterWall publishes w and waits for the server to acknowledge the
// flush, so walls are in place before the first query.
func (r *Remote) RegisterWall(ctx context.Context, w Wall) error {
	if err := r.publish(WallMessage(w)); err != nil {
		return err
	}
	return flush(ctx, r.nc)
}

// Submit publishes a path request. It does not wait for delivery.
func (r *Remote) Submit(req Request) error {
	return r.publish(RequestMessage(req))
}

func (r *Remote) Results() <-chan Result { return r.results }

// Close drops the result subscription.
func (r *Remote) Close() error {
	return r.sub.Unsubscribe()
}

func (r *Remote) publish(m Message) error {
	data, err := Encode(m)
	if err != nil {
		return err
	}
	if err := r.nc.Publish(requestSubject(r.prefix), data); err != nil {
		if errors.Is(err, nats.ErrConnectionClosed) {
			return ErrClosed
		}
		return fmt.Errorf("pathsvc: publish: %w", err)
	}
	return nil
}

// RunEmbeddedServer starts an in-process NATS server on a random loopback
// port and waits until it accepts connections.
func RunEmbeddedServer() (*server.Server, error) {
	ns, err := server.NewServer(&server.Options{
		Host:   "127.0.0.1",
		Port:   server.RANDOM_PORT,
		NoLog:  true,
		NoSigs: true,
	})
	if err != nil {
		return nil, fmt.Errorf("pathsvc: embedded nats: %w", err)
	}
	go ns.Start()
	if !ns.ReadyForConnections(5 * time.Second) {
		ns.Shutdown()
		return nil, errors.New("pathsvc: embedded nats not ready")
	}
	return ns, nil
}
