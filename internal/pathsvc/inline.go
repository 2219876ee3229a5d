package pathsvc

import (
	"context"

	"github.com/Garsondee/Arena-Sense/internal/nav"
)

// Inline answers requests on the caller's goroutine and parks the result
// on a buffered channel, so it still arrives no earlier than the caller's
// next drain. Runs that must be reproducible from a seed use it in place
// of a Service.
type Inline struct {
	grid    *nav.Grid
	results chan Result
}

var _ Client = (*Inline)(nil)

// NewInline builds an inline client over a fresh size×size grid.
func NewInline(size int, cellSize float64, queue int) *Inline {
	if queue <= 0 {
		queue = 256
	}
	return &Inline{
		grid:    nav.NewGrid(size, cellSize),
		results: make(chan Result, queue),
	}
}

func (in *Inline) RegisterWall(ctx context.Context, w Wall) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	in.grid.RegisterObstacle(w.CenterX, w.CenterZ, w.HalfWidth, w.HalfDepth)
	return nil
}

func (in *Inline) Submit(r Request) error {
	if len(in.results) == cap(in.results) {
		return ErrQueueFull
	}
	in.results <- Result{
		RequesterID: r.RequesterID,
		Seq:         r.Seq,
		Path:        in.grid.FindPath(r.Start, r.Goal),
	}
	return nil
}

func (in *Inline) Results() <-chan Result { return in.results }
