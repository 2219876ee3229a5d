package game

import (
	"context"
	"testing"

	"github.com/Garsondee/Arena-Sense/internal/nav"
	"github.com/Garsondee/Arena-Sense/internal/pathsvc"
)

func mustTestSim(t *testing.T, opts ...SimOption) *TestSim {
	t.Helper()
	ts, err := NewTestSim(opts...)
	if err != nil {
		t.Fatalf("NewTestSim: %v", err)
	}
	return ts
}

// noSkipConfig disables frame amortization so every tick steers every
// agent.
func noSkipConfig() Config {
	cfg := DefaultConfig()
	cfg.Navigation.FrameSkip = false
	return cfg
}

// manualPaths records requests and only answers when the test says so.
type manualPaths struct {
	grid    *nav.Grid
	reqs    []pathsvc.Request
	results chan pathsvc.Result
	full    bool
}

func newManualPaths() *manualPaths {
	return &manualPaths{
		grid:    nav.NewGrid(nav.DefaultSize, nav.DefaultCellSize),
		results: make(chan pathsvc.Result, 64),
	}
}

func (m *manualPaths) RegisterWall(_ context.Context, w pathsvc.Wall) error {
	m.grid.RegisterObstacle(w.CenterX, w.CenterZ, w.HalfWidth, w.HalfDepth)
	return nil
}

func (m *manualPaths) Submit(r pathsvc.Request) error {
	if m.full {
		return pathsvc.ErrQueueFull
	}
	m.reqs = append(m.reqs, r)
	return nil
}

func (m *manualPaths) Results() <-chan pathsvc.Result { return m.results }

// answer computes and queues the result for request i.
func (m *manualPaths) answer(i int) pathsvc.Result {
	r := m.reqs[i]
	res := pathsvc.Result{RequesterID: r.RequesterID, Seq: r.Seq, Path: m.grid.FindPath(r.Start, r.Goal)}
	m.results <- res
	return res
}

// blockingWall sits across the line between an agent at z=10 and a
// target at z=20.
var blockingWall = WallConfig{X: 0, Y: 2, Z: 15, Width: 20, Height: 4, Depth: 1}

func pathResultFor(a *Agent, seq uint64) pathsvc.Result {
	return pathsvc.Result{
		RequesterID: a.ID(),
		Seq:         seq,
		Path:        []nav.Cell{{X: 1, Y: 1}, {X: 1, Y: 2}},
	}
}
