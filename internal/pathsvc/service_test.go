package pathsvc

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Garsondee/Arena-Sense/internal/nav"
)

// gapWalls blocks row 5 of a 10×10 grid except column 5.
var gapWalls = []Wall{
	{CenterX: -2.5, CenterZ: 0.5, HalfWidth: 2.5, HalfDepth: 0.5},
	{CenterX: 3, CenterZ: 0.5, HalfWidth: 2, HalfDepth: 0.5},
}

func collect(t *testing.T, ch <-chan Result, n int) []Result {
	t.Helper()
	var out []Result
	timeout := time.After(3 * time.Second)
	for len(out) < n {
		select {
		case r, ok := <-ch:
			if !ok {
				t.Fatalf("results closed after %d of %d", len(out), n)
			}
			out = append(out, r)
		case <-timeout:
			t.Fatalf("timed out after %d of %d results", len(out), n)
		}
	}
	return out
}

func startService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	svc := New(10, 1, opts...)
	ctx, cancel := context.WithCancel(context.Background())
	svc.Start(ctx)
	t.Cleanup(func() {
		cancel()
		svc.Close()
	})
	return svc
}

func TestService_FindPathThroughGap(t *testing.T) {
	svc := startService(t, WithWorkers(2))
	for _, w := range gapWalls {
		if err := svc.RegisterWall(context.Background(), w); err != nil {
			t.Fatalf("register wall: %v", err)
		}
	}

	id := uuid.New()
	if err := svc.Submit(Request{Start: nav.Cell{X: 0, Y: 0}, Goal: nav.Cell{X: 9, Y: 9}, RequesterID: id, Seq: 1}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	res := collect(t, svc.Results(), 1)[0]
	if res.RequesterID != id || res.Seq != 1 {
		t.Fatalf("result tagged %v/%d, want %v/1", res.RequesterID, res.Seq, id)
	}
	if nav.PathLength(res.Path) != 18 {
		t.Fatalf("expected 18 steps, got %d", nav.PathLength(res.Path))
	}
	through := false
	for _, c := range res.Path {
		if c == (nav.Cell{X: 5, Y: 5}) {
			through = true
		}
	}
	if !through {
		t.Fatal("path should cross the gap at (5,5)")
	}
}

func TestService_EveryWorkerSeesEarlierWalls(t *testing.T) {
	svc := startService(t, WithWorkers(4))
	// Seal row 5 completely.
	if err := svc.RegisterWall(context.Background(), Wall{CenterX: 0, CenterZ: 0.5, HalfWidth: 5, HalfDepth: 0.5}); err != nil {
		t.Fatalf("register wall: %v", err)
	}
	const n = 12
	for i := 0; i < n; i++ {
		req := Request{Start: nav.Cell{X: i % 10, Y: 0}, Goal: nav.Cell{X: 9, Y: 9}, RequesterID: uuid.New(), Seq: 1}
		if err := svc.Submit(req); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}
	for _, r := range collect(t, svc.Results(), n) {
		if len(r.Path) != 0 {
			t.Fatalf("worker answered with a path through a sealed wall: %v", r.Path)
		}
	}
	if st := svc.Stats(); st.Empty != n || st.Served != n {
		t.Fatalf("expected %d empty results, stats %+v", n, st)
	}
}

func TestService_ResultsMatchRequesters(t *testing.T) {
	svc := startService(t, WithWorkers(3))
	want := make(map[uuid.UUID]uint64)
	for i := 0; i < 20; i++ {
		id := uuid.New()
		seq := uint64(i + 1)
		want[id] = seq
		if err := svc.Submit(Request{Start: nav.Cell{X: 0, Y: i % 10}, Goal: nav.Cell{X: 9, Y: 0}, RequesterID: id, Seq: seq}); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}
	for _, r := range collect(t, svc.Results(), len(want)) {
		seq, ok := want[r.RequesterID]
		if !ok {
			t.Fatalf("result for unknown requester %v", r.RequesterID)
		}
		if seq != r.Seq {
			t.Fatalf("requester %v: seq %d, want %d", r.RequesterID, r.Seq, seq)
		}
		if len(r.Path) == 0 {
			t.Fatal("open grid should always have a path")
		}
		delete(want, r.RequesterID)
	}
}

func TestService_SubmitNeverBlocks(t *testing.T) {
	svc := New(10, 1, WithQueueSize(1))
	defer svc.Close()

	req := Request{RequesterID: uuid.New()}
	if err := svc.Submit(req); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if err := svc.Submit(req); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
	if st := svc.Stats(); st.Rejected != 1 {
		t.Fatalf("expected 1 rejected, got %d", st.Rejected)
	}
}

func TestService_ClosedRejectsWork(t *testing.T) {
	svc := New(10, 1)
	svc.Start(context.Background())
	svc.Close()
	svc.Close()

	if err := svc.Submit(Request{RequesterID: uuid.New()}); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed from Submit, got %v", err)
	}
	if err := svc.RegisterWall(context.Background(), Wall{}); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed from RegisterWall, got %v", err)
	}
	if _, ok := <-svc.Results(); ok {
		t.Fatal("results channel should be closed")
	}
}

func TestService_ContextCancelStops(t *testing.T) {
	svc := New(10, 1)
	ctx, cancel := context.WithCancel(context.Background())
	svc.Start(ctx)
	cancel()

	select {
	case _, ok := <-svc.Results():
		if ok {
			t.Fatal("unexpected result")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("service did not stop after cancel")
	}
}

func TestInline_DeliversOnChannel(t *testing.T) {
	in := NewInline(10, 1, 2)
	for _, w := range gapWalls {
		if err := in.RegisterWall(context.Background(), w); err != nil {
			t.Fatal(err)
		}
	}
	id := uuid.New()
	if err := in.Submit(Request{Start: nav.Cell{X: 0, Y: 0}, Goal: nav.Cell{X: 9, Y: 9}, RequesterID: id, Seq: 4}); err != nil {
		t.Fatal(err)
	}
	if err := in.Submit(Request{RequesterID: id, Seq: 5}); err != nil {
		t.Fatal(err)
	}
	if err := in.Submit(Request{RequesterID: id, Seq: 6}); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
	r := <-in.Results()
	if r.Seq != 4 || nav.PathLength(r.Path) != 18 {
		t.Fatalf("unexpected first result seq=%d steps=%d", r.Seq, nav.PathLength(r.Path))
	}
}
