package game

import (
	"math"
	"testing"

	"github.com/Garsondee/Arena-Sense/internal/nav"
	"github.com/Garsondee/Arena-Sense/internal/pathsvc"
)

func TestNav_DirectWhenLineIsClear(t *testing.T) {
	ts := mustTestSim(t,
		WithConfig(noSkipConfig()),
		WithWalls(),
		WithTargetAt(0, 20, math.Pi),
		WithAgentAt(BehaviorMelee, 0, 10),
	)
	a := ts.Sim.Agents()[0]
	ts.RunTicks(1)

	if a.Mode() != ModeDirect {
		t.Fatalf("mode = %s, want direct", a.Mode())
	}
	if a.Path() != nil {
		t.Fatal("direct mode should clear the path")
	}
	if got := ts.Sim.Stats().PathRequests; got != 0 {
		t.Fatalf("direct steering issued %d path requests", got)
	}
	want := 10 + 2.0/60
	if math.Abs(a.Position().Z-want) > 1e-9 {
		t.Fatalf("z = %.6f, want %.6f", a.Position().Z, want)
	}
}

func TestNav_DirectStopsInsideMinimumDistance(t *testing.T) {
	ts := mustTestSim(t,
		WithConfig(noSkipConfig()),
		WithWalls(),
		WithTargetAt(0, 20, math.Pi),
		WithAgentAt(BehaviorRanged, 0, 19.6),
	)
	a := ts.Sim.Agents()[0]
	before := a.Position()
	ts.RunTicks(1)
	if a.Position() != before {
		t.Fatalf("agent within 0.5 of target moved from %+v to %+v", before, a.Position())
	}
}

func TestNav_PathWhenWallBlocks(t *testing.T) {
	ts := mustTestSim(t,
		WithConfig(noSkipConfig()),
		WithWalls(blockingWall),
		WithTargetAt(0, 20, math.Pi),
		WithAgentAt(BehaviorMelee, 0, 10),
	)
	a := ts.Sim.Agents()[0]

	ts.RunTicks(1)
	if a.Mode() != ModePath {
		t.Fatalf("mode = %s, want path", a.Mode())
	}
	if !a.PathPending() {
		t.Fatal("expected a request in flight after the first path tick")
	}

	ts.RunTicks(1)
	path := a.Path()
	if len(path) < 2 {
		t.Fatalf("expected a path after the result was drained, got %v", path)
	}
	goal := ts.Sim.Grid().WorldToCell(0, 20)
	if path[len(path)-1] != goal {
		t.Fatalf("path ends at %v, want %v", path[len(path)-1], goal)
	}
	for _, c := range path {
		if !ts.Sim.Grid().Walkable(c) {
			t.Fatalf("path crosses blocked cell %v", c)
		}
	}
	if a.PathPending() {
		t.Fatal("pending should clear once the matching result is applied")
	}
}

func TestNav_NoDuplicateRequestWhilePending(t *testing.T) {
	mp := newManualPaths()
	ts := mustTestSim(t,
		WithConfig(noSkipConfig()),
		WithWalls(blockingWall),
		WithPathClient(mp),
		WithTargetAt(0, 20, math.Pi),
		WithAgentAt(BehaviorMelee, 0, 10),
	)

	ts.RunTicks(60)
	if len(mp.reqs) != 1 {
		t.Fatalf("requests after 1s with no answer = %d, want 1", len(mp.reqs))
	}

	// The interval still forces a fresh request.
	ts.RunTicks(90)
	if len(mp.reqs) != 2 {
		t.Fatalf("requests after 2.5s = %d, want 2", len(mp.reqs))
	}
	if mp.reqs[1].Seq <= mp.reqs[0].Seq {
		t.Fatalf("sequence did not advance: %d then %d", mp.reqs[0].Seq, mp.reqs[1].Seq)
	}
}

func TestNav_OlderResultIsDiscarded(t *testing.T) {
	mp := newManualPaths()
	ts := mustTestSim(t,
		WithConfig(noSkipConfig()),
		WithWalls(blockingWall),
		WithPathClient(mp),
		WithTargetAt(0, 20, math.Pi),
		WithAgentAt(BehaviorMelee, 0, 10),
	)
	a := ts.Sim.Agents()[0]

	ts.RunTicks(150)
	if len(mp.reqs) != 2 {
		t.Fatalf("setup: want 2 requests, got %d", len(mp.reqs))
	}

	mp.answer(1)
	ts.RunTicks(1)
	applied := a.Path()
	if len(applied) == 0 {
		t.Fatal("newest result was not applied")
	}
	stale := ts.Sim.Stats().StaleResults

	// The first request's answer turns up late with a bogus route.
	mp.results <- pathsvc.Result{
		RequesterID: a.ID(),
		Seq:         mp.reqs[0].Seq,
		Path:        []nav.Cell{{X: 0, Y: 0}, {X: 0, Y: 1}},
	}
	ts.RunTicks(1)

	if got := ts.Sim.Stats().StaleResults; got != stale+1 {
		t.Fatalf("stale results = %d, want %d", got, stale+1)
	}
	path := a.Path()
	if len(path) == 0 || path[len(path)-1] != applied[len(applied)-1] {
		t.Fatalf("late result replaced the path: %v", path)
	}
}

func TestNav_ResultForRemovedAgentIsDropped(t *testing.T) {
	mp := newManualPaths()
	ts := mustTestSim(t,
		WithConfig(noSkipConfig()),
		WithWalls(blockingWall),
		WithPathClient(mp),
		WithTargetAt(0, 20, math.Pi),
		WithAgentAt(BehaviorMelee, 0, 10),
	)
	a := ts.Sim.Agents()[0]
	ts.RunTicks(1)
	if len(mp.reqs) != 1 {
		t.Fatalf("setup: want 1 request, got %d", len(mp.reqs))
	}

	if !ts.Sim.Remove(a.ID()) {
		t.Fatal("Remove reported the agent missing")
	}
	mp.answer(0)
	ts.RunTicks(1)

	if _, ok := ts.Sim.Agent(a.ID()); ok {
		t.Fatal("removed agent came back")
	}
	if got := ts.Sim.Stats().StaleResults; got != 1 {
		t.Fatalf("stale results = %d, want 1", got)
	}
	if a.Path() != nil {
		t.Fatal("removed agent received a path")
	}
}

func TestNav_ResultIgnoredAfterSwitchToDirect(t *testing.T) {
	mp := newManualPaths()
	ts := mustTestSim(t,
		WithConfig(noSkipConfig()),
		WithWalls(blockingWall),
		WithPathClient(mp),
		WithTargetAt(0, 20, math.Pi),
		WithAgentAt(BehaviorMelee, 0, 10),
	)
	a := ts.Sim.Agents()[0]
	ts.RunTicks(1)

	// Target steps out from behind the wall.
	ts.Sim.Player().SetPose(15, 10, -math.Pi/2)
	ts.RunTicks(1)
	if a.Mode() != ModeDirect {
		t.Fatalf("mode = %s, want direct", a.Mode())
	}

	mp.answer(0)
	ts.RunTicks(1)
	if a.Path() != nil {
		t.Fatalf("direct-mode agent took a path: %v", a.Path())
	}
	if got := ts.Sim.Stats().StaleResults; got != 1 {
		t.Fatalf("stale results = %d, want 1", got)
	}
}

func TestNav_QueueFullRetriesLater(t *testing.T) {
	mp := newManualPaths()
	mp.full = true
	ts := mustTestSim(t,
		WithConfig(noSkipConfig()),
		WithWalls(blockingWall),
		WithPathClient(mp),
		WithTargetAt(0, 20, math.Pi),
		WithAgentAt(BehaviorMelee, 0, 10),
	)
	a := ts.Sim.Agents()[0]
	ts.RunTicks(3)
	if a.PathPending() {
		t.Fatal("a rejected request must not count as pending")
	}
	if got := ts.Sim.Stats().PathRejected; got != 3 {
		t.Fatalf("rejections = %d, want one per tick", got)
	}

	mp.full = false
	ts.RunTicks(1)
	if len(mp.reqs) != 1 || !a.PathPending() {
		t.Fatalf("expected the retry to go through, reqs=%d pending=%v", len(mp.reqs), a.PathPending())
	}
}

// enclosure seals the cell under a target at (0, 20). The walls are cell
// aligned so the interior stays walkable.
func enclosure() []WallConfig {
	return []WallConfig{
		{X: 0, Y: 2, Z: 17.5, Width: 5, Height: 4, Depth: 1},
		{X: 0, Y: 2, Z: 22.5, Width: 5, Height: 4, Depth: 1},
		{X: -2.5, Y: 2, Z: 20, Width: 1, Height: 4, Depth: 6},
		{X: 2.5, Y: 2, Z: 20, Width: 1, Height: 4, Depth: 6},
	}
}

func TestNav_UnreachableRetriesOnlyOnInterval(t *testing.T) {
	ts := mustTestSim(t,
		WithConfig(noSkipConfig()),
		WithWalls(enclosure()...),
		WithTargetAt(0, 20, math.Pi),
		WithAgentAt(BehaviorMelee, 0, 5),
	)
	a := ts.Sim.Agents()[0]

	ts.RunTicks(2)
	if !a.Unreachable() {
		t.Fatal("empty result should mark the agent unreachable")
	}
	if a.Path() != nil {
		t.Fatalf("unreachable agent kept a path: %v", a.Path())
	}

	ts.RunTicks(58)
	if got := ts.Sim.Stats().PathRequests; got != 1 {
		t.Fatalf("requests within the interval = %d, want 1", got)
	}

	ts.RunTicks(90)
	if got := ts.Sim.Stats().PathRequests; got != 2 {
		t.Fatalf("requests after the interval = %d, want 2", got)
	}
	if a.Position() != (Vec3{0, 0, 5}) {
		t.Fatalf("agent with no route moved to %+v", a.Position())
	}
}

func TestNav_FollowsPathThroughGap(t *testing.T) {
	// Cell-aligned wall along z in [-1, 0] with a two-cell gap at x in [-1, 1].
	walls := []WallConfig{
		{X: -6.5, Y: 2, Z: -0.5, Width: 11, Height: 4, Depth: 1},
		{X: 6.5, Y: 2, Z: -0.5, Width: 11, Height: 4, Depth: 1},
	}
	ts := mustTestSim(t,
		WithWalls(walls...),
		WithTargetAt(8, 20, math.Pi),
		WithAgentAt(BehaviorMelee, 8, -10),
	)
	a := ts.Sim.Agents()[0]

	ts.RunTicks(2)
	if a.Mode() != ModePath {
		t.Fatalf("mode = %s, want path", a.Mode())
	}

	got := ts.RunUntil(func(ts *TestSim) bool {
		return a.Life() != LifeAlive || a.Position().Z > 1
	}, 60*60)
	if got < 0 {
		t.Fatalf("agent never got through the gap; at %+v\n%s", a.Position(), ts.SimLog.Format())
	}
}

func TestPushOut_ClearsEveryWall(t *testing.T) {
	ts := mustTestSim(t)
	s := ts.Sim
	a := s.Spawn(BehaviorMelee, Vec3{})

	fractions := []float64{0, 0.3, -0.3, 0.9, -0.9}
	for i, w := range s.Walls() {
		for _, fx := range fractions {
			for _, fz := range fractions {
				p := Vec3{X: w.Center.X + fx*w.Half.X, Z: w.Center.Z + fz*w.Half.Z}
				out := s.pushOut(a, p, i)
				if s.geom.Intersects(a.BoxAt(out), s.wallCols[i].Box) {
					t.Fatalf("wall %d from %+v: pushed to %+v still overlaps", i, p, out)
				}
				b := s.cfg.Arena.Bound
				if math.Abs(out.X) > b || math.Abs(out.Z) > b {
					t.Fatalf("wall %d: pushed outside the arena to %+v", i, out)
				}
			}
		}
	}
}

func TestPushOut_CentreUsesRandomDirection(t *testing.T) {
	ts := mustTestSim(t, WithWalls(WallConfig{X: 0, Y: 2, Z: 0, Width: 2, Height: 4, Depth: 2}))
	s := ts.Sim
	a := s.Spawn(BehaviorMelee, Vec3{})

	seen := map[[2]bool]bool{}
	for range 20 {
		out := s.pushOut(a, Vec3{}, 0)
		if s.geom.Intersects(a.BoxAt(out), s.wallCols[0].Box) {
			t.Fatalf("pushed to %+v, still inside", out)
		}
		seen[[2]bool{out.X > 0, out.Z > 0}] = true
	}
	if len(seen) < 2 {
		t.Fatal("zero offset should push in varying directions")
	}
}

func TestFrameSkip_ContactStillApplies(t *testing.T) {
	ts := mustTestSim(t,
		WithWalls(),
		WithTimestep(0.04),
		WithTargetAt(0, 20, math.Pi),
		WithAgentAt(BehaviorMelee, 0, 20),
	)
	if ts.Sim.processFrameAt(0.04) {
		t.Fatal("setup: 0.04s should be an odd frame")
	}
	ts.RunTicks(1)

	st := ts.Sim.Stats()
	if st.SkippedSteers != 1 {
		t.Fatalf("skipped steers = %d, want 1", st.SkippedSteers)
	}
	if st.ContactHits != 1 {
		t.Fatalf("contact hits = %d, want 1", st.ContactHits)
	}
	if got := ts.Sim.Player().Health(); got != 90 {
		t.Fatalf("health = %d, want 90", got)
	}
	if len(ts.Sim.Agents()) != 0 {
		t.Fatal("melee agent should despawn on contact")
	}
}

func TestFrameSkip_OddIndicesKeepMoving(t *testing.T) {
	ts := mustTestSim(t,
		WithWalls(),
		WithTimestep(0.04),
		WithTargetAt(0, 20, math.Pi),
		WithAgentAt(BehaviorMelee, -5, 0),
		WithAgentAt(BehaviorMelee, 5, 0),
	)
	even, odd := ts.Sim.Agents()[0], ts.Sim.Agents()[1]
	e0, o0 := even.Position(), odd.Position()
	ts.RunTicks(1)
	if even.Position() != e0 {
		t.Fatal("agent at an even index steered on an odd frame")
	}
	if odd.Position() == o0 {
		t.Fatal("agent at an odd index should still steer")
	}
}

func TestContact_RangedSurvives(t *testing.T) {
	ts := mustTestSim(t,
		WithConfig(noSkipConfig()),
		WithWalls(),
		WithTargetAt(0, 20, math.Pi),
		WithAgentAt(BehaviorRanged, 0, 20),
	)
	ts.RunTicks(1)
	if len(ts.Sim.Agents()) != 1 {
		t.Fatal("ranged agent should stay after contact")
	}
	if got := ts.Sim.Player().Health(); got != 90 {
		t.Fatalf("health = %d, want 90", got)
	}
	// Player cooldown absorbs the next second of contact.
	ts.RunTicks(30)
	if got := ts.Sim.Player().Health(); got != 90 {
		t.Fatalf("health inside cooldown = %d, want 90", got)
	}
}

func TestViewCulling_SkipsAgentsBehindTarget(t *testing.T) {
	cfg := noSkipConfig()
	cfg.Navigation.ViewCulling = true
	ts := mustTestSim(t,
		WithConfig(cfg),
		WithWalls(),
		WithTargetAt(0, 0, 0), // facing +Z
		WithAgentAt(BehaviorMelee, 0, -10),
		WithAgentAt(BehaviorMelee, 0, 10),
	)
	behind, ahead := ts.Sim.Agents()[0], ts.Sim.Agents()[1]
	b0, a0 := behind.Position(), ahead.Position()
	ts.RunTicks(1)
	if behind.Position() != b0 {
		t.Fatal("agent behind the target should be culled")
	}
	if ahead.Position() == a0 {
		t.Fatal("agent in view should steer")
	}
}
