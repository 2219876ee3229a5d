package game

import (
	"errors"
	"fmt"
	"math"

	"github.com/Garsondee/Arena-Sense/internal/nav"
	"github.com/Garsondee/Arena-Sense/internal/pathsvc"
)

// steer runs one navigation step for a: choose between walking straight
// at the target and following a grid path, then move.
func (s *Simulation) steer(a *Agent, step float64) {
	tp := s.target.Position()
	a.faceToward(tp)

	if s.hasDirectLine(a, tp) {
		s.setMode(a, ModeDirect)
		a.path = nil
		if a.pos.FlatDist(tp) > s.cfg.Navigation.DirectMinDistance {
			s.integrate(a, tp.Sub(a.pos).Flat().Norm(), step)
		}
		return
	}

	s.setMode(a, ModePath)
	s.maybeReplan(a, tp)
	s.followPath(a, step)
}

// hasDirectLine casts from the agent's feet toward the target eye and
// reports whether no wall is struck before reaching it.
func (s *Simulation) hasDirectLine(a *Agent, tp Vec3) bool {
	return LineOfSight(s.geom, a.pos, tp, s.wallCols)
}

func (s *Simulation) setMode(a *Agent, m SteeringMode) {
	if a.mode == m {
		return
	}
	prev := a.mode
	a.mode = m
	if prev != ModeNone {
		s.stats.ModeSwitches++
	}
	s.simLog.Add(s.tick, a.label, a.behavior.String(), "nav", "mode",
		fmt.Sprintf("%s -> %s", prev, m), float64(m))
}

// maybeReplan submits a path request when the interval has passed, or
// when the agent has no usable path and nothing is already in flight.
// After an empty result the agent only retries on the interval, unless
// the target has moved to a different cell.
func (s *Simulation) maybeReplan(a *Agent, tp Vec3) {
	start := s.grid.ClampCell(s.grid.WorldToCell(a.pos.X, a.pos.Z))
	goal := s.grid.ClampCell(s.grid.WorldToCell(tp.X, tp.Z))

	due := s.elapsed-a.lastPathRequest > s.cfg.Navigation.ReplanInterval
	if !due {
		if a.pending {
			return
		}
		if a.unreachable && goal == a.goal {
			return
		}
		if pathReaches(a.path, goal) || (len(a.path) == 0 && start == goal) {
			return
		}
	}

	req := pathsvc.Request{
		Start:       start,
		Goal:        goal,
		RequesterID: a.id,
		Seq:         a.seq + 1,
		IssuedAt:    s.elapsed,
	}
	if err := s.paths.Submit(req); err != nil {
		s.stats.PathRejected++
		if !errors.Is(err, pathsvc.ErrQueueFull) {
			s.log.Warn("path submit failed", "agent", a.label, "err", err)
		}
		s.simLog.AddVerbose(s.tick, a.label, a.behavior.String(), "path", "rejected", err.Error(), 0)
		return
	}
	a.seq = req.Seq
	a.goal = goal
	a.pending = true
	a.lastPathRequest = s.elapsed
	s.stats.PathRequests++
	s.simLog.AddVerbose(s.tick, a.label, a.behavior.String(), "path", "request",
		fmt.Sprintf("seq=%d %v->%v", req.Seq, start, goal), float64(req.Seq))
}

func pathReaches(path []nav.Cell, goal nav.Cell) bool {
	return len(path) > 0 && path[len(path)-1] == goal
}

// applyPathResult installs r as its requester's path if it is still the
// freshest answer for a living agent that wants one.
func (s *Simulation) applyPathResult(r pathsvc.Result) {
	s.stats.PathResults++
	a, ok := s.byID[r.RequesterID]
	if !ok || a.life != LifeAlive {
		s.stats.StaleResults++
		return
	}
	if r.Seq == a.seq {
		a.pending = false
	}
	if r.Seq <= a.appliedSeq || r.Seq > a.seq {
		s.stats.StaleResults++
		s.simLog.AddVerbose(s.tick, a.label, a.behavior.String(), "path", "stale",
			fmt.Sprintf("seq=%d applied=%d", r.Seq, a.appliedSeq), float64(r.Seq))
		return
	}
	a.appliedSeq = r.Seq
	if a.mode == ModeDirect {
		s.stats.StaleResults++
		return
	}

	if len(r.Path) == 0 {
		s.stats.EmptyResults++
		a.unreachable = true
		a.path = nil
		s.simLog.Add(s.tick, a.label, a.behavior.String(), "path", "unreachable",
			fmt.Sprintf("seq=%d", r.Seq), float64(r.Seq))
		return
	}
	a.unreachable = false

	// The agent kept moving while the search ran; resume from its
	// current cell if the path passes through it.
	path := append([]nav.Cell(nil), r.Path...)
	here := s.grid.ClampCell(s.grid.WorldToCell(a.pos.X, a.pos.Z))
	for i := len(path) - 1; i > 0; i-- {
		if path[i] == here {
			path = path[i:]
			break
		}
	}
	a.path = path
	s.simLog.Add(s.tick, a.label, a.behavior.String(), "path", "applied",
		fmt.Sprintf("seq=%d len=%d", r.Seq, len(path)), float64(len(path)))
}

// followPath walks toward the next waypoint. path[0] is the cell the
// agent is in; path[1] is where it is heading.
func (s *Simulation) followPath(a *Agent, step float64) {
	if len(a.path) < 2 {
		return
	}
	nc := s.cfg.Navigation
	wx, wz := s.grid.CellCenter(a.path[1])
	wp := Vec3{X: wx, Y: a.pos.Y, Z: wz}
	dist := a.pos.FlatDist(wp)

	if dist > nc.WaypointArrive {
		collided := s.integrate(a, wp.Sub(a.pos).Flat().Norm(), step)
		if collided || dist >= nc.WaypointConsume {
			return
		}
	}
	a.path = a.path[1:]
	s.stats.WaypointsTaken++
}

// integrate moves a by step along the unit vector dir and resolves any
// wall overlap. It reports whether a wall was hit.
func (s *Simulation) integrate(a *Agent, dir Vec3, step float64) bool {
	if step <= 0 || dir.LenSq() == 0 {
		return false
	}
	next := s.clampToArena(a.pos.Add(dir.Scale(step)))
	box := a.BoxAt(next)
	for i := range s.wallCols {
		if !s.geom.Intersects(box, s.wallCols[i].Box) {
			continue
		}
		next = s.pushOut(a, next, i)
		s.stats.PushOuts++
		s.simLog.AddVerbose(s.tick, a.label, a.behavior.String(), "nav", "push_out",
			fmt.Sprintf("wall=%d to (%.2f,%.2f)", i, next.X, next.Z), float64(i))
		a.pos = next
		return true
	}
	a.pos = next
	return false
}

// pushOut moves p radially away from the centre of wall i far enough
// that the agent box no longer overlaps it. Direction falls back to a
// random one when p sits on the centre.
func (s *Simulation) pushOut(a *Agent, p Vec3, i int) Vec3 {
	w := s.walls[i]
	dir := p.Sub(w.Center).Flat()
	if dir.LenSq() < 0.1 {
		dir = Vec3{X: (s.rng.Float64() - 0.5) * 2, Z: (s.rng.Float64() - 0.5) * 2}
		if dir.LenSq() < 1e-12 {
			dir = Vec3{X: 1}
		}
	}
	dir = dir.Norm()

	dist := math.Max(w.Half.X, w.Half.Z) + s.cfg.Navigation.PushMargin
	if exit := exitDistance(w.Half, a.half, dir); exit > dist {
		dist = exit
	}
	out := s.clampToArena(Vec3{w.Center.X + dir.X*dist, p.Y, w.Center.Z + dir.Z*dist})
	if !s.geom.Intersects(a.BoxAt(out), s.wallCols[i].Box) {
		return out
	}

	// Clamping put us back inside; try the nearest face instead.
	const eps = 1e-3
	wb := s.wallCols[i].Box
	candidates := []Vec3{
		{wb.Min.X - a.half.X - eps, p.Y, p.Z},
		{wb.Max.X + a.half.X + eps, p.Y, p.Z},
		{p.X, p.Y, wb.Min.Z - a.half.Z - eps},
		{p.X, p.Y, wb.Max.Z + a.half.Z + eps},
	}
	best, bestD := out, math.Inf(1)
	for _, c := range candidates {
		c = s.clampToArena(c)
		if s.geom.Intersects(a.BoxAt(c), wb) {
			continue
		}
		if d := c.FlatDist(p); d < bestD {
			best, bestD = c, d
		}
	}
	return best
}

// exitDistance is how far from a wall's centre along dir an agent's
// centre must be for their footprints to stop overlapping.
func exitDistance(wallHalf, agentHalf, dir Vec3) float64 {
	t := math.Inf(1)
	if ax := math.Abs(dir.X); ax > 1e-12 {
		t = math.Min(t, (wallHalf.X+agentHalf.X)/ax)
	}
	if az := math.Abs(dir.Z); az > 1e-12 {
		t = math.Min(t, (wallHalf.Z+agentHalf.Z)/az)
	}
	return t + 1e-3
}
