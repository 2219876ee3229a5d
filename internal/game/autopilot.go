package game

import (
	"errors"
	"math"
)

// ErrNoPlayer is returned when an Autopilot is asked to drive a
// simulation whose target is not a *Player.
var ErrNoPlayer = errors.New("game: simulation target is not a player")

const waypointReach = 0.25

// DefaultRoute is a loop through the northern half of the stock arena
// that crosses no walls.
func DefaultRoute() []Vec3 {
	return []Vec3{
		{X: 8, Z: 20},
		{X: 8, Z: 6},
		{X: -8, Z: 6},
		{X: -8, Z: 20},
	}
}

// Autopilot stands in for a human player in headless runs: it walks the
// player around a route, turns to face the nearest visible agent and
// fires whenever a visible one sits inside a narrow frontal cone.
type Autopilot struct {
	sim      *Simulation
	player   *Player
	route    []Vec3
	next     int
	lastShot float64
	blocked  int
}

// NewAutopilot drives sim's player along route. An empty route keeps the
// player in place.
func NewAutopilot(sim *Simulation, route []Vec3) (*Autopilot, error) {
	if sim.Player() == nil {
		return nil, ErrNoPlayer
	}
	return &Autopilot{
		sim:      sim,
		player:   sim.Player(),
		route:    append([]Vec3(nil), route...),
		lastShot: math.Inf(-1),
	}, nil
}

// Blocked counts moves refused because a wall was in the way.
func (ap *Autopilot) Blocked() int { return ap.blocked }

// Step moves, aims and maybe fires. Call it once before each sim Tick.
func (ap *Autopilot) Step(dt float64) {
	yaw := ap.move(dt)
	if a := ap.nearestVisible(); a != nil {
		yaw = YawTo(ap.player.Position(), a.Box().Center())
	}
	p := ap.player.Position()
	ap.player.SetPose(p.X, p.Z, yaw)
	ap.maybeFire()
}

func (ap *Autopilot) move(dt float64) float64 {
	p := ap.player.Position()
	yaw := ap.player.Yaw()
	if len(ap.route) == 0 {
		return yaw
	}
	wp := ap.route[ap.next]
	to := wp.Sub(p).Flat()
	if to.Len() <= waypointReach {
		ap.next = (ap.next + 1) % len(ap.route)
		return yaw
	}
	yaw = YawTo(p, wp)
	step := math.Min(ap.sim.cfg.Player.MoveSpeed*dt, to.Len())
	if !ap.sim.MovePlayer(p.Add(to.Norm().Scale(step)), yaw) {
		ap.blocked++
		ap.next = (ap.next + 1) % len(ap.route)
	}
	return yaw
}

// MovePlayer puts the player's feet at np, clamped to the arena, unless
// a wall is in the way. It reports whether the move happened.
func (s *Simulation) MovePlayer(np Vec3, yaw float64) bool {
	if s.player == nil {
		return false
	}
	np = s.clampToArena(np)
	pc := s.cfg.Player
	box := Box{
		Min: Vec3{np.X - pc.Width/2, 0, np.Z - pc.Width/2},
		Max: Vec3{np.X + pc.Width/2, pc.Height, np.Z + pc.Width/2},
	}
	if s.boxHitsWall(box) {
		return false
	}
	s.player.SetPose(np.X, np.Z, yaw)
	return true
}

// nearestVisible returns the closest living agent within auto-fire range
// that walls do not hide.
func (ap *Autopilot) nearestVisible() *Agent {
	eye := ap.player.Position()
	maxRange := ap.sim.cfg.Combat.AutoFireRange
	var best *Agent
	bestD := math.Inf(1)
	for _, a := range ap.sim.agents {
		c := a.Box().Center()
		d := eye.Dist(c)
		if d >= maxRange || d >= bestD {
			continue
		}
		if !LineOfSight(ap.sim.geom, eye, c, ap.sim.wallCols) {
			continue
		}
		best, bestD = a, d
	}
	return best
}

func (ap *Autopilot) maybeFire() {
	cc := ap.sim.cfg.Combat
	now := ap.sim.Elapsed()
	if now-ap.lastShot <= cc.AutoFireInterval {
		return
	}
	eye := ap.player.Position()
	fwd := ap.player.Forward()
	for _, a := range ap.sim.agents {
		c := a.Box().Center()
		if InCone(eye, fwd, c, deg(cc.AutoFireConeDeg), cc.AutoFireRange) &&
			LineOfSight(ap.sim.geom, eye, c, ap.sim.wallCols) {
			ap.sim.FirePlayerShot(eye, fwd)
			ap.lastShot = now
			return
		}
	}
}
