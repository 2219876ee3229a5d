package game

import (
	"context"
	"fmt"

	"github.com/Garsondee/Arena-Sense/internal/pathsvc"
)

// TestSim is a headless simulation harness used by tests and the
// headless report. It drives a Simulation at a fixed timestep with the
// synchronous inline path client, so a seed fully determines a run.
type TestSim struct {
	Sim       *Simulation
	Paths     pathsvc.Client
	Autopilot *Autopilot
	SimLog    *SimLog
	DT        float64

	cfg        Config
	seed       int64
	target     Target
	route      []Vec3
	autopilot  bool
	population int
	strength   float64
	spawns     []agentSpec
	yaw        *float64
}

type agentSpec struct {
	behavior Behavior
	x, z     float64
}

// simOptionKind controls the pass in which an option is applied.
type simOptionKind int

const (
	simOptInfra simOptionKind = iota // config, seed, client, target; applied first
	simOptAgent                      // add agents after the world is built
)

// SimOption is a builder function applied to a TestSim during construction.
type SimOption struct {
	kind simOptionKind
	fn   func(*TestSim)
}

// WithConfig replaces the default tuning.
func WithConfig(cfg Config) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		ts.cfg = cfg
	}}
}

// WithWalls replaces the arena walls.
func WithWalls(walls ...WallConfig) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		ts.cfg.Arena.Walls = append([]WallConfig(nil), walls...)
	}}
}

// WithRunSeed sets the RNG seed for deterministic runs.
func WithRunSeed(seed int64) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		ts.seed = seed
	}}
}

// WithVerbose enables high-volume logging.
func WithVerbose(v bool) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		ts.SimLog = NewSimLog(v)
	}}
}

// WithTimestep sets the fixed tick length in seconds.
func WithTimestep(dt float64) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		ts.DT = dt
	}}
}

// WithPathClient swaps the inline path client for c.
func WithPathClient(c pathsvc.Client) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		ts.Paths = c
	}}
}

// WithTargetAt places the default player with its feet at (x, z).
func WithTargetAt(x, z, yaw float64) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		ts.cfg.Player.StartX = x
		ts.cfg.Player.StartZ = z
		ts.target = nil
		ts.yaw = &yaw
	}}
}

// WithTarget supplies a custom target instead of the default player.
func WithTarget(t Target) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		ts.target = t
	}}
}

// WithStrength sets the strength multiplier before any agent spawns.
func WithStrength(m float64) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		ts.strength = m
	}}
}

// WithAutopilot drives the player along route and lets it shoot back.
func WithAutopilot(route []Vec3) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		ts.autopilot = true
		ts.route = route
	}}
}

// WithPopulation keeps n agents alive by spawning replacements each tick.
func WithPopulation(n int) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		ts.population = n
	}}
}

// WithAgentAt adds an agent with its feet at (x, z).
func WithAgentAt(b Behavior, x, z float64) SimOption {
	return SimOption{simOptAgent, func(ts *TestSim) {
		ts.spawns = append(ts.spawns, agentSpec{behavior: b, x: x, z: z})
	}}
}

// NewTestSim constructs a TestSim from the given options in ordered passes:
//  1. Infrastructure (config, seed, client, target)
//  2. Build the world
//  3. Agents
func NewTestSim(opts ...SimOption) (*TestSim, error) {
	ts := &TestSim{
		DT:       1.0 / 60,
		cfg:      DefaultConfig(),
		seed:     1,
		SimLog:   NewSimLog(false),
		strength: 1,
	}
	for _, o := range opts {
		if o.kind == simOptInfra {
			o.fn(ts)
		}
	}
	if ts.Paths == nil {
		ts.Paths = pathsvc.NewInline(ts.cfg.Grid.Size, ts.cfg.Grid.CellSize, ts.cfg.Paths.QueueSize)
	}

	sim, err := NewSimulation(ts.cfg, ts.Paths, ts.target, WithSeed(ts.seed), WithSimLog(ts.SimLog))
	if err != nil {
		return nil, err
	}
	if p := sim.Player(); p != nil && ts.yaw != nil {
		p.SetPose(ts.cfg.Player.StartX, ts.cfg.Player.StartZ, *ts.yaw)
	}
	sim.SetStrength(ts.strength)
	if err := sim.BuildWorld(context.Background()); err != nil {
		return nil, err
	}
	ts.Sim = sim

	for _, o := range opts {
		if o.kind == simOptAgent {
			o.fn(ts)
		}
	}
	for _, sp := range ts.spawns {
		sim.Spawn(sp.behavior, Vec3{X: sp.x, Z: sp.z})
	}

	if ts.autopilot {
		ap, err := NewAutopilot(sim, ts.route)
		if err != nil {
			return nil, err
		}
		ts.Autopilot = ap
	}
	ts.replenish()
	return ts, nil
}

// RunTicks advances the simulation n ticks.
func (ts *TestSim) RunTicks(n int) {
	for i := 0; i < n; i++ {
		ts.runOneTick()
	}
}

// RunUntil advances the simulation up to maxTicks, stopping early if predicate
// returns true. Returns the tick at which the predicate was satisfied, or -1.
func (ts *TestSim) RunUntil(predicate func(*TestSim) bool, maxTicks int) int {
	for i := 0; i < maxTicks; i++ {
		ts.runOneTick()
		if predicate(ts) {
			return ts.Sim.TickCount()
		}
	}
	return -1
}

func (ts *TestSim) runOneTick() {
	if ts.Autopilot != nil {
		ts.Autopilot.Step(ts.DT)
	}
	ts.Sim.Tick(ts.DT)
	ts.replenish()

	if ts.SimLog.Verbose() {
		for _, a := range ts.Sim.Agents() {
			ts.SimLog.AddVerbose(ts.Sim.TickCount(), a.label, a.behavior.String(), "nav", "position",
				fmt.Sprintf("(%.1f,%.1f) %s", a.pos.X, a.pos.Z, a.mode), 0)
		}
	}
}

func (ts *TestSim) replenish() {
	for ts.population > 0 && len(ts.Sim.Agents()) < ts.population {
		ts.Sim.SpawnRandom()
	}
}

// CurrentTick returns the current simulation tick.
func (ts *TestSim) CurrentTick() int {
	return ts.Sim.TickCount()
}

// SimSnapshot captures a lightweight state summary.
type SimSnapshot struct {
	Tick   int
	Health int
	Agents []AgentSnapshot
}

// AgentSnapshot is a lightweight copy of an agent's state at a tick.
type AgentSnapshot struct {
	Label    string
	Behavior Behavior
	X, Z     float64
	Mode     SteeringMode
	Life     LifeState
	HP       int
	PathLen  int
	Pending  bool
}

// Snapshot returns the current state of all living agents.
func (ts *TestSim) Snapshot() SimSnapshot {
	snap := SimSnapshot{Tick: ts.Sim.TickCount()}
	if p := ts.Sim.Player(); p != nil {
		snap.Health = p.Health()
	}
	for _, a := range ts.Sim.Agents() {
		snap.Agents = append(snap.Agents, AgentSnapshot{
			Label:    a.label,
			Behavior: a.behavior,
			X:        a.pos.X,
			Z:        a.pos.Z,
			Mode:     a.mode,
			Life:     a.life,
			HP:       a.hp,
			PathLen:  len(a.path),
			Pending:  a.pending,
		})
	}
	return snap
}
