package game

import (
	"context"
	"fmt"
	"io"
	"math"
	"math/rand"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/Garsondee/Arena-Sense/internal/nav"
	"github.com/Garsondee/Arena-Sense/internal/pathsvc"
)

// SimStats counts what happened over a run.
type SimStats struct {
	Spawned        int
	PathRequests   int
	PathRejected   int
	PathResults    int
	StaleResults   int
	EmptyResults   int
	ModeSwitches   int
	WaypointsTaken int
	PushOuts       int
	SkippedSteers  int
	ShotsFired     int
	ShotsHit       int
	PlayerShots    int
	PlayerHits     int
	ContactHits    int
	Kills          int
}

// Simulation owns the whole arena: walls, agents, projectiles and the
// target. One goroutine drives it through Tick; path searches happen
// behind the pathsvc.Client.
type Simulation struct {
	cfg   Config
	geom  Geometry
	paths pathsvc.Client
	grid  *nav.Grid

	walls    []Wall
	wallCols []Collider

	agents      []*Agent
	byID        map[uuid.UUID]*Agent
	dying       []*Agent
	projectiles []*Projectile

	target Target
	player *Player

	rng      *rand.Rand
	elapsed  float64
	tick     int
	strength float64
	built    bool

	nextLabel int
	stats     SimStats
	simLog    *SimLog
	log       *log.Logger
}

// Option configures a Simulation.
type Option func(*Simulation)

// WithGeometry replaces the built-in slab ray casts.
func WithGeometry(g Geometry) Option {
	return func(s *Simulation) {
		if g != nil {
			s.geom = g
		}
	}
}

// WithSeed seeds the simulation RNG (spawns, push-out fallback, ids).
func WithSeed(seed int64) Option {
	return func(s *Simulation) {
		s.rng = rand.New(rand.NewSource(seed)) // #nosec G404 -- gameplay randomness
	}
}

// WithLogger routes diagnostic logs to l.
func WithLogger(l *log.Logger) Option {
	return func(s *Simulation) {
		if l != nil {
			s.log = l
		}
	}
}

// WithSimLog records structured events into sl.
func WithSimLog(sl *SimLog) Option {
	return func(s *Simulation) {
		if sl != nil {
			s.simLog = sl
		}
	}
}

// NewSimulation validates cfg and prepares an empty arena. A nil target
// gets a Player at the configured start, facing -Z. Call BuildWorld
// before the first Tick.
func NewSimulation(cfg Config, paths pathsvc.Client, target Target, opts ...Option) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if paths == nil {
		return nil, fmt.Errorf("%w: nil path client", ErrInvalidConfig)
	}
	s := &Simulation{
		cfg:      cfg,
		geom:     SlabGeometry{},
		paths:    paths,
		grid:     nav.NewGrid(cfg.Grid.Size, cfg.Grid.CellSize),
		byID:     make(map[uuid.UUID]*Agent),
		rng:      rand.New(rand.NewSource(1)), // #nosec G404 -- gameplay randomness
		strength: 1,
		simLog:   NewSimLog(false),
		log:      log.New(io.Discard),
		target:   target,
	}
	for _, o := range opts {
		o(s)
	}
	if s.target == nil {
		s.player = NewPlayer(cfg.Player, s, cfg.Player.StartX, cfg.Player.StartZ, math.Pi)
		s.target = s.player
	} else if p, ok := s.target.(*Player); ok {
		s.player = p
	}
	return s, nil
}

// BuildWorld creates the configured walls, stamps them into the local
// grid and sends each one to the path service.
func (s *Simulation) BuildWorld(ctx context.Context) error {
	if s.built {
		return nil
	}
	for i, wc := range s.cfg.Arena.Walls {
		w := NewWall(wc)
		s.walls = append(s.walls, w)
		fp := w.Footprint()
		s.grid.RegisterObstacle(fp.CenterX, fp.CenterZ, fp.HalfWidth, fp.HalfDepth)
		if err := s.paths.RegisterWall(ctx, fp); err != nil {
			return fmt.Errorf("game: register wall %d: %w", i, err)
		}
	}
	s.wallCols = wallColliders(s.walls)
	s.built = true
	s.log.Info("world built", "walls", len(s.walls), "blocked_cells", s.grid.BlockedCount())
	return nil
}

// Elapsed is the simulation clock in seconds.
func (s *Simulation) Elapsed() float64 { return s.elapsed }

// TickCount is the number of Tick calls so far.
func (s *Simulation) TickCount() int { return s.tick }

// Difficulty rises by the configured step every interval seconds.
func (s *Simulation) Difficulty() float64 {
	d := s.cfg.Difficulty
	return 1 + math.Floor(s.elapsed/d.Interval)*d.Step
}

// Strength scales agent speed, hit points and fire rate.
func (s *Simulation) Strength() float64 { return s.strength }

// SetStrength changes the strength multiplier for future ticks and spawns.
func (s *Simulation) SetStrength(m float64) {
	if m > 0 {
		s.strength = m
	}
}

func (s *Simulation) Config() Config             { return s.cfg }
func (s *Simulation) Grid() *nav.Grid            { return s.grid }
func (s *Simulation) Walls() []Wall              { return s.walls }
func (s *Simulation) Target() Target             { return s.target }
func (s *Simulation) Player() *Player            { return s.player }
func (s *Simulation) Stats() SimStats            { return s.stats }
func (s *Simulation) SimLog() *SimLog            { return s.simLog }
func (s *Simulation) Projectiles() []*Projectile { return s.projectiles }

// Agents returns the living agents. The slice must not be modified.
func (s *Simulation) Agents() []*Agent { return s.agents }

// Dying returns agents in their death tumble.
func (s *Simulation) Dying() []*Agent { return s.dying }

// Agent looks up a living or dying agent.
func (s *Simulation) Agent(id uuid.UUID) (*Agent, bool) {
	a, ok := s.byID[id]
	return a, ok
}

// Spawn adds an agent with its feet at pos.
func (s *Simulation) Spawn(b Behavior, pos Vec3) *Agent {
	id, err := uuid.NewRandomFromReader(s.rng)
	if err != nil {
		id = uuid.New()
	}
	ac := s.cfg.Agents
	hp := ac.MeleeHP
	prefix := "M"
	if b == BehaviorRanged {
		hp = ac.RangedHP
		prefix = "R"
	}
	label := fmt.Sprintf("%s%d", prefix, s.nextLabel)
	s.nextLabel++

	a := newAgent(id, label, b, pos, Vec3{ac.HalfWidth, ac.HalfHeight, ac.HalfWidth}, hp*s.strength)
	a.faceToward(s.target.Position())
	s.agents = append(s.agents, a)
	s.byID[id] = a
	s.stats.Spawned++
	s.simLog.Add(s.tick, a.label, a.behavior.String(), "life", "spawn",
		fmt.Sprintf("at (%.1f,%.1f) hp=%d", pos.X, pos.Z, a.hp), float64(a.hp))
	return a
}

// SpawnRandom picks a behaviour and a spawn point and adds an agent.
func (s *Simulation) SpawnRandom() *Agent {
	b := BehaviorMelee
	if s.rng.Float64() < s.cfg.Agents.RangedChance {
		b = BehaviorRanged
	}
	return s.Spawn(b, s.SpawnPoint())
}

// Remove takes an agent out of the simulation. Results still in flight
// for it are dropped when they arrive.
func (s *Simulation) Remove(id uuid.UUID) bool {
	a, ok := s.byID[id]
	if !ok {
		return false
	}
	s.agents = removeAgent(s.agents, a)
	s.dying = removeAgent(s.dying, a)
	delete(s.byID, id)
	a.life = LifeDead
	a.path = nil
	s.simLog.Add(s.tick, a.label, a.behavior.String(), "life", "removed", "", 0)
	return true
}

func removeAgent(list []*Agent, a *Agent) []*Agent {
	for i, x := range list {
		if x == a {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

// Tick advances the simulation by dt seconds.
//
// Order: take any finished paths, then per agent steer (unless amortised
// away this frame), resolve contact with the target and run the combat
// gate, then advance dying agents and projectiles.
func (s *Simulation) Tick(dt float64) {
	if dt <= 0 {
		return
	}
	s.tick++
	s.elapsed += dt

	s.drainPathResults()

	difficulty := s.Difficulty()
	speed := s.cfg.Navigation.BaseSpeed * difficulty * s.strength * dt
	process := s.processFrame()

	for j := len(s.agents) - 1; j >= 0; j-- {
		a := s.agents[j]

		if (!process && j%2 == 0) || s.culled(a) {
			s.stats.SkippedSteers++
		} else {
			s.steer(a, speed)
		}

		if s.resolveContact(j, a) {
			continue
		}
		if a.behavior == BehaviorRanged {
			s.tryFire(a, difficulty)
		}
	}

	s.updateDying(dt)
	s.updateProjectiles(dt)
}

// processFrame reports whether this tick steers every agent. When frame
// skipping is on, odd frames of the configured rate skip the agents at
// even indices.
func (s *Simulation) processFrame() bool { return s.processFrameAt(s.elapsed) }

func (s *Simulation) processFrameAt(t float64) bool {
	nc := s.cfg.Navigation
	if !nc.FrameSkip {
		return true
	}
	return int(math.Floor(t*nc.FrameRate))%2 == 0
}

// culled reports whether a is outside the target's view and far enough
// away to skip steering.
func (s *Simulation) culled(a *Agent) bool {
	nc := s.cfg.Navigation
	if !nc.ViewCulling {
		return false
	}
	tp := s.target.Position()
	if a.pos.Dist(tp) <= nc.ViewCullDistance {
		return false
	}
	return s.target.Forward().AngleTo(a.pos.Sub(tp)) > deg(nc.ViewCullAngleDeg)
}

func (s *Simulation) drainPathResults() {
	ch := s.paths.Results()
	for {
		select {
		case r, ok := <-ch:
			if !ok {
				return
			}
			s.applyPathResult(r)
		default:
			return
		}
	}
}

func (s *Simulation) resolveContact(j int, a *Agent) bool {
	if !s.geom.Intersects(a.Box(), s.target.Bounds()) {
		return false
	}
	dmg := s.cfg.Combat.ContactDamage
	s.target.TakeDamage(dmg)
	s.stats.ContactHits++
	s.simLog.Add(s.tick, a.label, a.behavior.String(), "combat", "contact", fmt.Sprintf("dmg=%d", dmg), float64(dmg))
	if a.behavior != BehaviorMelee {
		return false
	}
	s.agents = append(s.agents[:j], s.agents[j+1:]...)
	delete(s.byID, a.id)
	a.life = LifeDead
	a.path = nil
	s.simLog.Add(s.tick, a.label, a.behavior.String(), "life", "removed", "contact", 0)
	return true
}

// ApplyTuning swaps in the navigation, combat, agent and difficulty
// sections of cfg. The rest is fixed once the world is built and is
// ignored here.
func (s *Simulation) ApplyTuning(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.cfg.Navigation = cfg.Navigation
	s.cfg.Combat = cfg.Combat
	s.cfg.Agents = cfg.Agents
	s.cfg.Difficulty = cfg.Difficulty
	s.log.Info("tuning applied",
		"replan_interval", cfg.Navigation.ReplanInterval,
		"fire_interval", cfg.Combat.FireInterval)
	return nil
}

// clampToArena keeps a point inside the arena bounds on X and Z.
func (s *Simulation) clampToArena(p Vec3) Vec3 {
	b := s.cfg.Arena.Bound
	p.X = math.Max(-b, math.Min(b, p.X))
	p.Z = math.Max(-b, math.Min(b, p.Z))
	return p
}
