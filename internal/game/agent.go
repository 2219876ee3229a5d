package game

import (
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/Garsondee/Arena-Sense/internal/nav"
)

// Behavior selects what an agent does once it reaches the target.
type Behavior int

const (
	BehaviorMelee  Behavior = iota // rushes the target, despawns on contact
	BehaviorRanged                 // also fires through the combat gate
)

func (b Behavior) String() string {
	switch b {
	case BehaviorMelee:
		return "melee"
	case BehaviorRanged:
		return "ranged"
	default:
		return "unknown"
	}
}

// LifeState is an agent's lifecycle stage.
type LifeState int

const (
	LifeAlive LifeState = iota
	LifeDying           // ballistic tumble, no AI
	LifeDead            // removed from the simulation
)

func (ls LifeState) String() string {
	switch ls {
	case LifeAlive:
		return "alive"
	case LifeDying:
		return "dying"
	case LifeDead:
		return "dead"
	default:
		return "unknown"
	}
}

// SteeringMode is the movement mode chosen on the agent's last processed
// tick.
type SteeringMode int

const (
	ModeNone SteeringMode = iota
	ModeDirect
	ModePath
)

func (m SteeringMode) String() string {
	switch m {
	case ModeDirect:
		return "direct"
	case ModePath:
		return "path"
	default:
		return "none"
	}
}

// Agent is one enemy in the arena. Position is the agent's feet; the
// collision box rises from there.
type Agent struct {
	id       uuid.UUID
	label    string
	behavior Behavior

	pos  Vec3
	yaw  float64
	half Vec3

	hp    int
	maxHP int
	life  LifeState

	// Navigation
	path            []nav.Cell
	mode            SteeringMode
	lastPathRequest float64
	goal            nav.Cell // goal of the last request
	seq             uint64   // last request issued
	appliedSeq      uint64   // newest result taken
	pending         bool
	unreachable     bool

	// Combat
	lastShot float64

	// Dying
	deathTime     float64
	deathVelocity Vec3
}

// newAgent creates a living agent. hp is rounded up.
func newAgent(id uuid.UUID, label string, b Behavior, pos Vec3, half Vec3, hp float64) *Agent {
	n := int(math.Ceil(hp))
	if n < 1 {
		n = 1
	}
	return &Agent{
		id:       id,
		label:    label,
		behavior: b,
		pos:      pos,
		half:     half,
		hp:       n,
		maxHP:    n,
		life:     LifeAlive,
	}
}

func (a *Agent) ID() uuid.UUID            { return a.id }
func (a *Agent) Label() string            { return a.label }
func (a *Agent) Behavior() Behavior       { return a.behavior }
func (a *Agent) Position() Vec3           { return a.pos }
func (a *Agent) Yaw() float64             { return a.yaw }
func (a *Agent) Forward() Vec3            { return ForwardFromYaw(a.yaw) }
func (a *Agent) HP() int                  { return a.hp }
func (a *Agent) MaxHP() int               { return a.maxHP }
func (a *Agent) Life() LifeState          { return a.life }
func (a *Agent) Mode() SteeringMode       { return a.mode }
func (a *Agent) PathPending() bool        { return a.pending }
func (a *Agent) Unreachable() bool        { return a.unreachable }
func (a *Agent) LastPathRequest() float64 { return a.lastPathRequest }

// Path returns a copy of the agent's current waypoints, or nil.
func (a *Agent) Path() []nav.Cell {
	if a.path == nil {
		return nil
	}
	return append([]nav.Cell(nil), a.path...)
}

// BoxAt is the agent's collision box if its feet were at p.
func (a *Agent) BoxAt(p Vec3) Box {
	return feetBox(p, a.half)
}

func (a *Agent) Box() Box { return a.BoxAt(a.pos) }

// Muzzle is where a ranged agent's shots start.
func (a *Agent) Muzzle(height float64) Vec3 {
	return a.pos.Add(Vec3{Y: height})
}

func (a *Agent) faceToward(p Vec3) {
	if a.pos.FlatDist(p) < 1e-9 {
		return
	}
	a.yaw = YawTo(a.pos, p)
}

func (a *Agent) String() string {
	return fmt.Sprintf("%s(%s hp=%d/%d %s)", a.label, a.behavior, a.hp, a.maxHP, a.life)
}
