package game

// Target is what the agents hunt. The simulation only reads its pose and
// reports damage to it; any cooldown on that damage is the target's own
// business.
type Target interface {
	// Position is the target's eye point.
	Position() Vec3
	// Forward is the target's unit view direction.
	Forward() Vec3
	Bounds() Box
	TakeDamage(amount int)
}

// Clock supplies simulation time to collaborators that need it.
type Clock interface {
	Elapsed() float64
}

// Player is the stock Target: a box the height of a person with health
// and a damage cooldown measured on the simulation clock.
type Player struct {
	pos     Vec3 // eye position
	yaw     float64
	width   float64
	height  float64
	health  int
	maxHP   int
	cool    float64
	lastHit float64
	hits    int
	clock   Clock
}

// NewPlayer places a player's feet at (x, z) facing yaw.
func NewPlayer(cfg PlayerConfig, clock Clock, x, z, yaw float64) *Player {
	p := &Player{
		pos:     Vec3{x, cfg.Height, z},
		yaw:     normalizeAngle(yaw),
		width:   cfg.Width,
		height:  cfg.Height,
		maxHP:   cfg.Health,
		cool:    cfg.DamageCooldown,
		lastHit: -cfg.DamageCooldown - 1,
		health:  cfg.Health,
		clock:   clock,
	}
	return p
}

func (p *Player) Position() Vec3 { return p.pos }
func (p *Player) Forward() Vec3  { return ForwardFromYaw(p.yaw) }
func (p *Player) Yaw() float64   { return p.yaw }

func (p *Player) Bounds() Box {
	return Box{
		Min: Vec3{p.pos.X - p.width/2, 0, p.pos.Z - p.width/2},
		Max: Vec3{p.pos.X + p.width/2, p.height, p.pos.Z + p.width/2},
	}
}

// TakeDamage subtracts amount unless the player was hurt within the
// cooldown. Health never drops below zero.
func (p *Player) TakeDamage(amount int) {
	now := 0.0
	if p.clock != nil {
		now = p.clock.Elapsed()
	}
	if now-p.lastHit <= p.cool {
		return
	}
	p.lastHit = now
	p.hits++
	p.health -= amount
	if p.health < 0 {
		p.health = 0
	}
}

func (p *Player) Health() int    { return p.health }
func (p *Player) MaxHealth() int { return p.maxHP }
func (p *Player) Hits() int      { return p.hits }
func (p *Player) Dead() bool     { return p.Health() == 0 }

// SetPose moves the eye to (x, z) and turns to yaw.
func (p *Player) SetPose(x, z, yaw float64) {
	p.pos = Vec3{x, p.height, z}
	p.yaw = normalizeAngle(yaw)
}

// Reset restores full health.
func (p *Player) Reset() {
	p.health = p.maxHP
	p.lastHit = -p.cool - 1
	p.hits = 0
}
