package game

import (
	"fmt"
	"math"

	"github.com/google/uuid"
)

// FireGate is the outcome of a ranged agent's fire check. Only GateFire
// releases a shot; the rest name the first condition that failed.
type FireGate int

const (
	GateFire FireGate = iota
	GateOutOfRange
	GateCooldown
	GateOutsideFOV
	GateNotAimed
	GateBlocked
)

func (g FireGate) String() string {
	switch g {
	case GateFire:
		return "fire"
	case GateOutOfRange:
		return "out_of_range"
	case GateCooldown:
		return "cooldown"
	case GateOutsideFOV:
		return "outside_fov"
	case GateNotAimed:
		return "not_aimed"
	case GateBlocked:
		return "blocked"
	default:
		return "unknown"
	}
}

// ProjectileOwner says who fired a projectile and so what it can hurt.
type ProjectileOwner int

const (
	OwnerAgent  ProjectileOwner = iota // hurts the target
	OwnerTarget                        // hurts agents
)

// Projectile is a straight-flying shot.
type Projectile struct {
	Owner   ProjectileOwner
	Shooter uuid.UUID // zero for target shots
	Pos     Vec3
	Vel     Vec3
	Damage  int
	Age     float64
}

// aimPoint is the middle of the target's box.
func (s *Simulation) aimPoint() Vec3 {
	return s.target.Bounds().Center()
}

// EvaluateFire runs the ranged combat gate for a without firing: range,
// cooldown, field of view, aim, then a clear line from the muzzle past
// walls and other agents.
func (s *Simulation) EvaluateFire(a *Agent) FireGate {
	cc := s.cfg.Combat
	tp := s.target.Position()
	if a.pos.Dist(tp) >= cc.Range {
		return GateOutOfRange
	}
	if s.elapsed-a.lastShot <= cc.FireInterval/s.strength {
		return GateCooldown
	}
	angle := HorizontalAngle(a.Forward(), a.pos, tp)
	if angle >= deg(cc.FOVDeg) {
		return GateOutsideFOV
	}
	if angle >= deg(cc.AimDeg) {
		return GateNotAimed
	}
	muzzle := a.Muzzle(cc.MuzzleHeight)
	if !LineOfSight(s.geom, muzzle, s.aimPoint(), s.blockersFor(a)) {
		return GateBlocked
	}
	return GateFire
}

// blockersFor lists walls and every living agent except a.
func (s *Simulation) blockersFor(a *Agent) []Collider {
	out := make([]Collider, 0, len(s.wallCols)+len(s.agents))
	out = append(out, s.wallCols...)
	for i, o := range s.agents {
		if o == a {
			continue
		}
		out = append(out, Collider{Kind: ColliderAgent, Ref: i, Box: o.Box()})
	}
	return out
}

// tryFire fires a projectile at the target if the gate allows it.
func (s *Simulation) tryFire(a *Agent, difficulty float64) bool {
	if g := s.EvaluateFire(a); g != GateFire {
		s.simLog.AddVerbose(s.tick, a.label, a.behavior.String(), "combat", "hold", g.String(), float64(g))
		return false
	}
	cc := s.cfg.Combat
	muzzle := a.Muzzle(cc.MuzzleHeight)
	dir := s.aimPoint().Sub(muzzle).Norm()
	s.projectiles = append(s.projectiles, &Projectile{
		Owner:   OwnerAgent,
		Shooter: a.id,
		Pos:     muzzle,
		Vel:     dir.Scale(cc.ProjectileSpeed * difficulty),
		Damage:  cc.ProjectileDamage,
	})
	a.lastShot = s.elapsed
	s.stats.ShotsFired++
	s.simLog.Add(s.tick, a.label, a.behavior.String(), "combat", "fire",
		fmt.Sprintf("dist=%.1f", a.pos.Dist(s.target.Position())), a.pos.Dist(s.target.Position()))
	return true
}

// FirePlayerShot launches a target-owned projectile from origin along dir.
// It returns nil for a zero direction.
func (s *Simulation) FirePlayerShot(origin, dir Vec3) *Projectile {
	dir = dir.Norm()
	if dir.LenSq() == 0 {
		return nil
	}
	cc := s.cfg.Combat
	p := &Projectile{
		Owner:  OwnerTarget,
		Pos:    origin,
		Vel:    dir.Scale(cc.PlayerShotSpeed),
		Damage: cc.PlayerShotDamage,
	}
	s.projectiles = append(s.projectiles, p)
	s.stats.PlayerShots++
	return p
}

// updateProjectiles advances every projectile, sweeping its motion this
// tick against what it can strike.
func (s *Simulation) updateProjectiles(dt float64) {
	cc := s.cfg.Combat
	targetCols := append(append([]Collider(nil), s.wallCols...),
		Collider{Kind: ColliderTarget, Box: s.target.Bounds()})
	agentCols := s.agentColliders()

	kept := s.projectiles[:0]
	for _, p := range s.projectiles {
		p.Age += dt
		move := p.Vel.Scale(dt)
		step := move.Len()

		cols := targetCols
		if p.Owner == OwnerTarget {
			cols = agentCols
		}
		if step > 0 {
			if hit, ok := s.geom.RayCast(p.Pos, move.Scale(1/step), cols); ok && hit.Distance <= step {
				if s.resolveProjectileHit(p, hit) {
					agentCols = s.agentColliders()
				}
				continue
			}
		}
		p.Pos = p.Pos.Add(move)

		b := cc.ProjectileBound
		if math.Abs(p.Pos.X) > b || math.Abs(p.Pos.Z) > b || p.Pos.Y < -10 || p.Pos.Y > b {
			continue
		}
		kept = append(kept, p)
	}
	for i := len(kept); i < len(s.projectiles); i++ {
		s.projectiles[i] = nil
	}
	s.projectiles = kept
}

// agentColliders lists walls followed by living agents; Ref on agent
// colliders indexes s.agents.
func (s *Simulation) agentColliders() []Collider {
	out := make([]Collider, 0, len(s.wallCols)+len(s.agents))
	out = append(out, s.wallCols...)
	for i, a := range s.agents {
		out = append(out, Collider{Kind: ColliderAgent, Ref: i, Box: a.Box()})
	}
	return out
}

// resolveProjectileHit applies a hit and reports whether the agent list
// changed.
func (s *Simulation) resolveProjectileHit(p *Projectile, hit Hit) bool {
	switch hit.Collider.Kind {
	case ColliderTarget:
		s.target.TakeDamage(p.Damage)
		s.stats.ShotsHit++
		label := "--"
		if a, ok := s.byID[p.Shooter]; ok {
			label = a.label
		}
		s.simLog.Add(s.tick, label, BehaviorRanged.String(), "combat", "hit_target",
			fmt.Sprintf("dmg=%d", p.Damage), float64(p.Damage))
	case ColliderAgent:
		a := s.agents[hit.Collider.Ref]
		s.stats.PlayerHits++
		return s.damageAgent(a, p.Damage, p.Vel)
	}
	return false
}

// damageAgent subtracts hit points and starts the death tumble at zero.
// It reports whether a left the living list.
func (s *Simulation) damageAgent(a *Agent, dmg int, impact Vec3) bool {
	if a.life != LifeAlive {
		return false
	}
	a.hp -= dmg
	s.simLog.Add(s.tick, a.label, a.behavior.String(), "combat", "damaged",
		fmt.Sprintf("hp=%d", a.hp), float64(a.hp))
	if a.hp > 0 {
		return false
	}
	a.hp = 0
	s.startDying(a, impact)
	return true
}

func (s *Simulation) startDying(a *Agent, impact Vec3) {
	cc := s.cfg.Combat
	dir := impact.Norm()
	dir.Y += cc.DeathLift
	a.deathVelocity = dir.Norm().Scale(cc.DeathImpulse)
	a.deathTime = s.elapsed
	a.life = LifeDying
	a.path = nil
	a.pending = false
	s.agents = removeAgent(s.agents, a)
	s.dying = append(s.dying, a)
	s.stats.Kills++
	s.simLog.Add(s.tick, a.label, a.behavior.String(), "life", "dying", "", 0)
}

// updateDying moves dying agents ballistically and removes them once
// they fall below the floor or time out.
func (s *Simulation) updateDying(dt float64) {
	cc := s.cfg.Combat
	kept := s.dying[:0]
	for _, a := range s.dying {
		a.deathVelocity.Y -= cc.Gravity * dt
		a.pos = a.pos.Add(a.deathVelocity.Scale(dt))
		if a.pos.Y < 0 || s.elapsed-a.deathTime > cc.DyingTimeout {
			a.life = LifeDead
			delete(s.byID, a.id)
			s.simLog.Add(s.tick, a.label, a.behavior.String(), "life", "removed", "dead", 0)
			continue
		}
		kept = append(kept, a)
	}
	for i := len(kept); i < len(s.dying); i++ {
		s.dying[i] = nil
	}
	s.dying = kept
}
