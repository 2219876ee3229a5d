package game

import "math"

const (
	spawnAttempts     = 5
	spawnMinDistance  = 10.0
	spawnBehindDot    = 0.5
	spawnRingRadius   = 15.0
	spawnRingVariance = 10.0
	spawnRingAttempts = 10
)

// SpawnPoint picks a ground position for a new agent. It tries a few
// random points in the arena that are away from the target, out of its
// forward view and clear of walls; failing that it uses a point on a
// ring around the target.
func (s *Simulation) SpawnPoint() Vec3 {
	b := s.cfg.Arena.Bound
	tp := s.target.Position()
	fwd := s.target.Forward().Flat().Norm()
	half := Vec3{s.cfg.Agents.HalfWidth, s.cfg.Agents.HalfHeight, s.cfg.Agents.HalfWidth}

	for range spawnAttempts {
		p := Vec3{X: (s.rng.Float64()*2 - 1) * b, Z: (s.rng.Float64()*2 - 1) * b}
		if p.FlatDist(tp) < spawnMinDistance {
			continue
		}
		if fwd.Dot(p.Sub(tp).Flat().Norm()) > spawnBehindDot {
			continue
		}
		if s.boxHitsWall(feetBox(p, half)) {
			continue
		}
		return p
	}

	return s.ringSpawnPoint(tp, half)
}

// ringSpawnPoint picks a point 15 to 25 units from tp, retrying the angle
// until the agent box clears every wall. The last try is used if none do.
func (s *Simulation) ringSpawnPoint(tp, half Vec3) Vec3 {
	var p Vec3
	for range spawnRingAttempts {
		angle := s.rng.Float64() * 2 * math.Pi
		r := spawnRingRadius + s.rng.Float64()*spawnRingVariance
		p = s.clampToArena(Vec3{X: tp.X + math.Cos(angle)*r, Z: tp.Z + math.Sin(angle)*r})
		if !s.boxHitsWall(feetBox(p, half)) {
			break
		}
	}
	return p
}

func feetBox(p, half Vec3) Box {
	return Box{
		Min: Vec3{p.X - half.X, p.Y, p.Z - half.Z},
		Max: Vec3{p.X + half.X, p.Y + 2*half.Y, p.Z + half.Z},
	}
}

func (s *Simulation) boxHitsWall(b Box) bool {
	for _, w := range s.wallCols {
		if s.geom.Intersects(b, w.Box) {
			return true
		}
	}
	return false
}
