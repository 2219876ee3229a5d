package game

import "math"

// Collider is anything a ray or box query can hit.
type Collider struct {
	Kind ColliderKind
	// Ref is the wall index or agent slot the box came from.
	Ref int
	Box Box
}

// ColliderKind says what a Collider stands for.
type ColliderKind int

const (
	ColliderWall ColliderKind = iota
	ColliderAgent
	ColliderTarget
)

// Hit is the nearest ray intersection.
type Hit struct {
	Distance float64
	Point    Vec3
	Collider Collider
}

// Geometry answers the two spatial queries the AI needs. Swapping it
// lets a renderer's own scene queries stand in for the built-in slab
// tests.
type Geometry interface {
	// RayCast returns the nearest collider entered by the ray from origin
	// along the unit vector dir.
	RayCast(origin, dir Vec3, colliders []Collider) (Hit, bool)
	// Intersects reports whether two boxes overlap (touching counts).
	Intersects(a, b Box) bool
}

// SlabGeometry is the default Geometry using ray/AABB slab tests.
type SlabGeometry struct{}

func (SlabGeometry) RayCast(origin, dir Vec3, colliders []Collider) (Hit, bool) {
	best := Hit{Distance: math.Inf(1)}
	found := false
	for _, c := range colliders {
		t, ok := rayBoxHitT(origin, dir, c.Box)
		if !ok || t >= best.Distance {
			continue
		}
		best = Hit{Distance: t, Point: origin.Add(dir.Scale(t)), Collider: c}
		found = true
	}
	return best, found
}

func (SlabGeometry) Intersects(a, b Box) bool {
	return a.Min.X <= b.Max.X && a.Max.X >= b.Min.X &&
		a.Min.Y <= b.Max.Y && a.Max.Y >= b.Min.Y &&
		a.Min.Z <= b.Max.Z && a.Max.Z >= b.Min.Z
}

// rayBoxHitT returns the ray parameter t >= 0 where the ray enters b. A
// ray starting inside b hits at t = 0.
func rayBoxHitT(o, d Vec3, b Box) (float64, bool) {
	tMin := 0.0
	tMax := math.Inf(1)

	slab := func(o, d, lo, hi float64) bool {
		if math.Abs(d) < 1e-12 {
			return o >= lo && o <= hi
		}
		invD := 1.0 / d
		t1 := (lo - o) * invD
		t2 := (hi - o) * invD
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tMin = math.Max(tMin, t1)
		tMax = math.Min(tMax, t2)
		return tMin <= tMax
	}

	if !slab(o.X, d.X, b.Min.X, b.Max.X) {
		return 0, false
	}
	if !slab(o.Y, d.Y, b.Min.Y, b.Max.Y) {
		return 0, false
	}
	if !slab(o.Z, d.Z, b.Min.Z, b.Max.Z) {
		return 0, false
	}
	return tMin, true
}

// ClearLine reports whether nothing in colliders is hit before reaching
// a point dist away along dir.
func ClearLine(g Geometry, origin, dir Vec3, dist float64, colliders []Collider) bool {
	hit, ok := g.RayCast(origin, dir, colliders)
	return !ok || hit.Distance > dist
}

// LineOfSight reports whether the segment from a to b is unobstructed.
func LineOfSight(g Geometry, a, b Vec3, colliders []Collider) bool {
	delta := b.Sub(a)
	dist := delta.Len()
	if dist < 1e-9 {
		return true
	}
	return ClearLine(g, a, delta.Scale(1/dist), dist, colliders)
}
