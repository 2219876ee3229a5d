package game

import "math"

// Vec3 is a world-space point or direction. Y is up; agents move on the
// XZ ground plane.
type Vec3 struct {
	X, Y, Z float64
}

func V3(x, y, z float64) Vec3 { return Vec3{X: x, Y: y, Z: z} }

func (a Vec3) Add(b Vec3) Vec3         { return Vec3{a.X + b.X, a.Y + b.Y, a.Z + b.Z} }
func (a Vec3) Sub(b Vec3) Vec3         { return Vec3{a.X - b.X, a.Y - b.Y, a.Z - b.Z} }
func (a Vec3) Scale(s float64) Vec3    { return Vec3{a.X * s, a.Y * s, a.Z * s} }
func (a Vec3) Dot(b Vec3) float64      { return a.X*b.X + a.Y*b.Y + a.Z*b.Z }
func (a Vec3) LenSq() float64          { return a.Dot(a) }
func (a Vec3) Len() float64            { return math.Sqrt(a.LenSq()) }
func (a Vec3) Dist(b Vec3) float64     { return a.Sub(b).Len() }
func (a Vec3) Flat() Vec3              { return Vec3{a.X, 0, a.Z} }
func (a Vec3) WithY(y float64) Vec3    { return Vec3{a.X, y, a.Z} }
func (a Vec3) FlatDist(b Vec3) float64 { return a.Sub(b).Flat().Len() }

// Norm returns a unit vector, or the zero vector when a has no length.
func (a Vec3) Norm() Vec3 {
	l := a.Len()
	if l < 1e-12 {
		return Vec3{}
	}
	return a.Scale(1 / l)
}

// AngleTo returns the unsigned angle between a and b in radians.
func (a Vec3) AngleTo(b Vec3) float64 {
	den := math.Sqrt(a.LenSq() * b.LenSq())
	if den < 1e-12 {
		return math.Pi / 2
	}
	c := a.Dot(b) / den
	return math.Acos(math.Max(-1, math.Min(1, c)))
}

// Box is an axis-aligned bounding box.
type Box struct {
	Min, Max Vec3
}

// BoxAt builds a box from its centre and half extents.
func BoxAt(center, half Vec3) Box {
	return Box{Min: center.Sub(half), Max: center.Add(half)}
}

func (b Box) Center() Vec3 { return b.Min.Add(b.Max).Scale(0.5) }
func (b Box) Half() Vec3   { return b.Max.Sub(b.Min).Scale(0.5) }

// Expand grows the box by h on every side.
func (b Box) Expand(h Vec3) Box {
	return Box{Min: b.Min.Sub(h), Max: b.Max.Add(h)}
}

// Contains reports whether p lies inside or on the box.
func (b Box) Contains(p Vec3) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}
