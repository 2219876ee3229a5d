package game

import "math"

// ForwardFromYaw returns the unit ground-plane facing for a yaw angle.
// Yaw 0 faces +Z; positive yaw turns toward +X.
func ForwardFromYaw(yaw float64) Vec3 {
	return Vec3{X: math.Sin(yaw), Z: math.Cos(yaw)}
}

// YawTo returns the yaw that faces from o toward p on the ground plane.
func YawTo(o, p Vec3) float64 {
	return math.Atan2(p.X-o.X, p.Z-o.Z)
}

// HorizontalAngle is the unsigned angle between forward and the direction
// from o to p, with height ignored.
func HorizontalAngle(forward, o, p Vec3) float64 {
	return forward.Flat().AngleTo(p.Sub(o).Flat())
}

// InCone reports whether p lies within halfAngle of forward as seen from
// o, and no farther than maxRange. A maxRange <= 0 disables the range test.
func InCone(o, forward, p Vec3, halfAngle, maxRange float64) bool {
	if maxRange > 0 && o.Dist(p) > maxRange {
		return false
	}
	return HorizontalAngle(forward, o, p) < halfAngle
}

func deg(d float64) float64 { return d * math.Pi / 180 }

// normalizeAngle wraps an angle to [-pi, pi].
func normalizeAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a < -math.Pi {
		a += 2 * math.Pi
	}
	return a
}
