package game

import "github.com/Garsondee/Arena-Sense/internal/pathsvc"

// Wall is a static axis-aligned obstacle. Walls never move or change
// after the world is built.
type Wall struct {
	Center Vec3
	Half   Vec3
}

// NewWall builds a wall from its centre and full size.
func NewWall(wc WallConfig) Wall {
	return Wall{
		Center: Vec3{wc.X, wc.Y, wc.Z},
		Half:   Vec3{wc.Width / 2, wc.Height / 2, wc.Depth / 2},
	}
}

func (w Wall) Box() Box { return BoxAt(w.Center, w.Half) }

// Footprint is the wall as the path grid sees it.
func (w Wall) Footprint() pathsvc.Wall {
	return pathsvc.Wall{
		CenterX:   w.Center.X,
		CenterZ:   w.Center.Z,
		HalfWidth: w.Half.X,
		HalfDepth: w.Half.Z,
	}
}

// wallColliders returns one collider per wall, in wall order.
func wallColliders(walls []Wall) []Collider {
	out := make([]Collider, len(walls))
	for i, w := range walls {
		out[i] = Collider{Kind: ColliderWall, Ref: i, Box: w.Box()}
	}
	return out
}
