package nav

import "math"

const (
	// DefaultSize is the arena grid resolution (cells per side).
	DefaultSize = 50
	// DefaultCellSize is the world width of one cell.
	DefaultCellSize = 1.0
)

// Cell is a grid coordinate. Y indexes the world Z axis.
type Cell struct {
	X, Y int
}

// Grid is a fixed N×N walkability map over a square, origin-centred world.
// Cells only ever go from walkable to blocked.
type Grid struct {
	size     int
	cellSize float64
	offset   float64
	blocked  []bool

	// A* scratch, valid for a cell only when stamp[i] == gen.
	gen    uint32
	stamp  []uint32
	g      []int
	f      []int
	parent []int32
	seq    []int32
	closed []bool
}

// NewGrid builds a size×size grid with every cell walkable.
func NewGrid(size int, cellSize float64) *Grid {
	if size <= 0 {
		size = DefaultSize
	}
	if cellSize <= 0 {
		cellSize = DefaultCellSize
	}
	n := size * size
	return &Grid{
		size:     size,
		cellSize: cellSize,
		offset:   float64(size) * cellSize / 2,
		blocked:  make([]bool, n),
		stamp:    make([]uint32, n),
		g:        make([]int, n),
		f:        make([]int, n),
		parent:   make([]int32, n),
		seq:      make([]int32, n),
		closed:   make([]bool, n),
	}
}

// Size returns the number of cells per side.
func (gr *Grid) Size() int { return gr.size }

// CellSize returns the world width of one cell.
func (gr *Grid) CellSize() float64 { return gr.cellSize }

// InBounds reports whether c lies inside the grid.
func (gr *Grid) InBounds(c Cell) bool {
	return c.X >= 0 && c.Y >= 0 && c.X < gr.size && c.Y < gr.size
}

// Walkable reports whether c is inside the grid and not blocked.
func (gr *Grid) Walkable(c Cell) bool {
	if !gr.InBounds(c) {
		return false
	}
	return !gr.blocked[gr.index(c)]
}

// RegisterObstacle marks every cell overlapped by the box centred at
// (cx, cz) with the given half extents as blocked. The covered range per
// axis is [floor((c-h+offset)/cell), floor((c+h+offset)/cell)), clipped
// to the grid.
func (gr *Grid) RegisterObstacle(cx, cz, halfWidth, halfDepth float64) {
	x0, x1 := gr.span(cx, halfWidth)
	y0, y1 := gr.span(cz, halfDepth)
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			gr.blocked[y*gr.size+x] = true
		}
	}
}

func (gr *Grid) span(c, half float64) (int, int) {
	lo := int(math.Floor((c - half + gr.offset) / gr.cellSize))
	hi := int(math.Floor((c + half + gr.offset) / gr.cellSize))
	return max(0, lo), min(gr.size, hi)
}

// WorldToCell converts a ground-plane world position to its cell. The
// result may lie outside the grid.
func (gr *Grid) WorldToCell(x, z float64) Cell {
	return Cell{
		X: int(math.Floor((x + gr.offset) / gr.cellSize)),
		Y: int(math.Floor((z + gr.offset) / gr.cellSize)),
	}
}

// ClampCell pulls c into the grid.
func (gr *Grid) ClampCell(c Cell) Cell {
	return Cell{
		X: min(max(c.X, 0), gr.size-1),
		Y: min(max(c.Y, 0), gr.size-1),
	}
}

// CellCenter returns the world position of the centre of c.
func (gr *Grid) CellCenter(c Cell) (float64, float64) {
	x := (float64(c.X)+0.5)*gr.cellSize - gr.offset
	z := (float64(c.Y)+0.5)*gr.cellSize - gr.offset
	return x, z
}

// Clone returns an independent copy of the walkability map. Scratch state
// is not shared, so the copy can be searched from another goroutine.
func (gr *Grid) Clone() *Grid {
	cp := NewGrid(gr.size, gr.cellSize)
	copy(cp.blocked, gr.blocked)
	return cp
}

// BlockedCount returns how many cells are blocked.
func (gr *Grid) BlockedCount() int {
	n := 0
	for _, b := range gr.blocked {
		if b {
			n++
		}
	}
	return n
}

func (gr *Grid) index(c Cell) int { return c.Y*gr.size + c.X }

func (gr *Grid) cellAt(i int) Cell { return Cell{X: i % gr.size, Y: i / gr.size} }
