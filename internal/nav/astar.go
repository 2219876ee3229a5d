package nav

import "container/heap"

// Expansion order for neighbours. Together with the open-list ordering it
// fixes which of several equally short paths is returned.
var dirs = [4]Cell{
	{0, 1}, {0, -1}, {1, 0}, {-1, 0},
}

// openList is a binary heap of cell indices ordered by f, then by the order
// in which each cell was first discovered. A relaxed cell keeps its
// discovery order, so among equal f the earliest-found cell always wins.
type openList struct {
	gr    *Grid
	items []int32
	pos   map[int32]int
}

func (ol *openList) Len() int { return len(ol.items) }

func (ol *openList) Less(i, j int) bool {
	a, b := ol.items[i], ol.items[j]
	if ol.gr.f[a] != ol.gr.f[b] {
		return ol.gr.f[a] < ol.gr.f[b]
	}
	return ol.gr.seq[a] < ol.gr.seq[b]
}

func (ol *openList) Swap(i, j int) {
	ol.items[i], ol.items[j] = ol.items[j], ol.items[i]
	ol.pos[ol.items[i]] = i
	ol.pos[ol.items[j]] = j
}

func (ol *openList) Push(x any) {
	n := x.(int32)
	ol.pos[n] = len(ol.items)
	ol.items = append(ol.items, n)
}

func (ol *openList) Pop() any {
	old := ol.items
	n := old[len(old)-1]
	ol.items = old[:len(old)-1]
	delete(ol.pos, n)
	return n
}

// FindPath returns the shortest 4-connected cell sequence from start to
// goal, both inclusive, using unit step cost and the Manhattan heuristic.
// It returns a single cell when start == goal and an empty, non-nil slice
// when goal cannot be reached or either end lies outside the grid.
//
// The start cell is expanded even when blocked. FindPath uses scratch
// state owned by the grid and must not be called concurrently on the
// same Grid.
func (gr *Grid) FindPath(start, goal Cell) []Cell {
	if !gr.InBounds(start) || !gr.InBounds(goal) {
		return []Cell{}
	}
	gr.nextGen()

	si := int32(gr.index(start))
	gi := int32(gr.index(goal))

	ol := &openList{gr: gr, pos: make(map[int32]int)}
	var discovered int32
	gr.open(si, 0, manhattan(start, goal), -1, discovered)
	discovered++
	heap.Push(ol, si)

	for ol.Len() > 0 {
		cur := heap.Pop(ol).(int32)
		if cur == gi {
			return gr.buildPath(cur)
		}
		gr.closed[cur] = true

		cc := gr.cellAt(int(cur))
		for _, d := range dirs {
			nc := Cell{X: cc.X + d.X, Y: cc.Y + d.Y}
			if !gr.InBounds(nc) {
				continue
			}
			ni := int32(gr.index(nc))
			if gr.blocked[ni] {
				continue
			}
			tg := gr.g[cur] + 1
			if !gr.seen(ni) {
				gr.open(ni, tg, manhattan(nc, goal), cur, discovered)
				discovered++
				heap.Push(ol, ni)
				continue
			}
			if gr.closed[ni] || tg >= gr.g[ni] {
				continue
			}
			gr.f[ni] = tg + (gr.f[ni] - gr.g[ni])
			gr.g[ni] = tg
			gr.parent[ni] = cur
			heap.Fix(ol, ol.pos[ni])
		}
	}
	return []Cell{}
}

// PathLength returns the number of steps in a path.
func PathLength(path []Cell) int {
	if len(path) == 0 {
		return 0
	}
	return len(path) - 1
}

func (gr *Grid) nextGen() {
	gr.gen++
	if gr.gen == 0 {
		clear(gr.stamp)
		gr.gen = 1
	}
}

func (gr *Grid) seen(i int32) bool { return gr.stamp[i] == gr.gen }

func (gr *Grid) open(i int32, g, h int, parent, seq int32) {
	gr.stamp[i] = gr.gen
	gr.closed[i] = false
	gr.g[i] = g
	gr.f[i] = g + h
	gr.parent[i] = parent
	gr.seq[i] = seq
}

func (gr *Grid) buildPath(end int32) []Cell {
	var cells []Cell
	for n := end; n >= 0; n = gr.parent[n] {
		cells = append(cells, gr.cellAt(int(n)))
	}
	// Reverse
	for i, j := 0, len(cells)-1; i < j; i, j = i+1, j-1 {
		cells[i], cells[j] = cells[j], cells[i]
	}
	return cells
}

func manhattan(a, b Cell) int {
	return abs(a.X-b.X) + abs(a.Y-b.Y)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
