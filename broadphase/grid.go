package broadphase

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/sheldonrobinson/jinngine-sub001/actor"
	"github.com/sheldonrobinson/jinngine-sub001/arena"
)

// CellKey is the integer coordinate of a grid cell
type CellKey struct {
	X, Y, Z int
}

type cell struct {
	entries []int
}

// Grid hashes objects into a uniform grid of cells and only tests objects
// sharing a cell. Distinct cells may hash to the same bucket, which costs
// extra box tests but never misses a pair.
type Grid struct {
	tracker

	cellSize float64
	cells    []cell
	cellMask int

	handles []arena.Handle
	boxes   []actor.AABB
	seen    []int
}

// NewGrid creates a grid of cellSize cells hashed into numCells buckets
// (rounded up to a power of two).
func NewGrid(cellSize float64, numCells int, filter Filter) *Grid {
	numCells = nextPowerOfTwo(numCells)

	cells := make([]cell, numCells)
	for i := range cells {
		cells[i].entries = make([]int, 0, 8)
	}

	return &Grid{
		tracker:  newTracker(filter),
		cellSize: cellSize,
		cells:    cells,
		cellMask: numCells - 1,
	}
}

func nextPowerOfTwo(n int) int {
	if n <= 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n++
	return n
}

func (g *Grid) Add(h arena.Handle, object Bounded) {
	g.add(h, object)
}

func (g *Grid) Remove(h arena.Handle, handler Handler) {
	g.remove(h, handler)
}

func (g *Grid) Run(handler Handler) {
	g.handles = g.sortedHandles(g.handles)
	g.boxes = g.boxes[:0]
	for _, h := range g.handles {
		g.boxes = append(g.boxes, g.objects[h].AABB())
	}

	for i := range g.cells {
		g.cells[i].entries = g.cells[i].entries[:0]
	}
	for i, box := range g.boxes {
		g.forEachCell(box, func(bucket int) {
			entries := g.cells[bucket].entries
			// a box spanning several cells of one bucket is stored once
			if n := len(entries); n == 0 || entries[n-1] != i {
				g.cells[bucket].entries = append(entries, i)
			}
		})
	}

	if cap(g.seen) < len(g.handles) {
		g.seen = make([]int, len(g.handles))
	}
	g.seen = g.seen[:len(g.handles)]
	for i := range g.seen {
		g.seen[i] = -1
	}

	for i, box := range g.boxes {
		g.forEachCell(box, func(bucket int) {
			for _, j := range g.cells[bucket].entries {
				// ordered visit avoids (A,B) and (B,A)
				if j <= i || g.seen[j] == i {
					continue
				}
				g.seen[j] = i
				g.test(g.handles[i], g.handles[j], box, g.boxes[j])
			}
		})
	}

	g.commit(handler)
}

func (g *Grid) forEachCell(box actor.AABB, fn func(bucket int)) {
	minCell := g.worldToCell(box.Min)
	maxCell := g.worldToCell(box.Max)

	for x := minCell.X; x <= maxCell.X; x++ {
		for y := minCell.Y; y <= maxCell.Y; y++ {
			for z := minCell.Z; z <= maxCell.Z; z++ {
				fn(g.hashCell(CellKey{x, y, z}))
			}
		}
	}
}

func (g *Grid) Pairs() []Pair {
	return g.pairs()
}

func (g *Grid) Len() int {
	return len(g.objects)
}

func (g *Grid) worldToCell(pos mgl64.Vec3) CellKey {
	return CellKey{
		X: int(math.Floor(pos.X() / g.cellSize)),
		Y: int(math.Floor(pos.Y() / g.cellSize)),
		Z: int(math.Floor(pos.Z() / g.cellSize)),
	}
}

func (g *Grid) hashCell(key CellKey) int {
	h := (key.X * 73856093) ^ (key.Y * 19349663) ^ (key.Z * 83492791)
	return h & g.cellMask
}
