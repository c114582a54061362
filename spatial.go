package main

import (
	"math"
	"sort"
)

// SpatialGrid is a uniform grid over the arena for broad-phase blast queries.
// Entries are indices into the robot list the grid was built from.
type SpatialGrid struct {
	cellSize float64
	cols     int
	rows     int
	cells    [][]int
}

// NewSpatialGrid creates a grid covering width x height with square cells
func NewSpatialGrid(width, height, cellSize float64) *SpatialGrid {
	cols := int(math.Ceil(width/cellSize)) + 1
	rows := int(math.Ceil(height/cellSize)) + 1
	return &SpatialGrid{
		cellSize: cellSize,
		cols:     cols,
		rows:     rows,
		cells:    make([][]int, cols*rows),
	}
}

// Clear resets all cells (keeps allocated capacity)
func (g *SpatialGrid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

func (g *SpatialGrid) clampCell(cx, cy int) (int, int) {
	if cx < 0 {
		cx = 0
	} else if cx >= g.cols {
		cx = g.cols - 1
	}
	if cy < 0 {
		cy = 0
	} else if cy >= g.rows {
		cy = g.rows - 1
	}
	return cx, cy
}

// Insert adds idx at the given position
func (g *SpatialGrid) Insert(p Vec, idx int) {
	cx, cy := g.clampCell(int(p.X/g.cellSize), int(p.Y/g.cellSize))
	i := cy*g.cols + cx
	g.cells[i] = append(g.cells[i], idx)
}

// QueryBuf appends to buf every index in cells overlapping the square of
// half-size radius around p, in ascending order.
func (g *SpatialGrid) QueryBuf(p Vec, radius float64, buf []int) []int {
	minCX, minCY := g.clampCell(int(math.Floor((p.X-radius)/g.cellSize)), int(math.Floor((p.Y-radius)/g.cellSize)))
	maxCX, maxCY := g.clampCell(int(math.Floor((p.X+radius)/g.cellSize)), int(math.Floor((p.Y+radius)/g.cellSize)))
	start := len(buf)
	for cy := minCY; cy <= maxCY; cy++ {
		for cx := minCX; cx <= maxCX; cx++ {
			buf = append(buf, g.cells[cy*g.cols+cx]...)
		}
	}
	sort.Ints(buf[start:])
	return buf
}

// indexRobots rebuilds the blast grid from the living robots
func (a *Arena) indexRobots() {
	a.grid.Clear()
	a.gridRobots = a.gridRobots[:0]
	for _, r := range a.Robots() {
		if r.Dead {
			continue
		}
		a.grid.Insert(r.Position, len(a.gridRobots))
		a.gridRobots = append(a.gridRobots, r)
	}
}

// robotsNear returns indexed robots whose cell lies within radius of p, in
// spawn order. Callers still need an exact distance check.
func (a *Arena) robotsNear(p Vec, radius float64) []*Robot {
	a.queryBuf = a.grid.QueryBuf(p, radius, a.queryBuf[:0])
	near := make([]*Robot, 0, len(a.queryBuf))
	for _, idx := range a.queryBuf {
		near = append(near, a.gridRobots[idx])
	}
	return near
}
