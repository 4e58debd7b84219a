// Package brick builds and queries the axis-aligned lattice that partitions
// the scene's XZ plane across object workers. Y is left unbounded: a brick
// is really a column, not a box.
package brick

import "math"

// lattice centers, fixed by the partitioning scheme: six evenly spaced
// values per axis, each brick spanning +/-4 around its center.
var latticeCenters = [6]float64{-10, -6, -2, 2, 6, 10}

const halfWidth = 4.0

// Brick is one column of the XZ lattice. XMin/XMax/ZMin/ZMax may be
// +/-Inf at the outer edge of the lattice so every point in the plane
// falls inside some brick.
type Brick struct {
	ID   int
	XMin float64
	XMax float64
	ZMin float64
	ZMax float64
}

// Lattice builds the 36 geometric bricks (one per (a, b) lattice center
// pair) plus the brick -> worker-list table produced by replicating the
// lattice repetition times across the given workers in round-robin order.
// workers must be non-empty; repetition must be >= 1.
func Lattice[W any](workers []W, repetition int) ([]Brick, map[int][]W) {
	bricks := make([]Brick, 0, 36)
	for ai, a := range latticeCenters {
		for bi, b := range latticeCenters {
			xMin, xMax := a-halfWidth, a+halfWidth
			if ai == 0 {
				xMin = math.Inf(-1)
			}
			if ai == len(latticeCenters)-1 {
				xMax = math.Inf(1)
			}
			zMin, zMax := b-halfWidth, b+halfWidth
			if bi == 0 {
				zMin = math.Inf(-1)
			}
			if bi == len(latticeCenters)-1 {
				zMax = math.Inf(1)
			}
			bricks = append(bricks, Brick{
				ID:   len(bricks),
				XMin: xMin, XMax: xMax,
				ZMin: zMin, ZMax: zMax,
			})
		}
	}

	n := len(workers)
	table := make(map[int][]W, len(bricks))
	for rep := 0; rep < repetition; rep++ {
		for geomIdx := range bricks {
			slot := rep*len(bricks) + geomIdx
			worker := workers[slot%n]
			table[bricks[geomIdx].ID] = append(table[bricks[geomIdx].ID], worker)
		}
	}
	return bricks, table
}
