package brick

import (
	"github.com/dhconnelly/rtreego"
)

// entry adapts a Brick to rtreego.Spatial so the lattice can be queried by
// bounding-box overlap instead of a linear scan over all 36 lattice bricks.
type entry struct {
	brick Brick
}

func (e entry) Bounds() rtreego.Rect {
	xMin, zMin := finite(e.brick.XMin), finite(e.brick.ZMin)
	xLen := finite(e.brick.XMax) - xMin
	zLen := finite(e.brick.ZMax) - zMin
	rect, err := rtreego.NewRect(rtreego.Point{xMin, -sentinel, zMin}, []float64{xLen, 2 * sentinel, zLen})
	if err != nil {
		// Degenerate (zero-length) rects are rejected by rtreego; pad them
		// to the smallest representable extent rather than dropping the
		// brick from the index.
		rect, _ = rtreego.NewRect(rtreego.Point{xMin, -sentinel, zMin}, []float64{xLen + 1e-9, 2 * sentinel, zLen + 1e-9})
	}
	return rect
}

// Index is a spatial index over a lattice's geometric bricks, used by the
// orchestrator to find the bricks overlapping a primitive's bounding sphere
// without scanning the whole lattice.
type Index struct {
	tree *rtreego.Rtree
}

// NewIndex builds an Index over bricks.
func NewIndex(bricks []Brick) *Index {
	tree := rtreego.NewTree(3, 2, 5)
	for _, b := range bricks {
		tree.Insert(entry{brick: b})
	}
	return &Index{tree: tree}
}

// Overlapping returns every brick whose XZ extent overlaps the axis-aligned
// box [minX,maxX] x [minZ,maxZ].
func (idx *Index) Overlapping(minX, maxX, minZ, maxZ float64) []Brick {
	xMin, xMax := finite(minX), finite(maxX)
	zMin, zMax := finite(minZ), finite(maxZ)
	rect, err := rtreego.NewRect(rtreego.Point{xMin, -sentinel, zMin}, []float64{maxF(xMax-xMin, 1e-9), 2 * sentinel, maxF(zMax-zMin, 1e-9)})
	if err != nil {
		return nil
	}
	results := idx.tree.SearchIntersect(rect)
	bricks := make([]Brick, 0, len(results))
	for _, r := range results {
		bricks = append(bricks, r.(entry).brick)
	}
	return bricks
}
