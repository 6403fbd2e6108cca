// Package spatial provides cache-efficient spatial data structures for
// broad-phase collision queries against the city.
//
// The building grid stores entity indices (not pointers) to minimize GC
// pressure; the caller resolves indices against its own building slice.
package spatial

import "math"

// AABB is an axis-aligned building bound on the ground plane. Buildings
// stand on Y=0 and extend up to Height, so two floats cover the vertical.
type AABB struct {
	MinX, MaxX float64
	MinZ, MaxZ float64
	Height     float64
}

// Contains reports whether the point (x, z) lies inside the bound.
func (b AABB) Contains(x, z float64) bool {
	return x >= b.MinX && x <= b.MaxX && z >= b.MinZ && z <= b.MaxZ
}

// ClosestPoint returns the closest point on the bound's footprint to (x, z).
func (b AABB) ClosestPoint(x, z float64) (cx, cz float64) {
	cx = math.Max(b.MinX, math.Min(b.MaxX, x))
	cz = math.Max(b.MinZ, math.Min(b.MaxZ, z))
	return cx, cz
}

// cellKey is an integer cell coordinate. An integer-keyed map avoids the
// string allocation a stringified "x,z" key would pay on every lookup.
type cellKey struct {
	cx, cz int32
}

// BuildingGrid is a uniform grid over the city's static building bounds.
// It is built once from the building list and rebuilt only when that list
// changes (editor placements, level load) - never per frame.
//
// Queries walk the 3x3 cell neighborhood around a position, which bounds
// collision cost regardless of city size. For that to be sound the cell
// size must be at least the player collision diameter plus the largest
// single-cell overhang; the default 30 matches one city block.
type BuildingGrid struct {
	cellSize    float64
	invCellSize float64
	cells       map[cellKey][]uint32
	scratch     []uint32 // reusable buffer for query results
	generation  uint64   // bumped on every rebuild
}

// NewBuildingGrid creates an empty grid with the given cell size.
func NewBuildingGrid(cellSize float64) *BuildingGrid {
	if cellSize <= 0 {
		cellSize = 30
	}
	return &BuildingGrid{
		cellSize:    cellSize,
		invCellSize: 1.0 / cellSize,
		cells:       make(map[cellKey][]uint32),
		scratch:     make([]uint32, 0, 32),
	}
}

// Rebuild replaces the grid contents from a fresh bound list.
// An AABB is inserted into every cell its footprint overlaps, so a building
// larger than one cell is still found from any neighboring cell.
func (g *BuildingGrid) Rebuild(bounds []AABB) {
	for k := range g.cells {
		delete(g.cells, k)
	}

	for i, b := range bounds {
		minCX := int32(math.Floor(b.MinX * g.invCellSize))
		maxCX := int32(math.Floor(b.MaxX * g.invCellSize))
		minCZ := int32(math.Floor(b.MinZ * g.invCellSize))
		maxCZ := int32(math.Floor(b.MaxZ * g.invCellSize))

		for cx := minCX; cx <= maxCX; cx++ {
			for cz := minCZ; cz <= maxCZ; cz++ {
				k := cellKey{cx, cz}
				g.cells[k] = append(g.cells[k], uint32(i))
			}
		}
	}

	g.generation++
}

// QueryNeighborhood returns indices of all bounds registered in the 3x3
// cells around (x, z).
//
// IMPORTANT: The returned slice is reused on subsequent calls. Copy the
// results if you need to persist them. Candidates may lie outside the
// collision radius; the caller performs the precise check (narrow phase).
func (g *BuildingGrid) QueryNeighborhood(x, z float64) []uint32 {
	g.scratch = g.scratch[:0]

	ccx := int32(math.Floor(x * g.invCellSize))
	ccz := int32(math.Floor(z * g.invCellSize))

	for cx := ccx - 1; cx <= ccx+1; cx++ {
		for cz := ccz - 1; cz <= ccz+1; cz++ {
			if bucket, ok := g.cells[cellKey{cx, cz}]; ok {
				g.scratch = append(g.scratch, bucket...)
			}
		}
	}

	return g.scratch
}

// Generation returns the rebuild counter. Consumers that cache derived data
// (minimap, editor overlays) compare generations to detect staleness.
func (g *BuildingGrid) Generation() uint64 {
	return g.generation
}

// Stats returns grid statistics for debugging/profiling.
func (g *BuildingGrid) Stats() GridStats {
	var total, maxInCell int
	for _, bucket := range g.cells {
		n := len(bucket)
		total += n
		if n > maxInCell {
			maxInCell = n
		}
	}

	avg := 0.0
	if len(g.cells) > 0 {
		avg = float64(total) / float64(len(g.cells))
	}

	return GridStats{
		NonEmptyCells: len(g.cells),
		TotalEntries:  total,
		MaxInCell:     maxInCell,
		AvgPerCell:    avg,
	}
}

// GridStats contains grid statistics for debugging.
type GridStats struct {
	NonEmptyCells int
	TotalEntries  int
	MaxInCell     int
	AvgPerCell    float64
}
