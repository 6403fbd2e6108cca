package spatial

import "testing"

func TestAABBContains(t *testing.T) {
	b := AABB{MinX: 0, MaxX: 10, MinZ: 0, MaxZ: 10, Height: 20}

	if !b.Contains(5, 5) {
		t.Error("Center not contained")
	}
	if !b.Contains(0, 10) {
		t.Error("Edge not contained")
	}
	if b.Contains(-1, 5) || b.Contains(5, 11) {
		t.Error("Outside point contained")
	}
}

func TestAABBClosestPoint(t *testing.T) {
	b := AABB{MinX: 0, MaxX: 10, MinZ: 0, MaxZ: 10}

	// Inside point maps to itself
	cx, cz := b.ClosestPoint(3, 7)
	if cx != 3 || cz != 7 {
		t.Errorf("Inside point moved: (%f, %f)", cx, cz)
	}

	// Outside point clamps to the boundary
	cx, cz = b.ClosestPoint(15, -5)
	if cx != 10 || cz != 0 {
		t.Errorf("Expected corner (10, 0), got (%f, %f)", cx, cz)
	}
}

func TestGridQueryFindsNeighbors(t *testing.T) {
	g := NewBuildingGrid(30)
	g.Rebuild([]AABB{
		{MinX: 0, MaxX: 10, MinZ: 0, MaxZ: 10},     // index 0
		{MinX: 100, MaxX: 110, MinZ: 0, MaxZ: 10},  // index 1, far away
		{MinX: 20, MaxX: 28, MinZ: 20, MaxZ: 28},   // index 2, same cell area
	})

	found := map[uint32]bool{}
	for _, idx := range g.QueryNeighborhood(5, 5) {
		found[idx] = true
	}

	if !found[0] || !found[2] {
		t.Errorf("Nearby buildings missing from query: %v", found)
	}
	if found[1] {
		t.Error("Distant building returned from a local query")
	}
}

func TestGridLargeBuildingSpansCells(t *testing.T) {
	g := NewBuildingGrid(30)
	// A building wider than one cell must be reachable from both ends
	g.Rebuild([]AABB{{MinX: 0, MaxX: 90, MinZ: 0, MaxZ: 10}})

	for _, x := range []float64{5, 45, 85} {
		hit := false
		for _, idx := range g.QueryNeighborhood(x, 5) {
			if idx == 0 {
				hit = true
			}
		}
		if !hit {
			t.Errorf("Building not found from x=%f", x)
		}
	}
}

func TestGridNegativeCoordinates(t *testing.T) {
	g := NewBuildingGrid(30)
	g.Rebuild([]AABB{{MinX: -50, MaxX: -40, MinZ: -50, MaxZ: -40}})

	hit := false
	for _, idx := range g.QueryNeighborhood(-45, -45) {
		if idx == 0 {
			hit = true
		}
	}
	if !hit {
		t.Error("Building in negative space not found")
	}
}

func TestGridRebuildReplacesContents(t *testing.T) {
	g := NewBuildingGrid(30)
	g.Rebuild([]AABB{{MinX: 0, MaxX: 10, MinZ: 0, MaxZ: 10}})
	gen := g.Generation()

	g.Rebuild(nil)

	if len(g.QueryNeighborhood(5, 5)) != 0 {
		t.Error("Old contents survived a rebuild")
	}
	if g.Generation() != gen+1 {
		t.Errorf("Generation not bumped: %d -> %d", gen, g.Generation())
	}
}

func TestGridStats(t *testing.T) {
	g := NewBuildingGrid(30)
	g.Rebuild([]AABB{
		{MinX: 0, MaxX: 5, MinZ: 0, MaxZ: 5},
		{MinX: 6, MaxX: 11, MinZ: 0, MaxZ: 5},
	})

	stats := g.Stats()
	if stats.TotalEntries < 2 {
		t.Errorf("Expected at least 2 entries, got %d", stats.TotalEntries)
	}
	if stats.NonEmptyCells == 0 {
		t.Error("No non-empty cells recorded")
	}
}

func TestGridDefaultCellSize(t *testing.T) {
	g := NewBuildingGrid(0)
	if g.cellSize != 30 {
		t.Errorf("Expected fallback cell size 30, got %f", g.cellSize)
	}
}
