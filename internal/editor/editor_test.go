package editor

import (
	"testing"

	"pizza-rush/internal/level"
)

func newTestEditor() *Editor {
	l := level.New("workbench")
	l.Buildings = []level.Building{
		{Shape: "box", Position: [3]float64{0, 0, 0}, Scale: [3]float64{10, 15, 10},
			Color: "#8a7f6d", Collision: true},
	}
	return New(l, 64)
}

func TestPlaceBuilding(t *testing.T) {
	e := newTestEditor()

	if err := e.Apply(Action{Tool: "place-building", X: 50, Z: 50}); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	lvl := e.Level()
	if len(lvl.Buildings) != 2 {
		t.Fatalf("Expected 2 buildings, got %d", len(lvl.Buildings))
	}
	b := lvl.Buildings[1]
	if b.Position[0] != 50 || b.Position[2] != 50 {
		t.Errorf("Building at wrong spot: %v", b.Position)
	}
	// Defaults fill in when the action omits them
	if b.Scale != [3]float64{10, 15, 10} || b.Color == "" || !b.Collision {
		t.Errorf("Defaults not applied: %+v", b)
	}
	if e.Selection() != 1 {
		t.Errorf("New building not selected: %d", e.Selection())
	}
}

func TestUnknownToolRejected(t *testing.T) {
	e := newTestEditor()
	if err := e.Apply(Action{Tool: "bulldozer"}); err == nil {
		t.Error("Unknown tool accepted")
	}
}

func TestSelectAndMove(t *testing.T) {
	e := newTestEditor()

	if err := e.Apply(Action{Tool: "select", X: 0, Z: 0}); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if e.Selection() != 0 {
		t.Fatalf("Expected selection 0, got %d", e.Selection())
	}

	if err := e.Apply(Action{Tool: "move", X: 25, Z: -10, Rotation: 90}); err != nil {
		t.Fatalf("Move: %v", err)
	}
	b := e.Level().Buildings[0]
	if b.Position[0] != 25 || b.Position[2] != -10 || b.Rotation != 90 {
		t.Errorf("Move not applied: %+v", b)
	}
}

func TestMoveWithoutSelectionFails(t *testing.T) {
	e := newTestEditor()
	if err := e.Apply(Action{Tool: "move", X: 1, Z: 1}); err == nil {
		t.Error("Move succeeded with nothing selected")
	}
}

func TestSelectMissesOpenGround(t *testing.T) {
	e := newTestEditor()
	e.Apply(Action{Tool: "select", X: 500, Z: 500})
	if e.Selection() != -1 {
		t.Errorf("Selected %d on empty ground", e.Selection())
	}
}

func TestLatestBuildingWinsSelection(t *testing.T) {
	e := newTestEditor()
	// Overlapping placement on top of building 0
	e.Apply(Action{Tool: "place-building", X: 0, Z: 0})

	e.Apply(Action{Tool: "select", X: 0, Z: 0})
	if e.Selection() != 1 {
		t.Errorf("Expected the later building selected, got %d", e.Selection())
	}
}

func TestDeleteBuilding(t *testing.T) {
	e := newTestEditor()

	if err := e.Apply(Action{Tool: "delete", X: 0, Z: 0}); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(e.Level().Buildings) != 0 {
		t.Errorf("Building survived deletion")
	}
	if err := e.Apply(Action{Tool: "delete", X: 0, Z: 0}); err == nil {
		t.Error("Delete succeeded on empty ground")
	}
}

func TestRoadAccumulatesUntilFinish(t *testing.T) {
	e := newTestEditor()

	e.Apply(Action{Tool: "place-road", X: 0, Z: 0, Width: 12})
	e.Apply(Action{Tool: "place-road", X: 0, Z: 50})
	if len(e.Level().Roads) != 0 {
		t.Fatal("Road committed before finish")
	}

	e.Apply(Action{Tool: "place-road", Finish: true})
	roads := e.Level().Roads
	if len(roads) != 1 {
		t.Fatalf("Expected 1 road, got %d", len(roads))
	}
	if len(roads[0].Points) != 2 || roads[0].Width != 12 {
		t.Errorf("Bad road: %+v", roads[0])
	}
}

func TestRoadFinishNeedsTwoPoints(t *testing.T) {
	e := newTestEditor()

	e.Apply(Action{Tool: "place-road", X: 0, Z: 0})
	e.Apply(Action{Tool: "place-road", Finish: true})

	if len(e.Level().Roads) != 0 {
		t.Error("Single-point road committed")
	}
}

func TestUndoRestoresSnapshot(t *testing.T) {
	e := newTestEditor()

	e.Apply(Action{Tool: "place-building", X: 50, Z: 50})
	e.Apply(Action{Tool: "place-building", X: 60, Z: 60})

	if !e.Undo() {
		t.Fatal("Undo refused with history available")
	}
	if len(e.Level().Buildings) != 2 {
		t.Errorf("Expected 2 buildings after one undo, got %d", len(e.Level().Buildings))
	}
	if !e.Undo() {
		t.Fatal("Second undo refused")
	}
	if len(e.Level().Buildings) != 1 {
		t.Errorf("Expected 1 building after full undo, got %d", len(e.Level().Buildings))
	}
	if e.Undo() {
		t.Error("Undo succeeded with empty history")
	}
}

func TestUndoStackIsBounded(t *testing.T) {
	e := New(level.New("tiny"), 3)

	for i := 0; i < 10; i++ {
		e.Apply(Action{Tool: "place-building", X: float64(i * 20), Z: 0})
	}

	if e.UndoDepth() != 3 {
		t.Errorf("Expected undo depth 3, got %d", e.UndoDepth())
	}
	// Undoing everything lands on the oldest retained snapshot, not the
	// original empty level.
	for e.Undo() {
	}
	if len(e.Level().Buildings) != 7 {
		t.Errorf("Expected 7 buildings at the undo floor, got %d", len(e.Level().Buildings))
	}
}

func TestImportReplacesWorkingLevel(t *testing.T) {
	e := newTestEditor()

	incoming := level.New("imported")
	incoming.Buildings = []level.Building{
		{Shape: "box", Scale: [3]float64{5, 5, 5}, Collision: true},
		{Shape: "cylinder", Scale: [3]float64{4, 9, 4}, Collision: true},
	}
	data, err := incoming.Encode()
	if err != nil {
		t.Fatal(err)
	}

	if err := e.Import(data); err != nil {
		t.Fatalf("Import: %v", err)
	}
	if e.Level().Name != "imported" || len(e.Level().Buildings) != 2 {
		t.Errorf("Import not applied: %+v", e.Level())
	}

	// Import is undoable
	if !e.Undo() {
		t.Fatal("Undo after import refused")
	}
	if e.Level().Name != "workbench" {
		t.Errorf("Undo did not restore the prior level: %q", e.Level().Name)
	}
}

func TestImportRejectionKeepsPriorState(t *testing.T) {
	e := newTestEditor()

	if err := e.Import([]byte(`{"version": 9}`)); err == nil {
		t.Error("Bad version imported")
	}
	bad := level.New("bad")
	bad.Buildings = []level.Building{{Shape: "sphere", Scale: [3]float64{1, 1, 1}}}
	data, _ := bad.Encode()
	if err := e.Import(data); err == nil {
		t.Error("Invalid geometry imported")
	}

	if e.Level().Name != "workbench" || len(e.Level().Buildings) != 1 {
		t.Error("Rejected import disturbed the working level")
	}
}

func TestExportIsIsolatedCopy(t *testing.T) {
	e := newTestEditor()

	out := e.Export("shipped")
	if out.Name != "shipped" {
		t.Errorf("Export name not applied: %q", out.Name)
	}

	out.Buildings[0].Position[0] = 999
	if e.Level().Buildings[0].Position[0] == 999 {
		t.Error("Export shares state with the working level")
	}
}
