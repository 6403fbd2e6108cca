// Package editor is the build-mode companion to the game loop: placing
// buildings and roads, moving and deleting them, with a bounded undo
// stack. The engine runs either the editor or the simulation on a tick,
// never both.
package editor

import (
	"log"

	"github.com/pkg/errors"

	"pizza-rush/internal/level"
)

// Tool selects what a Apply call does.
type Tool int

const (
	ToolSelect Tool = iota
	ToolPlaceBuilding
	ToolPlaceRoad
	ToolMove
	ToolDelete
)

func (t Tool) String() string {
	switch t {
	case ToolSelect:
		return "select"
	case ToolPlaceBuilding:
		return "place-building"
	case ToolPlaceRoad:
		return "place-road"
	case ToolMove:
		return "move"
	case ToolDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// ParseTool maps an API tool name to a Tool.
func ParseTool(name string) (Tool, error) {
	switch name {
	case "select":
		return ToolSelect, nil
	case "place-building":
		return ToolPlaceBuilding, nil
	case "place-road":
		return ToolPlaceRoad, nil
	case "move":
		return ToolMove, nil
	case "delete":
		return ToolDelete, nil
	default:
		return ToolSelect, errors.Errorf("unknown tool %q", name)
	}
}

// Action is one editor command from the client.
type Action struct {
	Tool     string     `json:"tool"`
	X        float64    `json:"x"`
	Z        float64    `json:"z"`
	Scale    [3]float64 `json:"scale,omitempty"`
	Color    string     `json:"color,omitempty"`
	Rotation float64    `json:"rotation,omitempty"`
	Width    float64    `json:"width,omitempty"` // Road width
	Finish   bool       `json:"finish,omitempty"`
}

// Editor mutates a working copy of the level. Undo snapshots the whole
// level before each mutation - levels are small enough that copying
// beats command inversion.
type Editor struct {
	lvl     *level.Level
	undo    []*level.Level
	maxUndo int

	tool        Tool
	selection   int // Building index, -1 none
	pendingRoad []([2]float64)
	roadWidth   float64
}

// New wraps a working copy of the given level.
func New(l *level.Level, maxUndo int) *Editor {
	if maxUndo <= 0 {
		maxUndo = 64
	}
	return &Editor{lvl: cloneLevel(l), maxUndo: maxUndo, selection: -1, roadWidth: 10}
}

// Level returns the working level (live reference, not a copy).
func (e *Editor) Level() *level.Level {
	return e.lvl
}

// Tool returns the active tool.
func (e *Editor) Tool() Tool {
	return e.tool
}

// Selection returns the selected building index, or -1.
func (e *Editor) Selection() int {
	return e.selection
}

// UndoDepth returns how many undo snapshots are held.
func (e *Editor) UndoDepth() int {
	return len(e.undo)
}

// Apply executes one editor action.
func (e *Editor) Apply(a Action) error {
	tool, err := ParseTool(a.Tool)
	if err != nil {
		return err
	}
	e.tool = tool

	switch tool {
	case ToolSelect:
		e.selection = e.buildingAt(a.X, a.Z)
	case ToolPlaceBuilding:
		e.placeBuilding(a)
	case ToolPlaceRoad:
		e.placeRoadPoint(a)
	case ToolMove:
		return e.moveSelection(a)
	case ToolDelete:
		return e.deleteAt(a)
	}
	return nil
}

func (e *Editor) placeBuilding(a Action) {
	e.pushUndo()
	scale := a.Scale
	if scale[0] <= 0 || scale[1] <= 0 || scale[2] <= 0 {
		scale = [3]float64{10, 15, 10}
	}
	color := a.Color
	if color == "" {
		color = "#8a7f6d"
	}
	e.lvl.Buildings = append(e.lvl.Buildings, level.Building{
		Shape:     "box",
		Position:  [3]float64{a.X, 0, a.Z},
		Scale:     scale,
		Rotation:  a.Rotation,
		Color:     color,
		Collision: true,
	})
	e.selection = len(e.lvl.Buildings) - 1
}

// placeRoadPoint accumulates polyline points; Finish commits the road.
func (e *Editor) placeRoadPoint(a Action) {
	if !a.Finish {
		e.pendingRoad = append(e.pendingRoad, [2]float64{a.X, a.Z})
		if a.Width > 0 {
			e.roadWidth = a.Width
		}
		return
	}
	if len(e.pendingRoad) < 2 {
		e.pendingRoad = e.pendingRoad[:0]
		return
	}
	e.pushUndo()
	e.lvl.Roads = append(e.lvl.Roads, level.Road{
		Points: append([][2]float64(nil), e.pendingRoad...),
		Width:  e.roadWidth,
	})
	e.pendingRoad = e.pendingRoad[:0]
}

func (e *Editor) moveSelection(a Action) error {
	if e.selection < 0 || e.selection >= len(e.lvl.Buildings) {
		return errors.New("nothing selected")
	}
	e.pushUndo()
	b := &e.lvl.Buildings[e.selection]
	b.Position[0] = a.X
	b.Position[2] = a.Z
	if a.Rotation != 0 {
		b.Rotation = a.Rotation
	}
	return nil
}

func (e *Editor) deleteAt(a Action) error {
	idx := e.selection
	if idx < 0 {
		idx = e.buildingAt(a.X, a.Z)
	}
	if idx < 0 {
		return errors.New("nothing to delete")
	}
	e.pushUndo()
	e.lvl.Buildings = append(e.lvl.Buildings[:idx], e.lvl.Buildings[idx+1:]...)
	e.selection = -1
	return nil
}

// Undo restores the most recent snapshot. Returns false when empty.
func (e *Editor) Undo() bool {
	if len(e.undo) == 0 {
		return false
	}
	e.lvl = e.undo[len(e.undo)-1]
	e.undo = e.undo[:len(e.undo)-1]
	e.selection = -1
	e.pendingRoad = e.pendingRoad[:0]
	return true
}

// Export returns a standalone copy of the working level.
func (e *Editor) Export(name string) *level.Level {
	out := cloneLevel(e.lvl)
	if name != "" {
		out.Name = name
	}
	return out
}

// Import replaces the working level from raw JSON. On any error the
// prior state is kept untouched.
func (e *Editor) Import(data []byte) error {
	l, err := level.Decode(data)
	if err != nil {
		log.Printf("⚠️ Level import rejected: %v", err)
		return err
	}
	if err := l.Validate(); err != nil {
		log.Printf("⚠️ Level import rejected: %v", err)
		return err
	}
	e.pushUndo()
	e.lvl = l
	e.selection = -1
	e.pendingRoad = e.pendingRoad[:0]
	return nil
}

// buildingAt returns the topmost building whose footprint contains the
// point, or -1. Later placements win ties.
func (e *Editor) buildingAt(x, z float64) int {
	for i := len(e.lvl.Buildings) - 1; i >= 0; i-- {
		b := e.lvl.Buildings[i]
		if x >= b.Position[0]-b.Scale[0]/2 && x <= b.Position[0]+b.Scale[0]/2 &&
			z >= b.Position[2]-b.Scale[2]/2 && z <= b.Position[2]+b.Scale[2]/2 {
			return i
		}
	}
	return -1
}

// pushUndo snapshots the level, evicting the oldest past the cap.
func (e *Editor) pushUndo() {
	if len(e.undo) >= e.maxUndo {
		copy(e.undo, e.undo[1:])
		e.undo = e.undo[:len(e.undo)-1]
	}
	e.undo = append(e.undo, cloneLevel(e.lvl))
}

func cloneLevel(l *level.Level) *level.Level {
	out := &level.Level{
		Version: l.Version,
		Name:    l.Name,
		Spawn:   l.Spawn,
	}
	out.Buildings = append([]level.Building(nil), l.Buildings...)
	for _, r := range l.Roads {
		out.Roads = append(out.Roads, level.Road{
			Points: append([][2]float64(nil), r.Points...),
			Width:  r.Width,
		})
	}
	return out
}
